package testutil

import (
	"os"

	"github.com/joho/godotenv"
)

// TestDSN returns the DSN for database integration tests, either from
// TEST_DATABASE_URL or assembled from DB_* vars. Empty means no test
// database is available and the caller should skip.
func TestDSN() string {
	_ = godotenv.Load("../../.env")

	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	if os.Getenv("DB_USER") == "" {
		return ""
	}
	host := EnvOr("DB_HOST", "localhost")
	port := EnvOr("DB_PORT", "5432")
	name := EnvOr("DB_NAME", "stockchat_test")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
