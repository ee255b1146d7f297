package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultSystemPrompt = "你是一位专业的股票投资助手，熟悉A股市场。" +
	"回答要专业、客观，提示投资风险，不构成投资建议。"

type Config struct {
	// Chat model endpoint (OpenAI-style chat completions)
	ChatAPIEndpoint  string
	ChatAPIKey       string
	ChatModel        string
	ChatMaxTokens    int
	ChatTemperature  float64
	ChatSystemPrompt string

	// Quote providers
	QuoteBaseURL        string
	AlphaVantageBaseURL string
	AlphaVantageAPIKey  string
	QuoteRetryAttempts  int

	// Conversation storage
	StorageBackend string // memory | sqlite | postgres
	SQLitePath     string

	// Database (postgres backend)
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Symbol table
	SymbolsFile string

	// Proxy server
	ServerPort      int
	CORSAllowOrigin string
	CacheTTLSeconds int
	WatchSymbols    []string
	WarmCronSpec    string
	WebhookURL      string
	BotName         string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Chat model
		ChatAPIEndpoint:  envStr("CHAT_API_ENDPOINT", "https://open.bigmodel.cn/api/paas/v4/chat/completions"),
		ChatAPIKey:       envStr("CHAT_API_KEY", ""),
		ChatModel:        envStr("CHAT_MODEL", "glm-4-flash"),
		ChatMaxTokens:    envInt("CHAT_MAX_TOKENS", 1024),
		ChatTemperature:  envFloat("CHAT_TEMPERATURE", 0.7),
		ChatSystemPrompt: envStr("CHAT_SYSTEM_PROMPT", defaultSystemPrompt),

		// Quote providers
		QuoteBaseURL:        envStr("QUOTE_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		AlphaVantageBaseURL: envStr("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		AlphaVantageAPIKey:  envStr("ALPHA_VANTAGE_API_KEY", ""),
		QuoteRetryAttempts:  envInt("QUOTE_RETRY_ATTEMPTS", 1),

		// Storage
		StorageBackend: envStr("STORAGE_BACKEND", "sqlite"),
		SQLitePath:     envStr("SQLITE_PATH", "stockchat.db"),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "stockchat"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Symbols
		SymbolsFile: envStr("SYMBOLS_FILE", ""),

		// Proxy server
		ServerPort:      envInt("SERVER_PORT", 8080),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),
		CacheTTLSeconds: envInt("CACHE_TTL_SECONDS", 60),
		WatchSymbols:    envList("WATCH_SYMBOLS"),
		WarmCronSpec:    envStr("WARM_CRON_SPEC", "*/5 * * * *"),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "StockProxy"),
	}

	return cfg, nil
}

// ValidateChat checks settings the chat assistant needs.
func (c *Config) ValidateChat() error {
	var errs []string

	if c.ChatAPIKey == "" {
		errs = append(errs, "CHAT_API_KEY is required")
	}
	switch c.StorageBackend {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_BACKEND %q is not one of memory, sqlite, postgres", c.StorageBackend))
	}
	if c.StorageBackend == "postgres" && c.DBUser == "" {
		errs = append(errs, "DB_USER is required for the postgres backend")
	}
	if c.AlphaVantageAPIKey == "" {
		fmt.Println("[WARN] ALPHA_VANTAGE_API_KEY not set — no fallback quote provider")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// ValidateServer checks settings the proxy server needs.
func (c *Config) ValidateServer() error {
	var errs []string

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT %d is out of range", c.ServerPort))
	}
	if c.CacheTTLSeconds <= 0 {
		errs = append(errs, "CACHE_TTL_SECONDS must be positive")
	}
	if len(c.WatchSymbols) == 0 {
		fmt.Println("[WARN] WATCH_SYMBOLS not set — cache warmer disabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) PrintChat() {
	fmt.Println("=== Stock Chat Assistant Configuration ===")
	fmt.Printf("Model: %s (max_tokens=%d, temperature=%.1f)\n", c.ChatModel, c.ChatMaxTokens, c.ChatTemperature)
	fmt.Printf("Endpoint: %s\n", c.ChatAPIEndpoint)
	fmt.Printf("API key: %s\n", maskKey(c.ChatAPIKey))
	fmt.Println("------------------------------------------")
	fmt.Printf("Quote provider: %s\n", c.QuoteBaseURL)
	fmt.Printf("Fallback provider: %s\n", boolLabel(c.AlphaVantageAPIKey != "", "configured", "not set"))
	fmt.Printf("Quote retries: %d attempt(s)\n", c.QuoteRetryAttempts)
	fmt.Println("------------------------------------------")
	fmt.Printf("Storage: %s", c.StorageBackend)
	switch c.StorageBackend {
	case "sqlite":
		fmt.Printf(" (%s)", c.SQLitePath)
	case "postgres":
		fmt.Printf(" (%s:%d/%s)", c.DBHost, c.DBPort, c.DBName)
	}
	fmt.Println()
	if c.SymbolsFile != "" {
		fmt.Printf("Symbol table override: %s\n", c.SymbolsFile)
	}
	fmt.Println("==========================================")
}

func (c *Config) PrintServer() {
	fmt.Println("=== Stock Proxy Configuration ===")
	fmt.Printf("Port: %d\n", c.ServerPort)
	fmt.Printf("CORS origin: %s\n", c.CORSAllowOrigin)
	fmt.Printf("Upstream: %s\n", c.QuoteBaseURL)
	fmt.Printf("Cache TTL: %ds\n", c.CacheTTLSeconds)
	if len(c.WatchSymbols) > 0 {
		fmt.Printf("Warmer: %q for %s\n", c.WarmCronSpec, strings.Join(c.WatchSymbols, ", "))
	} else {
		fmt.Println("Warmer: disabled")
	}
	fmt.Printf("Alerts: %s\n", boolLabel(c.WebhookURL != "", "webhook configured", "console only"))
	fmt.Println("=================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
