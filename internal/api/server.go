package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quantbao/stockchat-backend/internal/quotes"
)

// QuoteSource is the upstream chart client the proxy forwards to.
type QuoteSource interface {
	FetchChart(ctx context.Context, symbol, interval, rng string) (*quotes.Chart, error)
}

type Server struct {
	source     QuoteSource
	cache      *responseCache
	httpServer *http.Server
}

func NewServer(source QuoteSource, port int, corsOrigin string, cacheTTL time.Duration) *Server {
	s := &Server{
		source: source,
		cache:  newResponseCache(cacheTTL),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stock", s.handleStock)
	mux.HandleFunc("/api/stock", s.handleStockMethodNotAllowed)

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := corsMiddleware(mux, corsOrigin)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	fmt.Printf("[API] Stock proxy started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
