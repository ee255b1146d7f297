package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantbao/stockchat-backend/internal/api"
	"github.com/quantbao/stockchat-backend/internal/config"
	"github.com/quantbao/stockchat-backend/internal/httputil"
	"github.com/quantbao/stockchat-backend/internal/notifications"
	"github.com/quantbao/stockchat-backend/internal/quotes"
	"github.com/quantbao/stockchat-backend/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║        Stock Quote Proxy v0.3        ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.PrintServer()

	// The proxy retries transient upstream failures; clients see only
	// the final outcome.
	source := quotes.NewYahooClient(cfg.QuoteBaseURL, httputil.DefaultRetry)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Proxy server
	srv := api.NewServer(source, cfg.ServerPort, cfg.CORSAllowOrigin,
		time.Duration(cfg.CacheTTLSeconds)*time.Second)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Cache warmer
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	warmer := scheduler.NewWarmer(srv, scheduler.WarmerConfig{
		Symbols:  cfg.WatchSymbols,
		CronSpec: cfg.WarmCronSpec,
		Alerter:  notify,
	})
	if err := warmer.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARMER] Start failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	warmer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
