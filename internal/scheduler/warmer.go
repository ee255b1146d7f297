package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CacheTarget is what the warmer primes; the proxy server implements
// it.
type CacheTarget interface {
	Warm(ctx context.Context, symbol string) error
}

// Alerter receives operational alerts when warming degrades.
type Alerter interface {
	Send(msg string)
	Enabled() bool
}

type WarmerConfig struct {
	Symbols  []string // provider tickers, e.g. 600519.SS
	CronSpec string   // standard 5-field cron expression
	Alerter  Alerter  // optional
}

// Warmer re-fetches a watchlist on a cron schedule so the proxy's
// response cache stays hot between client requests.
type Warmer struct {
	target CacheTarget
	cfg    WarmerConfig
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewWarmer(target CacheTarget, cfg WarmerConfig) *Warmer {
	if cfg.CronSpec == "" {
		cfg.CronSpec = "*/5 * * * *"
	}
	return &Warmer{
		target: target,
		cfg:    cfg,
		cron:   cron.New(),
	}
}

func (w *Warmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		fmt.Println("[WARMER] Already running")
		return nil
	}
	if len(w.cfg.Symbols) == 0 {
		fmt.Println("[WARMER] No watch symbols configured, warmer disabled")
		return nil
	}

	if _, err := w.cron.AddFunc(w.cfg.CronSpec, w.warmAll); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	w.cron.Start()
	w.running = true

	// Initial warm on startup (fire-and-forget)
	go w.warmAll()

	fmt.Printf("[WARMER] Started (%q, %d symbols)\n", w.cfg.CronSpec, len(w.cfg.Symbols))
	return nil
}

func (w *Warmer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.running = false
	fmt.Println("[WARMER] Stopped")
}

func (w *Warmer) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// WarmNow primes every watch symbol outside the normal schedule.
func (w *Warmer) WarmNow(ctx context.Context) error {
	return w.warm(ctx)
}

func (w *Warmer) warmAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := w.warm(ctx); err != nil {
		fmt.Printf("[WARMER] %v\n", err)
	}
}

func (w *Warmer) warm(ctx context.Context) error {
	var failed []string
	for _, symbol := range w.cfg.Symbols {
		if err := w.target.Warm(ctx, symbol); err != nil {
			fmt.Printf("[WARMER] Warm %s failed: %v\n", symbol, err)
			failed = append(failed, symbol)
			continue
		}
	}

	// A partial failure is routine (suspended symbols, upstream
	// hiccups); a total failure means the upstream is down.
	if len(failed) == len(w.cfg.Symbols) && len(failed) > 0 {
		msg := fmt.Sprintf("cache warm failed for all watch symbols: %s", strings.Join(failed, ", "))
		if w.cfg.Alerter != nil && w.cfg.Alerter.Enabled() {
			w.cfg.Alerter.Send(msg)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}
