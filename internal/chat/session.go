package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantbao/stockchat-backend/internal/format"
	"github.com/quantbao/stockchat-backend/internal/history"
	"github.com/quantbao/stockchat-backend/internal/models"
	"github.com/quantbao/stockchat-backend/internal/symbols"
)

// Renderer turns produced turns into something visible. The terminal
// front-end implements it; rendering details are not this package's
// concern.
type Renderer interface {
	RenderTurn(turn models.Turn)
}

// QuoteFetcher is the slice of the quotes fetcher the session uses.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
	FetchSeries(ctx context.Context, symbol, interval, rng string) (*models.Series, error)
}

// Completer produces an assistant reply for a user message plus
// conversation context.
type Completer interface {
	Complete(ctx context.Context, userMessage string, history []models.Turn) (string, error)
}

// Session orchestrates one conversation: recognition, optional quote
// fetch, model call, rendering. All state that used to be ambient
// (history, in-flight guard, current symbol) lives on the session, so
// independent sessions can coexist in one process.
type Session struct {
	store    *history.Store
	table    *symbols.Table
	fetcher  QuoteFetcher
	model    Completer
	renderer Renderer

	inFlight atomic.Bool

	mu            sync.Mutex
	currentSymbol string
	series        *models.Series
}

func NewSession(store *history.Store, table *symbols.Table, fetcher QuoteFetcher, model Completer, renderer Renderer) *Session {
	return &Session{
		store:    store,
		table:    table,
		fetcher:  fetcher,
		model:    model,
		renderer: renderer,
	}
}

// Submit runs one full chat turn. It reports whether the input was
// accepted: empty input and input arriving while another turn is in
// flight are silently dropped, never queued.
func (s *Session) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	// The guard must clear no matter which step below fails.
	defer s.inFlight.Store(false)

	// Optimistic echo: the user turn is stored and shown before any
	// network round trip.
	userTurn, err := s.store.Append(ctx, models.RoleUser, text)
	if err != nil {
		fmt.Printf("[CHAT] Persist failed: %v\n", err)
	}
	s.renderTurn(userTurn)

	if codes := s.table.Recognize(text); len(codes) > 0 {
		s.lookupQuote(ctx, codes[0])
	}

	reply, err := s.model.Complete(ctx, text, s.store.All())
	if err != nil {
		// The turn still completes; the failure becomes a rendered
		// message instead of escaping.
		s.renderInterim(UserFacingError(err))
	} else {
		replyTurn, err := s.store.Append(ctx, models.RoleAssistant, reply)
		if err != nil {
			fmt.Printf("[CHAT] Persist failed: %v\n", err)
		}
		s.renderTurn(replyTurn)
	}

	s.prefetchSeries(ctx)
	return true
}

// lookupQuote fetches and renders the interim quote turn. A failure
// here never aborts the pipeline.
func (s *Session) lookupQuote(ctx context.Context, symbol string) {
	q, err := s.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		s.renderInterim(fmt.Sprintf("⚠️ 无法获取股票数据: %v\n\n继续使用AI分析...", err))
		return
	}

	s.mu.Lock()
	s.currentSymbol = q.Symbol
	s.mu.Unlock()

	s.renderInterim(format.QuoteSummary(q) + "\n\n正在分析...")
}

// prefetchSeries warms the chart series for the current symbol.
// Best-effort: failures are logged, never surfaced.
func (s *Session) prefetchSeries(ctx context.Context) {
	s.mu.Lock()
	symbol := s.currentSymbol
	s.mu.Unlock()
	if symbol == "" {
		return
	}

	series, err := s.fetcher.FetchSeries(ctx, symbol, "1d", "1mo")
	if err != nil {
		fmt.Printf("[CHAT] Series prefetch failed for %s: %v\n", symbol, err)
		return
	}

	s.mu.Lock()
	s.series = series
	s.mu.Unlock()
}

// CurrentSymbol returns the symbol under discussion, if any.
func (s *Session) CurrentSymbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSymbol
}

// Series returns the prefetched candle series for the current symbol.
func (s *Session) Series() *models.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series
}

// Reset clears the current symbol and its prefetched series. Nothing
// expires it otherwise.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSymbol = ""
	s.series = nil
}

// renderInterim shows an informational turn without recording it:
// quote summaries and error notices are display-only.
func (s *Session) renderInterim(content string) {
	s.renderTurn(models.Turn{
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	})
}

func (s *Session) renderTurn(turn models.Turn) {
	if s.renderer != nil {
		s.renderer.RenderTurn(turn)
	}
}
