package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/quantbao/stockchat-backend/internal/models"
	"github.com/quantbao/stockchat-backend/internal/symbols"
)

// Fetcher resolves real-time quotes and candle series. The primary
// provider is tried first; for single-quote lookups any primary
// failure falls through to the secondary provider, and a double
// failure surfaces as one QuoteUnavailableError.
type Fetcher struct {
	primary   *YahooClient
	secondary *AlphaVantageClient
}

func NewFetcher(primary *YahooClient, secondary *AlphaVantageClient) *Fetcher {
	return &Fetcher{primary: primary, secondary: secondary}
}

// FetchQuote returns the current trading snapshot for symbol.
func (f *Fetcher) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	ticker := symbols.ProviderTicker(symbol)

	chart, primaryErr := f.primary.FetchChart(ctx, ticker, "1d", "5d")
	if primaryErr == nil {
		return quoteFromChart(symbol, chart), nil
	}

	if f.secondary == nil {
		return nil, &QuoteUnavailableError{Symbol: symbol, Primary: primaryErr}
	}

	fmt.Printf("[QUOTES] Primary provider failed for %s, trying fallback: %v\n", symbol, primaryErr)

	q, secondaryErr := f.secondary.FetchGlobalQuote(ctx, ticker)
	if secondaryErr != nil {
		return nil, &QuoteUnavailableError{Symbol: symbol, Primary: primaryErr, Secondary: secondaryErr}
	}
	q.Symbol = symbol
	return q, nil
}

// FetchSeries returns the candle series for charting. Only the primary
// provider carries historical series; there is no fallback here.
func (f *Fetcher) FetchSeries(ctx context.Context, symbol, interval, rng string) (*models.Series, error) {
	if interval == "" {
		interval = "1d"
	}
	if rng == "" {
		rng = "1mo"
	}

	chart, err := f.primary.FetchChart(ctx, symbols.ProviderTicker(symbol), interval, rng)
	if err != nil {
		return nil, err
	}

	return &models.Series{
		Symbol:      symbol,
		DisplayName: displayName(chart.Meta, symbol),
		Candles:     chart.Candles,
	}, nil
}

func quoteFromChart(symbol string, chart *Chart) *models.Quote {
	m := chart.Meta

	// A closed market reports no regular market price; fall back to
	// the previous close so the quote still renders.
	price := m.RegularMarketPrice
	if price == 0 {
		price = m.PreviousClose
	}

	return &models.Quote{
		Symbol:        symbol,
		DisplayName:   displayName(m, symbol),
		CurrentPrice:  price,
		PreviousClose: m.PreviousClose,
		DayHigh:       m.RegularMarketDayHigh,
		DayLow:        m.RegularMarketDayLow,
		Volume:        int64(m.RegularMarketVolume),
		Currency:      m.Currency,
		Exchange:      m.ExchangeName,
		MarketState:   m.MarketState,
		AsOf:          time.Now(),
	}
}

func displayName(m ChartMeta, fallback string) string {
	if m.LongName != "" {
		return m.LongName
	}
	return fallback
}
