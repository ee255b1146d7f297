package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quantbao/stockchat-backend/internal/quotes"
)

const cacheControlValue = "public, s-maxage=60, stale-while-revalidate=300"

type stockMeta struct {
	Symbol                     string  `json:"symbol"`
	Currency                   string  `json:"currency"`
	ExchangeName               string  `json:"exchangeName"`
	InstrumentType             string  `json:"instrumentType"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	PreviousClose              float64 `json:"previousClose"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	MarketCap                  float64 `json:"marketCap"`
}

type stockBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type stockSummary struct {
	CurrentPrice  float64 `json:"currentPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High52W       float64 `json:"high52w"`
	Low52W        float64 `json:"low52w"`
	MarketCap     float64 `json:"marketCap"`
}

type stockResponse struct {
	Meta    stockMeta    `json:"meta"`
	Quotes  []stockBar   `json:"quotes"`
	Summary stockSummary `json:"summary"`
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := q.Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "缺少股票代码参数 symbol")
		return
	}
	interval := q.Get("interval")
	if interval == "" {
		interval = "1d"
	}
	rng := q.Get("range")
	if rng == "" {
		rng = "1mo"
	}

	key := symbol + "|" + interval + "|" + rng
	if cached, ok := s.cache.get(key); ok {
		w.Header().Set("Cache-Control", cacheControlValue)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	fmt.Printf("[API] Fetching stock data: %s (%s/%s)\n", symbol, interval, rng)

	chart, err := s.source.FetchChart(r.Context(), symbol, interval, rng)
	if err != nil {
		var unavailable *quotes.DataUnavailableError
		if errors.As(err, &unavailable) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":  "未找到股票数据",
				"symbol": symbol,
				"hint":   "请检查股票代码是否正确",
			})
			return
		}
		fmt.Printf("[API] Stock fetch failed: %v\n", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "获取股票数据失败",
			"message": err.Error(),
			"hint":    "请稍后重试或联系管理员",
		})
		return
	}

	resp := buildStockResponse(chart)
	s.cache.set(key, resp)

	w.Header().Set("Cache-Control", cacheControlValue)
	writeJSON(w, http.StatusOK, resp)
}

// Warm fetches symbol with the default interval and range and primes
// the response cache, as if a client had just requested it.
func (s *Server) Warm(ctx context.Context, symbol string) error {
	chart, err := s.source.FetchChart(ctx, symbol, "1d", "1mo")
	if err != nil {
		return err
	}
	s.cache.set(symbol+"|1d|1mo", buildStockResponse(chart))
	return nil
}

func (s *Server) handleStockMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func buildStockResponse(chart *quotes.Chart) stockResponse {
	meta := chart.Meta
	bars := make([]stockBar, 0, len(chart.Candles))
	for _, c := range chart.Candles {
		bars = append(bars, stockBar{
			Date:   c.Timestamp.UTC().Format(time.RFC3339),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}

	return stockResponse{
		Meta: stockMeta{
			Symbol:                     meta.Symbol,
			Currency:                   meta.Currency,
			ExchangeName:               meta.ExchangeName,
			InstrumentType:             meta.InstrumentType,
			RegularMarketPrice:         meta.RegularMarketPrice,
			PreviousClose:              meta.PreviousClose,
			RegularMarketChange:        meta.RegularMarketChange,
			RegularMarketChangePercent: meta.RegularMarketChangePercent,
			RegularMarketDayHigh:       meta.RegularMarketDayHigh,
			RegularMarketDayLow:        meta.RegularMarketDayLow,
			RegularMarketVolume:        meta.RegularMarketVolume,
			FiftyTwoWeekHigh:           meta.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:            meta.FiftyTwoWeekLow,
			MarketCap:                  meta.MarketCap,
		},
		Quotes: bars,
		Summary: stockSummary{
			CurrentPrice:  meta.RegularMarketPrice,
			Change:        meta.RegularMarketChange,
			ChangePercent: meta.RegularMarketChangePercent,
			High52W:       meta.FiftyTwoWeekHigh,
			Low52W:        meta.FiftyTwoWeekLow,
			MarketCap:     meta.MarketCap,
		},
	}
}
