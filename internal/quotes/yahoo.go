package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/quantbao/stockchat-backend/internal/httputil"
	"github.com/quantbao/stockchat-backend/internal/models"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient fetches the Yahoo Finance chart envelope.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewYahooClient(baseURL string, retry httputil.RetryConfig) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      retry,
	}
}

// ChartMeta is the instrument metadata of one chart result.
type ChartMeta struct {
	Symbol                     string  `json:"symbol"`
	Currency                   string  `json:"currency"`
	ExchangeName               string  `json:"exchangeName"`
	InstrumentType             string  `json:"instrumentType"`
	LongName                   string  `json:"longName"`
	MarketState                string  `json:"marketState"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	PreviousClose              float64 `json:"previousClose"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	MarketCap                  float64 `json:"marketCap"`
}

// Chart is a parsed chart result: metadata plus the candle series with
// provider epoch-second timestamps already converted to time.Time.
type Chart struct {
	Meta    ChartMeta
	Candles []models.Candle
}

type chartEnvelope struct {
	Chart struct {
		Result []struct {
			Meta       ChartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchChart issues one GET for symbol with the given interval and
// range and parses the envelope. Non-2xx becomes UpstreamError; an
// absent or empty result envelope, or series arrays whose lengths
// disagree with the timestamp array, become DataUnavailableError.
func (c *YahooClient) FetchChart(ctx context.Context, symbol, interval, rng string) (*Chart, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Provider: "yahoo", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var env chartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &DataUnavailableError{Provider: "yahoo", Symbol: symbol, Reason: "malformed payload"}
	}
	if env.Chart.Error != nil {
		return nil, &DataUnavailableError{Provider: "yahoo", Symbol: symbol, Reason: env.Chart.Error.Description}
	}
	if len(env.Chart.Result) == 0 {
		return nil, &DataUnavailableError{Provider: "yahoo", Symbol: symbol, Reason: "empty result envelope"}
	}

	result := env.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, &DataUnavailableError{Provider: "yahoo", Symbol: symbol, Reason: "missing quote indicators"}
	}
	q := result.Indicators.Quote[0]

	// Index i across all arrays describes one candle. Ragged arrays
	// are a data-integrity failure, never zipped short.
	n := len(result.Timestamp)
	if len(q.Open) != n || len(q.High) != n || len(q.Low) != n || len(q.Close) != n || len(q.Volume) != n {
		return nil, &DataUnavailableError{Provider: "yahoo", Symbol: symbol, Reason: "ragged series arrays"}
	}

	candles := make([]models.Candle, 0, n)
	for i, ts := range result.Timestamp {
		if q.Open[i] == nil && q.High[i] == nil && q.Low[i] == nil && q.Close[i] == nil {
			continue // null bar (holiday, halted session)
		}
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(ts, 0),
			Open:      deref(q.Open[i]),
			High:      deref(q.High[i]),
			Low:       deref(q.Low[i]),
			Close:     deref(q.Close[i]),
			Volume:    deref(q.Volume[i]),
		})
	}

	return &Chart{Meta: result.Meta, Candles: candles}, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
