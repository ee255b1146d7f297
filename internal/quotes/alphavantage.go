package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantbao/stockchat-backend/internal/httputil"
	"github.com/quantbao/stockchat-backend/internal/models"
)

const DefaultAlphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageClient is the fallback real-time quote provider. Its
// response shape is flat string-keyed JSON rather than the structured
// chart envelope.
type AlphaVantageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewAlphaVantageClient(baseURL, apiKey string, retry httputil.RetryConfig) *AlphaVantageClient {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageBaseURL
	}
	return &AlphaVantageClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      retry,
	}
}

type globalQuoteEnvelope struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	ErrorMessage string            `json:"Error Message"`
	Note         string            `json:"Note"`
}

// FetchGlobalQuote fetches a GLOBAL_QUOTE snapshot. PreviousClose is
// reconstructed as price minus reported change so the quote's derived
// fields recompute to the provider's figures.
func (c *AlphaVantageClient) FetchGlobalQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Provider: "alphavantage", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var env globalQuoteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &DataUnavailableError{Provider: "alphavantage", Symbol: symbol, Reason: "malformed payload"}
	}
	if env.ErrorMessage != "" {
		return nil, &DataUnavailableError{Provider: "alphavantage", Symbol: symbol, Reason: env.ErrorMessage}
	}
	if env.Note != "" {
		return nil, &DataUnavailableError{Provider: "alphavantage", Symbol: symbol, Reason: "rate limited: " + env.Note}
	}
	if len(env.GlobalQuote) == 0 {
		return nil, &DataUnavailableError{Provider: "alphavantage", Symbol: symbol, Reason: "empty Global Quote"}
	}

	gq := env.GlobalQuote
	price := parseFloat(gq["05. price"])
	change := parseFloat(gq["09. change"])

	asOf := time.Now()
	if day := gq["07. latest trading day"]; day != "" {
		if d, err := time.Parse("2006-01-02", day); err == nil {
			asOf = d
		}
	}

	sym := gq["01. symbol"]
	if sym == "" {
		sym = symbol
	}

	return &models.Quote{
		Symbol:        sym,
		DisplayName:   sym,
		CurrentPrice:  price,
		PreviousClose: price - change,
		DayHigh:       parseFloat(gq["03. high"]),
		DayLow:        parseFloat(gq["04. low"]),
		Volume:        parseInt(gq["06. volume"]),
		AsOf:          asOf,
	}, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
