package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quantbao/stockchat-backend/internal/httputil"
	"github.com/quantbao/stockchat-backend/internal/quotes"
)

const chartFixture = `{"chart":{"result":[{
	"meta":{"symbol":"600519.SS","currency":"CNY","exchangeName":"Shanghai",
	        "instrumentType":"EQUITY","regularMarketPrice":1717,"previousClose":1700,
	        "regularMarketChange":17,"regularMarketChangePercent":1,
	        "regularMarketDayHigh":1730,"regularMarketDayLow":1690,
	        "regularMarketVolume":25000,"fiftyTwoWeekHigh":1900,"fiftyTwoWeekLow":1400,
	        "marketCap":2100000000000},
	"timestamp":[1700000000,1700086400],
	"indicators":{"quote":[{"open":[1700,1710],"high":[1730,1725],"low":[1690,1705],
	                        "close":[1717,1720],"volume":[25000,26000]}]}
}],"error":null}}`

// newTestServer wires the proxy to a fake upstream and returns the
// handler plus the upstream hit counter.
func newTestServer(t *testing.T, upstreamBody string, upstreamStatus int) (http.Handler, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if upstreamStatus != http.StatusOK {
			w.WriteHeader(upstreamStatus)
			return
		}
		fmt.Fprint(w, upstreamBody)
	}))
	t.Cleanup(upstream.Close)

	source := quotes.NewYahooClient(upstream.URL, httputil.SingleShot)
	s := NewServer(source, 0, "*", time.Minute)
	return s.httpServer.Handler, &hits
}

func TestHandleStock_MissingSymbol(t *testing.T) {
	handler, _ := newTestServer(t, chartFixture, http.StatusOK)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "symbol") {
		t.Fatalf("error body: %v", body)
	}
}

func TestHandleStock_UnknownSymbol(t *testing.T) {
	handler, _ := newTestServer(t, `{"chart":{"result":[],"error":null}}`, http.StatusOK)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock?symbol=NOPE", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["symbol"] != "NOPE" {
		t.Fatalf("body: %v", body)
	}
}

func TestHandleStock_UpstreamFailure(t *testing.T) {
	handler, _ := newTestServer(t, "", http.StatusBadGateway)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock?symbol=600519.SS", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestHandleStock_MethodNotAllowed(t *testing.T) {
	handler, hits := newTestServer(t, chartFixture, http.StatusOK)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/stock?symbol=600519.SS", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("405 body must be JSON, got %q", ct)
	}
	if hits.Load() != 0 {
		t.Fatal("upstream must not be called")
	}
}

func TestHandleStock_Preflight(t *testing.T) {
	handler, hits := newTestServer(t, chartFixture, http.StatusOK)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/stock?symbol=600519.SS", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("preflight body must be empty, got %q", rr.Body.String())
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
	if hits.Load() != 0 {
		t.Fatal("upstream must not be called")
	}
}

func TestHandleStock_Success(t *testing.T) {
	handler, _ := newTestServer(t, chartFixture, http.StatusOK)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock?symbol=600519.SS", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if cc := rr.Header().Get("Cache-Control"); cc != cacheControlValue {
		t.Fatalf("Cache-Control: %q", cc)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("CORS headers must be set on success")
	}

	var resp stockResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Meta.Symbol != "600519.SS" || resp.Meta.Currency != "CNY" {
		t.Fatalf("meta: %+v", resp.Meta)
	}
	if len(resp.Quotes) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(resp.Quotes))
	}
	first := resp.Quotes[0]
	if first.Date != time.Unix(1700000000, 0).UTC().Format(time.RFC3339) {
		t.Fatalf("bar date: %q", first.Date)
	}
	if first.Close != 1717 || first.Volume != 25000 {
		t.Fatalf("bar values: %+v", first)
	}
	if resp.Summary.CurrentPrice != 1717 || resp.Summary.Change != 17 {
		t.Fatalf("summary: %+v", resp.Summary)
	}
}

func TestHandleStock_CacheShortCircuitsUpstream(t *testing.T) {
	handler, hits := newTestServer(t, chartFixture, http.StatusOK)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock?symbol=600519.SS", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rr.Code)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly 1 upstream hit, got %d", hits.Load())
	}

	// A different range is a different cache entry.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stock?symbol=600519.SS&range=5d", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("ranged request: %d", rr.Code)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", hits.Load())
	}
}

func TestHandleHealth(t *testing.T) {
	handler, _ := newTestServer(t, chartFixture, http.StatusOK)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Timestamp == "" {
		t.Fatalf("health body: %+v", body)
	}
}

func TestResponseCache_Expiry(t *testing.T) {
	c := newResponseCache(20 * time.Millisecond)
	c.set("k", stockResponse{Summary: stockSummary{CurrentPrice: 1}})

	if _, ok := c.get("k"); !ok {
		t.Fatal("fresh entry must hit")
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.get("k"); ok {
		t.Fatal("expired entry must miss")
	}
}
