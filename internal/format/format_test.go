package format

import (
	"strings"
	"testing"

	"github.com/quantbao/stockchat-backend/internal/models"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1717, "1,717.00"},
		{0.5, "0.50"},
		{1234567.891, "1,234,567.89"},
	}
	for _, tc := range cases {
		if got := Number(tc.in); got != tc.want {
			t.Fatalf("Number(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1.0); got != "+1.00%" {
		t.Fatalf("Percent(1.0) = %q", got)
	}
	if got := Percent(-2.345); got != "-2.35%" {
		t.Fatalf("Percent(-2.345) = %q", got)
	}
}

func TestCurrency(t *testing.T) {
	if got := Currency(1717, "CNY"); got != "¥1,717.00" {
		t.Fatalf("Currency CNY = %q", got)
	}
	if got := Currency(250.1, "USD"); got != "$250.10" {
		t.Fatalf("Currency USD = %q", got)
	}
	if got := Currency(9.99, "GBP"); got != "GBP 9.99" {
		t.Fatalf("Currency GBP = %q", got)
	}
}

func TestQuoteSummary(t *testing.T) {
	q := &models.Quote{
		Symbol:        "600519",
		DisplayName:   "贵州茅台",
		CurrentPrice:  1717,
		PreviousClose: 1700,
		DayHigh:       1730,
		DayLow:        1690,
		Volume:        2512345,
		Currency:      "CNY",
	}

	s := QuoteSummary(q)
	if !strings.Contains(s, "贵州茅台") {
		t.Fatalf("missing name: %s", s)
	}
	if !strings.Contains(s, "¥1,717.00") {
		t.Fatalf("missing price: %s", s)
	}
	if !strings.Contains(s, "+17.00 (+1.00%)") {
		t.Fatalf("missing change: %s", s)
	}
	if !strings.Contains(s, "2,512,345") {
		t.Fatalf("missing volume: %s", s)
	}
	if !strings.Contains(s, "📈") {
		t.Fatalf("expected up arrow: %s", s)
	}
}

func TestQuoteSummary_Negative(t *testing.T) {
	q := &models.Quote{
		DisplayName:   "五粮液",
		CurrentPrice:  95,
		PreviousClose: 100,
		Currency:      "CNY",
	}

	s := QuoteSummary(q)
	if !strings.Contains(s, "-5.00 (-5.00%)") {
		t.Fatalf("negative change: %s", s)
	}
	if !strings.Contains(s, "📉") {
		t.Fatalf("expected down arrow: %s", s)
	}
}
