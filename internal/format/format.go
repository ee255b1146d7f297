package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/quantbao/stockchat-backend/internal/models"
)

// Number renders a value with thousands separators and two decimals.
func Number(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// Percent renders a signed percentage with two decimals.
func Percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Currency prefixes a formatted number with the symbol for the given
// ISO currency code.
func Currency(v float64, currency string) string {
	return currencySymbol(currency) + Number(v)
}

func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "", "CNY", "RMB":
		return "¥"
	case "USD":
		return "$"
	case "HKD":
		return "HK$"
	case "EUR":
		return "€"
	case "JPY":
		return "JP¥"
	default:
		return code + " "
	}
}

// QuoteSummary renders the interim informational turn for a fetched
// quote: name, price, signed change, day range and volume.
func QuoteSummary(q *models.Quote) string {
	arrow := "📈"
	if q.Change() < 0 {
		arrow = "📉"
	}

	sign := "+"
	if q.Change() < 0 {
		sign = "-"
	}
	change := fmt.Sprintf("%s%s", sign, Number(abs(q.Change())))

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n", q.DisplayName)
	fmt.Fprintf(&b, "%s 价格: %s\n", arrow, Currency(q.CurrentPrice, q.Currency))
	fmt.Fprintf(&b, "涨跌: %s (%s)\n", change, Percent(q.ChangePercent()))
	fmt.Fprintf(&b, "今日最高: %s\n", Currency(q.DayHigh, q.Currency))
	fmt.Fprintf(&b, "今日最低: %s\n", Currency(q.DayLow, q.Currency))
	fmt.Fprintf(&b, "成交量: %s", humanize.Comma(q.Volume))
	return b.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
