package symbols

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultNames maps well-known display names to their exchange codes.
// Values are bare 6-digit A-share codes so that a name match and a code
// match for the same instrument deduplicate to one entry.
var defaultNames = map[string]string{
	"贵州茅台": "600519",
	"五粮液":  "000858",
	"宁德时代": "300750",
	"比亚迪":  "002594",
	"中国平安": "601318",
	"招商银行": "600036",
	"工商银行": "601398",
	"建设银行": "601939",
	"中国银行": "601988",
	"农业银行": "601288",
	"万科":   "000002",
	"美的集团": "000333",
	"格力电器": "000651",
	"海康威视": "002415",
	"东方财富": "300059",
	"恒瑞医药": "600276",
	"隆基绿能": "601012",
	"京东方":  "000725",
}

// Table recognizes stock identifiers in free-form text.
type Table struct {
	names map[string]string
}

// NewTable returns a table with the compiled-in name mapping.
func NewTable() *Table {
	names := make(map[string]string, len(defaultNames))
	for k, v := range defaultNames {
		names[k] = v
	}
	return &Table{names: names}
}

// LoadTable merges a YAML name->code mapping over the defaults.
// The file is a flat map, e.g.  贵州茅台: "600519"
func LoadTable(path string) (*Table, error) {
	t := NewTable()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbol table: %w", err)
	}

	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse symbol table: %w", err)
	}
	for name, code := range extra {
		t.names[name] = code
	}
	return t, nil
}

type match struct {
	pos  int
	code string
}

// Recognize scans text for stock identifiers: maximal runs of exactly
// 6 ASCII digits, plus known display names as case-sensitive
// substrings. The result is deduplicated, ordered by first occurrence
// in the text. Empty input yields an empty result.
func (t *Table) Recognize(text string) []string {
	if text == "" {
		return nil
	}

	var matches []match

	// Digit runs. A run longer than 6 digits is not a code.
	for i := 0; i < len(text); {
		if !isDigit(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		if j-i == 6 {
			matches = append(matches, match{pos: i, code: text[i:j]})
		}
		i = j
	}

	// Known display names, matched as plain substrings.
	for name, code := range t.names {
		if idx := strings.Index(text, name); idx >= 0 {
			matches = append(matches, match{pos: idx, code: code})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	var out []string
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.code]; dup {
			continue
		}
		seen[m.code] = struct{}{}
		out = append(out, m.code)
	}
	return out
}

// ProviderTicker maps a recognized code to the upstream provider's
// ticker. Shanghai-listed 6xxxxx codes take the .SS suffix, Shenzhen
// 0xxxxx/3xxxxx codes take .SZ. Anything else passes through
// unchanged (AAPL, GC=F, already-suffixed tickers).
func ProviderTicker(symbol string) string {
	if len(symbol) != 6 || !allDigits(symbol) {
		return symbol
	}
	switch symbol[0] {
	case '6':
		return symbol + ".SS"
	case '0', '3':
		return symbol + ".SZ"
	}
	return symbol
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
