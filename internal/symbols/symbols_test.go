package symbols

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecognize_SixDigitCode(t *testing.T) {
	tbl := NewTable()

	got := tbl.Recognize("看看600519怎么样")
	if len(got) != 1 || got[0] != "600519" {
		t.Fatalf("expected [600519], got %v", got)
	}
}

func TestRecognize_LongerDigitRunIgnored(t *testing.T) {
	tbl := NewTable()

	// 7-digit run: not a code.
	if got := tbl.Recognize("order 6005191 placed"); len(got) != 0 {
		t.Fatalf("expected no codes in 7-digit run, got %v", got)
	}
	// 12-digit run: not two codes either.
	if got := tbl.Recognize("600519000858"); len(got) != 0 {
		t.Fatalf("expected no codes in 12-digit run, got %v", got)
	}
}

func TestRecognize_RepeatedCodeOnce(t *testing.T) {
	tbl := NewTable()

	got := tbl.Recognize("600519 和 600519 对比 600519")
	if len(got) != 1 || got[0] != "600519" {
		t.Fatalf("expected single [600519], got %v", got)
	}
}

func TestRecognize_DisplayName(t *testing.T) {
	tbl := NewTable()

	got := tbl.Recognize("五粮液最近走势如何")
	if len(got) != 1 || got[0] != "000858" {
		t.Fatalf("expected [000858], got %v", got)
	}
}

func TestRecognize_NameAndCodeDeduplicate(t *testing.T) {
	tbl := NewTable()

	// Name and code both map to 600519; must appear exactly once.
	got := tbl.Recognize("贵州茅台 600519 怎么样？")
	if len(got) != 1 || got[0] != "600519" {
		t.Fatalf("expected [600519], got %v", got)
	}
}

func TestRecognize_FirstSeenOrder(t *testing.T) {
	tbl := NewTable()

	got := tbl.Recognize("对比一下宁德时代和600519")
	if len(got) != 2 {
		t.Fatalf("expected 2 codes, got %v", got)
	}
	if got[0] != "300750" || got[1] != "600519" {
		t.Fatalf("expected first-seen order [300750 600519], got %v", got)
	}
}

func TestRecognize_MultipleCodesInTextOrder(t *testing.T) {
	tbl := NewTable()

	got := tbl.Recognize("000651 vs 600036 vs 000651")
	if len(got) != 2 || got[0] != "000651" || got[1] != "600036" {
		t.Fatalf("expected [000651 600036], got %v", got)
	}
}

func TestRecognize_EmptyAndNoMatch(t *testing.T) {
	tbl := NewTable()

	if got := tbl.Recognize(""); len(got) != 0 {
		t.Fatalf("expected empty result for empty input, got %v", got)
	}
	if got := tbl.Recognize("今天天气不错"); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestLoadTable_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	yamlDoc := "老板电器: \"002508\"\n贵州茅台: \"600520\"\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	if got := tbl.Recognize("老板电器"); len(got) != 1 || got[0] != "002508" {
		t.Fatalf("expected merged entry [002508], got %v", got)
	}
	// Override wins over the default.
	if got := tbl.Recognize("贵州茅台"); len(got) != 1 || got[0] != "600520" {
		t.Fatalf("expected overridden [600520], got %v", got)
	}
}

func TestLoadTable_MissingFile(t *testing.T) {
	if _, err := LoadTable("/nonexistent/symbols.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProviderTicker(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"600519", "600519.SS"},
		{"601318", "601318.SS"},
		{"000858", "000858.SZ"},
		{"300750", "300750.SZ"},
		{"AAPL", "AAPL"},
		{"GC=F", "GC=F"},
		{"600519.SS", "600519.SS"},
	}
	for _, tc := range cases {
		if got := ProviderTicker(tc.in); got != tc.want {
			t.Fatalf("ProviderTicker(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
