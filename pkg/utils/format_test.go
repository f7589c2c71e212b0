package utils

import "testing"

func TestFormatUSDCompact(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{950, "$950.00"},
		{48_200, "$48.20K"},
		{48_200_000, "$48.20M"},
		{5_300_000_000, "$5.30B"},
		{1_250_000_000_000, "$1.25T"},
		{-48_200_000, "-$48.20M"},
	}
	for _, tt := range tests {
		if got := FormatUSDCompact(tt.amount); got != tt.want {
			t.Errorf("FormatUSDCompact(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(0.123); got != "12.3%" {
		t.Errorf("FormatPct(0.123) = %q", got)
	}
	if got := FormatPct(-0.05); got != "-5.0%" {
		t.Errorf("FormatPct(-0.05) = %q", got)
	}
}

func TestFormatPtr(t *testing.T) {
	if got := FormatPtr(nil, "%.2f"); got != "n/a" {
		t.Errorf("nil = %q", got)
	}
	v := 3.14159
	if got := FormatPtr(&v, "%.2f"); got != "3.14" {
		t.Errorf("value = %q", got)
	}
}
