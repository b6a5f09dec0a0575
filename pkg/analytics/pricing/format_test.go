package pricing

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		model    string
		expected string
	}{
		{"claude-opus-4-1-20250805", "Opus 4.1"},
		{"claude-opus-4-20250514", "Opus 4"},
		{"claude-sonnet-4-5", "Sonnet 4.5"},
		{"claude-3-5-sonnet-20241022", "Sonnet 3.5"},
		{"claude-3-haiku-20240307", "Haiku 3"},
		{"claude-haiku-4-5-20251001", "Haiku 4.5"},
		{"sonnet", "Sonnet"},
		{"CLAUDE-OPUS-4-1", "Opus 4.1"},
		{"gpt-4o", "gpt-4o"},
		{"unknown", "unknown"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := DisplayName(tt.model); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		name     string
		usd      float64
		expected string
	}{
		{"zero", 0, "$0.00"},
		{"negative clamps to zero", -0.5, "$0.00"},
		{"sub-cent keeps four decimals", 0.0042, "$0.0042"},
		{"tiny", 0.0001, "$0.0001"},
		{"cents", 0.37, "$0.37"},
		{"exactly one cent", 0.01, "$0.01"},
		{"single dollars", 1.5, "$1.50"},
		{"hundreds", 999.99, "$999.99"},
		{"thousands get separators", 1234.56, "$1,234.56"},
		{"millions", 1234567.891, "$1,234,567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCost(tt.usd); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		name     string
		tokens   int64
		expected string
	}{
		{"zero", 0, "0"},
		{"small", 847, "847"},
		{"just under a thousand", 999, "999"},
		{"exact thousand drops decimal", 1000, "1K"},
		{"thousands", 12_340, "12.3K"},
		{"hundreds of thousands", 847_000, "847K"},
		{"exact million drops decimal", 1_000_000, "1M"},
		{"millions", 4_600_000, "4.6M"},
		{"tens of millions", 12_345_678, "12.3M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTokens(tt.tokens); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
