package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// DisplayName derives a human-facing label from a model ID.
//
//	claude-opus-4-1-20250805  -> Opus 4.1
//	claude-3-5-sonnet-20241022 -> Sonnet 3.5
//	claude-sonnet-4-5          -> Sonnet 4.5
//
// IDs with no recognizable family are returned unchanged.
func DisplayName(model string) string {
	id := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(model)), "claude-")

	parts := strings.Split(id, "-")

	// Drop a trailing date stamp like 20250805.
	if n := len(parts); n > 0 && len(parts[n-1]) == 8 && allDigits(parts[n-1]) {
		parts = parts[:n-1]
	}

	// The family token and the numeric version tokens may appear in
	// either order depending on model generation.
	var family string
	var version []string
	for _, p := range parts {
		switch p {
		case "opus", "sonnet", "haiku":
			family = p
		default:
			if p != "" && allDigits(p) {
				version = append(version, p)
			}
		}
	}

	if family == "" {
		return model
	}

	name := strings.ToUpper(family[:1]) + family[1:]
	if len(version) > 0 {
		name += " " + strings.Join(version, ".")
	}
	return name
}

// FormatCost renders a USD amount for display. Sub-cent amounts keep
// four decimals so small requests don't all read as $0.00.
//
//	0.0042  -> $0.0042
//	0.37    -> $0.37
//	1234.56 -> $1,234.56
func FormatCost(usd float64) string {
	switch {
	case usd <= 0:
		return "$0.00"
	case usd < 0.01:
		return fmt.Sprintf("$%.4f", usd)
	case usd < 1:
		return fmt.Sprintf("$%.2f", usd)
	default:
		return "$" + groupThousands(fmt.Sprintf("%.2f", usd))
	}
}

// FormatTokens renders a token count compactly.
//
//	847     -> 847
//	12340   -> 12.3K
//	4600000 -> 4.6M
func FormatTokens(n int64) string {
	switch {
	case n < 1000:
		return strconv.FormatInt(n, 10)
	case n < 1_000_000:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000)) + "K"
	default:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000_000)) + "M"
	}
}

// groupThousands inserts comma separators into the integer part of a
// formatted decimal like "1234.56".
func groupThousands(s string) string {
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// trimTrailingZero drops a ".0" suffix so 12.0K reads 12K.
func trimTrailingZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// allDigits reports whether s is non-empty ASCII digits only.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
