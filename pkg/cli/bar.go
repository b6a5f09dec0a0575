package cli

import "strings"

// DefaultBarWidth is the bar width used by the usage command.
const DefaultBarWidth = 30

// Bar renders a utilization percentage as a fixed-width text gauge:
//
//	[████████████░░░░░░░░░░░░░░░░░░]
//
// Percentages outside [0, 100] are clamped for rendering only; the
// numeric value printed next to the bar is the caller's business.
func Bar(percent float64, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(width)*percent/100 + 0.5)
	if filled > width {
		filled = width
	}

	var b strings.Builder
	b.Grow(width*3 + 2) // block glyphs are 3 bytes each
	b.WriteByte('[')
	b.WriteString(strings.Repeat("█", filled))
	b.WriteString(strings.Repeat("░", width-filled))
	b.WriteByte(']')
	return b.String()
}
