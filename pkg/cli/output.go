package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatTable is aligned-column text output (default).
	FormatTable OutputFormat = "table"
	// FormatJSON is indented JSON output, for scripts.
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected \"table\" or \"json\")", s)
	}
}

// WriteJSON renders v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows with aligned columns. Rows are buffered until
// Flush, matching the underlying tabwriter.
type Table struct {
	tw *tabwriter.Writer
}

// NewTable creates a table writing to w with the given column headers.
// No headers means a header-less listing.
func NewTable(w io.Writer, headers ...string) *Table {
	t := &Table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	if len(headers) > 0 {
		t.Row(toAny(headers)...)
	}
	return t
}

// Row appends one row. Values are rendered with %v.
func (t *Table) Row(values ...any) {
	for i, v := range values {
		if i > 0 {
			fmt.Fprint(t.tw, "\t")
		}
		fmt.Fprintf(t.tw, "%v", v)
	}
	fmt.Fprintln(t.tw)
}

// Flush aligns and writes the buffered rows.
func (t *Table) Flush() error {
	return t.tw.Flush()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
