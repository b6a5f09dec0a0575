package cli

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"empty defaults to table", "", FormatTable, false},
		{"table", "table", FormatTable, false},
		{"json", "json", FormatJSON, false},
		{"unknown format", "yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf strings.Builder
	data := map[string]int{"requests": 42}

	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	// Output must round-trip and be indented.
	var decoded map[string]int
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded["requests"] != 42 {
		t.Errorf("Expected requests=42, got %d", decoded["requests"])
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("Expected indented output")
	}
}

func TestTable_AlignsColumns(t *testing.T) {
	var buf strings.Builder

	table := NewTable(&buf, "ID", "NAME")
	table.Row("k1", "production")
	table.Row("key-22", "ci")
	if err := table.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines (header + 2 rows), got %d: %q", len(lines), buf.String())
	}

	// Every NAME value starts at the same column.
	col := strings.Index(lines[0], "NAME")
	if col < 0 {
		t.Fatalf("Header missing NAME column: %q", lines[0])
	}
	if idx := strings.Index(lines[1], "production"); idx != col {
		t.Errorf("Expected aligned column at %d, got %d in %q", col, idx, lines[1])
	}
	if idx := strings.Index(lines[2], "ci"); idx != col {
		t.Errorf("Expected aligned column at %d, got %d in %q", col, idx, lines[2])
	}
}

func TestTable_NoHeaders(t *testing.T) {
	var buf strings.Builder

	table := NewTable(&buf)
	table.Row("a", 1)
	if err := table.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("Expected a single line, got %q", buf.String())
	}
}
