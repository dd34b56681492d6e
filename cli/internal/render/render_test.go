package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Fatal("expected error for yaml")
	}
}

func TestNonTerminalOutputHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatText, false)
	r.Title("Report")
	r.Success("done")
	r.Fail("broken")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("unexpected ANSI escapes: %q", buf.String())
	}
}

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, true).Table([]string{"Platform", "Spend"}, [][]string{
		{"Meta", "$100.00"},
		nil,
		{"TOTAL", "$1,100.00"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), buf.String())
	}
	col := strings.Index(lines[0], "Spend")
	if strings.Index(lines[2], "$100.00") != col || strings.Index(lines[4], "$1,100.00") != col {
		t.Fatalf("columns not aligned:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatJSON, false)
	if !r.JSON() {
		t.Fatal("expected JSON mode")
	}
	if err := r.WriteJSON(map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected JSON %q", buf.String())
	}
}
