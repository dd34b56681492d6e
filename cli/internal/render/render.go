// Package render writes command results as aligned text tables or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts text or json; empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

// Renderer writes to one stream. Colour is only used on terminals.
type Renderer struct {
	out    io.Writer
	format Format

	title   *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	dim     *color.Color
	accent  *color.Color
	colored bool
}

// New builds a renderer. Colour is disabled when noColor is set, NO_COLOR is
// present, the format is JSON or out is not a terminal.
func New(out io.Writer, format Format, noColor bool) *Renderer {
	r := &Renderer{
		out:    out,
		format: format,
		title:  color.New(color.Bold),
		good:   color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		bad:    color.New(color.FgRed),
		dim:    color.New(color.Faint),
		accent: color.New(color.FgCyan, color.Bold),
	}
	r.colored = !noColor && format == FormatText && os.Getenv("NO_COLOR") == "" && isTerminal(out)
	for _, c := range []*color.Color{r.title, r.good, r.warn, r.bad, r.dim, r.accent} {
		if r.colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Renderer) Out() io.Writer { return r.out }

// JSON reports whether results should be encoded as JSON.
func (r *Renderer) JSON() bool { return r.format == FormatJSON }

// WriteJSON encodes v indented.
func (r *Renderer) WriteJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) Title(format string, args ...any) {
	fmt.Fprintln(r.out, r.title.Sprintf(format, args...))
}

func (r *Renderer) Line(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Blank() {
	fmt.Fprintln(r.out)
}

func (r *Renderer) Success(format string, args ...any) {
	fmt.Fprintln(r.out, r.good.Sprint("✓ ")+fmt.Sprintf(format, args...))
}

func (r *Renderer) Warn(format string, args ...any) {
	fmt.Fprintln(r.out, r.warn.Sprint("⚠ ")+fmt.Sprintf(format, args...))
}

func (r *Renderer) Fail(format string, args ...any) {
	fmt.Fprintln(r.out, r.bad.Sprint("✗ ")+fmt.Sprintf(format, args...))
}

func (r *Renderer) Hint(format string, args ...any) {
	fmt.Fprintln(r.out, r.accent.Sprint("💡 ")+fmt.Sprintf(format, args...))
}

func (r *Renderer) Dim(format string, args ...any) {
	fmt.Fprintln(r.out, r.dim.Sprintf(format, args...))
}

// Table writes rows aligned under headers. A row equal to nil prints a rule.
func (r *Renderer) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, rule(headers))
	for _, row := range rows {
		if row == nil {
			fmt.Fprintln(tw, rule(headers))
			continue
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func rule(headers []string) string {
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = strings.Repeat("-", len([]rune(h)))
	}
	return strings.Join(cells, "\t")
}
