// Package daterange resolves report period names into concrete calendar ranges.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format every platform accepts for range bounds.
const Layout = "2006-01-02"

// Presets lists the named periods in menu order.
var Presets = []string{"today", "yesterday", "last_7d", "last_30d", "this_month", "last_month"}

// Range is an inclusive calendar date range.
type Range struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Fallback is set when the requested period was not recognized and the default window was used.
	Fallback bool `json:"fallback,omitempty"`
}

func (r Range) String() string {
	return r.StartDate + " to " + r.EndDate
}

// Start parses StartDate as a UTC midnight.
func (r Range) Start() time.Time {
	t, _ := time.Parse(Layout, r.StartDate)
	return t
}

// End parses EndDate as a UTC midnight.
func (r Range) End() time.Time {
	t, _ := time.Parse(Layout, r.EndDate)
	return t
}

// Error reports a custom range that could not be parsed.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid date range %q: %s", e.Input, e.Reason)
}

// Resolve maps a period name or an explicit "YYYY-MM-DD:YYYY-MM-DD" range onto
// calendar dates relative to now. Unknown names fall back to the last seven days
// including today and are flagged. last_7d and last_30d exclude today.
func Resolve(period string, now time.Time) (Range, error) {
	today := midnight(now)
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(Layout) }

	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today":
		return Range{StartDate: day(0), EndDate: day(0)}, nil
	case "yesterday":
		return Range{StartDate: day(-1), EndDate: day(-1)}, nil
	case "last_7d":
		return Range{StartDate: day(-7), EndDate: day(-1)}, nil
	case "last_30d":
		return Range{StartDate: day(-30), EndDate: day(-1)}, nil
	case "this_month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Range{StartDate: first.Format(Layout), EndDate: day(0)}, nil
	case "last_month":
		first := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		last := time.Date(today.Year(), today.Month(), 0, 0, 0, 0, 0, today.Location())
		return Range{StartDate: first.Format(Layout), EndDate: last.Format(Layout)}, nil
	}

	if strings.Contains(period, ":") {
		return parseCustom(period)
	}
	return Range{StartDate: day(-7), EndDate: day(0), Fallback: true}, nil
}

func parseCustom(period string) (Range, error) {
	parts := strings.SplitN(strings.TrimSpace(period), ":", 2)
	start, err := time.Parse(Layout, strings.TrimSpace(parts[0]))
	if err != nil {
		return Range{}, &Error{Input: period, Reason: "start date must be YYYY-MM-DD"}
	}
	end, err := time.Parse(Layout, strings.TrimSpace(parts[1]))
	if err != nil {
		return Range{}, &Error{Input: period, Reason: "end date must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return Range{}, &Error{Input: period, Reason: "end date is before start date"}
	}
	return Range{StartDate: start.Format(Layout), EndDate: end.Format(Layout)}, nil
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(Layout, s)
	return err == nil
}

// Validate checks both bounds before they are interpolated into vendor queries.
func (r Range) Validate() error {
	if !ValidDate(r.StartDate) || !ValidDate(r.EndDate) {
		return &Error{Input: r.StartDate + ":" + r.EndDate, Reason: "dates must be YYYY-MM-DD"}
	}
	return nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
