package daterange

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

func TestResolvePresets(t *testing.T) {
	tests := []struct {
		period     string
		start, end string
	}{
		{"today", "2024-03-15", "2024-03-15"},
		{"yesterday", "2024-03-14", "2024-03-14"},
		{"last_7d", "2024-03-08", "2024-03-14"},
		{"last_30d", "2024-02-14", "2024-03-14"},
		{"this_month", "2024-03-01", "2024-03-15"},
		{"last_month", "2024-02-01", "2024-02-29"},
		{"2024-01-01:2024-01-31", "2024-01-01", "2024-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			r, err := Resolve(tt.period, fixedNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.StartDate != tt.start || r.EndDate != tt.end {
				t.Fatalf("got %s..%s, want %s..%s", r.StartDate, r.EndDate, tt.start, tt.end)
			}
			if r.Fallback {
				t.Fatal("known period should not be flagged as fallback")
			}
		})
	}
}

func TestLastMonthAcrossYearBoundary(t *testing.T) {
	r, err := Resolve("last_month", time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if r.StartDate != "2023-12-01" || r.EndDate != "2023-12-31" {
		t.Fatalf("got %s..%s", r.StartDate, r.EndDate)
	}
}

func TestUnknownPeriodFallsBack(t *testing.T) {
	r, err := Resolve("fortnight", fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Fallback {
		t.Fatal("expected fallback flag")
	}
	if r.StartDate != "2024-03-08" || r.EndDate != "2024-03-15" {
		t.Fatalf("got %s..%s", r.StartDate, r.EndDate)
	}
}

func TestMalformedCustomRange(t *testing.T) {
	for _, in := range []string{"2024-13-01:2024-01-02", "2024-01-05:nope", "2024-02-10:2024-02-01"} {
		_, err := Resolve(in, fixedNow)
		var rangeErr *Error
		if !errors.As(err, &rangeErr) {
			t.Fatalf("%s: expected *Error, got %v", in, err)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (Range{StartDate: "2024-01-01", EndDate: "2024-01-02"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Range{StartDate: "2024-01-01' OR 1=1", EndDate: "2024-01-02"}).Validate(); err == nil {
		t.Fatal("expected injection attempt to be rejected")
	}
}
