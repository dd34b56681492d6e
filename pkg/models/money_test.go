package models

import (
	"regexp"
	"testing"
	"time"
)

func TestMicrosRoundTrip(t *testing.T) {
	if got := FromMicros(12_345_678); got != 12.345678 {
		t.Fatalf("FromMicros = %v", got)
	}
	if got := ToMicros(49.99); got != 49_990_000 {
		t.Fatalf("ToMicros = %d", got)
	}
}

func TestMinorUnits(t *testing.T) {
	if got := ToMinorUnits(12.345); got != 1235 {
		t.Fatalf("ToMinorUnits = %d", got)
	}
	if got := FromMinorUnits(5000); got != 50 {
		t.Fatalf("FromMinorUnits = %v", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := map[string]float64{"": 0, "12.50": 12.5, "abc": 0, "100": 100}
	for in, want := range tests {
		if got := ParseAmount(in); got != want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatMoney(1234.5), "$1,234.50"},
		{FormatMoney(-3), "-$3.00"},
		{FormatWholeMoney(19.6), "$20"},
		{FormatCount(1234567), "1,234,567"},
		{FormatPercent(2.345), "2.35%"},
		{FormatRatio(3), "3.00x"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNewEventIDFormat(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewEventID(now)
	if !regexp.MustCompile(`^evt_1700000000123_[0-9a-f]{16}$`).MatchString(id) {
		t.Fatalf("unexpected event id %q", id)
	}
	if NewEventID(now) == id {
		t.Fatal("expected unique event ids")
	}
}

func TestParsePlatformAndEvent(t *testing.T) {
	if id, ok := ParsePlatformID("Google-Ads"); !ok || id != PlatformGoogle {
		t.Fatalf("expected google, got %q %v", id, ok)
	}
	if _, ok := ParsePlatformID("myspace"); ok {
		t.Fatal("expected unknown platform")
	}
	if e, ok := ParseEventType("purchase"); !ok || e != EventPurchase {
		t.Fatalf("expected Purchase, got %q", e)
	}
	if _, ok := ParseEventType("Refund"); ok {
		t.Fatal("Refund is not a supported event")
	}
	if PlatformAnalytics.IsAdPlatform() || !PlatformReddit.IsAdPlatform() {
		t.Fatal("ad platform classification wrong")
	}
	if ParseCampaignStatus("ENABLED") != CampaignActive || ParseCampaignStatus("DISABLE") != CampaignPaused || ParseCampaignStatus("REMOVED") != CampaignUnknown {
		t.Fatal("campaign status mapping wrong")
	}
}
