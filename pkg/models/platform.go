package models

import "strings"

// PlatformID identifies one of the supported advertising or analytics platforms.
type PlatformID string

const (
	PlatformMeta      PlatformID = "meta"
	PlatformGoogle    PlatformID = "google"
	PlatformTikTok    PlatformID = "tiktok"
	PlatformReddit    PlatformID = "reddit"
	PlatformAnalytics PlatformID = "analytics"
)

var platformNames = map[PlatformID]string{
	PlatformMeta:      "Meta",
	PlatformGoogle:    "Google",
	PlatformTikTok:    "TikTok",
	PlatformReddit:    "Reddit",
	PlatformAnalytics: "Analytics",
}

var platformAliases = map[string]PlatformID{
	"meta":             PlatformMeta,
	"facebook":         PlatformMeta,
	"meta (facebook)":  PlatformMeta,
	"google":           PlatformGoogle,
	"google ads":       PlatformGoogle,
	"google-ads":       PlatformGoogle,
	"googleads":        PlatformGoogle,
	"tiktok":           PlatformTikTok,
	"reddit":           PlatformReddit,
	"analytics":        PlatformAnalytics,
	"ga4":              PlatformAnalytics,
	"google analytics": PlatformAnalytics,
}

// DisplayName returns the human readable platform name.
func (p PlatformID) DisplayName() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return string(p)
}

func (p PlatformID) String() string {
	return string(p)
}

// IsAdPlatform reports whether the platform sells ad inventory (everything except Analytics).
func (p PlatformID) IsAdPlatform() bool {
	_, known := platformNames[p]
	return known && p != PlatformAnalytics
}

// ParsePlatformID resolves a user supplied platform name or alias.
func ParsePlatformID(name string) (PlatformID, bool) {
	id, ok := platformAliases[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}
