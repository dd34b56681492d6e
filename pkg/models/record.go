package models

// TrafficStats carries the site traffic figures only Analytics reports.
type TrafficStats struct {
	Users              int64   `json:"users"`
	NewUsers           int64   `json:"new_users"`
	Sessions           int64   `json:"sessions"`
	PageViews          int64   `json:"page_views"`
	BounceRate         float64 `json:"bounce_rate"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
}

// PlatformRecord is one platform's performance snapshot for a date range.
// Optional metrics are nil when the platform does not report them.
type PlatformRecord struct {
	Platform        PlatformID    `json:"platform"`
	Spend           *float64      `json:"spend"`
	Impressions     *int64        `json:"impressions"`
	Clicks          *int64        `json:"clicks"`
	CTR             *float64      `json:"ctr"`
	Conversions     *float64      `json:"conversions"`
	CPA             *float64      `json:"cpa"`
	ROAS            *float64      `json:"roas"`
	ConversionValue *float64      `json:"conversion_value,omitempty"`
	Traffic         *TrafficStats `json:"traffic,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Normalize fills in derived metrics the vendor did not send.
// CPA is spend/conversions whenever conversions are positive and no vendor CPA exists;
// a CPA without positive conversions is dropped. CTR is derived from clicks and impressions.
func (r *PlatformRecord) Normalize() {
	if r.CPA == nil && r.Spend != nil && r.Conversions != nil && *r.Conversions > 0 {
		r.CPA = Float64(*r.Spend / *r.Conversions)
	}
	if r.CPA != nil && (r.Conversions == nil || *r.Conversions <= 0) {
		r.CPA = nil
	}
	if r.CTR == nil && r.Clicks != nil && r.Impressions != nil && *r.Impressions > 0 {
		r.CTR = Float64(float64(*r.Clicks) / float64(*r.Impressions) * 100)
	}
}

// Failed reports whether the record stands in for a platform that could not be queried.
func (r PlatformRecord) Failed() bool {
	return r.Error != ""
}

// SpendValue returns spend with a missing value read as zero.
func (r PlatformRecord) SpendValue() float64 { return valueOr(r.Spend) }

// ConversionsValue returns conversions with a missing value read as zero.
func (r PlatformRecord) ConversionsValue() float64 { return valueOr(r.Conversions) }

// ImpressionsValue returns impressions with a missing value read as zero.
func (r PlatformRecord) ImpressionsValue() int64 { return intOr(r.Impressions) }

// ClicksValue returns clicks with a missing value read as zero.
func (r PlatformRecord) ClicksValue() int64 { return intOr(r.Clicks) }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOr(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
