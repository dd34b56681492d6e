package aggregate

import "github.com/eimribar/ads-command-center/pkg/models"

// Totals is the cross-platform roll-up of ad spend and results.
type Totals struct {
	Spend       float64  `json:"spend"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Conversions float64  `json:"conversions"`
	CTR         float64  `json:"ctr"`
	CPA         *float64 `json:"cpa"`
	ROAS        *float64 `json:"roas"`
	Revenue     float64  `json:"revenue"`
}

// ComputeTotals sums the successful records, reading missing metrics as zero.
// revenue comes from Analytics; ROAS is only reported when both revenue and
// spend are positive.
func ComputeTotals(records []models.PlatformRecord, revenue float64) Totals {
	var t Totals
	for _, r := range records {
		if r.Failed() {
			continue
		}
		t.Spend += r.SpendValue()
		t.Impressions += r.ImpressionsValue()
		t.Clicks += r.ClicksValue()
		t.Conversions += r.ConversionsValue()
	}
	if t.Impressions > 0 {
		t.CTR = float64(t.Clicks) / float64(t.Impressions) * 100
	}
	if t.Conversions > 0 {
		t.CPA = models.Float64(t.Spend / t.Conversions)
	}
	t.Revenue = revenue
	if t.Spend > 0 && revenue > 0 {
		t.ROAS = models.Float64(revenue / t.Spend)
	}
	return t
}
