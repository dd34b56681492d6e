package aggregate

import (
	"context"
	"errors"

	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

// ErrNoPlatforms is returned when no ad platform has credentials.
var ErrNoPlatforms = errors.New("no ad platforms configured; set credentials in .env (see 'ads status')")

// Report is the unified performance view for one date range.
type Report struct {
	Range     daterange.Range         `json:"range"`
	Records   []models.PlatformRecord `json:"records"`
	Analytics *models.PlatformRecord  `json:"analytics,omitempty"`
	Totals    Totals                  `json:"totals"`
	Failures  []Failure               `json:"failures,omitempty"`
}

// Healthy returns the records of ad platforms that answered.
func (r Report) Healthy() []models.PlatformRecord {
	out := make([]models.PlatformRecord, 0, len(r.Records))
	for _, rec := range r.Records {
		if !rec.Failed() {
			out = append(out, rec)
		}
	}
	return out
}

// BuildReport queries every configured ad platform and Analytics in one
// concurrent pass. Analytics revenue feeds ROAS; an Analytics failure only
// removes ROAS and is listed with the other failures.
func BuildReport(ctx context.Context, reg *platform.Registry, r daterange.Range, opts Options) (Report, error) {
	ads := reg.AdPlatforms()
	if len(ads) == 0 {
		return Report{}, ErrNoPlatforms
	}

	adapters := ads
	if analytics, ok := reg.Get(models.PlatformAnalytics); ok && analytics.IsConfigured() {
		adapters = append(append([]platform.Adapter(nil), ads...), analytics)
	}

	if opts.Operation == "" {
		opts.Operation = "report"
	}
	records, failures := Insights(ctx, adapters, r, opts)

	report := Report{Range: r, Failures: failures}
	var revenue float64
	for i := range records {
		rec := records[i]
		if rec.Platform == models.PlatformAnalytics {
			if !rec.Failed() {
				report.Analytics = &rec
				if rec.ConversionValue != nil {
					revenue = *rec.ConversionValue
				}
			}
			continue
		}
		report.Records = append(report.Records, rec)
	}
	report.Totals = ComputeTotals(report.Records, revenue)
	return report, nil
}
