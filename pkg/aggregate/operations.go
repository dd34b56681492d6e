package aggregate

import (
	"context"
	"errors"
	"sort"

	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

// Insights fetches one record per adapter. Records come back in adapter order;
// a failed platform is represented by a record with Error set so it can be
// shown as unavailable, and is also listed in the failures.
func Insights(ctx context.Context, adapters []platform.Adapter, r daterange.Range, opts Options) ([]models.PlatformRecord, []Failure) {
	if opts.Operation == "" {
		opts.Operation = "insights"
	}
	outcomes := FanOut(ctx, adapters, opts, func(ctx context.Context, a platform.Adapter) (models.PlatformRecord, error) {
		return a.Insights(ctx, r)
	})

	records := make([]models.PlatformRecord, 0, len(outcomes))
	for _, o := range outcomes {
		switch o.Status {
		case StatusOK:
			rec := o.Value
			rec.Platform = o.Platform
			rec.Normalize()
			records = append(records, rec)
		case StatusFailed:
			records = append(records, models.PlatformRecord{Platform: o.Platform, Error: errorMessage(o.Err)})
		}
	}
	_, failures := Split(outcomes)
	return records, failures
}

// Campaigns lists campaigns from every adapter, filtered, in adapter order.
func Campaigns(ctx context.Context, adapters []platform.Adapter, filter models.CampaignFilter, opts Options) ([]models.Campaign, []Failure) {
	if opts.Operation == "" {
		opts.Operation = "campaigns"
	}
	outcomes := FanOut(ctx, adapters, opts, func(ctx context.Context, a platform.Adapter) ([]models.Campaign, error) {
		campaigns, err := a.Campaigns(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]models.Campaign, 0, len(campaigns))
		for _, c := range campaigns {
			c.Platform = a.ID()
			if filter.Matches(c) {
				out = append(out, c)
			}
		}
		return out, nil
	})

	lists, failures := Split(outcomes)
	var all []models.Campaign
	for _, list := range lists {
		all = append(all, list...)
	}
	return all, failures
}

// ConversionOutcome is one platform's answer to a fanned-out conversion event.
type ConversionOutcome struct {
	Platform models.PlatformID       `json:"platform"`
	Name     string                  `json:"name"`
	Result   models.ConversionResult `json:"result"`
	Skipped  bool                    `json:"skipped,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// SendConversion submits the same event, with its shared id, to every adapter.
// Unsupported platforms are reported as skipped. A platform that answers but
// rejects the event counts as a failure, the same as one whose call errored.
func SendConversion(ctx context.Context, adapters []platform.Adapter, event models.ConversionEvent, opts Options) ([]ConversionOutcome, []Failure) {
	if opts.Operation == "" {
		opts.Operation = "conversion"
	}
	outcomes := FanOut(ctx, adapters, opts, func(ctx context.Context, a platform.Adapter) (models.ConversionResult, error) {
		return a.SendConversion(ctx, event)
	})

	results := make([]ConversionOutcome, 0, len(outcomes))
	var failures []Failure
	for _, o := range outcomes {
		co := ConversionOutcome{Platform: o.Platform, Name: o.Name}
		switch o.Status {
		case StatusOK:
			co.Result = o.Value
			if co.Result.EventID == "" {
				co.Result.EventID = event.SharedEventID
			}
			if !co.Result.Success {
				msg := co.Result.Message
				if msg == "" {
					msg = "event rejected"
				}
				failures = append(failures, Failure{Platform: o.Platform, Name: o.Name, Err: errors.New(msg), Message: msg})
			}
		case StatusUnsupported, StatusNotConfigured:
			co.Skipped = true
			co.Error = errorMessage(o.Err)
		default:
			co.Error = errorMessage(o.Err)
			failures = append(failures, Failure{Platform: o.Platform, Name: o.Name, Err: o.Err, Message: co.Error})
		}
		results = append(results, co)
	}
	return results, failures
}

// SortCampaigns orders campaigns by spend, highest first, keeping platform order for ties.
func SortCampaigns(campaigns []models.Campaign) {
	sort.SliceStable(campaigns, func(i, j int) bool {
		return campaigns[i].Spend > campaigns[j].Spend
	})
}
