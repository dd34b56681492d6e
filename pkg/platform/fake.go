package platform

import (
	"context"
	"sync"

	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/models"
)

// Fake is an in-memory Adapter for tests of packages that fan out over
// platforms. Zero-value funcs fall back to ErrUnsupported.
type Fake struct {
	PlatformID models.PlatformID
	Configured bool

	CampaignsFunc      func(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error)
	InsightsFunc       func(ctx context.Context, r daterange.Range) (models.PlatformRecord, error)
	UpdateCampaignFunc func(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error)
	SendConversionFunc func(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error)

	mu    sync.Mutex
	calls []string
}

func (f *Fake) ID() models.PlatformID { return f.PlatformID }
func (f *Fake) Name() string          { return f.PlatformID.DisplayName() }
func (f *Fake) IsConfigured() bool    { return f.Configured }

// Calls returns the operations invoked so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *Fake) Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	f.record("campaigns")
	if f.CampaignsFunc == nil {
		return nil, ErrUnsupported
	}
	return f.CampaignsFunc(ctx, filter)
}

func (f *Fake) Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error) {
	f.record("insights")
	if f.InsightsFunc == nil {
		return models.PlatformRecord{}, ErrUnsupported
	}
	return f.InsightsFunc(ctx, r)
}

func (f *Fake) UpdateCampaign(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
	f.record("update")
	if f.UpdateCampaignFunc == nil {
		return models.UpdateResult{}, ErrUnsupported
	}
	return f.UpdateCampaignFunc(ctx, id, update)
}

func (f *Fake) SendConversion(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error) {
	f.record("conversion")
	if f.SendConversionFunc == nil {
		return models.ConversionResult{}, ErrUnsupported
	}
	return f.SendConversionFunc(ctx, event)
}
