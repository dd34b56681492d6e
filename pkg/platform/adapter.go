// Package platform defines the capability contract every advertising and
// analytics integration implements, and the registry that holds them.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/models"
)

var (
	// ErrNotConfigured is returned when an adapter is invoked without credentials.
	ErrNotConfigured = errors.New("platform is not configured")
	// ErrUnsupported is returned for capabilities a platform does not offer.
	// Callers treat it as a neutral no-op.
	ErrUnsupported = errors.New("operation not supported by platform")
)

// Adapter is the uniform capability set of one platform integration.
type Adapter interface {
	ID() models.PlatformID
	Name() string

	// IsConfigured reports whether the required credentials are present.
	// It performs no I/O and is evaluated again on every call.
	IsConfigured() bool

	Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error)
	Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error)
	UpdateCampaign(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error)
	SendConversion(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error)
}

// Prober is implemented by adapters that can verify their credentials remotely.
type Prober interface {
	Probe(ctx context.Context) (string, error)
}

// PartialUpdateError reports a campaign update that the platform applied only
// in part. Applied lists the changes that went through before Failed did.
type PartialUpdateError struct {
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialUpdateError) Error() string {
	var b strings.Builder
	for _, part := range e.Applied {
		b.WriteString(part)
		b.WriteString(" updated; ")
	}
	fmt.Fprintf(&b, "%s failed: %v", e.Failed, e.Err)
	return b.String()
}

func (e *PartialUpdateError) Unwrap() error { return e.Err }
