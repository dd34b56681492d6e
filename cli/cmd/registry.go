package cmd

import (
	"github.com/eimribar/ads-command-center/pkg/clients"
	"github.com/eimribar/ads-command-center/pkg/clients/analytics"
	"github.com/eimribar/ads-command-center/pkg/clients/googleads"
	"github.com/eimribar/ads-command-center/pkg/clients/meta"
	"github.com/eimribar/ads-command-center/pkg/clients/reddit"
	"github.com/eimribar/ads-command-center/pkg/clients/tiktok"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

// defaultRegistry wires one adapter per platform, each with its own requester
// and circuit breaker. Order here is the order rows are shown in.
func defaultRegistry(app *App) (*platform.Registry, error) {
	execCfg := clients.DefaultHTTPExecutorConfig()
	execCfg.MaxRetries = app.Settings.MaxRetries

	requester := func(id models.PlatformID) *clients.Requester {
		return clients.NewRequester(id.DisplayName(),
			clients.WithHTTPExecutorConfig(execCfg),
			clients.WithObserver(app.Metrics),
			clients.WithLogger(app.Logger),
		)
	}

	return platform.NewRegistry(
		meta.NewClient(app.Env,
			meta.WithRequester(requester(models.PlatformMeta)),
			meta.WithLogger(app.Logger),
			meta.WithClock(app.Now),
		),
		reddit.NewClient(app.Env,
			reddit.WithRequester(requester(models.PlatformReddit)),
			reddit.WithLogger(app.Logger),
			reddit.WithClock(app.Now),
		),
		analytics.NewClient(app.Env,
			analytics.WithRequester(requester(models.PlatformAnalytics)),
			analytics.WithLogger(app.Logger),
			analytics.WithClock(app.Now),
		),
		googleads.NewClient(app.Env,
			googleads.WithRequester(requester(models.PlatformGoogle)),
			googleads.WithLogger(app.Logger),
			googleads.WithClock(app.Now),
		),
		tiktok.NewClient(app.Env,
			tiktok.WithRequester(requester(models.PlatformTikTok)),
			tiktok.WithLogger(app.Logger),
			tiktok.WithClock(app.Now),
		),
	)
}
