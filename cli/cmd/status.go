package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/clients/meta"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/monitoring"
	"github.com/eimribar/ads-command-center/pkg/platform"
	"github.com/eimribar/ads-command-center/pkg/version"
)

// pixelStatser is implemented by adapters that can report recent pixel activity.
type pixelStatser interface {
	PixelStats(ctx context.Context) ([]meta.PixelEventCount, error)
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which platforms are configured",
		Long:  "Show which platforms have credentials. With --probe, call every configured platform and report latency.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), opts.app, probe)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "verify credentials with a live call to each configured platform")
	return cmd
}

type statusView struct {
	Platforms []platform.Status        `json:"platforms"`
	Health    *monitoring.HealthStatus `json:"health,omitempty"`
	Pixel     []meta.PixelEventCount   `json:"pixel,omitempty"`
}

func runStatus(ctx context.Context, app *App, probe bool) error {
	view := statusView{Platforms: app.Registry.Statuses()}
	if probe {
		health, pixel := probePlatforms(ctx, app)
		view.Health = &health
		view.Pixel = pixel
	}

	out := app.Render
	if out.JSON() {
		return out.WriteJSON(view)
	}

	out.Blank()
	out.Title("🔌 Platform Status")
	out.Blank()
	configured := 0
	for _, s := range view.Platforms {
		if !s.Configured {
			out.Fail("%s: not configured", s.Name)
			continue
		}
		configured++
		line := fmt.Sprintf("%s: configured", s.Name)
		if view.Health != nil {
			if res, ok := view.Health.Checks[string(s.ID)]; ok {
				line = fmt.Sprintf("%s: %s (%s)", s.Name, res.Message, res.Latency)
				if res.Status != monitoring.StatusHealthy {
					out.Warn("%s", line)
					continue
				}
			}
		}
		out.Success("%s", line)
	}
	out.Blank()
	out.Dim("%d/%d platforms configured", configured, len(view.Platforms))

	if len(view.Pixel) > 0 {
		out.Blank()
		out.Title("Meta pixel events")
		rows := make([][]string, 0, len(view.Pixel))
		for _, p := range view.Pixel {
			rows = append(rows, []string{p.Event, models.FormatCount(p.Count)})
		}
		out.Table([]string{"Event", "Count"}, rows)
	}
	if configured == 0 {
		out.Blank()
		out.Hint("Add credentials with 'ads config set-secret <KEY>' or a .env file.")
	}
	return nil
}

// probePlatforms runs one live check per configured platform concurrently.
// Meta pixel activity is fetched alongside when a pixel is configured.
func probePlatforms(ctx context.Context, app *App) (monitoring.HealthStatus, []meta.PixelEventCount) {
	checker := monitoring.NewHealthChecker("ads", version.Version, app.Timeout)
	var (
		pixel []meta.PixelEventCount
		wg    sync.WaitGroup
	)
	for _, adapter := range app.Registry.Configured() {
		checker.AddCheck(string(adapter.ID()), probeCheck(adapter))
		ps, ok := adapter.(pixelStatser)
		if !ok || !app.Env.Has(meta.EnvPixelID) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, app.Timeout)
			defer cancel()
			stats, err := ps.PixelStats(pctx)
			if err != nil {
				app.Logger.WithError(err).Warn("Failed to fetch pixel stats")
				return
			}
			pixel = stats
		}()
	}
	health := checker.CheckHealth(ctx)
	wg.Wait()
	for name, res := range health.Checks {
		app.Metrics.ObserveOutcome(name, "probe", res.Status)
	}
	return health, pixel
}

func probeCheck(adapter platform.Adapter) monitoring.HealthCheck {
	return func(ctx context.Context) monitoring.CheckResult {
		start := time.Now()
		var (
			detail string
			err    error
		)
		if p, ok := adapter.(platform.Prober); ok {
			detail, err = p.Probe(ctx)
		} else {
			var campaigns []models.Campaign
			campaigns, err = adapter.Campaigns(ctx, models.CampaignFilter{})
			detail = fmt.Sprintf("%d campaigns", len(campaigns))
		}
		latency := time.Since(start).Round(time.Millisecond).String()
		if err != nil {
			return monitoring.CheckResult{Status: monitoring.StatusUnhealthy, Message: err.Error(), Latency: latency}
		}
		return monitoring.CheckResult{Status: monitoring.StatusHealthy, Message: "connected: " + detail, Latency: latency}
	}
}
