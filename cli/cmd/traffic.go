package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/clients/analytics"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

const trafficSourceLimit = 10

func newTrafficCmd(opts *rootOptions) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "traffic",
		Short: "Site traffic, top sources and conversion events from Google Analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraffic(cmd, opts.app, period)
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "", "date range (default from config)")
	return cmd
}

func runTraffic(cmd *cobra.Command, app *App, period string) error {
	adapter, ok := app.Registry.Get(models.PlatformAnalytics)
	if !ok || !adapter.IsConfigured() {
		return fmt.Errorf("google analytics: %w (set %s and %s or %s)", platform.ErrNotConfigured,
			analytics.EnvPropertyID, analytics.EnvAccessToken, analytics.EnvRefreshToken)
	}
	ga, ok := adapter.(*analytics.Client)
	if !ok {
		return fmt.Errorf("google analytics: %w", platform.ErrUnsupported)
	}
	r, err := app.resolveRange(period)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, app)
	defer cancel()
	report, err := ga.Traffic(ctx, r, trafficSourceLimit)
	if err != nil {
		return fmt.Errorf("fetch traffic: %w", err)
	}

	out := app.Render
	if out.JSON() {
		return out.WriteJSON(report)
	}

	o := report.Overview
	out.Blank()
	out.Title("🌐 Site Traffic (%s)", report.Range)
	out.Blank()
	out.Table([]string{"Users", "New users", "Sessions", "Page views", "Bounce rate", "Avg session"}, [][]string{{
		models.FormatCount(o.Users),
		models.FormatCount(o.NewUsers),
		models.FormatCount(o.Sessions),
		models.FormatCount(o.PageViews),
		models.FormatPercent(o.BounceRate * 100),
		fmt.Sprintf("%.0fs", o.AvgSessionDuration),
	}})

	if len(report.Sources) > 0 {
		out.Blank()
		out.Title("Top sources")
		rows := make([][]string, 0, len(report.Sources))
		for _, s := range report.Sources {
			rows = append(rows, []string{
				s.Source + " / " + s.Medium,
				models.FormatCount(s.Sessions),
				models.FormatCount(s.Users),
				models.FormatCount(s.Conversions),
			})
		}
		out.Table([]string{"Source / Medium", "Sessions", "Users", "Conversions"}, rows)
	}

	out.Blank()
	if len(report.Conversions) == 0 {
		out.Dim("No conversion events in this period.")
		return nil
	}
	out.Title("Conversion events")
	rows := make([][]string, 0, len(report.Conversions))
	for _, e := range report.Conversions {
		rows = append(rows, []string{e.Name, models.FormatCount(e.Count), models.FormatMoney(e.Value)})
	}
	out.Table([]string{"Event", "Count", "Value"}, rows)
	return nil
}
