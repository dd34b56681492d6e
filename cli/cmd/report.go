package cmd

import (
	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/aggregate"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/optimize"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Unified performance report across all configured ad platforms",
		Example: `  ads report
  ads report --period last_30d
  ads report --period 2026-09-01:2026-09-30 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts.app, period)
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "", "today|yesterday|last_7d|last_30d|this_month|last_month|YYYY-MM-DD:YYYY-MM-DD")
	return cmd
}

func runReport(cmd *cobra.Command, app *App, period string) error {
	r, err := app.resolveRange(period)
	if err != nil {
		return err
	}
	report, err := aggregate.BuildReport(cmd.Context(), app.Registry, r, app.fanOutOptions("report"))
	if err != nil {
		return err
	}
	if app.Render.JSON() {
		return app.Render.WriteJSON(report)
	}
	renderReport(app, report)
	return nil
}

func renderReport(app *App, report aggregate.Report) {
	out := app.Render
	out.Blank()
	out.Title("📊 Ads Report (%s)", report.Range)
	if report.Range.Fallback {
		out.Warn("Unknown period, showing %s", report.Range)
	}
	out.Blank()

	headers := []string{"Platform", "Spend", "Impr", "Clicks", "CTR", "Conv", "CPA", "ROAS"}
	rows := make([][]string, 0, len(report.Records)+2)
	for _, rec := range report.Records {
		if rec.Failed() {
			rows = append(rows, []string{rec.Platform.DisplayName(), "unavailable", "-", "-", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			rec.Platform.DisplayName(),
			models.FormatMoney(rec.SpendValue()),
			models.FormatCount(rec.ImpressionsValue()),
			models.FormatCount(rec.ClicksValue()),
			percentOrDash(rec.CTR),
			models.FormatDecimal(rec.ConversionsValue()),
			moneyOrDash(rec.CPA),
			ratioOrDash(rec.ROAS),
		})
	}
	t := report.Totals
	rows = append(rows, nil, []string{
		"TOTAL",
		models.FormatMoney(t.Spend),
		models.FormatCount(t.Impressions),
		models.FormatCount(t.Clicks),
		models.FormatPercent(t.CTR),
		models.FormatDecimal(t.Conversions),
		moneyOrDash(t.CPA),
		ratioOrDash(t.ROAS),
	})
	out.Table(headers, rows)

	if a := report.Analytics; a != nil {
		out.Blank()
		line := "Analytics: " + models.FormatCount(a.ClicksValue()) + " sessions, " +
			models.FormatDecimal(a.ConversionsValue()) + " conversions"
		if a.ConversionValue != nil && *a.ConversionValue > 0 {
			line += ", " + models.FormatMoney(*a.ConversionValue) + " revenue"
		}
		if a.Traffic != nil {
			line += ", " + models.FormatCount(a.Traffic.Users) + " users"
		}
		out.Line("%s", line)
	}

	renderFailures(app, report.Failures)

	if hint, ok := optimize.CPAHint(report.Healthy()); ok {
		out.Blank()
		out.Hint("%s", hint)
	}
}

func renderFailures(app *App, failures []aggregate.Failure) {
	if len(failures) == 0 {
		return
	}
	app.Render.Blank()
	app.Render.Warn("Some platforms had errors:")
	for _, f := range failures {
		app.Render.Line("  • %s: %s", f.Name, f.Message)
	}
}

func moneyOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return models.FormatMoney(*v)
}

func percentOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return models.FormatPercent(*v)
}

func ratioOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return models.FormatRatio(*v)
}
