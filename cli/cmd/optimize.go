package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/aggregate"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/optimize"
)

func newOptimizeCmd(opts *rootOptions) *cobra.Command {
	var (
		period string
		dryRun bool
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Score platform efficiency and suggest budget shifts",
		Long:  "Score each platform by conversions per $100 spent and suggest budget shifts. Nothing is changed automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, opts.app, period, dryRun, yes)
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "", "date range to analyze (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show recommendations without offering to apply them")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runOptimize(cmd *cobra.Command, app *App, period string, dryRun, yes bool) error {
	r, err := app.resolveRange(period)
	if err != nil {
		return err
	}
	report, err := aggregate.BuildReport(cmd.Context(), app.Registry, r, app.fanOutOptions("optimize"))
	if err != nil {
		return err
	}

	analysis, err := optimize.Analyze(report.Healthy())
	out := app.Render
	if errors.Is(err, optimize.ErrInsufficientData) {
		if out.JSON() {
			return out.WriteJSON(map[string]any{
				"range":    report.Range,
				"error":    err.Error(),
				"failures": report.Failures,
			})
		}
		out.Blank()
		out.Warn("Not enough data to optimize: %v", err)
		renderFailures(app, report.Failures)
		return nil
	}
	if err != nil {
		return err
	}

	if out.JSON() {
		return out.WriteJSON(map[string]any{
			"range":    report.Range,
			"analysis": analysis,
			"plan":     optimize.ShiftPlan(analysis.Recommendations),
			"failures": report.Failures,
		})
	}

	out.Blank()
	out.Title("🎯 Budget Optimization (%s)", report.Range)
	out.Blank()
	rows := make([][]string, 0, len(analysis.Scores))
	for _, s := range analysis.Scores {
		rows = append(rows, []string{
			s.Platform.DisplayName(),
			models.FormatMoney(s.Spend),
			models.FormatDecimal(s.Conversions),
			moneyOrDash(s.CPA),
			models.FormatDecimal(s.Efficiency),
			s.Rating.Stars(),
		})
	}
	out.Table([]string{"Platform", "Spend", "Conv", "CPA", "Efficiency", "Rating"}, rows)
	out.Blank()
	out.Dim("Average efficiency: %s conversions per $100", models.FormatDecimal(analysis.Average))
	renderFailures(app, report.Failures)

	out.Blank()
	if len(analysis.Recommendations) == 0 {
		out.Success("All platforms are performing efficiently. No changes recommended.")
		return nil
	}

	out.Title("Recommendations")
	for i, rec := range analysis.Recommendations {
		switch rec.Kind {
		case optimize.KindShiftBudget:
			out.Line("%d. SHIFT BUDGET: %s from %s → %s", i+1,
				models.FormatWholeMoney(rec.Amount), rec.From.DisplayName(), rec.To.DisplayName())
			out.Line("   Reason: %s", rec.Reason)
			out.Line("   Projected: +%s conversions", models.FormatDecimal(rec.ProjectedGain))
		case optimize.KindReviewSpend:
			out.Line("%d. REVIEW SPEND: %s", i+1, rec.Platform.DisplayName())
			out.Line("   Reason: %s", rec.Reason)
		}
	}

	plan := optimize.ShiftPlan(analysis.Recommendations)
	if dryRun || len(plan) == 0 {
		return nil
	}
	out.Blank()
	if !app.Prompt.Confirm("Would you like to apply budget shift recommendations?", yes) {
		out.Dim("No changes made.")
		return nil
	}
	out.Blank()
	out.Warn("Budget adjustments require manual implementation.")
	for _, adj := range plan {
		out.Line("  • %s", adj)
	}
	return nil
}
