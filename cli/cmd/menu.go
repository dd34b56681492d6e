package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/models"
)

func newMenuCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu for reports, campaigns and conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMainMenu(cmd, opts.app)
		},
	}
}

func runMainMenu(cmd *cobra.Command, app *App) error {
	options := []string{
		"Performance report",
		"Campaigns",
		"Send conversion",
		"Optimize budget",
		"Site traffic",
		"Platform status",
	}
	for {
		choice, ok := app.Prompt.Select("=== Ads Command Center ===", options, "Exit")
		if !ok || choice == 0 {
			return nil
		}
		var err error
		switch choice {
		case 1:
			if period, ok := selectPeriod(app); ok {
				err = runReport(cmd, app, period)
			}
		case 2:
			campaignsMenu(cmd, app)
		case 3:
			err = conversionMenu(cmd, app)
		case 4:
			if period, ok := selectPeriod(app); ok {
				err = runOptimize(cmd, app, period, false, false)
			}
		case 5:
			if period, ok := selectPeriod(app); ok {
				err = runTraffic(cmd, app, period)
			}
		case 6:
			err = runStatus(cmd.Context(), app, false)
		}
		if err != nil {
			app.Render.Fail("%v", err)
		}
	}
}

// selectPeriod offers the date presets; ok is false when the user backs out.
func selectPeriod(app *App) (string, bool) {
	choice, ok := app.Prompt.Select("-- Period --", daterange.Presets, "Back")
	if !ok || choice == 0 {
		return "", false
	}
	return daterange.Presets[choice-1], true
}

func campaignsMenu(cmd *cobra.Command, app *App) {
	options := []string{
		"List all campaigns",
		"List active campaigns",
		"Pause a campaign",
		"Resume a campaign",
		"Change daily budget",
	}
	for {
		choice, ok := app.Prompt.Select("-- Campaigns --", options, "Back")
		if !ok || choice == 0 {
			return
		}
		var err error
		switch choice {
		case 1:
			err = runCampaignList(cmd.Context(), app, campaignsOptions{})
		case 2:
			err = runCampaignList(cmd.Context(), app, campaignsOptions{status: "active"})
		case 3, 4:
			status := models.CampaignPaused
			if choice == 4 {
				status = models.CampaignActive
			}
			platformName := app.Prompt.Ask("Platform (meta, google, tiktok, reddit)", "")
			id := app.Prompt.Ask("Campaign ID", "")
			if !app.Prompt.Confirm("Set campaign "+id+" to "+string(status)+"?", false) {
				continue
			}
			err = runCampaignUpdate(cmd.Context(), app, platformName, id, models.CampaignUpdate{Status: &status})
		case 5:
			platformName := app.Prompt.Ask("Platform (meta, google, tiktok, reddit)", "")
			id := app.Prompt.Ask("Campaign ID", "")
			amount, perr := strconv.ParseFloat(app.Prompt.Ask("New daily budget", ""), 64)
			if perr != nil {
				app.Render.Fail("Budget must be a number")
				continue
			}
			if !app.Prompt.Confirm("Set daily budget of "+id+" to "+models.FormatMoney(amount)+"?", false) {
				continue
			}
			err = runCampaignUpdate(cmd.Context(), app, platformName, id, models.CampaignUpdate{DailyBudget: &amount})
		}
		if err != nil {
			app.Render.Fail("%v", err)
		}
	}
}

func conversionMenu(cmd *cobra.Command, app *App) error {
	names := make([]string, 0, len(models.SupportedEvents))
	for _, e := range models.SupportedEvents {
		names = append(names, string(e))
	}
	choice, ok := app.Prompt.Select("-- Event --", names, "Back")
	if !ok || choice == 0 {
		return nil
	}

	o := convertOptions{
		email: app.Prompt.Ask("Email", ""),
		gclid: app.Prompt.Ask("Google click id (optional)", ""),
		order: app.Prompt.Ask("Order ID (optional)", ""),
	}
	hasValue := false
	if raw := strings.TrimSpace(app.Prompt.Ask("Value (optional)", "")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			app.Render.Fail("Value must be a number")
			return nil
		}
		o.value = v
		hasValue = true
	}
	return runConvert(cmd, app, o.event(app, names[choice-1], hasValue))
}
