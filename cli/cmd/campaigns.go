package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/aggregate"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
	"github.com/eimribar/ads-command-center/pkg/validation"
)

type campaignsOptions struct {
	status       string
	platformName string
	pause        string
	resume       string
	budget       float64
	id           string
}

func newCampaignsCmd(opts *rootOptions) *cobra.Command {
	var o campaignsOptions
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "List campaigns, or pause, resume and re-budget one",
		Example: `  ads campaigns --status active
  ads campaigns --platform meta --pause 1234567890
  ads campaigns --platform google --budget 50 --id 987654`,
		RunE: func(cmd *cobra.Command, args []string) error {
			update, id, err := o.update(cmd)
			if err != nil {
				return err
			}
			if id != "" {
				return runCampaignUpdate(cmd.Context(), opts.app, o.platformName, id, update)
			}
			return runCampaignList(cmd.Context(), opts.app, o)
		},
	}
	cmd.Flags().StringVar(&o.status, "status", "", "filter by status: active|paused|all")
	cmd.Flags().StringVar(&o.platformName, "platform", "", "limit to one platform (meta, google, tiktok, reddit)")
	cmd.Flags().StringVar(&o.pause, "pause", "", "pause the campaign with this id")
	cmd.Flags().StringVar(&o.resume, "resume", "", "resume the campaign with this id")
	cmd.Flags().Float64Var(&o.budget, "budget", 0, "set the daily budget of --id to this amount")
	cmd.Flags().StringVar(&o.id, "id", "", "campaign id for --budget")
	cmd.MarkFlagsMutuallyExclusive("pause", "resume")
	return cmd
}

// update turns the mutation flags into a CampaignUpdate. An empty id means
// the invocation is a listing.
func (o campaignsOptions) update(cmd *cobra.Command) (models.CampaignUpdate, string, error) {
	var update models.CampaignUpdate
	id := o.id
	switch {
	case o.pause != "":
		s := models.CampaignPaused
		update.Status = &s
		id = o.pause
	case o.resume != "":
		s := models.CampaignActive
		update.Status = &s
		id = o.resume
	}
	if cmd.Flags().Changed("budget") {
		if o.id == "" && id == "" {
			return update, "", validation.Errorf("id", "--budget needs --id")
		}
		if o.id != "" && id != o.id {
			return update, "", validation.Errorf("id", "--id %s does not match the campaign being paused or resumed", o.id)
		}
		budget := o.budget
		update.DailyBudget = &budget
	}
	if update.IsEmpty() {
		if o.id != "" {
			return update, "", validation.Errorf("update", "--id needs --budget, --pause or --resume")
		}
		return update, "", nil
	}
	return update, id, nil
}

func runCampaignUpdate(ctx context.Context, app *App, platformName, id string, update models.CampaignUpdate) error {
	if err := app.Validator.ValidateUpdate(id, update); err != nil {
		return err
	}
	if strings.TrimSpace(platformName) == "" {
		return validation.Errorf("platform", "--platform is required when changing a campaign")
	}
	adapter, err := app.Registry.Lookup(platformName)
	if err != nil {
		return err
	}
	if !adapter.IsConfigured() {
		return fmt.Errorf("%s: %w", adapter.Name(), platform.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, app.Timeout)
	defer cancel()

	app.Logger.WithField("platform", adapter.ID()).WithField("campaign_id", id).Debug("Updating campaign")
	result, err := adapter.UpdateCampaign(ctx, id, update)
	if errors.Is(err, platform.ErrUnsupported) {
		return fmt.Errorf("%s does not manage campaigns", adapter.Name())
	}
	var partial *platform.PartialUpdateError
	if errors.As(err, &partial) {
		app.Render.Warn("Campaign %s was only partly updated", id)
	}
	if err != nil {
		return fmt.Errorf("update %s campaign %s: %w", adapter.Name(), id, err)
	}
	if !result.Success {
		return fmt.Errorf("update %s campaign %s: %s", adapter.Name(), id, result.Message)
	}

	if app.Render.JSON() {
		return app.Render.WriteJSON(map[string]any{
			"platform":    adapter.ID(),
			"campaign_id": id,
			"update":      update,
			"result":      result,
		})
	}
	app.Render.Success("Campaign %s updated successfully", id)
	if update.Status != nil {
		app.Render.Line("  Status: %s", *update.Status)
	}
	if update.DailyBudget != nil {
		app.Render.Line("  Daily budget: %s", models.FormatMoney(*update.DailyBudget))
	}
	return nil
}

func parseStatusFilter(s string) (models.CampaignFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return models.CampaignFilter{}, nil
	case "active", "enabled":
		return models.CampaignFilter{Status: models.CampaignActive}, nil
	case "paused":
		return models.CampaignFilter{Status: models.CampaignPaused}, nil
	}
	return models.CampaignFilter{}, validation.Errorf("status", "must be one of: active, paused, all")
}

func runCampaignList(ctx context.Context, app *App, o campaignsOptions) error {
	filter, err := parseStatusFilter(o.status)
	if err != nil {
		return err
	}

	adapters := app.Registry.AdPlatforms()
	if o.platformName != "" {
		adapter, err := app.Registry.Lookup(o.platformName)
		if err != nil {
			return err
		}
		if !adapter.IsConfigured() {
			return fmt.Errorf("%s: %w", adapter.Name(), platform.ErrNotConfigured)
		}
		adapters = []platform.Adapter{adapter}
	}
	if len(adapters) == 0 {
		return aggregate.ErrNoPlatforms
	}

	campaigns, failures := aggregate.Campaigns(ctx, adapters, filter, app.fanOutOptions("campaigns"))
	aggregate.SortCampaigns(campaigns)

	if app.Render.JSON() {
		return app.Render.WriteJSON(map[string]any{
			"campaigns": campaigns,
			"failures":  failures,
		})
	}

	out := app.Render
	out.Blank()
	out.Title("📋 Campaigns")
	out.Blank()
	if len(campaigns) == 0 {
		out.Line("No campaigns found.")
	} else {
		rows := make([][]string, 0, len(campaigns))
		for _, c := range campaigns {
			rows = append(rows, []string{
				c.Platform.DisplayName(),
				c.ID,
				truncate(c.Name, 40),
				string(c.Status),
				moneyOrDash(c.Budget),
				models.FormatMoney(c.Spend),
				models.FormatDecimal(c.Results),
			})
		}
		out.Table([]string{"Platform", "ID", "Name", "Status", "Budget", "Spend", "Results"}, rows)
		out.Blank()
		out.Dim("%d campaigns", len(campaigns))
	}
	renderFailures(app, failures)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
