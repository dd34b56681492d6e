package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
	"github.com/eimribar/ads-command-center/pkg/validation"
)

func campaignFake(id models.PlatformID, campaigns ...models.Campaign) *platform.Fake {
	return &platform.Fake{
		PlatformID: id,
		Configured: true,
		CampaignsFunc: func(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
			return campaigns, nil
		},
	}
}

func TestCampaignsListSortedBySpend(t *testing.T) {
	adapters := []platform.Adapter{
		campaignFake(models.PlatformMeta, models.Campaign{ID: "m1", Name: "Retargeting", Status: models.CampaignActive, Spend: 10}),
		campaignFake(models.PlatformGoogle, models.Campaign{ID: "g1", Name: "Search", Status: models.CampaignPaused, Spend: 50}),
	}
	res := runCLI(t, adapters, "", "--output", "json", "campaigns")
	require.NoError(t, res.err)

	var payload struct {
		Campaigns []models.Campaign `json:"campaigns"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &payload))
	require.Len(t, payload.Campaigns, 2)
	assert.Equal(t, "g1", payload.Campaigns[0].ID)
	assert.Equal(t, models.PlatformGoogle, payload.Campaigns[0].Platform)
	assert.Equal(t, "m1", payload.Campaigns[1].ID)

	res = runCLI(t, adapters, "", "campaigns", "--status", "active")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Retargeting")
	assert.NotContains(t, res.out, "Search")
	assert.Contains(t, res.out, "1 campaigns")
}

func TestCampaignsRejectsBadStatusFilter(t *testing.T) {
	res := runCLI(t, []platform.Adapter{campaignFake(models.PlatformMeta)}, "", "campaigns", "--status", "archived")
	require.Error(t, res.err)
	assert.True(t, validation.IsValidationError(res.err))
}

func TestCampaignsPause(t *testing.T) {
	var (
		gotID     string
		gotUpdate models.CampaignUpdate
	)
	meta := campaignFake(models.PlatformMeta)
	meta.UpdateCampaignFunc = func(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
		gotID, gotUpdate = id, update
		return models.UpdateResult{Success: true}, nil
	}

	res := runCLI(t, []platform.Adapter{meta}, "", "campaigns", "--platform", "facebook", "--pause", "123")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Campaign 123 updated successfully")
	assert.Equal(t, "123", gotID)
	require.NotNil(t, gotUpdate.Status)
	assert.Equal(t, models.CampaignPaused, *gotUpdate.Status)
	assert.Nil(t, gotUpdate.DailyBudget)
}

func TestCampaignsBudget(t *testing.T) {
	var gotUpdate models.CampaignUpdate
	google := campaignFake(models.PlatformGoogle)
	google.UpdateCampaignFunc = func(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
		gotUpdate = update
		return models.UpdateResult{Success: true}, nil
	}

	res := runCLI(t, []platform.Adapter{google}, "", "campaigns", "--platform", "google", "--budget", "50", "--id", "987")
	require.NoError(t, res.err)
	require.NotNil(t, gotUpdate.DailyBudget)
	assert.Equal(t, 50.0, *gotUpdate.DailyBudget)
	assert.Contains(t, res.out, "Daily budget: $50.00")
}

func TestCampaignsUpdateErrors(t *testing.T) {
	meta := campaignFake(models.PlatformMeta)
	meta.UpdateCampaignFunc = func(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
		return models.UpdateResult{Success: false, Message: "campaign is archived"}, nil
	}
	analytics := &platform.Fake{PlatformID: models.PlatformAnalytics, Configured: true}
	adapters := []platform.Adapter{meta, analytics}

	cases := []struct {
		name       string
		args       []string
		validation bool
		contains   string
	}{
		{name: "missing platform", args: []string{"--pause", "1"}, validation: true},
		{name: "unknown platform", args: []string{"--platform", "myspace", "--pause", "1"}, validation: true},
		{name: "budget without id", args: []string{"--platform", "meta", "--budget", "10"}, validation: true},
		{name: "non-positive budget", args: []string{"--platform", "meta", "--budget", "0", "--id", "1"}, validation: true},
		{name: "id alone", args: []string{"--platform", "meta", "--id", "1"}, validation: true},
		{name: "rejected by platform", args: []string{"--platform", "meta", "--resume", "1"}, contains: "campaign is archived"},
		{name: "unsupported platform", args: []string{"--platform", "ga4", "--pause", "1"}, contains: "does not manage campaigns"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, adapters, "", append([]string{"campaigns"}, tc.args...)...)
			require.Error(t, res.err)
			assert.Equal(t, tc.validation, validation.IsValidationError(res.err), "err: %v", res.err)
			if tc.contains != "" {
				assert.Contains(t, res.err.Error(), tc.contains)
			}
		})
	}
}

func TestCampaignsPartialUpdateIsReported(t *testing.T) {
	tiktok := campaignFake(models.PlatformTikTok)
	tiktok.UpdateCampaignFunc = func(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
		return models.UpdateResult{}, &platform.PartialUpdateError{
			Applied: []string{"status"},
			Failed:  "budget",
			Err:     errors.New("budget too low"),
		}
	}

	res := runCLI(t, []platform.Adapter{tiktok}, "", "campaigns", "--platform", "tiktok", "--resume", "c1", "--budget", "5", "--id", "c1")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "status updated; budget failed: budget too low")
	assert.Contains(t, res.out, "Campaign c1 was only partly updated")
	assert.NotContains(t, res.out, "updated successfully")
}
