package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/optimize"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

func optimizeAdapters() []platform.Adapter {
	return []platform.Adapter{
		insightsFake(models.PlatformMeta, 100, 10),
		insightsFake(models.PlatformGoogle, 100, 1),
	}
}

func TestOptimizeRecommendsShift(t *testing.T) {
	res := runCLI(t, optimizeAdapters(), "", "optimize", "--dry-run")
	require.NoError(t, res.err)

	assert.Regexp(t, `Meta\s+\$100\.00\s+10\.0\s+\$10\.00\s+10\.0\s+⭐⭐⭐`, res.out)
	assert.Regexp(t, `Google\s+\$100\.00\s+1\.0\s+\$100\.00\s+1\.0\s+⭐\n`, res.out)
	assert.Contains(t, res.out, "Average efficiency: 5.5 conversions per $100")
	assert.Contains(t, res.out, "1. SHIFT BUDGET: $20 from Google → Meta")
	assert.Contains(t, res.out, "Projected: +2.0 conversions")
	assert.NotContains(t, res.errOut, "[y/N]")
	assert.NotContains(t, res.out, "manual implementation")
}

func TestOptimizeApplyConfirmed(t *testing.T) {
	res := runCLI(t, optimizeAdapters(), "y\n", "optimize")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Would you like to apply budget shift recommendations? [y/N]")
	assert.Contains(t, res.out, "Budget adjustments require manual implementation.")
	assert.Contains(t, res.out, "Google: Reduce daily budget by $20.00")
	assert.Contains(t, res.out, "Meta: Increase daily budget by $20.00")
}

func TestOptimizeApplyDeclined(t *testing.T) {
	res := runCLI(t, optimizeAdapters(), "n\n", "optimize")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No changes made.")
	assert.NotContains(t, res.out, "Reduce daily budget")

	res = runCLI(t, optimizeAdapters(), "", "optimize", "--yes")
	require.NoError(t, res.err)
	assert.NotContains(t, res.errOut, "[y/N]")
	assert.Contains(t, res.out, "Reduce daily budget")
}

func TestOptimizeBalancedPlatforms(t *testing.T) {
	adapters := []platform.Adapter{
		insightsFake(models.PlatformMeta, 100, 10),
		insightsFake(models.PlatformGoogle, 100, 9),
	}
	res := runCLI(t, adapters, "", "optimize")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "All platforms are performing efficiently")
}

func TestOptimizeInsufficientData(t *testing.T) {
	adapters := []platform.Adapter{
		insightsFake(models.PlatformMeta, 100, 10),
		failingFake(models.PlatformGoogle, "quota exceeded"),
	}
	res := runCLI(t, adapters, "", "optimize")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Not enough data to optimize")
	assert.Contains(t, res.out, "Google: quota exceeded")
}

func TestOptimizeJSON(t *testing.T) {
	res := runCLI(t, optimizeAdapters(), "", "--output", "json", "optimize")
	require.NoError(t, res.err)

	var payload struct {
		Analysis optimize.Analysis     `json:"analysis"`
		Plan     []optimize.Adjustment `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &payload))
	require.Len(t, payload.Analysis.Recommendations, 1)
	rec := payload.Analysis.Recommendations[0]
	assert.Equal(t, optimize.KindShiftBudget, rec.Kind)
	assert.Equal(t, 20.0, rec.Amount)
	assert.Equal(t, 2.0, rec.ProjectedGain)
	require.Len(t, payload.Plan, 2)
	assert.Equal(t, -20.0, payload.Plan[0].Delta)
}
