package optimize

import (
	"fmt"
	"math"
	"sort"

	"github.com/eimribar/ads-command-center/pkg/models"
)

// CPAHintRatio is how much worse the highest CPA must be before a shift is suggested.
const CPAHintRatio = 1.5

// CPAHint compares cost per acquisition across platforms for the report footer.
// It returns false when fewer than two platforms have a positive CPA or the
// spread is below CPAHintRatio.
func CPAHint(records []models.PlatformRecord) (string, bool) {
	withCPA := make([]models.PlatformRecord, 0, len(records))
	for _, r := range records {
		if !r.Failed() && r.CPA != nil && *r.CPA > 0 {
			withCPA = append(withCPA, r)
		}
	}
	if len(withCPA) < MinPlatforms {
		return "", false
	}
	sort.SliceStable(withCPA, func(i, j int) bool { return *withCPA[i].CPA < *withCPA[j].CPA })

	best, worst := withCPA[0], withCPA[len(withCPA)-1]
	if *worst.CPA <= *best.CPA*CPAHintRatio {
		return "", false
	}
	amount := math.Round(worst.SpendValue() * ShiftFraction)
	return fmt.Sprintf("Consider shifting %s from %s → %s (CPA: %s vs %s)",
		models.FormatWholeMoney(amount),
		worst.Platform.DisplayName(), best.Platform.DisplayName(),
		models.FormatMoney(*worst.CPA), models.FormatMoney(*best.CPA)), true
}

// Adjustment is one manual budget change implementing a recommendation.
type Adjustment struct {
	Platform models.PlatformID `json:"platform"`
	Delta    float64           `json:"delta"`
}

func (a Adjustment) String() string {
	if a.Delta < 0 {
		return fmt.Sprintf("%s: Reduce daily budget by %s", a.Platform.DisplayName(), models.FormatMoney(-a.Delta))
	}
	return fmt.Sprintf("%s: Increase daily budget by %s", a.Platform.DisplayName(), models.FormatMoney(a.Delta))
}

// ShiftPlan turns shift_budget recommendations into per-platform adjustments.
func ShiftPlan(recs []Recommendation) []Adjustment {
	var plan []Adjustment
	for _, r := range recs {
		if r.Kind != KindShiftBudget {
			continue
		}
		plan = append(plan,
			Adjustment{Platform: r.From, Delta: -r.Amount},
			Adjustment{Platform: r.To, Delta: r.Amount},
		)
	}
	return plan
}
