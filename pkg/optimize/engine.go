// Package optimize derives budget recommendations from cross-platform performance.
// It only advises; nothing here changes a campaign.
package optimize

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/eimribar/ads-command-center/pkg/models"
)

const (
	// ShiftFraction of the worst platform's spend is proposed for reallocation.
	ShiftFraction = 0.20
	// MinShiftAmount suppresses shifts too small to matter.
	MinShiftAmount = 5.0
	// ReviewSpendThreshold is the spend above which zero conversions are flagged.
	ReviewSpendThreshold = 10.0
	// MinPlatforms is how many spend-bearing platforms a comparison needs.
	MinPlatforms = 2
)

// ErrInsufficientData is returned when fewer than MinPlatforms platforms have spend.
var ErrInsufficientData = errors.New("need at least 2 platforms with spend to compare")

// Kind discriminates recommendations.
type Kind string

const (
	KindShiftBudget Kind = "shift_budget"
	KindReviewSpend Kind = "review_spend"
)

// Rating buckets a platform's efficiency relative to the average.
type Rating int

const (
	RatingPoor Rating = iota + 1
	RatingFair
	RatingGood
)

// Stars renders the rating as one to three stars.
func (r Rating) Stars() string {
	switch r {
	case RatingGood:
		return "⭐⭐⭐"
	case RatingFair:
		return "⭐⭐"
	default:
		return "⭐"
	}
}

// Score is one platform's efficiency.
type Score struct {
	Platform    models.PlatformID `json:"platform"`
	Spend       float64           `json:"spend"`
	Conversions float64           `json:"conversions"`
	CPA         *float64          `json:"cpa"`
	Efficiency  float64           `json:"efficiency"`
	Rating      Rating            `json:"rating"`
}

// Recommendation is advice for a human. From/To/ProjectedGain only apply to
// shift_budget; Platform only to review_spend.
type Recommendation struct {
	Kind          Kind              `json:"kind"`
	From          models.PlatformID `json:"from,omitempty"`
	To            models.PlatformID `json:"to,omitempty"`
	Platform      models.PlatformID `json:"platform,omitempty"`
	Amount        float64           `json:"amount"`
	ProjectedGain float64           `json:"projected_gain,omitempty"`
	Reason        string            `json:"reason"`
}

// Analysis is the engine output.
type Analysis struct {
	Scores          []Score          `json:"scores"`
	Average         float64          `json:"average_efficiency"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Best returns the most efficient platform.
func (a Analysis) Best() Score { return a.Scores[0] }

// Worst returns the least efficient platform.
func (a Analysis) Worst() Score { return a.Scores[len(a.Scores)-1] }

// Efficiency is conversions per 100 currency units spent, 0 when either is 0.
func Efficiency(spend, conversions float64) float64 {
	if spend <= 0 || conversions <= 0 {
		return 0
	}
	return conversions / spend * 100
}

// Analyze scores every platform with spend and derives recommendations.
// Failed records and records without spend are ignored.
func Analyze(records []models.PlatformRecord) (Analysis, error) {
	scores := make([]Score, 0, len(records))
	for _, r := range records {
		if r.Failed() || r.SpendValue() <= 0 {
			continue
		}
		scores = append(scores, Score{
			Platform:    r.Platform,
			Spend:       r.SpendValue(),
			Conversions: r.ConversionsValue(),
			CPA:         r.CPA,
			Efficiency:  Efficiency(r.SpendValue(), r.ConversionsValue()),
		})
	}
	if len(scores) < MinPlatforms {
		return Analysis{}, ErrInsufficientData
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Efficiency > scores[j].Efficiency
	})

	var sum float64
	for _, s := range scores {
		sum += s.Efficiency
	}
	avg := sum / float64(len(scores))
	for i := range scores {
		scores[i].Rating = rate(scores[i].Efficiency, avg)
	}

	analysis := Analysis{Scores: scores, Average: avg}
	if rec, ok := shiftBudget(analysis.Best(), analysis.Worst(), avg); ok {
		analysis.Recommendations = append(analysis.Recommendations, rec)
	}
	for _, s := range scores {
		if s.Spend > ReviewSpendThreshold && s.Conversions == 0 {
			analysis.Recommendations = append(analysis.Recommendations, Recommendation{
				Kind:     KindReviewSpend,
				Platform: s.Platform,
				Amount:   s.Spend,
				Reason:   fmt.Sprintf("%s has %s spend but 0 conversions", s.Platform.DisplayName(), models.FormatMoney(s.Spend)),
			})
		}
	}
	return analysis, nil
}

func shiftBudget(best, worst Score, avg float64) (Recommendation, bool) {
	if !(worst.Efficiency < avg*0.5 && best.Efficiency > avg) {
		return Recommendation{}, false
	}
	amount := math.Round(worst.Spend * ShiftFraction)
	if amount < MinShiftAmount {
		return Recommendation{}, false
	}
	gain := models.RoundTo(amount/best.Spend*best.Conversions, 1)
	gap := (1 - worst.Efficiency/best.Efficiency) * 100
	return Recommendation{
		Kind:          KindShiftBudget,
		From:          worst.Platform,
		To:            best.Platform,
		Amount:        amount,
		ProjectedGain: gain,
		Reason: fmt.Sprintf("%s efficiency (%.1f) is %.0f%% lower than %s",
			worst.Platform.DisplayName(), worst.Efficiency, gap, best.Platform.DisplayName()),
	}, true
}

func rate(efficiency, avg float64) Rating {
	switch {
	case efficiency < avg*0.5:
		return RatingPoor
	case efficiency < avg:
		return RatingFair
	default:
		return RatingGood
	}
}
