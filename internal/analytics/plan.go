package analytics

import (
	"math"
	"sort"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
)

const (
	DefaultThreshold    = 70.0
	DefaultMaxThemes    = 10
	DefaultMinAttempted = 3
	MaxMaxThemes        = 20
)

type PlanOptions struct {
	Threshold    float64
	MaxThemes    int
	MinAttempted int
}

func DefaultPlanOptions() PlanOptions {
	return PlanOptions{Threshold: DefaultThreshold, MaxThemes: DefaultMaxThemes, MinAttempted: DefaultMinAttempted}
}

func (o PlanOptions) Validate() error {
	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 100 {
		return apperr.New(apperr.InvalidArgument, "threshold must be between 0 and 100")
	}
	if o.MaxThemes < 1 || o.MaxThemes > MaxMaxThemes {
		return apperr.Newf(apperr.InvalidArgument, "max_themes must be between 1 and %d", MaxMaxThemes)
	}
	return nil
}

// RecommendedPractice maps an accuracy percentage to a number of practice questions.
func RecommendedPractice(accuracy float64) int {
	switch {
	case accuracy < 40:
		return 20
	case accuracy < 55:
		return 15
	case accuracy < 70:
		return 10
	default:
		return 5
	}
}

// RankWeakThemes keeps themes below the threshold with enough attempts,
// worst accuracy first, and returns at most MaxThemes of them.
// A MaxThemes of zero or less leaves the result uncapped.
func RankWeakThemes(stats []ThemeStats, failures map[string]FailureSummary, o PlanOptions) []ThemeStats {
	weak := make([]ThemeStats, 0, len(stats))
	for _, s := range stats {
		if s.TotalAttempted >= o.MinAttempted && s.AccuracyRate < o.Threshold {
			weak = append(weak, s)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		a, b := weak[i], weak[j]
		if a.AccuracyRate != b.AccuracyRate {
			return a.AccuracyRate < b.AccuracyRate
		}
		fa, fb := failures[a.ThemeID].Count, failures[b.ThemeID].Count
		if fa != fb {
			return fa > fb
		}
		return a.ThemeID < b.ThemeID
	})
	if o.MaxThemes > 0 && len(weak) > o.MaxThemes {
		weak = weak[:o.MaxThemes]
	}
	return weak
}
