package analytics

import (
	"context"
	"log"
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

const (
	DefaultTop = 10
	MaxTop     = 50
)

// ThemeLookup resolves theme ids to catalog entries.
type ThemeLookup interface {
	GetThemes(ctx context.Context, ids []string) (map[string]catalog.Theme, error)
}

// ScoreSource lists the final scores of a user's completed attempts.
type ScoreSource interface {
	CompletedScores(ctx context.Context, userID string) ([]float64, error)
}

type Service struct {
	store  *Store
	themes ThemeLookup
	scores ScoreSource
	now    func() time.Time
}

func NewService(store *Store, themes ThemeLookup, scores ScoreSource) *Service {
	return &Service{store: store, themes: themes, scores: scores, now: func() time.Time { return time.Now().UTC() }}
}

// RecordAttempt feeds the graded questions of a finished attempt into the
// failure log and per-theme counters.
func (s *Service) RecordAttempt(ctx context.Context, userID, attemptID string, outcomes []QuestionOutcome) error {
	if err := s.store.RecordAttempt(ctx, userID, attemptID, outcomes); err != nil {
		return err
	}
	log.Printf("analytics: recorded attempt %s for user %s (%d questions)", attemptID, userID, len(outcomes))
	return nil
}

// Failures returns per-theme statistics, worst accuracy first.
func (s *Service) Failures(ctx context.Context, userID, themeID string, top int) ([]FailureAnalytics, error) {
	if top < 1 || top > MaxTop {
		return nil, apperr.Newf(apperr.InvalidArgument, "top must be between 1 and %d", MaxTop)
	}
	stats, err := s.store.ThemeStats(ctx, userID, themeID)
	if err != nil {
		return nil, err
	}
	if len(stats) > top {
		stats = stats[:top]
	}
	failures, err := s.store.FailureSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	themes, err := s.themes.GetThemes(ctx, themeIDs(stats))
	if err != nil {
		return nil, err
	}
	out := make([]FailureAnalytics, 0, len(stats))
	for _, st := range stats {
		th, ok := themes[st.ThemeID]
		if !ok {
			continue
		}
		fa := FailureAnalytics{
			ThemeID:       st.ThemeID,
			ThemeName:     th.Name,
			ThemeCode:     th.Code,
			TotalAttempts: st.TotalAttempted,
			AccuracyRate:  st.AccuracyRate,
		}
		if f, ok := failures[st.ThemeID]; ok {
			last := f.LastFailedAt
			fa.FailureCount, fa.LastFailedAt = f.Count, &last
		}
		out = append(out, fa)
	}
	return out, nil
}

// StudyPlan ranks the user's weak themes and attaches a practice recommendation.
func (s *Service) StudyPlan(ctx context.Context, userID string, o PlanOptions) (StudyPlan, error) {
	if err := o.Validate(); err != nil {
		return StudyPlan{}, err
	}
	stats, err := s.store.ThemeStats(ctx, userID, "")
	if err != nil {
		return StudyPlan{}, err
	}
	failures, err := s.store.FailureSummaries(ctx, userID)
	if err != nil {
		return StudyPlan{}, err
	}
	weak := RankWeakThemes(stats, failures, o)
	themes, err := s.themes.GetThemes(ctx, themeIDs(weak))
	if err != nil {
		return StudyPlan{}, err
	}
	plan := StudyPlan{UserID: userID, GeneratedAt: s.now(), Threshold: o.Threshold, WeakThemes: []StudyPlanItem{}}
	for _, st := range weak {
		th, ok := themes[st.ThemeID]
		if !ok {
			continue
		}
		plan.WeakThemes = append(plan.WeakThemes, StudyPlanItem{
			ThemeID:                  st.ThemeID,
			ThemeName:                th.Name,
			ThemeCode:                th.Code,
			Priority:                 len(plan.WeakThemes) + 1,
			FailureCount:             failures[st.ThemeID].Count,
			AccuracyRate:             st.AccuracyRate,
			RecommendedPracticeCount: RecommendedPractice(st.AccuracyRate),
		})
	}
	plan.TotalWeakAreas = len(plan.WeakThemes)
	return plan, nil
}

// Overall summarises every attempt and theme counter of a user.
func (s *Service) Overall(ctx context.Context, userID string) (OverallStats, error) {
	stats, err := s.store.ThemeStats(ctx, userID, "")
	if err != nil {
		return OverallStats{}, err
	}
	out := OverallStats{UserID: userID}
	for _, st := range stats {
		out.TotalQuestionsAnswered += st.TotalAttempted
		out.TotalCorrect += st.Correct
		out.TotalIncorrect += st.Incorrect
		out.TotalUnanswered += st.Unanswered
	}
	out.OverallAccuracy = accuracy(out.TotalCorrect, out.TotalQuestionsAnswered)

	d := DefaultPlanOptions()
	d.MaxThemes = 0
	out.WeakThemesCount = len(RankWeakThemes(stats, nil, d))

	scores, err := s.scores.CompletedScores(ctx, userID)
	if err != nil {
		return OverallStats{}, err
	}
	out.TotalExamsCompleted = len(scores)
	var sum float64
	for i, sc := range scores {
		sum += sc
		if i == 0 || sc > out.BestScore {
			out.BestScore = sc
		}
	}
	if len(scores) > 0 {
		out.AverageScore = grading.Round2(sum / float64(len(scores)))
	}
	out.BestScore = grading.Round2(out.BestScore)
	return out, nil
}

func themeIDs(stats []ThemeStats) []string {
	ids := make([]string, len(stats))
	for i, st := range stats {
		ids[i] = st.ThemeID
	}
	return ids
}
