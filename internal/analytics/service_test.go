package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

type fakeScores []float64

func (f fakeScores) CompletedScores(context.Context, string) ([]float64, error) { return f, nil }

func intp(v int) *int { return &v }

func outcomes(themeID string, correct, incorrect, unanswered int) []QuestionOutcome {
	var out []QuestionOutcome
	n := 0
	add := func(k int, r grading.Outcome, sel *int) {
		for i := 0; i < k; i++ {
			n++
			out = append(out, QuestionOutcome{QuestionID: themeID + "-q" + string(rune('a'+n)), ThemeID: themeID, Selected: sel, Correct: 1, Result: r})
		}
	}
	add(correct, grading.Correct, intp(1))
	add(incorrect, grading.Incorrect, intp(0))
	add(unanswered, grading.Unanswered, nil)
	return out
}

func setup(t *testing.T, scores fakeScores) (*Service, []catalog.Theme) {
	t.Helper()
	h := dbtest.Open(t)
	cat := catalog.NewStore(h)
	ctx := context.Background()
	if _, err := cat.SeedThemes(ctx); err != nil {
		t.Fatal(err)
	}
	themes, err := cat.ListThemes(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	return NewService(NewStore(h), cat, scores), themes
}

func TestRecordAttemptAccumulates(t *testing.T) {
	svc, themes := setup(t, nil)
	ctx := context.Background()
	th := themes[0].ID

	if err := svc.RecordAttempt(ctx, "u1", "a1", outcomes(th, 2, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordAttempt(ctx, "u1", "a2", outcomes(th, 1, 1, 0)); err != nil {
		t.Fatal(err)
	}
	stats, err := svc.store.ThemeStats(ctx, "u1", th)
	if err != nil || len(stats) != 1 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
	st := stats[0]
	if st.TotalAttempted != 6 || st.Correct != 3 || st.Incorrect != 2 || st.Unanswered != 1 || st.AccuracyRate != 50 {
		t.Fatalf("stats = %+v", st)
	}
	fails, err := svc.store.FailureSummaries(ctx, "u1")
	if err != nil || fails[th].Count != 2 {
		t.Fatalf("failures = %+v, %v", fails, err)
	}
}

func TestRecordAttemptConcurrent(t *testing.T) {
	svc, themes := setup(t, nil)
	ctx := context.Background()
	th := themes[0].ID

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- svc.store.RecordAttempt(ctx, "u1", fmt.Sprintf("a%d", i), outcomes(th, 3, 1, 0))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	stats, err := svc.store.ThemeStats(ctx, "u1", th)
	if err != nil || len(stats) != 1 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
	st := stats[0]
	if st.TotalAttempted != 4*n || st.Correct != 3*n || st.Incorrect != n || st.AccuracyRate != 75 {
		t.Fatalf("stats after concurrent attempts = %+v", st)
	}
}

func TestFailuresAndStudyPlan(t *testing.T) {
	svc, themes := setup(t, nil)
	ctx := context.Background()
	record := func(i, c, inc int) {
		t.Helper()
		if err := svc.RecordAttempt(ctx, "u1", "a", outcomes(themes[i].ID, c, inc, 0)); err != nil {
			t.Fatal(err)
		}
	}
	record(0, 1, 4) // 20%
	record(1, 3, 2) // 60%
	record(2, 9, 1) // 90%
	record(3, 0, 2) // too few attempts

	fa, err := svc.Failures(ctx, "u1", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(fa) != 2 || fa[0].ThemeID != themes[3].ID || fa[1].ThemeID != themes[0].ID {
		t.Fatalf("failures = %+v", fa)
	}
	if fa[1].FailureCount != 4 || fa[1].LastFailedAt == nil || fa[1].ThemeCode != themes[0].Code {
		t.Fatalf("failure entry = %+v", fa[1])
	}
	if _, err := svc.Failures(ctx, "u1", "", 0); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("top=0 err = %v", err)
	}
	only, err := svc.Failures(ctx, "u1", themes[2].ID, DefaultTop)
	if err != nil || len(only) != 1 || only[0].FailureCount != 1 {
		t.Fatalf("filtered = %+v, %v", only, err)
	}

	plan, err := svc.StudyPlan(ctx, "u1", DefaultPlanOptions())
	if err != nil {
		t.Fatal(err)
	}
	if plan.TotalWeakAreas != 2 {
		t.Fatalf("plan = %+v", plan)
	}
	first, second := plan.WeakThemes[0], plan.WeakThemes[1]
	if first.ThemeID != themes[0].ID || first.Priority != 1 || first.RecommendedPracticeCount != 20 {
		t.Fatalf("first = %+v", first)
	}
	if second.ThemeID != themes[1].ID || second.Priority != 2 || second.RecommendedPracticeCount != 10 {
		t.Fatalf("second = %+v", second)
	}
	if _, err := svc.StudyPlan(ctx, "u1", PlanOptions{Threshold: 70, MaxThemes: 25}); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("max_themes=25 err = %v", err)
	}
}

func TestOverall(t *testing.T) {
	svc, themes := setup(t, fakeScores{61.25, 35.5})
	ctx := context.Background()
	if err := svc.RecordAttempt(ctx, "u1", "a1", outcomes(themes[0].ID, 9, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordAttempt(ctx, "u1", "a2", outcomes(themes[1].ID, 1, 3, 1)); err != nil {
		t.Fatal(err)
	}
	st, err := svc.Overall(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalExamsCompleted != 2 || st.BestScore != 61.25 || st.AverageScore != 48.38 {
		t.Fatalf("scores = %+v", st)
	}
	if st.TotalQuestionsAnswered != 15 || st.TotalCorrect != 10 || st.OverallAccuracy != 66.67 {
		t.Fatalf("totals = %+v", st)
	}
	if st.WeakThemesCount != 1 {
		t.Fatalf("weak = %d", st.WeakThemesCount)
	}

	empty, err := NewService(svc.store, svc.themes, fakeScores(nil)).Overall(ctx, "nobody")
	if err != nil || empty.TotalExamsCompleted != 0 || empty.AverageScore != 0 {
		t.Fatalf("empty = %+v, %v", empty, err)
	}
}
