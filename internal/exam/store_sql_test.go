package exam

import (
	"context"
	"testing"
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

func TestSQLStoreLifecycle(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()

	e := Exam{
		ID: "ex1", Name: "Tema 1", Type: TypeTheoryTopic, ThemeIDs: []string{"t1"},
		Questions: []QuestionSnapshot{{QuestionID: "q1", ThemeID: "t1", Text: "?", Choices: []string{"a", "b"}, CorrectAnswer: 1}},
		CreatedBy: "u1", CreatedAt: now,
	}
	if err := s.PutExam(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetExam(ctx, "ex1")
	if err != nil || got.Questions[0].CorrectAnswer != 1 || !got.CreatedAt.Equal(now) {
		t.Fatalf("exam = %+v, %v", got, err)
	}
	if _, err := s.GetExam(ctx, "nope"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing exam err = %v", err)
	}
	if err := s.NewAttempt(ctx, Attempt{ID: "a1", ExamID: "nope", UserID: "u1", StartedAt: now}); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("attempt on missing exam err = %v", err)
	}
	if err := s.NewAttempt(ctx, Attempt{ID: "a1", ExamID: "ex1", UserID: "u1", StartedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAnswer(ctx, "a1", "q1", intp(0), now); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAnswer(ctx, "a1", "q1", intp(1), now); err != nil {
		t.Fatal(err)
	}
	a, err := s.GetAttempt(ctx, "a1")
	if err != nil || a.Status != StatusInProgress || a.Answers["q1"] != 1 || a.Score != nil {
		t.Fatalf("attempt = %+v, %v", a, err)
	}

	b := grading.NewScorer().Score(grading.Tally{Correct: 1})
	if err := s.Complete(ctx, "a1", b, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := s.Complete(ctx, "a1", b, now.Add(time.Minute)); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("second complete err = %v", err)
	}
	if err := s.Complete(ctx, "nope", b, now); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("complete missing err = %v", err)
	}
	if err := s.SaveAnswer(ctx, "a1", "q1", nil, now); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("save after complete err = %v", err)
	}

	a, _ = s.GetAttempt(ctx, "a1")
	if a.Status != StatusCompleted || *a.Score != 70 || a.Breakdown == nil || a.FinishedAt == nil {
		t.Fatalf("completed attempt = %+v", a)
	}
	scores, err := s.CompletedScores(ctx, "u1")
	if err != nil || len(scores) != 1 || scores[0] != 70 {
		t.Fatalf("scores = %v, %v", scores, err)
	}
}
