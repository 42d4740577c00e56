// Package exam generates exams from the question bank and runs the attempt
// state machine: IN_PROGRESS -> COMPLETED.
package exam

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adriian-oc/oposiciones-app/internal/analytics"
	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
	syncx "github.com/adriian-oc/oposiciones-app/internal/sync"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 100
	DefaultHistoryLimit  = 50
	MaxHistoryLimit      = 200
)

// QuestionSource supplies questions for new exams.
type QuestionSource interface {
	RandomQuestions(ctx context.Context, themeIDs []string, n int) ([]catalog.Question, error)
	GetPracticalSet(ctx context.Context, id string) (catalog.PracticalSet, error)
	RandomPracticalSet(ctx context.Context, themeIDs []string) (catalog.PracticalSet, error)
}

// ResultRecorder receives the graded questions of every finished attempt.
type ResultRecorder interface {
	RecordAttempt(ctx context.Context, userID, attemptID string, outcomes []analytics.QuestionOutcome) error
}

type EventSink interface {
	Append(ctx context.Context, typ, key string, payload any) error
}

type Service struct {
	store     Store
	questions QuestionSource
	scorer    grading.Scorer
	recorder  ResultRecorder
	events    EventSink
	now       func() time.Time
	locks     keyedMutex
}

type Option func(*Service)

func WithRecorder(r ResultRecorder) Option { return func(s *Service) { s.recorder = r } }
func WithEvents(e EventSink) Option        { return func(s *Service) { s.events = e } }
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, questions QuestionSource, scorer grading.Scorer, opts ...Option) *Service {
	s := &Service{
		store:     store,
		questions: questions,
		scorer:    scorer,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type GenerateRequest struct {
	Name           string   `json:"name"`
	Type           Type     `json:"type"`
	ThemeIDs       []string `json:"theme_ids"`
	QuestionCount  int      `json:"question_count"`
	PracticalSetID string   `json:"practical_set_id,omitempty"`
}

// Generate snapshots questions into a new immutable exam.
func (s *Service) Generate(ctx context.Context, p rbac.Principal, req GenerateRequest) (Exam, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Exam{}, apperr.New(apperr.InvalidArgument, "Exam name is required")
	}
	if !req.Type.Valid() {
		return Exam{}, apperr.New(apperr.InvalidArgument, "type must be THEORY_TOPIC, THEORY_MIXED, PRACTICAL or SIMULACRO")
	}
	themeIDs := uniq(req.ThemeIDs)
	if len(themeIDs) == 0 && !(req.Type == TypePractical && req.PracticalSetID != "") {
		return Exam{}, apperr.New(apperr.InvalidArgument, "At least one theme must be specified")
	}

	var snaps []QuestionSnapshot
	if req.Type == TypePractical {
		ps, err := s.practicalSet(ctx, req.PracticalSetID, themeIDs)
		if err != nil {
			return Exam{}, err
		}
		if len(themeIDs) == 0 {
			themeIDs = ps.ThemeIDs
		}
		snaps = practicalSnapshots(ps)
	} else {
		if req.QuestionCount == 0 {
			req.QuestionCount = DefaultQuestionCount
		}
		if req.QuestionCount < 1 || req.QuestionCount > MaxQuestionCount {
			return Exam{}, apperr.Newf(apperr.InvalidArgument, "question_count must be between 1 and %d", MaxQuestionCount)
		}
		qs, err := s.questions.RandomQuestions(ctx, themeIDs, req.QuestionCount)
		if err != nil {
			return Exam{}, err
		}
		for _, q := range qs {
			snaps = append(snaps, QuestionSnapshot{
				QuestionID: q.ID, ThemeID: q.ThemeID, Text: q.Text,
				Choices: q.Choices, CorrectAnswer: q.CorrectAnswer,
			})
		}
	}

	e := Exam{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Type:      req.Type,
		ThemeIDs:  themeIDs,
		Questions: snaps,
		CreatedBy: p.UserID,
		CreatedAt: s.now(),
	}
	if err := s.store.PutExam(ctx, e); err != nil {
		return Exam{}, err
	}
	log.Printf("exam generated: id=%s type=%s questions=%d by=%s", e.ID, e.Type, len(snaps), p.UserID)
	return e, nil
}

func (s *Service) practicalSet(ctx context.Context, id string, themeIDs []string) (catalog.PracticalSet, error) {
	if id != "" {
		return s.questions.GetPracticalSet(ctx, id)
	}
	return s.questions.RandomPracticalSet(ctx, themeIDs)
}

// practicalSnapshots attributes every question of the set to its first theme.
func practicalSnapshots(ps catalog.PracticalSet) []QuestionSnapshot {
	theme := ""
	if len(ps.ThemeIDs) > 0 {
		theme = ps.ThemeIDs[0]
	}
	out := make([]QuestionSnapshot, len(ps.Questions))
	for i, q := range ps.Questions {
		out[i] = QuestionSnapshot{
			QuestionID: q.ID, ThemeID: theme, Text: q.Text,
			Choices: q.Choices, CorrectAnswer: q.CorrectAnswer,
		}
	}
	return out
}

// GetExam returns the exam without answer keys.
func (s *Service) GetExam(ctx context.Context, p rbac.Principal, id string) (ExamView, error) {
	e, err := s.visibleExam(ctx, p, id)
	if err != nil {
		return ExamView{}, err
	}
	return e.Public(), nil
}

func (s *Service) visibleExam(ctx context.Context, p rbac.Principal, id string) (Exam, error) {
	e, err := s.store.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if e.CreatedBy != p.UserID && !p.Can("exam:view-all") {
		return Exam{}, apperr.New(apperr.Forbidden, "Not authorized")
	}
	return e, nil
}

// Start opens a new attempt on an exam for the caller.
func (s *Service) Start(ctx context.Context, p rbac.Principal, examID string) (StartedAttempt, error) {
	if strings.TrimSpace(examID) == "" {
		return StartedAttempt{}, apperr.New(apperr.InvalidArgument, "exam_id is required")
	}
	e, err := s.visibleExam(ctx, p, examID)
	if err != nil {
		return StartedAttempt{}, err
	}
	a := Attempt{
		ID:        uuid.NewString(),
		ExamID:    e.ID,
		UserID:    p.UserID,
		Status:    StatusInProgress,
		Answers:   map[string]int{},
		StartedAt: s.now(),
	}
	if err := s.store.NewAttempt(ctx, a); err != nil {
		return StartedAttempt{}, err
	}
	s.emit(ctx, syncx.TypeAttemptStarted, a.ID, map[string]string{"exam_id": e.ID, "user_id": p.UserID})
	return StartedAttempt{Attempt: a, Exam: e.Public()}, nil
}

// ownedAttempt loads an attempt the caller may act on.
func (s *Service) ownedAttempt(ctx context.Context, p rbac.Principal, id string, allowAdmin bool) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, id)
	if err != nil {
		return Attempt{}, err
	}
	if a.UserID != p.UserID && !(allowAdmin && p.Can("attempt:view-all")) {
		return Attempt{}, apperr.New(apperr.Forbidden, "Not authorized")
	}
	return a, nil
}

type AnswerAck struct {
	Message        string `json:"message"`
	AttemptID      string `json:"attempt_id"`
	QuestionID     string `json:"question_id"`
	SelectedAnswer *int   `json:"selected_answer"`
}

// SubmitAnswer records or clears (selected == nil) the answer to one question.
func (s *Service) SubmitAnswer(ctx context.Context, p rbac.Principal, attemptID, questionID string, selected *int) (AnswerAck, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	a, err := s.ownedAttempt(ctx, p, attemptID, false)
	if err != nil {
		return AnswerAck{}, err
	}
	if a.Status != StatusInProgress {
		return AnswerAck{}, errAttemptFinished
	}
	e, err := s.store.GetExam(ctx, a.ExamID)
	if err != nil {
		return AnswerAck{}, err
	}
	q, ok := e.question(questionID)
	if !ok {
		return AnswerAck{}, apperr.New(apperr.InvalidArgument, "Question is not part of this exam")
	}
	if selected != nil && (*selected < 0 || *selected >= len(q.Choices)) {
		return AnswerAck{}, apperr.Newf(apperr.InvalidArgument, "selected_answer must be between 0 and %d", len(q.Choices)-1)
	}
	if err := s.store.SaveAnswer(ctx, attemptID, questionID, selected, s.now()); err != nil {
		return AnswerAck{}, err
	}
	s.emit(ctx, syncx.TypeAnswerRecorded, attemptID, map[string]any{"question_id": questionID, "selected": selected})
	return AnswerAck{Message: "Answer recorded", AttemptID: attemptID, QuestionID: questionID, SelectedAnswer: selected}, nil
}

// Finish scores the attempt and completes it. Only the first call succeeds.
func (s *Service) Finish(ctx context.Context, p rbac.Principal, attemptID string) (Results, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	a, err := s.ownedAttempt(ctx, p, attemptID, false)
	if err != nil {
		return Results{}, err
	}
	if a.Status != StatusInProgress {
		return Results{}, errAttemptFinished
	}
	e, err := s.store.GetExam(ctx, a.ExamID)
	if err != nil {
		return Results{}, err
	}

	var tally grading.Tally
	outcomes := make([]analytics.QuestionOutcome, 0, len(e.Questions))
	for _, q := range e.Questions {
		sel := selectedFor(a, q.QuestionID)
		o := grading.Classify(sel, q.CorrectAnswer)
		tally.Add(o)
		outcomes = append(outcomes, analytics.QuestionOutcome{
			QuestionID: q.QuestionID, ThemeID: q.ThemeID, Selected: sel, Correct: q.CorrectAnswer, Result: o,
		})
	}
	b := s.scorer.Score(tally)
	at := s.now()
	if err := s.store.Complete(ctx, attemptID, b, at); err != nil {
		return Results{}, err
	}
	score := b.FinalScore
	a.Status, a.Score, a.Breakdown, a.FinishedAt = StatusCompleted, &score, &b, &at

	if s.recorder != nil {
		if err := s.recorder.RecordAttempt(ctx, a.UserID, a.ID, outcomes); err != nil {
			log.Printf("exam: analytics for attempt %s: %v", a.ID, err)
		}
	}
	s.emit(ctx, syncx.TypeAttemptFinished, a.ID, b)
	log.Printf("attempt finished: id=%s user=%s score=%.2f/%.0f", a.ID, a.UserID, b.FinalScore, b.MaxScore)
	return s.results(a, e), nil
}

// Results returns per-question detail; correctness and score stay nil until COMPLETED.
func (s *Service) Results(ctx context.Context, p rbac.Principal, attemptID string) (Results, error) {
	a, err := s.ownedAttempt(ctx, p, attemptID, true)
	if err != nil {
		return Results{}, err
	}
	e, err := s.store.GetExam(ctx, a.ExamID)
	if err != nil {
		return Results{}, err
	}
	return s.results(a, e), nil
}

func (s *Service) results(a Attempt, e Exam) Results {
	completed := a.Status == StatusCompleted
	d := Details{
		TotalQuestions: len(e.Questions),
		Answered:       len(a.Answers),
		MaxScore:       s.scorer.MaxScore(),
		Results:        make([]QuestionResult, len(e.Questions)),
	}
	for i, q := range e.Questions {
		r := QuestionResult{
			QuestionID: q.QuestionID, ThemeID: q.ThemeID,
			QuestionText: q.Text, Choices: q.Choices,
			SelectedAnswer: selectedFor(a, q.QuestionID),
		}
		if completed {
			correct := q.CorrectAnswer
			o := grading.Classify(r.SelectedAnswer, correct)
			isCorrect := o == grading.Correct
			r.CorrectAnswer, r.IsCorrect, r.Status = &correct, &isCorrect, &o
		}
		d.Results[i] = r
	}
	if completed && a.Breakdown != nil {
		b := *a.Breakdown
		d.Correct, d.Incorrect, d.Unanswered = &b.Correct, &b.Incorrect, &b.Unanswered
		d.RawScore, d.FinalScore, d.Passed = &b.RawScore, &b.FinalScore, &b.Passed
		d.MaxScore, d.PassScore = b.MaxScore, b.PassScore
	} else {
		d.PassScore = s.scorer.Score(grading.Tally{}).PassScore
	}
	return Results{Attempt: a, ExamName: e.Name, ExamType: e.Type, Details: d}
}

// History lists the caller's attempts, newest first.
func (s *Service) History(ctx context.Context, p rbac.Principal, limit int) ([]AttemptSummary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.store.ListAttempts(ctx, p.UserID, limit)
}

func (s *Service) emit(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, payload); err != nil {
		log.Printf("exam: event %s for %s: %v", typ, key, err)
	}
}

func selectedFor(a Attempt, questionID string) *int {
	v, ok := a.Answers[questionID]
	if !ok {
		return nil
	}
	return &v
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
