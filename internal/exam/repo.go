package exam

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

// Store persists exams and attempts. SaveAnswer and Complete only act on
// attempts still IN_PROGRESS and report InvalidState otherwise.
type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error) // includes answer keys
	NewAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	SaveAnswer(ctx context.Context, attemptID, questionID string, selected *int, at time.Time) error
	Complete(ctx context.Context, attemptID string, b grading.Breakdown, at time.Time) error
	ListAttempts(ctx context.Context, userID string, limit int) ([]AttemptSummary, error)
	CompletedScores(ctx context.Context, userID string) ([]float64, error)
}

var (
	errExamNotFound    = apperr.New(apperr.NotFound, "Exam not found")
	errAttemptNotFound = apperr.New(apperr.NotFound, "Attempt not found")
	errAttemptFinished = apperr.New(apperr.InvalidState, "Attempt already finished")
)

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	attempts map[string]Attempt
}

// NewInMemoryStore keeps everything in process memory; used in tests and offline demos.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, errExamNotFound
	}
	return e, nil
}

func (m *memoryStore) NewAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[a.ExamID]; !ok {
		return errExamNotFound
	}
	a.Answers = copyAnswers(a.Answers)
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, errAttemptNotFound
	}
	a.Answers = copyAnswers(a.Answers)
	return a, nil
}

func (m *memoryStore) SaveAnswer(_ context.Context, attemptID, questionID string, selected *int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return errAttemptNotFound
	}
	if a.Status != StatusInProgress {
		return errAttemptFinished
	}
	if selected == nil {
		delete(a.Answers, questionID)
	} else {
		a.Answers[questionID] = *selected
	}
	m.attempts[attemptID] = a
	return nil
}

func (m *memoryStore) Complete(_ context.Context, attemptID string, b grading.Breakdown, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return errAttemptNotFound
	}
	if a.Status != StatusInProgress {
		return errAttemptFinished
	}
	score := b.FinalScore
	a.Status, a.Score, a.Breakdown, a.FinishedAt = StatusCompleted, &score, &b, &at
	m.attempts[attemptID] = a
	return nil
}

func (m *memoryStore) ListAttempts(_ context.Context, userID string, limit int) ([]AttemptSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []AttemptSummary{}
	for _, a := range m.attempts {
		if a.UserID != userID {
			continue
		}
		e := m.exams[a.ExamID]
		out = append(out, AttemptSummary{
			AttemptID: a.ID, ExamID: a.ExamID, ExamName: e.Name, ExamType: e.Type,
			Status: a.Status, QuestionCount: len(e.Questions), Score: a.Score,
			StartedAt: a.StartedAt, FinishedAt: a.FinishedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].AttemptID < out[j].AttemptID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) CompletedScores(_ context.Context, userID string) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []float64
	for _, a := range m.attempts {
		if a.UserID == userID && a.Status == StatusCompleted && a.Score != nil {
			out = append(out, *a.Score)
		}
	}
	return out, nil
}

func copyAnswers(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
