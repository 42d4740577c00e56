package client

import (
	"context"
	"log"
	"sync"
)

// AttemptRunner drives one attempt: it keeps the chosen answers locally
// and saves each one as it is picked.
type AttemptRunner struct {
	c         *Client
	attemptID string
	exam      ExamView

	mu       sync.Mutex
	answers  map[string]int
	finished bool
}

func newRunner(c *Client, attemptID string, ev ExamView, answers map[string]int) *AttemptRunner {
	r := &AttemptRunner{c: c, attemptID: attemptID, exam: ev, answers: map[string]int{}}
	for k, v := range answers {
		r.answers[k] = v
	}
	return r
}

// Resume rebuilds a runner for an attempt started earlier.
func (c *Client) Resume(ctx context.Context, attemptID string) (*AttemptRunner, error) {
	res, err := c.Results(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ev, err := c.Exam(ctx, res.ExamID)
	if err != nil {
		return nil, err
	}
	r := newRunner(c, attemptID, ev, res.Answers)
	r.finished = res.Status == StatusCompleted
	return r, nil
}

func (r *AttemptRunner) AttemptID() string { return r.attemptID }
func (r *AttemptRunner) Exam() ExamView    { return r.exam }

func (r *AttemptRunner) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Answers returns a copy of the locally known answers.
func (r *AttemptRunner) Answers() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.answers))
	for k, v := range r.answers {
		out[k] = v
	}
	return out
}

// Select records a choice locally and saves it. A failed save is logged and
// not returned, so the answer only lives on this side until a later save
// or Finish.
func (r *AttemptRunner) Select(ctx context.Context, questionID string, choice int) {
	r.mu.Lock()
	r.answers[questionID] = choice
	r.mu.Unlock()
	r.save(ctx, questionID, &choice)
}

// Clear removes a choice, locally and on the server.
func (r *AttemptRunner) Clear(ctx context.Context, questionID string) {
	r.mu.Lock()
	delete(r.answers, questionID)
	r.mu.Unlock()
	r.save(ctx, questionID, nil)
}

func (r *AttemptRunner) save(ctx context.Context, questionID string, selected *int) {
	if _, err := r.c.SubmitAnswer(ctx, r.attemptID, questionID, selected); err != nil {
		log.Printf("attempt %s: saving answer for %s failed: %v", r.attemptID, questionID, err)
	}
}

// Finish closes the attempt and returns the graded results.
func (r *AttemptRunner) Finish(ctx context.Context) (Results, error) {
	res, err := r.c.FinishAttempt(ctx, r.attemptID)
	if err != nil {
		return Results{}, err
	}
	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	return res, nil
}
