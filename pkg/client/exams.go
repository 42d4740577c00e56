package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) GenerateExam(ctx context.Context, req GenerateRequest) (ExamSummary, error) {
	var out ExamSummary
	err := c.do(ctx, http.MethodPost, "/api/exams/generate", nil, req, &out)
	return out, err
}

func (c *Client) Exam(ctx context.Context, id string) (ExamView, error) {
	var out ExamView
	err := c.do(ctx, http.MethodGet, "/api/exams/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) StartAttempt(ctx context.Context, examID string) (StartedAttempt, error) {
	var out StartedAttempt
	err := c.do(ctx, http.MethodPost, "/api/exams/start", nil, map[string]string{"exam_id": examID}, &out)
	return out, err
}

// GenerateAndStart generates an exam and opens an attempt on it.
func (c *Client) GenerateAndStart(ctx context.Context, req GenerateRequest) (*AttemptRunner, error) {
	sum, err := c.GenerateExam(ctx, req)
	if err != nil {
		return nil, err
	}
	a, err := c.StartAttempt(ctx, sum.ID)
	if err != nil {
		return nil, err
	}
	return newRunner(c, a.Attempt.ID, a.Exam, a.Answers), nil
}

// SubmitAnswer records one answer; a nil selection clears it.
func (c *Client) SubmitAnswer(ctx context.Context, attemptID, questionID string, selected *int) (AnswerAck, error) {
	in := struct {
		QuestionID     string `json:"question_id"`
		SelectedAnswer *int   `json:"selected_answer"`
	}{questionID, selected}
	var ack AnswerAck
	err := c.do(ctx, http.MethodPost, "/api/exams/attempts/"+url.PathEscape(attemptID)+"/answer", nil, in, &ack)
	return ack, err
}

func (c *Client) FinishAttempt(ctx context.Context, attemptID string) (Results, error) {
	var out Results
	err := c.do(ctx, http.MethodPost, "/api/exams/attempts/"+url.PathEscape(attemptID)+"/finish", nil, nil, &out)
	return out, err
}

func (c *Client) Results(ctx context.Context, attemptID string) (Results, error) {
	var out Results
	err := c.do(ctx, http.MethodGet, "/api/exams/attempts/"+url.PathEscape(attemptID)+"/results", nil, nil, &out)
	return out, err
}

// History lists the caller's attempts, newest first. limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]AttemptSummary, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []AttemptSummary
	err := c.do(ctx, http.MethodGet, "/api/exams/history", q, nil, &out)
	return out, err
}
