package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/db"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	tj, err := json.Marshal(e.ThemeIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exams (id,name,type,theme_ids_json,questions_json,created_by,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Name, string(e.Type), string(tj), string(qj), e.CreatedBy, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	var (
		e       Exam
		typ     string
		tj, qj  string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,type,theme_ids_json,questions_json,created_by,created_at FROM exams WHERE id=$1`, id).
		Scan(&e.ID, &e.Name, &typ, &tj, &qj, &e.CreatedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, errExamNotFound
	}
	if err != nil {
		return Exam{}, fmt.Errorf("load exam: %w", err)
	}
	e.Type = Type(typ)
	e.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(tj), &e.ThemeIDs); err != nil {
		return Exam{}, fmt.Errorf("exam %s themes: %w", id, err)
	}
	if err := json.Unmarshal([]byte(qj), &e.Questions); err != nil {
		return Exam{}, fmt.Errorf("exam %s questions: %w", id, err)
	}
	return e, nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, a Attempt) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, a.ExamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return errExamNotFound
	}
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id,exam_id,user_id,status,started_at) VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.ExamID, a.UserID, string(StatusInProgress), a.StartedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	var (
		a        Attempt
		status   string
		score    sql.NullFloat64
		details  sql.NullString
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id,exam_id,user_id,status,score,details_json,started_at,finished_at FROM attempts WHERE id=$1`, id).
		Scan(&a.ID, &a.ExamID, &a.UserID, &status, &score, &details, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, errAttemptNotFound
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	a.Status = Status(status)
	a.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		a.FinishedAt = &t
	}
	if score.Valid {
		v := score.Float64
		a.Score = &v
	}
	if details.Valid && details.String != "" {
		var b grading.Breakdown
		if err := json.Unmarshal([]byte(details.String), &b); err == nil {
			a.Breakdown = &b
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, selected FROM attempt_answers WHERE attempt_id=$1`, id)
	if err != nil {
		return Attempt{}, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()
	a.Answers = map[string]int{}
	for rows.Next() {
		var (
			qid string
			sel int
		)
		if err := rows.Scan(&qid, &sel); err != nil {
			return Attempt{}, err
		}
		a.Answers[qid] = sel
	}
	return a, rows.Err()
}

// inProgress checks the attempt status inside tx.
func inProgress(ctx context.Context, tx *sql.Tx, attemptID string) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM attempts WHERE id=$1`, attemptID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return errAttemptNotFound
	}
	if err != nil {
		return err
	}
	if Status(status) != StatusInProgress {
		return errAttemptFinished
	}
	return nil
}

func (s *SQLStore) SaveAnswer(ctx context.Context, attemptID, questionID string, selected *int, at time.Time) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := inProgress(ctx, tx, attemptID); err != nil {
			return err
		}
		var err error
		if selected == nil {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM attempt_answers WHERE attempt_id=$1 AND question_id=$2`, attemptID, questionID)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO attempt_answers (attempt_id,question_id,selected,updated_at) VALUES ($1,$2,$3,$4)
				 ON CONFLICT (attempt_id,question_id) DO UPDATE SET selected=excluded.selected, updated_at=excluded.updated_at`,
				attemptID, questionID, *selected, at.Unix())
		}
		if err != nil {
			return fmt.Errorf("save answer: %w", err)
		}
		return nil
	})
}

// Complete moves the attempt to COMPLETED only if it is still IN_PROGRESS.
func (s *SQLStore) Complete(ctx context.Context, attemptID string, b grading.Breakdown, at time.Time) error {
	bj, err := json.Marshal(b)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status=$1, score=$2, details_json=$3, finished_at=$4
		 WHERE id=$5 AND status=$6`,
		string(StatusCompleted), b.FinalScore, string(bj), at.Unix(), attemptID, string(StatusInProgress))
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE id=$1`, attemptID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return errAttemptNotFound
	}
	if err != nil {
		return err
	}
	return errAttemptFinished
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID string, limit int) ([]AttemptSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.exam_id, e.name, e.type, e.questions_json, a.status, a.score, a.started_at, a.finished_at
		 FROM attempts a JOIN exams e ON e.id = a.exam_id
		 WHERE a.user_id=$1
		 ORDER BY a.started_at DESC, a.id
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	out := []AttemptSummary{}
	for rows.Next() {
		var (
			sm       AttemptSummary
			typ, st  string
			qj       string
			score    sql.NullFloat64
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&sm.AttemptID, &sm.ExamID, &sm.ExamName, &typ, &qj, &st, &score, &started, &finished); err != nil {
			return nil, err
		}
		var qs []json.RawMessage
		_ = json.Unmarshal([]byte(qj), &qs)
		sm.ExamType, sm.Status, sm.QuestionCount = Type(typ), Status(st), len(qs)
		sm.StartedAt = time.Unix(started, 0).UTC()
		if score.Valid {
			v := score.Float64
			sm.Score = &v
		}
		if finished.Valid {
			t := time.Unix(finished.Int64, 0).UTC()
			sm.FinishedAt = &t
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) CompletedScores(ctx context.Context, userID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score FROM attempts WHERE user_id=$1 AND status=$2 AND score IS NOT NULL ORDER BY finished_at`,
		userID, string(StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("completed scores: %w", err)
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
