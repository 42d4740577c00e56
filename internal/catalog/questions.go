package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/db"
)

const (
	defaultQuestionLimit = 100
	maxQuestionLimit     = 500
)

var difficulties = map[string]bool{"": true, "EASY": true, "MEDIUM": true, "HARD": true}

const questionCols = `id,theme_id,text,choices_json,correct_answer,difficulty,tags_json,created_by,created_at,updated_at`

func scanQuestion(row scanner) (Question, error) {
	var (
		q                Question
		choices, tags    string
		created, updated int64
	)
	if err := row.Scan(&q.ID, &q.ThemeID, &q.Text, &choices, &q.CorrectAnswer, &q.Difficulty,
		&tags, &q.CreatedBy, &created, &updated); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
		return Question{}, fmt.Errorf("question %s choices: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil || q.Tags == nil {
		q.Tags = []string{}
	}
	q.CreatedAt = time.Unix(created, 0).UTC()
	q.UpdatedAt = time.Unix(updated, 0).UTC()
	return q, nil
}

// ValidateChoices checks a choice list and its answer index.
func ValidateChoices(choices []string, correct int) error {
	if len(choices) < 2 {
		return apperr.New(apperr.InvalidArgument, "A question needs at least 2 choices")
	}
	for _, c := range choices {
		if strings.TrimSpace(c) == "" {
			return apperr.New(apperr.InvalidArgument, "Choices cannot be empty")
		}
	}
	if correct < 0 || correct >= len(choices) {
		return apperr.Newf(apperr.InvalidArgument, "correct_answer must be between 0 and %d", len(choices)-1)
	}
	return nil
}

func normalizeQuestion(in QuestionInput) (QuestionInput, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Difficulty = strings.ToUpper(strings.TrimSpace(in.Difficulty))
	if in.Text == "" {
		return in, apperr.New(apperr.InvalidArgument, "Question text is required")
	}
	if err := ValidateChoices(in.Choices, in.CorrectAnswer); err != nil {
		return in, err
	}
	if !difficulties[in.Difficulty] {
		return in, apperr.New(apperr.InvalidArgument, "difficulty must be EASY, MEDIUM or HARD")
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return in, nil
}

type querier interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func themeExists(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM themes WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "Theme not found")
	}
	return err
}

func insertQuestion(ctx context.Context, q querier, in QuestionInput, by string, now time.Time) (Question, error) {
	in, err := normalizeQuestion(in)
	if err != nil {
		return Question{}, err
	}
	if err := themeExists(ctx, q, in.ThemeID); err != nil {
		return Question{}, err
	}
	choices, _ := json.Marshal(in.Choices)
	tags, _ := json.Marshal(in.Tags)
	out := Question{
		ID: uuid.NewString(), ThemeID: in.ThemeID, Text: in.Text, Choices: in.Choices,
		CorrectAnswer: in.CorrectAnswer, Difficulty: in.Difficulty, Tags: in.Tags,
		CreatedBy: by, CreatedAt: now, UpdatedAt: now,
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO questions (`+questionCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		out.ID, out.ThemeID, out.Text, string(choices), out.CorrectAnswer, out.Difficulty,
		string(tags), out.CreatedBy, now.Unix(), now.Unix())
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return out, nil
}

func (s *Store) CreateQuestion(ctx context.Context, in QuestionInput, createdBy string) (Question, error) {
	return insertQuestion(ctx, s.db, in, createdBy, s.now())
}

func (s *Store) GetQuestion(ctx context.Context, id string) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id=$1 AND active=1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, apperr.New(apperr.NotFound, "Question not found")
	}
	return q, err
}

// ListQuestions pages over active questions, newest first.
func (s *Store) ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	if f.Limit <= 0 {
		f.Limit = defaultQuestionLimit
	}
	if f.Limit > maxQuestionLimit {
		f.Limit = maxQuestionLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	q := `SELECT ` + questionCols + ` FROM questions WHERE active=1`
	args := []any{}
	if f.ThemeID != "" {
		args = append(args, f.ThemeID)
		q += fmt.Sprintf(` AND theme_id=$%d`, len(args))
	}
	args = append(args, f.Limit, f.Skip)
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		qq, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	return out, rows.Err()
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (Question, error) {
	cur, err := s.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if in.ThemeID == "" {
		in.ThemeID = cur.ThemeID
	}
	in, err = normalizeQuestion(in)
	if err != nil {
		return Question{}, err
	}
	if in.ThemeID != cur.ThemeID {
		if err := themeExists(ctx, s.db, in.ThemeID); err != nil {
			return Question{}, err
		}
	}
	choices, _ := json.Marshal(in.Choices)
	tags, _ := json.Marshal(in.Tags)
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET theme_id=$1,text=$2,choices_json=$3,correct_answer=$4,difficulty=$5,tags_json=$6,updated_at=$7
		 WHERE id=$8 AND active=1`,
		in.ThemeID, in.Text, string(choices), in.CorrectAnswer, in.Difficulty, string(tags), now.Unix(), id)
	if err != nil {
		return Question{}, fmt.Errorf("update question: %w", err)
	}
	cur.ThemeID, cur.Text, cur.Choices, cur.CorrectAnswer = in.ThemeID, in.Text, in.Choices, in.CorrectAnswer
	cur.Difficulty, cur.Tags, cur.UpdatedAt = in.Difficulty, in.Tags, now
	return cur, nil
}

// DeleteQuestion deactivates a question. Existing exams keep their snapshot.
func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET active=0, updated_at=$1 WHERE id=$2 AND active=1`, s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "Question not found")
	}
	return nil
}

// BulkUpload is the document accepted by the bulk question import.
type BulkUpload struct {
	ThemeCode string          `json:"theme_code"`
	Questions []QuestionInput `json:"questions"`
}

// ImportQuestions inserts every question of doc under its theme, all or nothing.
func (s *Store) ImportQuestions(ctx context.Context, doc BulkUpload, createdBy string) (int, error) {
	if strings.TrimSpace(doc.ThemeCode) == "" {
		return 0, apperr.New(apperr.InvalidArgument, "theme_code is required")
	}
	if len(doc.Questions) == 0 {
		return 0, apperr.New(apperr.InvalidArgument, "No questions in file")
	}
	theme, err := s.GetThemeByCode(ctx, doc.ThemeCode)
	if err != nil {
		return 0, err
	}
	now := s.now()
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for i, in := range doc.Questions {
			in.ThemeID = theme.ID
			if _, err := insertQuestion(ctx, tx, in, createdBy, now); err != nil {
				var e *apperr.Error
				if errors.As(err, &e) && e.Kind == apperr.InvalidArgument {
					return apperr.Newf(apperr.InvalidArgument, "question %d: %s", i+1, e.Detail)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(doc.Questions), nil
}

// RandomQuestions draws n distinct active questions from the given themes.
func (s *Store) RandomQuestions(ctx context.Context, themeIDs []string, n int) ([]Question, error) {
	themeIDs = dedupe(themeIDs)
	if len(themeIDs) == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "At least one theme is required")
	}
	if n <= 0 {
		return nil, apperr.New(apperr.InvalidArgument, "question_count must be positive")
	}
	args := toArgs(themeIDs)
	args = append(args, n)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions
		 WHERE active=1 AND theme_id IN (`+placeholders(1, len(themeIDs))+`)
		 ORDER BY RANDOM() LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("random questions: %w", err)
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, apperr.Newf(apperr.InvalidArgument,
			"Not enough questions available. Found %d, requested %d", len(out), n)
	}
	return out, nil
}
