package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/db"
)

const practicalCols = `p.id,p.title,p.description,p.questions_json,p.created_by,p.created_at`

func validatePracticalSet(in PracticalSetInput) (PracticalSetInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ThemeIDs = dedupe(in.ThemeIDs)
	if in.Title == "" {
		return in, apperr.New(apperr.InvalidArgument, "title is required")
	}
	if len(in.ThemeIDs) == 0 {
		return in, apperr.New(apperr.InvalidArgument, "At least one theme is required")
	}
	if len(in.Questions) != PracticalSetSize {
		return in, apperr.Newf(apperr.InvalidArgument,
			"Practical sets must have exactly %d questions, got %d", PracticalSetSize, len(in.Questions))
	}
	seen := make(map[int]bool, PracticalSetSize)
	for i := range in.Questions {
		q := &in.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Position < 1 || q.Position > PracticalSetSize || seen[q.Position] {
			return in, apperr.Newf(apperr.InvalidArgument,
				"Question positions must be unique and between 1 and %d", PracticalSetSize)
		}
		seen[q.Position] = true
		if q.Text == "" {
			return in, apperr.Newf(apperr.InvalidArgument, "question %d: text is required", q.Position)
		}
		if err := ValidateChoices(q.Choices, q.CorrectAnswer); err != nil {
			return in, apperr.Newf(apperr.InvalidArgument, "question %d: %s", q.Position, err.(*apperr.Error).Detail)
		}
		// ids are server-owned; exam answers are keyed by them
		q.ID = uuid.NewString()
	}
	sort.Slice(in.Questions, func(i, j int) bool { return in.Questions[i].Position < in.Questions[j].Position })
	return in, nil
}

func (s *Store) CreatePracticalSet(ctx context.Context, in PracticalSetInput, createdBy string) (PracticalSet, error) {
	in, err := validatePracticalSet(in)
	if err != nil {
		return PracticalSet{}, err
	}
	qs, _ := json.Marshal(in.Questions)
	ps := PracticalSet{
		ID: uuid.NewString(), Title: in.Title, Description: in.Description,
		ThemeIDs: in.ThemeIDs, Questions: in.Questions, CreatedBy: createdBy, CreatedAt: s.now(),
	}
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, id := range ps.ThemeIDs {
			if err := themeExists(ctx, tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO practical_sets (id,title,description,questions_json,created_by,created_at,active)
			 VALUES ($1,$2,$3,$4,$5,$6,1)`,
			ps.ID, ps.Title, ps.Description, string(qs), ps.CreatedBy, ps.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("insert practical set: %w", err)
		}
		for i, id := range ps.ThemeIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO practical_set_themes (set_id,theme_id,position) VALUES ($1,$2,$3)`,
				ps.ID, id, i); err != nil {
				return fmt.Errorf("link practical set theme: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return PracticalSet{}, err
	}
	return ps, nil
}

func scanPracticalSet(row scanner) (PracticalSet, error) {
	var (
		ps      PracticalSet
		qs      string
		created int64
	)
	if err := row.Scan(&ps.ID, &ps.Title, &ps.Description, &qs, &ps.CreatedBy, &created); err != nil {
		return PracticalSet{}, err
	}
	if err := json.Unmarshal([]byte(qs), &ps.Questions); err != nil {
		return PracticalSet{}, fmt.Errorf("practical set %s questions: %w", ps.ID, err)
	}
	ps.CreatedAt = time.Unix(created, 0).UTC()
	return ps, nil
}

// querySets runs q, drains the rows and then attaches theme ids.
func (s *Store) querySets(ctx context.Context, q string, args ...any) ([]PracticalSet, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query practical sets: %w", err)
	}
	out := []PracticalSet{}
	for rows.Next() {
		ps, err := scanPracticalSet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, ps)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].ThemeIDs, err = s.setThemeIDs(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) setThemeIDs(ctx context.Context, setID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme_id FROM practical_set_themes WHERE set_id=$1 ORDER BY position`, setID)
	if err != nil {
		return nil, fmt.Errorf("practical set themes: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListPracticalSets(ctx context.Context, skip, limit int) ([]PracticalSet, error) {
	if limit <= 0 || limit > maxQuestionLimit {
		limit = defaultQuestionLimit
	}
	if skip < 0 {
		skip = 0
	}
	return s.querySets(ctx,
		`SELECT `+practicalCols+` FROM practical_sets p WHERE p.active=1
		 ORDER BY p.created_at DESC, p.id LIMIT $1 OFFSET $2`, limit, skip)
}

func (s *Store) PracticalSetsByTheme(ctx context.Context, themeID string) ([]PracticalSet, error) {
	return s.querySets(ctx,
		`SELECT `+practicalCols+` FROM practical_sets p
		 JOIN practical_set_themes t ON t.set_id = p.id
		 WHERE p.active=1 AND t.theme_id=$1
		 ORDER BY p.created_at DESC, p.id`, themeID)
}

func (s *Store) GetPracticalSet(ctx context.Context, id string) (PracticalSet, error) {
	sets, err := s.querySets(ctx,
		`SELECT `+practicalCols+` FROM practical_sets p WHERE p.id=$1 AND p.active=1`, id)
	if err != nil {
		return PracticalSet{}, err
	}
	if len(sets) == 0 {
		return PracticalSet{}, apperr.New(apperr.NotFound, "Practical set not found")
	}
	return sets[0], nil
}

// RandomPracticalSet picks an active set touching any of themeIDs, or any
// active set when themeIDs is empty.
func (s *Store) RandomPracticalSet(ctx context.Context, themeIDs []string) (PracticalSet, error) {
	themeIDs = dedupe(themeIDs)
	q := `SELECT ` + practicalCols + ` FROM practical_sets p WHERE p.active=1`
	if len(themeIDs) > 0 {
		q += ` AND p.id IN (SELECT set_id FROM practical_set_themes WHERE theme_id IN (` +
			placeholders(1, len(themeIDs)) + `))`
	}
	q += ` ORDER BY RANDOM() LIMIT 1`
	sets, err := s.querySets(ctx, q, toArgs(themeIDs)...)
	if err != nil {
		return PracticalSet{}, err
	}
	if len(sets) == 0 {
		return PracticalSet{}, apperr.New(apperr.NotFound, "No practical sets available")
	}
	return sets[0], nil
}

func (s *Store) DeletePracticalSet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE practical_sets SET active=0 WHERE id=$1 AND active=1`, id)
	if err != nil {
		return fmt.Errorf("delete practical set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "Practical set not found")
	}
	return nil
}
