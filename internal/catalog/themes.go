package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
)

//go:embed themes.yaml
var seedThemesYAML []byte

type ThemeInput struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Part  Part   `json:"part"`
	Order int    `json:"order"`
}

const themeCols = `id,code,name,part,sort_order,created_at`

func scanTheme(row scanner) (Theme, error) {
	var (
		t       Theme
		part    string
		created int64
	)
	if err := row.Scan(&t.ID, &t.Code, &t.Name, &part, &t.Order, &created); err != nil {
		return Theme{}, err
	}
	t.Part = Part(part)
	t.CreatedAt = time.Unix(created, 0).UTC()
	return t, nil
}

// ListThemes returns themes ordered by syllabus order; part "" means all.
func (s *Store) ListThemes(ctx context.Context, part Part) ([]Theme, error) {
	q := `SELECT ` + themeCols + ` FROM themes`
	var args []any
	if part != "" {
		if !part.Valid() {
			return nil, apperr.New(apperr.InvalidArgument, "part must be GENERAL or SPECIFIC")
		}
		q += ` WHERE part=$1`
		args = append(args, string(part))
	}
	q += ` ORDER BY sort_order, code`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()
	out := []Theme{}
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTheme(ctx context.Context, id string) (Theme, error) {
	t, err := scanTheme(s.db.QueryRowContext(ctx, `SELECT `+themeCols+` FROM themes WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Theme{}, apperr.New(apperr.NotFound, "Theme not found")
	}
	return t, err
}

// GetThemes loads several themes at once, keyed by id. Unknown ids are skipped.
func (s *Store) GetThemes(ctx context.Context, ids []string) (map[string]Theme, error) {
	ids = dedupe(ids)
	out := make(map[string]Theme, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+themeCols+` FROM themes WHERE id IN (`+placeholders(1, len(ids))+`)`, toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get themes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		out[t.ID] = t
	}
	return out, rows.Err()
}

func (s *Store) GetThemeByCode(ctx context.Context, code string) (Theme, error) {
	t, err := scanTheme(s.db.QueryRowContext(ctx,
		`SELECT `+themeCols+` FROM themes WHERE code=$1`, strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return Theme{}, apperr.Newf(apperr.NotFound, "Theme %s not found", code)
	}
	return t, err
}

func (s *Store) CreateTheme(ctx context.Context, in ThemeInput) (Theme, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return Theme{}, apperr.New(apperr.InvalidArgument, "code and name are required")
	}
	if !in.Part.Valid() {
		return Theme{}, apperr.New(apperr.InvalidArgument, "part must be GENERAL or SPECIFIC")
	}
	if _, err := s.GetThemeByCode(ctx, in.Code); err == nil {
		return Theme{}, apperr.Newf(apperr.Conflict, "Theme code %s already exists", in.Code)
	} else if !apperr.Is(err, apperr.NotFound) {
		return Theme{}, err
	}
	t := Theme{ID: uuid.NewString(), Code: in.Code, Name: in.Name, Part: in.Part, Order: in.Order, CreatedAt: s.now()}
	if err := insertTheme(ctx, s.db, t); err != nil {
		return Theme{}, err
	}
	log.Printf("theme created: %s", t.Code)
	return t, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTheme(ctx context.Context, db execer, t Theme) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO themes (`+themeCols+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Code, t.Name, string(t.Part), t.Order, t.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert theme %s: %w", t.Code, err)
	}
	return nil
}

type seedFile struct {
	General  []string `yaml:"general"`
	Specific []string `yaml:"specific"`
}

// SeedThemes loads the embedded syllabus when the themes table is empty.
func (s *Store) SeedThemes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM themes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count themes: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	var sf seedFile
	if err := yaml.Unmarshal(seedThemesYAML, &sf); err != nil {
		return 0, fmt.Errorf("parse theme seed: %w", err)
	}
	now := s.now()
	var themes []Theme
	for i, name := range sf.General {
		themes = append(themes, Theme{
			ID: uuid.NewString(), Code: fmt.Sprintf("GENERAL_%02d", i+1), Name: name,
			Part: PartGeneral, Order: i + 1, CreatedAt: now,
		})
	}
	for i, name := range sf.Specific {
		themes = append(themes, Theme{
			ID: uuid.NewString(), Code: fmt.Sprintf("SPECIFIC_%02d", i+1), Name: name,
			Part: PartSpecific, Order: len(sf.General) + i + 1, CreatedAt: now,
		})
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	for _, t := range themes {
		if err := insertTheme(ctx, tx, t); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(themes), nil
}
