package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adriian-oc/oposiciones-app/internal/db"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// RecordAttempt stores a failure row per incorrect answer and folds the
// outcomes into the per-theme counters, in one transaction.
func (s *Store) RecordAttempt(ctx context.Context, userID, attemptID string, outcomes []QuestionOutcome) error {
	now := s.now()
	perTheme := map[string]*grading.Tally{}
	var order []string
	for _, o := range outcomes {
		if o.ThemeID == "" {
			continue
		}
		t, ok := perTheme[o.ThemeID]
		if !ok {
			t = &grading.Tally{}
			perTheme[o.ThemeID] = t
			order = append(order, o.ThemeID)
		}
		t.Add(o.Result)
	}

	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, o := range outcomes {
			if o.Result != grading.Incorrect || o.ThemeID == "" {
				continue
			}
			var selected any
			if o.Selected != nil {
				selected = *o.Selected
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO analytics_failures (id,user_id,question_id,theme_id,attempt_id,selected,correct,failed_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				uuid.NewString(), userID, o.QuestionID, o.ThemeID, attemptID, selected, o.Correct, now.Unix()); err != nil {
				return fmt.Errorf("record failure: %w", err)
			}
		}
		for _, themeID := range order {
			if err := upsertStats(ctx, tx, userID, themeID, *perTheme[themeID], now); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertStats adds the tally to the stored counters in a single statement so
// concurrent attempts of one user never overwrite each other, then refreshes
// accuracy from the returned totals while the row is still locked.
func upsertStats(ctx context.Context, tx *sql.Tx, userID, themeID string, add grading.Tally, now time.Time) error {
	var correct, total int
	err := tx.QueryRowContext(ctx,
		`INSERT INTO user_theme_stats (user_id,theme_id,total_attempted,correct,incorrect,unanswered,accuracy_rate,last_updated)
		 VALUES ($1,$2,$3,$4,$5,$6,0,$7)
		 ON CONFLICT (user_id,theme_id) DO UPDATE SET
		   total_attempted = user_theme_stats.total_attempted + excluded.total_attempted,
		   correct = user_theme_stats.correct + excluded.correct,
		   incorrect = user_theme_stats.incorrect + excluded.incorrect,
		   unanswered = user_theme_stats.unanswered + excluded.unanswered,
		   last_updated = excluded.last_updated
		 RETURNING correct, total_attempted`,
		userID, themeID, add.Total(), add.Correct, add.Incorrect, add.Unanswered, now.Unix()).Scan(&correct, &total)
	if err != nil {
		return fmt.Errorf("save theme stats: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE user_theme_stats SET accuracy_rate=$1 WHERE user_id=$2 AND theme_id=$3`,
		accuracy(correct, total), userID, themeID); err != nil {
		return fmt.Errorf("save theme accuracy: %w", err)
	}
	return nil
}

func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return grading.Round2(float64(correct) / float64(total) * 100)
}

// ThemeStats lists a user's per-theme counters, worst accuracy first.
// An empty themeID returns every theme.
func (s *Store) ThemeStats(ctx context.Context, userID, themeID string) ([]ThemeStats, error) {
	q := `SELECT user_id, theme_id, total_attempted, correct, incorrect, unanswered, accuracy_rate, last_updated
	      FROM user_theme_stats WHERE user_id=$1`
	args := []any{userID}
	if themeID != "" {
		q += ` AND theme_id=$2`
		args = append(args, themeID)
	}
	q += ` ORDER BY accuracy_rate, theme_id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("theme stats: %w", err)
	}
	defer rows.Close()
	out := []ThemeStats{}
	for rows.Next() {
		var (
			st      ThemeStats
			updated int64
		)
		if err := rows.Scan(&st.UserID, &st.ThemeID, &st.TotalAttempted, &st.Correct, &st.Incorrect,
			&st.Unanswered, &st.AccuracyRate, &updated); err != nil {
			return nil, err
		}
		st.LastUpdated = time.Unix(updated, 0).UTC()
		out = append(out, st)
	}
	return out, rows.Err()
}

// FailureSummaries aggregates failure rows per theme.
func (s *Store) FailureSummaries(ctx context.Context, userID string) (map[string]FailureSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme_id, COUNT(1), MAX(failed_at) FROM analytics_failures
		 WHERE user_id=$1 GROUP BY theme_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failure summaries: %w", err)
	}
	defer rows.Close()
	out := map[string]FailureSummary{}
	for rows.Next() {
		var (
			themeID string
			n       int
			last    int64
		)
		if err := rows.Scan(&themeID, &n, &last); err != nil {
			return nil, err
		}
		out[themeID] = FailureSummary{Count: n, LastFailedAt: time.Unix(last, 0).UTC()}
	}
	return out, rows.Err()
}
