package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/adriian-oc/oposiciones-app/internal/db"
	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
)

func TestOpenCreatesSchema(t *testing.T) {
	h := dbtest.Open(t)
	for _, table := range []string{"users", "sessions", "themes", "questions", "practical_sets",
		"exams", "attempts", "attempt_answers", "analytics_failures", "user_theme_stats", "event_log"} {
		var name string
		err := h.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=$1`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := db.Open(context.Background(), db.Driver("oracle"), ""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	h := dbtest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, h, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO themes (id,code,name,part,sort_order,created_at) VALUES ('t1','C1','n','GENERAL',1,0)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	var n int
	if err := h.QueryRow(`SELECT COUNT(1) FROM themes`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rollback expected, found %d rows", n)
	}

	if err := db.WithTx(ctx, h, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO themes (id,code,name,part,sort_order,created_at) VALUES ('t1','C1','n','GENERAL',1,0)`)
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if err := h.QueryRow(`SELECT COUNT(1) FROM themes`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("commit expected, found %d rows", n)
	}
}
