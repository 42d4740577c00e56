package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/adriian-oc/oposiciones-app/internal/analytics"
	api "github.com/adriian-oc/oposiciones-app/internal/api/http"
	auth "github.com/adriian-oc/oposiciones-app/internal/auth/middleware"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
	"github.com/adriian-oc/oposiciones-app/internal/storage"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

// newServer starts the full API with two seeded themes holding ten questions.
// Every question's answer key is 1.
func newServer(t *testing.T) (*httptest.Server, []Theme) {
	t.Helper()
	h := dbtest.Open(t)
	ctx := context.Background()
	us := users.NewStore(h)
	us.Cost = bcrypt.MinCost
	cat := catalog.NewStore(h)
	if _, err := cat.SeedThemes(ctx); err != nil {
		t.Fatal(err)
	}
	themes, err := cat.ListThemes(ctx, catalog.PartGeneral)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if _, err := cat.CreateQuestion(ctx, catalog.QuestionInput{
			ThemeID: themes[i%2].ID, Text: fmt.Sprintf("Pregunta %d", i),
			Choices: []string{"a", "b", "c", "d"}, CorrectAnswer: 1,
		}, "seed"); err != nil {
			t.Fatal(err)
		}
	}
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	es := exam.NewSQLStore(h)
	an := analytics.NewService(analytics.NewStore(h), cat, es)
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Auth:      auth.NewAuthService("test-secret", time.Hour, auth.NewSessionStore(h)),
		Users:     us,
		Catalog:   cat,
		Exams:     exam.NewService(es, cat, grading.NewScorer(), exam.WithRecorder(an)),
		Analytics: an,
		Blobs:     blobs,
	}))
	t.Cleanup(srv.Close)
	return srv, themes[:2]
}

func loggedIn(t *testing.T, srv *httptest.Server, tokens TokenStore) *Client {
	t.Helper()
	c := New(Config{BaseURL: srv.URL, Tokens: tokens})
	ctx := context.Background()
	if _, err := c.Register(ctx, RegisterRequest{Email: "ana@example.com", DisplayName: "Ana", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoginStoresSession(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	c := loggedIn(t, srv, NewFileTokens(path))

	u, ok := c.CurrentUser()
	if !ok || u.Email != "ana@example.com" || u.Role != "student" {
		t.Fatalf("current user = %+v %v", u, ok)
	}
	// A second client on the same file picks the session up.
	other := New(Config{BaseURL: srv.URL, Tokens: NewFileTokens(path)})
	if me, err := other.Me(ctx); err != nil || me.ID != u.ID {
		t.Fatalf("shared session: %+v %v", me, err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.CurrentUser(); ok {
		t.Fatal("session kept after logout")
	}
	if _, err := c.Themes(ctx, ""); !IsKind(err, KindUnauthorized) {
		t.Fatalf("after logout: %v", err)
	}
}

func TestErrorDetail(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	c := New(Config{BaseURL: srv.URL})

	_, err := c.Login(ctx, "nobody@example.com", "x")
	e, ok := err.(*Error)
	if !ok || e.Kind != KindUnauthorized || e.Status != 401 || e.Detail == "" {
		t.Fatalf("login error = %#v", err)
	}

	c = loggedIn(t, srv, nil)
	_, err = c.Exam(ctx, "missing")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("missing exam: %v", err)
	}
	_, err = c.StudyPlan(ctx, StudyPlanOptions{MaxThemes: 99})
	if !IsKind(err, KindInvalidArgument) {
		t.Fatalf("study plan bounds: %v", err)
	}
}

func TestFallbackDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(409)
	err := decodeError(rec.Result())
	e := err.(*Error)
	if e.Kind != KindInvalidState || e.Detail != fallbackDetail[KindInvalidState] {
		t.Fatalf("fallback = %+v", e)
	}
}

func TestExamRoundTrip(t *testing.T) {
	srv, themes := newServer(t)
	ctx := context.Background()
	c := loggedIn(t, srv, nil)

	run, err := c.GenerateAndStart(ctx, GenerateRequest{
		Name: "Repaso", Type: TypeTheoryMixed,
		ThemeIDs: []string{themes[0].ID, themes[1].ID}, QuestionCount: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	qs := run.Exam().Questions
	if len(qs) != 10 {
		t.Fatalf("questions = %d", len(qs))
	}
	for i, q := range qs {
		choice := 1
		if i == 0 {
			choice = 3
		}
		run.Select(ctx, q.QuestionID, choice)
	}
	// an unknown question is logged, not returned
	run.Select(ctx, "not-in-exam", 0)

	resumed, err := c.Resume(ctx, run.AttemptID())
	if err != nil {
		t.Fatal(err)
	}
	if got := resumed.Answers(); len(got) != 10 || got[qs[0].QuestionID] != 3 {
		t.Fatalf("resumed answers = %v", got)
	}

	res, err := run.Finish(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score == nil || *res.Score != 61.25 || !*res.Details.Passed {
		t.Fatalf("score = %v", res.Score)
	}
	if _, err := resumed.Finish(ctx); !IsKind(err, KindInvalidState) {
		t.Fatalf("second finish: %v", err)
	}

	hist, err := c.History(ctx, 0)
	if err != nil || len(hist) != 1 || hist[0].Status != StatusCompleted {
		t.Fatalf("history = %+v %v", hist, err)
	}
	stats, err := c.OverallStats(ctx)
	if err != nil || stats.TotalExamsCompleted != 1 || stats.AverageScore != 61.25 {
		t.Fatalf("overall = %+v %v", stats, err)
	}
	fails, err := c.Failures(ctx, "", 0)
	if err != nil || len(fails) != 2 {
		t.Fatalf("failures = %+v %v", fails, err)
	}
	if _, err := c.StudyPlan(ctx, StudyPlanOptions{}); err != nil {
		t.Fatal(err)
	}
}

func TestKindForStatus(t *testing.T) {
	cases := map[int]Kind{
		401: KindUnauthorized, 403: KindForbidden, 404: KindNotFound,
		400: KindInvalidArgument, 409: KindInvalidState, 500: KindInternal,
	}
	for status, want := range cases {
		if got := kindForStatus(status); got != want {
			t.Errorf("kindForStatus(%d) = %s, want %s", status, got, want)
		}
	}
	err := error(&Error{Kind: KindNotFound, Status: 404, Detail: "Exam not found"})
	if !IsKind(err, KindNotFound) || IsKind(err, KindForbidden) {
		t.Fatal("IsKind mismatch")
	}
}
