package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

func setup(t *testing.T) (*AuthService, *users.Store, users.User) {
	t.Helper()
	h := dbtest.Open(t)
	us := users.NewStore(h)
	us.Cost = bcrypt.MinCost
	u, err := us.Register(context.Background(), users.NewUser{Email: "ana@example.com", DisplayName: "Ana", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService("test-secret", time.Hour, NewSessionStore(h)), us, u
}

func TestJWTMiddlewareAttachesPrincipal(t *testing.T) {
	a, us, u := setup(t)
	tok, err := a.IssueToken(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	mw := JWTMiddleware(a, us)

	var got rbac.Principal
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = rbac.PrincipalFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.UserID != u.ID || got.Role != rbac.RoleStudent || got.SessionID == "" {
		t.Fatalf("principal = %+v", got)
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	a, us, u := setup(t)
	ctx := context.Background()
	mw := JWTMiddleware(a, us)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	status := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		mw(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	if c := status(""); c != http.StatusUnauthorized {
		t.Fatalf("missing bearer: %d", c)
	}
	if c := status("garbage"); c != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", c)
	}

	other := NewAuthService("other-secret", time.Hour, a.sessions)
	forged, _ := other.IssueToken(ctx, u)
	if c := status(forged); c != http.StatusUnauthorized {
		t.Fatalf("wrong key: %d", c)
	}

	tok, _ := a.IssueToken(ctx, u)
	if c := status(tok); c != http.StatusOK {
		t.Fatalf("valid token: %d", c)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.sessions.Revoke(ctx, claims.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if c := status(tok); c != http.StatusUnauthorized {
		t.Fatalf("revoked token: %d", c)
	}
}

func TestExpiredToken(t *testing.T) {
	a, us, u := setup(t)
	past := time.Now().Add(-2 * time.Hour)
	a.now = func() time.Time { return past }
	tok, err := a.IssueToken(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	a.now = time.Now

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	JWTMiddleware(a, us)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: %d", rec.Code)
	}
}
