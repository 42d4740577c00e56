package users

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/db/dbtest"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
)

func newStore(t *testing.T) *Store {
	s := NewStore(dbtest.Open(t))
	s.Cost = bcrypt.MinCost
	return s
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u, err := s.Register(ctx, NewUser{Email: " Ana@Example.com ", DisplayName: "Ana", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != rbac.RoleStudent || u.Email != "ana@example.com" {
		t.Fatalf("user = %+v", u)
	}

	if _, err := s.Register(ctx, NewUser{Email: "ana@example.com", DisplayName: "Ana", Password: "secret1"}); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("duplicate email err = %v", err)
	}

	got, err := s.Authenticate(ctx, "ANA@example.com", "secret1")
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate: %v %+v", err, got)
	}
	if _, err := s.Authenticate(ctx, "ana@example.com", "wrong"); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@example.com", "secret1"); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("unknown email err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	bad := []NewUser{
		{Email: "not-an-email", DisplayName: "x", Password: "secret1"},
		{Email: "a@b.com", DisplayName: " ", Password: "secret1"},
		{Email: "a@b.com", DisplayName: "x", Password: "123"},
	}
	for _, in := range bad {
		if _, err := s.Register(ctx, in); !apperr.Is(err, apperr.InvalidArgument) {
			t.Errorf("%+v: err = %v", in, err)
		}
	}
}

func TestUpdateRoleGuardsLastAdmin(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created, err := s.EnsureAdmin(ctx, "root@example.com", "rootpass")
	if err != nil || !created {
		t.Fatalf("ensure admin: %v %v", created, err)
	}
	again, err := s.EnsureAdmin(ctx, "root@example.com", "rootpass")
	if err != nil || again {
		t.Fatalf("second ensure admin: %v %v", again, err)
	}
	admins, err := s.List(ctx, rbac.RoleAdmin)
	if err != nil || len(admins) != 1 {
		t.Fatalf("admins = %v %v", admins, err)
	}

	if err := s.UpdateRole(ctx, admins[0].ID, rbac.RoleStudent); !apperr.Is(err, apperr.InvalidState) {
		t.Fatalf("demote last admin err = %v", err)
	}

	u, _ := s.Register(ctx, NewUser{Email: "cur@example.com", DisplayName: "Cur", Password: "secret1"})
	if err := s.UpdateRole(ctx, u.ID, "proctor"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("invalid role err = %v", err)
	}
	if err := s.UpdateRole(ctx, u.ID, "CURATOR"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	got, _ := s.Get(ctx, u.ID)
	if got.Role != rbac.RoleCurator {
		t.Fatalf("role = %s", got.Role)
	}
	if _, err := s.Get(ctx, "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}
