package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerWildcards(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{RoleAdmin, "anything:at-all", true},
		{RoleCurator, "question:create", true},
		{RoleCurator, "practical_set:delete", true},
		{RoleCurator, "theme:create", false},
		{RoleStudent, "question:create", false},
		{RoleStudent, "attempt:finish", true},
		{"ghost", "theme:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%s,%s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if !ValidRole(RoleCurator) || ValidRole("proctor") {
		t.Fatal("ValidRole mismatch")
	}
}

func TestRequireAny(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAny("question:create", "theme:create")(ok)

	run := func(p *Principal) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := run(nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", code)
	}
	if code := run(&Principal{UserID: "u", Role: RoleStudent}); code != http.StatusForbidden {
		t.Fatalf("student: %d", code)
	}
	if code := run(&Principal{UserID: "u", Role: RoleCurator}); code != http.StatusNoContent {
		t.Fatalf("curator: %d", code)
	}
}

func TestPrincipalCan(t *testing.T) {
	if (Principal{}).Can("theme:view") {
		t.Fatal("empty role must not be allowed")
	}
	if !(Principal{Role: RoleAdmin}).Can("exam:view-all") {
		t.Fatal("admin can view all exams")
	}
	if (Principal{Role: RoleStudent}).Can("exam:view-all") {
		t.Fatal("student cannot view all exams")
	}
}
