package rbac

import (
	"net/http"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return RequireAny(perm)
}

// RequireAny enforces that the caller's role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				apperr.Write(w, apperr.New(apperr.Unauthorized, "Not authenticated"))
				return
			}
			if !defaultChecker.Any(p.Role, perms...) {
				apperr.Write(w, apperr.New(apperr.Forbidden, "Not enough permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
