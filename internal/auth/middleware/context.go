package auth

import (
	"context"

	"github.com/adriian-oc/oposiciones-app/internal/rbac"
)

// SubjectFromContext returns the authenticated user id, or "".
func SubjectFromContext(ctx context.Context) string {
	p, _ := rbac.PrincipalFromContext(ctx)
	return p.UserID
}
