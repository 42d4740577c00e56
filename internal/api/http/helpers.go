// Package http holds the chi handlers of the public API. Every handler
// reports failures through apperr so clients always get {"detail": "..."}.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.New(apperr.InvalidArgument, "Invalid JSON body")
	}
	return nil
}

// principal is set by the JWT middleware on every authenticated route.
func principal(w http.ResponseWriter, r *http.Request) (rbac.Principal, bool) {
	p, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		apperr.Write(w, apperr.New(apperr.Unauthorized, "Not authenticated"))
	}
	return p, ok
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// parseIntStrict returns def when s is empty and an error when it is not an integer.
func parseIntStrict(s, name string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Newf(apperr.InvalidArgument, "%s must be an integer", name)
	}
	return v, nil
}

func parseFloatStrict(s, name string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.InvalidArgument, "%s must be a number", name)
	}
	return v, nil
}

// GET /api/health
func HealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": service})
	}
}
