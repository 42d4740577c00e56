package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

// GET /api/users?role=
func ListUsersHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role")))
		if role != "" && !rbac.ValidRole(role) {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "invalid role"))
			return
		}
		list, err := store.List(r.Context(), role)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// PATCH /api/users/{userID}/role  {"role": "admin|curator|student"}
func UpdateUserRoleHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Role string `json:"role"`
		}
		if err := decodeJSON(r, &req); err != nil {
			apperr.Write(w, err)
			return
		}
		id := chi.URLParam(r, "userID")
		if err := store.UpdateRole(r.Context(), id, strings.ToLower(strings.TrimSpace(req.Role))); err != nil {
			apperr.Write(w, err)
			return
		}
		log.Printf("user %s role set to %s", id, req.Role)
		w.WriteHeader(http.StatusNoContent)
	}
}
