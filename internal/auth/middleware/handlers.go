package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

// POST /api/auth/register  {"email","display_name","password"}
func RegisterHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.NewUser
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "bad json"))
			return
		}
		u, err := store.Register(r.Context(), req)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		log.Printf("user registered: %s", u.Email)
		writeJSON(w, http.StatusCreated, u)
	}
}

// POST /api/auth/login  {"email","password"}
func LoginHandler(a *AuthService, store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "bad json"))
			return
		}
		u, err := store.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		tok, err := a.IssueToken(r.Context(), u)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": tok, "token_type": "bearer"})
	}
}

// GET /api/auth/me
func MeHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := store.Get(r.Context(), SubjectFromContext(r.Context()))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// POST /api/auth/logout revokes the session behind the presented token.
func LogoutHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := rbac.PrincipalFromContext(r.Context())
		if err := a.sessions.Revoke(r.Context(), p.SessionID, a.now()); err != nil {
			apperr.Write(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
