package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
)

func summaries(sets []catalog.PracticalSet) []catalog.PracticalSetSummary {
	out := make([]catalog.PracticalSetSummary, len(sets))
	for i, ps := range sets {
		out[i] = ps.Summary()
	}
	return out
}

// GET /api/practical-sets?skip=&limit=
func ListPracticalSetsHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sets, err := cat.ListPracticalSets(r.Context(), parseIntDefault(q.Get("skip"), 0), parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries(sets))
	}
}

// POST /api/practical-sets
func CreatePracticalSetHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var in catalog.PracticalSetInput
		if err := decodeJSON(r, &in); err != nil {
			apperr.Write(w, err)
			return
		}
		ps, err := cat.CreatePracticalSet(r.Context(), in, p.UserID)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ps)
	}
}

// GET /api/practical-sets/random/one?theme_ids=a,b
func RandomPracticalSetHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		if raw := r.URL.Query().Get("theme_ids"); raw != "" {
			ids = strings.Split(raw, ",")
		}
		ps, err := cat.RandomPracticalSet(r.Context(), ids)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ps)
	}
}

// GET /api/practical-sets/by-theme/{themeID}
func PracticalSetsByThemeHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sets, err := cat.PracticalSetsByTheme(r.Context(), chi.URLParam(r, "themeID"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries(sets))
	}
}

// GET /api/practical-sets/{setID}
func GetPracticalSetHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := cat.GetPracticalSet(r.Context(), chi.URLParam(r, "setID"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ps)
	}
}

// DELETE /api/practical-sets/{setID}
func DeletePracticalSetHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cat.DeletePracticalSet(r.Context(), chi.URLParam(r, "setID")); err != nil {
			apperr.Write(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
