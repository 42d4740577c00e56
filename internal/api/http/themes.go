package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
)

// GET /api/themes?part=GENERAL|SPECIFIC
func ListThemesHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		part := catalog.Part(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("part"))))
		themes, err := cat.ListThemes(r.Context(), part)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, themes)
	}
}

// GET /api/themes/{themeID}
func GetThemeHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.GetTheme(r.Context(), chi.URLParam(r, "themeID"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// POST /api/themes (admin)
func CreateThemeHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.ThemeInput
		if err := decodeJSON(r, &in); err != nil {
			apperr.Write(w, err)
			return
		}
		t, err := cat.CreateTheme(r.Context(), in)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}
