package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
)

// GET /api/questions?theme_id=&limit=&skip=
func ListQuestionsHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := cat.ListQuestions(r.Context(), catalog.QuestionFilter{
			ThemeID: strings.TrimSpace(q.Get("theme_id")),
			Limit:   parseIntDefault(q.Get("limit"), 100),
			Skip:    parseIntDefault(q.Get("skip"), 0),
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /api/questions
func CreateQuestionHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var in catalog.QuestionInput
		if err := decodeJSON(r, &in); err != nil {
			apperr.Write(w, err)
			return
		}
		q, err := cat.CreateQuestion(r.Context(), in, p.UserID)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /api/questions/{questionID}
func UpdateQuestionHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.QuestionInput
		if err := decodeJSON(r, &in); err != nil {
			apperr.Write(w, err)
			return
		}
		q, err := cat.UpdateQuestion(r.Context(), chi.URLParam(r, "questionID"), in)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /api/questions/{questionID}
func DeleteQuestionHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cat.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			apperr.Write(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
