package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
)

// POST /api/exams/generate  {"name","type","theme_ids","question_count","practical_set_id"?}
func GenerateExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var req exam.GenerateRequest
		if err := decodeJSON(r, &req); err != nil {
			apperr.Write(w, err)
			return
		}
		e, err := svc.Generate(r.Context(), p, req)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e.Summary())
	}
}

// GET /api/exams/{examID}
func GetExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		e, err := svc.GetExam(r.Context(), p, chi.URLParam(r, "examID"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}
