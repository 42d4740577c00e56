package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
)

// POST /api/exams/start  {"exam_id"}
func StartAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			apperr.Write(w, err)
			return
		}
		a, err := svc.Start(r.Context(), p, req.ExamID)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// POST /api/exams/attempts/{attemptID}/answer  {"question_id","selected_answer": int|null}
func SubmitAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var req struct {
			QuestionID     string `json:"question_id"`
			SelectedAnswer *int   `json:"selected_answer"`
		}
		if err := decodeJSON(r, &req); err != nil {
			apperr.Write(w, err)
			return
		}
		if strings.TrimSpace(req.QuestionID) == "" {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "question_id is required"))
			return
		}
		ack, err := svc.SubmitAnswer(r.Context(), p, chi.URLParam(r, "attemptID"), req.QuestionID, req.SelectedAnswer)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ack)
	}
}

// POST /api/exams/attempts/{attemptID}/finish
func FinishAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		res, err := svc.Finish(r.Context(), p, chi.URLParam(r, "attemptID"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /api/exams/attempts/{attemptID}/results
func AttemptResultsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		res, err := svc.Results(r.Context(), p, chi.URLParam(r, "attemptID"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
