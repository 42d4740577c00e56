package http

import (
	"net/http"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
)

// GET /api/exams/history?limit=50
// Always scoped to the caller.
func HistoryHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), exam.DefaultHistoryLimit)
		list, err := svc.History(r.Context(), p, limit)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
