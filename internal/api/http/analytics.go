package http

import (
	"net/http"
	"strings"

	"github.com/adriian-oc/oposiciones-app/internal/analytics"
	"github.com/adriian-oc/oposiciones-app/internal/apperr"
)

// GET /api/analytics/failures?theme_id=&top=10
func FailuresHandler(svc *analytics.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		top, err := parseIntStrict(q.Get("top"), "top", analytics.DefaultTop)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		out, err := svc.Failures(r.Context(), p.UserID, strings.TrimSpace(q.Get("theme_id")), top)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/analytics/study-plan?threshold=70&max_themes=10
func StudyPlanHandler(svc *analytics.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		o := analytics.DefaultPlanOptions()
		var err error
		if o.Threshold, err = parseFloatStrict(q.Get("threshold"), "threshold", o.Threshold); err != nil {
			apperr.Write(w, err)
			return
		}
		if o.MaxThemes, err = parseIntStrict(q.Get("max_themes"), "max_themes", o.MaxThemes); err != nil {
			apperr.Write(w, err)
			return
		}
		plan, err := svc.StudyPlan(r.Context(), p.UserID, o)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

// GET /api/analytics/overall-stats
func OverallStatsHandler(svc *analytics.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		st, err := svc.Overall(r.Context(), p.UserID)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
