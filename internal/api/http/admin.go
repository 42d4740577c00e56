package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/storage"
	syncx "github.com/adriian-oc/oposiciones-app/internal/sync"
)

const maxEventPage = 500

// GET /api/admin/events?after=0&limit=100  or  ?key=<attempt id>
func EventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if key := strings.TrimSpace(q.Get("key")); key != "" {
			list, err := events.ForKey(r.Context(), key)
			if err != nil {
				apperr.Write(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list)
			return
		}
		after := int64(0)
		if s := q.Get("after"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil || v < 0 {
				apperr.Write(w, apperr.New(apperr.InvalidArgument, "after must be a non-negative integer"))
				return
			}
			after = v
		}
		limit, err := parseIntStrict(q.Get("limit"), "limit", 100)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		if limit < 1 || limit > maxEventPage {
			apperr.Write(w, apperr.Newf(apperr.InvalidArgument, "limit must be between 1 and %d", maxEventPage))
			return
		}
		list, err := events.Since(r.Context(), after, limit)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /api/admin/uploads/{key...} streams an archived bulk upload.
func UploadArchiveHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.Trim(chi.URLParam(r, "*"), "/")
		if key == "" {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "upload key is required"))
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			apperr.Write(w, apperr.New(apperr.NotFound, "Upload not found"))
			return
		}
		if err != nil {
			apperr.Write(w, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/json")
		if _, err := io.Copy(w, rc); err != nil {
			log.Printf("upload archive %s: %v", key, err)
		}
	}
}
