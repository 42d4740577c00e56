package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/storage"
)

const maxUploadBytes = 10 << 20

// POST /api/questions/upload/bulk  multipart file={"theme_code": "...", "questions": [...]}
// The raw file is archived in the blob store before import.
func BulkUploadQuestionsHandler(cat *catalog.Store, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "file required"))
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "could not read file"))
			return
		}
		var doc catalog.BulkUpload
		if err := json.Unmarshal(raw, &doc); err != nil {
			apperr.Write(w, apperr.New(apperr.InvalidArgument, "Invalid JSON file"))
			return
		}

		var key string
		if bs != nil {
			key, err = bs.Put(r.Context(), storage.UploadKey(doc.ThemeCode, hdr.Filename, time.Now()), bytes.NewReader(raw))
			if err != nil {
				log.Printf("bulk upload: archive %s: %v", hdr.Filename, err)
				key = ""
			}
		}

		n, err := cat.ImportQuestions(r.Context(), doc, p.UserID)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		log.Printf("bulk upload: %d questions into %s by %s", n, doc.ThemeCode, p.UserID)
		writeJSON(w, http.StatusCreated, map[string]any{
			"theme_code":  doc.ThemeCode,
			"created":     n,
			"archive_key": key,
		})
	}
}
