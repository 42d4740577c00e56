// Package storage archives uploaded files such as question bank imports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadKey names the archived copy of a bulk question upload.
func UploadKey(themeCode, filename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.json"
	}
	code := strings.ToUpper(strings.TrimSpace(themeCode))
	if code == "" {
		code = "UNKNOWN"
	}
	return fmt.Sprintf("uploads/questions/%s/%s/%s-%s", code, at.UTC().Format("2006-01-02"), uuid.NewString()[:8], base)
}
