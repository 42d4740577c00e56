package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFSStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key, err := s.Put(ctx, "../../escape/../uploads/a.json", strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if key != "uploads/a.json" {
		t.Fatalf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads", "a.json")); err != nil {
		t.Fatalf("blob not under base: %v", err)
	}
	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != `{"ok":true}` {
		t.Fatalf("content = %s", b)
	}
	if _, err := s.Get(ctx, "uploads/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing blob err = %v", err)
	}
	if _, err := s.Put(ctx, "/", strings.NewReader("x")); err == nil {
		t.Fatal("empty key accepted")
	}
}

func TestUploadKey(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	k := UploadKey("general_01", `C:\tmp\preguntas.json`, at)
	if !strings.HasPrefix(k, "uploads/questions/GENERAL_01/2025-03-04/") || !strings.HasSuffix(k, "-preguntas.json") {
		t.Fatalf("key = %q", k)
	}
}
