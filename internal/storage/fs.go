package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// resolve keeps every key inside base.
func (s *FSStore) resolve(key string) (string, string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" {
		return "", "", errors.New("empty key")
	}
	return clean, filepath.Join(s.base, filepath.FromSlash(clean)), nil
}

// Put writes through a temp file so readers never see partial blobs.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	clean, dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".blob-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return clean, nil
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", clean, ErrNotFound)
	}
	return f, err
}
