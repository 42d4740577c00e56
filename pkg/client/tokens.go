package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Session is what a login leaves behind on the client.
type Session struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
}

type TokenStore interface {
	Load() (Session, bool)
	Save(Session) error
	Clear() error
}

type MemoryTokens struct {
	mu sync.RWMutex
	s  *Session
}

func NewMemoryTokens() *MemoryTokens { return &MemoryTokens{} }

func (m *MemoryTokens) Load() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.s == nil {
		return Session{}, false
	}
	return *m.s, true
}

func (m *MemoryTokens) Save(s Session) error {
	m.mu.Lock()
	m.s = &s
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokens) Clear() error {
	m.mu.Lock()
	m.s = nil
	m.mu.Unlock()
	return nil
}

// FileTokens keeps the session in a JSON file readable only by the owner.
type FileTokens struct {
	mu   sync.Mutex
	path string
}

func NewFileTokens(path string) *FileTokens { return &FileTokens{path: path} }

func (f *FileTokens) Load() (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if err != nil {
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil || s.AccessToken == "" {
		return Session{}, false
	}
	return s, true
}

func (f *FileTokens) Save(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileTokens) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
