package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStorage persists the access token between runs. Get returns "" when
// nothing is stored.
type TokenStorage interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// FileStorage keeps the token in a single file readable only by its owner.
type FileStorage struct {
	Path string
}

// Get returns the stored token.
func (f FileStorage) Get() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Set writes the token, creating the parent directory if needed.
func (f FileStorage) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (f FileStorage) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// MemoryStorage keeps the token in memory.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStorage) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Set(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// WithOverride returns a storage whose Get prefers token (e.g. from an
// environment variable) over what base holds. Set and Clear drop the
// override and go to base.
func WithOverride(base TokenStorage, token string) TokenStorage {
	if token == "" {
		return base
	}
	return &overrideStorage{base: base, token: token}
}

type overrideStorage struct {
	base TokenStorage

	mu    sync.Mutex
	token string
}

func (o *overrideStorage) Get() (string, error) {
	o.mu.Lock()
	tok := o.token
	o.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	return o.base.Get()
}

func (o *overrideStorage) Set(token string) error {
	o.mu.Lock()
	o.token = ""
	o.mu.Unlock()
	return o.base.Set(token)
}

func (o *overrideStorage) Clear() error {
	o.mu.Lock()
	o.token = ""
	o.mu.Unlock()
	return o.base.Clear()
}
