// Package kvstore provides the persistence collaborator for rules and
// bank connections: a small key-value document store with at-least-once
// durability semantics.
package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store persists YAML-serializable documents by key. Put must be
// durable before it returns; Get reports absence without error.
type Store interface {
	// Get unmarshals the value for key into out. It returns false when
	// the key is absent.
	Get(key string, out interface{}) (bool, error)

	// Put durably stores the value under key, replacing any previous one.
	Put(key string, value interface{}) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
}

// FileStore keeps one YAML file per key under a base directory. Writes
// go through a temp file and rename so readers never observe a
// partially written document.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the base directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are simple identifiers; keep them filesystem-safe.
	safe := strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(s.dir, safe+".yaml")
}

func (s *FileStore) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return true, nil
}

func (s *FileStore) Put(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("committing %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
