package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store keeps crawled and translated bodies as markdown files on disk,
// organized by kind/year/month so a directory never accumulates unbounded
// entries. The database stores paths relative to the root.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save writes text under kind/year/month/<id>.md and returns the relative
// path. An existing file for the same id is overwritten.
func (s *Store) Save(kind, id, text string) (string, error) {
	now := time.Now().UTC()
	rel := filepath.Join(kind, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", now.Month()), id+".md")

	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create content directory: %w", err)
	}

	if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write content file: %w", err)
	}

	return rel, nil
}

// Read returns the stored text for a relative path produced by Save.
func (s *Store) Read(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(data), nil
}
