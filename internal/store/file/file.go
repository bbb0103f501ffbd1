// Package file persists the event sequence as a single JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

// Store writes the full event sequence to one JSON file. Writes go through a
// temp file and rename so readers never observe a partial document.
type Store struct {
	path string
}

// New creates a file store at the given path, ensuring the parent directory
// exists.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Load reads the persisted sequence. A missing file yields an empty sequence
// and no error; a malformed file yields an error.
func (s *Store) Load(ctx context.Context) ([]model.Event, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode event log %s: %w", s.path, err)
	}
	return events, nil
}

// Save writes the full sequence atomically.
func (s *Store) Save(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode event log: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace event log: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
