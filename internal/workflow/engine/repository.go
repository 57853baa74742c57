package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/tddflow/internal/workflow"
)

// StateStore persists the full record mapping.
type StateStore interface {
	Load() (map[string]workflow.Record, error)
	Save(map[string]workflow.Record) error
}

// Repository stores records as a JSON object keyed by component id.
type Repository struct {
	path string
}

// NewRepository creates a repository backed by the file at path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the state file location.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the state file. A missing file yields an empty mapping. Anything
// that does not decode into valid records is a *workflow.CorruptStateError.
func (r *Repository) Load() (map[string]workflow.Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]workflow.Record{}, nil
		}
		return nil, fmt.Errorf("engine: read state %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, r.corrupt(errors.New("state file is empty"))
	}
	var raw map[string]workflow.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, r.corrupt(err)
	}
	if raw == nil {
		return nil, r.corrupt(errors.New("state file does not hold an object"))
	}
	records := make(map[string]workflow.Record, len(raw))
	for key, rec := range raw {
		if key == "" {
			return nil, r.corrupt(errors.New("record with empty component id"))
		}
		if rec.ID != key {
			return nil, r.corrupt(fmt.Errorf("record %s carries id %q", key, rec.ID))
		}
		if !rec.Gate.Valid() {
			return nil, r.corrupt(fmt.Errorf("record %s has no gate", key))
		}
		records[key] = rec.Normalize()
	}
	return records, nil
}

// Save replaces the state file atomically: the mapping is written to a temp
// file in the same directory, synced, and renamed over the target.
func (r *Repository) Save(records map[string]workflow.Record) error {
	normalized := make(map[string]workflow.Record, len(records))
	for id, rec := range records {
		normalized[id] = rec.Normalize()
	}
	encoded, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: encode state: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("engine: ensure state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("engine: create temp state: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("engine: write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("engine: sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("engine: close state: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("engine: replace state: %w", err)
	}
	committed = true
	return nil
}

func (r *Repository) corrupt(err error) error {
	return &workflow.CorruptStateError{Path: r.path, Err: err}
}
