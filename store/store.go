// Package store persists named JSON documents in the settings directory.
//
// One document per concern (credential record, preferences, song catalog).
// Reads never fail for a missing or corrupt document: callers get an empty
// mapping and carry on. Writes take an advisory exclusive lock so concurrent
// requests cannot truncate each other's output.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mixtape/logger"

	"github.com/gofrs/flock"
)

// Store reads and writes JSON documents under a single directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the settings directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) docPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Read returns the mapping stored under name. A missing document falls back
// to the legacy formats once (migrating them to canonical JSON); a corrupt
// document degrades to an empty mapping.
func (s *Store) Read(name string) map[string]any {
	raw, err := os.ReadFile(s.docPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			if data, ok := s.readLegacy(name); ok {
				// Write-through so legacy paths are never consulted again.
				if werr := s.Write(name, data); werr != nil {
					logger.Error("failed to migrate legacy document",
						logger.String("name", name), logger.ErrorField(werr))
				}
				return data
			}
		}
		return map[string]any{}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		logger.Warn("corrupt document, treating as empty",
			logger.String("name", name), logger.ErrorField(err))
		return map[string]any{}
	}
	return data
}

// Write persists the mapping under name as indented JSON.
func (s *Store) Write(name string, data map[string]any) error {
	return s.WriteDoc(name, data)
}

// ReadDoc unmarshals the document stored under name into v. It reports
// whether a well-formed document was found; a missing or corrupt document
// is not an error.
func (s *Store) ReadDoc(name string, v any) (bool, error) {
	raw, err := os.ReadFile(s.docPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logger.Warn("corrupt document, treating as empty",
			logger.String("name", name), logger.ErrorField(err))
		return false, nil
	}
	return true, nil
}

// WriteDoc persists v under name as indented JSON, holding an advisory
// exclusive lock for the duration of the write.
func (s *Store) WriteDoc(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", name, err)
	}

	path := s.docPath(name)
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock document %s: %w", name, err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	return nil
}
