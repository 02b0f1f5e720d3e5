package store

// Legacy serialization formats, kept fully isolated from the canonical JSON
// path so they can be deleted once no installation carries them. Migration is
// one-directional: once canonical JSON exists these readers are never
// consulted again for that document.

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"os"
	"path/filepath"

	"mixtape/logger"
)

// readLegacy attempts the older serialization formats for name, in fixed
// order: a base64-encoded gob blob (as carried inside old shim files), then a
// raw gob blob in a sibling file.
func (s *Store) readLegacy(name string) (map[string]any, bool) {
	if data, ok := s.readLegacyBase64(name); ok {
		logger.Info("migrated legacy base64 document", logger.String("name", name))
		return data, true
	}
	if data, ok := s.readLegacyGob(name); ok {
		logger.Info("migrated legacy gob document", logger.String("name", name))
		return data, true
	}
	return nil, false
}

func (s *Store) readLegacyBase64(name string) (map[string]any, bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name+".b64"))
	if err != nil {
		return nil, false
	}
	blob, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return nil, false
	}
	return decodeLegacyBlob(blob)
}

func (s *Store) readLegacyGob(name string) (map[string]any, bool) {
	blob, err := os.ReadFile(filepath.Join(s.dir, name+".gob"))
	if err != nil {
		return nil, false
	}
	return decodeLegacyBlob(blob)
}

func decodeLegacyBlob(blob []byte) (map[string]any, bool) {
	var data map[string]any
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&data); err != nil {
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}
