package catalog

import (
	"encoding/base64"
	"strings"
)

// EncodeKey derives the stable catalog key for a filename. The encoding is
// reversible so the decoded name can be checked for traversal sequences.
func EncodeKey(filename string) string {
	return base64.URLEncoding.EncodeToString([]byte(filename))
}

// DecodeKey recovers the filename a key was derived from.
func DecodeKey(key string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ValidKey reports whether key decodes to a plain filename: non-empty, no
// path separators, no parent-directory sequences, no NUL bytes.
func ValidKey(key string) bool {
	name, err := DecodeKey(key)
	if err != nil || name == "" {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return false
	}
	return true
}
