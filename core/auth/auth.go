// Package auth manages the single admin credential, login sessions and CSRF
// tokens. There is exactly one credential record system-wide.
package auth

import (
	"fmt"
	"time"

	"mixtape/store"

	"golang.org/x/crypto/bcrypt"
)

// DocPassword is the store document holding the credential record.
const DocPassword = ".mixtape_password"

// Auth verifies and updates the admin password.
type Auth struct {
	store *store.Store
}

// New creates an Auth backed by the settings store.
func New(st *store.Store) *Auth {
	return &Auth{store: st}
}

// IsPasswordSet reports whether a credential record exists.
func (a *Auth) IsPasswordSet() bool {
	record := a.store.Read(DocPassword)
	hash, _ := record["hash"].(string)
	return hash != ""
}

// SetPassword stores the password as a bcrypt digest with an update
// timestamp. Irreversible; there is no password recovery.
func (a *Auth) SetPassword(plain string) error {
	hash, err := HashPassword(plain)
	if err != nil {
		return err
	}
	return a.store.Write(DocPassword, map[string]any{
		"hash":    hash,
		"updated": time.Now().Unix(),
	})
}

// CheckPassword verifies plain against the stored record. A record still in
// the legacy format is verified with the legacy digest and, on success,
// silently re-saved through SetPassword.
func (a *Auth) CheckPassword(plain string) bool {
	record := a.store.Read(DocPassword)
	hash, _ := record["hash"].(string)
	if hash == "" {
		return false
	}

	if isLegacyHash(hash) {
		if !checkLegacyHash(plain, hash) {
			return false
		}
		if err := a.SetPassword(plain); err != nil {
			// Verification succeeded; the upgrade retries on next login.
			return true
		}
		return true
	}

	return CheckPasswordHash(plain, hash)
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
