package auth

// The legacy credential format: an unsalted-per-user MD5 digest with a fixed
// application salt, retained only so existing installs can log in once and be
// upgraded. Isolated here so it can be deleted without touching the bcrypt
// path.

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

const legacySalt = "MIXTAPESFORLIFE"

// isLegacyHash reports whether a stored hash is in the legacy format, which
// is a bare 32-character hex digest.
func isLegacyHash(hash string) bool {
	if len(hash) != 32 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// checkLegacyHash verifies plain against a legacy digest in constant time.
func checkLegacyHash(plain, hash string) bool {
	sum := md5.Sum([]byte(legacySalt + plain))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) == 1
}
