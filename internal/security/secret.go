package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SecretMatches compares a caller-supplied registration secret against the
// configured one without leaking timing.
func SecretMatches(supplied, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}

// SecretFingerprint returns a short digest of the secret used at operator
// registration, stored for audit without retaining the secret itself.
func SecretFingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:8])
}
