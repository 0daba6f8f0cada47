package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSessionKey returns the hex SHA-256 of a session key. Runs, stored
// résumés and object keys are namespaced by this value so raw X-Session-Id
// values never reach storage or logs.
func HashSessionKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
