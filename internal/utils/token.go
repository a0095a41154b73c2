package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// SessionTokenBytes is the entropy of an admin bearer token (256 bits).
const SessionTokenBytes = 32

// NewSessionToken returns a hex encoded random bearer token.
func NewSessionToken() (string, error) {
	return randomHex(SessionTokenBytes)
}

// HashToken returns the SHA-256 hex digest of a bearer token.  Only the
// digest is stored so a leaked sessions table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
