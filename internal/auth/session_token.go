package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const sessionTokenBytes = 32

// SessionToken pairs the cookie value handed to the browser with the digest
// kept in the sessions table. Only the digest is ever persisted.
type SessionToken struct {
	Value string
	Hash  string
}

// NewSessionToken draws a fresh cookie value from crypto/rand.
func NewSessionToken() (SessionToken, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return SessionToken{}, fmt.Errorf("read session token entropy: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(raw)
	return SessionToken{Value: value, Hash: HashSessionToken(value)}, nil
}

// HashSessionToken maps a cookie value to its sessions.token_hash key.
func HashSessionToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
