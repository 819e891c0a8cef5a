package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

type TokenIssuer struct {
	prefix string
}

func NewTokenIssuer(prefix string) *TokenIssuer {
	return &TokenIssuer{prefix: prefix}
}

// Issue returns a random bearer token and the hash to store for it.
// Only the hash is persisted; the token is shown to the caller once.
func (i *TokenIssuer) Issue() (token string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = i.prefix + hex.EncodeToString(b)
	return token, HashToken(token), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MatchToken compares in constant time.
func MatchToken(token, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(storedHash)) == 1
}
