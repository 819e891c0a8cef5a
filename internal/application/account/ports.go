package account

import "github.com/Zhima-Mochi/vending-machine/internal/application"

type IDGenerator = application.IDGenerator

// PasswordHasher hashes raw passwords; Verify fails on any mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// TokenIssuer mints an opaque bearer token and the hash that is stored for it.
type TokenIssuer interface {
	Issue() (token string, hash string, err error)
}

// TokenHasher maps a presented token to its stored hash.
type TokenHasher func(token string) string
