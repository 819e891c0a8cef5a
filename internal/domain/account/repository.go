package account

import "context"

type Repository interface {
	Insert(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	// Update stores a only if the stored version still equals a.Version,
	// otherwise it returns ErrStale. On success a.Version is incremented.
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) error
}

// Session maps the hash of a bearer token to its account.
type Session struct {
	TokenHash string
	AccountID string
}

type SessionRepository interface {
	Insert(ctx context.Context, s Session) error
	AccountID(ctx context.Context, tokenHash string) (string, error)
	DeleteByAccount(ctx context.Context, accountID string) error
}
