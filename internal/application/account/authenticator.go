package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
)

// Authenticator resolves bearer tokens through the session store. The role
// is read from the account on every call so it always reflects stored state.
type Authenticator struct {
	accounts domain.Repository
	sessions domain.SessionRepository
	hash     TokenHasher
}

var _ identity.Resolver = (*Authenticator)(nil)

func NewAuthenticator(accounts domain.Repository, sessionRepo domain.SessionRepository, hash TokenHasher) *Authenticator {
	return &Authenticator{accounts: accounts, sessions: sessionRepo, hash: hash}
}

func (a *Authenticator) Resolve(ctx context.Context, credential string) (identity.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return identity.Identity{}, identity.ErrAnonymous
	}

	accountID, err := a.sessions.AccountID(ctx, a.hash(credential))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return identity.Identity{}, identity.ErrInvalidCredentials
		}
		return identity.Identity{}, fmt.Errorf("resolve session: %w", err)
	}
	acc, err := a.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return identity.Identity{}, identity.ErrInvalidCredentials
		}
		return identity.Identity{}, fmt.Errorf("resolve account: %w", err)
	}
	return acc.Identity(), nil
}
