package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
)

// AccountRepository is obtained from Store.Accounts so that it shares the
// lock and maps with the session repository and the Settler.
type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("account repository: id is required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.usernames[a.Username]; exists {
		return domain.ErrUsernameTaken
	}
	if _, exists := r.s.accounts[a.ID]; exists {
		return fmt.Errorf("account repository: duplicate id %s", a.ID)
	}
	r.s.accounts[a.ID] = a.Clone()
	r.s.usernames[a.Username] = a.ID
	return nil
}

func (r *AccountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usernames[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.accounts[id].Clone(), nil
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("account repository: id is required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.accounts[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != a.Version {
		return domain.ErrStale
	}
	if stored.Username != a.Username {
		if _, taken := r.s.usernames[a.Username]; taken {
			return domain.ErrUsernameTaken
		}
		delete(r.s.usernames, stored.Username)
		r.s.usernames[a.Username] = a.ID
	}

	a.Version++
	r.s.accounts[a.ID] = a.Clone()
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.usernames, a.Username)
	delete(r.s.accounts, id)
	return nil
}

type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Insert(ctx context.Context, sess domain.Session) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[sess.TokenHash] = sess.AccountID
	return nil
}

func (r *SessionRepository) AccountID(ctx context.Context, tokenHash string) (string, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.sessions[tokenHash]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for hash, id := range r.s.sessions {
		if id == accountID {
			delete(r.s.sessions, hash)
		}
	}
	return nil
}
