package memory

import (
	"context"
	"sync"

	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
)

// Store keeps every aggregate behind one lock so a settlement can swap a
// product and an account together.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*domacc.Account
	usernames map[string]string
	products  map[string]*dominv.Product
	sessions  map[string]string // token hash -> account id
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*domacc.Account),
		usernames: make(map[string]string),
		products:  make(map[string]*dominv.Product),
		sessions:  make(map[string]string),
	}
}

func (s *Store) Accounts() *AccountRepository   { return &AccountRepository{s: s} }
func (s *Store) Products() *InventoryRepository { return &InventoryRepository{s: s} }
func (s *Store) Sessions() *SessionRepository   { return &SessionRepository{s: s} }

// Settle stores product and buyer if neither changed since they were read.
func (s *Store) Settle(ctx context.Context, product *dominv.Product, buyer *domacc.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	storedProduct, ok := s.products[product.ID]
	if !ok {
		return dominv.ErrNotFound
	}
	storedBuyer, ok := s.accounts[buyer.ID]
	if !ok {
		return domacc.ErrNotFound
	}
	if storedProduct.Version != product.Version {
		return dominv.ErrStale
	}
	if storedBuyer.Version != buyer.Version {
		return domacc.ErrStale
	}

	product.Version++
	buyer.Version++
	s.products[product.ID] = product.Clone()
	s.accounts[buyer.ID] = buyer.Clone()
	return nil
}
