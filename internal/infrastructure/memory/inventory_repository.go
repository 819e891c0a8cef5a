package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
)

type InventoryRepository struct {
	s *Store
}

func NewInventoryRepository() *InventoryRepository {
	return NewStore().Products()
}

func (r *InventoryRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.products[p.ID]; exists {
		return fmt.Errorf("inventory repository: duplicate id %s", p.ID)
	}
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// List returns products ordered by creation time, then id.
func (r *InventoryRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.s.mu.RLock()
	out := make([]*domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p.Clone())
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InventoryRepository) Update(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != p.Version {
		return domain.ErrStale
	}
	p.Version++
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}
