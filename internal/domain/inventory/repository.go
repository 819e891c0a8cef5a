package inventory

import (
	"context"
)

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	// Update stores p only if the stored version still equals p.Version,
	// otherwise it returns ErrStale. On success p.Version is incremented.
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
