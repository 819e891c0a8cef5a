package purchase

import (
	"context"

	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/coin"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
)

var (
	ErrInvalidAmount = domain.NewError(domain.ErrValidation, "purchase: amount must be a positive integer")
	// ErrConflict is returned once every settlement attempt lost to a concurrent write.
	ErrConflict = domain.NewError(domain.ErrConflict, "purchase: product or balance changed concurrently, retry")
)

// Receipt is returned once per successful purchase and never stored.
type Receipt struct {
	TotalSpent int64
	Change     coin.Change
	Product    inventory.Product
}

// Settler persists a settled product and buyer together. Both writes are
// conditional on the versions the caller read; either both land or neither
// does, and a version mismatch is reported as a conflict.
type Settler interface {
	Settle(ctx context.Context, product *inventory.Product, buyer *account.Account) error
}

// Apply runs the settlement rules against product and buyer in memory.
// Both are mutated; callers pass fresh copies and persist them with a Settler.
func Apply(buyer *account.Account, product *inventory.Product, amount int) (*Receipt, error) {
	if buyer.Role != identity.RoleBuyer {
		return nil, account.ErrRoleMismatch
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if product.Stock < amount {
		return nil, inventory.ErrInsufficientStock
	}

	total := product.Cost * int64(amount)
	if buyer.Balance < total {
		return nil, account.ErrInsufficientBalance
	}

	if err := product.Deduct(amount); err != nil {
		return nil, err
	}
	if err := buyer.Debit(total); err != nil {
		return nil, err
	}

	return &Receipt{
		TotalSpent: total,
		Change:     coin.ComputeChange(buyer.Balance),
		Product:    *product,
	}, nil
}
