package postgres

import (
	"context"
	"database/sql"
	"fmt"

	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
)

type Settler struct {
	db *sql.DB
}

func NewSettler(db *sql.DB) *Settler {
	return &Settler{db: db}
}

// Settle writes the product and the buyer in one transaction. Each UPDATE is
// guarded by the version that was read, so a concurrent writer makes the
// whole transaction roll back with a stale error.
func (s *Settler) Settle(ctx context.Context, product *dominv.Product, buyer *domacc.Account) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateProduct(ctx, tx, product); err != nil {
		return err
	}
	if err = updateAccount(ctx, tx, buyer); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement: %w", err)
	}

	product.Version++
	buyer.Version++
	return nil
}
