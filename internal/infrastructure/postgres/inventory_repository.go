package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
)

type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

const productColumns = `id, seller_id, name, cost, stock, version, created_at, updated_at`

func (r *InventoryRepository) Insert(ctx context.Context, p *domain.Product) error {
	const query = `
INSERT INTO products (` + productColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.SellerID, p.Name, p.Cost, p.Stock, p.Version, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]*domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (r *InventoryRepository) Update(ctx context.Context, p *domain.Product) error {
	if err := updateProduct(ctx, r.db, p); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	return execRequiredRow(ctx, r.db, domain.ErrNotFound, `DELETE FROM products WHERE id = $1`, id)
}

func updateProduct(ctx context.Context, db execer, p *domain.Product) error {
	const query = `
UPDATE products
SET name = $2,
	cost = $3,
	stock = $4,
	updated_at = $5,
	version = version + 1
WHERE id = $1
  AND version = $6`

	err := execRequiredRow(ctx, db, domain.ErrStale, query,
		p.ID, p.Name, p.Cost, p.Stock, p.UpdatedAt, p.Version)
	if err != nil && !errors.Is(err, domain.ErrStale) {
		return fmt.Errorf("update product: %w", err)
	}
	return err
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Cost,
		&p.Stock,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
