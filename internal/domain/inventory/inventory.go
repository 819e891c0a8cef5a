package inventory

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
)

const (
	MinNameLen = 3
	MaxNameLen = 20
	MaxCost    = 1_000_000
	MaxStock   = 500
	// CostStep is the smallest coin; every price must be payable in whole coins.
	CostStep = 5
)

var (
	ErrNotFound          = domain.NewError(domain.ErrNotFound, "inventory: product not found")
	ErrStale             = domain.NewError(domain.ErrConflict, "inventory: product modified concurrently")
	ErrInvalidName       = domain.NewError(domain.ErrValidation, "inventory: product name must be 3-20 characters")
	ErrInvalidCost       = domain.NewError(domain.ErrValidation, "inventory: cost must be a positive multiple of 5 up to 1000000")
	ErrInvalidStock      = domain.NewError(domain.ErrValidation, "inventory: stock must be between 0 and 500")
	ErrInvalidQuantity   = domain.NewError(domain.ErrValidation, "inventory: quantity must be greater than zero")
	ErrInsufficientStock = domain.NewError(domain.ErrValidation, "inventory: insufficient stock")
	ErrNotSeller         = domain.NewError(domain.ErrForbidden, "inventory: only sellers can manage products")
	ErrNotOwner          = domain.NewError(domain.ErrForbidden, "inventory: product belongs to another seller")
	ErrEmptyPatch        = domain.NewError(domain.ErrValidation, "inventory: no fields to update")
)

type Product struct {
	ID        string
	SellerID  string
	Name      string
	Cost      int64
	Stock     int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Name  *string
	Cost  *int64
	Stock *int
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Cost == nil && p.Stock == nil
}

func NewProduct(id, sellerID, name string, cost int64, stock int) (*Product, error) {
	n, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := validateCost(cost); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Product{
		ID:        id,
		SellerID:  sellerID,
		Name:      n,
		Cost:      cost,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Authorize checks that caller owns the product.
func (p *Product) Authorize(caller identity.Identity) error {
	if caller.Role != identity.RoleSeller {
		return ErrNotSeller
	}
	if caller.AccountID != p.SellerID {
		return ErrNotOwner
	}
	return nil
}

// Apply validates every field of the patch before changing any of them.
func (p *Product) Apply(patch Patch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}
	name := p.Name
	if patch.Name != nil {
		n, err := normalizeName(*patch.Name)
		if err != nil {
			return err
		}
		name = n
	}
	if patch.Cost != nil {
		if err := validateCost(*patch.Cost); err != nil {
			return err
		}
	}
	if patch.Stock != nil {
		if err := validateStock(*patch.Stock); err != nil {
			return err
		}
	}

	p.Name = name
	if patch.Cost != nil {
		p.Cost = *patch.Cost
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	p.touch()
	return nil
}

func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func normalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if l := utf8.RuneCountInString(n); l < MinNameLen || l > MaxNameLen {
		return "", ErrInvalidName
	}
	return n, nil
}

func validateCost(cost int64) error {
	if cost <= 0 || cost > MaxCost || cost%CostStep != 0 {
		return ErrInvalidCost
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 || stock > MaxStock {
		return ErrInvalidStock
	}
	return nil
}
