package inventory

import (
	"errors"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
)

func TestNewProductValidates(t *testing.T) {
	tests := []struct {
		name    string
		pname   string
		cost    int64
		stock   int
		wantErr error
	}{
		{"ok", "Cola", 50, 10, nil},
		{"zero stock", "Cola", 5, 0, nil},
		{"max values", "Cola", MaxCost, MaxStock, nil},
		{"name too short", "ab", 50, 1, ErrInvalidName},
		{"name blank after trim", "   ab   ", 50, 1, ErrInvalidName},
		{"name too long", strings.Repeat("n", 21), 50, 1, ErrInvalidName},
		{"zero cost", "Cola", 0, 1, ErrInvalidCost},
		{"cost not multiple of 5", "Cola", 42, 1, ErrInvalidCost},
		{"cost over max", "Cola", MaxCost + 5, 1, ErrInvalidCost},
		{"negative stock", "Cola", 50, -1, ErrInvalidStock},
		{"stock over max", "Cola", 50, MaxStock + 1, ErrInvalidStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct("p-1", "s-1", tt.pname, tt.cost, tt.stock)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	p, _ := NewProduct("p-1", "s-1", "Cola", 50, 1)
	if err := p.Authorize(identity.Identity{AccountID: "s-1", Role: identity.RoleSeller}); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := p.Authorize(identity.Identity{AccountID: "s-2", Role: identity.RoleSeller}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("other seller err = %v", err)
	}
	if err := p.Authorize(identity.Identity{AccountID: "s-1", Role: identity.RoleBuyer}); !errors.Is(err, ErrNotSeller) {
		t.Fatalf("buyer err = %v", err)
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	p, _ := NewProduct("p-1", "s-1", "Cola", 50, 1)
	name := "Fanta"
	badCost := int64(7)
	if err := p.Apply(Patch{Name: &name, Cost: &badCost}); !errors.Is(err, ErrInvalidCost) {
		t.Fatalf("err = %v", err)
	}
	if p.Name != "Cola" || p.Cost != 50 {
		t.Fatalf("rejected patch leaked: %+v", p)
	}

	stock := 9
	if err := p.Apply(Patch{Name: &name, Stock: &stock}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if p.Name != "Fanta" || p.Cost != 50 || p.Stock != 9 {
		t.Fatalf("partial update = %+v", p)
	}

	if err := p.Apply(Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("empty patch err = %v", err)
	}
}

func TestDeduct(t *testing.T) {
	p, _ := NewProduct("p-1", "s-1", "Cola", 50, 5)
	if err := p.Deduct(0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero err = %v", err)
	}
	if err := p.Deduct(6); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("over err = %v", err)
	}
	if err := p.Deduct(5); err != nil {
		t.Fatalf("deduct all: %v", err)
	}
	if p.Stock != 0 {
		t.Fatalf("stock = %d", p.Stock)
	}
}
