package account

import (
	"errors"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
)

func newBuyer(t *testing.T) *Account {
	t.Helper()
	a, err := New("a-1", "alice", "hash", identity.RoleBuyer)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	return a
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name     string
		username string
		role     identity.Role
		wantErr  error
	}{
		{"ok buyer", "alice", identity.RoleBuyer, nil},
		{"ok seller trimmed", "  sellerbob  ", identity.RoleSeller, nil},
		{"short name", "bob", identity.RoleBuyer, ErrInvalidUsername},
		{"long name", strings.Repeat("x", 21), identity.RoleBuyer, ErrInvalidUsername},
		{"bad role", "alice", identity.Role("admin"), ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New("id", tt.username, "hash", tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if a.Balance != 0 || a.Username != strings.TrimSpace(tt.username) {
				t.Fatalf("unexpected account %+v", a)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("abcd"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("short password err = %v", err)
	}
	if err := ValidatePassword(strings.Repeat("p", MaxPasswordLen+1)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("long password err = %v", err)
	}
	if err := ValidatePassword("secret"); err != nil {
		t.Fatalf("valid password err = %v", err)
	}
}

func TestDeposit(t *testing.T) {
	a := newBuyer(t)
	for _, c := range []int64{5, 10, 20, 50, 100} {
		if err := a.Deposit(c); err != nil {
			t.Fatalf("deposit %d: %v", c, err)
		}
	}
	if a.Balance != 185 {
		t.Fatalf("balance = %d, want 185", a.Balance)
	}

	if err := a.Deposit(25); !errors.Is(err, ErrInvalidDenomination) {
		t.Fatalf("deposit 25 err = %v", err)
	}
	if a.Balance != 185 {
		t.Fatalf("rejected deposit changed balance to %d", a.Balance)
	}
}

func TestDepositRequiresBuyer(t *testing.T) {
	s, err := New("s-1", "seller", "hash", identity.RoleSeller)
	if err != nil {
		t.Fatalf("new seller: %v", err)
	}
	if err := s.Deposit(7); !errors.Is(err, ErrRoleMismatch) {
		t.Fatalf("seller deposit err = %v, want role mismatch first", err)
	}
	if !errors.Is(ErrRoleMismatch, domain.ErrForbidden) {
		t.Fatal("role mismatch must be a forbidden kind")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	a := newBuyer(t)
	_ = a.Deposit(100)
	_ = a.Deposit(20)
	a.Reset()
	a.Reset()
	if a.Balance != 0 {
		t.Fatalf("balance = %d after reset", a.Balance)
	}
}

func TestDebit(t *testing.T) {
	a := newBuyer(t)
	_ = a.Deposit(50)
	if err := a.Debit(55); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw err = %v", err)
	}
	if err := a.Debit(50); err != nil {
		t.Fatalf("exact debit: %v", err)
	}
	if a.Balance != 0 {
		t.Fatalf("balance = %d", a.Balance)
	}
}

func TestRenameAndClone(t *testing.T) {
	a := newBuyer(t)
	c := a.Clone()
	if err := c.Rename("  alice2 "); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if c.Username != "alice2" || a.Username != "alice" {
		t.Fatalf("clone shares state: %q / %q", a.Username, c.Username)
	}
	if err := c.Rename("x"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("short rename err = %v", err)
	}
	if id := a.Identity(); id.AccountID != "a-1" || id.Role != identity.RoleBuyer {
		t.Fatalf("identity = %+v", id)
	}
}
