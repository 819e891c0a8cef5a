package account

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/coin"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
)

const (
	MinUsernameLen = 5
	MaxUsernameLen = 20
	MinPasswordLen = 5
	// bcrypt only looks at the first 72 bytes.
	MaxPasswordLen = 72
)

var (
	ErrNotFound            = domain.NewError(domain.ErrNotFound, "account: not found")
	ErrUsernameTaken       = domain.NewError(domain.ErrConflict, "account: username already exists")
	ErrStale               = domain.NewError(domain.ErrConflict, "account: modified concurrently")
	ErrInvalidUsername     = domain.NewError(domain.ErrValidation, "account: username must be 5-20 characters")
	ErrInvalidPassword     = domain.NewError(domain.ErrValidation, "account: password must be 5-72 bytes")
	ErrInvalidRole         = domain.NewError(domain.ErrValidation, "account: role must be buyer or seller")
	ErrInvalidDenomination = domain.NewError(domain.ErrValidation, "account: coin must be one of 5, 10, 20, 50, 100")
	ErrRoleMismatch        = domain.NewError(domain.ErrForbidden, "account: operation not allowed for this role")
	ErrInsufficientBalance = domain.NewError(domain.ErrValidation, "account: insufficient balance")
	ErrNotOwner            = domain.NewError(domain.ErrForbidden, "account: only the owner can access this account")
	ErrEmptyUpdate         = domain.NewError(domain.ErrValidation, "account: no fields to update")
)

type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         identity.Role
	Balance      int64
	// Version is bumped by the repository on every successful write.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New validates the inputs and returns an account with a zero balance.
// passwordHash must already be hashed; see ValidatePassword for the raw rules.
func New(id, username, passwordHash string, role identity.Role) (*Account, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	now := time.Now().UTC()
	return &Account{
		ID:           id,
		Username:     name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NormalizeUsername(username string) (string, error) {
	name := strings.TrimSpace(username)
	if n := utf8.RuneCountInString(name); n < MinUsernameLen || n > MaxUsernameLen {
		return "", ErrInvalidUsername
	}
	return name, nil
}

func ValidatePassword(password string) error {
	if n := len(password); n < MinPasswordLen || n > MaxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

func (a *Account) Identity() identity.Identity {
	return identity.Identity{AccountID: a.ID, Role: a.Role}
}

// Deposit adds one coin to a buyer's balance.
func (a *Account) Deposit(c int64) error {
	if a.Role != identity.RoleBuyer {
		return ErrRoleMismatch
	}
	if !coin.IsDenomination(c) {
		return ErrInvalidDenomination
	}
	a.Balance += c
	a.touch()
	return nil
}

func (a *Account) Reset() {
	if a.Balance == 0 {
		return
	}
	a.Balance = 0
	a.touch()
}

// Debit replaces the balance with what remains after spending amount.
func (a *Account) Debit(amount int64) error {
	if amount > a.Balance {
		return ErrInsufficientBalance
	}
	a.Balance -= amount
	a.touch()
	return nil
}

func (a *Account) Rename(username string) error {
	name, err := NormalizeUsername(username)
	if err != nil {
		return err
	}
	if name != a.Username {
		a.Username = name
		a.touch()
	}
	return nil
}

func (a *Account) SetPasswordHash(hash string) {
	a.PasswordHash = hash
	a.touch()
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}
