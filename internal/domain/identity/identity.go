package identity

import (
	"context"

	"github.com/Zhima-Mochi/vending-machine/internal/domain"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Identity is the authenticated caller. It is passed explicitly to every core operation.
type Identity struct {
	AccountID string
	Role      Role
}

var (
	ErrAnonymous          = domain.NewError(domain.ErrUnauthorized, "identity: credential not provided")
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "identity: invalid credentials")
)

// Resolver turns an opaque bearer credential into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

func (id Identity) IsZero() bool { return id.AccountID == "" }
