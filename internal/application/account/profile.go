package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

type GetCommand struct {
	Caller    identity.Identity
	AccountID string
}

type GetUseCase struct {
	accounts domain.Repository
	in       application.Instruments
}

func NewGetUseCase(accounts domain.Repository, tel observability.Observability) *GetUseCase {
	return &GetUseCase{accounts: accounts, in: application.NewInstruments(accountService, tel)}
}

func (uc *GetUseCase) Execute(ctx context.Context, cmd GetCommand) (_ *domain.Account, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseGet, "GetAccount",
		attribute.String("account.id", cmd.AccountID),
	)
	call.With(observability.F("account_id", cmd.AccountID))
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.AccountID != cmd.AccountID {
		return nil, domain.ErrNotOwner
	}
	return uc.accounts.Get(ctx, cmd.AccountID)
}

// UpdateCommand changes the username, the password or both. Role is fixed at registration.
type UpdateCommand struct {
	Caller    identity.Identity
	AccountID string
	Username  *string
	Password  *string
}

type UpdateUseCase struct {
	accounts domain.Repository
	hasher   PasswordHasher
	policy   application.RetryPolicy
	in       application.Instruments
}

func NewUpdateUseCase(accounts domain.Repository, hasher PasswordHasher, policy application.RetryPolicy, tel observability.Observability) *UpdateUseCase {
	return &UpdateUseCase{
		accounts: accounts,
		hasher:   hasher,
		policy:   policy,
		in:       application.NewInstruments(accountService, tel),
	}
}

func (uc *UpdateUseCase) Execute(ctx context.Context, cmd UpdateCommand) (_ *domain.Account, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseUpdate, "UpdateAccount",
		attribute.String("account.id", cmd.AccountID),
	)
	call.With(
		observability.F("account_id", cmd.AccountID),
		observability.F("username_changed", cmd.Username != nil),
		observability.F("password_changed", cmd.Password != nil),
	)
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.AccountID != cmd.AccountID {
		return nil, domain.ErrNotOwner
	}
	if cmd.Username == nil && cmd.Password == nil {
		return nil, domain.ErrEmptyUpdate
	}

	var username, hash string
	if cmd.Username != nil {
		if username, err = domain.NormalizeUsername(*cmd.Username); err != nil {
			return nil, err
		}
	}
	if cmd.Password != nil {
		if err = domain.ValidatePassword(*cmd.Password); err != nil {
			return nil, err
		}
		if hash, err = uc.hasher.Hash(*cmd.Password); err != nil {
			return nil, fmt.Errorf("account: %w", err)
		}
	}

	var updated *domain.Account
	_, err = uc.policy.Do(ctx, func() error {
		a, err := uc.accounts.Get(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		if cmd.Username != nil {
			if err := a.Rename(username); err != nil {
				return err
			}
		}
		if cmd.Password != nil {
			a.SetPasswordHash(hash)
		}
		if err := uc.accounts.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	}, domain.ErrStale)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type DeleteCommand struct {
	Caller    identity.Identity
	AccountID string
}

// DeleteUseCase removes the caller's account and revokes its sessions.
// Products listed by a deleted seller stay in the catalog.
type DeleteUseCase struct {
	accounts domain.Repository
	sessions domain.SessionRepository
	in       application.Instruments
}

func NewDeleteUseCase(accounts domain.Repository, sessionRepo domain.SessionRepository, tel observability.Observability) *DeleteUseCase {
	return &DeleteUseCase{
		accounts: accounts,
		sessions: sessionRepo,
		in:       application.NewInstruments(accountService, tel),
	}
}

func (uc *DeleteUseCase) Execute(ctx context.Context, cmd DeleteCommand) (_ struct{}, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseDelete, "DeleteAccount",
		attribute.String("account.id", cmd.AccountID),
	)
	call.With(observability.F("account_id", cmd.AccountID))
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.AccountID != cmd.AccountID {
		return struct{}{}, domain.ErrNotOwner
	}
	if err = uc.accounts.Delete(ctx, cmd.AccountID); err != nil {
		return struct{}{}, err
	}
	if err = uc.sessions.DeleteByAccount(ctx, cmd.AccountID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return struct{}{}, fmt.Errorf("account: revoke sessions: %w", err)
	}
	return struct{}{}, nil
}
