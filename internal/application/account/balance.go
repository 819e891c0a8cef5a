package account

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	accountService = "account-service"

	useCaseDeposit  = "account.deposit"
	useCaseReset    = "account.reset_deposit"
	useCaseRegister = "account.register"
	useCaseLogin    = "account.login"
	useCaseLogout   = "account.logout"
	useCaseGet      = "account.get"
	useCaseUpdate   = "account.update"
	useCaseDelete   = "account.delete"
)

type DepositCommand struct {
	Caller identity.Identity
	Coin   int64
}

type DepositUseCase struct {
	accounts       domain.Repository
	publisher      domoutbox.Publisher
	policy         application.RetryPolicy
	publishTimeout time.Duration
	in             application.Instruments
}

func NewDepositUseCase(
	accounts domain.Repository,
	publisher domoutbox.Publisher,
	policy application.RetryPolicy,
	publishTimeout time.Duration,
	tel observability.Observability,
) *DepositUseCase {
	return &DepositUseCase{
		accounts:       accounts,
		publisher:      publisher,
		policy:         policy,
		publishTimeout: publishTimeout,
		in:             application.NewInstruments(accountService, tel),
	}
}

// Execute credits one coin to the caller and returns the new balance.
func (uc *DepositUseCase) Execute(ctx context.Context, cmd DepositCommand) (_ int64, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseDeposit, "Deposit",
		attribute.String("account.id", cmd.Caller.AccountID),
		attribute.Int64("deposit.coin", cmd.Coin),
	)
	call.With(
		observability.F("account_id", cmd.Caller.AccountID),
		observability.F("coin", cmd.Coin),
	)
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.Role != identity.RoleBuyer {
		return 0, domain.ErrRoleMismatch
	}

	var acc *domain.Account
	attempts, err := uc.policy.Do(ctx, func() error {
		a, err := uc.accounts.Get(ctx, cmd.Caller.AccountID)
		if err != nil {
			return fmt.Errorf("account: load: %w", err)
		}
		if err := a.Deposit(cmd.Coin); err != nil {
			return err
		}
		if err := uc.accounts.Update(ctx, a); err != nil {
			return err
		}
		acc = a
		return nil
	}, domain.ErrStale)
	call.With(observability.F("attempts", attempts))
	if err != nil {
		return 0, err
	}

	if perr := uc.in.Publish(context.WithoutCancel(ctx), uc.publisher, uc.publishTimeout,
		domain.NewDepositedEvent(acc, cmd.Coin)); perr != nil {
		call.With(observability.F("deposited_event_error", perr.Error()))
	}
	return acc.Balance, nil
}

type ResetDepositUseCase struct {
	accounts domain.Repository
	policy   application.RetryPolicy
	in       application.Instruments
}

func NewResetDepositUseCase(accounts domain.Repository, policy application.RetryPolicy, tel observability.Observability) *ResetDepositUseCase {
	return &ResetDepositUseCase{
		accounts: accounts,
		policy:   policy,
		in:       application.NewInstruments(accountService, tel),
	}
}

// Execute zeroes the caller's balance. Calling it on an empty balance is a no-op.
func (uc *ResetDepositUseCase) Execute(ctx context.Context, caller identity.Identity) (_ int64, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseReset, "ResetDeposit",
		attribute.String("account.id", caller.AccountID),
	)
	call.With(observability.F("account_id", caller.AccountID))
	defer func() { call.End(ctx, err) }()

	_, err = uc.policy.Do(ctx, func() error {
		a, err := uc.accounts.Get(ctx, caller.AccountID)
		if err != nil {
			return fmt.Errorf("account: load: %w", err)
		}
		if a.Balance == 0 {
			return nil
		}
		call.With(observability.F("cleared", a.Balance))
		a.Reset()
		return uc.accounts.Update(ctx, a)
	}, domain.ErrStale)
	if err != nil {
		return 0, err
	}
	return 0, nil
}
