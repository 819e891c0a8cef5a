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

type sessions struct {
	tokens TokenIssuer
	repo   domain.SessionRepository
}

func (s sessions) open(ctx context.Context, accountID string) (string, error) {
	token, hash, err := s.tokens.Issue()
	if err != nil {
		return "", err
	}
	if err := s.repo.Insert(ctx, domain.Session{TokenHash: hash, AccountID: accountID}); err != nil {
		return "", err
	}
	return token, nil
}

type RegisterCommand struct {
	Username string
	Password string
	Role     identity.Role
}

type RegisterResult struct {
	Account *domain.Account
	Token   string
}

// RegisterUseCase runs validate, hash, persist and then opens a first session.
type RegisterUseCase struct {
	accounts domain.Repository
	hasher   PasswordHasher
	ids      IDGenerator
	sessions sessions
	in       application.Instruments
}

func NewRegisterUseCase(
	accounts domain.Repository,
	sessionRepo domain.SessionRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	ids IDGenerator,
	tel observability.Observability,
) *RegisterUseCase {
	return &RegisterUseCase{
		accounts: accounts,
		hasher:   hasher,
		ids:      ids,
		sessions: sessions{tokens: tokens, repo: sessionRepo},
		in:       application.NewInstruments(accountService, tel),
	}
}

func (uc *RegisterUseCase) Execute(ctx context.Context, cmd RegisterCommand) (_ *RegisterResult, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseRegister, "Register",
		attribute.String("account.role", string(cmd.Role)),
	)
	call.With(observability.F("role", string(cmd.Role)))
	defer func() { call.End(ctx, err) }()

	a, err := domain.New(uc.ids.NewID(), cmd.Username, "", cmd.Role)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(cmd.Password); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	a.PasswordHash = hash

	if err := uc.accounts.Insert(ctx, a); err != nil {
		return nil, err
	}
	call.With(observability.F("account_id", a.ID))

	token, err := uc.sessions.open(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("account: open session: %w", err)
	}
	return &RegisterResult{Account: a, Token: token}, nil
}

type LoginCommand struct {
	Username string
	Password string
}

type LoginUseCase struct {
	accounts domain.Repository
	hasher   PasswordHasher
	sessions sessions
	in       application.Instruments
}

func NewLoginUseCase(
	accounts domain.Repository,
	sessionRepo domain.SessionRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	tel observability.Observability,
) *LoginUseCase {
	return &LoginUseCase{
		accounts: accounts,
		hasher:   hasher,
		sessions: sessions{tokens: tokens, repo: sessionRepo},
		in:       application.NewInstruments(accountService, tel),
	}
}

// Execute returns a new bearer token. Unknown users and wrong passwords both
// surface as identity.ErrInvalidCredentials.
func (uc *LoginUseCase) Execute(ctx context.Context, cmd LoginCommand) (_ string, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseLogin, "Login")
	defer func() { call.End(ctx, err) }()

	name, err := domain.NormalizeUsername(cmd.Username)
	if err != nil {
		return "", identity.ErrInvalidCredentials
	}
	a, err := uc.accounts.GetByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", identity.ErrInvalidCredentials
		}
		return "", fmt.Errorf("account: load: %w", err)
	}
	call.With(observability.F("account_id", a.ID))
	if verr := uc.hasher.Verify(a.PasswordHash, cmd.Password); verr != nil {
		call.With(observability.F("reason", verr.Error()))
		return "", identity.ErrInvalidCredentials
	}

	token, err := uc.sessions.open(ctx, a.ID)
	if err != nil {
		return "", fmt.Errorf("account: open session: %w", err)
	}
	return token, nil
}

type LogoutUseCase struct {
	sessions domain.SessionRepository
	in       application.Instruments
}

func NewLogoutUseCase(sessionRepo domain.SessionRepository, tel observability.Observability) *LogoutUseCase {
	return &LogoutUseCase{sessions: sessionRepo, in: application.NewInstruments(accountService, tel)}
}

// Execute revokes every token of the caller.
func (uc *LogoutUseCase) Execute(ctx context.Context, caller identity.Identity) (_ struct{}, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseLogout, "Logout",
		attribute.String("account.id", caller.AccountID),
	)
	call.With(observability.F("account_id", caller.AccountID))
	defer func() { call.End(ctx, err) }()

	return struct{}{}, uc.sessions.DeleteByAccount(ctx, caller.AccountID)
}
