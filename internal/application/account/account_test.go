package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/security"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type env struct {
	store     *memory.Store
	publisher *recordingPublisher
	register  *RegisterUseCase
	login     *LoginUseCase
	logout    *LogoutUseCase
	deposit   *DepositUseCase
	reset     *ResetDepositUseCase
	get       *GetUseCase
	update    *UpdateUseCase
	del       *DeleteUseCase
	auth      *Authenticator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	hasher := security.NewPasswordHasher(4)
	tokens := security.NewTokenIssuer("vm_test_")
	policy := application.RetryPolicy{MaxAttempts: 10, Backoff: time.Millisecond}
	tel := observability.Nop()
	return &env{
		store:     store,
		publisher: pub,
		register:  NewRegisterUseCase(store.Accounts(), store.Sessions(), hasher, tokens, id.NewUUIDGenerator(), tel),
		login:     NewLoginUseCase(store.Accounts(), store.Sessions(), hasher, tokens, tel),
		logout:    NewLogoutUseCase(store.Sessions(), tel),
		deposit:   NewDepositUseCase(store.Accounts(), pub, policy, time.Second, tel),
		reset:     NewResetDepositUseCase(store.Accounts(), policy, tel),
		get:       NewGetUseCase(store.Accounts(), tel),
		update:    NewUpdateUseCase(store.Accounts(), hasher, policy, tel),
		del:       NewDeleteUseCase(store.Accounts(), store.Sessions(), tel),
		auth:      NewAuthenticator(store.Accounts(), store.Sessions(), security.HashToken),
	}
}

func (e *env) signUp(t *testing.T, username string, role identity.Role) (identity.Identity, string) {
	t.Helper()
	res, err := e.register.Execute(context.Background(), RegisterCommand{Username: username, Password: "secret", Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res.Account.Identity(), res.Token
}

func TestRegisterIssuesUsableToken(t *testing.T) {
	e := newEnv(t)
	caller, token := e.signUp(t, "alice", identity.RoleBuyer)

	got, err := e.auth.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != caller {
		t.Fatalf("resolved %+v, want %+v", got, caller)
	}

	stored, _ := e.store.Accounts().Get(context.Background(), caller.AccountID)
	if stored.PasswordHash == "secret" || stored.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	e.signUp(t, "taken", identity.RoleSeller)

	tests := []struct {
		name string
		cmd  RegisterCommand
		want error
	}{
		{"short username", RegisterCommand{Username: "bob", Password: "secret", Role: identity.RoleBuyer}, domacc.ErrInvalidUsername},
		{"short password", RegisterCommand{Username: "bobby", Password: "abc", Role: identity.RoleBuyer}, domacc.ErrInvalidPassword},
		{"unknown role", RegisterCommand{Username: "bobby", Password: "secret", Role: "admin"}, domacc.ErrInvalidRole},
		{"duplicate", RegisterCommand{Username: "taken", Password: "secret", Role: identity.RoleBuyer}, domacc.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.register.Execute(context.Background(), tt.cmd); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	e := newEnv(t)
	caller, first := e.signUp(t, "carol", identity.RoleBuyer)

	if _, err := e.login.Execute(context.Background(), LoginCommand{Username: "carol", Password: "wrong"}); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := e.login.Execute(context.Background(), LoginCommand{Username: "nobody", Password: "secret"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	second, err := e.login.Execute(context.Background(), LoginCommand{Username: " carol ", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if second == first {
		t.Fatal("each login must issue a fresh token")
	}

	if _, err := e.logout.Execute(context.Background(), caller); err != nil {
		t.Fatalf("logout: %v", err)
	}
	for _, tok := range []string{first, second} {
		if _, err := e.auth.Resolve(context.Background(), tok); !errors.Is(err, identity.ErrInvalidCredentials) {
			t.Fatalf("token should be revoked, got %v", err)
		}
	}
}

func TestAuthenticatorRejectsMissingAndUnknownTokens(t *testing.T) {
	e := newEnv(t)
	if _, err := e.auth.Resolve(context.Background(), "  "); !errors.Is(err, identity.ErrAnonymous) {
		t.Fatalf("expected anonymous, got %v", err)
	}
	if _, err := e.auth.Resolve(context.Background(), "vm_test_deadbeef"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestDepositAcceptsOnlyCoins(t *testing.T) {
	e := newEnv(t)
	buyer, _ := e.signUp(t, "buyer1", identity.RoleBuyer)

	for _, c := range []int64{5, 10, 20, 50, 100} {
		if _, err := e.deposit.Execute(context.Background(), DepositCommand{Caller: buyer, Coin: c}); err != nil {
			t.Fatalf("deposit %d: %v", c, err)
		}
	}
	for _, c := range []int64{0, -5, 1, 25, 200} {
		if _, err := e.deposit.Execute(context.Background(), DepositCommand{Caller: buyer, Coin: c}); !errors.Is(err, domacc.ErrInvalidDenomination) {
			t.Fatalf("deposit %d: expected invalid denomination, got %v", c, err)
		}
	}

	a, _ := e.store.Accounts().Get(context.Background(), buyer.AccountID)
	if a.Balance != 185 {
		t.Fatalf("balance = %d, want 185", a.Balance)
	}
	if len(e.publisher.events) != 5 {
		t.Fatalf("expected 5 deposit events, got %d", len(e.publisher.events))
	}
}

func TestDepositRequiresBuyer(t *testing.T) {
	e := newEnv(t)
	seller, _ := e.signUp(t, "seller1", identity.RoleSeller)
	if _, err := e.deposit.Execute(context.Background(), DepositCommand{Caller: seller, Coin: 50}); !errors.Is(err, domacc.ErrRoleMismatch) {
		t.Fatalf("expected role mismatch, got %v", err)
	}
}

func TestConcurrentDepositsAreNotLost(t *testing.T) {
	e := newEnv(t)
	buyer, _ := e.signUp(t, "buyer2", identity.RoleBuyer)
	e.deposit.policy = application.RetryPolicy{MaxAttempts: 100, Backoff: 0}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.deposit.Execute(context.Background(), DepositCommand{Caller: buyer, Coin: 5}); err != nil {
				t.Errorf("deposit: %v", err)
			}
		}()
	}
	wg.Wait()

	a, _ := e.store.Accounts().Get(context.Background(), buyer.AccountID)
	if a.Balance != 100 {
		t.Fatalf("balance = %d, want 100", a.Balance)
	}
}

func TestResetDepositIsIdempotent(t *testing.T) {
	e := newEnv(t)
	buyer, _ := e.signUp(t, "buyer3", identity.RoleBuyer)

	a, _ := e.store.Accounts().Get(context.Background(), buyer.AccountID)
	a.Balance = 137
	if err := e.store.Accounts().Update(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		got, err := e.reset.Execute(context.Background(), buyer)
		if err != nil || got != 0 {
			t.Fatalf("reset #%d: balance=%d err=%v", i+1, got, err)
		}
	}
	a, _ = e.store.Accounts().Get(context.Background(), buyer.AccountID)
	if a.Balance != 0 {
		t.Fatalf("balance = %d", a.Balance)
	}
}

func TestUpdateAccount(t *testing.T) {
	e := newEnv(t)
	caller, _ := e.signUp(t, "dave1", identity.RoleBuyer)
	other, _ := e.signUp(t, "erin1", identity.RoleBuyer)

	name := "dave2"
	pass := "new-secret"
	got, err := e.update.Execute(context.Background(), UpdateCommand{Caller: caller, AccountID: caller.AccountID, Username: &name, Password: &pass})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Username != "dave2" || got.Role != identity.RoleBuyer {
		t.Fatalf("unexpected account %+v", got)
	}
	if _, err := e.login.Execute(context.Background(), LoginCommand{Username: "dave2", Password: "new-secret"}); err != nil {
		t.Fatalf("login with new credentials: %v", err)
	}

	taken := "erin1"
	if _, err := e.update.Execute(context.Background(), UpdateCommand{Caller: caller, AccountID: caller.AccountID, Username: &taken}); !errors.Is(err, domacc.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
	if _, err := e.update.Execute(context.Background(), UpdateCommand{Caller: caller, AccountID: other.AccountID, Username: &name}); !errors.Is(err, domacc.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := e.update.Execute(context.Background(), UpdateCommand{Caller: caller, AccountID: caller.AccountID}); !errors.Is(err, domacc.ErrEmptyUpdate) {
		t.Fatalf("expected empty update, got %v", err)
	}
	short := "abc"
	if _, err := e.update.Execute(context.Background(), UpdateCommand{Caller: caller, AccountID: caller.AccountID, Password: &short}); !errors.Is(err, domacc.ErrInvalidPassword) {
		t.Fatalf("expected invalid password, got %v", err)
	}
}

func TestGetAccountIsSelfOnly(t *testing.T) {
	e := newEnv(t)
	caller, _ := e.signUp(t, "frank", identity.RoleSeller)
	other, _ := e.signUp(t, "grace", identity.RoleBuyer)

	got, err := e.get.Execute(context.Background(), GetCommand{Caller: caller, AccountID: caller.AccountID})
	if err != nil || got.Username != "frank" {
		t.Fatalf("get self: %+v %v", got, err)
	}
	if _, err := e.get.Execute(context.Background(), GetCommand{Caller: caller, AccountID: other.AccountID}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteAccountRevokesSessions(t *testing.T) {
	e := newEnv(t)
	caller, token := e.signUp(t, "heidi", identity.RoleBuyer)

	if _, err := e.del.Execute(context.Background(), DeleteCommand{Caller: caller, AccountID: caller.AccountID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.auth.Resolve(context.Background(), token); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := e.store.Accounts().Get(context.Background(), caller.AccountID); !errors.Is(err, domacc.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	// The username is free again.
	e.signUp(t, "heidi", identity.RoleSeller)
}
