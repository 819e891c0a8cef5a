package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	dompur "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	purchaseService = "purchase-service"
	useCaseBuy      = "purchase.buy"
)

type BuyCommand struct {
	Caller    identity.Identity
	ProductID string
	Amount    int
}

// DefaultPublishTimeout bounds how long a committed purchase waits on the bus.
const DefaultPublishTimeout = 300 * time.Millisecond

// BuyUseCase settles a purchase: it validates against a fresh read of the
// product and the buyer, then commits both through the Settler.
type BuyUseCase struct {
	products       dominv.Repository
	accounts       domacc.Repository
	settler        dompur.Settler
	publisher      domoutbox.Publisher
	policy         application.RetryPolicy
	publishTimeout time.Duration // per post-commit event

	in        application.Instruments
	conflicts observability.Counter // settlement_conflicts_total{resolution}
}

func NewBuyUseCase(
	products dominv.Repository,
	accounts domacc.Repository,
	settler dompur.Settler,
	publisher domoutbox.Publisher,
	policy application.RetryPolicy,
	publishTimeout time.Duration,
	tel observability.Observability,
) *BuyUseCase {
	if policy.MaxAttempts < 1 {
		policy = application.DefaultRetryPolicy()
	}
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	in := application.NewInstruments(purchaseService, tel)
	return &BuyUseCase{
		products:       products,
		accounts:       accounts,
		settler:        settler,
		publisher:      publisher,
		policy:         policy,
		publishTimeout: publishTimeout,
		in:             in,
		conflicts:      in.Metrics().Counter(observability.MSettlementConflicts),
	}
}

func (uc *BuyUseCase) Execute(ctx context.Context, cmd BuyCommand) (_ *dompur.Receipt, err error) {
	ctx, call := uc.in.Begin(ctx, useCaseBuy, "Buy",
		attribute.String("account.id", cmd.Caller.AccountID),
		attribute.String("product.id", cmd.ProductID),
		attribute.Int("purchase.amount", cmd.Amount),
	)
	call.With(
		observability.F("account_id", cmd.Caller.AccountID),
		observability.F("product_id", cmd.ProductID),
		observability.F("amount", cmd.Amount),
	)
	defer func() { call.End(ctx, err) }()

	if cmd.Caller.Role != identity.RoleBuyer {
		return nil, domacc.ErrRoleMismatch
	}

	var (
		receipt *dompur.Receipt
		lastErr error
	)
	attempts, err := uc.policy.Do(ctx, func() error {
		if lastErr != nil {
			uc.conflicts.Add(1, observability.L("resolution", "retried"))
			call.Log.Debug("settlement_retry", observability.F("reason", lastErr.Error()))
		}
		receipt, lastErr = uc.settle(ctx, cmd)
		return lastErr
	}, dominv.ErrStale, domacc.ErrStale)
	call.With(observability.F("attempts", attempts))
	if err != nil {
		if isStale(err) {
			uc.conflicts.Add(1, observability.L("resolution", "exhausted"))
			return nil, fmt.Errorf("%w: %v", dompur.ErrConflict, err)
		}
		return nil, err
	}

	call.Event("purchase.settled",
		attribute.Int64("purchase.total_spent", receipt.TotalSpent),
		attribute.Int("product.stock", receipt.Product.Stock),
	)
	call.With(
		observability.F("total_spent", receipt.TotalSpent),
		observability.F("change_coins", receipt.Change.Count()),
	)

	// The settlement is committed; a lost event only costs a metric.
	pubCtx := context.WithoutCancel(ctx)
	if perr := uc.in.Publish(pubCtx, uc.publisher, uc.publishTimeout,
		dompur.NewSettledEvent(cmd.Caller.AccountID, cmd.Amount, receipt)); perr != nil {
		call.With(observability.F("settled_event_error", perr.Error()))
	}
	if receipt.Product.Stock == 0 {
		if perr := uc.in.Publish(pubCtx, uc.publisher, uc.publishTimeout,
			dominv.NewSoldOutEvent(&receipt.Product)); perr != nil {
			call.With(observability.F("sold_out_event_error", perr.Error()))
		}
	}

	return receipt, nil
}

func (uc *BuyUseCase) settle(ctx context.Context, cmd BuyCommand) (*dompur.Receipt, error) {
	product, err := uc.products.Get(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("purchase: load product: %w", err)
	}
	buyer, err := uc.accounts.Get(ctx, cmd.Caller.AccountID)
	if err != nil {
		return nil, fmt.Errorf("purchase: load buyer: %w", err)
	}

	receipt, err := dompur.Apply(buyer, product, cmd.Amount)
	if err != nil {
		return nil, err
	}
	if err := uc.settler.Settle(ctx, product, buyer); err != nil {
		return nil, fmt.Errorf("purchase: settle: %w", err)
	}
	receipt.Product = *product
	return receipt, nil
}

func isStale(err error) bool {
	return errors.Is(err, dominv.ErrStale) || errors.Is(err, domacc.ErrStale)
}
