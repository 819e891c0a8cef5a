package sales

import (
	"context"
	"strconv"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/coin"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	dompur "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	salesService         = "sales-service"
	useCaseRecordSale    = "sales.record_sale"
	useCaseRecordDeposit = "sales.record_deposit"
	useCaseRecordSoldOut = "sales.record_sold_out"
)

// Ledger turns committed settlements and deposits into business metrics.
type Ledger struct {
	in          application.Instruments
	unitsSold   observability.Counter // units_sold_total{product_id}
	changeCoins observability.Counter // change_coins_total{denomination}
	deposited   observability.Counter // deposits_cents_total{coin}
}

func NewLedger(tel observability.Observability) *Ledger {
	in := application.NewInstruments(salesService, tel)
	m := in.Metrics()
	return &Ledger{
		in:          in,
		unitsSold:   m.Counter(observability.MUnitsSold),
		changeCoins: m.Counter(observability.MChangeCoins),
		deposited:   m.Counter(observability.MDepositedCents),
	}
}

// RecordSale counts sold units and every coin handed back.
func (l *Ledger) RecordSale(ctx context.Context, e dompur.SettledEvent) (err error) {
	ctx, call := l.in.Begin(ctx, useCaseRecordSale, "RecordSale",
		attribute.String("product.id", e.ProductID),
		attribute.Int("purchase.amount", e.Amount),
	)
	call.With(
		observability.F("buyer_id", e.BuyerID),
		observability.F("product_id", e.ProductID),
		observability.F("amount", e.Amount),
		observability.F("total_spent", coin.Format(e.TotalSpent)),
	)
	defer func() { call.End(ctx, err) }()

	l.unitsSold.Add(float64(e.Amount), observability.L("product_id", e.ProductID))
	for i, n := range e.Change {
		if n == 0 {
			continue
		}
		l.changeCoins.Add(float64(n), observability.L("denomination", strconv.FormatInt(coin.Denominations[i], 10)))
	}
	return nil
}

func (l *Ledger) RecordDeposit(ctx context.Context, e domacc.DepositedEvent) (err error) {
	ctx, call := l.in.Begin(ctx, useCaseRecordDeposit, "RecordDeposit",
		attribute.Int64("deposit.coin", e.Coin),
	)
	call.With(
		observability.F("account_id", e.AccountID),
		observability.F("coin", e.Coin),
		observability.F("balance", coin.Format(e.Balance)),
	)
	defer func() { call.End(ctx, err) }()

	l.deposited.Add(float64(e.Coin), observability.L("coin", strconv.FormatInt(e.Coin, 10)))
	return nil
}

// RecordSoldOut only logs; restocking is left to the seller.
func (l *Ledger) RecordSoldOut(ctx context.Context, e dominv.SoldOutEvent) (err error) {
	ctx, call := l.in.Begin(ctx, useCaseRecordSoldOut, "RecordSoldOut",
		attribute.String("product.id", e.ProductID),
	)
	call.With(
		observability.F("product_id", e.ProductID),
		observability.F("seller_id", e.SellerID),
	)
	defer func() { call.End(ctx, err) }()

	call.Log.Warn("product_sold_out",
		observability.F("product_id", e.ProductID),
		observability.F("seller_id", e.SellerID),
	)
	return nil
}
