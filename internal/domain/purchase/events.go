package purchase

import (
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/coin"
)

// SettledEvent is emitted after a purchase has been committed.
type SettledEvent struct {
	BuyerID    string
	ProductID  string
	SellerID   string
	Amount     int
	TotalSpent int64
	Change     coin.Change
	OccurredAt time.Time
}

func (SettledEvent) EventName() string { return "purchase.settled" }

func NewSettledEvent(buyerID string, amount int, r *Receipt) SettledEvent {
	return SettledEvent{
		BuyerID:    buyerID,
		ProductID:  r.Product.ID,
		SellerID:   r.Product.SellerID,
		Amount:     amount,
		TotalSpent: r.TotalSpent,
		Change:     r.Change,
		OccurredAt: time.Now().UTC(),
	}
}
