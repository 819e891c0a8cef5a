package inventory

import "time"

// SoldOutEvent is emitted when a settlement takes a product's stock to zero.
type SoldOutEvent struct {
	ProductID  string
	SellerID   string
	OccurredAt time.Time
}

func (SoldOutEvent) EventName() string { return "inventory.sold_out" }

func NewSoldOutEvent(p *Product) SoldOutEvent {
	return SoldOutEvent{
		ProductID:  p.ID,
		SellerID:   p.SellerID,
		OccurredAt: time.Now().UTC(),
	}
}
