package account

import "time"

// DepositedEvent is emitted after a coin has been credited to a buyer.
type DepositedEvent struct {
	AccountID  string
	Coin       int64
	Balance    int64
	OccurredAt time.Time
}

func (DepositedEvent) EventName() string { return "account.deposited" }

func NewDepositedEvent(a *Account, c int64) DepositedEvent {
	return DepositedEvent{
		AccountID:  a.ID,
		Coin:       c,
		Balance:    a.Balance,
		OccurredAt: time.Now().UTC(),
	}
}
