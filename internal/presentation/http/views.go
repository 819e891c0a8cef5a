package httppresentation

import (
	"time"

	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/coin"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	dompur "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
)

// Amounts are integer cents; the *_display fields carry the same value as a decimal string.

type accountView struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	Balance        int64     `json:"balance"`
	BalanceDisplay string    `json:"balance_display"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newAccountView(a *domacc.Account) accountView {
	return accountView{
		ID:             a.ID,
		Username:       a.Username,
		Role:           string(a.Role),
		Balance:        a.Balance,
		BalanceDisplay: coin.Format(a.Balance),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type productView struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Name        string    `json:"name"`
	Cost        int64     `json:"cost"`
	CostDisplay string    `json:"cost_display"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductView(p *dominv.Product) productView {
	return productView{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Cost:        p.Cost,
		CostDisplay: coin.Format(p.Cost),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type receiptView struct {
	TotalSpent        int64       `json:"total_spent"`
	TotalSpentDisplay string      `json:"total_spent_display"`
	Change            coin.Change `json:"change"`
	Denominations     []int64     `json:"denominations"`
	ChangeDisplay     string      `json:"change_display"`
	Product           productView `json:"product"`
}

func newReceiptView(r *dompur.Receipt) receiptView {
	return receiptView{
		TotalSpent:        r.TotalSpent,
		TotalSpentDisplay: coin.Format(r.TotalSpent),
		Change:            r.Change,
		Denominations:     coin.Denominations[:],
		ChangeDisplay:     coin.Format(r.Change.Total()),
		Product:           newProductView(&r.Product),
	}
}

type balanceView struct {
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

func newBalanceView(cents int64) balanceView {
	return balanceView{Balance: cents, BalanceDisplay: coin.Format(cents)}
}
