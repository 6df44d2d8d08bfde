package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

// Holding is the weighted-average-cost position for one (symbol, account)
// pair. It is derived state: after every transaction mutation the row is
// rebuilt in full from the trade log and must never be edited by hand.
type Holding struct {
	ID        string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Symbol    string          `json:"symbol" gorm:"column:symbol;type:varchar(50);not null;uniqueIndex:idx_holdings_symbol_account"`
	Account   string          `json:"account" gorm:"column:account;type:varchar(100);not null;uniqueIndex:idx_holdings_symbol_account"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(30,18);not null"`
	AvgCost   decimal.Decimal `json:"avg_cost" gorm:"column:avg_cost;type:decimal(30,18);not null"`
	LastPrice decimal.Decimal `json:"last_price" gorm:"column:last_price;type:decimal(30,18);not null;default:0"`
	Currency  string          `json:"currency" gorm:"column:currency;type:varchar(10);not null"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Holding model
func (Holding) TableName() string {
	return "holdings"
}

// MarketValue returns quantity*lastPrice.
func (h *Holding) MarketValue() decimal.Decimal {
	return h.Quantity.Mul(h.LastPrice)
}

// CostValue returns quantity*avgCost.
func (h *Holding) CostValue() decimal.Decimal {
	return h.Quantity.Mul(h.AvgCost)
}

// ApplyBuy folds a buy into the position, re-averaging the cost across the
// combined quantity: (qty*avg + addQty*price + fee) / (qty+addQty).
func (h *Holding) ApplyBuy(quantity, price, fee decimal.Decimal) {
	newQty := h.Quantity.Add(quantity)
	if newQty.IsZero() {
		h.Quantity = decimal.Zero
		h.AvgCost = decimal.Zero
		return
	}
	totalCost := h.Quantity.Mul(h.AvgCost).Add(quantity.Mul(price)).Add(fee)
	h.AvgCost = totalCost.Div(newQty)
	h.Quantity = newQty
}

// ApplySell reduces the quantity without touching the average cost. When
// the position is fully closed the average cost resets to zero.
func (h *Holding) ApplySell(quantity decimal.Decimal) {
	h.Quantity = h.Quantity.Sub(quantity)
	if h.Quantity.Sign() <= 0 {
		h.Quantity = decimal.Zero
		h.AvgCost = decimal.Zero
	}
}

// CashAccount is a named cash balance. Only the current amount is stored;
// there is no historical ledger of cash movements, so historical
// valuations count the current amount for any date on or after the
// account's creation (a documented approximation).
type CashAccount struct {
	ID        string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Account   string          `json:"account" gorm:"column:account;type:varchar(100);not null;index"`
	Name      string          `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(30,18);not null"`
	Currency  string          `json:"currency" gorm:"column:currency;type:varchar(10);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the CashAccount model
func (CashAccount) TableName() string {
	return "cash_accounts"
}

// Validate validates the cash account data
func (c *CashAccount) Validate() error {
	if c.Account == "" {
		return &apperrors.ErrValidation{Field: "account", Message: "is required"}
	}
	if c.Name == "" {
		return &apperrors.ErrValidation{Field: "name", Message: "is required"}
	}
	if c.Amount.IsNegative() {
		return &apperrors.ErrValidation{Field: "amount", Message: "must be non-negative"}
	}
	if c.Currency == "" {
		return &apperrors.ErrValidation{Field: "currency", Message: "is required"}
	}
	return nil
}
