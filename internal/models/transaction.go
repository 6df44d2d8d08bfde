package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

// Transaction sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Transaction is a single immutable entry in the trade log. Rows are
// created, edited and deleted only through the ledger service; derived
// state (holdings, snapshots) is always recomputed from the log, never
// the other way around.
type Transaction struct {
	ID        string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Account   string          `json:"account" gorm:"column:account;type:varchar(100);not null;index"`
	Symbol    string          `json:"symbol" gorm:"column:symbol;type:varchar(50);not null;index"`
	Side      string          `json:"side" gorm:"column:side;type:varchar(10);not null"`
	Price     decimal.Decimal `json:"price" gorm:"column:price;type:decimal(30,18);not null"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(30,18);not null"`
	Fee       decimal.Decimal `json:"fee" gorm:"column:fee;type:decimal(30,18);not null;default:0"`
	Currency  string          `json:"currency" gorm:"column:currency;type:varchar(10);not null"`
	TradeDate time.Time       `json:"trade_date" gorm:"column:trade_date;not null;index"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionUpdate is a partial edit of a transaction. Pointer fields
// distinguish "leave unchanged" (nil) from an explicit new value, so a
// fee can be updated back to zero.
type TransactionUpdate struct {
	Account   *string          `json:"account"`
	Symbol    *string          `json:"symbol"`
	Side      *string          `json:"side"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  *decimal.Decimal `json:"quantity"`
	Fee       *decimal.Decimal `json:"fee"`
	Currency  *string          `json:"currency"`
	TradeDate *time.Time       `json:"trade_date"`
}

// Apply returns a copy of tx with the set fields overwritten.
func (u *TransactionUpdate) Apply(tx *Transaction) *Transaction {
	merged := *tx
	if u.Account != nil {
		merged.Account = *u.Account
	}
	if u.Symbol != nil {
		merged.Symbol = *u.Symbol
	}
	if u.Side != nil {
		merged.Side = *u.Side
	}
	if u.Price != nil {
		merged.Price = *u.Price
	}
	if u.Quantity != nil {
		merged.Quantity = *u.Quantity
	}
	if u.Fee != nil {
		merged.Fee = *u.Fee
	}
	if u.Currency != nil {
		merged.Currency = *u.Currency
	}
	if u.TradeDate != nil {
		merged.TradeDate = *u.TradeDate
	}
	return &merged
}

// TransactionFilter represents filters for querying transactions
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Symbols   []string
	Accounts  []string
	Sides     []string
	Limit     int
	Offset    int
}

// Validate validates the transaction data
func (t *Transaction) Validate() error {
	if t.Account == "" {
		return &apperrors.ErrValidation{Field: "account", Message: "is required"}
	}
	if t.Symbol == "" {
		return &apperrors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return &apperrors.ErrValidation{Field: "side", Message: "must be 'buy' or 'sell'"}
	}
	if !t.Price.IsPositive() {
		return &apperrors.ErrValidation{Field: "price", Message: "must be positive"}
	}
	if !t.Quantity.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be positive"}
	}
	if t.Fee.IsNegative() {
		return &apperrors.ErrValidation{Field: "fee", Message: "must be non-negative"}
	}
	if t.Currency == "" {
		return &apperrors.ErrValidation{Field: "currency", Message: "is required"}
	}
	if t.TradeDate.IsZero() {
		return &apperrors.ErrValidation{Field: "trade_date", Message: "is required"}
	}
	return nil
}

// GrossAmount returns price*quantity without fees.
func (t *Transaction) GrossAmount() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// CostAmount returns the cash committed by the transaction: price*quantity
// plus fee for buys, price*quantity for sells.
func (t *Transaction) CostAmount() decimal.Decimal {
	if t.Side == SideBuy {
		return t.GrossAmount().Add(t.Fee)
	}
	return t.GrossAmount()
}
