package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawSnapshot is one valuation capture: a live refresh, a scheduled
// open/close capture, or one step of a historical backfill. Rows are
// append-only; they are never updated and are pruned after a retention
// window.
type RawSnapshot struct {
	ID               string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Date             time.Time       `json:"date" gorm:"column:date;not null;index"`
	Timestamp        time.Time       `json:"timestamp" gorm:"column:timestamp;not null"`
	TotalMarketValue decimal.Decimal `json:"total_market_value" gorm:"column:total_market_value;type:decimal(30,18);not null"`
	CashBalance      decimal.Decimal `json:"cash_balance" gorm:"column:cash_balance;type:decimal(30,18);not null"`
	Currency         string          `json:"currency" gorm:"column:currency;type:varchar(10);not null"`
}

// TableName returns the table name for the RawSnapshot model
func (RawSnapshot) TableName() string {
	return "raw_snapshots"
}

// DailySnapshot holds exactly one row per calendar date: the arithmetic
// mean of every raw snapshot sharing that date. It is upserted whenever
// the date's raw set changes, which absorbs repeated captures of the same
// day into one smoothed figure.
type DailySnapshot struct {
	Date             time.Time       `json:"date" gorm:"primaryKey;column:date"`
	TotalMarketValue decimal.Decimal `json:"total_market_value" gorm:"column:total_market_value;type:decimal(30,18);not null"`
	CashBalance      decimal.Decimal `json:"cash_balance" gorm:"column:cash_balance;type:decimal(30,18);not null"`
	Currency         string          `json:"currency" gorm:"column:currency;type:varchar(10);not null"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the DailySnapshot model
func (DailySnapshot) TableName() string {
	return "daily_snapshots"
}

// TotalValue returns market value plus cash.
func (s *DailySnapshot) TotalValue() decimal.Decimal {
	return s.TotalMarketValue.Add(s.CashBalance)
}

// Valuation is the result of one valuation run before persistence.
type Valuation struct {
	Date             time.Time       `json:"date"`
	TotalMarketValue decimal.Decimal `json:"total_market_value"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	Currency         string          `json:"currency"`
	Live             bool            `json:"live"`
}
