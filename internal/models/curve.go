package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetValuePoint is one point of the net-value curve. Points are produced
// on read and never persisted.
type NetValuePoint struct {
	Date       time.Time       `json:"date"`
	TotalValue decimal.Decimal `json:"total_value"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	StockValue decimal.Decimal `json:"stock_value"`
	CashValue  decimal.Decimal `json:"cash_value"`
	PnLPct     decimal.Decimal `json:"pnl_pct"`
}

// PortfolioStats summarizes a snapshot range. Drawdown, volatility and
// Sharpe are computed on the stock-value sub-series so idle cash neither
// masks nor exaggerates equity risk.
type PortfolioStats struct {
	Period         Period          `json:"period"`
	TotalReturn    decimal.Decimal `json:"total_return"`
	TotalReturnPct decimal.Decimal `json:"total_return_pct"`
	MaxDrawdown    decimal.Decimal `json:"max_drawdown"`
	Volatility     decimal.Decimal `json:"volatility"`
	SharpeRatio    decimal.Decimal `json:"sharpe_ratio"`
	TradingDays    int             `json:"trading_days"`
}

// Period represents a time period for analytics
type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Overview is the current state of the portfolio: live totals plus the
// per-position breakdown.
type Overview struct {
	TotalValue  decimal.Decimal `json:"total_value"`
	StockValue  decimal.Decimal `json:"stock_value"`
	CashValue   decimal.Decimal `json:"cash_value"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	PnL         decimal.Decimal `json:"pnl"`
	PnLPct      decimal.Decimal `json:"pnl_pct"`
	Currency    string          `json:"currency"`
	Holdings    []*Holding      `json:"holdings"`
	LastUpdated time.Time       `json:"last_updated"`
}

// RecomputeState enumerates recompute job states.
type RecomputeState string

const (
	RecomputeIdle      RecomputeState = "idle"
	RecomputeRunning   RecomputeState = "running"
	RecomputeCancelled RecomputeState = "cancelled"
	RecomputeFailed    RecomputeState = "failed"
	RecomputeDone      RecomputeState = "done"
)

// RecomputeStatus is a point-in-time view of the background recompute
// runner, safe to hand to transport layers.
type RecomputeStatus struct {
	State         RecomputeState `json:"state"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	CurrentDate   *time.Time     `json:"current_date,omitempty"`
	ProcessedDays int            `json:"processed_days"`
	TotalDays     int            `json:"total_days"`
	Error         string         `json:"error,omitempty"`
}
