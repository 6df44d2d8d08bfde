package services

import (
	"context"
	"time"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

// LedgerService defines the interface for transaction log operations.
// Every successful mutation rebuilds the affected holdings and triggers a
// best-effort forward recompute of the snapshot history.
type LedgerService interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	// UpdateTransaction applies a partial edit to the stored transaction
	// and returns the merged result.
	UpdateTransaction(ctx context.Context, id string, update *models.TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	CountTransactions(ctx context.Context, filter *models.TransactionFilter) (int64, error)

	// RecomputeHolding replays the full (symbol, account) history and
	// rewrites the derived holding row.
	RecomputeHolding(ctx context.Context, symbol, account string) error
}

// CashService defines the interface for cash account operations
type CashService interface {
	CreateCashAccount(ctx context.Context, account *models.CashAccount) error
	GetCashAccount(ctx context.Context, id string) (*models.CashAccount, error)
	UpdateCashAccount(ctx context.Context, account *models.CashAccount) error
	DeleteCashAccount(ctx context.Context, id string) error
	ListCashAccounts(ctx context.Context, accounts []string) ([]*models.CashAccount, error)
}

// ValuationService computes the portfolio value for one calendar date and
// persists the resulting snapshot.
type ValuationService interface {
	// ComputeLive values current holdings at fresh quotes plus cash. A
	// snapshot is persisted only for whole-portfolio runs (no account
	// filter), so partial views never pollute the canonical history.
	ComputeLive(ctx context.Context, accounts []string) (*models.Valuation, error)
	// ComputeHistorical reconstructs holdings as of the given date by
	// replaying the trade log and prices them via the market data
	// gateway with the full fallback chain.
	ComputeHistorical(ctx context.Context, date time.Time) (*models.Valuation, error)
}

// RecomputeTrigger is the narrow hook the ledger uses to kick off a
// forward recompute without depending on the full recompute service.
type RecomputeTrigger interface {
	RecalculateFrom(date time.Time)
}

// RecomputeService walks the snapshot history forward from a trigger
// date. Runs are serialized: at most one cascade is in flight, and
// triggers arriving mid-run coalesce into a follow-up pass starting from
// the earliest requested date.
type RecomputeService interface {
	RecomputeTrigger
	// RebuildAll wipes the snapshot store and replays from the earliest
	// transaction date. Explicit operation; never auto-triggered.
	RebuildAll(ctx context.Context) error
	Status() models.RecomputeStatus
	// Stop cancels any in-flight run.
	Stop()
	// Wait blocks until the current run (and any coalesced follow-up)
	// finishes. Used on shutdown and in tests.
	Wait()
}

// AnalyticsService builds read-side views from the snapshot history.
type AnalyticsService interface {
	GetOverview(ctx context.Context, accounts []string) (*models.Overview, error)
	GetNetValueCurve(ctx context.Context, from, to time.Time, accounts []string) ([]*models.NetValuePoint, error)
	CalculateStats(ctx context.Context, from, to time.Time) (*models.PortfolioStats, error)
}
