package repositories

import (
	"context"
	"time"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

// TransactionRepository defines persistence for the trade log.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error)
	Count(ctx context.Context, filter *models.TransactionFilter) (int64, error)

	// ListForPosition returns the full history of one (symbol, account)
	// pair in trade-date order, optionally cut off at until (inclusive).
	ListForPosition(ctx context.Context, symbol, account string, until *time.Time) ([]*models.Transaction, error)
	// ListUntil returns every transaction with trade_date <= until in
	// trade-date order, for whole-portfolio replay.
	ListUntil(ctx context.Context, until time.Time) ([]*models.Transaction, error)
	FirstTradeDate(ctx context.Context) (*time.Time, error)
	CountOnDay(ctx context.Context, dayStart, dayEnd time.Time) (int64, error)
}

// HoldingRepository defines persistence for derived holdings.
type HoldingRepository interface {
	Upsert(ctx context.Context, holding *models.Holding) error
	Get(ctx context.Context, symbol, account string) (*models.Holding, error)
	List(ctx context.Context, accounts []string) ([]*models.Holding, error)
	Delete(ctx context.Context, symbol, account string) error
}

// CashAccountRepository defines persistence for cash balances.
type CashAccountRepository interface {
	Create(ctx context.Context, account *models.CashAccount) error
	GetByID(ctx context.Context, id string) (*models.CashAccount, error)
	Update(ctx context.Context, account *models.CashAccount) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, accounts []string) ([]*models.CashAccount, error)
}

// SnapshotRepository defines persistence for valuation snapshots. The
// raw insert and the daily mean upsert commit as one unit.
type SnapshotRepository interface {
	// SaveValuation appends a raw capture and re-averages the daily row.
	SaveValuation(ctx context.Context, raw *models.RawSnapshot) (*models.DailySnapshot, error)
	// ReplaceValuation drops every raw capture for the raw's date before
	// inserting, so a historical reconstruction supersedes stale captures
	// instead of averaging with them.
	ReplaceValuation(ctx context.Context, raw *models.RawSnapshot) (*models.DailySnapshot, error)
	GetDaily(ctx context.Context, date time.Time) (*models.DailySnapshot, error)
	ListDailyRange(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error)
	ListRawForDate(ctx context.Context, date time.Time) ([]*models.RawSnapshot, error)
	DeleteAll(ctx context.Context) error
	PruneRaw(ctx context.Context, olderThan time.Time) (int64, error)
}
