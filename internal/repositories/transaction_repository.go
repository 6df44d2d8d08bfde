package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{db: database}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	if id == "" {
		return nil, &apperrors.ErrNotFound{Entity: "transaction", ID: id}
	}
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperrors.ErrNotFound{Entity: "transaction", ID: id}
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", tx.ID).
		Select("account", "symbol", "side", "price", "quantity", "fee", "currency", "trade_date", "updated_at").
		Updates(tx)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.ErrNotFound{Entity: "transaction", ID: tx.ID}
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.ErrNotFound{Entity: "transaction", ID: id}
	}
	return nil
}

func (r *transactionRepository) List(ctx context.Context, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	query := r.applyFilter(r.db.WithContext(ctx), filter)
	query = query.Order("trade_date DESC, created_at DESC")

	if filter != nil {
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}

	var txs []*models.Transaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) Count(ctx context.Context, filter *models.TransactionFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Transaction{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *transactionRepository) ListForPosition(ctx context.Context, symbol, account string, until *time.Time) ([]*models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("symbol = ? AND account = ?", symbol, account)
	if until != nil {
		query = query.Where("trade_date <= ?", *until)
	}

	var txs []*models.Transaction
	if err := query.Order("trade_date ASC, created_at ASC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list position transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) ListUntil(ctx context.Context, until time.Time) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("trade_date <= ?", until).
		Order("trade_date ASC, created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions until %s: %w", until.Format("2006-01-02"), err)
	}
	return txs, nil
}

func (r *transactionRepository) FirstTradeDate(ctx context.Context) (*time.Time, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Order("trade_date ASC").First(&tx).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first trade date: %w", err)
	}
	return &tx.TradeDate, nil
}

func (r *transactionRepository) CountOnDay(ctx context.Context, dayStart, dayEnd time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("trade_date >= ? AND trade_date <= ?", dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions on day: %w", err)
	}
	return count, nil
}

func (r *transactionRepository) applyFilter(query *gorm.DB, filter *models.TransactionFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.StartDate != nil {
		query = query.Where("trade_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("trade_date <= ?", *filter.EndDate)
	}
	if len(filter.Symbols) > 0 {
		query = query.Where("symbol IN ?", filter.Symbols)
	}
	if len(filter.Accounts) > 0 {
		query = query.Where("account IN ?", filter.Accounts)
	}
	if len(filter.Sides) > 0 {
		query = query.Where("side IN ?", filter.Sides)
	}
	return query
}
