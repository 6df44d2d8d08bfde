package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

type holdingRepository struct {
	db *db.DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(database *db.DB) HoldingRepository {
	return &holdingRepository{db: database}
}

func (r *holdingRepository) Upsert(ctx context.Context, holding *models.Holding) error {
	if holding.ID == "" {
		holding.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "avg_cost", "last_price", "currency", "updated_at",
		}),
	}).Create(holding).Error
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

func (r *holdingRepository) Get(ctx context.Context, symbol, account string) (*models.Holding, error) {
	var holding models.Holding
	err := r.db.WithContext(ctx).
		First(&holding, "symbol = ? AND account = ?", symbol, account).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &apperrors.ErrNotFound{Entity: "holding", ID: symbol + "/" + account}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &holding, nil
}

func (r *holdingRepository) List(ctx context.Context, accounts []string) ([]*models.Holding, error) {
	query := r.db.WithContext(ctx)
	if len(accounts) > 0 {
		query = query.Where("account IN ?", accounts)
	}
	var holdings []*models.Holding
	if err := query.Order("symbol ASC, account ASC").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

func (r *holdingRepository) Delete(ctx context.Context, symbol, account string) error {
	err := r.db.WithContext(ctx).
		Delete(&models.Holding{}, "symbol = ? AND account = ?", symbol, account).Error
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

type cashAccountRepository struct {
	db *db.DB
}

// NewCashAccountRepository creates a new cash account repository
func NewCashAccountRepository(database *db.DB) CashAccountRepository {
	return &cashAccountRepository{db: database}
}

func (r *cashAccountRepository) Create(ctx context.Context, account *models.CashAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create cash account: %w", err)
	}
	return nil
}

func (r *cashAccountRepository) GetByID(ctx context.Context, id string) (*models.CashAccount, error) {
	var account models.CashAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperrors.ErrNotFound{Entity: "cash account", ID: id}
		}
		return nil, fmt.Errorf("failed to get cash account: %w", err)
	}
	return &account, nil
}

func (r *cashAccountRepository) Update(ctx context.Context, account *models.CashAccount) error {
	result := r.db.WithContext(ctx).Model(&models.CashAccount{}).
		Where("id = ?", account.ID).
		Select("account", "name", "amount", "currency", "updated_at").
		Updates(account)
	if result.Error != nil {
		return fmt.Errorf("failed to update cash account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.ErrNotFound{Entity: "cash account", ID: account.ID}
	}
	return nil
}

func (r *cashAccountRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.CashAccount{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete cash account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.ErrNotFound{Entity: "cash account", ID: id}
	}
	return nil
}

func (r *cashAccountRepository) List(ctx context.Context, accounts []string) ([]*models.CashAccount, error) {
	query := r.db.WithContext(ctx)
	if len(accounts) > 0 {
		query = query.Where("account IN ?", accounts)
	}
	var result []*models.CashAccount
	if err := query.Order("account ASC, name ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list cash accounts: %w", err)
	}
	return result, nil
}
