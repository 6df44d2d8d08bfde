package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

type snapshotRepository struct {
	db *db.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(database *db.DB) SnapshotRepository {
	return &snapshotRepository{db: database}
}

// SaveValuation appends one raw snapshot and re-derives the daily
// snapshot for its date as the mean of all same-date raw rows. Both
// writes commit in a single database transaction so readers never see a
// raw row without its daily aggregate.
func (r *snapshotRepository) SaveValuation(ctx context.Context, raw *models.RawSnapshot) (*models.DailySnapshot, error) {
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	if raw.Timestamp.IsZero() {
		raw.Timestamp = time.Now()
	}

	var daily *models.DailySnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(raw).Error; err != nil {
			return fmt.Errorf("failed to insert raw snapshot: %w", err)
		}

		var raws []*models.RawSnapshot
		if err := tx.Where("date = ?", raw.Date).Find(&raws).Error; err != nil {
			return fmt.Errorf("failed to load raw snapshots for date: %w", err)
		}

		totalMV := decimal.Zero
		totalCash := decimal.Zero
		for _, rs := range raws {
			totalMV = totalMV.Add(rs.TotalMarketValue)
			totalCash = totalCash.Add(rs.CashBalance)
		}
		n := decimal.NewFromInt(int64(len(raws)))

		daily = &models.DailySnapshot{
			Date:             raw.Date,
			TotalMarketValue: totalMV.Div(n),
			CashBalance:      totalCash.Div(n),
			Currency:         raw.Currency,
			UpdatedAt:        time.Now(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_market_value", "cash_balance", "currency", "updated_at",
			}),
		}).Create(daily).Error
		if err != nil {
			return fmt.Errorf("failed to upsert daily snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return daily, nil
}

// ReplaceValuation deletes all raw snapshots for the raw's date and
// inserts this one as the sole capture, making the daily snapshot equal
// to it. Used by historical reconstruction, which supersedes whatever
// was captured for that date before; live captures append instead.
func (r *snapshotRepository) ReplaceValuation(ctx context.Context, raw *models.RawSnapshot) (*models.DailySnapshot, error) {
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	if raw.Timestamp.IsZero() {
		raw.Timestamp = time.Now()
	}

	var daily *models.DailySnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date = ?", raw.Date).Delete(&models.RawSnapshot{}).Error; err != nil {
			return fmt.Errorf("failed to clear raw snapshots for date: %w", err)
		}
		if err := tx.Create(raw).Error; err != nil {
			return fmt.Errorf("failed to insert raw snapshot: %w", err)
		}

		daily = &models.DailySnapshot{
			Date:             raw.Date,
			TotalMarketValue: raw.TotalMarketValue,
			CashBalance:      raw.CashBalance,
			Currency:         raw.Currency,
			UpdatedAt:        time.Now(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_market_value", "cash_balance", "currency", "updated_at",
			}),
		}).Create(daily).Error
		if err != nil {
			return fmt.Errorf("failed to upsert daily snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return daily, nil
}

func (r *snapshotRepository) GetDaily(ctx context.Context, date time.Time) (*models.DailySnapshot, error) {
	var daily models.DailySnapshot
	err := r.db.WithContext(ctx).First(&daily, "date = ?", date).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily snapshot: %w", err)
	}
	return &daily, nil
}

func (r *snapshotRepository) ListDailyRange(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error) {
	var snaps []*models.DailySnapshot
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list daily snapshots: %w", err)
	}
	return snaps, nil
}

func (r *snapshotRepository) ListRawForDate(ctx context.Context, date time.Time) ([]*models.RawSnapshot, error) {
	var raws []*models.RawSnapshot
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("timestamp ASC").
		Find(&raws).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list raw snapshots: %w", err)
	}
	return raws, nil
}

func (r *snapshotRepository) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.RawSnapshot{}).Error; err != nil {
			return fmt.Errorf("failed to delete raw snapshots: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.DailySnapshot{}).Error; err != nil {
			return fmt.Errorf("failed to delete daily snapshots: %w", err)
		}
		return nil
	})
	return err
}

// PruneRaw deletes raw snapshots older than the cutoff. Daily snapshots
// are kept; they are the canonical per-date record.
func (r *snapshotRepository) PruneRaw(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("date < ?", olderThan).Delete(&models.RawSnapshot{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune raw snapshots: %w", result.Error)
	}
	return result.RowsAffected, nil
}
