package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
)

func rawSnapshot(date time.Time, mv, cash int64) *models.RawSnapshot {
	return &models.RawSnapshot{
		Date:             date,
		Timestamp:        time.Now(),
		TotalMarketValue: decimal.NewFromInt(mv),
		CashBalance:      decimal.NewFromInt(cash),
		Currency:         "USD",
	}
}

func TestSnapshotRepository_SaveValuationCreatesDaily(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	daily, err := repo.SaveValuation(ctx, rawSnapshot(date, 1000, 200))
	require.NoError(t, err)
	assert.True(t, daily.TotalMarketValue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, daily.CashBalance.Equal(decimal.NewFromInt(200)))
	assert.True(t, daily.TotalValue().Equal(decimal.NewFromInt(1200)))
}

func TestSnapshotRepository_DailyIsMeanOfRaws(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := repo.SaveValuation(ctx, rawSnapshot(date, 100, 10))
	require.NoError(t, err)
	daily, err := repo.SaveValuation(ctx, rawSnapshot(date, 120, 30))
	require.NoError(t, err)

	// Two captures on the same date average to (100+120)/2 and (10+30)/2.
	assert.True(t, daily.TotalMarketValue.Equal(decimal.NewFromInt(110)))
	assert.True(t, daily.CashBalance.Equal(decimal.NewFromInt(20)))

	raws, err := repo.ListRawForDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, raws, 2)

	stored, err := repo.GetDaily(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.TotalMarketValue.Equal(decimal.NewFromInt(110)))
}

func TestSnapshotRepository_DatesDoNotMix(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()
	day1 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

	_, err := repo.SaveValuation(ctx, rawSnapshot(day1, 100, 0))
	require.NoError(t, err)
	daily2, err := repo.SaveValuation(ctx, rawSnapshot(day2, 300, 0))
	require.NoError(t, err)

	assert.True(t, daily2.TotalMarketValue.Equal(decimal.NewFromInt(300)))

	snaps, err := repo.ListDailyRange(ctx, day1, day2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Date.Before(snaps[1].Date))
}

func TestSnapshotRepository_ReplaceValuationSupersedesRaws(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	other := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

	_, err := repo.SaveValuation(ctx, rawSnapshot(date, 100, 10))
	require.NoError(t, err)
	_, err = repo.SaveValuation(ctx, rawSnapshot(date, 120, 30))
	require.NoError(t, err)
	_, err = repo.SaveValuation(ctx, rawSnapshot(other, 500, 0))
	require.NoError(t, err)

	daily, err := repo.ReplaceValuation(ctx, rawSnapshot(date, 300, 50))
	require.NoError(t, err)

	// The replacement stands alone; it does not average with the two
	// captures it cleared.
	assert.True(t, daily.TotalMarketValue.Equal(decimal.NewFromInt(300)))
	assert.True(t, daily.CashBalance.Equal(decimal.NewFromInt(50)))

	raws, err := repo.ListRawForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.True(t, raws[0].TotalMarketValue.Equal(decimal.NewFromInt(300)))

	// Other dates are untouched.
	otherDaily, err := repo.GetDaily(ctx, other)
	require.NoError(t, err)
	require.NotNil(t, otherDaily)
	assert.True(t, otherDaily.TotalMarketValue.Equal(decimal.NewFromInt(500)))
}

func TestSnapshotRepository_GetDailyMissingReturnsNil(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))

	daily, err := repo.GetDaily(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, daily)
}

func TestSnapshotRepository_DeleteAll(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := repo.SaveValuation(ctx, rawSnapshot(date, 100, 0))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAll(ctx))

	daily, err := repo.GetDaily(ctx, date)
	require.NoError(t, err)
	assert.Nil(t, daily)

	raws, err := repo.ListRawForDate(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestSnapshotRepository_PruneRawKeepsDaily(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()
	old := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	_, err := repo.SaveValuation(ctx, rawSnapshot(old, 100, 0))
	require.NoError(t, err)
	_, err = repo.SaveValuation(ctx, rawSnapshot(recent, 200, 0))
	require.NoError(t, err)

	pruned, err := repo.PruneRaw(ctx, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	raws, err := repo.ListRawForDate(ctx, old)
	require.NoError(t, err)
	assert.Empty(t, raws)

	// The daily aggregate for the pruned date survives.
	daily, err := repo.GetDaily(ctx, old)
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.True(t, daily.TotalMarketValue.Equal(decimal.NewFromInt(100)))
}
