package adapters

import (
	"context"
	"testing"
	"time"

	"ticker_sweep/internal/feature/ledger/domain"
	"ticker_sweep/internal/feature/ledger/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&TickerModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func TestNewLedgerRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewLedgerRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestTickerGorm_Upsert_Idempotent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	ticker := entity.Ticker{
		Symbol:   "AAPL",
		Status:   entity.StatusActive,
		Price:    floatPtr(232.5),
		Exchange: strPtr("NasdaqGS"),
		Currency: "USD",
	}

	require.NoError(t, repo.Upsert(ctx, ticker))
	require.NoError(t, repo.Upsert(ctx, ticker))

	var count int64
	db.Model(&TickerModel{}).Count(&count)
	assert.Equal(t, int64(1), count, "duplicate upsert must not create a second row")

	got, err := repo.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status)
	require.NotNil(t, got.Price)
	assert.Equal(t, 232.5, *got.Price)
	require.NotNil(t, got.Exchange)
	assert.Equal(t, "NasdaqGS", *got.Exchange)
	require.NotNil(t, got.LastChecked, "upsert must stamp last_checked")
}

// TestTickerGorm_Upsert_StatusTransition はactive→delistedの遷移で
// 古いactive価格が残らないことを検証します。
func TestTickerGorm_Upsert_StatusTransition(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, entity.Ticker{
		Symbol: "ABC",
		Status: entity.StatusActive,
		Price:  floatPtr(10),
	}))
	require.NoError(t, repo.Upsert(ctx, entity.Ticker{
		Symbol: "ABC",
		Status: entity.StatusDelisted,
	}))

	got, err := repo.Get(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDelisted, got.Status)
	assert.Nil(t, got.Price, "stale active price must be cleared on delist")

	var count int64
	db.Model(&TickerModel{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTickerGorm_Upsert_InvalidStatus(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)

	err := repo.Upsert(context.Background(), entity.Ticker{Symbol: "X", Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestTickerGorm_Get_NotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)

	_, err := repo.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrTickerNotFound)
}

func TestTickerGorm_ListByStatus_Ordered(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	// 逆順で投入してもシンボル昇順で返ること
	for _, sym := range []string{"ZZ", "B", "AA", "A"} {
		require.NoError(t, repo.Upsert(ctx, entity.Ticker{
			Symbol: sym,
			Status: entity.StatusActive,
			Price:  floatPtr(1),
		}))
	}
	require.NoError(t, repo.Upsert(ctx, entity.Ticker{Symbol: "C", Status: entity.StatusDelisted}))

	got, err := repo.ListByStatus(ctx, entity.StatusActive)
	require.NoError(t, err)

	symbols := make([]string, 0, len(got))
	for _, tk := range got {
		symbols = append(symbols, tk.Symbol)
	}
	assert.Equal(t, []string{"A", "AA", "B", "ZZ"}, symbols)
}

func TestTickerGorm_Stats(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, entity.Ticker{Symbol: "A", Status: entity.StatusActive, Price: floatPtr(100)}))
	require.NoError(t, repo.Upsert(ctx, entity.Ticker{Symbol: "B", Status: entity.StatusActive, Price: floatPtr(55)}))
	require.NoError(t, repo.Upsert(ctx, entity.Ticker{Symbol: "C", Status: entity.StatusDelisted}))
	require.NoError(t, repo.BulkInsertUnvalidated(ctx, []string{"D", "E"}))

	s, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.Total)
	assert.Equal(t, int64(2), s.Active)
	assert.Equal(t, int64(1), s.Delisted)
	assert.Equal(t, int64(2), s.Unvalidated)
	assert.Equal(t, int64(3), s.Validated, "unvalidated rows must not count as validated")
}

func TestTickerGorm_WasCheckedWithin(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("fresh right after upsert", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, entity.Ticker{Symbol: "ABC", Status: entity.StatusActive, Price: floatPtr(10)}))

		fresh, elapsed, err := repo.WasCheckedWithin(ctx, "ABC", 24*time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
		assert.Less(t, elapsed, time.Minute)
	})

	t.Run("stale beyond the window", func(t *testing.T) {
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, repo.Upsert(ctx, entity.Ticker{
			Symbol:      "OLD",
			Status:      entity.StatusDelisted,
			LastChecked: &old,
		}))

		fresh, elapsed, err := repo.WasCheckedWithin(ctx, "OLD", 24*time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
		assert.Greater(t, elapsed, 24*time.Hour)
	})

	t.Run("missing row is not fresh", func(t *testing.T) {
		fresh, _, err := repo.WasCheckedWithin(ctx, "NOPE", 24*time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("unvalidated row is not fresh", func(t *testing.T) {
		require.NoError(t, repo.BulkInsertUnvalidated(ctx, []string{"GEN"}))

		fresh, _, err := repo.WasCheckedWithin(ctx, "GEN", 24*time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
	})
}

func TestTickerGorm_BulkInsertUnvalidated(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	// 検証済み行は一括生成で巻き戻されないこと
	require.NoError(t, repo.Upsert(ctx, entity.Ticker{Symbol: "A", Status: entity.StatusActive, Price: floatPtr(100)}))

	require.NoError(t, repo.BulkInsertUnvalidated(ctx, []string{"A", "B", "C"}))

	got, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status, "bulk generator must not downgrade a validated row")

	s, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Total)
	assert.Equal(t, int64(2), s.Unvalidated)

	assert.NoError(t, repo.BulkInsertUnvalidated(ctx, nil), "empty batch is a no-op")
}
