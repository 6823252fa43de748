package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
	pgstore "cashflow-lab/internal/storage/postgres"
)

func testRecord(projectID string, day int) *domain.DailyRecord {
	return &domain.DailyRecord{
		Date:               time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		ProjectID:          projectID,
		RevenueRecognized:  200000,
		COGSExpense:        150000,
		ActualInflow:       95000.5,
		ActualOutflow:      60000.25,
		AccountsReceivable: 105000,
		AccountsPayable:    89999.75,
		AccruedExpenses:    89999.75,
		CurrentLiabilities: 179999.5,
		OpeningCash:        500000,
		ClosingCash:        535000.25,
		NetCashFlow:        35000.25,
		ReserveBuffer:      37500,
	}
}

func TestDailyRecordStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	want := testRecord("PJT_A", 0)
	require.NoError(t, store.Insert(ctx, "run1", want))

	got, err := store.GetByKey(ctx, "run1", "PJT_A", want.Date)
	require.NoError(t, err)

	require.True(t, got.Date.Equal(want.Date), "date mismatch: %v vs %v", got.Date, want.Date)
	got.Date = want.Date
	require.Equal(t, want, got)
}

func TestDailyRecordStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	require.NoError(t, store.Insert(ctx, "run1", testRecord("PJT_A", 0)))
	require.ErrorIs(t, store.Insert(ctx, "run1", testRecord("PJT_A", 0)), storage.ErrDuplicateKey)

	// Same project/date under a different run id is a distinct key.
	require.NoError(t, store.Insert(ctx, "run2", testRecord("PJT_A", 0)))
}

func TestDailyRecordStore_GetByKeyNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	_, err := store.GetByKey(ctx, "run1", "PJT_A", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDailyRecordStore_InsertBulkRollsBackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	require.NoError(t, store.Insert(ctx, "run1", testRecord("PJT_A", 2)))

	batch := []*domain.DailyRecord{testRecord("PJT_A", 0), testRecord("PJT_A", 2)}
	require.ErrorIs(t, store.InsertBulk(ctx, "run1", batch), storage.ErrDuplicateKey)

	recs, err := store.GetByProject(ctx, "run1", "PJT_A")
	require.NoError(t, err)
	require.Len(t, recs, 1, "failed bulk must not leave partial rows")
}

func TestDailyRecordStore_GetByProjectOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	batch := []*domain.DailyRecord{
		testRecord("PJT_A", 8),
		testRecord("PJT_A", 1),
		testRecord("PJT_A", 4),
		testRecord("PJT_B", 1),
	}
	require.NoError(t, store.InsertBulk(ctx, "run1", batch))

	recs, err := store.GetByProject(ctx, "run1", "PJT_A")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i := 1; i < len(recs); i++ {
		require.True(t, recs[i-1].Date.Before(recs[i].Date), "records not ordered by date ASC")
	}
}

func TestDailyRecordStore_GetByRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	batch := []*domain.DailyRecord{
		testRecord("PJT_A", 0),
		testRecord("PJT_A", 1),
		testRecord("PJT_B", 0),
	}
	require.NoError(t, store.InsertBulk(ctx, "run1", batch))
	require.NoError(t, store.Insert(ctx, "run2", testRecord("PJT_C", 0)))

	run, err := store.GetByRun(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, run, 2)
	require.Len(t, run["PJT_A"], 2)
	require.Len(t, run["PJT_B"], 1)
	require.NotContains(t, run, "PJT_C")
}

func TestDailyRecordStore_GetByDateRangeInclusive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewDailyRecordStore(pool)

	var batch []*domain.DailyRecord
	for day := 0; day < 10; day++ {
		batch = append(batch, testRecord("PJT_A", day))
	}
	require.NoError(t, store.InsertBulk(ctx, "run1", batch))

	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 1, 6, 0, 0, 0, 0, time.UTC)
	recs, err := store.GetByDateRange(ctx, "run1", "PJT_A", start, end)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	require.True(t, recs[0].Date.Equal(start))
	require.True(t, recs[len(recs)-1].Date.Equal(end))
}
