package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// DailyRecordStore implements storage.DailyRecordStore using PostgreSQL.
type DailyRecordStore struct {
	pool *Pool
}

// NewDailyRecordStore creates a new DailyRecordStore.
func NewDailyRecordStore(pool *Pool) *DailyRecordStore {
	return &DailyRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailyRecordStore = (*DailyRecordStore)(nil)

const dailyRecordColumns = `
	run_id, project_id, date,
	expected_inflow, expected_outflow,
	revenue_recognized, cogs_expense,
	actual_inflow, actual_outflow,
	accounts_receivable, accounts_payable, accrued_expenses, current_liabilities,
	opening_cash, closing_cash, net_cash_flow, reserve_buffer
`

const insertDailyRecordQuery = `
	INSERT INTO daily_records (` + dailyRecordColumns + `
	) VALUES (
		$1, $2, $3,
		$4, $5,
		$6, $7,
		$8, $9,
		$10, $11, $12, $13,
		$14, $15, $16, $17
	)
`

// Insert adds a single record. Returns ErrDuplicateKey if the
// (run_id, project_id, date) key exists.
func (s *DailyRecordStore) Insert(ctx context.Context, runID string, r *domain.DailyRecord) error {
	if runID == "" || r == nil || r.ProjectID == "" || r.Date.IsZero() {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertDailyRecordQuery, insertArgs(runID, r)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert daily record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records in one transaction. Fails the entire
// batch on any duplicate.
func (s *DailyRecordStore) InsertBulk(ctx context.Context, runID string, records []*domain.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r == nil || r.ProjectID == "" || r.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertDailyRecordQuery, insertArgs(runID, r)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert daily record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByKey retrieves a single record. Returns ErrNotFound if the key
// does not exist.
func (s *DailyRecordStore) GetByKey(ctx context.Context, runID, projectID string, date time.Time) (*domain.DailyRecord, error) {
	query := `
		SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE run_id = $1 AND project_id = $2 AND date = $3
	`

	row := s.pool.QueryRow(ctx, query, runID, projectID, date)
	r, err := scanDailyRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get daily record by key: %w", err)
	}
	return r, nil
}

// GetByProject retrieves one project's records for a run, ordered by
// date ASC.
func (s *DailyRecordStore) GetByProject(ctx context.Context, runID, projectID string) ([]*domain.DailyRecord, error) {
	query := `
		SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE run_id = $1 AND project_id = $2
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, projectID)
	if err != nil {
		return nil, fmt.Errorf("get daily records by project: %w", err)
	}
	defer rows.Close()

	return scanDailyRecords(rows)
}

// GetByRun retrieves all records of a run grouped by project id.
func (s *DailyRecordStore) GetByRun(ctx context.Context, runID string) (map[string][]*domain.DailyRecord, error) {
	query := `
		SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE run_id = $1
		ORDER BY project_id ASC, date ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get daily records by run: %w", err)
	}
	defer rows.Close()

	recs, err := scanDailyRecords(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]*domain.DailyRecord)
	for _, r := range recs {
		result[r.ProjectID] = append(result[r.ProjectID], r)
	}
	return result, nil
}

// GetByDateRange retrieves a project's records within [start, end]
// (inclusive), ordered by date ASC.
func (s *DailyRecordStore) GetByDateRange(ctx context.Context, runID, projectID string, start, end time.Time) ([]*domain.DailyRecord, error) {
	query := `
		SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE run_id = $1 AND project_id = $2 AND date >= $3 AND date <= $4
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get daily records by date range: %w", err)
	}
	defer rows.Close()

	return scanDailyRecords(rows)
}

func insertArgs(runID string, r *domain.DailyRecord) []interface{} {
	return []interface{}{
		runID, r.ProjectID, r.Date,
		r.ExpectedInflow, r.ExpectedOutflow,
		r.RevenueRecognized, r.COGSExpense,
		r.ActualInflow, r.ActualOutflow,
		r.AccountsReceivable, r.AccountsPayable, r.AccruedExpenses, r.CurrentLiabilities,
		r.OpeningCash, r.ClosingCash, r.NetCashFlow, r.ReserveBuffer,
	}
}

// scanDailyRecord scans a single row into a DailyRecord. The run_id
// column is read and discarded; the record itself does not carry it.
func scanDailyRecord(row pgx.Row) (*domain.DailyRecord, error) {
	var r domain.DailyRecord
	var runID string

	err := row.Scan(
		&runID, &r.ProjectID, &r.Date,
		&r.ExpectedInflow, &r.ExpectedOutflow,
		&r.RevenueRecognized, &r.COGSExpense,
		&r.ActualInflow, &r.ActualOutflow,
		&r.AccountsReceivable, &r.AccountsPayable, &r.AccruedExpenses, &r.CurrentLiabilities,
		&r.OpeningCash, &r.ClosingCash, &r.NetCashFlow, &r.ReserveBuffer,
	)
	if err != nil {
		return nil, err
	}

	r.Date = r.Date.UTC()
	return &r, nil
}

func scanDailyRecords(rows pgx.Rows) ([]*domain.DailyRecord, error) {
	var recs []*domain.DailyRecord

	for rows.Next() {
		r, err := scanDailyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily record row: %w", err)
		}
		recs = append(recs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily record rows: %w", err)
	}

	return recs, nil
}
