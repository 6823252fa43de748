package clickhouse

import (
	"context"
	"fmt"
	"time"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse.
//
// MergeTree does not enforce uniqueness at insert time, so duplicate
// keys are rejected by an explicit existence check before the batch is
// sent.
type FeatureStore struct {
	conn *Conn
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(conn *Conn) *FeatureStore {
	return &FeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on any duplicate.
func (s *FeatureStore) InsertBulk(ctx context.Context, runID string, rows []*domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}

	type key struct {
		projectID string
		date      int64
	}
	seen := make(map[key]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.ProjectID == "" || row.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := key{row.ProjectID, row.Date.Unix()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, row := range rows {
		exists, err := s.exists(ctx, runID, row.ProjectID, row.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO derived_features (
			run_id, project_id, date,
			net_cash_flow_lag1, rolling_net_7, rolling_outflow_30,
			dsu, dpo, ocf_ratio, working_capital_cycle
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			runID, row.ProjectID, row.Date,
			row.NetCashFlowLag1, row.RollingNet7, row.RollingOutflow30,
			row.DSU, row.DPO, row.OCFRatio, row.WorkingCapitalCycle,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByProject retrieves one project's feature rows for a run, ordered
// by date ASC.
func (s *FeatureStore) GetByProject(ctx context.Context, runID, projectID string) ([]*domain.FeatureRow, error) {
	query := `
		SELECT
			project_id, date,
			net_cash_flow_lag1, rolling_net_7, rolling_outflow_30,
			dsu, dpo, ocf_ratio, working_capital_cycle
		FROM derived_features
		WHERE run_id = ? AND project_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, projectID)
	if err != nil {
		return nil, fmt.Errorf("query by project: %w", err)
	}
	defer rows.Close()

	return scanFeatureRows(rows)
}

// GetByDateRange retrieves a project's feature rows within [start, end]
// (inclusive), ordered by date ASC.
func (s *FeatureStore) GetByDateRange(ctx context.Context, runID, projectID string, start, end time.Time) ([]*domain.FeatureRow, error) {
	query := `
		SELECT
			project_id, date,
			net_cash_flow_lag1, rolling_net_7, rolling_outflow_30,
			dsu, dpo, ocf_ratio, working_capital_cycle
		FROM derived_features
		WHERE run_id = ? AND project_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanFeatureRows(rows)
}

// exists checks if a row with the given key exists.
func (s *FeatureStore) exists(ctx context.Context, runID, projectID string, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM derived_features
		WHERE run_id = ? AND project_id = ? AND date = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, projectID, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanFeatureRows(rows chRows) ([]*domain.FeatureRow, error) {
	var result []*domain.FeatureRow

	for rows.Next() {
		var row domain.FeatureRow

		err := rows.Scan(
			&row.ProjectID, &row.Date,
			&row.NetCashFlowLag1, &row.RollingNet7, &row.RollingOutflow30,
			&row.DSU, &row.DPO, &row.OCFRatio, &row.WorkingCapitalCycle,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}

		row.Date = row.Date.UTC()
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	return result, nil
}
