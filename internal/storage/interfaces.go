package storage

import (
	"context"
	"time"

	"cashflow-lab/internal/domain"
)

// DailyRecordStore provides access to daily_records storage. Records
// are keyed by (run_id, project_id, date).
type DailyRecordStore interface {
	// Insert adds a single record. Returns ErrDuplicateKey if the
	// (run_id, project_id, date) key exists.
	Insert(ctx context.Context, runID string, r *domain.DailyRecord) error

	// InsertBulk adds multiple records atomically. Fails the entire
	// batch on any duplicate.
	InsertBulk(ctx context.Context, runID string, records []*domain.DailyRecord) error

	// GetByKey retrieves a single record. Returns ErrNotFound if the
	// key does not exist.
	GetByKey(ctx context.Context, runID, projectID string, date time.Time) (*domain.DailyRecord, error)

	// GetByProject retrieves one project's records for a run, ordered
	// by date ASC.
	GetByProject(ctx context.Context, runID, projectID string) ([]*domain.DailyRecord, error)

	// GetByRun retrieves all records of a run grouped by project id,
	// each project ordered by date ASC.
	GetByRun(ctx context.Context, runID string) (map[string][]*domain.DailyRecord, error)

	// GetByDateRange retrieves a project's records within [start, end]
	// (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, runID, projectID string, start, end time.Time) ([]*domain.DailyRecord, error)
}

// FeatureStore provides access to derived_features storage. Rows are
// keyed by (run_id, project_id, date), parallel to daily_records.
type FeatureStore interface {
	// InsertBulk adds multiple rows. Fails the entire batch on any
	// duplicate.
	InsertBulk(ctx context.Context, runID string, rows []*domain.FeatureRow) error

	// GetByProject retrieves one project's feature rows for a run,
	// ordered by date ASC.
	GetByProject(ctx context.Context, runID, projectID string) ([]*domain.FeatureRow, error)

	// GetByDateRange retrieves a project's feature rows within
	// [start, end] (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, runID, projectID string, start, end time.Time) ([]*domain.FeatureRow, error)
}
