package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[recordKey]*domain.FeatureRow
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[recordKey]*domain.FeatureRow),
	}
}

// InsertBulk adds multiple rows. Fails entire batch on any duplicate.
func (s *FeatureStore) InsertBulk(_ context.Context, runID string, rows []*domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[recordKey]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.ProjectID == "" || row.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := recordKey{runID, row.ProjectID, row.Date.Unix()}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, row := range rows {
		copy := *row
		if row.NetCashFlowLag1 != nil {
			lag := *row.NetCashFlowLag1
			copy.NetCashFlowLag1 = &lag
		}
		s.data[recordKey{runID, row.ProjectID, row.Date.Unix()}] = &copy
	}

	return nil
}

// GetByProject retrieves one project's feature rows for a run, ordered by date ASC.
func (s *FeatureStore) GetByProject(_ context.Context, runID, projectID string) ([]*domain.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureRow
	for k, row := range s.data {
		if k.runID == runID && k.projectID == projectID {
			result = append(result, copyRow(row))
		}
	}

	sortRows(result)
	return result, nil
}

// GetByDateRange retrieves a project's feature rows within [start, end] (inclusive).
func (s *FeatureStore) GetByDateRange(_ context.Context, runID, projectID string, start, end time.Time) ([]*domain.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureRow
	for k, row := range s.data {
		if k.runID != runID || k.projectID != projectID {
			continue
		}
		if row.Date.Before(start) || row.Date.After(end) {
			continue
		}
		result = append(result, copyRow(row))
	}

	sortRows(result)
	return result, nil
}

func copyRow(row *domain.FeatureRow) *domain.FeatureRow {
	copy := *row
	if row.NetCashFlowLag1 != nil {
		lag := *row.NetCashFlowLag1
		copy.NetCashFlowLag1 = &lag
	}
	return &copy
}

func sortRows(rows []*domain.FeatureRow) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}

var _ storage.FeatureStore = (*FeatureStore)(nil)
