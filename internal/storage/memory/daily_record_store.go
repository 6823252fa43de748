// Package memory provides in-memory store implementations, used by the
// generate pipeline when no database is configured and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

type recordKey struct {
	runID     string
	projectID string
	date      int64 // unix seconds of the UTC midnight
}

// DailyRecordStore is an in-memory implementation of storage.DailyRecordStore.
type DailyRecordStore struct {
	mu   sync.RWMutex
	data map[recordKey]*domain.DailyRecord
}

// NewDailyRecordStore creates a new in-memory daily record store.
func NewDailyRecordStore() *DailyRecordStore {
	return &DailyRecordStore{
		data: make(map[recordKey]*domain.DailyRecord),
	}
}

// Insert adds a single record. Returns ErrDuplicateKey if the key exists.
func (s *DailyRecordStore) Insert(_ context.Context, runID string, r *domain.DailyRecord) error {
	if runID == "" || r == nil || r.ProjectID == "" || r.Date.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := recordKey{runID, r.ProjectID, r.Date.Unix()}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[k] = &copy
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *DailyRecordStore) InsertBulk(_ context.Context, runID string, records []*domain.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[recordKey]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.ProjectID == "" || r.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := recordKey{runID, r.ProjectID, r.Date.Unix()}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, r := range records {
		copy := *r
		s.data[recordKey{runID, r.ProjectID, r.Date.Unix()}] = &copy
	}

	return nil
}

// GetByKey retrieves a single record. Returns ErrNotFound if the key
// does not exist.
func (s *DailyRecordStore) GetByKey(_ context.Context, runID, projectID string, date time.Time) (*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[recordKey{runID, projectID, date.Unix()}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetByProject retrieves one project's records for a run, ordered by date ASC.
func (s *DailyRecordStore) GetByProject(_ context.Context, runID, projectID string) ([]*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyRecord
	for k, r := range s.data {
		if k.runID == runID && k.projectID == projectID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortRecords(result)
	return result, nil
}

// GetByRun retrieves all records of a run grouped by project id.
func (s *DailyRecordStore) GetByRun(_ context.Context, runID string) (map[string][]*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]*domain.DailyRecord)
	for k, r := range s.data {
		if k.runID == runID {
			copy := *r
			result[k.projectID] = append(result[k.projectID], &copy)
		}
	}

	for _, recs := range result {
		sortRecords(recs)
	}
	return result, nil
}

// GetByDateRange retrieves a project's records within [start, end] (inclusive).
func (s *DailyRecordStore) GetByDateRange(_ context.Context, runID, projectID string, start, end time.Time) ([]*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyRecord
	for k, r := range s.data {
		if k.runID != runID || k.projectID != projectID {
			continue
		}
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}

	sortRecords(result)
	return result, nil
}

func sortRecords(recs []*domain.DailyRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Date.Before(recs[j].Date)
	})
}

var _ storage.DailyRecordStore = (*DailyRecordStore)(nil)
