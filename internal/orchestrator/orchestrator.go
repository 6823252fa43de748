// Package orchestrator coordinates a full generation run:
// generation → feature derivation → invariant scan → persistence.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/engine"
	"cashflow-lab/internal/features"
	"cashflow-lab/internal/simrand"
	"cashflow-lab/internal/storage"
	"cashflow-lab/internal/verification"
)

// Orchestrator runs the generation pipeline for one profile.
type Orchestrator struct {
	spec domain.ProfileSpec
	seed uint64

	recordStore  storage.DailyRecordStore
	featureStore storage.FeatureStore

	verbose bool
}

// Options for creating an Orchestrator. Stores are optional: a nil
// store skips that persistence step.
type Options struct {
	Spec domain.ProfileSpec
	Seed uint64

	RecordStore  storage.DailyRecordStore
	FeatureStore storage.FeatureStore

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		spec:         opts.Spec,
		seed:         opts.Seed,
		recordStore:  opts.RecordStore,
		featureStore: opts.FeatureStore,
		verbose:      opts.Verbose,
	}
}

// RunResult contains the generated dataset and run metadata.
type RunResult struct {
	RunID string

	// Rows is the full dataset, ordered by project id then date.
	Rows []domain.DatasetRow

	// Records groups the emitted records by project.
	Records map[string][]*domain.DailyRecord

	RowsGenerated int
	Violations    []verification.Violation
}

// Run executes the pipeline.
// Phases:
//  1. Generate each project's record series
//  2. Derive feature rows per project
//  3. Scan the run against the ledger invariants
//  4. Persist records and features when stores are configured
//
// Projects are generated in sorted id order. Each project draws from
// its own seed-derived random stream, so the dataset is independent of
// iteration order; sorting fixes the output row order.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:   uuid.NewString(),
		Records: make(map[string][]*domain.DailyRecord),
	}

	projects := make([]domain.ProjectConfig, len(o.spec.Projects))
	copy(projects, o.spec.Projects)
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ProjectID < projects[j].ProjectID
	})

	// Phase 1+2: generate and derive per project.
	o.log("Generating %s run %s (seed %d, %d projects)", o.spec.ID, result.RunID, o.seed, len(projects))
	eng := engine.New(o.spec)
	for _, cfg := range projects {
		recs := eng.RunProject(cfg, simrand.ForProject(o.seed, cfg.ProjectID))
		result.Records[cfg.ProjectID] = recs

		rows := features.Derive(o.spec.Basis, recs)
		for i := range recs {
			result.Rows = append(result.Rows, domain.DatasetRow{Record: recs[i], Features: rows[i]})
		}
		o.log("  %s: %d rows", cfg.ProjectID, len(recs))
	}
	result.RowsGenerated = len(result.Rows)

	// Phase 3: invariant scan.
	report := verification.ScanRun(result.Records)
	result.Violations = report.Violations
	if !report.Clean() {
		o.log("  invariant scan: %d violations", len(report.Violations))
	}

	// Phase 4: persistence.
	if o.recordStore != nil {
		o.log("Persisting %d records", result.RowsGenerated)
		for _, cfg := range projects {
			if err := o.recordStore.InsertBulk(ctx, result.RunID, result.Records[cfg.ProjectID]); err != nil {
				return nil, fmt.Errorf("persist records for %s: %w", cfg.ProjectID, err)
			}
		}
	}
	if o.featureStore != nil {
		o.log("Persisting %d feature rows", result.RowsGenerated)
		featureRows := make([]*domain.FeatureRow, 0, len(result.Rows))
		for _, row := range result.Rows {
			featureRows = append(featureRows, row.Features)
		}
		if err := o.featureStore.InsertBulk(ctx, result.RunID, featureRows); err != nil {
			return nil, fmt.Errorf("persist feature rows: %w", err)
		}
	}

	o.log("Run %s completed: %d rows, %d violations", result.RunID, result.RowsGenerated, len(result.Violations))
	return result, nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
