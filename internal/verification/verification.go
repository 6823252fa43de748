// Package verification checks generated ledger series two ways: an
// invariant scan over each project's emitted rows, and a replay
// comparison that regenerates a run from its seed and diffs it against
// the stored rows field by field.
package verification

import (
	"fmt"
	"math"
	"time"

	"cashflow-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Money fields
// are rounded to cents at generation time, so anything past 1e-6 is a
// real divergence, not float noise.
const FloatTolerance = 1e-6

// Violation is one broken invariant on one emitted row.
type Violation struct {
	ProjectID string
	Date      time.Time
	Rule      string // short rule name
	Detail    string // human-readable specifics
}

// Report aggregates an invariant scan over one or more projects.
type Report struct {
	RowsScanned int
	Violations  []Violation
}

// Clean reports whether the scan found no violations.
func (r *Report) Clean() bool { return len(r.Violations) == 0 }

// ScanProject checks one project's emitted rows, which must be in
// emission order, against the ledger invariants: non-negative closing
// cash, outflow bounded by opening cash plus inflow less the reserve,
// the closing reconciliation identity, non-negative balance-sheet
// fields, and cash-chain continuity across the sparse series.
func ScanProject(recs []*domain.DailyRecord) *Report {
	rep := &Report{RowsScanned: len(recs)}

	add := func(r *domain.DailyRecord, rule, format string, args ...interface{}) {
		rep.Violations = append(rep.Violations, Violation{
			ProjectID: r.ProjectID,
			Date:      r.Date,
			Rule:      rule,
			Detail:    fmt.Sprintf(format, args...),
		})
	}

	for i, r := range recs {
		if r.ClosingCash < 0 {
			add(r, "closing_non_negative", "closing cash %v", r.ClosingCash)
		}

		// The stored reserve is a rounded snapshot, so allow a cent.
		bound := math.Max(0, r.OpeningCash+r.ActualInflow-r.ReserveBuffer)
		if r.ActualOutflow > bound+0.01+FloatTolerance {
			add(r, "outflow_within_available", "outflow %v exceeds available %v", r.ActualOutflow, bound)
		}

		want := domain.Round2(r.OpeningCash + r.ActualInflow - r.ActualOutflow)
		if math.Abs(r.ClosingCash-want) > FloatTolerance {
			add(r, "closing_reconciles", "closing %v, opening+in-out %v", r.ClosingCash, want)
		}

		if math.Abs(r.NetCashFlow-domain.Round2(r.ActualInflow-r.ActualOutflow)) > FloatTolerance {
			add(r, "net_is_in_minus_out", "net %v, in %v, out %v", r.NetCashFlow, r.ActualInflow, r.ActualOutflow)
		}

		if r.AccountsReceivable < 0 || r.AccountsPayable < 0 || r.AccruedExpenses < 0 {
			add(r, "balances_non_negative", "AR %v AP %v accrued %v",
				r.AccountsReceivable, r.AccountsPayable, r.AccruedExpenses)
		}

		if i > 0 {
			prev := recs[i-1]
			if !r.Date.After(prev.Date) {
				add(r, "dates_ascending", "date %v follows %v", r.Date.Format("2006-01-02"), prev.Date.Format("2006-01-02"))
			}
			if math.Abs(r.OpeningCash-prev.ClosingCash) > FloatTolerance {
				add(r, "cash_chain_continuity", "opening %v, prior closing %v", r.OpeningCash, prev.ClosingCash)
			}
		}
	}

	return rep
}

// ScanRun scans every project of a run and merges the per-project
// reports. Projects are scanned independently; the chain-continuity
// rule never crosses project boundaries.
func ScanRun(run map[string][]*domain.DailyRecord) *Report {
	merged := &Report{}
	for _, recs := range run {
		rep := ScanProject(recs)
		merged.RowsScanned += rep.RowsScanned
		merged.Violations = append(merged.Violations, rep.Violations...)
	}
	return merged
}
