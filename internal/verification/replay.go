package verification

import (
	"fmt"
	"sort"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/engine"
	"cashflow-lab/internal/simrand"
)

// FieldDivergence is a mismatch between a stored and a replayed value.
type FieldDivergence struct {
	ProjectID string
	Row       int
	Field     string
	Expected  interface{} // stored value
	Actual    interface{} // replayed value
}

// ReplayResult is the outcome of diffing one stored run against its
// regeneration from the same profile and seed.
type ReplayResult struct {
	Match       bool
	RowsChecked int
	Divergences []FieldDivergence
}

// Replay regenerates every project of a profile from the given seed.
// The per-project random streams are independent, so the map is
// complete and deterministic regardless of iteration order.
func Replay(spec domain.ProfileSpec, seed uint64) map[string][]*domain.DailyRecord {
	e := engine.New(spec)
	out := make(map[string][]*domain.DailyRecord, len(spec.Projects))
	for _, cfg := range spec.Projects {
		out[cfg.ProjectID] = e.RunProject(cfg, simrand.ForProject(seed, cfg.ProjectID))
	}
	return out
}

// CompareRun diffs a stored run against a replayed one field by field.
// Money fields compare within FloatTolerance; identity fields compare
// exactly. A missing or extra project, or a row-count mismatch, is
// reported as a single divergence for that project.
func CompareRun(stored, replayed map[string][]*domain.DailyRecord) *ReplayResult {
	res := &ReplayResult{}

	pids := make([]string, 0, len(stored))
	for pid := range stored {
		pids = append(pids, pid)
	}
	for pid := range replayed {
		if _, ok := stored[pid]; !ok {
			pids = append(pids, pid)
		}
	}
	sort.Strings(pids)

	for _, pid := range pids {
		s, r := stored[pid], replayed[pid]
		if len(s) != len(r) {
			res.Divergences = append(res.Divergences, FieldDivergence{
				ProjectID: pid,
				Field:     "RowCount",
				Expected:  len(s),
				Actual:    len(r),
			})
			continue
		}
		for i := range s {
			res.RowsChecked++
			res.Divergences = append(res.Divergences, compareRecords(pid, i, s[i], r[i])...)
		}
	}

	res.Match = len(res.Divergences) == 0
	return res
}

func compareRecords(pid string, row int, stored, replayed *domain.DailyRecord) []FieldDivergence {
	var divs []FieldDivergence

	diverge := func(field string, expected, actual interface{}) {
		divs = append(divs, FieldDivergence{
			ProjectID: pid, Row: row, Field: field,
			Expected: expected, Actual: actual,
		})
	}
	checkFloat := func(field string, expected, actual float64) {
		if !floatEquals(expected, actual) {
			diverge(field, expected, actual)
		}
	}

	if !stored.Date.Equal(replayed.Date) {
		diverge("Date", stored.Date, replayed.Date)
	}
	if stored.ProjectID != replayed.ProjectID {
		diverge("ProjectID", stored.ProjectID, replayed.ProjectID)
	}

	checkFloat("ExpectedInflow", stored.ExpectedInflow, replayed.ExpectedInflow)
	checkFloat("ExpectedOutflow", stored.ExpectedOutflow, replayed.ExpectedOutflow)
	checkFloat("RevenueRecognized", stored.RevenueRecognized, replayed.RevenueRecognized)
	checkFloat("COGSExpense", stored.COGSExpense, replayed.COGSExpense)
	checkFloat("ActualInflow", stored.ActualInflow, replayed.ActualInflow)
	checkFloat("ActualOutflow", stored.ActualOutflow, replayed.ActualOutflow)
	checkFloat("AccountsReceivable", stored.AccountsReceivable, replayed.AccountsReceivable)
	checkFloat("AccountsPayable", stored.AccountsPayable, replayed.AccountsPayable)
	checkFloat("AccruedExpenses", stored.AccruedExpenses, replayed.AccruedExpenses)
	checkFloat("CurrentLiabilities", stored.CurrentLiabilities, replayed.CurrentLiabilities)
	checkFloat("OpeningCash", stored.OpeningCash, replayed.OpeningCash)
	checkFloat("ClosingCash", stored.ClosingCash, replayed.ClosingCash)
	checkFloat("NetCashFlow", stored.NetCashFlow, replayed.NetCashFlow)
	checkFloat("ReserveBuffer", stored.ReserveBuffer, replayed.ReserveBuffer)

	return divs
}

// String renders a divergence for log output.
func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s row %d %s: stored %v, replayed %v", d.ProjectID, d.Row, d.Field, d.Expected, d.Actual)
}

func floatEquals(a, b float64) bool {
	if a > b {
		return a-b <= FloatTolerance
	}
	return b-a <= FloatTolerance
}
