package verification

import (
	"testing"
	"time"

	"cashflow-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// validRow builds a row that satisfies every scanned invariant.
func validRow(n int, opening, in, out float64) *domain.DailyRecord {
	return &domain.DailyRecord{
		Date:          day(n),
		ProjectID:     "PJT_A",
		ActualInflow:  in,
		ActualOutflow: out,
		OpeningCash:   opening,
		ClosingCash:   domain.Round2(opening + in - out),
		NetCashFlow:   domain.Round2(in - out),
		ReserveBuffer: 0,
	}
}

func TestScanProject_CleanSeries(t *testing.T) {
	recs := []*domain.DailyRecord{
		validRow(0, 1000, 500, 200),
		validRow(5, 1300, 0, 300),
		validRow(9, 1000, 250.55, 0),
	}

	rep := ScanProject(recs)

	if !rep.Clean() {
		t.Fatalf("expected clean report, got %v", rep.Violations)
	}
	if rep.RowsScanned != 3 {
		t.Errorf("rows scanned = %d, want 3", rep.RowsScanned)
	}
}

func TestScanProject_NegativeClosing(t *testing.T) {
	rec := validRow(0, 1000, 0, 0)
	rec.ClosingCash = -5
	rec.NetCashFlow = 0
	rec.ActualOutflow = 1005 // keep the reconciliation identity intact

	rep := ScanProject([]*domain.DailyRecord{rec})

	if !hasRule(rep, "closing_non_negative") {
		t.Errorf("missing closing_non_negative, got %v", rep.Violations)
	}
}

func TestScanProject_OutflowExceedsAvailable(t *testing.T) {
	rec := validRow(0, 1000, 0, 1200)
	rec.ReserveBuffer = 100

	rep := ScanProject([]*domain.DailyRecord{rec})

	if !hasRule(rep, "outflow_within_available") {
		t.Errorf("missing outflow_within_available, got %v", rep.Violations)
	}
}

func TestScanProject_BrokenReconciliation(t *testing.T) {
	rec := validRow(0, 1000, 500, 200)
	rec.ClosingCash = 9999

	rep := ScanProject([]*domain.DailyRecord{rec})

	if !hasRule(rep, "closing_reconciles") {
		t.Errorf("missing closing_reconciles, got %v", rep.Violations)
	}
}

func TestScanProject_ChainBreak(t *testing.T) {
	a := validRow(0, 1000, 500, 0)
	b := validRow(3, 1400, 0, 0) // prior closing was 1500

	rep := ScanProject([]*domain.DailyRecord{a, b})

	if !hasRule(rep, "cash_chain_continuity") {
		t.Errorf("missing cash_chain_continuity, got %v", rep.Violations)
	}
}

func TestScanProject_DatesMustAscend(t *testing.T) {
	a := validRow(5, 1000, 0, 0)
	b := validRow(5, 1000, 0, 0)

	rep := ScanProject([]*domain.DailyRecord{a, b})

	if !hasRule(rep, "dates_ascending") {
		t.Errorf("missing dates_ascending, got %v", rep.Violations)
	}
}

func TestScanProject_NegativeBalanceSheet(t *testing.T) {
	rec := validRow(0, 1000, 0, 0)
	rec.AccountsPayable = -1

	rep := ScanProject([]*domain.DailyRecord{rec})

	if !hasRule(rep, "balances_non_negative") {
		t.Errorf("missing balances_non_negative, got %v", rep.Violations)
	}
}

func TestScanRun_MergesProjects(t *testing.T) {
	bad := validRow(0, 1000, 0, 0)
	bad.ClosingCash = -1
	bad.ActualOutflow = 1001

	run := map[string][]*domain.DailyRecord{
		"PJT_A": {validRow(0, 1000, 100, 50)},
		"PJT_B": {bad},
	}

	rep := ScanRun(run)

	if rep.RowsScanned != 2 {
		t.Errorf("rows scanned = %d, want 2", rep.RowsScanned)
	}
	if rep.Clean() {
		t.Error("expected violations from PJT_B")
	}
}

func TestReplay_GeneratedRunsAreCleanAndReproducible(t *testing.T) {
	for _, spec := range []domain.ProfileSpec{domain.CashflowProfile(), domain.AccrualProfile()} {
		run := Replay(spec, 42)

		if rep := ScanRun(run); !rep.Clean() {
			t.Fatalf("%s: generated run violates invariants: %v", spec.ID, rep.Violations[:min(3, len(rep.Violations))])
		}

		res := CompareRun(run, Replay(spec, 42))
		if !res.Match {
			t.Fatalf("%s: replay diverged: %v", spec.ID, res.Divergences[:min(3, len(res.Divergences))])
		}
		if res.RowsChecked == 0 {
			t.Fatalf("%s: replay checked no rows", spec.ID)
		}
	}
}

func TestCompareRun_DetectsSeedDivergence(t *testing.T) {
	spec := domain.AccrualProfile()

	res := CompareRun(Replay(spec, 42), Replay(spec, 43))

	if res.Match {
		t.Fatal("different seeds compared equal")
	}
}

func TestCompareRun_RowCountMismatch(t *testing.T) {
	stored := map[string][]*domain.DailyRecord{"PJT_A": {validRow(0, 1000, 0, 0)}}
	replayed := map[string][]*domain.DailyRecord{"PJT_A": {}}

	res := CompareRun(stored, replayed)

	if res.Match || len(res.Divergences) != 1 || res.Divergences[0].Field != "RowCount" {
		t.Fatalf("expected single RowCount divergence, got %v", res.Divergences)
	}
}

func TestCompareRun_WithinTolerance(t *testing.T) {
	a := validRow(0, 1000, 100, 50)
	b := validRow(0, 1000, 100, 50)
	b.ClosingCash += FloatTolerance / 2

	res := CompareRun(
		map[string][]*domain.DailyRecord{"PJT_A": {a}},
		map[string][]*domain.DailyRecord{"PJT_A": {b}},
	)

	if !res.Match {
		t.Fatalf("sub-tolerance delta reported as divergence: %v", res.Divergences)
	}
}

func hasRule(rep *Report, rule string) bool {
	for _, v := range rep.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
