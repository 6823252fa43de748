package reporting

import (
	"strings"
	"testing"
	"time"

	"cashflow-lab/internal/domain"
)

func sampleRow(lag *float64) domain.DatasetRow {
	date := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)
	return domain.DatasetRow{
		Record: &domain.DailyRecord{
			Date:               date,
			ProjectID:          "PJT_A",
			ExpectedInflow:     120000,
			ExpectedOutflow:    80000,
			RevenueRecognized:  120000,
			COGSExpense:        80000,
			ActualInflow:       95000.5,
			ActualOutflow:      60000.25,
			AccountsReceivable: 25000,
			AccountsPayable:    19999.75,
			AccruedExpenses:    19999.75,
			CurrentLiabilities: 39999.5,
			OpeningCash:        500000,
			ClosingCash:        535000.25,
			NetCashFlow:        35000.25,
			ReserveBuffer:      25000,
		},
		Features: &domain.FeatureRow{
			ProjectID:           "PJT_A",
			Date:                date,
			NetCashFlowLag1:     lag,
			RollingNet7:         35000.25,
			RollingOutflow30:    60000.25,
			DSU:                 9.375,
			DPO:                 7.5,
			OCFRatio:            0.875123,
			WorkingCapitalCycle: 16.875,
		},
	}
}

func TestRenderCSV_CashHeaderAndRow(t *testing.T) {
	out := RenderCSV(domain.BasisCash, []domain.DatasetRow{sampleRow(nil)})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	wantHeader := "date,project_id,expected_inflow,actual_inflow,expected_outflow,actual_outflow," +
		"opening_cash,closing_cash,net_cash_flow,net_cash_flow_lag1,rolling_net_7,rolling_outflow_30"
	if lines[0] != wantHeader {
		t.Errorf("header mismatch:\ngot  %s\nwant %s", lines[0], wantHeader)
	}

	wantRow := "2022-03-15,PJT_A,120000.00,95000.50,80000.00,60000.25,500000.00,535000.25,35000.25,,35000.25,60000.25"
	if lines[1] != wantRow {
		t.Errorf("row mismatch:\ngot  %s\nwant %s", lines[1], wantRow)
	}
}

func TestRenderCSV_AccrualHeaderAndRow(t *testing.T) {
	lag := 1234.5
	out := RenderCSV(domain.BasisAccrual, []domain.DatasetRow{sampleRow(&lag)})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	wantHeader := "date,project_id,revenue_recognized,cogs_expense,cash_inflow,cash_outflow," +
		"accounts_receivable,accounts_payable,accrued_expenses,current_liabilities," +
		"opening_cash,closing_cash,net_cash_flow,reserve_buffer," +
		"dsu_days_sales_uncollected,dpo_days_payables_outstanding,ocf_ratio,working_capital_cycle_days," +
		"net_cash_flow_lag1,rolling_net_7,rolling_cash_outflow_30"
	if lines[0] != wantHeader {
		t.Errorf("header mismatch:\ngot  %s\nwant %s", lines[0], wantHeader)
	}

	wantRow := "2022-03-15,PJT_A,120000.00,80000.00,95000.50,60000.25," +
		"25000.00,19999.75,19999.75,39999.50," +
		"500000.00,535000.25,35000.25,25000.00," +
		"9.375000,7.500000,0.875123,16.875000," +
		"1234.50,35000.25,60000.25"
	if lines[1] != wantRow {
		t.Errorf("row mismatch:\ngot  %s\nwant %s", lines[1], wantRow)
	}
}

func TestRenderCSV_EmptyDataset(t *testing.T) {
	out := RenderCSV(domain.BasisCash, nil)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
}

func TestRenderCSV_Deterministic(t *testing.T) {
	lag := -500.0
	rows := []domain.DatasetRow{sampleRow(nil), sampleRow(&lag)}

	if RenderCSV(domain.BasisAccrual, rows) != RenderCSV(domain.BasisAccrual, rows) {
		t.Fatal("identical input rendered differently")
	}
}

func TestBuildSummary(t *testing.T) {
	lag := 1.0
	rows := []domain.DatasetRow{sampleRow(nil), sampleRow(&lag)}
	rows[1].Record.ProjectID = "PJT_B"
	rows[1].Record.Date = rows[0].Record.Date.AddDate(0, 0, 10)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := BuildSummary(domain.ProfileCashflow, 42, "run-1", rows, 0, now)

	if s.TotalRows != 2 {
		t.Errorf("total rows = %d, want 2", s.TotalRows)
	}
	if s.RowsPerProject["PJT_A"] != 1 || s.RowsPerProject["PJT_B"] != 1 {
		t.Errorf("per-project counts = %v", s.RowsPerProject)
	}
	if !s.DateRangeStart.Equal(rows[0].Record.Date) || !s.DateRangeEnd.Equal(rows[1].Record.Date) {
		t.Errorf("date range = %v..%v", s.DateRangeStart, s.DateRangeEnd)
	}

	text := s.Render()
	for _, want := range []string{"run-1", "profile=cashflow", "seed=42", "rows=2", "PJT_A: 1 rows, first ", "invariant scan clean"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary text missing %q:\n%s", want, text)
		}
	}
}

func TestSummaryRender_WarnsOnViolations(t *testing.T) {
	s := BuildSummary(domain.ProfileAccrual, 7, "run-2", []domain.DatasetRow{sampleRow(nil)}, 3, time.Now())

	if !strings.Contains(s.Render(), "WARNING: 3 invariant violations") {
		t.Errorf("missing violation warning:\n%s", s.Render())
	}
}
