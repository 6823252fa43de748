// Package reporting renders a finished dataset for output: the CSV
// artifact itself and a short text summary for the console.
package reporting

import (
	"fmt"
	"strings"

	"cashflow-lab/internal/domain"
)

const dateLayout = "2006-01-02"

// RenderCSV renders dataset rows as a CSV string with the column set of
// the given profile basis. Rows are rendered in the order given; the
// caller is responsible for project/date ordering. Money columns carry
// two decimals, ratio columns six. A nil lag renders as an empty cell.
func RenderCSV(basis domain.Basis, rows []domain.DatasetRow) string {
	var sb strings.Builder

	if basis == domain.BasisCash {
		renderCashCSV(&sb, rows)
	} else {
		renderAccrualCSV(&sb, rows)
	}

	return sb.String()
}

func renderCashCSV(sb *strings.Builder, rows []domain.DatasetRow) {
	sb.WriteString("date,project_id,expected_inflow,actual_inflow,expected_outflow,actual_outflow,")
	sb.WriteString("opening_cash,closing_cash,net_cash_flow,")
	sb.WriteString("net_cash_flow_lag1,rolling_net_7,rolling_outflow_30\n")

	for _, row := range rows {
		r, f := row.Record, row.Features
		sb.WriteString(fmt.Sprintf("%s,%s,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%s,%.2f,%.2f\n",
			r.Date.Format(dateLayout),
			r.ProjectID,
			r.ExpectedInflow,
			r.ActualInflow,
			r.ExpectedOutflow,
			r.ActualOutflow,
			r.OpeningCash,
			r.ClosingCash,
			r.NetCashFlow,
			lagCell(f.NetCashFlowLag1),
			f.RollingNet7,
			f.RollingOutflow30,
		))
	}
}

func renderAccrualCSV(sb *strings.Builder, rows []domain.DatasetRow) {
	sb.WriteString("date,project_id,revenue_recognized,cogs_expense,cash_inflow,cash_outflow,")
	sb.WriteString("accounts_receivable,accounts_payable,accrued_expenses,current_liabilities,")
	sb.WriteString("opening_cash,closing_cash,net_cash_flow,reserve_buffer,")
	sb.WriteString("dsu_days_sales_uncollected,dpo_days_payables_outstanding,ocf_ratio,working_capital_cycle_days,")
	sb.WriteString("net_cash_flow_lag1,rolling_net_7,rolling_cash_outflow_30\n")

	for _, row := range rows {
		r, f := row.Record, row.Features
		sb.WriteString(fmt.Sprintf("%s,%s,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.6f,%.6f,%.6f,%.6f,%s,%.2f,%.2f\n",
			r.Date.Format(dateLayout),
			r.ProjectID,
			r.RevenueRecognized,
			r.COGSExpense,
			r.ActualInflow,
			r.ActualOutflow,
			r.AccountsReceivable,
			r.AccountsPayable,
			r.AccruedExpenses,
			r.CurrentLiabilities,
			r.OpeningCash,
			r.ClosingCash,
			r.NetCashFlow,
			r.ReserveBuffer,
			f.DSU,
			f.DPO,
			f.OCFRatio,
			f.WorkingCapitalCycle,
			lagCell(f.NetCashFlowLag1),
			f.RollingNet7,
			f.RollingOutflow30,
		))
	}
}

func lagCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
