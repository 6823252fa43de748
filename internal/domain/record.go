package domain

import "time"

// DailyRecord is one emitted ledger row for a (project, date) pair.
// Records are emitted sparsely: idle days produce no row. A record is
// immutable once emitted; derived feature columns are computed in a
// second pass and kept in FeatureRow.
//
// The cashflow profile fills the Expected* fields and leaves the
// balance-sheet fields zero; the accrual profile fills the accrual and
// balance-sheet fields and leaves Expected* zero. Shared cash fields
// are populated by both.
type DailyRecord struct {
	Date      time.Time
	ProjectID string

	// Cash-basis planning figures (cashflow profile).
	ExpectedInflow  float64
	ExpectedOutflow float64

	// Accrual figures (accrual profile).
	RevenueRecognized float64 // invoice issued today, accrual basis
	COGSExpense       float64 // supplier obligation recognized today

	// Cash figures (both profiles).
	ActualInflow  float64 // cash collected today
	ActualOutflow float64 // cash paid out today

	// Balance-sheet snapshot after today's mutations (accrual profile).
	AccountsReceivable float64
	AccountsPayable    float64
	AccruedExpenses    float64
	CurrentLiabilities float64 // AP + accrued expenses

	// Cash position.
	OpeningCash   float64
	ClosingCash   float64
	NetCashFlow   float64
	ReserveBuffer float64 // held-back fraction of opening cash
}

// FeatureRow holds the derived columns for one emitted record, computed
// by the feature post-pass over a project's completed series.
type FeatureRow struct {
	ProjectID string
	Date      time.Time

	NetCashFlowLag1  *float64 // nil on a project's first emitted row
	RollingNet7      float64  // rolling mean, window 7 rows
	RollingOutflow30 float64  // rolling mean of actual outflow, window 30 rows

	// Financial ratios (accrual profile only).
	DSU                 float64 // days sales uncollected, clipped to [0,120]
	DPO                 float64 // days payables outstanding, clipped to [0,120]
	OCFRatio            float64 // net cash flow / rolling current liabilities
	WorkingCapitalCycle float64 // DSU + DPO, clipped to [0,200]
}

// DatasetRow joins an emitted record with its derived features. The
// dataset is ordered by project id, then ascending date.
type DatasetRow struct {
	Record   *DailyRecord
	Features *FeatureRow
}
