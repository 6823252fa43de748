package domain

import "time"

// ProfileID selects one of the two generator profiles.
type ProfileID string

// Generator profile constants.
const (
	// ProfileCashflow is the cash-basis dataset: six projects over
	// three years, expected/actual flow columns, event-day walk.
	ProfileCashflow ProfileID = "cashflow"

	// ProfileAccrual is the accrual-aware dataset: three projects over
	// roughly four years, balance-sheet columns and financial ratios,
	// full calendar walk with a supplier-obligation ledger.
	ProfileAccrual ProfileID = "accrual"
)

// Basis is the accounting basis a profile records on. It also fixes the
// walk and emission rules: cash basis walks scheduled event days only
// and emits on any flow; accrual basis walks every calendar day and
// emits on activity or on a scheduled event day.
type Basis string

// Accounting basis constants.
const (
	BasisCash    Basis = "cash"
	BasisAccrual Basis = "accrual"
)

// ProfileSpec bundles everything the engine needs to generate one
// dataset variant: the project table, date range, phase parameter
// table, settlement policies and amount scaling constants.
type ProfileSpec struct {
	ID    ProfileID
	Basis Basis

	Start time.Time
	End   time.Time

	Projects []ProjectConfig

	PhaseParams map[Phase]PhaseParams

	Receivables ReceivablePolicy
	Payables    PayablePolicy

	// Invoice issuance.
	InvoiceBase       float64 // base invoice amount per unit of size
	SetupInvoiceBoost float64 // setup-phase multiplier slope on front load
	TermSigma         float64 // payment term stddev in days
	TermMinDays       int
	TermMaxDays       int

	// Outflow / COGS recognition.
	PayableProb           float64 // probability of a payable on an active day
	OutflowBase           float64 // base outflow amount per unit of size
	SetupOutflowBoost     float64 // setup-phase multiplier slope on front load
	FinishingOutflowBoost float64 // flat finishing-phase multiplier

	// Outflow volatility (cash basis only).
	OutflowShockSigma  float64 // multiplicative shock ~ N(1, sigma)
	SpikeChance        float64 // chance of a lump-sum spike
	SpikeMin           float64 // spike multiplier lower bound
	SpikeSpan          float64 // spike multiplier uniform span above SpikeMin
	UnplannedBoostSpan float64 // extra multiplier span on unplanned-tagged days

	// Opening balance: OpeningCashBase*size + N(0, OpeningCashSigma),
	// clamped at zero.
	OpeningCashBase  float64
	OpeningCashSigma float64

	// Reserve buffer percentage range of opening cash.
	ReserveMinPct float64
	ReserveMaxPct float64
}

// CashflowProfile returns the cash-basis profile with its original
// parameter tables.
func CashflowProfile() ProfileSpec {
	return ProfileSpec{
		ID:    ProfileCashflow,
		Basis: BasisCash,
		Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Projects: []ProjectConfig{
			{ProjectID: "PJT_A", Size: 4.0, FrontLoad: 0.8, EventRate: 10},
			{ProjectID: "PJT_B", Size: 4.5, FrontLoad: 0.9, EventRate: 10},
			{ProjectID: "PJT_C", Size: 2.0, FrontLoad: 0.65, EventRate: 7},
			{ProjectID: "PJT_D", Size: 2.0, FrontLoad: 0.65, EventRate: 7},
			{ProjectID: "PJT_E", Size: 1.0, FrontLoad: 0.4, EventRate: 5},
			{ProjectID: "PJT_F", Size: 1.0, FrontLoad: 0.4, EventRate: 5},
		},
		PhaseParams: map[Phase]PhaseParams{
			PhaseSetup:      {InvoiceRate: 0.7, PaymentTermMean: 45, OutflowScale: 1.5},
			PhaseExecution1: {InvoiceRate: 0.6, PaymentTermMean: 40, OutflowScale: 1.0},
			PhaseExecution2: {InvoiceRate: 0.5, PaymentTermMean: 30, OutflowScale: 0.7},
			PhaseFinishing:  {InvoiceRate: 0.4, PaymentTermMean: 25, OutflowScale: 0.5},
		},
		Receivables: ReceivablePolicy{
			BaseProb:          0.25,
			SlopePerDay:       0.03,
			Cap:               0.9,
			GaussPenaltySigma: 0.05,
			PartialChance:     0.2,
			PartialMin:        0.3,
			PartialMax:        0.9,
			PaidFracMin:       1.0,
			PaidFracMax:       1.0,
		},
		InvoiceBase:       200000,
		SetupInvoiceBoost: 0.6,
		TermSigma:         8,
		TermMinDays:       14,
		TermMaxDays:       90,

		PayableProb:           0.8,
		OutflowBase:           150000,
		SetupOutflowBoost:     1.0,
		FinishingOutflowBoost: 1.1,

		OutflowShockSigma:  0.25,
		SpikeChance:        0.08,
		SpikeMin:           1.5,
		SpikeSpan:          2.0,
		UnplannedBoostSpan: 0.5,

		OpeningCashBase:  500000,
		OpeningCashSigma: 30000,
		ReserveMinPct:    0.05,
		ReserveMaxPct:    0.10,
	}
}

// AccrualProfile returns the accrual-aware profile with its original
// parameter tables.
func AccrualProfile() ProfileSpec {
	return ProfileSpec{
		ID:    ProfileAccrual,
		Basis: BasisAccrual,
		Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		Projects: []ProjectConfig{
			{ProjectID: "PJT_A", Size: 5.0, FrontLoad: 0.9, EventRate: 15},
			{ProjectID: "PJT_B", Size: 1.0, FrontLoad: 0.45, EventRate: 5},
			{ProjectID: "PJT_C", Size: 2.0, FrontLoad: 0.7, EventRate: 10},
		},
		PhaseParams: map[Phase]PhaseParams{
			PhaseSetup:      {InvoiceRate: 0.5, PaymentTermMean: 60, OutflowScale: 1.75},
			PhaseExecution1: {InvoiceRate: 0.7, PaymentTermMean: 45, OutflowScale: 1.0},
			PhaseExecution2: {InvoiceRate: 0.6, PaymentTermMean: 30, OutflowScale: 0.7},
			PhaseFinishing:  {InvoiceRate: 0.8, PaymentTermMean: 15, OutflowScale: 0.5},
		},
		Receivables: ReceivablePolicy{
			BaseProb:          0.25,
			SlopePerDay:       0.03,
			Cap:               0.95,
			LatePenaltyPerDay: 0.005,
			PaidFracMin:       0.95,
			PaidFracMax:       1.05,
		},
		Payables: PayablePolicy{
			BaseProb:     0.3,
			SlopePerDay:  0.02,
			Cap:          0.9,
			TermsMinDays: 15,
			TermsMaxDays: 60,
		},
		InvoiceBase:       200000,
		SetupInvoiceBoost: 0.6,
		TermSigma:         8,
		TermMinDays:       14,
		TermMaxDays:       90,

		PayableProb:           0.8,
		OutflowBase:           150000,
		SetupOutflowBoost:     1.0,
		FinishingOutflowBoost: 1.1,

		OpeningCashBase:  500000,
		OpeningCashSigma: 30000,
		ReserveMinPct:    0.05,
		ReserveMaxPct:    0.10,
	}
}

// ProfileByID returns the profile spec for a profile id, or false if
// the id is unknown.
func ProfileByID(id ProfileID) (ProfileSpec, bool) {
	switch id {
	case ProfileCashflow:
		return CashflowProfile(), true
	case ProfileAccrual:
		return AccrualProfile(), true
	default:
		return ProfileSpec{}, false
	}
}

// SpanDays returns the inclusive number of calendar days in the
// profile's simulation range.
func (s ProfileSpec) SpanDays() int {
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}
