package domain

// ReceivablePolicy controls stochastic receivable settlement. The
// settlement probability for an invoice past its expected payment date
// is min(Cap, BaseProb + SlopePerDay*daysPastDue + 0.1*jitter) where
// jitter is a uniform [0,1) draw.
//
// The paid amount is invoice amount * paid fraction * penalty. The two
// dataset profiles use different paid-fraction and penalty models, so
// all knobs live here; zero values disable the corresponding path.
type ReceivablePolicy struct {
	BaseProb    float64
	SlopePerDay float64
	Cap         float64

	// Gaussian penalty: factor ~ N(1, GaussPenaltySigma). Disabled at 0.
	GaussPenaltySigma float64

	// Lateness penalty: factor = max(1, 1 + LatePenaltyPerDay*daysPastDue).
	// Disabled at 0.
	LatePenaltyPerDay float64

	// Occasional partial payments: with probability PartialChance the
	// paid fraction is drawn uniformly from [PartialMin, PartialMax].
	PartialChance float64
	PartialMin    float64
	PartialMax    float64

	// Baseline paid fraction drawn uniformly from [PaidFracMin, PaidFracMax].
	// Set both to 1 for exact-amount settlement.
	PaidFracMin float64
	PaidFracMax float64
}

// PayablePolicy controls stochastic supplier payment. The probability
// for an obligation past its terms is min(Cap, BaseProb +
// SlopePerDay*daysPastTerm + 0.1*jitter).
type PayablePolicy struct {
	BaseProb    float64
	SlopePerDay float64
	Cap         float64

	// Supplier payment terms drawn uniformly from [TermsMinDays, TermsMaxDays).
	TermsMinDays int
	TermsMaxDays int
}
