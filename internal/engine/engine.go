// Package engine implements the per-day financial state walk for one
// project: phase parameters and the ledger drive the day's accrual and
// cash figures, the running cash balance advances under the reserve
// buffer and non-negativity constraints, and a record is emitted for
// days with real activity.
package engine

import (
	"math"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/ledger"
	"cashflow-lab/internal/schedule"
	"cashflow-lab/internal/simrand"
)

// Engine generates the daily ledger series for projects of one profile.
type Engine struct {
	spec domain.ProfileSpec
}

// New creates an engine for a profile.
func New(spec domain.ProfileSpec) *Engine {
	return &Engine{spec: spec}
}

// RunProject walks the project's calendar in strict date order and
// returns its emitted records, ascending by date. The walk is fully
// sequential: each day's opening cash and ledger state depend on the
// prior day's outputs. Draw order per project is fixed (opening
// balance, then schedule, then the daily loop) so a given seed always
// reproduces the same series.
func (e *Engine) RunProject(cfg domain.ProjectConfig, rng *simrand.Rand) []*domain.DailyRecord {
	span := e.spec.SpanDays()
	if span <= 0 {
		return nil
	}

	opening := domain.Round2(domain.ClampNonNeg(
		e.spec.OpeningCashBase*cfg.Size + rng.Normal(0, e.spec.OpeningCashSigma)))
	sched := schedule.Build(cfg, span, rng)
	led := ledger.New(cfg.ProjectID)

	var offsets []int
	if e.spec.Basis == domain.BasisCash {
		// Sparse walk: only scheduled event days can move state.
		offsets = sched.ActiveDays()
	} else {
		offsets = make([]int, span)
		for i := range offsets {
			offsets[i] = i
		}
	}

	var records []*domain.DailyRecord
	lastClosing := opening

	for _, off := range offsets {
		date := e.spec.Start.AddDate(0, 0, off)
		phase := domain.PhaseAt(off)
		params := e.spec.PhaseParams[phase]

		openingCash := lastClosing
		reservePct := rng.Uniform(e.spec.ReserveMinPct, e.spec.ReserveMaxPct)
		reserve := openingCash * reservePct
		active := sched.Active(off)

		var actualIn, actualOut float64
		var expIn, expOut float64
		var revenue, cogs float64

		if active {
			// 1) Issue an invoice (probability from the phase table).
			if rng.Float64() < params.InvoiceRate {
				base := e.spec.InvoiceBase * cfg.Size * (0.2 + 0.8*rng.Float64())
				if phase == domain.PhaseSetup {
					base *= 1.0 + cfg.FrontLoad*e.spec.SetupInvoiceBoost
				}
				amount := domain.Round2(base)
				led.IssueReceivable(amount, date, e.paymentTerm(params, rng))
				if e.spec.Basis == domain.BasisCash {
					expIn = amount
				} else {
					revenue = amount
				}
			}

			// 2) Collect payments for invoices past their term.
			actualIn += led.SettleReceivables(date, e.spec.Receivables, rng)

			// 3) Recognize a supplier/COGS obligation.
			if rng.Float64() < e.spec.PayableProb {
				base := e.spec.OutflowBase * cfg.Size * (0.2 + rng.Float64())
				if phase == domain.PhaseSetup {
					base *= 1.0 + cfg.FrontLoad*e.spec.SetupOutflowBoost
				}
				if phase == domain.PhaseFinishing {
					base *= e.spec.FinishingOutflowBoost
				}
				amount := domain.Round2(base)
				if e.spec.Basis == domain.BasisAccrual {
					cogs = amount
					terms := e.spec.Payables.TermsMinDays +
						rng.IntN(e.spec.Payables.TermsMaxDays-e.spec.Payables.TermsMinDays)
					led.IssuePayable(amount, date, terms)
				} else {
					expOut = amount
				}
			}

			// 4) Pay out, funded by opening cash plus today's collections
			// and bounded by the reserve buffer.
			if e.spec.Basis == domain.BasisAccrual {
				avail := domain.ClampNonNeg(openingCash + actualIn - reserve)
				actualOut += led.SettlePayables(date, avail, e.spec.Payables, rng)
			} else if expOut > 0 {
				shock := rng.Normal(1.0, e.spec.OutflowShockSigma)
				candidate := domain.ClampNonNeg(expOut * shock)
				if rng.Float64() < e.spec.SpikeChance {
					candidate *= e.spec.SpikeMin + e.spec.SpikeSpan*rng.Float64()
				}
				if sched.HasTag(off, schedule.TagUnplanned) {
					candidate *= 1.0 + e.spec.UnplannedBoostSpan*rng.Float64()
				}
				avail := domain.ClampNonNeg(openingCash + actualIn - reserve)
				actualOut = domain.Round2(math.Min(candidate, avail))
			}
		}

		actualIn = domain.Round2(actualIn)

		// Re-enforce the reserve bound after all of today's mutations.
		avail := domain.ClampNonNeg(openingCash + actualIn - reserve)
		if actualOut > avail {
			actualOut = avail
		}
		actualOut = domain.Round2(actualOut)

		net := domain.Round2(actualIn - actualOut)
		closing := domain.Round2(domain.ClampNonNeg(openingCash + actualIn - actualOut))

		var emit bool
		if e.spec.Basis == domain.BasisCash {
			emit = expIn > 0 || actualIn > 0 || expOut > 0 || actualOut > 0
		} else {
			emit = revenue > 0 || cogs > 0 || actualIn > 0 || actualOut > 0 || active
		}

		if emit {
			rec := &domain.DailyRecord{
				Date:          date,
				ProjectID:     cfg.ProjectID,
				ActualInflow:  actualIn,
				ActualOutflow: actualOut,
				OpeningCash:   openingCash,
				ClosingCash:   closing,
				NetCashFlow:   net,
				ReserveBuffer: domain.Round2(reserve),
			}
			if e.spec.Basis == domain.BasisCash {
				rec.ExpectedInflow = expIn
				rec.ExpectedOutflow = expOut
			} else {
				rec.RevenueRecognized = revenue
				rec.COGSExpense = cogs
				rec.AccountsReceivable = domain.Round2(led.OutstandingAR())
				rec.AccountsPayable = domain.Round2(led.OutstandingAP())
				rec.AccruedExpenses = domain.Round2(led.OutstandingAccrued())
				rec.CurrentLiabilities = domain.Round2(led.OutstandingAP() + led.OutstandingAccrued())
			}
			records = append(records, rec)
		}

		// Carry closing cash forward whether or not a row was emitted,
		// so the next emitted record chains to the last emitted one.
		lastClosing = closing
	}

	return records
}

// paymentTerm draws an invoice payment term: N(mean, sigma) truncated
// to the profile's [min, max] day range.
func (e *Engine) paymentTerm(params domain.PhaseParams, rng *simrand.Rand) int {
	term := rng.Normal(params.PaymentTermMean, e.spec.TermSigma)
	term = math.Min(math.Max(term, float64(e.spec.TermMinDays)), float64(e.spec.TermMaxDays))
	return int(term)
}
