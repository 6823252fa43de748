// Package ledger holds the per-project receivables/payables state: the
// lists of issued invoices and supplier obligations and the outstanding
// AR/AP/accrued-expense balances. All operations mutate the ledger in
// place; the engine calls them at most once per day each, in the fixed
// order receivable-issue → receivable-settle → payable-issue →
// payable-settle, so cash collected today can fund today's payments.
package ledger

import (
	"fmt"
	"math"
	"time"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/simrand"
)

// Ledger is the mutable receivables/payables state of one project.
type Ledger struct {
	projectID string

	receivables []*domain.ReceivableInvoice
	obligations []*domain.SupplierObligation
	invoiceSeq  int
	supplierSeq int

	ar      float64 // outstanding accounts receivable
	ap      float64 // outstanding accounts payable
	accrued float64 // outstanding accrued expenses
}

// New creates an empty ledger for a project.
func New(projectID string) *Ledger {
	return &Ledger{projectID: projectID}
}

// IssueReceivable appends a new unpaid invoice and increases the
// outstanding AR balance by its amount.
func (l *Ledger) IssueReceivable(amount float64, issueDate time.Time, termDays int) *domain.ReceivableInvoice {
	inv := &domain.ReceivableInvoice{
		InvoiceID:           fmt.Sprintf("%s_INV_%d", l.projectID, l.invoiceSeq),
		IssueDate:           issueDate,
		ExpectedPaymentDate: issueDate.AddDate(0, 0, termDays),
		Amount:              amount,
	}
	l.invoiceSeq++
	l.receivables = append(l.receivables, inv)
	l.ar += amount
	return inv
}

// SettleReceivables scans unpaid invoices due on or before today and
// settles each with a probability that grows with days past due:
// min(cap, base + slope·daysPastDue + 0.1·jitter). The paid amount is
// the invoice amount times the policy's paid-fraction and penalty
// factors. Returns the cash collected today.
func (l *Ledger) SettleReceivables(today time.Time, pol domain.ReceivablePolicy, rng *simrand.Rand) float64 {
	var collected float64

	for _, inv := range l.receivables {
		if inv.Paid {
			continue
		}
		pastDue := daysBetween(inv.ExpectedPaymentDate, today)
		if pastDue < 0 {
			continue
		}

		prob := math.Min(pol.Cap, pol.BaseProb+pol.SlopePerDay*float64(pastDue)+0.1*rng.Float64())
		if rng.Float64() >= prob {
			continue
		}

		penalty := 1.0
		if pol.GaussPenaltySigma > 0 {
			penalty = rng.Normal(1.0, pol.GaussPenaltySigma)
		}
		if pol.LatePenaltyPerDay > 0 {
			penalty = math.Max(1.0, 1.0+pol.LatePenaltyPerDay*float64(pastDue))
		}

		frac := 1.0
		if pol.PaidFracMax > pol.PaidFracMin {
			frac = rng.Uniform(pol.PaidFracMin, pol.PaidFracMax)
		}
		if pol.PartialChance > 0 && rng.Float64() < pol.PartialChance {
			frac = rng.Uniform(pol.PartialMin, pol.PartialMax)
		}

		paid := domain.Round2(inv.Amount * frac * penalty)
		when := today
		inv.Paid = true
		inv.ActualPaymentDate = &when

		collected += paid
		l.ar = domain.ClampNonNeg(l.ar - paid)
	}

	return collected
}

// IssuePayable appends a new unpaid supplier obligation and increases
// the outstanding AP and accrued-expense balances by its amount.
func (l *Ledger) IssuePayable(amount float64, issueDate time.Time, termDays int) *domain.SupplierObligation {
	ob := &domain.SupplierObligation{
		SupplierID:       fmt.Sprintf("%s_SUP_%d", l.projectID, l.supplierSeq),
		IssueDate:        issueDate,
		Amount:           amount,
		PaymentTermsDays: termDays,
	}
	l.supplierSeq++
	l.obligations = append(l.obligations, ob)
	l.ap += amount
	l.accrued += amount
	return ob
}

// SettlePayables scans unpaid obligations due on or before today and
// pays each with a probability that grows with days past term. Each
// payment is bounded by the available cash remaining after earlier
// payments in the same call. A full payment marks the obligation paid;
// a shortfall pays what is available, reduces the obligation and leaves
// it unpaid. Returns the cash paid out today.
func (l *Ledger) SettlePayables(today time.Time, availableCash float64, pol domain.PayablePolicy, rng *simrand.Rand) float64 {
	remaining := domain.ClampNonNeg(availableCash)
	var paidOut float64

	for _, ob := range l.obligations {
		if ob.Paid {
			continue
		}
		pastTerm := daysBetween(ob.DueDate(), today)
		if pastTerm < 0 {
			continue
		}

		prob := math.Min(pol.Cap, pol.BaseProb+pol.SlopePerDay*float64(pastTerm)+0.1*rng.Float64())
		if rng.Float64() >= prob {
			continue
		}

		payment := math.Min(ob.Amount, remaining)
		if payment <= 0 {
			continue
		}

		if payment >= ob.Amount {
			when := today
			ob.Paid = true
			ob.ActualPaymentDate = &when
		} else {
			ob.Amount = domain.Round2(ob.Amount - payment)
		}

		paidOut += payment
		remaining -= payment
		l.ap = domain.ClampNonNeg(l.ap - payment)
		l.accrued = domain.ClampNonNeg(l.accrued - payment)
	}

	return paidOut
}

// OutstandingAR returns the outstanding accounts-receivable balance.
func (l *Ledger) OutstandingAR() float64 { return l.ar }

// OutstandingAP returns the outstanding accounts-payable balance.
func (l *Ledger) OutstandingAP() float64 { return l.ap }

// OutstandingAccrued returns the outstanding accrued-expense balance.
func (l *Ledger) OutstandingAccrued() float64 { return l.accrued }

// Receivables returns the full invoice list, settled entries included.
func (l *Ledger) Receivables() []*domain.ReceivableInvoice { return l.receivables }

// Obligations returns the full obligation list, settled entries included.
func (l *Ledger) Obligations() []*domain.SupplierObligation { return l.obligations }

// daysBetween returns whole days from a to b. Dates are UTC midnights,
// so the division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
