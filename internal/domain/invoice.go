package domain

import "time"

// ReceivableInvoice is an issued customer invoice awaiting collection.
// Entries are never deleted; settled ones keep their payment date.
type ReceivableInvoice struct {
	InvoiceID           string // "<project>_INV_<seq>"
	IssueDate           time.Time
	ExpectedPaymentDate time.Time // issue date + stochastic term
	Amount              float64
	Paid                bool
	ActualPaymentDate   *time.Time // set once paid
}

// SupplierObligation is a supplier/COGS invoice awaiting payment, the
// liability-side mirror of ReceivableInvoice. A partial payment reduces
// Amount and leaves the obligation unpaid; only a full payment sets the
// paid flag.
type SupplierObligation struct {
	SupplierID        string // "<project>_SUP_<seq>"
	IssueDate         time.Time
	Amount            float64 // outstanding amount owed
	PaymentTermsDays  int
	Paid              bool
	ActualPaymentDate *time.Time
}

// DueDate returns the date payment is expected by.
func (o *SupplierObligation) DueDate() time.Time {
	return o.IssueDate.AddDate(0, 0, o.PaymentTermsDays)
}
