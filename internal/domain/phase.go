package domain

// Phase is a project lifecycle phase. Phases switch on fixed day
// thresholds counted from the project start date.
type Phase string

// Lifecycle phase constants, in chronological order.
const (
	PhaseSetup      Phase = "setup"
	PhaseExecution1 Phase = "execution1"
	PhaseExecution2 Phase = "execution2"
	PhaseFinishing  Phase = "finishing"
)

// Phase boundary thresholds in days since project start.
const (
	phaseExecution1Start = 365
	phaseExecution2Start = 730
	phaseFinishingStart  = 1064
)

// PhaseAt maps elapsed days since project start to a lifecycle phase.
func PhaseAt(daysSinceStart int) Phase {
	switch {
	case daysSinceStart < phaseExecution1Start:
		return PhaseSetup
	case daysSinceStart < phaseExecution2Start:
		return PhaseExecution1
	case daysSinceStart < phaseFinishingStart:
		return PhaseExecution2
	default:
		return PhaseFinishing
	}
}

// PhaseParams is the parameter bundle attached to a phase. Values come
// from fixed per-profile lookup tables and are never recomputed.
type PhaseParams struct {
	InvoiceRate     float64 // probability of issuing an invoice on an active day
	PaymentTermMean float64 // mean payment term in days
	OutflowScale    float64 // relative expense intensity of the phase
}
