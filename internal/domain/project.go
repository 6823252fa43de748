package domain

// ProjectConfig describes one simulated construction project.
// Immutable after profile construction; the engine only reads it.
type ProjectConfig struct {
	ProjectID string  // e.g. "PJT_A"
	Size      float64 // size scale, positive; multiplies cash amounts
	FrontLoad float64 // in [0,1]; biases events and costs toward project start
	EventRate float64 // average milestone events per month
}
