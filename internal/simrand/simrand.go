// Package simrand provides the deterministic random streams used by the
// simulation. Each project owns its own stream, derived from the global
// seed and the project id, so per-project sequences are reproducible and
// independent of project iteration order.
package simrand

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is a deterministic random stream for one project's simulation.
type Rand struct {
	src *rand.PCG
	rng *rand.Rand
}

// New creates a stream from an explicit 128-bit PCG state.
func New(hi, lo uint64) *Rand {
	src := rand.NewPCG(hi, lo)
	return &Rand{src: src, rng: rand.New(src)}
}

// ForProject derives a project stream from the global seed.
// Formula: SHA256("<seed>|<projectID>"), first 16 bytes as PCG state.
func ForProject(seed uint64, projectID string) *Rand {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", seed, projectID)))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	return New(hi, lo)
}

// Float64 returns a uniform draw in [0,1).
func (r *Rand) Float64() float64 {
	return r.rng.Float64()
}

// Uniform returns a uniform draw in [min, max).
func (r *Rand) Uniform(min, max float64) float64 {
	return min + (max-min)*r.rng.Float64()
}

// Normal returns a Gaussian draw with the given mean and stddev.
func (r *Rand) Normal(mu, sigma float64) float64 {
	return mu + sigma*r.rng.NormFloat64()
}

// IntN returns a uniform integer draw in [0, n).
func (r *Rand) IntN(n int) int {
	return r.rng.IntN(n)
}

// Beta returns a draw from a Beta(alpha, beta) distribution.
func (r *Rand) Beta(alpha, beta float64) float64 {
	return distuv.Beta{Alpha: alpha, Beta: beta, Src: r.src}.Rand()
}

// Bernoulli reports a success draw with probability p.
func (r *Rand) Bernoulli(p float64) bool {
	return r.rng.Float64() < p
}
