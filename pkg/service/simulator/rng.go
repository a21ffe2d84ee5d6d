package simulator

import (
	"hash/fnv"
	"math/rand/v2"
)

// RNG is the random source consumed by the simulator. *rand.Rand satisfies it.
type RNG interface {
	Float64() float64
	NormFloat64() float64
}

// NewRNG returns a PCG-backed generator for seed and stream
func NewRNG(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// streamOf derives a stable stream number from a key so that each
// (risk, scenario) pair draws from its own sequence regardless of the
// order pairs are scheduled in
func streamOf(key string, worker int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64() + uint64(worker)
}
