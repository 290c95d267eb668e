package core

import "math/rand/v2"

// golden is the 64-bit golden ratio increment used to decorrelate tick seeds.
const golden = 0x9e3779b97f4a7c15

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

// Stream returns the random stream for one lane of one tick. Parallel phases
// give every row batch its own lane, so the numbers a cell sees depend only on
// (seed, tick, lane) and never on how batches were scheduled.
func Stream(seed int64, tick uint64, lane int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed)+tick*golden, uint64(lane)<<1|1))
}
