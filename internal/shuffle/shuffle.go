// Package shuffle implements an unbiased in-place Fisher–Yates shuffle.
//
// The generator is injectable so callers can pass a seeded [rand.Rand] for reproducible orderings.
package shuffle

import "math/rand/v2"

// Shuffle permutes s in place and returns it.
//
// Walks from the last index down to 1, swapping each element with one drawn uniformly from [0, i].
// A nil r draws from the auto-seeded global source.
func Shuffle[T any](s []T, r *rand.Rand) []T {
	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}

	for i := len(s) - 1; i > 0; i-- {
		j := intN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// NewRand returns a PCG-backed generator for seed, or nil when seed is nil.
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return nil
	}
	return rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
}
