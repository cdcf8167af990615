// Package rng owns the single random stream of a generation run.
//
// A run is seeded exactly once. Seed 0 is a sentinel: a fresh seed is drawn
// and reported back so the run can be reproduced later.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// MaxSeed bounds freshly drawn seeds to the positive int32 range so they stay
// readable in manifests and other tools' config files.
const MaxSeed = 2147483647

// Seed is a resolved run seed.
type Seed struct {
	Value int64
	Fresh bool // drawn because the configured seed was 0
}

// Resolve turns a configured seed into the seed actually used.
func Resolve(configured int64) Seed {
	if configured != 0 {
		return Seed{Value: configured}
	}
	return Seed{Value: fresh(), Fresh: true}
}

func fresh() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Int64N(MaxSeed-1) + 1
	}
	v := int64(binary.LittleEndian.Uint64(b[:]) % (MaxSeed - 1))
	return v + 1
}

// New returns the run's random source for a resolved seed.
func New(s Seed) *rand.Rand {
	u := uint64(s.Value)
	return rand.New(rand.NewPCG(u, u^0x9e3779b97f4a7c15))
}

// Choice draws one element of values uniformly.
// It panics on an empty slice, like rand.IntN(0).
func Choice[T any](r *rand.Rand, values []T) T {
	return values[r.IntN(len(values))]
}
