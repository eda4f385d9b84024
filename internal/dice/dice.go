// Package dice hands out seeded random generators so that every random
// outcome in a tick can be replayed from its inputs.
package dice

import (
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Seed hashes the ids, in order, followed by the time.
func Seed(at time.Time, ids ...uuid.UUID) uint64 {
	d := xxhash.New()
	for _, id := range ids {
		d.Write(id[:])
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at.UnixNano()))
	d.Write(ts[:])
	return d.Sum64()
}

// New returns a generator seeded from Seed(at, ids...).
func New(at time.Time, ids ...uuid.UUID) *rand.Rand {
	s := Seed(at, ids...)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// Roll reports whether an event of probability p happens.
func Roll(r *rand.Rand, p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return r.Float64() < p
}
