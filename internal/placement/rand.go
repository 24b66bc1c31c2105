package placement

import "math/rand"

// Rand is the minimal RNG surface randomized placement needs.
type Rand interface {
	Intn(n int) int
}

// globalRand delegates to math/rand's package-level functions, the same
// idiom used by distributor/randomDistributor.go in the teacher repo.
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// DefaultRand returns the package-level math/rand source.
func DefaultRand() Rand { return globalRand{} }
