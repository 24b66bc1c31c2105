package datalayer

import "math/rand"

// globalRand is the default Rand, delegating to math/rand's package-level
// functions the way sched/generators.go and distributor/randomDistributor.go
// do in the teacher repo, rather than threading an *rand.Rand everywhere.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

// DefaultRand returns the package-level math/rand source.
func DefaultRand() Rand { return globalRand{} }
