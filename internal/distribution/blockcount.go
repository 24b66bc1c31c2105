// Package distribution implements the two probability distributions that
// drive workload synthesis: how many blocks a task's inputs span, and how a
// trace-provided average runtime maps to a probability used to pick that
// block count.
package distribution

import "math"

// BlockCount implements a truncated inverse CDF mapping a uniform sample in
// [0,1] to an integer block count (spec section 4.1).
//
// The underlying CDF is F(x) = PMin + coef*log2(x) on [MinBlocks, MaxBlocks]
// with a point mass at the lower bound. coef is derived at construction time
// as (1-PMin)/log2(MaxBlocks).
type BlockCount struct {
	PMin      float64
	MinBlocks uint64
	MaxBlocks uint64
	coef      float64
}

// NewBlockCount builds a BlockCount distribution. Defaults per spec section
// 6 are PMin=0.50, MinBlocks=1, MaxBlocks=320; callers needing those should
// use config.Default() and pass the fields through.
func NewBlockCount(pMin float64, minBlocks, maxBlocks uint64) *BlockCount {
	return &BlockCount{
		PMin:      pMin,
		MinBlocks: minBlocks,
		MaxBlocks: maxBlocks,
		coef:      (1 - pMin) / math.Log2(float64(maxBlocks)),
	}
}

// Inverse maps y in [0,1] to a block count. If y <= PMin it returns
// MinBlocks (the point mass); otherwise round(2^((y-PMin)/coef)).
func (d *BlockCount) Inverse(y float64) uint64 {
	if y <= d.PMin {
		return d.MinBlocks
	}
	exp := (y - d.PMin) / d.coef
	return uint64(math.Round(math.Pow(2, exp)))
}

// Mean estimates the expectation by a Riemann sum with step 0.01 over
// (PMin, 1], adding the point mass PMin*MinBlocks.
func (d *BlockCount) Mean() float64 {
	const step = 0.01
	sum := d.PMin * float64(d.MinBlocks)
	for y := d.PMin + step; y <= 1.0; y += step {
		sum += step * float64(d.Inverse(y))
	}
	return sum
}
