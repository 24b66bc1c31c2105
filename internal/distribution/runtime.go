package distribution

import "math"

// Runtime maps a trace-provided average task duration to a probability
// (power-law), used in turn as the input y to BlockCount.Inverse so that
// longer tasks tend to read more blocks (spec section 4.2).
type Runtime struct {
	Factor float64
	Power  float64
}

// NewRuntime builds a Runtime distribution. Defaults per spec section 6 are
// Factor=0.298, Power=-0.2627.
func NewRuntime(factor, power float64) *Runtime {
	return &Runtime{Factor: factor, Power: power}
}

// ProportionShorter returns factor*avgUs^power clamped to [0,1]. An average
// of 0 returns 0.
func (d *Runtime) ProportionShorter(avgUs uint64) float64 {
	if avgUs == 0 {
		return 0
	}
	p := d.Factor * math.Pow(float64(avgUs), d.Power)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
