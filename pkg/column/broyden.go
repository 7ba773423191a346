package column

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// broydenStrategy accelerates substitution with a scalar secant coefficient:
// β = −(r·Δr)/(Δr·Δr), then T = T_old + r + β·Δr with r the sweep's temperature change.
// Only two-phase stages are moved; a single-phase stage keeps its enthalpy-balanced state.
// The temperature band applies only to stages the sweep left inside it.
type broydenStrategy struct {
	cfg   Config
	scale adaptiveFactor

	residual []float64
	previous []float64
	delta    []float64
	primed   bool
}

func newBroydenStrategy(cfg Config, stages int) *broydenStrategy {
	return &broydenStrategy{
		cfg:      cfg,
		scale:    newAdaptiveFactor(cfg, cfg.InitialAcceleration, cfg.MinRelaxation, cfg.MaxRelaxation),
		residual: make([]float64, stages),
		previous: make([]float64, stages),
		delta:    make([]float64, stages),
	}
}

func (b *broydenStrategy) streamRelaxation() float64 { return 1 }

func (b *broydenStrategy) update(c *Column, before, after []float64) {
	beta := b.accelerate(before, after)
	if beta == 0 {
		return
	}
	for i, s := range c.stages {
		if !c.twoPhase(s) {
			continue
		}
		next := after[i] + beta*b.delta[i]
		if after[i] >= b.cfg.MinTemperature && after[i] <= b.cfg.MaxTemperature {
			next = math.Max(b.cfg.MinTemperature, math.Min(b.cfg.MaxTemperature, next))
		}
		if math.Abs(next-after[i]) > temperatureEpsilon {
			s.enforceTemperature(c.flasher, next)
		}
	}
}

// accelerate records the sweep's temperature change and returns the clamped secant
// coefficient. The first call of a solve only primes the history and returns zero.
func (b *broydenStrategy) accelerate(before, after []float64) float64 {
	floats.SubTo(b.residual, after, before)
	defer func() {
		copy(b.previous, b.residual)
		b.primed = true
	}()
	if !b.primed {
		return 0
	}

	floats.SubTo(b.delta, b.residual, b.previous)
	beta := 0.0
	if dd := floats.Dot(b.delta, b.delta); dd >= secantEpsilon {
		beta = -floats.Dot(b.residual, b.delta) / dd
	}
	return math.Max(b.cfg.MinAcceleration, math.Min(b.cfg.MaxAcceleration, b.scale.value*beta))
}

func (b *broydenStrategy) adapt(combined float64) { b.scale.adapt(combined) }
func (b *broydenStrategy) factor() float64 { return b.scale.value }

// secantEpsilon is the smallest Δr·Δr for which the secant coefficient is computed.
const secantEpsilon = 1e-12
