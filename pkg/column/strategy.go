package column

import (
	"fmt"
	"math"

	"github.com/aretw0/tower/pkg/domain"
)

// strategy produces the next iterate from the post-sweep temperatures.
// Implementations keep their scratch state for one solve only.
type strategy interface {
	// streamRelaxation is the tear-stream blend weight for the next sweep.
	streamRelaxation() float64
	// update adjusts stage temperatures after a sweep. before holds the temperatures at
	// the start of the iteration, after the post-sweep values.
	update(c *Column, before, after []float64)
	// adapt feeds back the combined residual of the iteration.
	adapt(combined float64)
	// factor reports the relaxation or acceleration scale in effect.
	factor() float64
}

func newStrategy(kind domain.SolverType, cfg Config, stages int) (strategy, error) {
	switch kind {
	case domain.SolverDirect:
		return directStrategy{}, nil
	case domain.SolverDamped:
		return &dampedStrategy{
			cfg:   cfg,
			relax: newAdaptiveFactor(cfg, cfg.InitialRelaxation, cfg.MinRelaxation, cfg.MaxRelaxation),
		}, nil
	case domain.SolverBroyden:
		return newBroydenStrategy(cfg, stages), nil
	case domain.SolverInsideOut:
		return newInsideOutStrategy(cfg, stages), nil
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownSolver, int(kind))
	}
}

// adaptiveFactor grows geometrically while the combined residual improves and shrinks
// when it worsens by more than a few percent.
type adaptiveFactor struct {
	value, min, max float64
	grow, shrink    float64
	previous        float64
}

func newAdaptiveFactor(cfg Config, initial, lo, hi float64) adaptiveFactor {
	return adaptiveFactor{
		value:    math.Min(hi, math.Max(lo, initial)),
		min:      lo,
		max:      hi,
		grow:     cfg.RelaxationIncrease,
		shrink:   cfg.RelaxationDecrease,
		previous: math.Inf(1),
	}
}

func (a *adaptiveFactor) adapt(combined float64) {
	switch {
	case combined > a.previous*worseningRatio:
		a.value = math.Max(a.min, a.value*a.shrink)
	case combined < a.previous*improvingRatio:
		a.value = math.Min(a.max, a.value*a.grow)
	}
	a.previous = combined
}

// temperatureWeight bounds a relaxation factor for use on temperatures.
func temperatureWeight(cfg Config, factor float64) float64 {
	return math.Max(cfg.MinTemperatureRelaxation, math.Min(1, factor))
}

// directStrategy is plain sequential substitution.
type directStrategy struct{}

func (directStrategy) streamRelaxation() float64 { return 1 }
func (directStrategy) update(*Column, []float64, []float64) {}
func (directStrategy) adapt(float64) {}
func (directStrategy) factor() float64 { return 1 }

// dampedStrategy blends each new temperature with the old one.
type dampedStrategy struct {
	cfg   Config
	relax adaptiveFactor
}

func (d *dampedStrategy) streamRelaxation() float64 {
	return math.Min(1, d.relax.value)
}

func (d *dampedStrategy) update(c *Column, before, after []float64) {
	w := temperatureWeight(d.cfg, d.relax.value)
	for i, s := range c.stages {
		next := before[i] + w*(after[i]-before[i])
		if math.Abs(next-after[i]) > temperatureEpsilon {
			s.enforceTemperature(c.flasher, next)
		}
	}
}

func (d *dampedStrategy) adapt(combined float64) { d.relax.adapt(combined) }
func (d *dampedStrategy) factor() float64 { return d.relax.value }

// temperatureEpsilon is the smallest change worth a re-equilibration, in K.
const temperatureEpsilon = 1e-12
