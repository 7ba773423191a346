package column

import (
	"math"

	"github.com/aretw0/tower/pkg/domain"
)

// residuals of one iteration.
type residuals struct {
	temperature float64 // mean |T* − T_old| in K
	mass        float64 // relative
	energy      float64 // relative
}

func (r residuals) finite() bool {
	for _, v := range []float64{r.temperature, r.mass, r.energy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// combined is the largest residual divided by its own tolerance.
// math.Max propagates NaN, which the abort guard relies on.
func (r residuals) combined(cfg Config) float64 {
	out := math.Max(r.temperature/cfg.TemperatureTolerance, r.mass/cfg.MassTolerance)
	if cfg.EnforceEnergyTolerance || !r.finite() {
		out = math.Max(out, r.energy/cfg.EnergyTolerance)
	}
	return out
}

// measure computes the residuals after an iteration. Stage balances use the live
// neighbour outlets rather than the relaxed slot contents, so a residual only vanishes
// once the tear streams are consistent.
func (c *Column) measure(before, after []float64) residuals {
	n := len(c.stages)
	var r residuals
	for i := range c.stages {
		r.temperature += math.Abs(after[i] - before[i])
	}
	r.temperature /= float64(n)

	for i, s := range c.stages {
		var flowIn, flowOut, heatIn, heatOut float64
		add := func(st domain.Stream) {
			flowIn += st.TotalFlow()
			heatIn += st.Enthalpy
		}
		for _, f := range s.feeds {
			add(f)
		}
		if i > 0 {
			add(c.stages[i-1].vaporOut)
		}
		if i < n-1 {
			add(c.stages[i+1].liquidOut)
		}
		for _, out := range s.outflows() {
			flowOut += out.TotalFlow()
			heatOut += out.Enthalpy
		}

		if flowIn > domain.FlowEpsilon {
			r.mass = math.Max(r.mass, math.Abs(flowIn-flowOut)/flowIn)
		}
		if scale := math.Abs(heatIn) + math.Abs(s.duty); scale > domain.FlowEpsilon {
			r.energy = math.Max(r.energy, math.Abs(heatIn+s.duty-heatOut)/scale)
		}
	}

	mass, energy := c.columnImbalance()
	r.mass = math.Max(r.mass, mass)
	r.energy = math.Max(r.energy, energy)
	return r
}

// columnImbalance returns |ΣF − D − B|/ΣF and the matching enthalpy quantity including
// every stage duty.
func (c *Column) columnImbalance() (mass, energy float64) {
	var feedFlow, feedHeat, duty, absDuty float64
	for _, list := range c.feeds {
		for _, f := range list {
			feedFlow += f.TotalFlow()
			feedHeat += f.Enthalpy
		}
	}
	for _, s := range c.stages {
		duty += s.duty
		absDuty += math.Abs(s.duty)
	}
	top, bottom := c.TopProduct(), c.BottomProduct()

	if feedFlow > domain.FlowEpsilon {
		mass = math.Abs(feedFlow-top.TotalFlow()-bottom.TotalFlow()) / feedFlow
	}
	if scale := math.Abs(feedHeat) + absDuty; scale > domain.FlowEpsilon {
		energy = math.Abs(feedHeat+duty-top.Enthalpy-bottom.Enthalpy) / scale
	}
	return mass, energy
}

