package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stream is a snapshot of a material stream.
// It is used as a value: Clone never shares the Flows backing array, so a stage
// can keep the copy it was given while its neighbours keep changing theirs.
// Components is shared and must be treated as read-only.
type Stream struct {
	Name          string    `json:"name,omitempty" yaml:"name,omitempty"`
	Components    []string  `json:"components" yaml:"components"`
	Flows         []float64 `json:"flows" yaml:"flows"`             // mol/s per component
	Temperature   float64   `json:"temperature" yaml:"temperature"` // K
	Pressure      float64   `json:"pressure" yaml:"pressure"`       // bar
	Enthalpy      float64   `json:"enthalpy" yaml:"enthalpy"`       // J/s
	VaporFraction float64   `json:"vapor_fraction" yaml:"vapor_fraction"`
}

// NewStream builds a stream from component flows. The flows slice is copied.
func NewStream(name string, components []string, flows []float64, temperature, pressure float64) Stream {
	return Stream{
		Name:        name,
		Components:  components,
		Flows:       append([]float64(nil), flows...),
		Temperature: temperature,
		Pressure:    pressure,
	}
}

// TotalFlow returns the total molar flow in mol/s.
func (s Stream) TotalFlow() float64 {
	if len(s.Flows) == 0 {
		return 0
	}
	return floats.Sum(s.Flows)
}

// IsEmpty reports whether the stream carries no material.
func (s Stream) IsEmpty() bool {
	return s.TotalFlow() <= FlowEpsilon
}

// Composition returns the mole fractions. An empty stream yields zeros.
func (s Stream) Composition() []float64 {
	out := make([]float64, len(s.Flows))
	total := s.TotalFlow()
	if total <= FlowEpsilon {
		return out
	}
	copy(out, s.Flows)
	floats.Scale(1/total, out)
	return out
}

// MolarEnthalpy returns the enthalpy per mole, or zero for an empty stream.
func (s Stream) MolarEnthalpy() float64 {
	total := s.TotalFlow()
	if total <= FlowEpsilon {
		return 0
	}
	return s.Enthalpy / total
}

// MoleFraction returns the mole fraction of the named component, or zero if absent.
func (s Stream) MoleFraction(component string) float64 {
	for i, name := range s.Components {
		if name == component && i < len(s.Flows) {
			total := s.TotalFlow()
			if total <= FlowEpsilon {
				return 0
			}
			return s.Flows[i] / total
		}
	}
	return 0
}

// Clone returns a deep copy of the stream.
func (s Stream) Clone() Stream {
	c := s
	c.Flows = append([]float64(nil), s.Flows...)
	return c
}

// EmptyLike returns a zero-flow stream with the same components, temperature and pressure.
func (s Stream) EmptyLike() Stream {
	return Stream{
		Name:        s.Name,
		Components:  s.Components,
		Flows:       make([]float64, len(s.Components)),
		Temperature: s.Temperature,
		Pressure:    s.Pressure,
	}
}

// Scaled returns a copy with every extensive property multiplied by factor.
func (s Stream) Scaled(factor float64) Stream {
	c := s.Clone()
	floats.Scale(factor, c.Flows)
	c.Enthalpy *= factor
	return c
}

// SameComponents reports whether both streams use the same component list.
func (s Stream) SameComponents(other Stream) bool {
	if len(s.Components) != len(other.Components) {
		return false
	}
	for i := range s.Components {
		if s.Components[i] != other.Components[i] {
			return false
		}
	}
	return true
}

// IsFinite reports whether every numeric field of the stream is finite.
func (s Stream) IsFinite() bool {
	for _, v := range []float64{s.Temperature, s.Pressure, s.Enthalpy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, f := range s.Flows {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Mix combines streams the way an adiabatic mixer does: flows and enthalpies add,
// the pressure is the lowest inlet pressure and the temperature is flow-weighted.
// Streams whose flow vector does not match the first non-empty stream are skipped.
func Mix(name string, streams ...Stream) Stream {
	var out Stream
	started := false
	weighted := 0.0
	for _, s := range streams {
		if len(s.Flows) == 0 {
			continue
		}
		if !started {
			out = Stream{
				Name:       name,
				Components: s.Components,
				Flows:      make([]float64, len(s.Flows)),
				Pressure:   s.Pressure,
			}
			started = true
		}
		if len(s.Flows) != len(out.Flows) {
			continue
		}
		floats.Add(out.Flows, s.Flows)
		out.Enthalpy += s.Enthalpy
		flow := s.TotalFlow()
		weighted += flow * s.Temperature
		if s.Pressure > 0 && (out.Pressure <= 0 || s.Pressure < out.Pressure) {
			out.Pressure = s.Pressure
		}
	}
	if total := out.TotalFlow(); total > FlowEpsilon {
		out.Temperature = weighted / total
	}
	return out
}

// Blend relaxes a tear stream: the result is prev + weight·(next − prev) for every
// extensive property. A weight of one (or an unusable prev) returns a copy of next.
// Negative component flows produced by over-relaxation are clipped to zero.
func Blend(prev, next Stream, weight float64) Stream {
	if weight >= 1 || len(prev.Flows) != len(next.Flows) || len(prev.Flows) == 0 {
		return next.Clone()
	}
	if weight <= 0 {
		return prev.Clone()
	}
	out := next.Clone()
	floats.AddScaledTo(out.Flows, prev.Flows, weight, floats.SubTo(make([]float64, len(next.Flows)), next.Flows, prev.Flows))
	for i, f := range out.Flows {
		if f < 0 {
			out.Flows[i] = 0
		}
	}
	out.Enthalpy = prev.Enthalpy + weight*(next.Enthalpy-prev.Enthalpy)
	out.Temperature = prev.Temperature + weight*(next.Temperature-prev.Temperature)
	out.Pressure = prev.Pressure + weight*(next.Pressure-prev.Pressure)
	out.VaporFraction = prev.VaporFraction + weight*(next.VaporFraction-prev.VaporFraction)
	return out
}
