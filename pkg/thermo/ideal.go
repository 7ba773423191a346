package thermo

import (
	"fmt"
	"math"

	"github.com/aretw0/tower/pkg/domain"
)

// Temperature window searched by the iterative flash modes, in K.
const (
	MinFlashTemperature = 20.0
	MaxFlashTemperature = 2500.0
)

// Pressure window searched by the VU flash, in bar.
const (
	minFlashPressure = 1e-4
	maxFlashPressure = 1e4
)

// Ideal is an ideal-solution flasher: Wilson K-values, Rachford-Rice phase split,
// constant heat capacity and a latent heat consistent with the K-value correlation.
// Enthalpies are referenced to a zero-enthalpy liquid at 0 K, so they stay positive.
//
// Ideal is immutable and safe for concurrent use.
type Ideal struct {
	components []Component
	names      []string
}

// NewIdeal builds a flasher for the named components from the embedded database.
func NewIdeal(names ...string) (*Ideal, error) {
	db, err := DefaultDatabase()
	if err != nil {
		return nil, err
	}
	return NewIdealFrom(db, names...)
}

// NewIdealFrom builds a flasher for the named components from db.
func NewIdealFrom(db *Database, names ...string) (*Ideal, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no components", domain.ErrUnknownComponent)
	}
	m := &Ideal{names: append([]string(nil), names...)}
	for _, name := range names {
		c, err := db.Lookup(name)
		if err != nil {
			return nil, err
		}
		m.components = append(m.components, c)
	}
	return m, nil
}

// Components returns the component names in flow-vector order.
func (m *Ideal) Components() []string {
	return m.names
}

// KValues returns the Wilson K-values at temperature (K) and pressure (bar).
func (m *Ideal) KValues(temperature, pressure float64) []float64 {
	k := make([]float64, len(m.components))
	for i, c := range m.components {
		k[i] = c.Pc / pressure * math.Exp(wilsonConstant*(1+c.Omega)*(1-c.Tc/temperature))
	}
	return k
}

// Equilibrate implements ports.Flasher.
func (m *Ideal) Equilibrate(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error) {
	if len(feed.Flows) != len(m.components) {
		return domain.Equilibrium{}, fmt.Errorf("%w: flasher has %d components, feed has %d",
			domain.ErrComponentMismatch, len(m.components), len(feed.Flows))
	}
	if !feed.IsFinite() {
		return domain.Equilibrium{}, fmt.Errorf("%w: non-finite feed", domain.ErrFlashFailed)
	}

	switch spec.Mode {
	case domain.FlashTP:
		return m.flashTP(feed.Flows, spec.Temperature, spec.Pressure)
	case domain.FlashPH:
		return m.flashPH(feed.Flows, spec.Pressure, spec.Enthalpy, spec.TemperatureGuess)
	case domain.FlashPVF:
		return m.flashPVF(feed.Flows, spec.Pressure, spec.VaporFraction, spec.TemperatureGuess)
	case domain.FlashVU:
		return m.flashVU(feed.Flows, spec.Volume, spec.InternalEnergy, spec.TemperatureGuess)
	default:
		return domain.Equilibrium{}, fmt.Errorf("%w: unsupported mode %s", domain.ErrFlashFailed, spec.Mode)
	}
}

func checkState(temperature, pressure float64) error {
	if !(temperature > 0) || !(pressure > 0) || math.IsInf(temperature, 0) || math.IsInf(pressure, 0) {
		return fmt.Errorf("%w: T=%g K, P=%g bar", domain.ErrFlashOutOfRange, temperature, pressure)
	}
	return nil
}

func total(flows []float64) float64 {
	sum := 0.0
	for _, f := range flows {
		sum += f
	}
	return sum
}

func (m *Ideal) flashTP(flows []float64, temperature, pressure float64) (domain.Equilibrium, error) {
	if err := checkState(temperature, pressure); err != nil {
		return domain.Equilibrium{}, err
	}
	k := m.KValues(temperature, pressure)
	n := total(flows)
	if n <= domain.FlowEpsilon {
		return m.build(flows, k, 0, temperature, pressure), nil
	}
	z := make([]float64, len(flows))
	for i, f := range flows {
		z[i] = f / n
	}
	return m.build(flows, k, rachfordRice(z, k), temperature, pressure), nil
}

// enthalpyAt returns the total enthalpy of flows after a TP flash.
func (m *Ideal) enthalpyAt(flows []float64, temperature, pressure float64) (float64, error) {
	eq, err := m.flashTP(flows, temperature, pressure)
	if err != nil {
		return 0, err
	}
	return eq.Enthalpy, nil
}

func (m *Ideal) flashPH(flows []float64, pressure, enthalpy, guess float64) (domain.Equilibrium, error) {
	if err := checkState(300, pressure); err != nil {
		return domain.Equilibrium{}, err
	}
	n := total(flows)
	if n <= domain.FlowEpsilon {
		t := guess
		if !(t > 0) {
			t = 298.15
		}
		return m.flashTP(flows, t, pressure)
	}
	residual := func(t float64) (float64, error) {
		h, err := m.enthalpyAt(flows, t, pressure)
		return h - enthalpy, err
	}
	a, b := bracket(residual, guess, 10, MinFlashTemperature, MaxFlashTemperature)
	t, err := illinois(residual, a, b, 1e-9, 1e-9*math.Max(1, math.Abs(enthalpy)))
	if err != nil {
		return domain.Equilibrium{}, fmt.Errorf("PH flash at %g bar: %w", pressure, err)
	}
	return m.flashTP(flows, t, pressure)
}

func (m *Ideal) flashPVF(flows []float64, pressure, vaporFraction, guess float64) (domain.Equilibrium, error) {
	if err := checkState(300, pressure); err != nil {
		return domain.Equilibrium{}, err
	}
	if vaporFraction < 0 || vaporFraction > 1 || math.IsNaN(vaporFraction) {
		return domain.Equilibrium{}, fmt.Errorf("%w: vapor fraction %g", domain.ErrFlashOutOfRange, vaporFraction)
	}
	n := total(flows)
	if n <= domain.FlowEpsilon {
		t := guess
		if !(t > 0) {
			t = 298.15
		}
		return m.flashTP(flows, t, pressure)
	}
	z := make([]float64, len(flows))
	for i, f := range flows {
		z[i] = f / n
	}
	// Rachford-Rice residual at fixed beta; increases with temperature.
	residual := func(t float64) (float64, error) {
		k := m.KValues(t, pressure)
		sum := 0.0
		for i := range z {
			sum += z[i] * (k[i] - 1) / (1 + vaporFraction*(k[i]-1))
		}
		return sum, nil
	}
	a, b := bracket(residual, guess, 10, MinFlashTemperature, MaxFlashTemperature)
	t, err := illinois(residual, a, b, 1e-10, 1e-13)
	if err != nil {
		return domain.Equilibrium{}, fmt.Errorf("PVF flash at %g bar: %w", pressure, err)
	}
	return m.build(flows, m.KValues(t, pressure), vaporFraction, t, pressure), nil
}

func (m *Ideal) flashVU(flows []float64, volume, internalEnergy, guess float64) (domain.Equilibrium, error) {
	if !(volume > 0) {
		return domain.Equilibrium{}, fmt.Errorf("%w: volume %g", domain.ErrFlashOutOfRange, volume)
	}
	if total(flows) <= domain.FlowEpsilon {
		return domain.Equilibrium{}, fmt.Errorf("%w: VU flash of an empty feed", domain.ErrFlashOutOfRange)
	}
	// pressureFor solves volume(T, P) = volume on log P; volume falls as P rises.
	pressureFor := func(t float64) (float64, error) {
		lo, hi := math.Log(minFlashPressure), math.Log(maxFlashPressure)
		for iter := 0; iter < maxRootIterations && hi-lo > 1e-12; iter++ {
			mid := 0.5 * (lo + hi)
			eq, err := m.flashTP(flows, t, math.Exp(mid))
			if err != nil {
				return 0, err
			}
			if eq.Volume > volume {
				lo = mid
			} else {
				hi = mid
			}
		}
		return math.Exp(0.5 * (lo + hi)), nil
	}
	residual := func(t float64) (float64, error) {
		p, err := pressureFor(t)
		if err != nil {
			return 0, err
		}
		eq, err := m.flashTP(flows, t, p)
		if err != nil {
			return 0, err
		}
		return eq.Enthalpy - p*domain.BarToPascal*eq.Volume - internalEnergy, nil
	}
	a, b := bracket(residual, guess, 10, MinFlashTemperature, MaxFlashTemperature)
	t, err := illinois(residual, a, b, 1e-9, 1e-9*math.Max(1, math.Abs(internalEnergy)))
	if err != nil {
		return domain.Equilibrium{}, fmt.Errorf("VU flash: %w", err)
	}
	p, err := pressureFor(t)
	if err != nil {
		return domain.Equilibrium{}, err
	}
	return m.flashTP(flows, t, p)
}

// build splits flows at a known vapor fraction. Component flows are conserved exactly:
// the liquid gets whatever the vapor does not.
func (m *Ideal) build(flows, k []float64, beta, temperature, pressure float64) domain.Equilibrium {
	nc := len(flows)
	vap := make([]float64, nc)
	liq := make([]float64, nc)
	for i, f := range flows {
		switch {
		case beta <= 0:
			vap[i] = 0
		case beta >= 1:
			vap[i] = f
		default:
			vap[i] = f * beta * k[i] / (1 + beta*(k[i]-1))
		}
		liq[i] = math.Max(0, f-vap[i])
	}

	var hv, hl, mass, liquidVolume, latent float64
	for i, c := range m.components {
		sensible := c.Cp * temperature
		hv += vap[i] * (sensible + c.HeatOfVaporization())
		hl += liq[i] * sensible
		mass += flows[i] * c.MolarMass / 1000
		liquidVolume += liq[i] * c.MolarMass / 1000 / c.LiquidDensity
		latent += flows[i] * c.HeatOfVaporization()
	}
	v, l := total(vap), total(liq)
	vaporVolume := v * domain.GasConstant * temperature / (pressure * domain.BarToPascal)

	eq := domain.Equilibrium{
		Temperature: temperature,
		Pressure:    pressure,
		Vapor: domain.Stream{
			Name: "vapor", Components: m.names, Flows: vap,
			Temperature: temperature, Pressure: pressure, Enthalpy: hv, VaporFraction: 1,
		},
		Liquid: domain.Stream{
			Name: "liquid", Components: m.names, Flows: liq,
			Temperature: temperature, Pressure: pressure, Enthalpy: hl,
		},
		KValues:  k,
		Enthalpy: hv + hl,
		Volume:   vaporVolume + liquidVolume,
	}
	if n := v + l; n > domain.FlowEpsilon {
		eq.VaporFraction = v / n
		eq.HeatOfVaporization = latent / n
	}
	if eq.Volume > 0 {
		eq.Density = mass / eq.Volume
	}
	if v > domain.FlowEpsilon {
		eq.Phases++
	}
	if l > domain.FlowEpsilon {
		eq.Phases++
	}
	return eq
}
