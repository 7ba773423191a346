package domain

import "fmt"

// FlashMode selects which pair of state variables a flash holds fixed.
type FlashMode int

const (
	// FlashTP fixes temperature and pressure.
	FlashTP FlashMode = iota
	// FlashPH fixes pressure and total enthalpy.
	FlashPH
	// FlashPVF fixes pressure and the molar vapor fraction (reflux and boil-up specs).
	FlashPVF
	// FlashVU fixes total volume and internal energy.
	FlashVU
)

func (m FlashMode) String() string {
	switch m {
	case FlashTP:
		return "TP"
	case FlashPH:
		return "PH"
	case FlashPVF:
		return "PVF"
	case FlashVU:
		return "VU"
	default:
		return fmt.Sprintf("FlashMode(%d)", int(m))
	}
}

// FlashSpec is the request sent to a flash collaborator.
// Only the fields relevant to Mode are read.
type FlashSpec struct {
	Mode           FlashMode
	Temperature    float64 // K, TP
	Pressure       float64 // bar, TP/PH/PVF
	Enthalpy       float64 // J/s, PH
	VaporFraction  float64 // PVF
	Volume         float64 // m3/s, VU
	InternalEnergy float64 // J/s, VU

	// TemperatureGuess seeds iterative modes. Zero means no guess.
	TemperatureGuess float64
}

// TP builds a temperature-pressure flash spec.
func TP(temperature, pressure float64) FlashSpec {
	return FlashSpec{Mode: FlashTP, Temperature: temperature, Pressure: pressure}
}

// PH builds a pressure-enthalpy flash spec.
func PH(pressure, enthalpy, guess float64) FlashSpec {
	return FlashSpec{Mode: FlashPH, Pressure: pressure, Enthalpy: enthalpy, TemperatureGuess: guess}
}

// PVF builds a pressure-vapor-fraction flash spec.
func PVF(pressure, vaporFraction, guess float64) FlashSpec {
	return FlashSpec{Mode: FlashPVF, Pressure: pressure, VaporFraction: vaporFraction, TemperatureGuess: guess}
}

// VU builds a volume-internal-energy flash spec.
func VU(volume, internalEnergy, guess float64) FlashSpec {
	return FlashSpec{Mode: FlashVU, Volume: volume, InternalEnergy: internalEnergy, TemperatureGuess: guess}
}

// Equilibrium is the answer of a flash collaborator for a fixed feed.
// Vapor and Liquid are the phase sub-streams; an absent phase has zero flows.
type Equilibrium struct {
	Temperature   float64   `json:"temperature"`
	Pressure      float64   `json:"pressure"`
	Vapor         Stream    `json:"vapor"`
	Liquid        Stream    `json:"liquid"`
	KValues       []float64 `json:"k_values"`
	Enthalpy      float64   `json:"enthalpy"`
	VaporFraction float64   `json:"vapor_fraction"`
	Density       float64   `json:"density"` // kg/m3
	Volume        float64   `json:"volume"`  // m3/s
	Phases        int       `json:"phases"`

	// HeatOfVaporization is the molar latent heat (J/mol) at the equilibrium state.
	HeatOfVaporization float64 `json:"heat_of_vaporization"`
}

// TwoPhase reports whether both a vapor and a liquid phase are present.
func (e Equilibrium) TwoPhase() bool {
	return !e.Vapor.IsEmpty() && !e.Liquid.IsEmpty()
}

// Clone returns a deep copy of the equilibrium.
func (e Equilibrium) Clone() Equilibrium {
	c := e
	c.Vapor = e.Vapor.Clone()
	c.Liquid = e.Liquid.Clone()
	c.KValues = append([]float64(nil), e.KValues...)
	return c
}
