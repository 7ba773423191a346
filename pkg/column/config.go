package column

import (
	"errors"
	"math"
	"time"

	"github.com/aretw0/tower/pkg/domain"
)

// Defaults applied by DefaultConfig.
const (
	DefaultTemperatureTolerance  = 5.0e-3 // K, mean absolute change per iteration
	DefaultMassTolerance         = 2.0e-2 // relative
	DefaultEnergyTolerance       = 2.0e-2 // relative
	DefaultMaxIterations         = 8
	DefaultMaxSolveTime          = 2 * time.Minute
	DefaultMaxStagnantIterations = 20
	DefaultStagnationRelative    = 1.0e-3
	DefaultStagnationAbsolute    = 1.0e-9

	DefaultInitialRelaxation        = 0.5
	DefaultMinRelaxation            = 0.5
	DefaultMaxRelaxation            = 1.2
	DefaultRelaxationIncrease       = 1.2
	DefaultRelaxationDecrease       = 0.5
	DefaultMinTemperatureRelaxation = 0.2

	DefaultInitialAcceleration = 1.0
	DefaultMinAcceleration     = -0.5
	DefaultMaxAcceleration     = 0.5

	DefaultInsideOutRelaxation    = 0.8
	DefaultMinInsideOutRelaxation = 0.5
	DefaultCMOWeight              = 0.95
	DefaultMaxTemperatureStep     = 5.0 // K per Newton step
	DefaultMinTemperature         = 50.0
	DefaultMaxTemperature         = 1000.0
)

// Iteration budget and polish constants.
const (
	trayIterationFactor         = 2.0
	minTrayIterations           = 5.0
	polishIterationMargin       = 6
	iterationOverflowMultiplier = 12
	minOverflowIncrement        = 3

	massPolishTarget        = 2.0e-2
	energyPolishTarget      = 2.0e-2
	temperaturePolishTarget = 5.0e-3

	// A combined residual this much worse than the previous one shrinks the adaptive factor;
	// this much better grows it.
	worseningRatio = 1.05
	improvingRatio = 0.98
)

// StageSpec configures the reboiler or the condenser.
// At most one of Temperature and RefluxRatio may be set.
type StageSpec struct {
	// Temperature fixes the outlet temperature (K). Zero leaves it free.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// HeatInput is added to the stage enthalpy balance (W).
	HeatInput float64 `json:"heat_input,omitempty" yaml:"heat_input,omitempty"`
	// MeteredDuty is an externally metered duty removed from the balance (W).
	MeteredDuty float64 `json:"metered_duty,omitempty" yaml:"metered_duty,omitempty"`
	// RefluxRatio is L/D on a condenser and the boil-up ratio V/B on a reboiler.
	RefluxRatio float64 `json:"reflux_ratio,omitempty" yaml:"reflux_ratio,omitempty"`
	// TotalCondenser condenses the whole overhead and splits it into reflux and liquid distillate.
	TotalCondenser bool `json:"total_condenser,omitempty" yaml:"total_condenser,omitempty"`
}

// Config is the configuration surface of a column.
type Config struct {
	Name string `json:"name" yaml:"name"`

	Trays        int  `json:"trays" yaml:"trays"`
	HasReboiler  bool `json:"reboiler" yaml:"reboiler"`
	HasCondenser bool `json:"condenser" yaml:"condenser"`

	TopPressure    float64 `json:"top_pressure" yaml:"top_pressure"`       // bar
	BottomPressure float64 `json:"bottom_pressure" yaml:"bottom_pressure"` // bar

	Reboiler  StageSpec `json:"reboiler_spec" yaml:"reboiler_spec"`
	Condenser StageSpec `json:"condenser_spec" yaml:"condenser_spec"`

	Solver domain.SolverType `json:"solver" yaml:"solver"`

	TemperatureTolerance float64 `json:"temperature_tolerance" yaml:"temperature_tolerance"`
	MassTolerance        float64 `json:"mass_tolerance" yaml:"mass_tolerance"`
	EnergyTolerance      float64 `json:"energy_tolerance" yaml:"energy_tolerance"`

	// EnforceEnergyTolerance makes the energy residual a convergence criterion.
	// When false it is still computed and reported.
	EnforceEnergyTolerance bool `json:"enforce_energy_tolerance" yaml:"enforce_energy_tolerance"`
	// Polish tightens mass and energy targets once the primary tolerances are met.
	Polish bool `json:"polish" yaml:"polish"`

	MaxIterations         int           `json:"max_iterations" yaml:"max_iterations"`
	MaxSolveTime          time.Duration `json:"max_solve_time" yaml:"max_solve_time"` // zero disables
	MaxStagnantIterations int           `json:"max_stagnant_iterations" yaml:"max_stagnant_iterations"`
	StagnationRelative    float64       `json:"stagnation_relative" yaml:"stagnation_relative"`
	StagnationAbsolute    float64       `json:"stagnation_absolute" yaml:"stagnation_absolute"`

	InitialRelaxation        float64 `json:"initial_relaxation" yaml:"initial_relaxation"`
	MinRelaxation            float64 `json:"min_relaxation" yaml:"min_relaxation"`
	MaxRelaxation            float64 `json:"max_relaxation" yaml:"max_relaxation"`
	RelaxationIncrease       float64 `json:"relaxation_increase" yaml:"relaxation_increase"`
	RelaxationDecrease       float64 `json:"relaxation_decrease" yaml:"relaxation_decrease"`
	MinTemperatureRelaxation float64 `json:"min_temperature_relaxation" yaml:"min_temperature_relaxation"`

	InitialAcceleration float64 `json:"initial_acceleration" yaml:"initial_acceleration"`
	MinAcceleration     float64 `json:"min_acceleration" yaml:"min_acceleration"`
	MaxAcceleration     float64 `json:"max_acceleration" yaml:"max_acceleration"`

	InsideOutRelaxation    float64 `json:"inside_out_relaxation" yaml:"inside_out_relaxation"`
	MinInsideOutRelaxation float64 `json:"min_inside_out_relaxation" yaml:"min_inside_out_relaxation"`
	CMOWeight              float64 `json:"cmo_weight" yaml:"cmo_weight"`
	MaxTemperatureStep     float64 `json:"max_temperature_step" yaml:"max_temperature_step"`
	MinTemperature         float64 `json:"min_temperature" yaml:"min_temperature"`
	MaxTemperature         float64 `json:"max_temperature" yaml:"max_temperature"`
}

// DefaultConfig returns a configuration with every tuning constant at its default.
// The topology (trays, pressures, specs) is left for the caller.
func DefaultConfig() Config {
	return Config{
		Solver:                   domain.SolverDirect,
		TemperatureTolerance:     DefaultTemperatureTolerance,
		MassTolerance:            DefaultMassTolerance,
		EnergyTolerance:          DefaultEnergyTolerance,
		EnforceEnergyTolerance:   true,
		Polish:                   true,
		MaxIterations:            DefaultMaxIterations,
		MaxSolveTime:             DefaultMaxSolveTime,
		MaxStagnantIterations:    DefaultMaxStagnantIterations,
		StagnationRelative:       DefaultStagnationRelative,
		StagnationAbsolute:       DefaultStagnationAbsolute,
		InitialRelaxation:        DefaultInitialRelaxation,
		MinRelaxation:            DefaultMinRelaxation,
		MaxRelaxation:            DefaultMaxRelaxation,
		RelaxationIncrease:       DefaultRelaxationIncrease,
		RelaxationDecrease:       DefaultRelaxationDecrease,
		MinTemperatureRelaxation: DefaultMinTemperatureRelaxation,
		InitialAcceleration:      DefaultInitialAcceleration,
		MinAcceleration:          DefaultMinAcceleration,
		MaxAcceleration:          DefaultMaxAcceleration,
		InsideOutRelaxation:      DefaultInsideOutRelaxation,
		MinInsideOutRelaxation:   DefaultMinInsideOutRelaxation,
		CMOWeight:                DefaultCMOWeight,
		MaxTemperatureStep:       DefaultMaxTemperatureStep,
		MinTemperature:           DefaultMinTemperature,
		MaxTemperature:           DefaultMaxTemperature,
	}
}

// NumberOfStages returns trays plus the reboiler and condenser when present.
func (c Config) NumberOfStages() int {
	n := c.Trays
	if c.HasReboiler {
		n++
	}
	if c.HasCondenser {
		n++
	}
	return n
}

// Validate reports every rejected field. The returned error matches domain.ErrInvalidConfig,
// or domain.ErrNoStages for an empty column.
func (c Config) Validate() error {
	if c.Trays < 0 {
		return &domain.ConfigError{Field: "trays", Value: c.Trays, Reason: "must not be negative"}
	}
	if c.NumberOfStages() == 0 {
		return domain.ErrNoStages
	}

	var errs []error
	bad := func(field string, value any, reason string) {
		errs = append(errs, &domain.ConfigError{Field: field, Value: value, Reason: reason})
	}
	positive := func(field string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			bad(field, v, "must be positive")
		}
	}

	positive("top_pressure", c.TopPressure)
	positive("bottom_pressure", c.BottomPressure)
	if c.BottomPressure < c.TopPressure {
		bad("bottom_pressure", c.BottomPressure, "must not be below the top pressure")
	}
	if _, err := c.Solver.MarshalText(); err != nil {
		bad("solver", int(c.Solver), "unknown solver type")
	}

	positive("temperature_tolerance", c.TemperatureTolerance)
	positive("mass_tolerance", c.MassTolerance)
	positive("energy_tolerance", c.EnergyTolerance)

	if c.MaxIterations < 1 {
		bad("max_iterations", c.MaxIterations, "must be at least 1")
	}
	if c.MaxSolveTime < 0 {
		bad("max_solve_time", c.MaxSolveTime, "must not be negative")
	}
	if c.MaxStagnantIterations < 0 {
		bad("max_stagnant_iterations", c.MaxStagnantIterations, "must not be negative")
	}
	if c.StagnationRelative < 0 || c.StagnationAbsolute < 0 {
		bad("stagnation", [2]float64{c.StagnationRelative, c.StagnationAbsolute}, "margins must not be negative")
	}

	positive("min_relaxation", c.MinRelaxation)
	if c.InitialRelaxation < c.MinRelaxation || c.InitialRelaxation > c.MaxRelaxation {
		bad("initial_relaxation", c.InitialRelaxation, "must lie within [min_relaxation, max_relaxation]")
	}
	if c.RelaxationIncrease <= 1 {
		bad("relaxation_increase", c.RelaxationIncrease, "must be greater than 1")
	}
	if c.RelaxationDecrease <= 0 || c.RelaxationDecrease >= 1 {
		bad("relaxation_decrease", c.RelaxationDecrease, "must lie within (0, 1)")
	}
	if c.MinTemperatureRelaxation <= 0 || c.MinTemperatureRelaxation > 1 {
		bad("min_temperature_relaxation", c.MinTemperatureRelaxation, "must lie within (0, 1]")
	}
	if c.MinAcceleration > c.MaxAcceleration {
		bad("min_acceleration", c.MinAcceleration, "must not exceed max_acceleration")
	}
	positive("initial_acceleration", c.InitialAcceleration)

	positive("min_inside_out_relaxation", c.MinInsideOutRelaxation)
	if c.InsideOutRelaxation < c.MinInsideOutRelaxation {
		bad("inside_out_relaxation", c.InsideOutRelaxation, "must not be below min_inside_out_relaxation")
	}
	if c.CMOWeight < 0 || c.CMOWeight > 1 {
		bad("cmo_weight", c.CMOWeight, "must lie within [0, 1]")
	}
	positive("max_temperature_step", c.MaxTemperatureStep)
	positive("min_temperature", c.MinTemperature)
	if c.MaxTemperature <= c.MinTemperature {
		bad("max_temperature", c.MaxTemperature, "must exceed min_temperature")
	}

	errs = append(errs, c.Reboiler.validate("reboiler_spec", c.HasReboiler, false)...)
	errs = append(errs, c.Condenser.validate("condenser_spec", c.HasCondenser, true)...)

	return errors.Join(errs...)
}

func (s StageSpec) validate(field string, present, condenser bool) []error {
	var errs []error
	if !present {
		if s != (StageSpec{}) {
			errs = append(errs, &domain.ConfigError{Field: field, Value: s, Reason: "set on a column without that stage"})
		}
		return errs
	}
	if s.Temperature < 0 || math.IsNaN(s.Temperature) {
		errs = append(errs, &domain.ConfigError{Field: field + ".temperature", Value: s.Temperature, Reason: "must not be negative"})
	}
	if s.RefluxRatio < 0 || math.IsNaN(s.RefluxRatio) {
		errs = append(errs, &domain.ConfigError{Field: field + ".reflux_ratio", Value: s.RefluxRatio, Reason: "must not be negative"})
	}
	if s.Temperature > 0 && (s.RefluxRatio > 0 || s.TotalCondenser) {
		errs = append(errs, &domain.ConfigError{Field: field, Value: s, Reason: "fixed temperature conflicts with a reflux specification"})
	}
	if s.TotalCondenser && !condenser {
		errs = append(errs, &domain.ConfigError{Field: field + ".total_condenser", Value: true, Reason: "only a condenser can be total"})
	}
	return errs
}
