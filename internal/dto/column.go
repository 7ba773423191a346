package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

// ColumnFile is the document shape of a column definition (YAML, JSON or TOML).
// It uses "mapstructure" tags so every format decodes through the same generic map.
type ColumnFile struct {
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Components  []string `json:"components" mapstructure:"components"`

	Trays          int     `json:"trays" mapstructure:"trays"`
	TopPressure    float64 `json:"top_pressure" mapstructure:"top_pressure"`
	BottomPressure float64 `json:"bottom_pressure" mapstructure:"bottom_pressure"`

	// Reboiler and Condenser are either a bare boolean or a spec map (see StageFile).
	Reboiler  any `json:"reboiler,omitempty" mapstructure:"reboiler"`
	Condenser any `json:"condenser,omitempty" mapstructure:"condenser"`

	Solver                 string        `json:"solver,omitempty" mapstructure:"solver"`
	Tolerances             Tolerances    `json:"tolerances,omitempty" mapstructure:"tolerances"`
	MaxIterations          int           `json:"max_iterations,omitempty" mapstructure:"max_iterations"`
	MaxSolveTime           time.Duration `json:"max_solve_time,omitempty" mapstructure:"max_solve_time"`
	MaxStagnantIterations  *int          `json:"max_stagnant_iterations,omitempty" mapstructure:"max_stagnant_iterations"`
	EnforceEnergyTolerance *bool         `json:"enforce_energy_tolerance,omitempty" mapstructure:"enforce_energy_tolerance"`
	Polish                 *bool         `json:"polish,omitempty" mapstructure:"polish"`

	// Tuning overrides any column.Config field by its JSON name (relaxation bounds, CMO weight...).
	Tuning map[string]any `json:"tuning,omitempty" mapstructure:"tuning"`

	Feeds []FeedFile `json:"feeds" mapstructure:"feeds"`
}

// Tolerances groups the convergence tolerances. Zero keeps the default.
type Tolerances struct {
	Temperature float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	Mass        float64 `json:"mass,omitempty" mapstructure:"mass"`
	Energy      float64 `json:"energy,omitempty" mapstructure:"energy"`
}

// StageFile is the spec map of a reboiler or a condenser.
type StageFile struct {
	Temperature    float64 `mapstructure:"temperature"`
	HeatInput      float64 `mapstructure:"heat_input"`
	MeteredDuty    float64 `mapstructure:"metered_duty"`
	RefluxRatio    float64 `mapstructure:"reflux_ratio"`
	TotalCondenser bool    `mapstructure:"total_condenser"`
}

// FeedFile describes one feed stream. Flows are keyed by component name.
type FeedFile struct {
	Name        string             `json:"name,omitempty" mapstructure:"name"`
	Stage       *int               `json:"stage,omitempty" mapstructure:"stage"` // nil places the feed by temperature
	Temperature float64            `json:"temperature" mapstructure:"temperature"`
	Pressure    float64            `json:"pressure,omitempty" mapstructure:"pressure"`
	Flows       map[string]float64 `json:"flows" mapstructure:"flows"`
}

// Feed is a decoded feed ready for column.AddFeed or AddUnassignedFeed.
type Feed struct {
	Stream   domain.Stream
	Stage    int
	Assigned bool
}

func decode(input any, output any, tag string) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          tag,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Decode maps a generic document onto a ColumnFile. Unknown keys are rejected.
func Decode(doc map[string]any) (ColumnFile, error) {
	var f ColumnFile
	if err := decode(doc, &f, "mapstructure"); err != nil {
		return ColumnFile{}, fmt.Errorf("failed to decode column definition: %w", err)
	}
	return f, nil
}

// Validate reports the structural problems that column.Config.Validate cannot see.
func (f ColumnFile) Validate() error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, &domain.ConfigError{Field: "name", Value: f.Name, Reason: "must not be empty"})
	}
	if len(f.Components) == 0 {
		errs = append(errs, &domain.ConfigError{Field: "components", Value: f.Components, Reason: "must list at least one component"})
	}
	if len(f.Feeds) == 0 {
		errs = append(errs, fmt.Errorf("%w: %s", domain.ErrNoFeeds, f.Name))
	}
	return errors.Join(errs...)
}

// Config converts the file into a column configuration on top of column.DefaultConfig.
func (f ColumnFile) Config() (column.Config, error) {
	cfg := column.DefaultConfig()
	cfg.Name = f.Name
	cfg.Trays = f.Trays
	cfg.TopPressure = f.TopPressure
	cfg.BottomPressure = f.BottomPressure

	var err error
	if cfg.HasReboiler, cfg.Reboiler, err = stageSpec("reboiler", f.Reboiler); err != nil {
		return cfg, err
	}
	if cfg.HasCondenser, cfg.Condenser, err = stageSpec("condenser", f.Condenser); err != nil {
		return cfg, err
	}

	if f.Solver != "" {
		if cfg.Solver, err = domain.ParseSolverType(f.Solver); err != nil {
			return cfg, err
		}
	}
	if f.Tolerances.Temperature != 0 {
		cfg.TemperatureTolerance = f.Tolerances.Temperature
	}
	if f.Tolerances.Mass != 0 {
		cfg.MassTolerance = f.Tolerances.Mass
	}
	if f.Tolerances.Energy != 0 {
		cfg.EnergyTolerance = f.Tolerances.Energy
	}
	if f.MaxIterations != 0 {
		cfg.MaxIterations = f.MaxIterations
	}
	if f.MaxSolveTime != 0 {
		cfg.MaxSolveTime = f.MaxSolveTime
	}
	if f.MaxStagnantIterations != nil {
		cfg.MaxStagnantIterations = *f.MaxStagnantIterations
	}
	if f.EnforceEnergyTolerance != nil {
		cfg.EnforceEnergyTolerance = *f.EnforceEnergyTolerance
	}
	if f.Polish != nil {
		cfg.Polish = *f.Polish
	}

	if len(f.Tuning) > 0 {
		if err := decode(f.Tuning, &cfg, "json"); err != nil {
			return cfg, fmt.Errorf("%w: tuning: %v", domain.ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

// stageSpec accepts nil (absent), a boolean, or a spec map.
func stageSpec(field string, v any) (bool, column.StageSpec, error) {
	switch t := v.(type) {
	case nil:
		return false, column.StageSpec{}, nil
	case bool:
		return t, column.StageSpec{}, nil
	default:
		var s StageFile
		if err := decode(t, &s, "mapstructure"); err != nil {
			return false, column.StageSpec{}, &domain.ConfigError{Field: field, Value: v, Reason: err.Error()}
		}
		return true, column.StageSpec{
			Temperature:    s.Temperature,
			HeatInput:      s.HeatInput,
			MeteredDuty:    s.MeteredDuty,
			RefluxRatio:    s.RefluxRatio,
			TotalCondenser: s.TotalCondenser,
		}, nil
	}
}

// Streams builds the feed streams in file order. A feed without a pressure enters
// at the mean column pressure.
func (f ColumnFile) Streams() ([]Feed, error) {
	known := make(map[string]int, len(f.Components))
	for i, name := range f.Components {
		known[name] = i
	}

	feeds := make([]Feed, 0, len(f.Feeds))
	for n, ff := range f.Feeds {
		flows := make([]float64, len(f.Components))
		for name, flow := range ff.Flows {
			i, ok := known[name]
			if !ok {
				return nil, fmt.Errorf("%w: feed %d lists %q", domain.ErrComponentMismatch, n, name)
			}
			flows[i] = flow
		}

		name := ff.Name
		if name == "" {
			name = fmt.Sprintf("feed-%d", n+1)
		}
		pressure := ff.Pressure
		if pressure == 0 {
			pressure = (f.TopPressure + f.BottomPressure) / 2
		}

		feed := Feed{Stream: domain.NewStream(name, f.Components, flows, ff.Temperature, pressure)}
		if ff.Stage != nil {
			feed.Stage, feed.Assigned = *ff.Stage, true
		}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}
