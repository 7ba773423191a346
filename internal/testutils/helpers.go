package testutils

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/internal/logging"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/thermo"
)

// Components of the reference methane/ethane/propane scenario.
var Components = []string{"methane", "ethane", "propane"}

// ScenarioFeedStage is where the reference feed enters: tray 3 counted from the reboiler.
const ScenarioFeedStage = 3

// ScenarioConfig returns the reference 7-stage column: a reboiler with a fixed duty,
// five trays and a partial condenser at reflux ratio 0.5, between 21 and 19 bar.
func ScenarioConfig() column.Config {
	cfg := column.DefaultConfig()
	cfg.Name = "depropanizer"
	cfg.Trays = 5
	cfg.HasReboiler = true
	cfg.HasCondenser = true
	cfg.BottomPressure = 21
	cfg.TopPressure = 19
	cfg.Reboiler.HeatInput = 2e5
	cfg.Condenser.RefluxRatio = 0.5
	cfg.TemperatureTolerance = 1e-4
	cfg.MassTolerance = 1e-4
	cfg.EnergyTolerance = 1e-4
	cfg.MaxIterations = 200
	return cfg
}

// ScenarioFeed is an equimolar 100 mol/s feed at 230 K and 20 bar.
func ScenarioFeed() domain.Stream {
	third := 100.0 / 3
	return domain.NewStream("feed", Components, []float64{third, third, third}, 230, 20)
}

// IdealFlasher returns the reference flasher for Components.
func IdealFlasher(t testing.TB) *thermo.Ideal {
	t.Helper()
	fl, err := thermo.NewIdeal(Components...)
	require.NoError(t, err, "failed to build ideal flasher")
	return fl
}

// NewScenarioColumn builds and feeds the reference column. It fails the test on error.
func NewScenarioColumn(t testing.TB, opts ...column.Option) *column.Column {
	t.Helper()
	col, err := column.New(IdealFlasher(t), ScenarioConfig(), opts...)
	require.NoError(t, err, "failed to build scenario column")
	require.NoError(t, col.AddFeed(ScenarioFeed(), ScenarioFeedStage), "failed to add scenario feed")
	return col
}

// WriteFile writes content into a fresh temp directory and returns the absolute path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path, err := filepath.Abs(filepath.Join(dir, name))
	require.NoError(t, err, "failed to resolve temp path")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "failed to write %s", name)
	return path
}

// ScenarioDefinition is the reference column as a decoded definition document.
func ScenarioDefinition() map[string]any {
	third := 100.0 / 3
	return map[string]any{
		"name":            "depropanizer",
		"components":      []any{"methane", "ethane", "propane"},
		"trays":           5,
		"top_pressure":    19.0,
		"bottom_pressure": 21.0,
		"reboiler":        map[string]any{"heat_input": 2e5},
		"condenser":       map[string]any{"reflux_ratio": 0.5},
		"tolerances":      map[string]any{"temperature": 1e-4, "mass": 1e-4, "energy": 1e-4},
		"max_iterations":  200,
		"feeds": []any{
			map[string]any{
				"name":        "feed",
				"stage":       ScenarioFeedStage,
				"temperature": 230.0,
				"pressure":    20.0,
				"flows":       map[string]any{"methane": third, "ethane": third, "propane": third},
			},
		},
	}
}

// ScenarioYAML is the reference column as a definition file.
const ScenarioYAML = `name: depropanizer
description: methane/ethane/propane split
components: [methane, ethane, propane]
trays: 5
top_pressure: 19
bottom_pressure: 21
reboiler:
  heat_input: 2.0e+5
condenser:
  reflux_ratio: 0.5
tolerances:
  temperature: 1.0e-4
  mass: 1.0e-4
  energy: 1.0e-4
max_iterations: 200
feeds:
  - name: feed
    stage: 3
    temperature: 230
    pressure: 20
    flows:
      methane: 33.333333333333336
      ethane: 33.333333333333336
      propane: 33.333333333333336
`

// Logger returns a logger for code under test that has nothing to assert on its output.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	return logging.NewNop()
}
