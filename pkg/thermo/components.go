package thermo

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aretw0/tower/pkg/domain"
	"gopkg.in/yaml.v3"
)

// wilsonConstant is the 5.373 coefficient of the Wilson K-value correlation.
const wilsonConstant = 5.373

// Component holds the pure-component constants used by the ideal flasher.
type Component struct {
	Name          string  `yaml:"name" json:"name"`
	Formula       string  `yaml:"formula" json:"formula"`
	MolarMass     float64 `yaml:"molar_mass" json:"molar_mass"` // g/mol
	Tc            float64 `yaml:"tc" json:"tc"`                 // K
	Pc            float64 `yaml:"pc" json:"pc"`                 // bar
	Omega         float64 `yaml:"omega" json:"omega"`
	Cp            float64 `yaml:"cp" json:"cp"`                         // J/(mol·K)
	LiquidDensity float64 `yaml:"liquid_density" json:"liquid_density"` // kg/m3
}

// HeatOfVaporization is the latent heat (J/mol) implied by the Wilson correlation,
// R·5.373·(1+ω)·Tc. It keeps enthalpies consistent with the K-values.
func (c Component) HeatOfVaporization() float64 {
	return domain.GasConstant * wilsonConstant * (1 + c.Omega) * c.Tc
}

func (c Component) validate() error {
	if c.Name == "" {
		return fmt.Errorf("component without name")
	}
	if c.Tc <= 0 || c.Pc <= 0 || c.MolarMass <= 0 || c.Cp <= 0 || c.LiquidDensity <= 0 {
		return fmt.Errorf("component %s: tc, pc, molar_mass, cp and liquid_density must be positive", c.Name)
	}
	return nil
}

// Database is an immutable set of components indexed by name.
type Database struct {
	byName map[string]Component
}

type databaseFile struct {
	Components []Component `yaml:"components"`
}

//go:embed components.yaml
var embeddedComponents []byte

var (
	defaultOnce sync.Once
	defaultDB   *Database
	defaultErr  error
)

// DefaultDatabase returns the embedded component database.
func DefaultDatabase() (*Database, error) {
	defaultOnce.Do(func() {
		defaultDB, defaultErr = parseDatabase(embeddedComponents)
	})
	return defaultDB, defaultErr
}

// LoadDatabase reads a YAML component file with a top-level "components" list.
func LoadDatabase(r io.Reader) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read component database: %w", err)
	}
	return parseDatabase(data)
}

func parseDatabase(data []byte) (*Database, error) {
	var file databaseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse component database: %w", err)
	}
	db := &Database{byName: make(map[string]Component, len(file.Components))}
	for _, c := range file.Components {
		if err := c.validate(); err != nil {
			return nil, err
		}
		db.byName[c.Name] = c
	}
	return db, nil
}

// Lookup returns the named component.
func (db *Database) Lookup(name string) (Component, error) {
	c, ok := db.byName[name]
	if !ok {
		return Component{}, fmt.Errorf("%w: %s", domain.ErrUnknownComponent, name)
	}
	return c, nil
}

// Names returns the sorted component names.
func (db *Database) Names() []string {
	names := make([]string, 0, len(db.byName))
	for name := range db.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
