package thermo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/pkg/domain"
)

var hydrocarbons = []string{"methane", "ethane", "propane"}

func newFeed(t *testing.T, names []string, flows []float64, temperature, pressure float64) (*Ideal, domain.Stream) {
	t.Helper()
	m, err := NewIdeal(names...)
	require.NoError(t, err)
	return m, domain.NewStream("feed", names, flows, temperature, pressure)
}

func TestRachfordRice(t *testing.T) {
	tests := []struct {
		name string
		z, k []float64
		want float64
	}{
		{name: "subcooled", z: []float64{0.5, 0.5}, k: []float64{0.5, 0.2}, want: 0},
		{name: "superheated", z: []float64{0.5, 0.5}, k: []float64{5, 2}, want: 1},
		{name: "symmetric split", z: []float64{0.5, 0.5}, k: []float64{2, 0.5}, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, rachfordRice(tt.z, tt.k), 1e-10)
		})
	}
}

func TestIdeal_FlashTP(t *testing.T) {
	third := 100.0 / 3
	m, feed := newFeed(t, hydrocarbons, []float64{third, third, third}, 230, 20)

	eq, err := m.Equilibrate(feed, domain.TP(230, 20))
	require.NoError(t, err)

	assert.Equal(t, 230.0, eq.Temperature)
	assert.Equal(t, 2, eq.Phases)
	assert.True(t, eq.TwoPhase())
	assert.InDelta(t, 0.27506, eq.VaporFraction, 1e-4)
	assert.InDelta(t, 5.8368, eq.KValues[0], 1e-3)
	assert.InDelta(t, 0.35226, eq.KValues[1], 1e-4)
	assert.InDelta(t, 0.049303, eq.KValues[2], 1e-5)
	assert.InDelta(t, 1.508672e6, eq.Enthalpy, 10)

	for i := range feed.Flows {
		assert.InDelta(t, feed.Flows[i], eq.Vapor.Flows[i]+eq.Liquid.Flows[i], 1e-9, "component %d conserved", i)
	}
	assert.InDelta(t, eq.Enthalpy, eq.Vapor.Enthalpy+eq.Liquid.Enthalpy, 1e-6)
	assert.Greater(t, eq.Vapor.MoleFraction("methane"), eq.Liquid.MoleFraction("methane"))
	assert.Positive(t, eq.Density)
	assert.Positive(t, eq.HeatOfVaporization)
}

func TestIdeal_FlashPHRoundTrip(t *testing.T) {
	third := 100.0 / 3
	m, feed := newFeed(t, hydrocarbons, []float64{third, third, third}, 230, 20)
	tp, err := m.Equilibrate(feed, domain.TP(230, 20))
	require.NoError(t, err)

	for _, guess := range []float64{0, 150, 230, 400} {
		eq, err := m.Equilibrate(feed, domain.PH(20, tp.Enthalpy, guess))
		require.NoError(t, err, "guess %g", guess)
		assert.InDelta(t, 230, eq.Temperature, 1e-6, "guess %g", guess)
	}

	// A duty above the dew point leaves a single vapor phase.
	eq, err := m.Equilibrate(feed, domain.PH(20, tp.Enthalpy+2e6, 230))
	require.NoError(t, err)
	assert.Equal(t, 1, eq.Phases)
	assert.InDelta(t, 1, eq.VaporFraction, 1e-12)
}

func TestIdeal_FlashPVF(t *testing.T) {
	third := 100.0 / 3
	m, feed := newFeed(t, hydrocarbons, []float64{third, third, third}, 230, 20)

	eq, err := m.Equilibrate(feed, domain.PVF(20, 0.4, 230))
	require.NoError(t, err)
	assert.InDelta(t, 0.4, eq.VaporFraction, 1e-9)
	assert.InDelta(t, 247.98, eq.Temperature, 0.05)

	bubble, err := m.Equilibrate(feed, domain.PVF(20, 0, 230))
	require.NoError(t, err)
	dew, err := m.Equilibrate(feed, domain.PVF(20, 1, 230))
	require.NoError(t, err)
	assert.Less(t, bubble.Temperature, eq.Temperature)
	assert.Less(t, eq.Temperature, dew.Temperature)

	_, err = m.Equilibrate(feed, domain.PVF(20, 1.5, 230))
	assert.ErrorIs(t, err, domain.ErrFlashOutOfRange)
}

func TestIdeal_FlashVURoundTrip(t *testing.T) {
	names := []string{"methane", "ethane"}
	m, feed := newFeed(t, names, []float64{3, 1}, 400, 5)

	tp, err := m.Equilibrate(feed, domain.TP(400, 5))
	require.NoError(t, err)
	require.Equal(t, 1, tp.Phases, "superheated vapor")
	u := tp.Enthalpy - 5*domain.BarToPascal*tp.Volume

	eq, err := m.Equilibrate(feed, domain.VU(tp.Volume, u, 350))
	require.NoError(t, err)
	assert.InDelta(t, 400, eq.Temperature, 1e-3)
	assert.InDelta(t, 5, eq.Pressure, 1e-4)

	_, err = m.Equilibrate(feed, domain.VU(0, u, 350))
	assert.ErrorIs(t, err, domain.ErrFlashOutOfRange)
}

func TestIdeal_Errors(t *testing.T) {
	_, err := NewIdeal("methane", "unobtainium")
	assert.ErrorIs(t, err, domain.ErrUnknownComponent)

	_, err = NewIdeal()
	assert.ErrorIs(t, err, domain.ErrUnknownComponent)

	m, feed := newFeed(t, hydrocarbons, []float64{1, 1, 1}, 230, 20)
	_, err = m.Equilibrate(domain.NewStream("short", []string{"methane"}, []float64{1}, 230, 20), domain.TP(230, 20))
	assert.ErrorIs(t, err, domain.ErrComponentMismatch)

	_, err = m.Equilibrate(feed, domain.TP(-1, 20))
	assert.ErrorIs(t, err, domain.ErrFlashOutOfRange)

	_, err = m.Equilibrate(feed, domain.FlashSpec{Mode: domain.FlashMode(99)})
	assert.ErrorIs(t, err, domain.ErrFlashFailed)
}

func TestIdeal_EmptyFeed(t *testing.T) {
	m, feed := newFeed(t, hydrocarbons, []float64{0, 0, 0}, 230, 20)
	eq, err := m.Equilibrate(feed, domain.PH(20, 0, 250))
	require.NoError(t, err)
	assert.Equal(t, 0, eq.Phases)
	assert.Zero(t, eq.Vapor.TotalFlow())
	assert.Equal(t, 250.0, eq.Temperature)
}

func TestDatabase(t *testing.T) {
	db, err := DefaultDatabase()
	require.NoError(t, err)
	assert.Contains(t, db.Names(), "methane")
	assert.Len(t, db.Names(), 12)

	c, err := db.Lookup("propane")
	require.NoError(t, err)
	assert.Equal(t, "C3H8", c.Formula)

	custom, err := LoadDatabase(strings.NewReader(`
components:
  - name: light
    molar_mass: 10
    tc: 150
    pc: 40
    omega: 0
    cp: 30
    liquid_density: 400
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"light"}, custom.Names())

	m, err := NewIdealFrom(custom, "light")
	require.NoError(t, err)
	assert.Equal(t, []string{"light"}, m.Components())

	_, err = LoadDatabase(strings.NewReader("components:\n  - name: broken\n    tc: -1\n"))
	assert.Error(t, err)
}
