package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var comps = []string{"methane", "ethane", "propane"}

func TestStream_CloneIsIndependent(t *testing.T) {
	s := domain.NewStream("feed", comps, []float64{1, 2, 3}, 300, 10)
	c := s.Clone()
	c.Flows[0] = 99

	assert.Equal(t, 1.0, s.Flows[0], "clone must not share flows")
	assert.Equal(t, 6.0, s.TotalFlow())
}

func TestStream_Composition(t *testing.T) {
	s := domain.NewStream("feed", comps, []float64{1, 1, 2}, 300, 10)
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, s.Composition(), 1e-12)
	assert.InDelta(t, 0.5, s.MoleFraction("propane"), 1e-12)
	assert.Zero(t, s.MoleFraction("water"))

	empty := s.EmptyLike()
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, []float64{0, 0, 0}, empty.Composition())
	assert.Zero(t, empty.MolarEnthalpy())
}

func TestMix_SumsExtensiveProperties(t *testing.T) {
	a := domain.NewStream("a", comps, []float64{1, 0, 0}, 200, 12)
	a.Enthalpy = 100
	b := domain.NewStream("b", comps, []float64{0, 3, 0}, 400, 10)
	b.Enthalpy = 300

	m := domain.Mix("mix", a, b, domain.Stream{})

	assert.Equal(t, []float64{1, 3, 0}, m.Flows)
	assert.Equal(t, 400.0, m.Enthalpy)
	assert.Equal(t, 10.0, m.Pressure, "mixer pressure is the lowest inlet pressure")
	assert.InDelta(t, 350.0, m.Temperature, 1e-9)
}

func TestBlend(t *testing.T) {
	prev := domain.NewStream("p", comps, []float64{2, 2, 2}, 300, 10)
	prev.Enthalpy = 1000
	next := domain.NewStream("n", comps, []float64{4, 0, 2}, 320, 10)
	next.Enthalpy = 2000

	half := domain.Blend(prev, next, 0.5)
	assert.InDeltaSlice(t, []float64{3, 1, 2}, half.Flows, 1e-12)
	assert.InDelta(t, 1500, half.Enthalpy, 1e-9)
	assert.InDelta(t, 310, half.Temperature, 1e-9)

	full := domain.Blend(prev, next, 1)
	assert.Equal(t, next.Flows, full.Flows)
	full.Flows[0] = -1
	assert.Equal(t, 4.0, next.Flows[0], "blend returns a copy")

	unusable := domain.Blend(domain.Stream{}, next, 0.3)
	assert.Equal(t, next.Flows, unusable.Flows)
}

func TestStream_IsFinite(t *testing.T) {
	s := domain.NewStream("x", comps, []float64{1, 1, 1}, 300, 10)
	assert.True(t, s.IsFinite())
	s.Enthalpy = math.NaN()
	assert.False(t, s.IsFinite())
}

func TestSolverType_TextRoundTrip(t *testing.T) {
	for _, st := range domain.SolverTypes {
		data, err := json.Marshal(map[string]domain.SolverType{"solver": st})
		require.NoError(t, err)

		var back map[string]domain.SolverType
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, st, back["solver"])
	}

	_, err := domain.ParseSolverType("newton")
	assert.ErrorIs(t, err, domain.ErrUnknownSolver)

	io, err := domain.ParseSolverType("InsideOut")
	require.NoError(t, err)
	assert.Equal(t, domain.SolverInsideOut, io)
}

func TestConfigError_Unwrap(t *testing.T) {
	err := error(&domain.ConfigError{Field: "trays", Value: -1, Reason: "must not be negative"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "trays")
}
