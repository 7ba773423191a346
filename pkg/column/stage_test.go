package column_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/internal/testutils"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/ports"
)

// recordingFlasher passes every flash to the ideal model and keeps the specs it was sent.
type recordingFlasher struct {
	inner ports.Flasher
	specs []domain.FlashSpec
	flows []float64
}

func (r *recordingFlasher) Equilibrate(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error) {
	r.specs = append(r.specs, spec)
	r.flows = append(r.flows, feed.TotalFlow())
	return r.inner.Equilibrate(feed, spec)
}

func TestStage_TotalCondenser(t *testing.T) {
	ideal := testutils.IdealFlasher(t)
	overhead := domain.NewStream("overhead", testutils.Components, []float64{1, 1, 2}, 300, 19)
	eq, err := ideal.Equilibrate(overhead, domain.TP(300, 19))
	require.NoError(t, err)
	overhead.Enthalpy = eq.Enthalpy

	flasher := &recordingFlasher{inner: ideal}
	s := column.NewStage(6, domain.StageCondenser)
	s.SetPressure(19)
	s.SetTotalCondenser(true)
	s.SetRefluxRatio(2)
	s.SetVaporIn(overhead)
	s.Solve(flasher)

	require.Len(t, flasher.specs, 1)
	assert.Equal(t, domain.FlashPVF, flasher.specs[0].Mode)
	assert.Zero(t, flasher.specs[0].VaporFraction, "a total condenser flashes at its bubble point")
	assert.Zero(t, s.Fallbacks())

	assert.InDelta(t, 0, s.VaporOutlet().TotalFlow(), 1e-9)
	assert.InDelta(t, 4.0*2/3, s.LiquidOutlet().TotalFlow(), 1e-9, "reflux is R/(1+R) of the condensate")
	assert.InDelta(t, 4.0/3, s.Distillate().TotalFlow(), 1e-9)
	assert.InDeltaSlice(t, s.LiquidOutlet().Composition(), s.Distillate().Composition(), 1e-12)
	assert.Negative(t, s.Duty(), "condensing removes heat")
}

func TestStage_PartialCondenserVaporFraction(t *testing.T) {
	flasher := &recordingFlasher{inner: testutils.IdealFlasher(t)}
	s := column.NewStage(6, domain.StageCondenser)
	s.SetPressure(19)
	s.SetRefluxRatio(0.5)
	s.SetVaporIn(domain.NewStream("overhead", testutils.Components, []float64{1, 1, 2}, 300, 19))
	s.Solve(flasher)

	require.Len(t, flasher.specs, 1)
	assert.Equal(t, domain.FlashPVF, flasher.specs[0].Mode)
	assert.InDelta(t, 1/1.5, flasher.specs[0].VaporFraction, 1e-12, "D/(L+D) for L/D = 0.5")
	assert.Zero(t, s.Distillate().TotalFlow())
}

func TestStage_WarnsOnMoreThanTwoPhases(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	threePhase := ports.FlasherFunc(func(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error) {
		eq, err := passThrough(func(domain.Stream) float64 { return 300 })(feed, spec)
		eq.Phases = 3
		return eq, err
	})

	cfg := column.DefaultConfig()
	cfg.Name = "three-phase"
	cfg.Trays, cfg.HasReboiler, cfg.HasCondenser = 1, false, false
	cfg.Reboiler, cfg.Condenser = column.StageSpec{}, column.StageSpec{}
	cfg.BottomPressure, cfg.TopPressure = 2, 2
	col, err := column.New(threePhase, cfg, column.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, col.AddFeed(domain.NewStream("feed", pair, []float64{1, 1}, 300, 2), 0))

	res, err := col.Run()
	require.NoError(t, err)
	assert.True(t, res.Diagnostics.Converged, "extra phases are reported, not rejected")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "more than two phases")
	assert.Contains(t, logs.String(), "phases=3")
}

// scriptedFlasher answers from mock expectations keyed by flash mode.
type scriptedFlasher struct{ mock.Mock }

func (f *scriptedFlasher) Equilibrate(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error) {
	args := f.Called(spec.Mode, spec.Temperature)
	return args.Get(0).(domain.Equilibrium), args.Error(1)
}

func TestStage_FallbackKeepsPreviousState(t *testing.T) {
	feed := domain.NewStream("feed", pair, []float64{1, 2}, 300, 5)
	good, err := passThrough(func(domain.Stream) float64 { return 280 })(feed, domain.PH(5, 0, 300))
	require.NoError(t, err)

	flasher := &scriptedFlasher{}
	flasher.On("Equilibrate", domain.FlashPH, 0.0).Return(good, nil).Once()
	flasher.On("Equilibrate", domain.FlashPH, 0.0).Return(domain.Equilibrium{}, domain.ErrFlashFailed)
	flasher.On("Equilibrate", domain.FlashTP, 280.0).Return(domain.Equilibrium{}, domain.ErrFlashOutOfRange)

	s := column.NewStage(1, domain.StageSimple)
	s.SetPressure(5)
	s.SetFeeds(feed)

	s.Solve(flasher)
	require.Equal(t, 280.0, s.Temperature())
	require.Zero(t, s.Fallbacks())

	s.Solve(flasher)
	flasher.AssertNumberOfCalls(t, "Equilibrate", 3)
	flasher.AssertCalled(t, "Equilibrate", domain.FlashTP, 280.0)
	assert.Equal(t, 1, s.Fallbacks(), "one fallback per failed enthalpy flash")
	assert.Equal(t, 280.0, s.Temperature(), "the previous state is kept")
	eq, ok := s.Equilibrium()
	require.True(t, ok)
	assert.Equal(t, 280.0, eq.Temperature)
	assert.InDelta(t, 3, s.VaporOutlet().TotalFlow(), 1e-12)
}
