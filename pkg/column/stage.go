package column

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/ports"
)

// Stage is one equilibrium tray, or the reboiler or condenser when Kind says so.
//
// Its input slots are the feeds (in registration order), the vapor from the stage below
// and the liquid from the stage above. The liquid slot is always the last one.
// Every slot owns a private copy of its stream.
type Stage struct {
	index      int
	kind       domain.StageKind
	components []string
	logger     *slog.Logger

	pressure    float64
	temperature float64

	fixedTemperature float64
	heatInput        float64
	meteredDuty      float64
	refluxRatio      float64
	totalCondenser   bool

	feeds    []domain.Stream
	vaporIn  domain.Stream
	liquidIn domain.Stream

	mixed domain.Stream
	state *domain.Equilibrium
	mode  domain.FlashMode
	duty  float64

	vaporOut   domain.Stream
	liquidOut  domain.Stream
	distillate domain.Stream

	fallbacks    int
	lastFallback string
}

// NewStage creates a detached stage. Columns create their own stages; this is for
// callers that drive a single stage by hand.
func NewStage(index int, kind domain.StageKind) *Stage {
	return &Stage{
		index:  index,
		kind:   kind,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (s *Stage) Index() int { return s.index }
func (s *Stage) Kind() domain.StageKind { return s.kind }
func (s *Stage) Pressure() float64 { return s.pressure }
func (s *Stage) Temperature() float64 { return s.temperature }
func (s *Stage) Duty() float64 { return s.duty }
func (s *Stage) Mode() domain.FlashMode { return s.mode }
func (s *Stage) Fallbacks() int { return s.fallbacks }
func (s *Stage) SetPressure(p float64) { s.pressure = p }
func (s *Stage) SetHeatInput(q float64) { s.heatInput = q }
func (s *Stage) SetMeteredDuty(q float64) { s.meteredDuty = q }

// SetTemperature sets the current temperature estimate. It seeds iterative flashes and
// is the temperature used by the TP fallback.
func (s *Stage) SetTemperature(t float64) { s.temperature = t }

// SetOutTemperature fixes the outlet temperature. Zero frees it.
func (s *Stage) SetOutTemperature(t float64) {
	s.fixedTemperature = t
	if t > 0 {
		s.temperature = t
	}
}

// SetRefluxRatio sets L/D on a condenser or the boil-up ratio V/B on any other stage.
// Zero removes the specification.
func (s *Stage) SetRefluxRatio(r float64) { s.refluxRatio = r }

// SetTotalCondenser makes the stage condense everything and split the liquid into
// reflux and distillate according to the reflux ratio.
func (s *Stage) SetTotalCondenser(total bool) { s.totalCondenser = total }

func (s *Stage) applySpec(spec StageSpec) {
	s.SetOutTemperature(spec.Temperature)
	s.heatInput = spec.HeatInput
	s.meteredDuty = spec.MeteredDuty
	s.refluxRatio = spec.RefluxRatio
	s.totalCondenser = spec.TotalCondenser
}

// hasFixedSpec reports whether the outlet state is pinned by a temperature or reflux
// specification rather than by the enthalpy balance.
func (s *Stage) hasFixedSpec() bool {
	return s.fixedTemperature > 0 || s.refluxRatio > 0 || s.totalCondenser
}

// SetFeeds replaces the feed slots.
func (s *Stage) SetFeeds(feeds ...domain.Stream) {
	s.feeds = make([]domain.Stream, len(feeds))
	for i, f := range feeds {
		s.feeds[i] = f.Clone()
	}
	if len(feeds) > 0 && s.components == nil {
		s.components = feeds[0].Components
	}
}

// SetVaporIn replaces the vapor slot.
func (s *Stage) SetVaporIn(v domain.Stream) { s.vaporIn = v.Clone() }

// SetLiquidIn replaces the last input slot.
func (s *Stage) SetLiquidIn(l domain.Stream) { s.liquidIn = l.Clone() }

func (s *Stage) clearConnections() {
	s.vaporIn = domain.Stream{}
	s.liquidIn = domain.Stream{}
}

// Inputs returns copies of every input slot: feeds, vapor-in, then liquid-in.
func (s *Stage) Inputs() []domain.Stream {
	out := make([]domain.Stream, 0, len(s.feeds)+2)
	for _, f := range s.feeds {
		out = append(out, f.Clone())
	}
	return append(out, s.vaporIn.Clone(), s.liquidIn.Clone())
}

// Equilibrium returns a copy of the last accepted state.
func (s *Stage) Equilibrium() (domain.Equilibrium, bool) {
	if s.state == nil {
		return domain.Equilibrium{}, false
	}
	return s.state.Clone(), true
}

// VaporOutlet returns the vapor leaving the stage. An absent phase yields a zero-flow stream.
func (s *Stage) VaporOutlet() domain.Stream { return s.outlet(s.vaporOut) }

// LiquidOutlet returns the liquid leaving the stage towards the stage below, which is the
// reflux on a total condenser.
func (s *Stage) LiquidOutlet() domain.Stream { return s.outlet(s.liquidOut) }

// Distillate returns the liquid product of a total condenser, and a zero-flow stream otherwise.
func (s *Stage) Distillate() domain.Stream { return s.outlet(s.distillate) }

func (s *Stage) outlet(st domain.Stream) domain.Stream {
	if len(st.Flows) == 0 {
		return s.emptyStream()
	}
	return st.Clone()
}

func (s *Stage) emptyStream() domain.Stream {
	return domain.Stream{
		Components:  s.components,
		Flows:       make([]float64, len(s.components)),
		Temperature: s.temperature,
		Pressure:    s.pressure,
	}
}

// outflows are the streams leaving the stage.
func (s *Stage) outflows() []domain.Stream {
	return []domain.Stream{s.vaporOut, s.liquidOut, s.distillate}
}

// Solve mixes every input, applies the stage pressure and equilibrates:
// TP when the outlet temperature is fixed, PVF when a reflux or boil-up ratio is set,
// PH on the enthalpy balance otherwise. A failed or non-finite flash is retried as TP
// at the last valid temperature; if that fails too the previous state is kept.
func (s *Stage) Solve(flasher ports.Flasher) {
	inputs := make([]domain.Stream, 0, len(s.feeds)+2)
	inputs = append(inputs, s.feeds...)
	inputs = append(inputs, s.vaporIn, s.liquidIn)
	mixed := domain.Mix(fmt.Sprintf("stage-%d", s.index), inputs...)
	if mixed.IsEmpty() {
		s.mixed = mixed
		s.state = nil
		s.duty = 0
		s.vaporOut, s.liquidOut, s.distillate = s.emptyStream(), s.emptyStream(), s.emptyStream()
		return
	}
	if s.components == nil {
		s.components = mixed.Components
	}
	mixed.Pressure = s.pressure
	s.mixed = mixed

	spec := s.flashSpec(mixed)
	s.mode = spec.Mode
	eq, err := flasher.Equilibrate(mixed, spec)
	if err == nil && !finiteEquilibrium(eq) {
		err = fmt.Errorf("%w: non-finite %s result", domain.ErrFlashFailed, spec.Mode)
	}
	if err != nil {
		if eq, err = s.fallback(flasher, mixed, spec, err); err != nil {
			return
		}
	}
	s.accept(eq)
}

func (s *Stage) flashSpec(mixed domain.Stream) domain.FlashSpec {
	guess := s.temperature
	if !(guess > 0) || math.IsInf(guess, 0) {
		guess = mixed.Temperature
	}
	switch {
	case s.fixedTemperature > 0:
		return domain.TP(s.fixedTemperature, s.pressure)
	case s.totalCondenser:
		return domain.PVF(s.pressure, 0, guess)
	case s.refluxRatio > 0:
		beta := s.refluxRatio / (1 + s.refluxRatio)
		if s.kind == domain.StageCondenser {
			beta = 1 / (1 + s.refluxRatio)
		}
		return domain.PVF(s.pressure, beta, guess)
	default:
		return domain.PH(s.pressure, mixed.Enthalpy+s.heatInput-s.meteredDuty, guess)
	}
}

func (s *Stage) fallback(flasher ports.Flasher, mixed domain.Stream, spec domain.FlashSpec, cause error) (domain.Equilibrium, error) {
	t := s.temperature
	if !(t > 0) || math.IsInf(t, 0) {
		t = mixed.Temperature
	}
	s.fallbacks++
	s.lastFallback = cause.Error()
	s.logger.Warn("stage flash failed, retrying at fixed temperature",
		"mode", spec.Mode.String(), "temperature", t, "error", cause)

	eq, err := flasher.Equilibrate(mixed, domain.TP(t, s.pressure))
	if err == nil && !finiteEquilibrium(eq) {
		err = fmt.Errorf("%w: non-finite TP result", domain.ErrFlashFailed)
	}
	if err != nil {
		s.lastFallback = err.Error()
		s.logger.Error("stage fallback failed, keeping previous state", "temperature", t, "error", err)
		return domain.Equilibrium{}, err
	}
	return eq, nil
}

// enforceTemperature re-equilibrates the current mixture at t. Stages pinned by a
// specification keep their state.
func (s *Stage) enforceTemperature(flasher ports.Flasher, t float64) {
	if s.hasFixedSpec() || s.mixed.IsEmpty() || !(t > 0) || math.IsInf(t, 0) {
		return
	}
	eq, err := flasher.Equilibrate(s.mixed, domain.TP(t, s.pressure))
	if err != nil || !finiteEquilibrium(eq) {
		s.logger.Debug("temperature update rejected", "temperature", t, "error", err)
		return
	}
	s.accept(eq)
}

func (s *Stage) accept(eq domain.Equilibrium) {
	if eq.Phases > 2 {
		s.logger.Warn("stage has more than two phases", "phases", eq.Phases)
	}
	s.state = &eq
	s.temperature = eq.Temperature
	if s.hasFixedSpec() {
		s.duty = eq.Enthalpy - s.mixed.Enthalpy
	} else {
		s.duty = s.heatInput - s.meteredDuty
	}

	s.vaporOut = eq.Vapor.Clone()
	s.vaporOut.Name = fmt.Sprintf("stage-%d-vapor", s.index)
	if s.totalCondenser {
		down := s.refluxRatio / (1 + s.refluxRatio)
		s.liquidOut = eq.Liquid.Scaled(down)
		s.distillate = eq.Liquid.Scaled(1 - down)
		s.distillate.Name = fmt.Sprintf("stage-%d-distillate", s.index)
	} else {
		s.liquidOut = eq.Liquid.Clone()
		s.distillate = s.emptyStream()
	}
	s.liquidOut.Name = fmt.Sprintf("stage-%d-liquid", s.index)
}

func (s *Stage) clone() *Stage {
	c := *s
	c.feeds = make([]domain.Stream, len(s.feeds))
	for i, f := range s.feeds {
		c.feeds[i] = f.Clone()
	}
	c.vaporIn = s.vaporIn.Clone()
	c.liquidIn = s.liquidIn.Clone()
	c.mixed = s.mixed.Clone()
	if s.state != nil {
		st := s.state.Clone()
		c.state = &st
	}
	c.vaporOut = s.vaporOut.Clone()
	c.liquidOut = s.liquidOut.Clone()
	c.distillate = s.distillate.Clone()
	return &c
}

func finiteEquilibrium(eq domain.Equilibrium) bool {
	for _, v := range []float64{eq.Temperature, eq.Enthalpy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return eq.Vapor.IsFinite() && eq.Liquid.IsFinite()
}
