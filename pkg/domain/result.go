package domain

import (
	"fmt"
	"time"
)

// StageKind tags the role of a stage in the column.
type StageKind int

const (
	StageSimple StageKind = iota
	StageReboiler
	StageCondenser
)

func (k StageKind) String() string {
	switch k {
	case StageSimple:
		return "tray"
	case StageReboiler:
		return "reboiler"
	case StageCondenser:
		return "condenser"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k StageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StageKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tray", "simple":
		*k = StageSimple
	case "reboiler":
		*k = StageReboiler
	case "condenser":
		*k = StageCondenser
	default:
		return fmt.Errorf("unknown stage kind %q", string(text))
	}
	return nil
}

// IterationRecord is one row of the convergence history.
type IterationRecord struct {
	Iteration           int     `json:"iteration"`
	TemperatureResidual float64 `json:"temperature_residual"`
	MassResidual        float64 `json:"mass_residual"`
	EnergyResidual      float64 `json:"energy_residual"`
	Combined            float64 `json:"combined"`
	Factor              float64 `json:"factor"` // relaxation or acceleration scale in effect
	Polishing           bool    `json:"polishing,omitempty"`
}

// Diagnostics is rebuilt on every solve call.
type Diagnostics struct {
	RunID               string            `json:"run_id"`
	Solver              SolverType        `json:"solver"`
	Iterations          int               `json:"iterations"`
	TemperatureResidual float64           `json:"temperature_residual"`
	MassResidual        float64           `json:"mass_residual"`
	EnergyResidual      float64           `json:"energy_residual"`
	Elapsed             time.Duration     `json:"elapsed"`
	Converged           bool              `json:"converged"`
	Aborted             bool              `json:"aborted"`
	AbortReason         string            `json:"abort_reason,omitempty"`
	Polished            bool              `json:"polished"`
	StageFallbacks      int               `json:"stage_fallbacks"`
	StartedAt           time.Time         `json:"started_at"`
	History             []IterationRecord `json:"history,omitempty"`
}

// StageProfile is the solved state of one stage.
type StageProfile struct {
	Index         int       `json:"index"`
	Kind          StageKind `json:"kind"`
	Temperature   float64   `json:"temperature"`
	Pressure      float64   `json:"pressure"`
	VaporFlow     float64   `json:"vapor_flow"`
	LiquidFlow    float64   `json:"liquid_flow"`
	Duty          float64   `json:"duty"`
	VaporFraction float64   `json:"vapor_fraction"`
}

// Result is everything a caller gets back from a solve.
type Result struct {
	Column      string         `json:"column"`
	Top         Stream         `json:"top"`
	Bottom      Stream         `json:"bottom"`
	Stages      []StageProfile `json:"stages"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	c := *r
	c.Top = r.Top.Clone()
	c.Bottom = r.Bottom.Clone()
	c.Stages = append([]StageProfile(nil), r.Stages...)
	c.Diagnostics.History = append([]IterationRecord(nil), r.Diagnostics.History...)
	return &c
}
