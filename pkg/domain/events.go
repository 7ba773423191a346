package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventSolveStart    EventType = "solve_start"
	EventIteration     EventType = "iteration"
	EventStageFallback EventType = "stage_fallback"
	EventSolveEnd      EventType = "solve_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Column    string    `json:"column,omitempty"`
}

// SolveEvent marks the start or the end of a solve.
// Diagnostics is nil on start.
type SolveEvent struct {
	EventBase
	Solver      SolverType   `json:"solver"`
	Stages      int          `json:"stages"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// IterationEvent is emitted once per solver iteration.
type IterationEvent struct {
	EventBase
	Solver SolverType      `json:"solver"`
	Record IterationRecord `json:"record"`
}

// StageEvent reports a local numerical failure recovered by a stage.
type StageEvent struct {
	EventBase
	Stage  int       `json:"stage"`
	Kind   StageKind `json:"kind"`
	Mode   FlashMode `json:"mode"`
	Reason string    `json:"reason"`
}

// LifecycleHooks defines callbacks for solver observability.
// Hooks run synchronously on the solving goroutine; nil hooks are skipped.
type LifecycleHooks struct {
	OnSolveStart    func(*SolveEvent)
	OnIteration     func(*IterationEvent)
	OnStageFallback func(*StageEvent)
	OnSolveEnd      func(*SolveEvent)
}
