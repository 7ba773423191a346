package domain

import (
	"errors"
	"fmt"
)

// ErrNoStages is returned when a column is configured without any stage.
var ErrNoStages = errors.New("column must have at least one stage")

// ErrInvalidConfig is the parent of every configuration error.
var ErrInvalidConfig = errors.New("invalid column configuration")

// ErrFeedStageOutOfRange is returned when a feed targets a stage index the column does not have.
var ErrFeedStageOutOfRange = errors.New("feed stage out of range")

// ErrComponentMismatch is returned when a stream's component list differs from the column's.
var ErrComponentMismatch = errors.New("component list mismatch")

// ErrNoFeeds is returned when a solve is requested on a column without feed streams.
var ErrNoFeeds = errors.New("column has no feed streams")

// ErrFlashFailed is returned by a flash collaborator that could not reach equilibrium.
var ErrFlashFailed = errors.New("flash did not converge")

// ErrFlashOutOfRange is returned when a flash specification cannot be bracketed.
var ErrFlashOutOfRange = errors.New("flash specification out of range")

// ErrUnknownComponent is returned when a component name is not in the database.
var ErrUnknownComponent = errors.New("unknown component")

// ErrUnknownSolver is returned when a solver name cannot be parsed.
var ErrUnknownSolver = errors.New("unknown solver type")

// ErrRunNotFound is returned when a result ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ConfigError describes a single rejected configuration field.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfig).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ErrLockAcquire is returned when a distributed lock cannot be taken.
var ErrLockAcquire = errors.New("failed to acquire lock")

// ErrDefinitionNotFound is returned when a loader has no column definition under the requested name.
var ErrDefinitionNotFound = errors.New("column definition not found")
