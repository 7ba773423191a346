package ports

import (
	"context"

	"github.com/aretw0/tower/pkg/domain"
)

// ResultStore defines the interface for persisting solve results.
type ResultStore interface {
	// Save persists the result under the given run ID.
	Save(ctx context.Context, runID string, result *domain.Result) error

	// Load retrieves a result.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Result, error)

	// Delete removes a result. Deleting an unknown run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of the stored runs.
	List(ctx context.Context) ([]string, error)
}
