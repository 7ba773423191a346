package ports

import "github.com/aretw0/tower/pkg/domain"

// Flasher computes phase equilibrium for a fixed feed.
//
// Implementations must be deterministic for identical inputs. A failure to reach
// equilibrium is reported as an error (wrapping domain.ErrFlashFailed or
// domain.ErrFlashOutOfRange); the column downgrades it to a TP retry.
// The column never calls a Flasher concurrently, but Column clones share theirs,
// so implementations used with clones must be safe for concurrent use.
type Flasher interface {
	Equilibrate(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error)
}

// FlasherFunc adapts a plain function to the Flasher interface.
type FlasherFunc func(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error)

// Equilibrate calls f.
func (f FlasherFunc) Equilibrate(feed domain.Stream, spec domain.FlashSpec) (domain.Equilibrium, error) {
	return f(feed, spec)
}
