package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/tower"
	"github.com/aretw0/tower/internal/logging"
	"github.com/aretw0/tower/pkg/adapters/file"
	"github.com/aretw0/tower/pkg/adapters/memory"
	"github.com/aretw0/tower/pkg/adapters/redis"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/observability"
	"github.com/aretw0/tower/pkg/runner"
)

// NewLogger builds the application logger from the settings.
func NewLogger(s Settings) (*slog.Logger, error) {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(stderr, level, s.LogJSON), nil
}

// NewEngine wires the engine the CLI conventions expect: logging hooks, the configured
// result store, a locker next to a shared store, and a bounded runner.
// The returned func releases the backend connections.
func NewEngine(s Settings, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*tower.Engine, func() error, error) {
	closer := func() error { return nil }
	opts := []tower.Option{
		tower.WithLogger(logger),
		tower.WithLifecycleHooks(observability.Combine(append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)...)),
		tower.WithRunner(runner.NewRunner(
			runner.WithLogger(logger),
			runner.WithConcurrency(s.Concurrency),
			runner.WithTimeout(s.Timeout),
		)),
	}

	switch s.Store {
	case StoreMemory:
		opts = append(opts, tower.WithStore(memory.NewStore()), tower.WithLocker(memory.NewLocker()))
	case StoreFile:
		opts = append(opts, tower.WithStore(file.NewStore(s.RunsDir)))
	case StoreRedis:
		store := redis.New(s.Redis.Addr, s.Redis.Password, s.Redis.DB,
			redis.WithPrefix(s.Redis.Prefix+"run:"),
			redis.WithTTL(s.RunTTL),
		)
		opts = append(opts,
			tower.WithStore(store),
			tower.WithLocker(redis.NewLocker(store.Client(), s.Redis.Prefix)),
		)
		closer = store.Close
	default:
		return nil, nil, fmt.Errorf("unknown store %q", s.Store)
	}

	eng, err := tower.New(s.Dir, opts...)
	if err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, closer, nil
}
