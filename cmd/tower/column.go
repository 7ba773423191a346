package main

import (
	"errors"
	"os"

	"github.com/aretw0/tower"
	"github.com/aretw0/tower/internal/cli"
	"github.com/aretw0/tower/pkg/adapters/file"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

// openEngine builds the engine from the resolved settings.
func openEngine(hooks ...domain.LifecycleHooks) (*tower.Engine, func() error, error) {
	return cli.NewEngine(settings, logger, hooks...)
}

// loadColumn treats arg as a definition file when it exists on disk, or as a name otherwise.
func loadColumn(eng *tower.Engine, arg string) (*column.Column, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		doc, err := file.ReadDefinition(arg)
		if err != nil {
			return nil, err
		}
		return eng.Build(doc)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return eng.Column(arg)
}

// solverFor resolves the --solver flag, falling back to the settings and then to the column.
func solverFor(col *column.Column, flag string) (domain.SolverType, error) {
	name := flag
	if name == "" {
		name = settings.Solver
	}
	if name == "" {
		return col.Config().Solver, nil
	}
	return domain.ParseSolverType(name)
}
