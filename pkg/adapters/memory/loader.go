package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/tower/pkg/domain"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
type Loader struct {
	definitions map[string]map[string]any
}

// NewLoader creates a loader serving the given documents by name.
func NewLoader(definitions map[string]map[string]any) *Loader {
	defs := make(map[string]map[string]any, len(definitions))
	for name, doc := range definitions {
		defs[name] = doc
	}
	return &Loader{definitions: defs}
}

// Add registers or replaces a definition.
func (l *Loader) Add(name string, doc map[string]any) {
	l.definitions[name] = doc
}

// Load returns a shallow copy of the named document.
func (l *Loader) Load(name string) (map[string]any, error) {
	doc, ok := l.definitions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

// List returns all definition names.
func (l *Loader) List() ([]string, error) {
	names := make([]string, 0, len(l.definitions))
	for name := range l.definitions {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
