package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tower/pkg/domain"
)

// Extensions lists the definition formats in lookup order.
var Extensions = []string{".yaml", ".yml", ".json", ".toml"}

// Loader implements ports.DefinitionLoader over a directory of column definitions.
// A definition named "depropanizer" is read from depropanizer.yaml, .yml, .json or .toml.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = "."
	}
	return &Loader{dir: dir}
}

// Load finds the named definition and parses it according to its extension.
// A name that is itself a path to an existing file is read directly.
func (l *Loader) Load(name string) (map[string]any, error) {
	if isDefinition(name) {
		if _, err := os.Stat(name); err == nil {
			return ReadDefinition(name)
		}
	}
	for _, ext := range Extensions {
		path := filepath.Join(l.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return ReadDefinition(path)
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", domain.ErrDefinitionNotFound, name, l.dir)
}

// List returns the names of the definitions in the directory.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	seen := map[string]bool{}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !isDefinition(entry.Name()) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadDefinition reads a YAML, JSON or TOML file into a generic document.
func ReadDefinition(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, path)
		}
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	doc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Parse decodes data in the format named by ext. Unknown extensions are read as YAML.
func Parse(data []byte, ext string) (map[string]any, error) {
	doc := map[string]any{}
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
		return normalizeJSON(doc).(map[string]any), nil
	case ".toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func isDefinition(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range Extensions {
		if ext == known {
			return true
		}
	}
	return false
}

// normalizeJSON turns json.Number into int64 or float64 so integer fields survive decoding.
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeJSON(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeJSON(inner)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
