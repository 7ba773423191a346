package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/pkg/adapters/file"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/ports"
)

const yamlDef = `
name: depropanizer
trays: 5
components: [methane, ethane, propane]
condenser:
  reflux_ratio: 0.5
`

const jsonDef = `{"name": "deethanizer", "trays": 8, "top_pressure": 19.5}`

const tomlDef = `
name = "debutanizer"
trays = 12

[reboiler]
heat_input = 2.0e5
`

func writeDefinitions(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"depropanizer.yaml": yamlDef,
		"deethanizer.json":  jsonDef,
		"debutanizer.toml":  tomlDef,
		"README.md":         "not a definition",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestFileLoader_Contract(t *testing.T) {
	loader := file.NewLoader(writeDefinitions(t))
	ports.RunDefinitionLoaderContract(t, loader, []string{"debutanizer", "deethanizer", "depropanizer"})
}

func TestFileLoader_Formats(t *testing.T) {
	loader := file.NewLoader(writeDefinitions(t))

	tests := []struct {
		name  string
		trays any
		check func(t *testing.T, doc map[string]any)
	}{
		{
			name:  "depropanizer",
			trays: 5,
			check: func(t *testing.T, doc map[string]any) {
				assert.Equal(t, []any{"methane", "ethane", "propane"}, doc["components"])
				assert.Equal(t, map[string]any{"reflux_ratio": 0.5}, doc["condenser"])
			},
		},
		{
			name:  "deethanizer",
			trays: int64(8),
			check: func(t *testing.T, doc map[string]any) {
				assert.Equal(t, 19.5, doc["top_pressure"])
			},
		},
		{
			name:  "debutanizer",
			trays: int64(12),
			check: func(t *testing.T, doc map[string]any) {
				assert.Equal(t, map[string]any{"heat_input": 2.0e5}, doc["reboiler"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := loader.Load(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, doc["name"])
			assert.Equal(t, tt.trays, doc["trays"])
			tt.check(t, doc)
		})
	}
}

func TestFileLoader_DirectPath(t *testing.T) {
	dir := writeDefinitions(t)
	loader := file.NewLoader(t.TempDir())

	doc, err := loader.Load(filepath.Join(dir, "deethanizer.json"))
	require.NoError(t, err)
	assert.Equal(t, "deethanizer", doc["name"])
}

func TestFileLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	loader := file.NewLoader(dir)

	_, err := loader.Load("broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDefinitionNotFound)

	_, err = file.ReadDefinition(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

	names, err := file.NewLoader(filepath.Join(dir, "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
