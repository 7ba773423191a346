package ports

// DefinitionLoader defines how the engine retrieves column definitions.
// This allows the storage layer (files, memory) to be decoupled from decoding.
type DefinitionLoader interface {
	// Load retrieves the raw definition of a column by name, already parsed into a
	// generic document. It returns domain.ErrDefinitionNotFound for an unknown name.
	Load(name string) (map[string]any, error)

	// List returns the names of every available definition, sorted.
	List() ([]string, error)
}
