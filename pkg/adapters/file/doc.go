/*
Package file provides filesystem adapters.

# Key Components

  - Loader: ports.DefinitionLoader reading column definitions from YAML, JSON or TOML files.
  - Store: ports.ResultStore writing one JSON file per run with atomic replacement.
*/
package file
