// Package cli holds the plumbing shared by the tower commands: settings resolved
// through viper, the engine factory for each store backend, and terminal output.
package cli
