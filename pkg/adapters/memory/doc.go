// Package memory provides process-local adapters: a result store, a locker and a
// definition loader. They back the CLI and the tests, and the HTTP service when no
// Redis address is configured.
package memory
