// Package sym defines canonical symbols for EDICT operations and system markers.
// These symbols are stable across CLI output, logs, and documentation, so that
// a grep for a marker finds the same operation everywhere.
package sym

// Operation markers attached to structured log entries via the "symbol" field.
const (
	DB        = "⛁" // database open/migrate/persist
	Study     = "⌘" // study snapshot loading
	Dates     = "◷" // date normalization and extraction
	Reconcile = "⚖" // multi-source reference-event resolution
	Check     = "✓" // check execution
	Skip      = "↷" // skipped dataset or not-applicable check
	Run       = "▶" // engine run lifecycle
)

// Status glyphs used by the CLI result table.
const (
	StatusPass          = "✓"
	StatusFail          = "✗"
	StatusNotApplicable = "∅"
	StatusSkipped       = "↷"
)
