// Package syntax defines the typed protocol IR and the IR builder that
// produces it from a generic spec tree.
//
// The Protocol is an insertion-ordered arena of named Type definitions.
// Type is a closed tagged variant: every consumer switches over the sealed
// interface exhaustively, there is no open hierarchy. Symbolic references
// are NOT resolved here; a Named node keeps the raw string and package
// resolve turns the arena into a dependency graph.
//
// Parsing is best-effort: a malformed node produces a diagnostic and an
// Invalid placeholder so the walk continues and one pass surfaces as many
// errors as possible.
package syntax
