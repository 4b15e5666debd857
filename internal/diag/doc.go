// Package diag provides the compile-time diagnostics collector.
//
// Every compiler phase appends to a single ordered Diagnostics value.
// Entries are never removed or reordered: failure is a property of the
// final log (HasErrors), not of control flow. Decode-time failures use a
// separate taxonomy (core.DeserializeError) with a different lifecycle and
// never appear here.
package diag
