// Package resolve turns a parsed Protocol into a dependency graph,
// resolves symbolic references, detects illegal cycles and computes the
// deterministic lowering order the code generator consumes.
//
// Edges are classified direct (the referenced type's layout is inlined:
// container fields, switch cases, length prefixes, mapper underlying
// types) or indirect (reached through an array or buffer element, which
// does not require inlining the full layout). Cycles are legal only
// through indirect edges; a cycle of direct edges is fatal.
package resolve
