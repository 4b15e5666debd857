// Package codegen lowers a resolved Protocol into a CompilationUnit: an
// ordered sequence of target-shaped declarations paired with encode/decode
// procedure specifications.
//
// Lowering is a deterministic function of the resolved protocol: identical
// input yields byte-identical output. Declarations follow the resolver's
// lowering order, fields keep declared order, and names derive from a
// fixed rule. Procedures are op sequences over the core runtime, not
// concrete syntax; rendering into a target language is a separate concern.
//
// Decode procedures are bounded-recursion by construction: every nested
// type traversal goes through a Call op, which brackets the runtime depth
// guard, and every dynamic length is guarded against the remaining input
// before anything is allocated.
package codegen
