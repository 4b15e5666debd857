// Package spec models the generic spec tree: a loaded, untyped JSON-like
// value that the IR builder walks. Object member order is preserved because
// a protocol's type mapping is insertion-ordered and encoding order must
// match declared order.
//
// The package also carries the Profile: the configuration table that pins
// the primitive width/endianness set and the bitfield bit-order convention
// for the grammar the parser targets.
package spec
