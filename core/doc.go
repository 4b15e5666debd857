// Package core is the fixed, protocol-agnostic runtime library linked by
// all generated codec code.
//
// It provides primitive read/write operations over a sequential byte
// cursor: fixed-width integers with explicit endianness, LEB128 varints,
// length-prefixed strings and buffers, and bit-packed field groups. Every
// read consumes exactly the bytes it declares and never over-reads; every
// failure is a one-shot DeserializeError that callers propagate
// immediately. Nothing in this package depends on any particular protocol.
//
// Bitfield convention: sub-fields pack MSB-first into a big-endian byte
// group whose width is the sum of the declared bit widths. A group
// declared [a:1, b:1, pad:6] with a=1, b=0 therefore encodes as the single
// byte 0b1000_0000.
package core
