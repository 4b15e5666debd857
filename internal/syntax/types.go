package syntax

import (
	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
)

// Type is a sealed interface over the protocol type variants. Only the
// types in this file implement it.
type Type interface {
	typeNode() // Sealed - only these types implement it
}

// Primitive is a recognized primitive from the profile table.
type Primitive struct {
	Prim spec.Primitive
}

func (*Primitive) typeNode() {}

// Named is an unresolved symbolic reference to another type definition.
// References stay raw until the resolver runs.
type Named struct {
	Name string
}

func (*Named) typeNode() {}

// Invalid is the placeholder synthesized when a spec node cannot be
// parsed. It lets the walk continue past the error; the resolver treats
// any type containing it as unresolved.
type Invalid struct{}

func (*Invalid) typeNode() {}

// Container is a struct-like ordered field list. Encoding order is
// declared order; field names are unique within one container.
type Container struct {
	Fields []Field
}

func (*Container) typeNode() {}

// Field is one container member.
type Field struct {
	Name string
	// Anon marks a field whose name was synthesized because the spec
	// declared it anonymous.
	Anon bool
	Type Type
	// When, if non-nil, makes the field conditional on a previously
	// decoded sibling value.
	When *Presence
}

// Presence is a field presence predicate: the field is present iff the
// sibling named CompareTo decoded to Equals.
type Presence struct {
	CompareTo string
	Equals    int64
}

// Switch is a discriminant-driven tagged union. Case values are unique
// within one switch; a missing default plus an unmatched discriminant is a
// decode-time failure, not a compile-time one.
type Switch struct {
	CompareTo string
	Cases     []SwitchCase
	// Default is nil when the switch has no default case.
	Default Type
}

func (*Switch) typeNode() {}

// SwitchCase maps one discriminant value to a type.
type SwitchCase struct {
	Value int64
	Type  Type
}

// BitFields is an ordered run of bit-packed sub-fields. TotalBits is the
// sum of the sub-field widths and is always a multiple of 8; padding is
// declared as an explicit sub-field.
type BitFields struct {
	Fields    []BitField
	TotalBits int
}

func (*BitFields) typeNode() {}

// BitField is one bit-packed sub-field.
type BitField struct {
	Name   string
	Bits   int
	Signed bool
}

// LengthKind discriminates array/buffer length policies.
type LengthKind int

const (
	// LengthFixed repeats a compile-time constant number of times.
	LengthFixed LengthKind = iota
	// LengthPrefixed reads the count from a leading length type.
	LengthPrefixed
	// LengthField takes the count from a previously decoded sibling.
	LengthField
	// LengthRest consumes elements until end of stream.
	LengthRest
)

// Length is an array or buffer length policy.
type Length struct {
	Kind LengthKind
	// Fixed is the element count for LengthFixed.
	Fixed int
	// Prefix is the length type for LengthPrefixed.
	Prefix Type
	// FieldRef names the sibling count field for LengthField.
	FieldRef string
}

// Array is a homogeneous sequence with a length policy. Array elements are
// the indirection point that makes reference cycles legal.
type Array struct {
	Elem   Type
	Length Length
}

func (*Array) typeNode() {}

// Buffer is a raw byte sequence with a length policy.
type Buffer struct {
	Length Length
}

func (*Buffer) typeNode() {}

// PString is a length-prefixed string: a length type followed by that many
// bytes of encoded text.
type PString struct {
	Count    Type
	Encoding core.TextEncoding
}

func (*PString) typeNode() {}

// Mapper is a bidirectional mapping between encoded codes and symbolic
// names, read and written through an underlying numeric type.
type Mapper struct {
	Underlying Type
	Entries    []MapperEntry
}

func (*Mapper) typeNode() {}

// MapperEntry is one code↔name pair.
type MapperEntry struct {
	Code int64
	Name string
}

// Protocol is the root object: an insertion-ordered mapping from type name
// to definition. It owns every Type and is immutable once resolution
// completes.
type Protocol struct {
	names []string
	types map[string]Type
}

// NewProtocol returns an empty protocol.
func NewProtocol() *Protocol {
	return &Protocol{types: make(map[string]Type)}
}

// Define registers a definition under name. The first definition wins;
// Define reports whether the name was new.
func (p *Protocol) Define(name string, ty Type) bool {
	if _, exists := p.types[name]; exists {
		return false
	}
	p.names = append(p.names, name)
	p.types[name] = ty
	return true
}

// Lookup returns the definition registered under name.
func (p *Protocol) Lookup(name string) (Type, bool) {
	ty, ok := p.types[name]
	return ty, ok
}

// Names returns the type names in declaration order. The returned slice
// aliases the protocol; callers must not mutate it.
func (p *Protocol) Names() []string { return p.names }

// Len returns the number of definitions.
func (p *Protocol) Len() int { return len(p.names) }
