package codegen

import (
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// CompilationUnit is the generator's output: lowered declarations in
// deterministic order, exclusively owned by this package's Lower.
type CompilationUnit struct {
	Decls []Decl
}

// Decl lowers one type: a data shape plus a paired encode/decode
// procedure.
type Decl struct {
	// Name is the protocol-level type name, or a synthesized
	// parent_field name for composites lifted out of field positions.
	Name string
	// Ident is the target-shaped identifier derived from Name by the
	// fixed naming rule.
	Ident string
	// Forward marks members of cyclic-but-valid groups that need a
	// forward declaration in targets that require one.
	Forward bool

	Shape  Shape
	Encode *Procedure
	Decode *Procedure
}

// Shape is a sealed interface over lowered data declarations.
type Shape interface {
	shape() // Sealed - only these types implement it
}

// StructShape is a record with ordered fields.
type StructShape struct {
	Fields []FieldShape
}

func (*StructShape) shape() {}

// FieldShape is one struct member.
type FieldShape struct {
	Name  string
	Ident string
	// Type is the target-agnostic type expression, e.g. "u8",
	// "string(u16)", "[]Entity".
	Type string
	// Optional marks fields behind a presence predicate.
	Optional bool
}

// EnumShape is a discriminant-driven tagged union lowered from a switch.
type EnumShape struct {
	CompareTo string
	Variants  []VariantShape
	// DefaultType is the payload type expression of the default case, or
	// empty when the switch has none.
	DefaultType string
}

func (*EnumShape) shape() {}

// VariantShape is one enum variant.
type VariantShape struct {
	Value int64
	Ident string
	// Type is the payload type expression; "void" for payloadless cases.
	Type string
}

// BitsShape is a bit-packed record.
type BitsShape struct {
	Fields []syntax.BitField
	// TotalBits is always a multiple of 8.
	TotalBits int
}

func (*BitsShape) shape() {}

// MapperShape is a code↔name enumeration lowered from a mapper.
type MapperShape struct {
	// Underlying is the type expression of the encoded code.
	Underlying string
	Entries    []syntax.MapperEntry
}

func (*MapperShape) shape() {}

// AliasShape is a named type whose layout is another type expression
// (primitive, string, buffer or array definitions at top level).
type AliasShape struct {
	Target string
}

func (*AliasShape) shape() {}
