package codegen

import (
	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// Procedure is an ordered codec specification: a sequence of primitive
// read/write calls and control constructs over the core runtime.
type Procedure struct {
	Ops []Op
}

// Op is a sealed interface over codec operations. Read* ops name the
// destination slot they decode into; Write* ops name the source slot they
// encode from. The slot "value" is the procedure's own result for
// non-struct declarations, and "elem" is the per-iteration slot inside
// array bodies.
type Op interface {
	op() // Sealed - only these types implement it
}

// LengthSpec is a lowered array/buffer length policy. For LengthPrefixed
// the prefix has been resolved down to an integer primitive.
type LengthSpec struct {
	Kind     syntax.LengthKind
	Fixed    int
	Prefix   spec.Primitive
	FieldRef string
}

// ReadPrim decodes one primitive into Dst.
type ReadPrim struct {
	Prim spec.Primitive
	Dst  string
}

func (*ReadPrim) op() {}

// WritePrim encodes one primitive from Src.
type WritePrim struct {
	Prim spec.Primitive
	Src  string
}

func (*WritePrim) op() {}

// ReadString decodes a length-prefixed string into Dst. The length is
// guarded against the remaining input before the payload is read.
type ReadString struct {
	Count    spec.Primitive
	Encoding core.TextEncoding
	Dst      string
}

func (*ReadString) op() {}

// WriteString encodes a length-prefixed string from Src.
type WriteString struct {
	Count    spec.Primitive
	Encoding core.TextEncoding
	Src      string
}

func (*WriteString) op() {}

// ReadBuffer decodes raw bytes into Dst per the length policy.
type ReadBuffer struct {
	Length LengthSpec
	Dst    string
}

func (*ReadBuffer) op() {}

// WriteBuffer encodes raw bytes from Src per the length policy.
type WriteBuffer struct {
	Length LengthSpec
	Src    string
}

func (*WriteBuffer) op() {}

// ReadBits decodes one packed group; values land in the slots named by
// the sub-field names.
type ReadBits struct {
	Fields []syntax.BitField
}

func (*ReadBits) op() {}

// WriteBits encodes one packed group from the slots named by the
// sub-field names.
type WriteBits struct {
	Fields []syntax.BitField
}

func (*WriteBits) op() {}

// ReadArray decodes a sequence into Dst. Body decodes one element into
// the slot "elem". MinElemSize is the statically known minimum encoded
// size of one element, used to validate dynamic counts against the
// remaining input before allocating.
type ReadArray struct {
	Length      LengthSpec
	MinElemSize int
	Body        []Op
	Dst         string
}

func (*ReadArray) op() {}

// WriteArray encodes a sequence from Src. Body encodes the slot "elem".
type WriteArray struct {
	Length LengthSpec
	Body   []Op
	Src    string
}

func (*WriteArray) op() {}

// MatchCase is one arm of a Match op.
type MatchCase struct {
	Value int64
	Body  []Op
}

// ReadMatch dispatches on a previously decoded discriminant (the slot
// named On, looked up through enclosing scopes). A missing default plus an
// unmatched discriminant fails with InvalidDiscriminant at decode time.
type ReadMatch struct {
	On      string
	Cases   []MatchCase
	Default []Op
	Dst     string
}

func (*ReadMatch) op() {}

// WriteMatch dispatches on the discriminant slot during encoding.
type WriteMatch struct {
	On      string
	Cases   []MatchCase
	Default []Op
	Src     string
}

func (*WriteMatch) op() {}

// MapDecode reads the underlying primitive and maps the code to its
// symbolic name. An unknown code fails with InvalidDiscriminant.
type MapDecode struct {
	Underlying spec.Primitive
	Entries    []syntax.MapperEntry
	Dst        string
}

func (*MapDecode) op() {}

// MapEncode maps a symbolic name back to its code and writes the
// underlying primitive. An unknown name is a caller-value error.
type MapEncode struct {
	Underlying spec.Primitive
	Entries    []syntax.MapperEntry
	Src        string
}

func (*MapEncode) op() {}

// Call invokes another declaration's codec for the slot. Decoding through
// Call counts against the runtime recursion limit.
type Call struct {
	Type string
	Slot string
}

func (*Call) op() {}

// Cond guards Body behind a field presence predicate.
type Cond struct {
	Pred syntax.Presence
	Body []Op
}

func (*Cond) op() {}
