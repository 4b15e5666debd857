package codegen

import (
	"strings"

	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/resolve"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// Lower turns the resolvable portion of proto into a CompilationUnit,
// following the resolver's lowering order. Types that failed resolution
// are skipped; their diagnostics were already recorded. A type that fails
// during lowering (e.g. a non-integer length prefix) records an Error
// diagnostic and is suppressed without affecting other types.
func Lower(proto *syntax.Protocol, res *resolve.Resolution, ds *diag.Diagnostics) *CompilationUnit {
	l := &lowerer{
		proto:    proto,
		res:      res,
		ds:       ds,
		declared: make(map[string]bool),
	}

	for _, group := range res.Order {
		for _, name := range group.Names {
			l.lowerNamed(name, group.Cyclic)
		}
	}

	return &CompilationUnit{Decls: l.decls}
}

type lowerer struct {
	proto    *syntax.Protocol
	res      *resolve.Resolution
	ds       *diag.Diagnostics
	decls    []Decl
	declared map[string]bool
}

func (l *lowerer) lowerNamed(name string, forward bool) {
	if l.declared[name] {
		return
	}
	ty, ok := l.proto.Lookup(name)
	if !ok {
		return
	}
	decl, ok := l.lowerDecl(name, ty, forward)
	if !ok {
		return
	}
	l.declared[name] = true
	l.decls = append(l.decls, decl)
}

func (l *lowerer) lowerDecl(name string, ty syntax.Type, forward bool) (Decl, bool) {
	decl := Decl{Name: name, Ident: Ident(name), Forward: forward}
	path := diag.Path("types", name)

	switch t := ty.(type) {
	case *syntax.Container:
		return l.lowerStruct(decl, t, path)
	case *syntax.Switch:
		return l.lowerEnum(decl, t, path)
	case *syntax.BitFields:
		return l.lowerBits(decl, t)
	case *syntax.Mapper:
		return l.lowerMapper(decl, t, path)
	case *syntax.Invalid:
		return decl, false
	default:
		return l.lowerAlias(decl, ty, path)
	}
}

func (l *lowerer) lowerStruct(decl Decl, c *syntax.Container, path string) (Decl, bool) {
	shape := &StructShape{}
	var dec, enc []Op

	for _, f := range c.Fields {
		expr, rOps, wOps, ok := l.typeCodec(decl.Name, f.Name, f.Type, f.Name, path)
		if !ok {
			return decl, false
		}
		shape.Fields = append(shape.Fields, FieldShape{
			Name:     f.Name,
			Ident:    Ident(f.Name),
			Type:     expr,
			Optional: f.When != nil,
		})
		if f.When != nil {
			rOps = []Op{&Cond{Pred: *f.When, Body: rOps}}
			wOps = []Op{&Cond{Pred: *f.When, Body: wOps}}
		}
		dec = append(dec, rOps...)
		enc = append(enc, wOps...)
	}

	decl.Shape = shape
	decl.Decode = &Procedure{Ops: dec}
	decl.Encode = &Procedure{Ops: enc}
	return decl, true
}

func (l *lowerer) lowerEnum(decl Decl, s *syntax.Switch, path string) (Decl, bool) {
	compareTo := normalizeCompareTo(s.CompareTo)
	shape := &EnumShape{CompareTo: compareTo}
	var rCases, wCases []MatchCase

	for _, c := range s.Cases {
		field := "case_" + variantIdent(c.Value)
		expr, rOps, wOps, ok := l.typeCodec(decl.Name, field, c.Type, "value", path)
		if !ok {
			return decl, false
		}
		shape.Variants = append(shape.Variants, VariantShape{
			Value: c.Value,
			Ident: variantIdent(c.Value),
			Type:  expr,
		})
		rCases = append(rCases, MatchCase{Value: c.Value, Body: rOps})
		wCases = append(wCases, MatchCase{Value: c.Value, Body: wOps})
	}

	var rDefault, wDefault []Op
	if s.Default != nil {
		expr, rOps, wOps, ok := l.typeCodec(decl.Name, "default", s.Default, "value", path)
		if !ok {
			return decl, false
		}
		shape.DefaultType = expr
		rDefault, wDefault = rOps, wOps
	}

	decl.Shape = shape
	decl.Decode = &Procedure{Ops: []Op{
		&ReadMatch{On: compareTo, Cases: rCases, Default: rDefault, Dst: "value"},
	}}
	decl.Encode = &Procedure{Ops: []Op{
		&WriteMatch{On: compareTo, Cases: wCases, Default: wDefault, Src: "value"},
	}}
	return decl, true
}

func (l *lowerer) lowerBits(decl Decl, b *syntax.BitFields) (Decl, bool) {
	decl.Shape = &BitsShape{Fields: b.Fields, TotalBits: b.TotalBits}
	decl.Decode = &Procedure{Ops: []Op{&ReadBits{Fields: b.Fields}}}
	decl.Encode = &Procedure{Ops: []Op{&WriteBits{Fields: b.Fields}}}
	return decl, true
}

func (l *lowerer) lowerMapper(decl Decl, m *syntax.Mapper, path string) (Decl, bool) {
	prim, ok := l.resolveIntPrim(m.Underlying, diag.Path(path, "type"))
	if !ok {
		return decl, false
	}
	decl.Shape = &MapperShape{Underlying: prim.Name, Entries: m.Entries}
	decl.Decode = &Procedure{Ops: []Op{&MapDecode{Underlying: prim, Entries: m.Entries, Dst: "value"}}}
	decl.Encode = &Procedure{Ops: []Op{&MapEncode{Underlying: prim, Entries: m.Entries, Src: "value"}}}
	return decl, true
}

func (l *lowerer) lowerAlias(decl Decl, ty syntax.Type, path string) (Decl, bool) {
	expr, rOps, wOps, ok := l.typeCodec(decl.Name, "value", ty, "value", path)
	if !ok {
		return decl, false
	}
	decl.Shape = &AliasShape{Target: expr}
	decl.Decode = &Procedure{Ops: rOps}
	decl.Encode = &Procedure{Ops: wOps}
	return decl, true
}

// typeCodec lowers one type occurrence into its type expression and its
// read/write op sequences targeting slot. Inline composites are lifted
// into their own declarations, emitted before the current one.
func (l *lowerer) typeCodec(declName, field string, ty syntax.Type, slot, path string) (string, []Op, []Op, bool) {
	switch t := ty.(type) {
	case *syntax.Primitive:
		return t.Prim.Name,
			[]Op{&ReadPrim{Prim: t.Prim, Dst: slot}},
			[]Op{&WritePrim{Prim: t.Prim, Src: slot}},
			true

	case *syntax.Named:
		return Ident(t.Name),
			[]Op{&Call{Type: t.Name, Slot: slot}},
			[]Op{&Call{Type: t.Name, Slot: slot}},
			true

	case *syntax.PString:
		count, ok := l.resolveIntPrim(t.Count, path)
		if !ok {
			return "", nil, nil, false
		}
		expr := "string(" + count.Name + ")"
		return expr,
			[]Op{&ReadString{Count: count, Encoding: t.Encoding, Dst: slot}},
			[]Op{&WriteString{Count: count, Encoding: t.Encoding, Src: slot}},
			true

	case *syntax.Buffer:
		length, ok := l.lowerLength(t.Length, path)
		if !ok {
			return "", nil, nil, false
		}
		return "bytes",
			[]Op{&ReadBuffer{Length: length, Dst: slot}},
			[]Op{&WriteBuffer{Length: length, Src: slot}},
			true

	case *syntax.Array:
		length, ok := l.lowerLength(t.Length, path)
		if !ok {
			return "", nil, nil, false
		}
		elemExpr, rBody, wBody, ok := l.typeCodec(declName, field+"_elem", t.Elem, "elem", path)
		if !ok {
			return "", nil, nil, false
		}
		read := &ReadArray{
			Length:      length,
			MinElemSize: minSize(rBody),
			Body:        rBody,
			Dst:         slot,
		}
		write := &WriteArray{Length: length, Body: wBody, Src: slot}
		return "[]" + elemExpr, []Op{read}, []Op{write}, true

	case *syntax.Container, *syntax.Switch, *syntax.BitFields, *syntax.Mapper:
		name := liftedName(declName, field)
		if !l.declared[name] {
			lifted, ok := l.lowerDecl(name, ty, false)
			if !ok {
				return "", nil, nil, false
			}
			l.declared[name] = true
			l.decls = append(l.decls, lifted)
		}
		return Ident(name),
			[]Op{&Call{Type: name, Slot: slot}},
			[]Op{&Call{Type: name, Slot: slot}},
			true

	default: // *syntax.Invalid
		// Resolution already reported this; nothing to lower.
		return "", nil, nil, false
	}
}

// lowerLength resolves a length policy, reducing prefix types to integer
// primitives.
func (l *lowerer) lowerLength(length syntax.Length, path string) (LengthSpec, bool) {
	out := LengthSpec{
		Kind:     length.Kind,
		Fixed:    length.Fixed,
		FieldRef: normalizeCompareTo(length.FieldRef),
	}
	if length.Kind == syntax.LengthPrefixed {
		prim, ok := l.resolveIntPrim(length.Prefix, path)
		if !ok {
			return out, false
		}
		out.Prefix = prim
	}
	return out, true
}

// resolveIntPrim follows named references until an integer primitive, the
// only valid shape for length prefixes and mapper underlying types.
func (l *lowerer) resolveIntPrim(ty syntax.Type, path string) (spec.Primitive, bool) {
	seen := make(map[string]bool)
	for {
		switch t := ty.(type) {
		case *syntax.Primitive:
			switch t.Prim.Kind {
			case spec.PrimUint, spec.PrimInt, spec.PrimVarint:
				return t.Prim, true
			}
			l.ds.Errorf(diag.MalformedSpecValue, path, "length type %q is not an integer primitive", t.Prim.Name)
			return spec.Primitive{}, false
		case *syntax.Named:
			if seen[t.Name] {
				l.ds.Errorf(diag.MalformedSpecValue, path, "length type %q is cyclic", t.Name)
				return spec.Primitive{}, false
			}
			seen[t.Name] = true
			next, ok := l.proto.Lookup(t.Name)
			if !ok {
				return spec.Primitive{}, false
			}
			ty = next
		default:
			l.ds.Errorf(diag.MalformedSpecValue, path, "length type must resolve to an integer primitive")
			return spec.Primitive{}, false
		}
	}
}

// minSize is the statically known minimum number of bytes an op sequence
// consumes. It backs the pre-allocation length guard on arrays.
func minSize(ops []Op) int {
	total := 0
	for _, op := range ops {
		switch o := op.(type) {
		case *ReadPrim:
			total += primMinSize(o.Prim)
		case *ReadString:
			total += primMinSize(o.Count)
		case *ReadBuffer:
			total += lengthMinSize(o.Length)
		case *ReadBits:
			bits := 0
			for _, f := range o.Fields {
				bits += f.Bits
			}
			total += bits / 8
		case *ReadArray:
			if o.Length.Kind == syntax.LengthFixed {
				total += o.Length.Fixed * o.MinElemSize
			} else {
				total += lengthMinSize(o.Length)
			}
		case *ReadMatch:
			m := -1
			for _, c := range o.Cases {
				if s := minSize(c.Body); m < 0 || s < m {
					m = s
				}
			}
			if o.Default != nil {
				if s := minSize(o.Default); m < 0 || s < m {
					m = s
				}
			}
			if m > 0 {
				total += m
			}
		case *MapDecode:
			total += primMinSize(o.Underlying)
		case *Call, *Cond:
			// Callee size is not computed here (it may be cyclic), and a
			// conditional field may be absent entirely.
		}
	}
	return total
}

func primMinSize(p spec.Primitive) int {
	switch p.Kind {
	case spec.PrimVarint:
		return 1
	case spec.PrimVoid:
		return 0
	default:
		return p.Width
	}
}

func lengthMinSize(l LengthSpec) int {
	switch l.Kind {
	case syntax.LengthFixed:
		return l.Fixed
	case syntax.LengthPrefixed:
		return primMinSize(l.Prefix)
	default:
		return 0
	}
}

// normalizeCompareTo strips the "../" prefixes some specs use to point at
// enclosing scopes; slot lookup already walks outward through scopes.
func normalizeCompareTo(s string) string {
	for strings.HasPrefix(s, "../") {
		s = s[len("../"):]
	}
	return s
}
