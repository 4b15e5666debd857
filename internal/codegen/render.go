package codegen

import (
	"fmt"
	"strings"

	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// Render produces the unit's canonical target-agnostic text form. The
// output is a pure function of the unit: compiling the same protocol twice
// renders byte-identical text. Concrete target-language backends consume
// the unit itself, not this rendering.
func Render(u *CompilationUnit) []byte {
	var b strings.Builder
	for i, decl := range u.Decls {
		if i > 0 {
			b.WriteByte('\n')
		}
		renderDecl(&b, &decl)
	}
	return []byte(b.String())
}

func renderDecl(b *strings.Builder, d *Decl) {
	if d.Forward {
		fmt.Fprintf(b, "forward %s\n", d.Ident)
	}

	switch s := d.Shape.(type) {
	case *StructShape:
		fmt.Fprintf(b, "struct %s {\n", d.Ident)
		for _, f := range s.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			fmt.Fprintf(b, "    %s%s: %s\n", f.Ident, opt, f.Type)
		}
		b.WriteString("}\n")
	case *EnumShape:
		fmt.Fprintf(b, "enum %s on %s {\n", d.Ident, s.CompareTo)
		for _, v := range s.Variants {
			fmt.Fprintf(b, "    %s(%d): %s\n", v.Ident, v.Value, v.Type)
		}
		if s.DefaultType != "" {
			fmt.Fprintf(b, "    Default: %s\n", s.DefaultType)
		}
		b.WriteString("}\n")
	case *BitsShape:
		fmt.Fprintf(b, "bitfields %s (%d bits) {\n", d.Ident, s.TotalBits)
		for _, f := range s.Fields {
			signed := ""
			if f.Signed {
				signed = " signed"
			}
			fmt.Fprintf(b, "    %s: %d%s\n", f.Name, f.Bits, signed)
		}
		b.WriteString("}\n")
	case *MapperShape:
		fmt.Fprintf(b, "mapper %s over %s {\n", d.Ident, s.Underlying)
		for _, e := range s.Entries {
			fmt.Fprintf(b, "    %d = %q\n", e.Code, e.Name)
		}
		b.WriteString("}\n")
	case *AliasShape:
		fmt.Fprintf(b, "alias %s = %s\n", d.Ident, s.Target)
	}

	fmt.Fprintf(b, "decode %s:\n", d.Ident)
	renderOps(b, d.Decode.Ops, 1)
	fmt.Fprintf(b, "encode %s:\n", d.Ident)
	renderOps(b, d.Encode.Ops, 1)
}

func renderOps(b *strings.Builder, ops []Op, depth int) {
	indent := strings.Repeat("    ", depth)
	if len(ops) == 0 {
		b.WriteString(indent + "nop\n")
		return
	}
	for _, op := range ops {
		renderOp(b, op, depth)
	}
}

func renderOp(b *strings.Builder, op Op, depth int) {
	indent := strings.Repeat("    ", depth)

	switch o := op.(type) {
	case *ReadPrim:
		fmt.Fprintf(b, "%sread %s -> %s\n", indent, o.Prim.Name, o.Dst)
	case *WritePrim:
		fmt.Fprintf(b, "%swrite %s <- %s\n", indent, o.Prim.Name, o.Src)
	case *ReadString:
		fmt.Fprintf(b, "%sread string(%s, %s) -> %s\n", indent, o.Count.Name, o.Encoding, o.Dst)
	case *WriteString:
		fmt.Fprintf(b, "%swrite string(%s, %s) <- %s\n", indent, o.Count.Name, o.Encoding, o.Src)
	case *ReadBuffer:
		fmt.Fprintf(b, "%sread bytes[%s] -> %s\n", indent, lengthStr(o.Length), o.Dst)
	case *WriteBuffer:
		fmt.Fprintf(b, "%swrite bytes[%s] <- %s\n", indent, lengthStr(o.Length), o.Src)
	case *ReadBits:
		fmt.Fprintf(b, "%sread bits{%s}\n", indent, bitsStr(o.Fields))
	case *WriteBits:
		fmt.Fprintf(b, "%swrite bits{%s}\n", indent, bitsStr(o.Fields))
	case *ReadArray:
		fmt.Fprintf(b, "%sread array[%s] guard %d/elem -> %s:\n", indent, lengthStr(o.Length), o.MinElemSize, o.Dst)
		renderOps(b, o.Body, depth+1)
	case *WriteArray:
		fmt.Fprintf(b, "%swrite array[%s] <- %s:\n", indent, lengthStr(o.Length), o.Src)
		renderOps(b, o.Body, depth+1)
	case *ReadMatch:
		fmt.Fprintf(b, "%smatch %s -> %s:\n", indent, o.On, o.Dst)
		renderMatch(b, o.Cases, o.Default, depth)
	case *WriteMatch:
		fmt.Fprintf(b, "%smatch %s <- %s:\n", indent, o.On, o.Src)
		renderMatch(b, o.Cases, o.Default, depth)
	case *MapDecode:
		fmt.Fprintf(b, "%sread mapped(%s) -> %s\n", indent, o.Underlying.Name, o.Dst)
	case *MapEncode:
		fmt.Fprintf(b, "%swrite mapped(%s) <- %s\n", indent, o.Underlying.Name, o.Src)
	case *Call:
		fmt.Fprintf(b, "%scall %s (%s)\n", indent, Ident(o.Type), o.Slot)
	case *Cond:
		fmt.Fprintf(b, "%sif %s == %d:\n", indent, o.Pred.CompareTo, o.Pred.Equals)
		renderOps(b, o.Body, depth+1)
	}
}

func renderMatch(b *strings.Builder, cases []MatchCase, def []Op, depth int) {
	indent := strings.Repeat("    ", depth+1)
	for _, c := range cases {
		fmt.Fprintf(b, "%scase %d:\n", indent, c.Value)
		renderOps(b, c.Body, depth+2)
	}
	if def != nil {
		fmt.Fprintf(b, "%sdefault:\n", indent)
		renderOps(b, def, depth+2)
	} else {
		fmt.Fprintf(b, "%sdefault: fail InvalidDiscriminant\n", indent)
	}
}

func lengthStr(l LengthSpec) string {
	switch l.Kind {
	case syntax.LengthFixed:
		return fmt.Sprintf("%d", l.Fixed)
	case syntax.LengthPrefixed:
		return l.Prefix.Name + "-prefixed"
	case syntax.LengthField:
		return "field:" + l.FieldRef
	case syntax.LengthRest:
		return "rest"
	default:
		return "?"
	}
}

func bitsStr(fields []syntax.BitField) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Signed {
			parts[i] = fmt.Sprintf("%s:%d signed", f.Name, f.Bits)
		} else {
			parts[i] = fmt.Sprintf("%s:%d", f.Name, f.Bits)
		}
	}
	return strings.Join(parts, ", ")
}
