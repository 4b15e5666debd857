package interp

import (
	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/codegen"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

type encoder struct {
	codec    *Codec
	w        *core.Writer
	frames   frames
	depth    int
	maxDepth int
}

func (e *encoder) runDecl(decl *codegen.Decl, value any) *core.DeserializeError {
	switch decl.Shape.(type) {
	case *codegen.StructShape, *codegen.BitsShape:
		m, ok := value.(map[string]any)
		if !ok {
			return core.NewCustomError(e.w.Len(), "%s wants a field map, got %T", decl.Name, value)
		}
		e.frames.push(m)
	default:
		e.frames.push(map[string]any{"value": value})
	}
	err := e.exec(decl.Encode.Ops)
	e.frames.pop()
	return err
}

func (e *encoder) exec(ops []codegen.Op) *core.DeserializeError {
	for _, op := range ops {
		if err := e.execOp(op); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) execOp(op codegen.Op) *core.DeserializeError {
	switch o := op.(type) {
	case *codegen.WritePrim:
		if o.Prim.Kind == spec.PrimVoid {
			return nil
		}
		v, err := e.slot(o.Src)
		if err != nil {
			return err
		}
		return e.writePrim(o.Prim, v)

	case *codegen.WriteString:
		v, err := e.slot(o.Src)
		if err != nil {
			return err
		}
		s, cerr := toString(v)
		if cerr != nil {
			return core.NewCustomError(e.w.Len(), "%s", cerr)
		}
		return e.w.WriteLengthPrefixedString(s, lengthWriter(o.Count), o.Encoding)

	case *codegen.WriteBuffer:
		return e.writeBuffer(o)

	case *codegen.WriteBits:
		return e.writeBits(o.Fields)

	case *codegen.WriteArray:
		return e.writeArray(o)

	case *codegen.WriteMatch:
		return e.writeMatch(o)

	case *codegen.MapEncode:
		return e.mapEncode(o)

	case *codegen.Call:
		decl, ok := e.codec.decls[o.Type]
		if !ok {
			return core.NewCustomError(e.w.Len(), "no codec for type %q", o.Type)
		}
		// A self-referential caller value would otherwise recurse through
		// a cyclic type until the stack blows.
		if e.depth >= e.maxDepth {
			return &core.DeserializeError{
				Kind:    core.RecursionLimitExceeded,
				Message: "nested encoding exceeded depth limit",
				Offset:  e.w.Len(),
			}
		}
		e.depth++
		v, _ := e.frames.lookup(o.Slot)
		err := e.runDecl(decl, v)
		e.depth--
		return err

	case *codegen.Cond:
		v, err := e.lookupInt(o.Pred.CompareTo)
		if err != nil {
			return err
		}
		if v != o.Pred.Equals {
			return nil
		}
		return e.exec(o.Body)

	default:
		return core.NewCustomError(e.w.Len(), "unsupported encode op %T", op)
	}
}

func (e *encoder) writePrim(p spec.Primitive, v any) *core.DeserializeError {
	switch p.Kind {
	case spec.PrimUint:
		u, err := toUint(v)
		if err != nil {
			return core.NewCustomError(e.w.Len(), "%s", err)
		}
		return e.w.WriteUint(u, p.Width, p.Little)
	case spec.PrimInt:
		n, err := toInt(v)
		if err != nil {
			return core.NewCustomError(e.w.Len(), "%s", err)
		}
		return e.w.WriteInt(n, p.Width, p.Little)
	case spec.PrimVarint:
		u, err := toUint(v)
		if err != nil {
			return core.NewCustomError(e.w.Len(), "%s", err)
		}
		e.w.WriteUvarint(u)
		return nil
	case spec.PrimFloat:
		f, err := toFloat(v)
		if err != nil {
			return core.NewCustomError(e.w.Len(), "%s", err)
		}
		return e.w.WriteFloat(f, p.Width, p.Little)
	case spec.PrimBool:
		b, err := toBool(v)
		if err != nil {
			return core.NewCustomError(e.w.Len(), "%s", err)
		}
		e.w.WriteBool(b)
		return nil
	case spec.PrimVoid:
		return nil
	default:
		return core.NewCustomError(e.w.Len(), "unsupported primitive %q", p.Name)
	}
}

// lengthWriter adapts an integer primitive into the core length-prefix
// callback. Range violations surface inside the underlying write.
func lengthWriter(p spec.Primitive) core.WriteLengthFunc {
	return func(w *core.Writer, n uint64) *core.DeserializeError {
		switch p.Kind {
		case spec.PrimVarint:
			w.WriteUvarint(n)
			return nil
		case spec.PrimInt:
			return w.WriteInt(int64(n), p.Width, p.Little)
		default:
			return w.WriteUint(n, p.Width, p.Little)
		}
	}
}

func (e *encoder) writeBuffer(o *codegen.WriteBuffer) *core.DeserializeError {
	v, err := e.slot(o.Src)
	if err != nil {
		return err
	}
	b, cerr := toBytes(v)
	if cerr != nil {
		return core.NewCustomError(e.w.Len(), "%s", cerr)
	}

	switch o.Length.Kind {
	case syntax.LengthFixed:
		if len(b) != o.Length.Fixed {
			return core.NewCustomError(e.w.Len(), "buffer is %d byte(s), declared %d", len(b), o.Length.Fixed)
		}
	case syntax.LengthPrefixed:
		return e.w.WriteLengthPrefixedBytes(b, lengthWriter(o.Length.Prefix))
	case syntax.LengthField:
		if err := e.checkFieldCount(o.Length.FieldRef, len(b)); err != nil {
			return err
		}
	}
	e.w.WriteBytes(b)
	return nil
}

func (e *encoder) writeBits(fields []syntax.BitField) *core.DeserializeError {
	values := make([]uint64, len(fields))
	for i, f := range fields {
		v, err := e.slot(f.Name)
		if err != nil {
			return err
		}
		if f.Signed {
			n, cerr := toInt(v)
			if cerr != nil {
				return core.NewCustomError(e.w.Len(), "%s", cerr)
			}
			min := int64(-1) << uint(f.Bits-1)
			max := int64(1)<<uint(f.Bits-1) - 1
			if n < min || n > max {
				return core.NewCustomError(e.w.Len(), "value %d does not fit in %d signed bit(s) for %q", n, f.Bits, f.Name)
			}
			values[i] = core.MaskBits(n, f.Bits)
		} else {
			u, cerr := toUint(v)
			if cerr != nil {
				return core.NewCustomError(e.w.Len(), "%s", cerr)
			}
			values[i] = u
		}
	}
	return e.w.WriteBitFields(bitSpecs(fields), values)
}

func (e *encoder) writeArray(o *codegen.WriteArray) *core.DeserializeError {
	v, err := e.slot(o.Src)
	if err != nil {
		return err
	}
	elems, cerr := toSlice(v)
	if cerr != nil {
		return core.NewCustomError(e.w.Len(), "%s", cerr)
	}

	switch o.Length.Kind {
	case syntax.LengthFixed:
		if len(elems) != o.Length.Fixed {
			return core.NewCustomError(e.w.Len(), "array has %d element(s), declared %d", len(elems), o.Length.Fixed)
		}
	case syntax.LengthPrefixed:
		if err := lengthWriter(o.Length.Prefix)(e.w, uint64(len(elems))); err != nil {
			return err
		}
	case syntax.LengthField:
		if err := e.checkFieldCount(o.Length.FieldRef, len(elems)); err != nil {
			return err
		}
	}

	for _, elem := range elems {
		e.frames.push(map[string]any{"elem": elem})
		err := e.exec(o.Body)
		e.frames.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeMatch(o *codegen.WriteMatch) *core.DeserializeError {
	disc, err := e.lookupInt(o.On)
	if err != nil {
		return err
	}
	for _, c := range o.Cases {
		if c.Value == disc {
			return e.exec(c.Body)
		}
	}
	if o.Default != nil {
		return e.exec(o.Default)
	}
	return &core.DeserializeError{
		Kind:    core.InvalidDiscriminant,
		Message: "no case matches discriminant " + itoa(disc),
		Offset:  e.w.Len(),
	}
}

func (e *encoder) mapEncode(o *codegen.MapEncode) *core.DeserializeError {
	v, err := e.slot(o.Src)
	if err != nil {
		return err
	}
	name, cerr := toString(v)
	if cerr != nil {
		return core.NewCustomError(e.w.Len(), "%s", cerr)
	}
	for _, entry := range o.Entries {
		if entry.Name == name {
			return e.writePrim(o.Underlying, entry.Code)
		}
	}
	return core.NewCustomError(e.w.Len(), "no mapping for name %q", name)
}

// checkFieldCount verifies a field-referenced length against the actual
// element count. The referenced field is encoded separately by its own op,
// so an inconsistent caller value is rejected rather than silently
// producing an undecodable stream.
func (e *encoder) checkFieldCount(fieldRef string, actual int) *core.DeserializeError {
	declared, err := e.lookupInt(fieldRef)
	if err != nil {
		return err
	}
	if declared != int64(actual) {
		return core.NewCustomError(e.w.Len(), "field %q declares %d element(s), got %d", fieldRef, declared, actual)
	}
	return nil
}

func (e *encoder) slot(name string) (any, *core.DeserializeError) {
	v, ok := e.frames.lookup(name)
	if !ok {
		return nil, core.NewCustomError(e.w.Len(), "no value for %q", name)
	}
	return v, nil
}

func (e *encoder) lookupInt(name string) (int64, *core.DeserializeError) {
	v, err := e.slot(name)
	if err != nil {
		return 0, err
	}
	n, cerr := toInt(v)
	if cerr != nil {
		return 0, core.NewCustomError(e.w.Len(), "%s", cerr)
	}
	return n, nil
}
