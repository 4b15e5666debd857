package interp

import (
	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/codegen"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

type decoder struct {
	codec  *Codec
	r      *core.Reader
	frames frames
}

func (d *decoder) runDecl(decl *codegen.Decl) (any, *core.DeserializeError) {
	d.frames.push(nil)
	if err := d.exec(decl.Decode.Ops); err != nil {
		d.frames.pop()
		return nil, err
	}
	return declResult(decl, d.frames.pop()), nil
}

func (d *decoder) exec(ops []codegen.Op) *core.DeserializeError {
	for _, op := range ops {
		if err := d.execOp(op); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) execOp(op codegen.Op) *core.DeserializeError {
	switch o := op.(type) {
	case *codegen.ReadPrim:
		v, err := d.readPrim(o.Prim)
		if err != nil {
			return err
		}
		d.frames.set(o.Dst, v)
		return nil

	case *codegen.ReadString:
		s, err := d.r.ReadLengthPrefixedString(lengthReader(o.Count), o.Encoding)
		if err != nil {
			return err
		}
		d.frames.set(o.Dst, s)
		return nil

	case *codegen.ReadBuffer:
		b, err := d.readBuffer(o.Length)
		if err != nil {
			return err
		}
		d.frames.set(o.Dst, b)
		return nil

	case *codegen.ReadBits:
		return d.readBits(o.Fields)

	case *codegen.ReadArray:
		return d.readArray(o)

	case *codegen.ReadMatch:
		return d.readMatch(o)

	case *codegen.MapDecode:
		return d.mapDecode(o)

	case *codegen.Call:
		decl, ok := d.codec.decls[o.Type]
		if !ok {
			return core.NewCustomError(d.r.Offset(), "no codec for type %q", o.Type)
		}
		if err := d.r.Descend(); err != nil {
			return err
		}
		v, err := d.runDecl(decl)
		d.r.Ascend()
		if err != nil {
			return err
		}
		d.frames.set(o.Slot, v)
		return nil

	case *codegen.Cond:
		v, err := d.lookupInt(o.Pred.CompareTo)
		if err != nil {
			return err
		}
		if v != o.Pred.Equals {
			return nil
		}
		return d.exec(o.Body)

	default:
		return core.NewCustomError(d.r.Offset(), "unsupported decode op %T", op)
	}
}

func (d *decoder) readPrim(p spec.Primitive) (any, *core.DeserializeError) {
	switch p.Kind {
	case spec.PrimUint:
		return d.r.ReadUint(p.Width, p.Little)
	case spec.PrimInt:
		return d.r.ReadInt(p.Width, p.Little)
	case spec.PrimVarint:
		return d.r.ReadUvarint()
	case spec.PrimFloat:
		return d.r.ReadFloat(p.Width, p.Little)
	case spec.PrimBool:
		return d.r.ReadBool()
	case spec.PrimVoid:
		return nil, nil
	default:
		return nil, core.NewCustomError(d.r.Offset(), "unsupported primitive %q", p.Name)
	}
}

// lengthReader adapts an integer primitive into the core length callback.
func lengthReader(p spec.Primitive) core.LengthFunc {
	return func(r *core.Reader) (uint64, *core.DeserializeError) {
		switch p.Kind {
		case spec.PrimVarint:
			return r.ReadUvarint()
		case spec.PrimInt:
			v, err := r.ReadInt(p.Width, p.Little)
			if err != nil {
				return 0, err
			}
			if v < 0 {
				return 0, core.NewCustomError(r.Offset(), "negative length %d", v)
			}
			return uint64(v), nil
		default:
			return r.ReadUint(p.Width, p.Little)
		}
	}
}

func (d *decoder) readBuffer(l codegen.LengthSpec) ([]byte, *core.DeserializeError) {
	switch l.Kind {
	case syntax.LengthFixed:
		return d.r.ReadBytes(l.Fixed)
	case syntax.LengthPrefixed:
		return d.r.ReadLengthPrefixedBytes(lengthReader(l.Prefix))
	case syntax.LengthField:
		n, err := d.lookupLen(l.FieldRef)
		if err != nil {
			return nil, err
		}
		if err := d.r.GuardLen(n); err != nil {
			return nil, err
		}
		return d.r.ReadBytes(int(n))
	case syntax.LengthRest:
		return d.r.ReadRest(), nil
	default:
		return nil, core.NewCustomError(d.r.Offset(), "unsupported length policy")
	}
}

func (d *decoder) readBits(fields []syntax.BitField) *core.DeserializeError {
	specs := bitSpecs(fields)
	raw, err := d.r.ReadBitFields(specs)
	if err != nil {
		return err
	}
	for i, f := range fields {
		if f.Signed {
			d.frames.set(f.Name, core.SignExtend(raw[i], f.Bits))
		} else {
			d.frames.set(f.Name, raw[i])
		}
	}
	return nil
}

func (d *decoder) readArray(o *codegen.ReadArray) *core.DeserializeError {
	if o.Length.Kind == syntax.LengthRest {
		elems := []any{}
		for d.r.Remaining() > 0 {
			before := d.r.Offset()
			v, err := d.readElem(o.Body)
			if err != nil {
				return err
			}
			if d.r.Offset() == before {
				return core.NewCustomError(d.r.Offset(), "rest array element consumed no input")
			}
			elems = append(elems, v)
		}
		d.frames.set(o.Dst, elems)
		return nil
	}

	var count uint64
	switch o.Length.Kind {
	case syntax.LengthFixed:
		count = uint64(o.Length.Fixed)
	case syntax.LengthPrefixed:
		n, err := lengthReader(o.Length.Prefix)(d.r)
		if err != nil {
			return err
		}
		count = n
	case syntax.LengthField:
		n, err := d.lookupLen(o.Length.FieldRef)
		if err != nil {
			return err
		}
		count = n
	}

	// Validate the declared count against the input before allocating, so
	// an adversarial count cannot force a huge allocation.
	if err := d.r.GuardCount(count, uint64(o.MinElemSize)); err != nil {
		return err
	}

	// Zero-minimum elements (void bodies, nested type calls) leave the
	// count unverifiable up front, so the capacity hint is clamped to the
	// input instead of trusting the declared count.
	capHint := count
	if limit := uint64(d.r.Remaining()) + 1; capHint > limit {
		capHint = limit
	}

	elems := make([]any, 0, capHint)
	for i := uint64(0); i < count; i++ {
		v, err := d.readElem(o.Body)
		if err != nil {
			return err
		}
		elems = append(elems, v)
	}
	d.frames.set(o.Dst, elems)
	return nil
}

// readElem decodes one array element in its own frame so the "elem" slot
// never leaks between iterations, while ancestor fields stay visible.
func (d *decoder) readElem(body []codegen.Op) (any, *core.DeserializeError) {
	d.frames.push(nil)
	if err := d.exec(body); err != nil {
		d.frames.pop()
		return nil, err
	}
	return d.frames.pop()["elem"], nil
}

func (d *decoder) readMatch(o *codegen.ReadMatch) *core.DeserializeError {
	disc, err := d.lookupInt(o.On)
	if err != nil {
		return err
	}
	for _, c := range o.Cases {
		if c.Value == disc {
			return d.exec(c.Body)
		}
	}
	if o.Default != nil {
		return d.exec(o.Default)
	}
	return &core.DeserializeError{
		Kind:    core.InvalidDiscriminant,
		Message: "no case matches discriminant " + itoa(disc),
		Offset:  d.r.Offset(),
	}
}

func (d *decoder) mapDecode(o *codegen.MapDecode) *core.DeserializeError {
	v, err := d.readPrim(o.Underlying)
	if err != nil {
		return err
	}
	code, cerr := toInt(v)
	if cerr != nil {
		return core.NewCustomError(d.r.Offset(), "%s", cerr)
	}
	for _, e := range o.Entries {
		if e.Code == code {
			d.frames.set(o.Dst, e.Name)
			return nil
		}
	}
	return &core.DeserializeError{
		Kind:    core.InvalidDiscriminant,
		Message: "no mapping for code " + itoa(code),
		Offset:  d.r.Offset(),
	}
}

func (d *decoder) lookupInt(name string) (int64, *core.DeserializeError) {
	v, ok := d.frames.lookup(name)
	if !ok {
		return 0, core.NewCustomError(d.r.Offset(), "no decoded value for %q", name)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, core.NewCustomError(d.r.Offset(), "%s", err)
	}
	return n, nil
}

func (d *decoder) lookupLen(name string) (uint64, *core.DeserializeError) {
	n, err := d.lookupInt(name)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, core.NewCustomError(d.r.Offset(), "negative length %d from %q", n, name)
	}
	return uint64(n), nil
}
