package core

// BitFieldSpec is one ordered bit-width sub-field of a packed group.
type BitFieldSpec struct {
	Name   string
	Bits   int
	Signed bool
}

func totalBits(fields []BitFieldSpec) int {
	total := 0
	for _, f := range fields {
		total += f.Bits
	}
	return total
}

// ReadBitFields reads a packed group described by the ordered spec and
// returns the raw sub-field values in declaration order. Sub-fields pack
// MSB-first; use SignExtend on entries whose spec is Signed. The group's
// total width must be a multiple of 8 (the compiler enforces this; a
// malformed spec fails with a Custom error here).
func (r *Reader) ReadBitFields(fields []BitFieldSpec) ([]uint64, *DeserializeError) {
	total := totalBits(fields)
	if total%8 != 0 {
		return nil, NewCustomError(r.pos, "bitfield group is %d bits, not byte-aligned", total)
	}

	raw, err := r.take(total / 8)
	if err != nil {
		return nil, err
	}

	values := make([]uint64, len(fields))
	bitPos := 0
	for i, f := range fields {
		var v uint64
		for n := 0; n < f.Bits; n++ {
			byteIdx := bitPos / 8
			// MSB-first within each byte.
			bit := (raw[byteIdx] >> (7 - uint(bitPos%8))) & 1
			v = v<<1 | uint64(bit)
			bitPos++
		}
		values[i] = v
	}
	return values, nil
}

// WriteBitFields packs the sub-field values MSB-first and appends the
// group. Each value must fit its declared width; signed values are masked
// to their two's-complement representation by the caller via MaskBits.
func (w *Writer) WriteBitFields(fields []BitFieldSpec, values []uint64) *DeserializeError {
	if len(values) != len(fields) {
		return NewCustomError(len(w.buf), "bitfield group wants %d value(s), got %d", len(fields), len(values))
	}
	total := totalBits(fields)
	if total%8 != 0 {
		return NewCustomError(len(w.buf), "bitfield group is %d bits, not byte-aligned", total)
	}

	out := make([]byte, total/8)
	bitPos := 0
	for i, f := range fields {
		v := values[i]
		if f.Bits < 64 && v >= 1<<uint(f.Bits) {
			return NewCustomError(len(w.buf), "value %d does not fit in %d bit(s) for %q", v, f.Bits, f.Name)
		}
		for n := f.Bits - 1; n >= 0; n-- {
			bit := byte(v>>uint(n)) & 1
			byteIdx := bitPos / 8
			out[byteIdx] |= bit << (7 - uint(bitPos%8))
			bitPos++
		}
	}
	w.WriteBytes(out)
	return nil
}

// MaskBits truncates a signed value to the low bits of its width, giving
// the raw representation WriteBitFields expects.
func MaskBits(v int64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return uint64(v)
	}
	return uint64(v) & (1<<uint(bits) - 1)
}
