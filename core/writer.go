package core

import (
	"encoding/binary"
	"math"
)

// Writer accumulates an encoding. Encode-time failures are limited to
// caller-supplied invalid values (e.g. a length that does not fit its
// prefix type) and use the same DeserializeError taxonomy as decoding.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteUint appends a fixed-width unsigned integer. The value must fit the
// declared width.
func (w *Writer) WriteUint(v uint64, width int, little bool) *DeserializeError {
	if width < 8 && v >= 1<<(uint(width)*8) {
		return NewCustomError(len(w.buf), "value %d does not fit in %d byte(s)", v, width)
	}
	var scratch [8]byte
	switch width {
	case 1:
		scratch[0] = byte(v)
	case 2:
		if little {
			binary.LittleEndian.PutUint16(scratch[:2], uint16(v))
		} else {
			binary.BigEndian.PutUint16(scratch[:2], uint16(v))
		}
	case 4:
		if little {
			binary.LittleEndian.PutUint32(scratch[:4], uint32(v))
		} else {
			binary.BigEndian.PutUint32(scratch[:4], uint32(v))
		}
	case 8:
		if little {
			binary.LittleEndian.PutUint64(scratch[:8], v)
		} else {
			binary.BigEndian.PutUint64(scratch[:8], v)
		}
	default:
		return NewCustomError(len(w.buf), "unsupported integer width %d", width)
	}
	w.buf = append(w.buf, scratch[:width]...)
	return nil
}

// WriteInt appends a fixed-width signed integer. The value must fit the
// declared width as two's complement.
func (w *Writer) WriteInt(v int64, width int, little bool) *DeserializeError {
	if width < 8 {
		bits := uint(width) * 8
		min := int64(-1) << (bits - 1)
		max := int64(1)<<(bits-1) - 1
		if v < min || v > max {
			return NewCustomError(len(w.buf), "value %d does not fit in %d byte(s)", v, width)
		}
	}
	mask := ^uint64(0)
	if width < 8 {
		mask = 1<<(uint(width)*8) - 1
	}
	return w.WriteUint(uint64(v)&mask, width, little)
}

// WriteBool appends one byte: 1 for true, 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteFloat appends an IEEE 754 float of 4 or 8 bytes.
func (w *Writer) WriteFloat(v float64, width int, little bool) *DeserializeError {
	switch width {
	case 4:
		return w.WriteUint(uint64(math.Float32bits(float32(v))), 4, little)
	case 8:
		return w.WriteUint(math.Float64bits(v), 8, little)
	default:
		return NewCustomError(len(w.buf), "unsupported float width %d", width)
	}
}

// WriteUvarint appends an unsigned LEB128 varint.
func (w *Writer) WriteUvarint(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteLengthFunc writes a length prefix. Generated code supplies one per
// length type, mirroring LengthFunc on the read side.
type WriteLengthFunc func(w *Writer, n uint64) *DeserializeError

// WriteLengthPrefixedString encodes s as enc, writes its byte length via
// writeLen, then the payload. A string too long for its length type fails
// inside writeLen.
func (w *Writer) WriteLengthPrefixedString(s string, writeLen WriteLengthFunc, enc TextEncoding) *DeserializeError {
	payload, err := EncodeText(s, enc)
	if err != nil {
		return err
	}
	if err := writeLen(w, uint64(len(payload))); err != nil {
		return err
	}
	w.WriteBytes(payload)
	return nil
}

// WriteLengthPrefixedBytes writes the length of b via writeLen, then b.
func (w *Writer) WriteLengthPrefixedBytes(b []byte, writeLen WriteLengthFunc) *DeserializeError {
	if err := writeLen(w, uint64(len(b))); err != nil {
		return err
	}
	w.WriteBytes(b)
	return nil
}
