package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DefaultMaxDepth bounds nested struct/switch decoding. Exceeding it fails
// with RecursionLimitExceeded instead of risking unbounded stack growth on
// adversarial input.
const DefaultMaxDepth = 64

// maxVarintBytes is the longest accepted LEB128 encoding (uint64).
const maxVarintBytes = 10

// Reader is a sequential byte cursor over a single in-flight decode. It is
// owned exclusively by the call in progress; no locking, no suspension.
type Reader struct {
	buf      []byte
	pos      int
	depth    int
	maxDepth int
}

// NewReader returns a cursor over buf with the default recursion limit.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth overrides the recursion limit for subsequent Descend calls.
func (r *Reader) SetMaxDepth(n int) { r.maxDepth = n }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// take consumes exactly n bytes or fails with UnexpectedEof, leaving the
// cursor untouched on failure.
func (r *Reader) take(n int) ([]byte, *DeserializeError) {
	if r.Remaining() < n {
		return nil, errEOF(r.pos, uint64(n), r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Descend enters one level of nested decoding. Every generated decode
// procedure brackets nested type calls with Descend/Ascend.
func (r *Reader) Descend() *DeserializeError {
	if r.depth >= r.maxDepth {
		return &DeserializeError{
			Kind:    RecursionLimitExceeded,
			Message: "nested decoding exceeded depth limit",
			Offset:  r.pos,
		}
	}
	r.depth++
	return nil
}

// Ascend leaves one level of nested decoding.
func (r *Reader) Ascend() {
	if r.depth > 0 {
		r.depth--
	}
}

// ExpectEOF fails with TrailingData unless the cursor consumed the whole
// input.
func (r *Reader) ExpectEOF() *DeserializeError {
	if rem := r.Remaining(); rem > 0 {
		return &DeserializeError{
			Kind:    TrailingData,
			Message: "unconsumed input after decode",
			Offset:  r.pos,
		}
	}
	return nil
}

// ReadUint reads a fixed-width unsigned integer of 1, 2, 4 or 8 bytes.
func (r *Reader) ReadUint(width int, little bool) (uint64, *DeserializeError) {
	b, err := r.take(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		if little {
			return uint64(binary.LittleEndian.Uint16(b)), nil
		}
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		if little {
			return uint64(binary.LittleEndian.Uint32(b)), nil
		}
		return uint64(binary.BigEndian.Uint32(b)), nil
	case 8:
		if little {
			return binary.LittleEndian.Uint64(b), nil
		}
		return binary.BigEndian.Uint64(b), nil
	default:
		return 0, NewCustomError(r.pos, "unsupported integer width %d", width)
	}
}

// ReadInt reads a fixed-width signed integer, sign-extending to int64.
func (r *Reader) ReadInt(width int, little bool) (int64, *DeserializeError) {
	u, err := r.ReadUint(width, little)
	if err != nil {
		return 0, err
	}
	return SignExtend(u, width*8), nil
}

// ReadBool reads one byte; any nonzero value is true.
func (r *Reader) ReadBool() (bool, *DeserializeError) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadFloat reads an IEEE 754 float of 4 or 8 bytes.
func (r *Reader) ReadFloat(width int, little bool) (float64, *DeserializeError) {
	u, err := r.ReadUint(width, little)
	if err != nil {
		return 0, err
	}
	switch width {
	case 4:
		return float64(math.Float32frombits(uint32(u))), nil
	case 8:
		return math.Float64frombits(u), nil
	default:
		return 0, NewCustomError(r.pos, "unsupported float width %d", width)
	}
}

// ReadUvarint reads an unsigned LEB128 varint of at most 10 bytes.
func (r *Reader) ReadUvarint() (uint64, *DeserializeError) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		v |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
	return 0, NewCustomError(r.pos, "varint longer than %d bytes", maxVarintBytes)
}

// ReadBytes consumes exactly n bytes and returns a copy.
func (r *Reader) ReadBytes(n int) ([]byte, *DeserializeError) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadRest consumes all remaining bytes.
func (r *Reader) ReadRest() []byte {
	b, _ := r.take(r.Remaining())
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// LengthFunc reads a length prefix from the cursor. Generated code supplies
// one per length type (e.g. a u16 read or a varint read).
type LengthFunc func(r *Reader) (uint64, *DeserializeError)

// GuardLen validates a declared length against the remaining input before
// any allocation happens. Adversarial lengths fail here as UnexpectedEof.
func (r *Reader) GuardLen(n uint64) *DeserializeError {
	if n > uint64(r.Remaining()) {
		return errEOF(r.pos, n, r.Remaining())
	}
	return nil
}

// GuardCount validates a declared element count against the remaining
// input before any allocation happens, given the minimum encoded size of
// one element. The comparison divides rather than multiplies so a huge
// count cannot wrap it. A zero minimum verifies nothing; callers must
// still bound their own allocations by Remaining.
func (r *Reader) GuardCount(count, minElemSize uint64) *DeserializeError {
	if minElemSize == 0 {
		return nil
	}
	if count > uint64(r.Remaining())/minElemSize {
		return &DeserializeError{
			Kind:    UnexpectedEof,
			Message: fmt.Sprintf("%d element(s) of at least %d byte(s) each exceed the %d remaining", count, minElemSize, r.Remaining()),
			Offset:  r.pos,
		}
	}
	return nil
}

// ReadLengthPrefixedString reads a length via readLen, guards it against
// the remaining input, then decodes that many payload bytes as enc.
func (r *Reader) ReadLengthPrefixedString(readLen LengthFunc, enc TextEncoding) (string, *DeserializeError) {
	n, err := readLen(r)
	if err != nil {
		return "", err
	}
	if err := r.GuardLen(n); err != nil {
		return "", err
	}
	start := r.pos
	payload, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return DecodeText(payload, enc, start)
}

// ReadLengthPrefixedBytes reads a length via readLen, guards it, and
// returns that many raw bytes.
func (r *Reader) ReadLengthPrefixedBytes(readLen LengthFunc) ([]byte, *DeserializeError) {
	n, err := readLen(r)
	if err != nil {
		return nil, err
	}
	if err := r.GuardLen(n); err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// SignExtend interprets the low bits of u as a two's-complement signed
// value of the given bit width.
func SignExtend(u uint64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return int64(u)
	}
	shift := 64 - uint(bits)
	return int64(u<<shift) >> shift
}
