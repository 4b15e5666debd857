package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteUint_RoundTrip tests encode/decode symmetry across widths and
// byte orders.
func TestWriteUint_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		value  uint64
		width  int
		little bool
	}{
		{"u8", 0xff, 1, false},
		{"u16 big", 0x0102, 2, false},
		{"u16 little", 0x0102, 2, true},
		{"u32 big", 1 << 24, 4, false},
		{"u64 little", 1<<40 + 7, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			require.Nil(t, w.WriteUint(tt.value, tt.width, tt.little))
			assert.Equal(t, tt.width, w.Len())

			r := NewReader(w.Bytes())
			got, err := r.ReadUint(tt.width, tt.little)
			require.Nil(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

// TestWriteUint_Range tests that values wider than the declared width are
// rejected instead of silently truncated.
func TestWriteUint_Range(t *testing.T) {
	w := NewWriter()
	err := w.WriteUint(256, 1, false)
	require.NotNil(t, err)
	assert.Equal(t, Custom, err.Kind)
	assert.Equal(t, 0, w.Len(), "failed write must not emit bytes")
}

// TestWriteInt tests signed encoding, including both range bounds.
func TestWriteInt(t *testing.T) {
	w := NewWriter()
	require.Nil(t, w.WriteInt(-1, 1, false))
	assert.Equal(t, []byte{0xff}, w.Bytes())

	require.NotNil(t, w.WriteInt(128, 1, false))
	require.NotNil(t, w.WriteInt(-129, 1, false))
	require.Nil(t, w.WriteInt(-128, 1, false))

	r := NewReader(w.Bytes())
	v, err := r.ReadInt(1, false)
	require.Nil(t, err)
	assert.Equal(t, int64(-1), v)
	v, err = r.ReadInt(1, false)
	require.Nil(t, err)
	assert.Equal(t, int64(-128), v)
}

// TestWriteUvarint tests LEB128 encoding against known byte sequences.
func TestWriteUvarint(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteUvarint(tt.value)
		assert.Equal(t, tt.want, w.Bytes(), "value %d", tt.value)

		r := NewReader(w.Bytes())
		got, err := r.ReadUvarint()
		require.Nil(t, err)
		assert.Equal(t, tt.value, got)
	}
}

// TestWriteFloat_RoundTrip tests IEEE 754 round trips at both widths.
func TestWriteFloat_RoundTrip(t *testing.T) {
	w := NewWriter()
	require.Nil(t, w.WriteFloat(1.5, 4, false))
	require.Nil(t, w.WriteFloat(-2.25, 8, true))

	r := NewReader(w.Bytes())
	f, err := r.ReadFloat(4, false)
	require.Nil(t, err)
	assert.Equal(t, 1.5, f)
	f, err = r.ReadFloat(8, true)
	require.Nil(t, err)
	assert.Equal(t, -2.25, f)
}

// TestWriteLengthPrefixedString tests that a string too long for its
// length type fails inside the prefix write.
func TestWriteLengthPrefixedString(t *testing.T) {
	writeU8 := func(w *Writer, n uint64) *DeserializeError {
		return w.WriteUint(n, 1, false)
	}

	w := NewWriter()
	require.Nil(t, w.WriteLengthPrefixedString("abc", writeU8, EncodingUTF8))
	assert.Equal(t, []byte{0x03, 'a', 'b', 'c'}, w.Bytes())

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	w = NewWriter()
	err := w.WriteLengthPrefixedString(string(long), writeU8, EncodingUTF8)
	require.NotNil(t, err)
	assert.Equal(t, Custom, err.Kind)
}
