package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultProfile tests the built-in primitive table.
func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, "msb", p.BitOrder)

	tests := []struct {
		name   string
		kind   PrimKind
		width  int
		little bool
	}{
		{"varint", PrimVarint, 0, false},
		{"bool", PrimBool, 1, false},
		{"void", PrimVoid, 0, false},
		{"u8", PrimUint, 1, false},
		{"i16", PrimInt, 2, false},
		{"u32", PrimUint, 4, false},
		{"i64", PrimInt, 8, false},
		{"lu16", PrimUint, 2, true},
		{"li32", PrimInt, 4, true},
		{"f32", PrimFloat, 4, false},
		{"lf64", PrimFloat, 8, true},
	}

	for _, tt := range tests {
		prim, ok := p.Lookup(tt.name)
		require.True(t, ok, "primitive %q should exist", tt.name)
		assert.Equal(t, tt.kind, prim.Kind, tt.name)
		assert.Equal(t, tt.width, prim.Width, tt.name)
		assert.Equal(t, tt.little, prim.Little, tt.name)
	}

	_, ok := p.Lookup("u24")
	assert.False(t, ok)
}

// TestLoadProfile tests that a TOML file extends the default table.
func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	doc := `
bit_order = "msb"

[primitives.u16_le]
kind = "uint"
width = 2
byte_order = "little"

[primitives.u8]
kind = "int"
width = 1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	added, ok := p.Lookup("u16_le")
	require.True(t, ok)
	assert.Equal(t, PrimUint, added.Kind)
	assert.Equal(t, 2, added.Width)
	assert.True(t, added.Little)

	// A file entry with a built-in name replaces the default definition.
	replaced, ok := p.Lookup("u8")
	require.True(t, ok)
	assert.Equal(t, PrimInt, replaced.Kind)

	// Untouched defaults survive.
	_, ok = p.Lookup("varint")
	assert.True(t, ok)
}

// TestLoadProfile_Invalid tests validation of bad profile entries.
func TestLoadProfile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "[primitives.x]\nkind = \"decimal\"\nwidth = 4\n"},
		{"bad width", "[primitives.x]\nkind = \"uint\"\nwidth = 3\n"},
		{"bad float width", "[primitives.x]\nkind = \"float\"\nwidth = 2\n"},
		{"bad byte order", "[primitives.x]\nkind = \"uint\"\nwidth = 4\nbyte_order = \"middle\"\n"},
		{"bad bit order", "bit_order = \"lsb\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0644))

			_, err := LoadProfile(path)
			assert.Error(t, err)
		})
	}
}

// TestLoadProfile_Missing tests the unreadable-file path.
func TestLoadProfile_Missing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
