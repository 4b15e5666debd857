package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
)

func parseJSON(t *testing.T, doc string) (*Protocol, *diag.Diagnostics) {
	t.Helper()
	v, err := spec.DecodeJSON([]byte(doc))
	require.NoError(t, err)
	ds := &diag.Diagnostics{}
	return Parse(v, spec.DefaultProfile(), ds), ds
}

func codes(ds *diag.Diagnostics) []diag.Code {
	var out []diag.Code
	for _, d := range ds.All() {
		out = append(out, d.Code)
	}
	return out
}

// TestParse_Container tests the happy path for a container definition.
func TestParse_Container(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"packet": ["container", [
				{"name": "id", "type": "u8"},
				{"name": "name", "type": ["pstring", {"countType": "u16"}]}
			]]
		}
	}`)

	assert.Equal(t, 0, ds.Len())
	require.Equal(t, 1, proto.Len())

	ty, ok := proto.Lookup("packet")
	require.True(t, ok)
	c, ok := ty.(*Container)
	require.True(t, ok)
	require.Len(t, c.Fields, 2)

	assert.Equal(t, "id", c.Fields[0].Name)
	prim, ok := c.Fields[0].Type.(*Primitive)
	require.True(t, ok)
	assert.Equal(t, spec.PrimUint, prim.Prim.Kind)
	assert.Equal(t, 1, prim.Prim.Width)

	ps, ok := c.Fields[1].Type.(*PString)
	require.True(t, ok)
	assert.Equal(t, core.EncodingUTF8, ps.Encoding)
	count, ok := ps.Count.(*Primitive)
	require.True(t, ok)
	assert.Equal(t, 2, count.Prim.Width)
}

// TestParse_Native tests "native" definitions against the profile table.
func TestParse_Native(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"u16": "native",
			"restBuffer": "native",
			"hyperloop": "native"
		}
	}`)

	// Unknown native is a warning, not an error.
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, diag.Warning, ds.All()[0].Severity)
	assert.False(t, ds.HasErrors())

	ty, _ := proto.Lookup("u16")
	assert.IsType(t, &Primitive{}, ty)

	ty, _ = proto.Lookup("restBuffer")
	buf, ok := ty.(*Buffer)
	require.True(t, ok)
	assert.Equal(t, LengthRest, buf.Length.Kind)

	ty, _ = proto.Lookup("hyperloop")
	assert.IsType(t, &Invalid{}, ty)
}

// TestParse_UnknownName keeps unrecognized references raw for the
// resolver.
func TestParse_UnknownName(t *testing.T) {
	proto, ds := parseJSON(t, `{"types": {"alias": "something_else"}}`)

	assert.Equal(t, 0, ds.Len())
	ty, _ := proto.Lookup("alias")
	named, ok := ty.(*Named)
	require.True(t, ok)
	assert.Equal(t, "something_else", named.Name)
}

// TestParse_UnknownTag tests the unrecognized kind tag diagnostic.
func TestParse_UnknownTag(t *testing.T) {
	proto, ds := parseJSON(t, `{"types": {"x": ["tuple", []]}}`)

	assert.Contains(t, codes(ds), diag.UnknownKindTag)
	ty, _ := proto.Lookup("x")
	assert.IsType(t, &Invalid{}, ty)
}

// TestParse_DuplicateFields tests that duplicates are reported with the
// container's location and parsing continues.
func TestParse_DuplicateFields(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"p": ["container", [
				{"name": "x", "type": "u8"},
				{"name": "x", "type": "u16"}
			]]
		}
	}`)

	require.True(t, ds.HasErrors())
	d := ds.All()[0]
	assert.Equal(t, diag.DuplicateFieldName, d.Code)
	assert.Equal(t, "types.p", d.Path)

	// Both fields are still present in declaration order.
	ty, _ := proto.Lookup("p")
	assert.Len(t, ty.(*Container).Fields, 2)
}

// TestParse_AnonFields tests deterministic synthesized names.
func TestParse_AnonFields(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"p": ["container", [
				{"anon": true, "type": "u8"},
				{"name": "mid", "type": "u8"},
				{"anon": true, "type": "u8"}
			]]
		}
	}`)

	assert.Equal(t, 0, ds.Len())
	c := mustContainer(t, proto, "p")
	assert.Equal(t, "anon0", c.Fields[0].Name)
	assert.True(t, c.Fields[0].Anon)
	assert.Equal(t, "mid", c.Fields[1].Name)
	assert.Equal(t, "anon1", c.Fields[2].Name)
}

// TestParse_Presence tests the when-predicate, including the
// forward-reference rejection.
func TestParse_Presence(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"p": ["container", [
				{"name": "has_id", "type": "bool"},
				{"name": "id", "type": "u32", "when": {"compareTo": "has_id", "equals": 1}}
			]]
		}
	}`)

	assert.Equal(t, 0, ds.Len())
	c := mustContainer(t, proto, "p")
	require.NotNil(t, c.Fields[1].When)
	assert.Equal(t, "has_id", c.Fields[1].When.CompareTo)
	assert.Equal(t, int64(1), c.Fields[1].When.Equals)

	proto, ds = parseJSON(t, `{
		"types": {
			"p": ["container", [
				{"name": "id", "type": "u32", "when": {"compareTo": "later", "equals": 1}},
				{"name": "later", "type": "bool"}
			]]
		}
	}`)

	assert.True(t, ds.HasErrors())
	c = mustContainer(t, proto, "p")
	assert.Nil(t, c.Fields[0].When, "forward-referencing predicate is dropped")
}

// TestParse_Switch tests case key parsing (decimal, hex, negative) and
// duplicate detection.
func TestParse_Switch(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"s": ["switch", {
				"compareTo": "kind",
				"fields": {
					"0": "u8",
					"0x10": "u16",
					"-1": "void"
				},
				"default": "restBuffer"
			}]
		}
	}`)

	assert.Equal(t, 0, ds.Len())
	ty, _ := proto.Lookup("s")
	s, ok := ty.(*Switch)
	require.True(t, ok)
	assert.Equal(t, "kind", s.CompareTo)
	require.Len(t, s.Cases, 3)
	assert.Equal(t, int64(0), s.Cases[0].Value)
	assert.Equal(t, int64(16), s.Cases[1].Value)
	assert.Equal(t, int64(-1), s.Cases[2].Value)
	assert.NotNil(t, s.Default)

	// 0x10 and 16 collide after parsing.
	_, ds = parseJSON(t, `{
		"types": {
			"s": ["switch", {
				"compareTo": "kind",
				"fields": {"16": "u8", "0x10": "u16"}
			}]
		}
	}`)
	assert.Contains(t, codes(ds), diag.DuplicateSwitchCase)
}

// TestParse_BitFields tests width validation and byte alignment.
func TestParse_BitFields(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"flags": ["bitfield", [
				{"name": "a", "size": 1},
				{"name": "b", "size": 1, "signed": true},
				{"name": "reserved", "size": 6}
			]]
		}
	}`)

	assert.Equal(t, 0, ds.Len())
	ty, _ := proto.Lookup("flags")
	b, ok := ty.(*BitFields)
	require.True(t, ok)
	assert.Equal(t, 8, b.TotalBits)
	assert.True(t, b.Fields[1].Signed)

	_, ds = parseJSON(t, `{
		"types": {
			"bad": ["bitfield", [
				{"name": "a", "size": 3}
			]]
		}
	}`)
	assert.Contains(t, codes(ds), diag.InvalidBitfieldWidth)

	_, ds = parseJSON(t, `{
		"types": {
			"bad": ["bitfield", [
				{"name": "a", "size": 0},
				{"name": "b", "size": 65}
			]]
		}
	}`)
	assert.Equal(t, []diag.Code{diag.InvalidBitfieldWidth, diag.InvalidBitfieldWidth}, codes(ds))
}

// TestParse_LengthPolicies tests the four array/buffer length forms.
func TestParse_LengthPolicies(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"fixed": ["array", {"type": "u8", "count": 4}],
			"prefixed": ["array", {"type": "u8", "countType": "varint"}],
			"sibling": ["buffer", {"count": "len"}],
			"tail": ["buffer", {"rest": true}]
		}
	}`)

	assert.Equal(t, 0, ds.Len())

	arr := mustArray(t, proto, "fixed")
	assert.Equal(t, LengthFixed, arr.Length.Kind)
	assert.Equal(t, 4, arr.Length.Fixed)

	arr = mustArray(t, proto, "prefixed")
	assert.Equal(t, LengthPrefixed, arr.Length.Kind)

	ty, _ := proto.Lookup("sibling")
	buf := ty.(*Buffer)
	assert.Equal(t, LengthField, buf.Length.Kind)
	assert.Equal(t, "len", buf.Length.FieldRef)

	ty, _ = proto.Lookup("tail")
	assert.Equal(t, LengthRest, ty.(*Buffer).Length.Kind)

	_, ds = parseJSON(t, `{"types": {"bad": ["array", {"type": "u8"}]}}`)
	assert.True(t, ds.HasErrors())
}

// TestParse_Mapper tests bidirectional uniqueness of the mapping table.
func TestParse_Mapper(t *testing.T) {
	proto, ds := parseJSON(t, `{
		"types": {
			"state": ["mapper", {
				"type": "varint",
				"mappings": {"0": "idle", "1": "running", "2": "done"}
			}]
		}
	}`)

	assert.Equal(t, 0, ds.Len())
	ty, _ := proto.Lookup("state")
	m, ok := ty.(*Mapper)
	require.True(t, ok)
	require.Len(t, m.Entries, 3)
	assert.Equal(t, "idle", m.Entries[0].Name)

	_, ds = parseJSON(t, `{
		"types": {
			"m": ["mapper", {"type": "u8", "mappings": {"0": "a", "1": "a"}}]
		}
	}`)
	assert.Contains(t, codes(ds), diag.DuplicateFieldName)

	_, ds = parseJSON(t, `{
		"types": {
			"m": ["mapper", {"type": "u8", "mappings": {"1": "a", "0x1": "b"}}]
		}
	}`)
	assert.Contains(t, codes(ds), diag.DuplicateSwitchCase)
}

// TestParse_MalformedDocument tests top-level shape failures.
func TestParse_MalformedDocument(t *testing.T) {
	v, err := spec.DecodeJSON([]byte(`["not", "an", "object"]`))
	require.NoError(t, err)
	ds := &diag.Diagnostics{}
	proto := Parse(v, spec.DefaultProfile(), ds)

	assert.Equal(t, 0, proto.Len())
	assert.True(t, ds.HasErrors())

	// Redefinition of a type name.
	_, ds = parseJSON(t, `{"types": {"x": "u8", "x": "u16"}}`)
	assert.True(t, ds.HasErrors())
}

func mustContainer(t *testing.T, proto *Protocol, name string) *Container {
	t.Helper()
	ty, ok := proto.Lookup(name)
	require.True(t, ok)
	c, ok := ty.(*Container)
	require.True(t, ok)
	return c
}

func mustArray(t *testing.T, proto *Protocol, name string) *Array {
	t.Helper()
	ty, ok := proto.Lookup(name)
	require.True(t, ok)
	arr, ok := ty.(*Array)
	require.True(t, ok)
	return arr
}
