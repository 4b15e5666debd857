package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Michael-F-Bryan/protodef/internal/codegen"
	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
)

func compileJSON(t *testing.T, doc string) (*codegen.CompilationUnit, *diag.Diagnostics) {
	t.Helper()
	v, err := spec.DecodeJSON([]byte(doc))
	require.NoError(t, err)
	return Compile(v, Options{})
}

func declNames(unit *codegen.CompilationUnit) []string {
	names := make([]string, len(unit.Decls))
	for i := range unit.Decls {
		names[i] = unit.Decls[i].Name
	}
	return names
}

// TestCompile_EndToEnd runs the whole pipeline over a document touching
// every composite kind.
func TestCompile_EndToEnd(t *testing.T) {
	unit, ds := compileJSON(t, `{
		"types": {
			"slot": ["container", [
				{"name": "present", "type": "bool"},
				{"name": "item_id", "type": "varint", "when": {"compareTo": "present", "equals": 1}}
			]],
			"flags": ["bitfield", [
				{"name": "a", "size": 1},
				{"name": "reserved", "size": 7}
			]],
			"state": ["mapper", {"type": "varint", "mappings": {"0": "idle", "1": "running"}}],
			"packet": ["container", [
				{"name": "kind", "type": "u8"},
				{"name": "body", "type": ["switch", {
					"compareTo": "kind",
					"fields": {"0": "void", "1": "slot"}
				}]},
				{"name": "slots", "type": ["array", {"countType": "varint", "type": "slot"}]}
			]]
		}
	}`)

	assert.False(t, ds.HasErrors(), "%v", ds.All())
	assert.Equal(t,
		[]string{"slot", "flags", "state", "packet_body", "packet"},
		declNames(unit),
		"dependencies first, lifted composites before their parent")
}

// TestCompile_Deterministic tests that two compilations of the same input
// render byte-identically.
func TestCompile_Deterministic(t *testing.T) {
	doc := `{
		"types": {
			"b": ["container", [{"name": "x", "type": "a"}]],
			"a": ["mapper", {"type": "u8", "mappings": {"3": "three", "1": "one"}}]
		}
	}`

	first, ds := compileJSON(t, doc)
	require.False(t, ds.HasErrors())
	second, _ := compileJSON(t, doc)

	assert.Equal(t, codegen.Render(first), codegen.Render(second))
}

// TestCompile_PartialFailure tests that a broken type is excluded with an
// Error diagnostic while the rest of the document still compiles.
func TestCompile_PartialFailure(t *testing.T) {
	unit, ds := compileJSON(t, `{
		"types": {
			"broken": ["container", [{"name": "x", "type": "ghost"}]],
			"ok": ["container", [{"name": "y", "type": "u16"}]]
		}
	}`)

	require.True(t, ds.HasErrors())
	assert.Equal(t, diag.UnknownTypeReference, ds.All()[0].Code)
	assert.Equal(t, []string{"ok"}, declNames(unit))
}

// TestCompile_WarningsOnly tests that an unknown native degrades its own
// type with a Warning but leaves the compilation successful.
func TestCompile_WarningsOnly(t *testing.T) {
	unit, ds := compileJSON(t, `{
		"types": {
			"exotic": "native",
			"ok": "u8"
		}
	}`)

	assert.False(t, ds.HasErrors())
	assert.Greater(t, ds.Len(), 0, "the degraded type is still reported")
	assert.Equal(t, []string{"ok"}, declNames(unit))
}

// TestCompile_CustomProfile tests that a caller-supplied primitive table
// replaces the default one.
func TestCompile_CustomProfile(t *testing.T) {
	v, err := spec.DecodeJSON([]byte(`{"types": {"n": "byte"}}`))
	require.NoError(t, err)

	profile := &spec.Profile{
		BitOrder: "msb",
		Primitives: map[string]spec.Primitive{
			"byte": {Name: "byte", Kind: spec.PrimUint, Width: 1},
		},
	}
	unit, ds := Compile(v, Options{Profile: profile})

	assert.False(t, ds.HasErrors(), "%v", ds.All())
	assert.Equal(t, []string{"n"}, declNames(unit))
}
