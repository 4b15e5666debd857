package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

func u8() syntax.Type {
	return &syntax.Primitive{Prim: spec.Primitive{Name: "u8", Kind: spec.PrimUint, Width: 1}}
}

// record builds a single-field container referencing the named types.
func record(refs ...string) syntax.Type {
	c := &syntax.Container{}
	for _, ref := range refs {
		c.Fields = append(c.Fields, syntax.Field{
			Name: ref + "_field",
			Type: &syntax.Named{Name: ref},
		})
	}
	return c
}

// listOf builds a varint-prefixed array of the named type.
func listOf(ref string) syntax.Type {
	return &syntax.Array{
		Elem: &syntax.Named{Name: ref},
		Length: syntax.Length{
			Kind:   syntax.LengthPrefixed,
			Prefix: &syntax.Primitive{Prim: spec.Primitive{Name: "varint", Kind: spec.PrimVarint}},
		},
	}
}

func orderNames(res *Resolution) [][]string {
	var out [][]string
	for _, g := range res.Order {
		out = append(out, g.Names)
	}
	return out
}

// TestResolve_DependenciesFirst tests that the lowering order emits a
// type's dependencies before the type itself.
func TestResolve_DependenciesFirst(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("outer", record("inner"))
	proto.Define("inner", record("leaf"))
	proto.Define("leaf", u8())

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, [][]string{{"leaf"}, {"inner"}, {"outer"}}, orderNames(res))
	for _, name := range proto.Names() {
		assert.True(t, res.Resolved(name), name)
	}
}

// TestResolve_DeclarationOrder tests that independent types keep their
// declaration order, making the output deterministic.
func TestResolve_DeclarationOrder(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("zebra", u8())
	proto.Define("alpha", u8())
	proto.Define("mango", u8())

	res := Resolve(proto, &diag.Diagnostics{})
	assert.Equal(t, [][]string{{"zebra"}, {"alpha"}, {"mango"}}, orderNames(res))
}

// TestResolve_UnknownReference tests the undefined-name diagnostic and its
// propagation to dependents.
func TestResolve_UnknownReference(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("broken", record("ghost"))
	proto.Define("dependent", record("broken"))
	proto.Define("standalone", u8())

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	require.True(t, ds.HasErrors())
	assert.Equal(t, diag.UnknownTypeReference, ds.All()[0].Code)
	assert.Equal(t, "types.broken", ds.All()[0].Path)

	assert.False(t, res.Resolved("broken"))
	assert.False(t, res.Resolved("dependent"), "failure propagates to dependents")
	assert.True(t, res.Resolved("standalone"), "independent types still resolve")

	assert.Equal(t, [][]string{{"standalone"}}, orderNames(res))
}

// TestResolve_DirectCycle tests that a cycle with no indirection point is
// fatal for every member.
func TestResolve_DirectCycle(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("a", record("b"))
	proto.Define("b", record("a"))

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	require.Equal(t, 2, ds.ErrorCount())
	for _, d := range ds.All() {
		assert.Equal(t, diag.CyclicTypeWithoutIndirection, d.Code)
	}
	assert.False(t, res.Resolved("a"))
	assert.False(t, res.Resolved("b"))
	assert.Empty(t, res.Order)
}

// TestResolve_SelfLoop tests the single-type direct cycle.
func TestResolve_SelfLoop(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("ouroboros", record("ouroboros"))

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	require.Equal(t, 1, ds.ErrorCount())
	assert.Equal(t, diag.CyclicTypeWithoutIndirection, ds.All()[0].Code)
	assert.False(t, res.Resolved("ouroboros"))
}

// TestResolve_IndirectCycle tests that an array element is a legal
// indirection point: the cycle compiles as one cyclic group.
func TestResolve_IndirectCycle(t *testing.T) {
	proto := syntax.NewProtocol()
	node := &syntax.Container{Fields: []syntax.Field{
		{Name: "value", Type: u8()},
		{Name: "children", Type: listOf("node")},
	}}
	proto.Define("node", node)

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	assert.Equal(t, 0, ds.Len())
	assert.True(t, res.Resolved("node"))
	require.Len(t, res.Order, 1)
	assert.True(t, res.Order[0].Cyclic)
	assert.Equal(t, []string{"node"}, res.Order[0].Names)
}

// TestResolve_MutualIndirectCycle tests a two-type cycle broken by an
// array edge: both members lower together as a cyclic group.
func TestResolve_MutualIndirectCycle(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("tree", record("branch"))
	branch := &syntax.Container{Fields: []syntax.Field{
		{Name: "subtrees", Type: listOf("tree")},
	}}
	proto.Define("branch", branch)

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	assert.Equal(t, 0, ds.Len())
	require.Len(t, res.Order, 1)
	group := res.Order[0]
	assert.True(t, group.Cyclic)
	assert.ElementsMatch(t, []string{"tree", "branch"}, group.Names)
}

// TestResolve_InvalidType tests that parse-failed types are skipped
// without fresh diagnostics.
func TestResolve_InvalidType(t *testing.T) {
	proto := syntax.NewProtocol()
	proto.Define("broken", &syntax.Invalid{})
	proto.Define("ok", u8())

	ds := &diag.Diagnostics{}
	res := Resolve(proto, ds)

	assert.Equal(t, 0, ds.Len(), "parse already reported the problem")
	assert.False(t, res.Resolved("broken"))
	assert.True(t, res.Resolved("ok"))
}
