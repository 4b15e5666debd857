package codegen

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// TestRender_Golden locks the canonical rendering of a protocol that
// exercises every declaration shape: structs with optional fields, lifted
// enums, bitfields, mappers, arrays and rest buffers.
//
// To regenerate golden files, run:
//
//	go test ./internal/codegen -update
func TestRender_Golden(t *testing.T) {
	unit, ds := lowerJSON(t, `{
		"types": {
			"slot": ["container", [
				{"name": "present", "type": "bool"},
				{"name": "item_id", "type": "varint", "when": {"compareTo": "present", "equals": 1}}
			]],
			"flags": ["bitfield", [
				{"name": "a", "size": 1},
				{"name": "b", "size": 1, "signed": true},
				{"name": "reserved", "size": 6}
			]],
			"state": ["mapper", {"type": "varint", "mappings": {"0": "idle", "1": "running"}}],
			"packet": ["container", [
				{"name": "kind", "type": "u8"},
				{"name": "body", "type": ["switch", {
					"compareTo": "kind",
					"fields": {"0": "void", "1": "slot"}
				}]},
				{"name": "slots", "type": ["array", {"countType": "varint", "type": "slot"}]},
				{"name": "tail", "type": "restBuffer"}
			]]
		}
	}`)
	require.False(t, ds.HasErrors())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "protocol", Render(unit))
}
