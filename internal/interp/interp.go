package interp

import (
	"fmt"
	"strings"

	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/codegen"
)

// Codec executes the procedures of one compilation unit. It is immutable
// after New and safe for concurrent use; each Decode/Encode call owns its
// own cursor and frame stack.
type Codec struct {
	decls map[string]*codegen.Decl

	// MaxDepth bounds nested type calls on both decode and encode. Zero
	// means core.DefaultMaxDepth.
	MaxDepth int
}

// New indexes the unit's declarations for execution.
func New(unit *codegen.CompilationUnit) *Codec {
	c := &Codec{decls: make(map[string]*codegen.Decl, len(unit.Decls))}
	for i := range unit.Decls {
		d := &unit.Decls[i]
		c.decls[d.Name] = d
	}
	return c
}

// Has reports whether the unit declares name.
func (c *Codec) Has(name string) bool {
	_, ok := c.decls[name]
	return ok
}

// Decode decodes data as the named type, requiring the whole input to be
// consumed. Failures are *core.DeserializeError values (possibly wrapped).
func (c *Codec) Decode(name string, data []byte) (any, error) {
	decl, ok := c.decls[name]
	if !ok {
		return nil, fmt.Errorf("decode: unknown type %q", name)
	}

	r := core.NewReader(data)
	if c.MaxDepth > 0 {
		r.SetMaxDepth(c.MaxDepth)
	}

	d := &decoder{codec: c, r: r}
	v, derr := d.runDecl(decl)
	if derr != nil {
		return nil, fmt.Errorf("decode %s: %w", name, derr)
	}
	if derr := r.ExpectEOF(); derr != nil {
		return nil, fmt.Errorf("decode %s: %w", name, derr)
	}
	return v, nil
}

// Encode encodes value as the named type. Failures are caller-value errors
// (a length that does not fit its prefix, an unmapped mapper name, a
// missing field) reported as *core.DeserializeError values.
func (c *Codec) Encode(name string, value any) ([]byte, error) {
	decl, ok := c.decls[name]
	if !ok {
		return nil, fmt.Errorf("encode: unknown type %q", name)
	}

	e := &encoder{codec: c, w: core.NewWriter(), maxDepth: c.MaxDepth}
	if e.maxDepth <= 0 {
		e.maxDepth = core.DefaultMaxDepth
	}
	if derr := e.runDecl(decl, value); derr != nil {
		return nil, fmt.Errorf("encode %s: %w", name, derr)
	}
	return e.w.Bytes(), nil
}

// frames is a scope stack. The top frame holds the declaration currently
// being decoded or encoded; lookups walk outward so a nested type can see
// its ancestors' fields.
type frames struct {
	stack []map[string]any
}

func (f *frames) push(m map[string]any) {
	if m == nil {
		m = make(map[string]any)
	}
	f.stack = append(f.stack, m)
}

func (f *frames) pop() map[string]any {
	top := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return top
}

func (f *frames) set(name string, v any) {
	f.stack[len(f.stack)-1][name] = v
}

// lookup resolves a slot reference, walking outward through enclosing
// frames. Leading "../" segments are redundant with the walk and ignored.
func (f *frames) lookup(name string) (any, bool) {
	for strings.HasPrefix(name, "../") {
		name = name[len("../"):]
	}
	for i := len(f.stack) - 1; i >= 0; i-- {
		if v, ok := f.stack[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// declResult extracts a completed frame's result per the declaration's
// shape: record shapes are the frame itself, everything else decoded into
// the "value" slot.
func declResult(decl *codegen.Decl, frame map[string]any) any {
	switch decl.Shape.(type) {
	case *codegen.StructShape, *codegen.BitsShape:
		return frame
	default:
		return frame["value"]
	}
}
