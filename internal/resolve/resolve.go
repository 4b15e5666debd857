package resolve

import (
	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// maxRevisits bounds how often the traversal may re-enter a single type
// name. A well-formed graph never comes close; a malformed one aborts its
// subgraph with a diagnostic instead of looping.
const maxRevisits = 64

// Group is one lowering unit: a single type, or a cyclic-but-valid set of
// types that must be lowered together with forward declarations.
type Group struct {
	Names  []string
	Cyclic bool
}

// Resolution is the resolver's output: the lowering order over resolvable
// types, the set of unresolved names, and the reference graphs.
type Resolution struct {
	Order      []Group
	Unresolved map[string]bool
	// Direct holds layout-inlining edges only; All additionally includes
	// edges through array/buffer indirection.
	Direct graph
	All    graph
}

// Resolved reports whether name survived resolution.
func (r *Resolution) Resolved(name string) bool {
	return !r.Unresolved[name]
}

// Resolve builds the dependency graph for proto, reports unknown
// references and illegal cycles, and computes the lowering order for the
// resolvable portion. Independent types always resolve regardless of
// failures elsewhere.
func Resolve(proto *syntax.Protocol, ds *diag.Diagnostics) *Resolution {
	res := &Resolution{
		Unresolved: make(map[string]bool),
		Direct:     make(graph),
		All:        make(graph),
	}
	names := proto.Names()

	// Phase 1: collect edges and report unknown references.
	for _, name := range names {
		ty, _ := proto.Lookup(name)
		refs := collectRefs(ty)
		path := diag.Path("types", name)

		if refs.invalid {
			// Parse errors already produced diagnostics; the type just
			// cannot be lowered.
			res.Unresolved[name] = true
		}

		addEdges := func(targets []string, direct bool) {
			for _, target := range targets {
				if _, ok := proto.Lookup(target); !ok {
					ds.Errorf(diag.UnknownTypeReference, path, "reference to undefined type %q", target)
					res.Unresolved[name] = true
					continue
				}
				if direct {
					res.Direct[name] = appendUnique(res.Direct[name], target)
				}
				res.All[name] = appendUnique(res.All[name], target)
			}
		}
		addEdges(refs.direct, true)
		addEdges(refs.indirect, false)
	}

	// Phase 2: cycles over direct edges are fatal; array/buffer elements
	// are the only legal indirection points.
	for _, scc := range tarjanSCC(res.Direct, names) {
		if len(scc) > 1 || hasSelfLoop(scc[0], res.Direct) {
			path := cyclePath(scc, res.Direct)
			for _, member := range scc {
				ds.Errorf(diag.CyclicTypeWithoutIndirection, diag.Path("types", member),
					"type is part of a reference cycle with no indirection point: %s", path)
				res.Unresolved[member] = true
			}
		}
	}

	// Phase 3: a type whose dependency failed cannot be lowered either.
	propagateUnresolved(res, names, ds)

	// Phase 4: lowering order. Tarjan over the full graph emits SCCs
	// dependencies-first; seeded with declaration order it is fully
	// deterministic. Cyclic groups here are valid (indirection-broken)
	// and lowered together.
	for _, scc := range tarjanSCC(res.All, names) {
		group := Group{Cyclic: len(scc) > 1 || hasSelfLoop(scc[0], res.All)}
		for _, member := range scc {
			if !res.Unresolved[member] {
				group.Names = append(group.Names, member)
			}
		}
		if len(group.Names) > 0 {
			res.Order = append(res.Order, group)
		}
	}

	return res
}

// propagateUnresolved walks dependents of unresolved types to a fixpoint,
// guarded by the per-name revisit bound.
func propagateUnresolved(res *Resolution, names []string, ds *diag.Diagnostics) {
	// Reverse edges of the full graph.
	dependents := make(graph)
	for from, targets := range res.All {
		for _, to := range targets {
			dependents[to] = appendUnique(dependents[to], from)
		}
	}

	visits := make(map[string]int)
	var mark func(string)
	mark = func(name string) {
		visits[name]++
		if visits[name] > maxRevisits {
			ds.Errorf(diag.ResolutionBudgetExceeded, diag.Path("types", name),
				"resolution revisit bound exceeded, aborting this subgraph")
			return
		}
		for _, dep := range dependents[name] {
			if !res.Unresolved[dep] {
				res.Unresolved[dep] = true
				mark(dep)
			}
		}
	}

	for _, name := range names {
		if res.Unresolved[name] {
			mark(name)
		}
	}
}

type refSet struct {
	direct   []string
	indirect []string
	invalid  bool
}

// collectRefs walks a type tree and gathers the names it references,
// split by whether the reference inlines the target's layout.
func collectRefs(ty syntax.Type) refSet {
	var refs refSet
	walkRefs(ty, false, &refs)
	return refs
}

func walkRefs(ty syntax.Type, indirect bool, refs *refSet) {
	switch t := ty.(type) {
	case *syntax.Primitive, *syntax.BitFields:
		// No references.
	case *syntax.Invalid:
		refs.invalid = true
	case *syntax.Named:
		if indirect {
			refs.indirect = append(refs.indirect, t.Name)
		} else {
			refs.direct = append(refs.direct, t.Name)
		}
	case *syntax.Container:
		for _, f := range t.Fields {
			walkRefs(f.Type, indirect, refs)
		}
	case *syntax.Switch:
		for _, c := range t.Cases {
			walkRefs(c.Type, indirect, refs)
		}
		if t.Default != nil {
			walkRefs(t.Default, indirect, refs)
		}
	case *syntax.Array:
		walkLength(t.Length, indirect, refs)
		// The element is behind the array: the one legal cycle-breaker.
		walkRefs(t.Elem, true, refs)
	case *syntax.Buffer:
		walkLength(t.Length, indirect, refs)
	case *syntax.PString:
		walkRefs(t.Count, indirect, refs)
	case *syntax.Mapper:
		walkRefs(t.Underlying, indirect, refs)
	}
}

func walkLength(l syntax.Length, indirect bool, refs *refSet) {
	if l.Kind == syntax.LengthPrefixed && l.Prefix != nil {
		walkRefs(l.Prefix, indirect, refs)
	}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
