// Package compiler wires the compilation phases together: parse the spec
// tree into the protocol IR, resolve references, lower to a compilation
// unit. Each phase appends to a shared diagnostics log and never stops the
// others; success is simply the absence of Error diagnostics.
package compiler

import (
	"github.com/rs/zerolog"

	"github.com/Michael-F-Bryan/protodef/internal/codegen"
	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/resolve"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
	"github.com/Michael-F-Bryan/protodef/internal/syntax"
)

// Options configures a compilation.
type Options struct {
	// Profile is the primitive table. Nil means spec.DefaultProfile().
	Profile *spec.Profile
	// Logger receives phase-level progress events. The zero value is a nop
	// logger, which is what library callers normally want.
	Logger zerolog.Logger
}

// Compile runs the full pipeline over a decoded spec document. The
// returned unit contains every type that survived all phases; types that
// failed are absent and explained by Error diagnostics. Identical input
// always produces an identical unit.
func Compile(doc *spec.Value, opts Options) (*codegen.CompilationUnit, *diag.Diagnostics) {
	profile := opts.Profile
	if profile == nil {
		profile = spec.DefaultProfile()
	}
	log := opts.Logger
	ds := &diag.Diagnostics{}

	proto := syntax.Parse(doc, profile, ds)
	log.Debug().
		Int("types", proto.Len()).
		Int("diagnostics", ds.Len()).
		Msg("parsed protocol")

	res := resolve.Resolve(proto, ds)
	log.Debug().
		Int("groups", len(res.Order)).
		Int("unresolved", len(res.Unresolved)).
		Msg("resolved references")

	unit := codegen.Lower(proto, res, ds)
	log.Debug().
		Int("decls", len(unit.Decls)).
		Int("errors", ds.ErrorCount()).
		Msg("lowered compilation unit")

	return unit, ds
}
