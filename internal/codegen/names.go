package codegen

import (
	"fmt"
	"strings"
)

// Ident derives a declaration identifier from a spec name. The rule is
// fixed so identical protocols always generate identical units: split on
// separators, capitalize each chunk's first letter, keep inner case.
// "itemCount" → "ItemCount", "entity_metadata" → "EntityMetadata".
func Ident(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		switch r {
		case '_', '-', ' ', '.', '/':
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// variantIdent derives an enum variant identifier from its discriminant.
func variantIdent(value int64) string {
	if value < 0 {
		return fmt.Sprintf("CaseMinus%d", -value)
	}
	return fmt.Sprintf("Case%d", value)
}

// liftedName names a composite lifted out of a field position:
// parent declaration name plus the field path that held it.
func liftedName(parent, field string) string {
	return parent + "_" + field
}
