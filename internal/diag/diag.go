package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// Warning diagnostics do not prevent code generation.
	Warning Severity = iota
	// Error diagnostics suppress code generation for the affected types.
	Error
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Code identifies the diagnostic category.
type Code string

// Diagnostic codes (E100-E299).
const (
	// Spec-shape errors (E100-E109)
	MalformedSpecValue Code = "E100" // wrong value shape or missing required key
	UnknownKindTag     Code = "E101" // unrecognized type kind tag

	// Structural errors reported by the IR builder (E110-E119)
	DuplicateFieldName   Code = "E110" // field or variant name reused within a container
	DuplicateSwitchCase  Code = "E111" // case value reused within one switch
	InvalidBitfieldWidth Code = "E112" // sub-field width out of range or total not byte-aligned

	// Resolution errors (E200-E209)
	UnknownTypeReference         Code = "E200" // name does not resolve to a definition or primitive
	CyclicTypeWithoutIndirection Code = "E201" // reference cycle with no array/buffer indirection
	ResolutionBudgetExceeded     Code = "E202" // revisit bound hit while walking a malformed subgraph
)

// Diagnostic is a single compile-time issue with a location path into the
// protocol tree, e.g. "types.entity.fields[2].type".
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
}

// String formats the diagnostic the way the CLI prints it.
func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s [%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, d.Path, d.Message)
}

// Diagnostics is an append-only ordered sequence of diagnostics, shared by
// all compiler phases. The zero value is ready to use.
type Diagnostics struct {
	entries []Diagnostic
}

// Append records a diagnostic. Entries are kept in insertion order.
func (ds *Diagnostics) Append(d Diagnostic) {
	ds.entries = append(ds.entries, d)
}

// Errorf records an Error-severity diagnostic at path.
func (ds *Diagnostics) Errorf(code Code, path, format string, args ...any) {
	ds.Append(Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

// Warnf records a Warning-severity diagnostic at path.
func (ds *Diagnostics) Warnf(code Code, path, format string, args ...any) {
	ds.Append(Diagnostic{
		Severity: Warning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

// All returns the recorded diagnostics in insertion order. The returned
// slice aliases the log; callers must not mutate it.
func (ds *Diagnostics) All() []Diagnostic {
	return ds.entries
}

// Len returns the number of recorded diagnostics.
func (ds *Diagnostics) Len() int { return len(ds.entries) }

// HasErrors reports whether any Error-severity diagnostic was recorded.
// Overall compilation success is the negation of this.
func (ds *Diagnostics) HasErrors() bool {
	for _, d := range ds.entries {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of Error-severity diagnostics.
func (ds *Diagnostics) ErrorCount() int {
	n := 0
	for _, d := range ds.entries {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Path joins location segments into a diagnostic path.
// Path("types", "entity") == "types.entity".
func Path(segments ...string) string {
	return strings.Join(segments, ".")
}

// Index formats an indexed path segment, e.g. Index("fields", 2) == "fields[2]".
func Index(segment string, i int) string {
	return fmt.Sprintf("%s[%d]", segment, i)
}
