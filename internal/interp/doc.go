// Package interp executes compiled codec procedures directly, without
// generating target-language source. It is the reference execution engine:
// the CLI uses it for `decode`/`encode`, and the test suite uses it to
// check that compiled units actually round-trip bytes.
//
// Values are dynamic:
//
//	struct     map[string]any keyed by protocol field name
//	bitfields  map[string]any keyed by sub-field name
//	enum       the payload value of the matched case
//	mapper     the mapped string
//	array      []any
//	string     string
//	buffer     []byte
//	uint/varint uint64, int int64, float float64, bool bool, void nil
//
// Slot lookup walks outward through enclosing decode/encode frames, which
// is how switch discriminants and field-referenced lengths find the
// sibling (or ancestor) field they compare against.
package interp
