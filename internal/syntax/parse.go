package syntax

import (
	"fmt"
	"strconv"

	"github.com/Michael-F-Bryan/protodef/core"
	"github.com/Michael-F-Bryan/protodef/internal/diag"
	"github.com/Michael-F-Bryan/protodef/internal/spec"
)

// Parse walks a generic spec tree and builds the typed Protocol IR,
// appending a diagnostic for every malformed node it encounters. Parsing
// never fails outright: bad nodes become Invalid placeholders so one pass
// reports as many problems as possible.
func Parse(doc *spec.Value, profile *spec.Profile, ds *diag.Diagnostics) *Protocol {
	p := &parser{profile: profile, ds: ds}
	proto := NewProtocol()

	if doc == nil || doc.Kind != spec.Object {
		ds.Errorf(diag.MalformedSpecValue, "", "protocol document must be an object, found %s", kindName(doc))
		return proto
	}

	typesVal := doc.Get("types")
	if typesVal == nil {
		return proto
	}
	if typesVal.Kind != spec.Object {
		ds.Errorf(diag.MalformedSpecValue, "types", "expected object, found %s", typesVal.Kind)
		return proto
	}

	for _, m := range typesVal.Members {
		path := diag.Path("types", m.Key)
		ty := p.parseDefinition(m.Key, m.Value, path)
		if !proto.Define(m.Key, ty) {
			ds.Errorf(diag.MalformedSpecValue, path, "type %q is defined more than once", m.Key)
		}
	}

	return proto
}

type parser struct {
	profile *spec.Profile
	ds      *diag.Diagnostics
}

// parseDefinition handles a top-level "name": definition entry. The
// "native" marker defines the name as a primitive from the profile table.
func (p *parser) parseDefinition(name string, v *spec.Value, path string) Type {
	if v != nil && v.Kind == spec.String && v.StrVal == "native" {
		if name == "restBuffer" {
			return &Buffer{Length: Length{Kind: LengthRest}}
		}
		if prim, ok := p.profile.Lookup(name); ok {
			return &Primitive{Prim: prim}
		}
		p.ds.Warnf(diag.MalformedSpecValue, path, "native type %q is not in the primitive profile", name)
		return &Invalid{}
	}
	return p.parseType(v, path)
}

func (p *parser) parseType(v *spec.Value, path string) Type {
	if v == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing type declaration")
		return &Invalid{}
	}

	switch v.Kind {
	case spec.String:
		return p.parseTypeName(v.StrVal, path)
	case spec.Array:
		return p.parseTypeCall(v, path)
	default:
		p.ds.Errorf(diag.MalformedSpecValue, path, "type declaration must be a string or [tag, argument] pair, found %s", v.Kind)
		return &Invalid{}
	}
}

func (p *parser) parseTypeName(name, path string) Type {
	switch name {
	case "native":
		p.ds.Errorf(diag.MalformedSpecValue, path, `"native" is only valid as a top-level definition`)
		return &Invalid{}
	case "restBuffer":
		return &Buffer{Length: Length{Kind: LengthRest}}
	}
	if prim, ok := p.profile.Lookup(name); ok {
		return &Primitive{Prim: prim}
	}
	// Unknown names stay raw; the resolver decides whether they exist.
	return &Named{Name: name}
}

// parseTypeCall handles the ["tag", argument] declaration form.
func (p *parser) parseTypeCall(v *spec.Value, path string) Type {
	if len(v.Elems) != 2 {
		p.ds.Errorf(diag.MalformedSpecValue, path, "type call must have exactly 2 elements, found %d", len(v.Elems))
		return &Invalid{}
	}
	tagVal, arg := v.Elems[0], v.Elems[1]
	if tagVal.Kind != spec.String {
		p.ds.Errorf(diag.MalformedSpecValue, path, "type call tag must be a string, found %s", tagVal.Kind)
		return &Invalid{}
	}

	switch tagVal.StrVal {
	case "container":
		return p.parseContainer(arg, path)
	case "switch":
		return p.parseSwitch(arg, path)
	case "bitfield":
		return p.parseBitFields(arg, path)
	case "array":
		return p.parseArray(arg, path)
	case "pstring":
		return p.parsePString(arg, path)
	case "mapper":
		return p.parseMapper(arg, path)
	case "buffer":
		return p.parseBuffer(arg, path)
	default:
		p.ds.Errorf(diag.UnknownKindTag, path, "unrecognized type kind %q", tagVal.StrVal)
		return &Invalid{}
	}
}

func (p *parser) parseContainer(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Array {
		p.ds.Errorf(diag.MalformedSpecValue, path, "container fields must be an array, found %s", arg.Kind)
		return &Invalid{}
	}

	c := &Container{}
	seen := make(map[string]bool)
	anonCount := 0

	for i, fv := range arg.Elems {
		fieldPath := diag.Path(path, diag.Index("fields", i))
		field, ok := p.parseField(fv, fieldPath, &anonCount)
		if !ok {
			continue
		}
		if seen[field.Name] {
			// Reported with the container's location per the name-uniqueness invariant.
			p.ds.Errorf(diag.DuplicateFieldName, path, "duplicate field name %q", field.Name)
		}
		seen[field.Name] = true

		if field.When != nil && !seen[field.When.CompareTo] {
			p.ds.Errorf(diag.MalformedSpecValue, fieldPath,
				"presence predicate references %q, which is not a previously declared sibling", field.When.CompareTo)
			field.When = nil
		}
		c.Fields = append(c.Fields, field)
	}

	return c
}

func (p *parser) parseField(v *spec.Value, path string, anonCount *int) (Field, bool) {
	var field Field

	if v.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "field must be an object, found %s", v.Kind)
		return field, false
	}

	if anon := v.Get("anon"); anon != nil && anon.Kind == spec.Bool && anon.BoolVal {
		field.Anon = true
		field.Name = fmt.Sprintf("anon%d", *anonCount)
		*anonCount++
	} else {
		name, ok := p.lookupString(v, "name", path)
		if !ok {
			return field, false
		}
		field.Name = name
	}

	field.Type = p.parseType(v.Get("type"), diag.Path(path, "type"))

	if when := v.Get("when"); when != nil {
		pred, ok := p.parsePresence(when, diag.Path(path, "when"))
		if ok {
			field.When = pred
		}
	}

	return field, true
}

func (p *parser) parsePresence(v *spec.Value, path string) (*Presence, bool) {
	if v.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "presence predicate must be an object, found %s", v.Kind)
		return nil, false
	}
	compareTo, ok := p.lookupString(v, "compareTo", path)
	if !ok {
		return nil, false
	}
	equalsVal := v.Get("equals")
	if equalsVal == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", "equals")
		return nil, false
	}
	equals, err := equalsVal.Int64()
	if err != nil {
		p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "equals"), "expected integer: %v", err)
		return nil, false
	}
	return &Presence{CompareTo: compareTo, Equals: equals}, true
}

func (p *parser) parseSwitch(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "switch argument must be an object, found %s", arg.Kind)
		return &Invalid{}
	}

	s := &Switch{}
	compareTo, ok := p.lookupString(arg, "compareTo", path)
	if !ok {
		return &Invalid{}
	}
	s.CompareTo = compareTo

	fields := arg.Get("fields")
	if fields == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", "fields")
		return &Invalid{}
	}
	if fields.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "fields"), "expected object, found %s", fields.Kind)
		return &Invalid{}
	}

	seen := make(map[int64]bool)
	for _, m := range fields.Members {
		casePath := diag.Path(path, "fields", m.Key)
		// Base 0 accepts decimal, 0x hex and negative values.
		value, err := strconv.ParseInt(m.Key, 0, 64)
		if err != nil {
			p.ds.Errorf(diag.MalformedSpecValue, casePath, "case value %q is not an integer", m.Key)
			continue
		}
		if seen[value] {
			p.ds.Errorf(diag.DuplicateSwitchCase, path, "duplicate case value %d", value)
			continue
		}
		seen[value] = true
		s.Cases = append(s.Cases, SwitchCase{
			Value: value,
			Type:  p.parseType(m.Value, casePath),
		})
	}

	if def := arg.Get("default"); def != nil {
		s.Default = p.parseType(def, diag.Path(path, "default"))
	}

	return s
}

func (p *parser) parseBitFields(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Array {
		p.ds.Errorf(diag.MalformedSpecValue, path, "bitfield argument must be an array, found %s", arg.Kind)
		return &Invalid{}
	}

	b := &BitFields{}
	seen := make(map[string]bool)

	for i, fv := range arg.Elems {
		fieldPath := diag.Path(path, diag.Index("fields", i))
		if fv.Kind != spec.Object {
			p.ds.Errorf(diag.MalformedSpecValue, fieldPath, "bitfield entry must be an object, found %s", fv.Kind)
			continue
		}
		name, ok := p.lookupString(fv, "name", fieldPath)
		if !ok {
			continue
		}
		if seen[name] {
			p.ds.Errorf(diag.DuplicateFieldName, path, "duplicate bitfield name %q", name)
			continue
		}
		seen[name] = true

		sizeVal := fv.Get("size")
		if sizeVal == nil {
			p.ds.Errorf(diag.MalformedSpecValue, fieldPath, "missing required key %q", "size")
			continue
		}
		size, err := sizeVal.Int64()
		if err != nil {
			p.ds.Errorf(diag.MalformedSpecValue, diag.Path(fieldPath, "size"), "expected integer: %v", err)
			continue
		}
		if size < 1 || size > 64 {
			p.ds.Errorf(diag.InvalidBitfieldWidth, fieldPath, "sub-field %q is %d bits wide, must be 1..64", name, size)
			continue
		}

		signed := false
		if sv := fv.Get("signed"); sv != nil {
			if sv.Kind != spec.Bool {
				p.ds.Errorf(diag.MalformedSpecValue, diag.Path(fieldPath, "signed"), "expected bool, found %s", sv.Kind)
				continue
			}
			signed = sv.BoolVal
		}

		b.Fields = append(b.Fields, BitField{Name: name, Bits: int(size), Signed: signed})
		b.TotalBits += int(size)
	}

	if b.TotalBits%8 != 0 {
		p.ds.Errorf(diag.InvalidBitfieldWidth, path,
			"bitfield widths sum to %d bits, not a multiple of 8 (declare padding explicitly)", b.TotalBits)
	}

	return b
}

func (p *parser) parseArray(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "array argument must be an object, found %s", arg.Kind)
		return &Invalid{}
	}

	elemVal := arg.Get("type")
	if elemVal == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", "type")
		return &Invalid{}
	}
	elem := p.parseType(elemVal, diag.Path(path, "type"))

	length, ok := p.parseLength(arg, path)
	if !ok {
		return &Invalid{}
	}

	return &Array{Elem: elem, Length: length}
}

func (p *parser) parseBuffer(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "buffer argument must be an object, found %s", arg.Kind)
		return &Invalid{}
	}
	length, ok := p.parseLength(arg, path)
	if !ok {
		return &Invalid{}
	}
	return &Buffer{Length: length}
}

// parseLength extracts a length policy from an array/buffer argument:
// "countType" (length-prefixed), numeric "count" (fixed), string "count"
// (sibling field) or "rest": true (until end of stream).
func (p *parser) parseLength(arg *spec.Value, path string) (Length, bool) {
	if ct := arg.Get("countType"); ct != nil {
		return Length{Kind: LengthPrefixed, Prefix: p.parseType(ct, diag.Path(path, "countType"))}, true
	}

	if count := arg.Get("count"); count != nil {
		switch count.Kind {
		case spec.Number:
			n, err := count.Int64()
			if err != nil || n < 0 {
				p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "count"), "count must be a non-negative integer")
				return Length{}, false
			}
			return Length{Kind: LengthFixed, Fixed: int(n)}, true
		case spec.String:
			return Length{Kind: LengthField, FieldRef: count.StrVal}, true
		default:
			p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "count"), "count must be an integer or a sibling field name, found %s", count.Kind)
			return Length{}, false
		}
	}

	if rest := arg.Get("rest"); rest != nil && rest.Kind == spec.Bool && rest.BoolVal {
		return Length{Kind: LengthRest}, true
	}

	p.ds.Errorf(diag.MalformedSpecValue, path, `missing length policy: one of "countType", "count" or "rest" is required`)
	return Length{}, false
}

func (p *parser) parsePString(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "pstring argument must be an object, found %s", arg.Kind)
		return &Invalid{}
	}

	countVal := arg.Get("countType")
	if countVal == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", "countType")
		return &Invalid{}
	}
	count := p.parseType(countVal, diag.Path(path, "countType"))

	enc := core.EncodingUTF8
	if ev := arg.Get("encoding"); ev != nil {
		if ev.Kind != spec.String {
			p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "encoding"), "expected string, found %s", ev.Kind)
		} else {
			parsed, err := core.ParseTextEncoding(ev.StrVal)
			if err != nil {
				p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "encoding"), "%v", err)
			} else {
				enc = parsed
			}
		}
	}

	return &PString{Count: count, Encoding: enc}
}

func (p *parser) parseMapper(arg *spec.Value, path string) Type {
	if arg.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, path, "mapper argument must be an object, found %s", arg.Kind)
		return &Invalid{}
	}

	underlyingVal := arg.Get("type")
	if underlyingVal == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", "type")
		return &Invalid{}
	}
	m := &Mapper{Underlying: p.parseType(underlyingVal, diag.Path(path, "type"))}

	mappings := arg.Get("mappings")
	if mappings == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", "mappings")
		return &Invalid{}
	}
	if mappings.Kind != spec.Object {
		p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, "mappings"), "expected object, found %s", mappings.Kind)
		return &Invalid{}
	}

	seenCodes := make(map[int64]bool)
	seenNames := make(map[string]bool)
	for _, entry := range mappings.Members {
		entryPath := diag.Path(path, "mappings", entry.Key)
		code, err := strconv.ParseInt(entry.Key, 0, 64)
		if err != nil {
			p.ds.Errorf(diag.MalformedSpecValue, entryPath, "mapping code %q is not an integer", entry.Key)
			continue
		}
		if entry.Value.Kind != spec.String {
			p.ds.Errorf(diag.MalformedSpecValue, entryPath, "mapping name must be a string, found %s", entry.Value.Kind)
			continue
		}
		name := entry.Value.StrVal

		// The mapping must be invertible in both directions.
		if seenCodes[code] {
			p.ds.Errorf(diag.DuplicateSwitchCase, path, "duplicate mapper code %d", code)
			continue
		}
		if seenNames[name] {
			p.ds.Errorf(diag.DuplicateFieldName, path, "duplicate mapper name %q", name)
			continue
		}
		seenCodes[code] = true
		seenNames[name] = true

		m.Entries = append(m.Entries, MapperEntry{Code: code, Name: name})
	}

	return m
}

func (p *parser) lookupString(obj *spec.Value, key, path string) (string, bool) {
	v := obj.Get(key)
	if v == nil {
		p.ds.Errorf(diag.MalformedSpecValue, path, "missing required key %q", key)
		return "", false
	}
	if v.Kind != spec.String {
		p.ds.Errorf(diag.MalformedSpecValue, diag.Path(path, key), "expected string, found %s", v.Kind)
		return "", false
	}
	return v.StrVal, true
}

func kindName(v *spec.Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind.String()
}
