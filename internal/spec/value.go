package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Kind discriminates the node variants of a spec tree.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one node of the generic spec tree. Exactly the fields implied
// by Kind are meaningful; the rest are zero.
type Value struct {
	Kind    Kind
	BoolVal bool
	// NumVal keeps the literal digits so integer discriminants and widths
	// survive without a float round-trip.
	NumVal  json.Number
	StrVal  string
	Elems   []*Value
	Members []Member
}

// Member is one key/value pair of an Object node. Declaration order is
// significant and preserved.
type Member struct {
	Key   string
	Value *Value
}

// Get returns the member value for key, or nil if absent.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != Object {
		return nil
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Int64 interprets a Number node as an int64.
func (v *Value) Int64() (int64, error) {
	if v.Kind != Number {
		return 0, fmt.Errorf("expected number, found %s", v.Kind)
	}
	return v.NumVal.Int64()
}

// DecodeJSON parses a JSON document into a spec tree, preserving object
// member order. Numbers keep their literal form.
func DecodeJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	// The document must be a single value.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after JSON document")
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return &Value{Kind: Null}, nil
	case bool:
		return &Value{Kind: Bool, BoolVal: t}, nil
	case json.Number:
		return &Value{Kind: Number, NumVal: t}, nil
	case string:
		return &Value{Kind: String, StrVal: t}, nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeArray(dec *json.Decoder) (*Value, error) {
	v := &Value{Kind: Array}
	for dec.More() {
		elem, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		v.Elems = append(v.Elems, elem)
	}
	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeObject(dec *json.Decoder) (*Value, error) {
	v := &Value{Kind: Object}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		v.Members = append(v.Members, Member{Key: key, Value: val})
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return v, nil
}
