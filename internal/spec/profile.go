package spec

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// PrimKind classifies a primitive codec.
type PrimKind int

const (
	PrimUint PrimKind = iota
	PrimInt
	PrimFloat
	PrimBool
	PrimVarint
	PrimVoid
)

// String implements fmt.Stringer.
func (k PrimKind) String() string {
	switch k {
	case PrimUint:
		return "uint"
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimBool:
		return "bool"
	case PrimVarint:
		return "varint"
	case PrimVoid:
		return "void"
	default:
		return fmt.Sprintf("PrimKind(%d)", int(k))
	}
}

// Primitive describes one recognized primitive: its codec kind, width in
// bytes (zero for varint/void) and endianness.
type Primitive struct {
	Name   string
	Kind   PrimKind
	Width  int
	Little bool
}

// Profile is the configuration table supplied alongside the grammar: the
// recognized primitive set and the bitfield packing convention. The exact
// defaults are pinned here rather than guessed per spec file.
type Profile struct {
	// BitOrder is the bitfield packing convention. Only "msb" (most
	// significant bit first within the big-endian packed group) is
	// currently defined.
	BitOrder   string
	Primitives map[string]Primitive
}

// Lookup returns the primitive registered under name.
func (p *Profile) Lookup(name string) (Primitive, bool) {
	prim, ok := p.Primitives[name]
	return prim, ok
}

// DefaultProfile returns the built-in primitive table: network byte order
// fixed-width integers u8..u64 / i8..i64, their little-endian lu/li
// variants, f32/f64, bool, LEB128 varint and void.
func DefaultProfile() *Profile {
	p := &Profile{
		BitOrder:   "msb",
		Primitives: make(map[string]Primitive),
	}

	add := func(prim Primitive) { p.Primitives[prim.Name] = prim }

	add(Primitive{Name: "varint", Kind: PrimVarint})
	add(Primitive{Name: "bool", Kind: PrimBool, Width: 1})
	add(Primitive{Name: "void", Kind: PrimVoid})

	for _, w := range []int{1, 2, 4, 8} {
		add(Primitive{Name: fmt.Sprintf("u%d", w*8), Kind: PrimUint, Width: w})
		add(Primitive{Name: fmt.Sprintf("i%d", w*8), Kind: PrimInt, Width: w})
	}
	// Little-endian variants for multi-byte widths.
	for _, w := range []int{2, 4, 8} {
		add(Primitive{Name: fmt.Sprintf("lu%d", w*8), Kind: PrimUint, Width: w, Little: true})
		add(Primitive{Name: fmt.Sprintf("li%d", w*8), Kind: PrimInt, Width: w, Little: true})
	}

	add(Primitive{Name: "f32", Kind: PrimFloat, Width: 4})
	add(Primitive{Name: "f64", Kind: PrimFloat, Width: 8})
	add(Primitive{Name: "lf32", Kind: PrimFloat, Width: 4, Little: true})
	add(Primitive{Name: "lf64", Kind: PrimFloat, Width: 8, Little: true})

	return p
}

// profileDoc is the TOML shape of a profile file.
type profileDoc struct {
	BitOrder   string                  `toml:"bit_order"`
	Primitives map[string]primitiveDoc `toml:"primitives"`
}

type primitiveDoc struct {
	Kind      string `toml:"kind"`
	Width     int    `toml:"width"`
	ByteOrder string `toml:"byte_order"`
}

// LoadProfile reads a TOML profile file. Entries extend the default table;
// a file entry with a known name replaces the built-in definition.
func LoadProfile(path string) (*Profile, error) {
	var doc profileDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", path, err)
	}

	p := DefaultProfile()
	if doc.BitOrder != "" {
		if doc.BitOrder != "msb" {
			return nil, fmt.Errorf("profile %s: unsupported bit_order %q", path, doc.BitOrder)
		}
		p.BitOrder = doc.BitOrder
	}

	for name, pd := range doc.Primitives {
		prim, err := primitiveFromDoc(name, pd)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", path, err)
		}
		p.Primitives[name] = prim
	}

	return p, nil
}

func primitiveFromDoc(name string, pd primitiveDoc) (Primitive, error) {
	prim := Primitive{Name: name, Width: pd.Width}

	switch pd.Kind {
	case "uint":
		prim.Kind = PrimUint
	case "int":
		prim.Kind = PrimInt
	case "float":
		prim.Kind = PrimFloat
	case "bool":
		prim.Kind = PrimBool
	case "varint":
		prim.Kind = PrimVarint
	case "void":
		prim.Kind = PrimVoid
	default:
		return prim, fmt.Errorf("primitive %q: unknown kind %q", name, pd.Kind)
	}

	switch prim.Kind {
	case PrimUint, PrimInt:
		if pd.Width != 1 && pd.Width != 2 && pd.Width != 4 && pd.Width != 8 {
			return prim, fmt.Errorf("primitive %q: width must be 1, 2, 4 or 8 bytes, got %d", name, pd.Width)
		}
	case PrimFloat:
		if pd.Width != 4 && pd.Width != 8 {
			return prim, fmt.Errorf("primitive %q: float width must be 4 or 8 bytes, got %d", name, pd.Width)
		}
	}

	switch pd.ByteOrder {
	case "", "big":
	case "little":
		prim.Little = true
	default:
		return prim, fmt.Errorf("primitive %q: unknown byte_order %q", name, pd.ByteOrder)
	}

	return prim, nil
}
