package core

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding identifies how length-prefixed string payloads are encoded.
type TextEncoding int

const (
	EncodingUTF8 TextEncoding = iota
	EncodingUTF16BE
	EncodingUTF16LE
	EncodingLatin1
)

// String implements fmt.Stringer.
func (e TextEncoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf8"
	case EncodingUTF16BE:
		return "utf16be"
	case EncodingUTF16LE:
		return "utf16le"
	case EncodingLatin1:
		return "latin1"
	default:
		return fmt.Sprintf("TextEncoding(%d)", int(e))
	}
}

// ParseTextEncoding maps a spec encoding name to a TextEncoding.
func ParseTextEncoding(name string) (TextEncoding, error) {
	switch name {
	case "", "utf8", "utf-8":
		return EncodingUTF8, nil
	case "utf16be", "utf-16be":
		return EncodingUTF16BE, nil
	case "utf16le", "utf-16le":
		return EncodingUTF16LE, nil
	case "latin1", "iso-8859-1":
		return EncodingLatin1, nil
	default:
		return EncodingUTF8, fmt.Errorf("unknown text encoding %q", name)
	}
}

func (e TextEncoding) codec() encoding.Encoding {
	switch e {
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case EncodingLatin1:
		return charmap.ISO8859_1
	default:
		return nil
	}
}

// DecodeText converts raw payload bytes into a string. Invalid bytes for
// the encoding yield an InvalidUtf8 error stamped with offset.
func DecodeText(b []byte, enc TextEncoding, offset int) (string, *DeserializeError) {
	if enc == EncodingUTF8 {
		if !utf8.Valid(b) {
			return "", &DeserializeError{
				Kind:    InvalidUtf8,
				Message: "payload is not valid UTF-8",
				Offset:  offset,
			}
		}
		return string(b), nil
	}

	dec := enc.codec().NewDecoder()
	decoded, err := dec.Bytes(b)
	if err != nil {
		return "", &DeserializeError{
			Kind:    InvalidUtf8,
			Message: fmt.Sprintf("payload is not valid %s: %v", enc, err),
			Offset:  offset,
		}
	}
	return string(decoded), nil
}

// EncodeText converts a string into payload bytes for the encoding.
// Characters unrepresentable in the target encoding fail with a Custom
// error (an encode-time caller-value problem, not a stream problem).
func EncodeText(s string, enc TextEncoding) ([]byte, *DeserializeError) {
	if enc == EncodingUTF8 {
		return []byte(s), nil
	}

	out, err := enc.codec().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, NewCustomError(0, "string not representable as %s: %v", enc, err)
	}
	return out, nil
}
