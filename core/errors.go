package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes decode-time failures.
type ErrorKind int

const (
	// UnexpectedEof means the input ended before a declared read completed.
	UnexpectedEof ErrorKind = iota
	// InvalidDiscriminant means a switch discriminant matched no case and
	// the switch has no default.
	InvalidDiscriminant
	// InvalidUtf8 means string bytes were not valid in the declared text
	// encoding.
	InvalidUtf8
	// TrailingData means bytes remained after a complete decode.
	TrailingData
	// RecursionLimitExceeded means nested decoding exceeded the depth guard.
	RecursionLimitExceeded
	// Custom covers caller-supplied failures, including encode-time range
	// violations.
	Custom
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case UnexpectedEof:
		return "UnexpectedEof"
	case InvalidDiscriminant:
		return "InvalidDiscriminant"
	case InvalidUtf8:
		return "InvalidUtf8"
	case TrailingData:
		return "TrailingData"
	case RecursionLimitExceeded:
		return "RecursionLimitExceeded"
	case Custom:
		return "Custom"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DeserializeError is the decode-time error taxonomy. It is produced while
// consuming a byte stream, immediately propagated and never batched; it has
// nothing to do with compile-time diagnostics.
type DeserializeError struct {
	Kind    ErrorKind
	Message string
	// Offset is the cursor position at the point of failure.
	Offset int
}

// Error implements the error interface.
func (e *DeserializeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

// IsKind reports whether err is (or wraps) a DeserializeError of kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DeserializeError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

func errEOF(offset int, want uint64, have int) *DeserializeError {
	return &DeserializeError{
		Kind:    UnexpectedEof,
		Message: fmt.Sprintf("need %d byte(s), %d remaining", want, have),
		Offset:  offset,
	}
}

// NewCustomError builds a Custom-kind DeserializeError.
func NewCustomError(offset int, format string, args ...any) *DeserializeError {
	return &DeserializeError{
		Kind:    Custom,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}
