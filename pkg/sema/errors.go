// Package sema implements the semantic analyzer (component C3): it turns a
// parsed ast.Program into a fully resolved ag.Program, binding every name
// reference to a concrete declaration and every expression to a concrete
// type.
package sema

import (
	"errors"
	"fmt"

	"github.com/ironwell/protospec/pkg/token"
)

// ErrorKind classifies an AnalysisError into the taxonomy the compiler
// reports diagnostics under.
type ErrorKind int

const (
	// ErrKindResolution covers undefined names: unknown types, fields,
	// constants, transforms, functions, or imports.
	ErrKindResolution ErrorKind = iota
	// ErrKindType covers type mismatches: assigning an incompatible
	// value, casting between incompatible scalars, calling a function
	// with the wrong argument type.
	ErrKindType
	// ErrKindStructural covers shape errors that aren't about names or
	// types: duplicate declarations, malformed array lengths, a
	// representation type that isn't a scalar, a cyclic constant
	// dependency.
	ErrKindStructural
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindResolution:
		return "resolution error"
	case ErrKindType:
		return "type error"
	case ErrKindStructural:
		return "structural error"
	default:
		return "error"
	}
}

// Sentinel errors identifying common failure causes, usable with
// errors.Is through AnalysisError's Unwrap.
var (
	ErrUndefined        = errors.New("undefined name")
	ErrDuplicate        = errors.New("duplicate declaration")
	ErrCyclicConst      = errors.New("cyclic constant dependency")
	ErrNotAssignable    = errors.New("type not assignable")
	ErrNotScalar        = errors.New("representation type must be a scalar")
	ErrEmptyLength      = errors.New("array length must specify a bound, '..', or both")
	ErrWrongArgCount    = errors.New("wrong number of arguments")
)

// AnalysisError is one recoverable semantic error, isolated to the
// top-level declaration it was found in so a single bad declaration
// doesn't hide errors in the rest of the file.
type AnalysisError struct {
	Span    token.Span
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Span, e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

func newError(span token.Span, kind ErrorKind, cause error, format string, args ...any) *AnalysisError {
	return &AnalysisError{Span: span, Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
