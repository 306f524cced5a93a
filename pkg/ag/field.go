package ag

import "github.com/ironwell/protospec/pkg/token"

// Field is the resolved, mutable shape behind every type declaration's
// value, array element, and container member. Its cells start out empty
// placeholders during declaration registration and are filled in later
// sub-phases of analysis; this lets mutually- and self-referential types
// register a placeholder Field before their bodies are resolved, so a
// cyclical reference has something to point at.
type Field struct {
	Span token.Span

	Type      *Type
	Arguments []Expression

	Condition  Expression
	Transforms []*TransformApplication

	// Calculated holds the expression for a virtual field that is derived
	// rather than read from the stream (never present alongside Type).
	Calculated Expression

	IsAuto           bool
	IsPad            bool
	IsMaybeCyclical  bool
}

// TransformApplication is a resolved transform attached to a field, with
// its actual arguments and optional per-application presence condition
// bound.
type TransformApplication struct {
	Span      token.Span
	Transform *Transform
	Arguments []Expression
	Condition Expression
}

// Const is a fully analyzed top-level constant declaration.
type Const struct {
	Span  token.Span
	Name  string
	Type  Type
	Value Expression
}

// Input is a named value available for reference inside a field's
// expressions without being read from the stream itself: a type
// declaration's formal parameter, or a transform/function's formal
// argument.
type Input struct {
	Span token.Span
	Name string
	Type Type

	// Default holds a type parameter's `? expr` fallback, used when a Ref
	// to this type omits a trailing argument. Nil for required parameters.
	Default Expression
}
