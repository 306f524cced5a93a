// Package ag defines the analyzed graph (AG): the fully resolved data model
// that the semantic analyzer (package sema) produces from a parsed
// program, and that the planner (package plan) consumes.
package ag

import "github.com/ironwell/protospec/pkg/token"

// ScalarType is one of the ten built-in fixed-width integer types.
type ScalarType struct {
	Name      string
	SizeBytes int
	IsSigned  bool
}

var (
	I8   = ScalarType{Name: "i8", SizeBytes: 1, IsSigned: true}
	I16  = ScalarType{Name: "i16", SizeBytes: 2, IsSigned: true}
	I32  = ScalarType{Name: "i32", SizeBytes: 4, IsSigned: true}
	I64  = ScalarType{Name: "i64", SizeBytes: 8, IsSigned: true}
	I128 = ScalarType{Name: "i128", SizeBytes: 16, IsSigned: true}
	U8   = ScalarType{Name: "u8", SizeBytes: 1, IsSigned: false}
	U16  = ScalarType{Name: "u16", SizeBytes: 2, IsSigned: false}
	U32  = ScalarType{Name: "u32", SizeBytes: 4, IsSigned: false}
	U64  = ScalarType{Name: "u64", SizeBytes: 8, IsSigned: false}
	U128 = ScalarType{Name: "u128", SizeBytes: 16, IsSigned: false}
)

// Scalars maps every built-in scalar spelling to its ScalarType.
var Scalars = map[string]ScalarType{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64, "i128": I128,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64, "u128": U128,
}

// TypeKind discriminates the Type tagged union.
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindF32
	KindF64
	KindBool
	KindArray
	KindContainer
	KindEnum
	KindBitfield
	KindForeign
	KindRef
)

func (k TypeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindContainer:
		return "container"
	case KindEnum:
		return "enum"
	case KindBitfield:
		return "bitfield"
	case KindForeign:
		return "foreign"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Type is the tagged union of every resolved type shape in the AG. Exactly
// one of the Kind-selected fields is populated.
type Type struct {
	Span token.Span
	Kind TypeKind

	Scalar    ScalarType      // KindScalar
	Array     *ArrayType      // KindArray
	Container *ContainerType  // KindContainer
	Enum      *EnumType       // KindEnum
	Bitfield  *BitfieldType   // KindBitfield
	Foreign   *ForeignType    // KindForeign
	Ref       *RefType        // KindRef
}

// ScalarOf builds a KindScalar Type.
func ScalarOf(span token.Span, s ScalarType) Type {
	return Type{Span: span, Kind: KindScalar, Scalar: s}
}

// F32Of builds a KindF32 Type.
func F32Of(span token.Span) Type { return Type{Span: span, Kind: KindF32} }

// F64Of builds a KindF64 Type.
func F64Of(span token.Span) Type { return Type{Span: span, Kind: KindF64} }

// BoolOf builds a KindBool Type.
func BoolOf(span token.Span) Type { return Type{Span: span, Kind: KindBool} }

// IsInteger reports whether t is one of the built-in scalar integer types.
func (t Type) IsInteger() bool { return t.Kind == KindScalar }

// IsNumeric reports whether t supports arithmetic operators.
func (t Type) IsNumeric() bool {
	return t.Kind == KindScalar || t.Kind == KindF32 || t.Kind == KindF64
}

// LengthConstraintKind discriminates the four semantic shapes an array
// length constraint can take.
type LengthConstraintKind int

const (
	// LengthFixed gives an exact element count known before decoding.
	LengthFixed LengthConstraintKind = iota
	// LengthConsumeToEnd (bare "..") reads elements until the enclosing
	// stream (or bounded sub-stream) is exhausted, with no upper bound
	// expressed in the schema.
	LengthConsumeToEnd
	// LengthBoundedThenExhaust (".. N") reads up to N bytes/elements of
	// raw storage, then decodes elements from that bounded region until
	// it, too, is exhausted.
	LengthBoundedThenExhaust
	// LengthRejected marks a length constraint that failed analysis (an
	// empty "[]" with neither a bound nor "..") so downstream passes can skip it
	// without re-deriving the error.
	LengthRejected
)

// LengthConstraint describes how many elements (or bytes, for byte
// arrays) an array field holds.
type LengthConstraint struct {
	Span       token.Span
	Kind       LengthConstraintKind
	Expandable bool
	Value      Expression // nil for LengthConsumeToEnd
}

// ArrayType is `element[length]`. Element is the whole resolved field
// behind the array's element, not just its type, so a per-element
// transform chain or presence condition survives independently of
// whatever transforms apply to the array as a whole.
type ArrayType struct {
	Span    token.Span
	Element *Field
	Length  LengthConstraint
}

// ContainerType is an ordered sequence of named fields (`container { ... }`
// or an enum/bitfield's underlying representation container, when
// flattened into a view).
type ContainerType struct {
	Span        token.Span
	Fields      []*NamedField
	IsEnum      bool
	FlattenView bool // present the fields inline rather than nested
	Length      Expression
}

// FieldIndex returns the position of name within Fields, or -1.
func (c *ContainerType) FieldIndex(name string) int {
	for i, f := range c.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// NamedField pairs a field name with its Field definition inside a
// container.
type NamedField struct {
	Name  string
	Field *Field
}

// EnumType is `enum rep { name = value, ... }`.
type EnumType struct {
	Span  token.Span
	Rep   ScalarType
	Items []EnumItem
}

// ValueOf returns the resolved integer value for name, if present.
func (e *EnumType) ValueOf(name string) (int64, bool) {
	for _, it := range e.Items {
		if it.Name == name {
			return it.Value, true
		}
	}
	return 0, false
}

// BitfieldType is `bitfield rep { name = value, ... }`; each item's value
// is the bit position's corresponding flag mask bit, not the bit index.
type BitfieldType struct {
	Span  token.Span
	Rep   ScalarType
	Items []EnumItem
}

// EnumItem is one resolved enum or bitfield member.
type EnumItem struct {
	Span  token.Span
	Name  string
	Value int64
}

// ForeignType is a type supplied by an externally registered FFI binding.
type ForeignType struct {
	Span      token.Span
	Name      string
	Arguments []Expression
}

// RefType is a resolved reference to another top-level type declaration,
// with its actual type arguments bound.
type RefType struct {
	Span      token.Span
	Name      string
	Target    *TypeDecl
	Arguments []Expression
}

// TypeDecl is a fully analyzed top-level type declaration.
type TypeDecl struct {
	Span   token.Span
	Name   string
	Params []Input
	Value  *Field
}

// Function is an FFI-bound function usable from expressions.
type Function struct {
	Span      token.Span
	Name      string
	Arguments []FFIArgument
	Return    Type
}

// Transform is an FFI-bound (or built-in prelude) stream transform.
type Transform struct {
	Span      token.Span
	Name      string
	Arguments []FFIArgument
}

// FFIArgument is one formal argument of an FFI transform or function.
type FFIArgument struct {
	Name     string
	Type     *Type // nil if the argument's type is left to the binding
	Optional bool
}
