package ag

// PartialKind discriminates the PartialType union used during bidirectional
// type inference: a context can demand any type, an exact type, some
// scalar (possibly undetermined), or an array of some element shape
// (possibly undetermined).
type PartialKind int

const (
	PartialAny PartialKind = iota
	PartialExact
	PartialScalar
	PartialArray
)

// PartialType is a type hint flowing down into an expression being
// resolved: expressions without enough local information (bare integer
// literals, `..` array lengths) consult it to pick a concrete Type.
type PartialType struct {
	Kind PartialKind

	Exact Type // PartialExact

	Scalar   *ScalarType  // PartialScalar; nil means "any scalar"
	ArrayOf  *PartialType // PartialArray; nil means "any element"
}

// Any is the hint used when no context constrains the expression's type.
func Any() PartialType { return PartialType{Kind: PartialAny} }

// ExactOf hints that the expression must produce exactly t.
func ExactOf(t Type) PartialType { return PartialType{Kind: PartialExact, Exact: t} }

// AnyScalar hints that the expression must produce some scalar integer,
// kind undetermined.
func AnyScalar() PartialType { return PartialType{Kind: PartialScalar} }

// ScalarHint hints that the expression must produce exactly scalar type s.
func ScalarHint(s ScalarType) PartialType {
	return PartialType{Kind: PartialScalar, Scalar: &s}
}

// ArrayHint hints that the expression must produce an array whose elements
// satisfy elem.
func ArrayHint(elem PartialType) PartialType {
	return PartialType{Kind: PartialArray, ArrayOf: &elem}
}

// AssignableFrom reports whether a value of type t may satisfy this hint.
func (p PartialType) AssignableFrom(t Type) bool {
	switch p.Kind {
	case PartialAny:
		return true
	case PartialExact:
		return typesEqual(p.Exact, t)
	case PartialScalar:
		if t.Kind != KindScalar {
			return false
		}
		return p.Scalar == nil || *p.Scalar == t.Scalar
	case PartialArray:
		if t.Kind != KindArray {
			return false
		}
		if p.ArrayOf == nil {
			return true
		}
		return p.ArrayOf.AssignableFrom(*t.Array.Element.Type)
	default:
		return false
	}
}

// typesEqual compares two Types for the structural equality PartialExact
// needs. It intentionally ignores Span: source position never affects
// assignability.
func typesEqual(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindScalar:
		return a.Scalar == b.Scalar
	case KindF32, KindF64, KindBool:
		return true
	case KindArray:
		if a.Array == nil || b.Array == nil {
			return a.Array == b.Array
		}
		return typesEqual(*a.Array.Element.Type, *b.Array.Element.Type)
	case KindContainer:
		return a.Container == b.Container
	case KindEnum:
		return a.Enum == b.Enum
	case KindBitfield:
		return a.Bitfield == b.Bitfield
	case KindForeign:
		if a.Foreign == nil || b.Foreign == nil {
			return a.Foreign == b.Foreign
		}
		return a.Foreign.Name == b.Foreign.Name
	case KindRef:
		if a.Ref == nil || b.Ref == nil {
			return a.Ref == b.Ref
		}
		return a.Ref.Target == b.Ref.Target
	default:
		return false
	}
}
