package ag

import (
	"testing"

	"github.com/ironwell/protospec/pkg/token"
)

func TestPartialTypeReflexiveAssignability(t *testing.T) {
	span := token.Span{}
	cases := []Type{
		ScalarOf(span, U32),
		ScalarOf(span, I8),
		F32Of(span),
		F64Of(span),
		BoolOf(span),
		{Span: span, Kind: KindArray, Array: &ArrayType{Element: scalarField(U8)}},
	}
	for _, typ := range cases {
		hint := ExactOf(typ)
		if !hint.AssignableFrom(typ) {
			t.Errorf("ExactOf(%v) should be assignable from itself", typ.Kind)
		}
	}
}

func TestAnyAcceptsEverything(t *testing.T) {
	hint := Any()
	if !hint.AssignableFrom(ScalarOf(token.Span{}, U8)) {
		t.Errorf("Any() should accept a scalar")
	}
	if !hint.AssignableFrom(BoolOf(token.Span{})) {
		t.Errorf("Any() should accept bool")
	}
}

func TestScalarHintRejectsMismatchedWidth(t *testing.T) {
	hint := ScalarHint(U8)
	if hint.AssignableFrom(ScalarOf(token.Span{}, U32)) {
		t.Errorf("u8 hint should reject u32")
	}
	if !hint.AssignableFrom(ScalarOf(token.Span{}, U8)) {
		t.Errorf("u8 hint should accept u8")
	}
}

func TestAnyScalarAcceptsAnyWidth(t *testing.T) {
	hint := AnyScalar()
	if !hint.AssignableFrom(ScalarOf(token.Span{}, I64)) {
		t.Errorf("AnyScalar() should accept i64")
	}
	if hint.AssignableFrom(BoolOf(token.Span{})) {
		t.Errorf("AnyScalar() should reject bool")
	}
}

func TestArrayHintRecursesIntoElement(t *testing.T) {
	hint := ArrayHint(ScalarHint(U8))
	u8Array := Type{Kind: KindArray, Array: &ArrayType{Element: scalarField(U8)}}
	u32Array := Type{Kind: KindArray, Array: &ArrayType{Element: scalarField(U32)}}
	if !hint.AssignableFrom(u8Array) {
		t.Errorf("array-of-u8 hint should accept array of u8")
	}
	if hint.AssignableFrom(u32Array) {
		t.Errorf("array-of-u8 hint should reject array of u32")
	}
}

func scalarField(s ScalarType) *Field {
	typ := ScalarOf(token.Span{}, s)
	return &Field{Type: &typ}
}
