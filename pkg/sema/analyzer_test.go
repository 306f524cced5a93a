package sema

import (
	"errors"
	"testing"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/ast"
	"github.com/ironwell/protospec/pkg/ffi"
)

func analyze(t *testing.T, src string) (*ag.Program, []*AnalysisError) {
	t.Helper()
	prog, errs := ast.ParseFile("t.proto", src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return Analyze(ffi.Prelude{}, "t.proto", prog)
}

func mustAnalyze(t *testing.T, src string) *ag.Program {
	t.Helper()
	prog, errs := analyze(t, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected analysis errors: %v", errs)
	}
	return prog
}

func TestAnalyzeScalarTypeDecl(t *testing.T) {
	prog := mustAnalyze(t, "type Foo = u32;")
	foo, ok := prog.Types["Foo"]
	if !ok {
		t.Fatalf("Foo not registered")
	}
	if foo.Value.Type.Kind != ag.KindScalar || foo.Value.Type.Scalar != ag.U32 {
		t.Fatalf("Foo.Value.Type = %#v", foo.Value.Type)
	}
}

func TestAnalyzeContainerFieldReferencesSibling(t *testing.T) {
	prog := mustAnalyze(t, `
		type Blob = container {
			n: u32;
			data: u8[n];
		};
	`)
	blob := prog.Types["Blob"].Value.Type.Container
	dataField := blob.Fields[blob.FieldIndex("data")].Field
	length := dataField.Type.Array.Length
	ref, ok := length.Value.(*ag.FieldRefExpression)
	if !ok || ref.Name != "n" {
		t.Fatalf("length value = %#v", length.Value)
	}
}

func TestAnalyzeUndefinedTypeFails(t *testing.T) {
	_, errs := analyze(t, "type Bad = Nope;")
	if len(errs) == 0 {
		t.Fatalf("expected an error")
	}
	if !errors.Is(errs[0], ErrUndefined) {
		t.Fatalf("got %v", errs[0])
	}
}

func TestAnalyzeDuplicateTypeFails(t *testing.T) {
	_, errs := analyze(t, "type Foo = u32; type Foo = u8;")
	if len(errs) == 0 || !errors.Is(errs[0], ErrDuplicate) {
		t.Fatalf("got %v", errs)
	}
}

func TestAnalyzeEmptyArrayLengthFails(t *testing.T) {
	parsed, perrs := ast.ParseFile("t.proto", "type Bad = container { data: u8[]; };")
	errCount := len(perrs)
	if errCount == 0 {
		_, aerrs := Analyze(ffi.Prelude{}, "t.proto", parsed)
		errCount = len(aerrs)
	}
	if errCount == 0 {
		t.Fatalf("expected a parse or analysis error for an empty length constraint")
	}
}

func TestAnalyzeTypeArgDefault(t *testing.T) {
	prog := mustAnalyze(t, "type Sized(n: u32 ? 4) = u8[n]; type Wrapped = Sized();")
	wrapped := prog.Types["Wrapped"].Value.Type.Ref
	if len(wrapped.Arguments) != 1 {
		t.Fatalf("expected the default argument to be filled in, got %#v", wrapped.Arguments)
	}
	lit, ok := wrapped.Arguments[0].(*ag.IntExpression)
	if !ok || lit.Value != 4 {
		t.Fatalf("default argument = %#v", wrapped.Arguments[0])
	}
}

func TestAnalyzeRefTooManyArgsFails(t *testing.T) {
	_, errs := analyze(t, "type Sized(n: u32) = u8[n]; type Wrapped = Sized(1, 2);")
	if len(errs) == 0 || !errors.Is(errs[0], ErrWrongArgCount) {
		t.Fatalf("got %v", errs)
	}
}

func TestAnalyzePreludeTransformResolvesWithNoDeclaration(t *testing.T) {
	prog := mustAnalyze(t, "type Payload = u8[..] -> gzip;")
	if _, ok := prog.Transforms["gzip"]; !ok {
		t.Fatalf("gzip should be registered lazily from the prelude")
	}
}

func TestAnalyzeFFIDeclRegistersFunction(t *testing.T) {
	prog := mustAnalyze(t, "import_ffi crc32 as function; const X: u32 = crc32(0u8);")
	if _, ok := prog.Functions["crc32"]; !ok {
		t.Fatalf("crc32 should be registered from the FFI declaration")
	}
}
