package ast

import "testing"

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, errs := ParseFile("t.proto", src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return prog
}

func TestParseScalarTypeDecl(t *testing.T) {
	prog := mustParse(t, "type Foo = u32;")
	if len(prog.Decls) != 1 {
		t.Fatalf("got %d decls", len(prog.Decls))
	}
	decl, ok := prog.Decls[0].(*TypeDecl)
	if !ok {
		t.Fatalf("got %T", prog.Decls[0])
	}
	if decl.Name != "Foo" {
		t.Fatalf("name = %q", decl.Name)
	}
	scalar, ok := decl.Value.Type.(*ScalarTypeExpr)
	if !ok || scalar.Name != "u32" {
		t.Fatalf("value type = %#v", decl.Value.Type)
	}
}

func TestParseContainerWithFields(t *testing.T) {
	prog := mustParse(t, `
		type Header = container {
			magic: u32;
			version: u8 { magic == 1 };
			payload: u8[len];
		};
	`)
	decl := prog.Decls[0].(*TypeDecl)
	cont := decl.Value.Type.(*ContainerTypeExpr)
	if len(cont.Fields) != 3 {
		t.Fatalf("got %d fields", len(cont.Fields))
	}
	if cont.Fields[0].Name != "magic" {
		t.Fatalf("field 0 = %q", cont.Fields[0].Name)
	}
	versionField := cont.Fields[1].Field
	if versionField.Condition == nil {
		t.Fatalf("expected a presence condition on version")
	}
	arr, ok := cont.Fields[2].Field.Type.(*ArrayTypeExpr)
	if !ok {
		t.Fatalf("payload type = %#v", cont.Fields[2].Field.Type)
	}
	if arr.Length.Value == nil || arr.Length.Expandable {
		t.Fatalf("length constraint = %#v", arr.Length)
	}
}

func TestParseArrayExpandableLength(t *testing.T) {
	prog := mustParse(t, "type Blob = u8[..];")
	decl := prog.Decls[0].(*TypeDecl)
	arr := decl.Value.Type.(*ArrayTypeExpr)
	if !arr.Length.Expandable || arr.Length.Value != nil {
		t.Fatalf("length = %#v", arr.Length)
	}
}

func TestParseNestedArray(t *testing.T) {
	prog := mustParse(t, "type Matrix = u8[4][rows];")
	decl := prog.Decls[0].(*TypeDecl)
	outer := decl.Value.Type.(*ArrayTypeExpr)
	inner, ok := outer.Element.Type.(*ArrayTypeExpr)
	if !ok {
		t.Fatalf("element = %#v", outer.Element.Type)
	}
	if _, ok := inner.Element.Type.(*ScalarTypeExpr); !ok {
		t.Fatalf("innermost element = %#v", inner.Element.Type)
	}
}

func TestParseEnumDecl(t *testing.T) {
	prog := mustParse(t, `
		type Color = enum u8 {
			red = 0,
			green,
			blue,
		};
	`)
	decl := prog.Decls[0].(*TypeDecl)
	en := decl.Value.Type.(*EnumTypeExpr)
	if len(en.Items) != 3 {
		t.Fatalf("got %d items", len(en.Items))
	}
	if en.Items[0].Value == nil {
		t.Fatalf("first item must carry an explicit value")
	}
	if en.Items[1].Value != nil || en.Items[2].Value != nil {
		t.Fatalf("later items should default, got %#v %#v", en.Items[1].Value, en.Items[2].Value)
	}
}

func TestParseBitfieldDecl(t *testing.T) {
	prog := mustParse(t, `
		type Flags = bitfield u8 {
			readable = 1,
			writable,
			executable,
		};
	`)
	decl := prog.Decls[0].(*TypeDecl)
	bf := decl.Value.Type.(*BitfieldTypeExpr)
	if len(bf.Items) != 3 {
		t.Fatalf("got %d items", len(bf.Items))
	}
}

func TestParseTransformChain(t *testing.T) {
	prog := mustParse(t, "type Payload = u8[..] -> gzip -> base64(true);")
	decl := prog.Decls[0].(*TypeDecl)
	if len(decl.Value.Transforms) != 2 {
		t.Fatalf("got %d transforms", len(decl.Value.Transforms))
	}
	if decl.Value.Transforms[0].Name != "gzip" {
		t.Fatalf("transform 0 = %q", decl.Value.Transforms[0].Name)
	}
	if decl.Value.Transforms[1].Name != "base64" || len(decl.Value.Transforms[1].Args) != 1 {
		t.Fatalf("transform 1 = %#v", decl.Value.Transforms[1])
	}
}

func TestParseTernaryExpression(t *testing.T) {
	prog := mustParse(t, "const X: u8 = flag ? 1 : 0;")
	decl := prog.Decls[0].(*ConstDecl)
	tern, ok := decl.Value.(*TernaryExpr)
	if !ok {
		t.Fatalf("got %T", decl.Value)
	}
	if _, ok := tern.Cond.(*IdentExpr); !ok {
		t.Fatalf("cond = %#v", tern.Cond)
	}
}

func TestParseElvisExpression(t *testing.T) {
	prog := mustParse(t, "const X: u8 = a ?: b;")
	decl := prog.Decls[0].(*ConstDecl)
	bin, ok := decl.Value.(*BinaryExpr)
	if !ok || bin.Op != OpElvis {
		t.Fatalf("got %#v", decl.Value)
	}
}

func TestParseCastExpression(t *testing.T) {
	prog := mustParse(t, "const X: u32 = a :> u32;")
	decl := prog.Decls[0].(*ConstDecl)
	cast, ok := decl.Value.(*CastExpr)
	if !ok {
		t.Fatalf("got %T", decl.Value)
	}
	if _, ok := cast.Target.(*ScalarTypeExpr); !ok {
		t.Fatalf("target = %#v", cast.Target)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	// '+' binds tighter than '<<', which binds tighter than '=='.
	prog := mustParse(t, "const X: bool = a + b << c == d;")
	decl := prog.Decls[0].(*ConstDecl)
	eq, ok := decl.Value.(*BinaryExpr)
	if !ok || eq.Op != OpEq {
		t.Fatalf("top = %#v", decl.Value)
	}
	shift, ok := eq.Left.(*BinaryExpr)
	if !ok || shift.Op != OpShl {
		t.Fatalf("left of == = %#v", eq.Left)
	}
	add, ok := shift.Left.(*BinaryExpr)
	if !ok || add.Op != OpAdd {
		t.Fatalf("left of << = %#v", shift.Left)
	}
}

func TestParseMemberAndEnumAccess(t *testing.T) {
	prog := mustParse(t, "const X: bool = Color.red;")
	decl := prog.Decls[0].(*ConstDecl)
	member, ok := decl.Value.(*MemberExpr)
	if !ok || member.Name != "red" {
		t.Fatalf("got %#v", decl.Value)
	}
	if _, ok := member.Target.(*IdentExpr); !ok {
		t.Fatalf("target = %#v", member.Target)
	}
}

func TestParseArrayIndexExpression(t *testing.T) {
	prog := mustParse(t, "const X: u8 = items[0];")
	decl := prog.Decls[0].(*ConstDecl)
	idx, ok := decl.Value.(*ArrayIndexExpr)
	if !ok {
		t.Fatalf("got %T", decl.Value)
	}
	if _, ok := idx.Index.(*IntLit); !ok {
		t.Fatalf("index = %#v", idx.Index)
	}
}

func TestParseFunctionCall(t *testing.T) {
	prog := mustParse(t, "const X: u32 = len(items);")
	decl := prog.Decls[0].(*ConstDecl)
	call, ok := decl.Value.(*CallExpr)
	if !ok || call.Name != "len" || len(call.Args) != 1 {
		t.Fatalf("got %#v", decl.Value)
	}
}

func TestParseIntSuffix(t *testing.T) {
	prog := mustParse(t, "const X: u32 = 5u32;")
	decl := prog.Decls[0].(*ConstDecl)
	lit, ok := decl.Value.(*IntLit)
	if !ok {
		t.Fatalf("got %T", decl.Value)
	}
	if lit.Text != "5" || lit.Suffix != "u32" {
		t.Fatalf("got text=%q suffix=%q", lit.Text, lit.Suffix)
	}
}

func TestParseHexIntSuffix(t *testing.T) {
	prog := mustParse(t, "const X: u8 = 0xffu8;")
	decl := prog.Decls[0].(*ConstDecl)
	lit := decl.Value.(*IntLit)
	if lit.Text != "0xff" || lit.Suffix != "u8" {
		t.Fatalf("got text=%q suffix=%q", lit.Text, lit.Suffix)
	}
}

func TestParseTypeArgsWithDefault(t *testing.T) {
	prog := mustParse(t, "type Sized(n: u32 ? 0) = u8[n];")
	decl := prog.Decls[0].(*TypeDecl)
	if len(decl.Args) != 1 {
		t.Fatalf("got %d args", len(decl.Args))
	}
	if decl.Args[0].Name != "n" || decl.Args[0].Default == nil {
		t.Fatalf("arg = %#v", decl.Args[0])
	}
}

func TestParseImportDecl(t *testing.T) {
	prog := mustParse(t, `import Header, Footer as Tail from "common.proto";`)
	imp := prog.Decls[0].(*ImportDecl)
	if len(imp.Items) != 2 || imp.From != "common.proto" {
		t.Fatalf("got %#v", imp)
	}
	if imp.Items[1].Alias != "Tail" {
		t.Fatalf("alias = %q", imp.Items[1].Alias)
	}
}

func TestParseFFIDecl(t *testing.T) {
	prog := mustParse(t, "import_ffi crc32 as function;")
	ffi := prog.Decls[0].(*FFIDecl)
	if ffi.Name != "crc32" || ffi.Kind != FFIFunction {
		t.Fatalf("got %#v", ffi)
	}
}

func TestParseAutoAndPadFlags(t *testing.T) {
	prog := mustParse(t, `
		type Framed = container {
			length: u32 auto;
			reserved: u8 pad;
			body: u8[length];
		};
	`)
	decl := prog.Decls[0].(*TypeDecl)
	cont := decl.Value.Type.(*ContainerTypeExpr)
	if len(cont.Fields[0].Field.Flags) != 1 || cont.Fields[0].Field.Flags[0] != "auto" {
		t.Fatalf("length flags = %#v", cont.Fields[0].Field.Flags)
	}
	if len(cont.Fields[1].Field.Flags) != 1 || cont.Fields[1].Field.Flags[0] != "pad" {
		t.Fatalf("reserved flags = %#v", cont.Fields[1].Field.Flags)
	}
}

func TestParseRefTypeWithArgs(t *testing.T) {
	prog := mustParse(t, "type Wrapped = Sized(16);")
	decl := prog.Decls[0].(*TypeDecl)
	ref, ok := decl.Value.Type.(*RefTypeExpr)
	if !ok || ref.Name != "Sized" || len(ref.Args) != 1 {
		t.Fatalf("got %#v", decl.Value.Type)
	}
}

func TestParseErrorRecoversAtNextDecl(t *testing.T) {
	prog, errs := ParseFile("t.proto", "type ??? broken;\ntype Good = u32;")
	if len(errs) == 0 {
		t.Fatalf("expected at least one error")
	}
	if len(prog.Decls) != 1 {
		t.Fatalf("expected only the declaration after the error to be recovered, got %d", len(prog.Decls))
	}
	if decl, ok := prog.Decls[0].(*TypeDecl); !ok || decl.Name != "Good" {
		t.Fatalf("recovered declaration = %#v", prog.Decls[0])
	}
}

func TestParseDocCommentsAttached(t *testing.T) {
	prog := mustParse(t, "/// describes a header\ntype Header = u32;")
	decl := prog.Decls[0].(*TypeDecl)
	if len(decl.Comments) != 1 || decl.Comments[0].Text != "describes a header" {
		t.Fatalf("comments = %#v", decl.Comments)
	}
}
