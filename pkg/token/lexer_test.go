package token

import "testing"

func TestLexerKeywords(t *testing.T) {
	input := "type const import import_ffi as transform function enum bitfield container from true false"
	expected := []Type{
		Type_, Const, Import, ImportFFI, As, Transform_, Function, Enum, Bitfield, Container, From, Bool, Bool,
	}

	lex := NewLexer("t.proto", input)
	for i, want := range expected {
		got := lex.Next()
		if got.Type != want {
			t.Fatalf("token %d: got %s, want %s", i, got.Type, want)
		}
	}
	if eof := lex.Next(); eof.Type != EOF {
		t.Fatalf("expected EOF, got %s", eof.Type)
	}
}

func TestLexerScalarNames(t *testing.T) {
	for name := range ScalarNames {
		lex := NewLexer("t.proto", name)
		tok := lex.Next()
		if tok.Type != Scalar {
			t.Errorf("%s: got %s, want Scalar", name, tok.Type)
		}
		if tok.Value != name {
			t.Errorf("%s: value %q", name, tok.Value)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	cases := []struct {
		input string
		want  Type
	}{
		{"->", Arrow}, {":>", CastArrow}, {"..", DotDot}, {"<<", Shl}, {">>", Shr},
		{">>>", UShr}, {"&&", AmpAmp}, {"||", PipePipe}, {"==", EqEq}, {"!=", NotEq},
		{"<=", Lte}, {">=", Gte}, {"<", Lt}, {">", Gt}, {"!", Bang}, {"~", Tilde},
		{"+", Plus_}, {"-", Minus}, {"*", Star}, {"/", Slash}, {"%", Percent},
		{"&", Amp}, {"|", Pipe}, {"^", Caret}, {"?", Question}, {":", Colon}, {"?:", Elvis},
	}
	for _, c := range cases {
		lex := NewLexer("t.proto", c.input)
		tok := lex.Next()
		if tok.Type != c.want {
			t.Errorf("%q: got %s, want %s", c.input, tok.Type, c.want)
		}
	}
}

func TestLexerIntegerLiterals(t *testing.T) {
	cases := []string{"0", "42", "0x1F", "0b1010", "5u32", "5i64", "0xffu8"}
	for _, in := range cases {
		lex := NewLexer("t.proto", in)
		tok := lex.Next()
		if tok.Type != Int {
			t.Errorf("%q: got %s, want Int", in, tok.Type)
		}
		if tok.Value != in {
			t.Errorf("%q: value %q", in, tok.Value)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	lex := NewLexer("t.proto", `"a\nb\t\"\\\x41B"`)
	tok := lex.Next()
	if tok.Type != String {
		t.Fatalf("got %s, want String", tok.Type)
	}
	want := "a\nb\t\"\\AB"
	if tok.Value != want {
		t.Fatalf("got %q, want %q", tok.Value, want)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	lex := NewLexer("t.proto", `"unterminated`)
	tok := lex.Next()
	if tok.Type != Error {
		t.Fatalf("got %s, want Error", tok.Type)
	}
}

func TestLexerNestedBlockComment(t *testing.T) {
	lex := NewLexer("t.proto", "/* outer /* inner */ still-outer */ type")
	tok := lex.Next()
	if tok.Type != Comment {
		t.Fatalf("got %s, want Comment", tok.Type)
	}
	next := lex.Next()
	if next.Type != Type_ {
		t.Fatalf("got %s, want type keyword after comment", next.Type)
	}
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	lex := NewLexer("t.proto", "/* never closes")
	tok := lex.Next()
	if tok.Type != Error {
		t.Fatalf("got %s, want Error", tok.Type)
	}
}

func TestLexerDocComment(t *testing.T) {
	lex := NewLexer("t.proto", "/// a doc comment\ntype")
	tok := lex.Next()
	if tok.Type != DocComment {
		t.Fatalf("got %s, want DocComment", tok.Type)
	}
	if tok.Value != "a doc comment" {
		t.Fatalf("got %q", tok.Value)
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	lex := NewLexer("t.proto", "@")
	tok := lex.Next()
	if tok.Type != Error {
		t.Fatalf("got %s, want Error", tok.Type)
	}
}

func TestTokenizeCoversSpans(t *testing.T) {
	src := "type T = u32;"
	toks := Tokenize("t.proto", src)
	if toks[len(toks)-1].Type != EOF {
		t.Fatalf("last token should be EOF, got %s", toks[len(toks)-1].Type)
	}
	for i := 0; i < len(toks)-2; i++ {
		if toks[i].Span.End.Offset > toks[i+1].Span.Start.Offset {
			t.Errorf("token %d span overlaps token %d", i, i+1)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lex := NewLexer("t.proto", "type const")
	peeked := lex.Peek()
	if peeked.Type != Type_ {
		t.Fatalf("peek: got %s", peeked.Type)
	}
	next := lex.Next()
	if next.Type != Type_ {
		t.Fatalf("next after peek: got %s", next.Type)
	}
	second := lex.Next()
	if second.Type != Const {
		t.Fatalf("second: got %s", second.Type)
	}
}
