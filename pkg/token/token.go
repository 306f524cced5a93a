package token

import "fmt"

// Type identifies the lexical category of a Token.
type Type int

// Token types.
const (
	Error Type = iota
	EOF

	// Literals
	Ident
	Int
	Float
	String
	Bool

	// Keywords
	Type_      // type
	Const      // const
	Import     // import
	ImportFFI  // import_ffi
	As         // as
	Transform_ // transform
	Function   // function
	Enum       // enum
	Bitfield   // bitfield
	Container  // container
	From       // from
	Scalar     // scalar type name (i8, u32, f32, bool, ...)

	// Punctuation
	Semicolon    // ;
	Colon        // :
	Comma        // ,
	Equals       // =
	Question     // ?
	Elvis        // ?:
	Arrow        // ->
	CastArrow    // :>
	DotDot       // ..
	Dot          // .
	LParen       // (
	RParen       // )
	LBrace       // {
	RBrace       // }
	LBracket     // [
	RBracket     // ]
	Plus_        // +

	// Operators
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	Amp       // &
	Pipe      // |
	Caret     // ^
	Shl       // <<
	Shr       // >>
	UShr      // >>>
	Bang      // !
	Tilde     // ~
	AmpAmp    // &&
	PipePipe  // ||
	EqEq      // ==
	NotEq     // !=
	Lt        // <
	Gt        // >
	Lte       // <=
	Gte       // >=

	// Comments
	Comment
	DocComment
)

var names = map[Type]string{
	Error: "Error", EOF: "EOF",
	Ident: "Ident", Int: "Int", Float: "Float", String: "String", Bool: "Bool",
	Type_: "type", Const: "const", Import: "import", ImportFFI: "import_ffi",
	As: "as", Transform_: "transform", Function: "function", Enum: "enum",
	Bitfield: "bitfield", Container: "container", From: "from", Scalar: "ScalarType",
	Semicolon: ";", Colon: ":", Comma: ",", Equals: "=", Question: "?", Elvis: "?:",
	Arrow: "->", CastArrow: ":>", DotDot: "..", Dot: ".",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Plus_: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Amp: "&", Pipe: "|", Caret: "^", Shl: "<<", Shr: ">>", UShr: ">>>",
	Bang: "!", Tilde: "~", AmpAmp: "&&", PipePipe: "||",
	EqEq: "==", NotEq: "!=", Lt: "<", Gt: ">", Lte: "<=", Gte: ">=",
	Comment: "Comment", DocComment: "DocComment",
}

// String returns a human-readable name for the token type.
func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", t)
}

// keywords maps reserved words to their token types. Scalar type names
// (i8, u32, f32, bool, ...) are recognized separately by the lexer so their
// literal spelling survives into Token.Value.
var keywords = map[string]Type{
	"type":       Type_,
	"const":      Const,
	"import":     Import,
	"import_ffi": ImportFFI,
	"as":         As,
	"transform":  Transform_,
	"function":   Function,
	"enum":       Enum,
	"bitfield":   Bitfield,
	"container":  Container,
	"from":       From,
	"true":       Bool,
	"false":      Bool,
}

// ScalarNames is the set of built-in scalar type spellings.
var ScalarNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true,
}

// Lookup classifies an identifier as a keyword, scalar type name, or plain
// identifier.
func Lookup(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	if ScalarNames[ident] {
		return Scalar
	}
	return Ident
}

// Token is a single lexical token with its source span.
type Token struct {
	Type  Type
	Value string
	Span  Span
}

// String renders the token for diagnostics/debugging.
func (t Token) String() string {
	if t.Value != "" {
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}
