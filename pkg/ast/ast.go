// Package ast defines the source-level syntax tree produced by the parser
// (component C2) and the recursive-descent parser itself.
package ast

import "github.com/ironwell/protospec/pkg/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Span
}

// Comment is a doc comment (///) attached to the following declaration.
type Comment struct {
	Span token.Span
	Text string
}

// Program is a parsed schema file.
type Program struct {
	Span  token.Span
	Decls []Decl
}

func (p *Program) Pos() token.Span { return p.Span }

// Decl is implemented by every top-level declaration.
type Decl interface {
	Node
	declNode()
}

// TypeDecl declares a named top-level type: `type NAME(args)? = field;`
type TypeDecl struct {
	Span     token.Span
	Name     string
	Args     []*TypeArg
	Value    *Field
	Comments []*Comment
}

func (d *TypeDecl) Pos() token.Span { return d.Span }
func (*TypeDecl) declNode()         {}

// TypeArg is one formal argument of a parameterized top-level type.
type TypeArg struct {
	Span    token.Span
	Name    string
	Type    TypeExpr
	Default Expr // from '?' expression, optional
}

// ConstDecl declares a named constant: `const NAME: type = expr;`
type ConstDecl struct {
	Span     token.Span
	Name     string
	Type     TypeExpr
	Value    Expr
	Comments []*Comment
}

func (d *ConstDecl) Pos() token.Span { return d.Span }
func (*ConstDecl) declNode()         {}

// ImportDecl imports one or more names from another schema file:
// `import a, b as c from "path";`
type ImportDecl struct {
	Span  token.Span
	Items []ImportItem
	From  string
}

func (d *ImportDecl) Pos() token.Span { return d.Span }
func (*ImportDecl) declNode()         {}

// ImportItem is one imported name, with an optional alias.
type ImportItem struct {
	Span  token.Span
	Name  string
	Alias string
}

// FFIKind distinguishes the three kinds of FFI declaration.
type FFIKind int

const (
	FFITransform FFIKind = iota
	FFIType
	FFIFunction
)

func (k FFIKind) String() string {
	switch k {
	case FFITransform:
		return "transform"
	case FFIType:
		return "type"
	case FFIFunction:
		return "function"
	default:
		return "unknown"
	}
}

// FFIDecl declares an externally supplied binding:
// `import_ffi NAME as (transform|type|function);`
type FFIDecl struct {
	Span Span
	Name string
	Kind FFIKind
}

func (d *FFIDecl) Pos() token.Span { return d.Span }
func (*FFIDecl) declNode()         {}

// Span is a convenience alias so FFIDecl's field type reads naturally; it is
// identical to token.Span.
type Span = token.Span

// Field is the source-level shape parsed for a type declaration's value,
// an array element, or a container member: a type followed by modifier
// flags, an optional presence condition, and a chain of stream transforms,
// optionally repeated through one or more trailing array-length brackets.
type Field struct {
	Span       token.Span
	Type       TypeExpr
	Flags      []string
	Condition  Expr
	Transforms []*TransformCall
	Calculated Expr // present when the field is a computed virtual field
	Comments   []*Comment
}

func (f *Field) Pos() token.Span { return f.Span }

// TransformCall is one `-> name(args)? { cond }?` stream transform
// application.
type TransformCall struct {
	Span      token.Span
	Name      string
	Args      []Expr
	Condition Expr
}

// TypeExpr is implemented by every source-level type expression.
type TypeExpr interface {
	Node
	typeExprNode()
}

// ScalarTypeExpr names a built-in scalar (i8..u128) or f32/f64/bool.
type ScalarTypeExpr struct {
	Span token.Span
	Name string
}

func (t *ScalarTypeExpr) Pos() token.Span { return t.Span }
func (*ScalarTypeExpr) typeExprNode()     {}

// ContainerTypeExpr is `container { field*; }`.
type ContainerTypeExpr struct {
	Span   token.Span
	Fields []*NamedField
	Length Expr // optional container-level byte length bound
}

func (t *ContainerTypeExpr) Pos() token.Span { return t.Span }
func (*ContainerTypeExpr) typeExprNode()     {}

// NamedField is one `name: field;` entry inside a container.
type NamedField struct {
	Span  token.Span
	Name  string
	Field *Field
}

// EnumTypeExpr is `enum rep { item (= value)?, ... }`.
type EnumTypeExpr struct {
	Span  token.Span
	Rep   TypeExpr
	Items []*EnumItem
}

func (t *EnumTypeExpr) Pos() token.Span { return t.Span }
func (*EnumTypeExpr) typeExprNode()     {}

// BitfieldTypeExpr is `bitfield rep { item (= value)?, ... }`.
type BitfieldTypeExpr struct {
	Span  token.Span
	Rep   TypeExpr
	Items []*EnumItem
}

func (t *BitfieldTypeExpr) Pos() token.Span { return t.Span }
func (*BitfieldTypeExpr) typeExprNode()     {}

// EnumItem is one enum/bitfield member, with an optional explicit value.
type EnumItem struct {
	Span     token.Span
	Name     string
	Value    Expr
	Comments []*Comment
}

// ArrayTypeExpr is `elem '[' length_constraint ']'`. Element is the whole
// field that precedes the bracket, not just its type, so a per-element
// condition or transform chain (`u8 -> zigzag[len]`) stays attached to the
// element rather than leaking onto the array as a whole.
type ArrayTypeExpr struct {
	Span    token.Span
	Element *Field
	Length  *LengthConstraintExpr
}

func (t *ArrayTypeExpr) Pos() token.Span { return t.Span }
func (*ArrayTypeExpr) typeExprNode()     {}

// LengthConstraintExpr is `'..'? expression?`.
type LengthConstraintExpr struct {
	Span       token.Span
	Expandable bool
	Value      Expr // nil if absent
}

// RefTypeExpr is a reference to a named top-level type, with optional
// actual type arguments: `IDENT('(' args ')')?`.
type RefTypeExpr struct {
	Span token.Span
	Name string
	Args []Expr
}

func (t *RefTypeExpr) Pos() token.Span { return t.Span }
func (*RefTypeExpr) typeExprNode()     {}

// Expr is implemented by every source-level expression.
type Expr interface {
	Node
	exprNode()
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd_
	OpOr_
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpEq
	OpNe
	OpLt
	OpGt
	OpLte
	OpGte
	OpElvis
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpAnd_:
		return "&&"
	case OpOr_:
		return "||"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpUShr:
		return ">>>"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLte:
		return "<="
	case OpGte:
		return ">="
	case OpElvis:
		return "?:"
	default:
		return "?"
	}
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	default:
		return "?"
	}
}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Span  token.Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) Pos() token.Span { return e.Span }
func (*BinaryExpr) exprNode()         {}

// UnaryExpr is `op inner`.
type UnaryExpr struct {
	Span  token.Span
	Op    UnaryOp
	Inner Expr
}

func (e *UnaryExpr) Pos() token.Span { return e.Span }
func (*UnaryExpr) exprNode()         {}

// CastExpr is `inner :> target`.
type CastExpr struct {
	Span   token.Span
	Inner  Expr
	Target TypeExpr
}

func (e *CastExpr) Pos() token.Span { return e.Span }
func (*CastExpr) exprNode()         {}

// TernaryExpr is `cond ? ifTrue : ifFalse`.
type TernaryExpr struct {
	Span    token.Span
	Cond    Expr
	IfTrue  Expr
	IfFalse Expr
}

func (e *TernaryExpr) Pos() token.Span { return e.Span }
func (*TernaryExpr) exprNode()         {}

// ArrayIndexExpr is `array '[' index ']'`.
type ArrayIndexExpr struct {
	Span  token.Span
	Array Expr
	Index Expr
}

func (e *ArrayIndexExpr) Pos() token.Span { return e.Span }
func (*ArrayIndexExpr) exprNode()         {}

// MemberExpr is `target '.' name`: either an enum/bitfield variant access
// (`Enum.variant`) or a bitfield member-presence test (`x.bit`); the
// semantic analyzer disambiguates based on what `target` resolves to.
type MemberExpr struct {
	Span   token.Span
	Target Expr
	Name   string
}

func (e *MemberExpr) Pos() token.Span { return e.Span }
func (*MemberExpr) exprNode()         {}

// CallExpr is `name '(' args ')'`.
type CallExpr struct {
	Span token.Span
	Name string
	Args []Expr
}

func (e *CallExpr) Pos() token.Span { return e.Span }
func (*CallExpr) exprNode()         {}

// IntLit is an integer literal with an optional scalar suffix (e.g. 5u32).
type IntLit struct {
	Span   token.Span
	Text   string // the digits, without suffix, as written (may have 0x/0b prefix)
	Suffix string // e.g. "u32"; empty if unsuffixed
}

func (e *IntLit) Pos() token.Span { return e.Span }
func (*IntLit) exprNode()         {}

// StrLit is a string literal, already escape-decoded by the lexer.
type StrLit struct {
	Span  token.Span
	Value string
}

func (e *StrLit) Pos() token.Span { return e.Span }
func (*StrLit) exprNode()         {}

// BoolLit is a boolean literal.
type BoolLit struct {
	Span  token.Span
	Value bool
}

func (e *BoolLit) Pos() token.Span { return e.Span }
func (*BoolLit) exprNode()         {}

// IdentExpr is a bare identifier reference, resolved later to a field,
// input, or constant.
type IdentExpr struct {
	Span token.Span
	Name string
}

func (e *IdentExpr) Pos() token.Span { return e.Span }
func (*IdentExpr) exprNode()         {}
