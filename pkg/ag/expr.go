package ag

import "github.com/ironwell/protospec/pkg/token"

// Expression is implemented by every resolved AG expression node. Every
// variant carries its own resolved Type so the planner never has to
// re-derive one.
type Expression interface {
	Pos() token.Span
	GetType() Type
}

// BinaryOp mirrors ast.BinaryOp, redeclared here so the AG has no
// dependency on the parser's token spellings.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
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

// UnaryOp mirrors ast.UnaryOp.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

// BinaryExpression is `left op right`.
type BinaryExpression struct {
	Span  token.Span
	Op    BinaryOp
	Left  Expression
	Right Expression
	Typ   Type
}

func (e *BinaryExpression) Pos() token.Span { return e.Span }
func (e *BinaryExpression) GetType() Type   { return e.Typ }

// UnaryExpression is `op inner`.
type UnaryExpression struct {
	Span  token.Span
	Op    UnaryOp
	Inner Expression
	Typ   Type
}

func (e *UnaryExpression) Pos() token.Span { return e.Span }
func (e *UnaryExpression) GetType() Type   { return e.Typ }

// CastExpression is `inner :> target`.
type CastExpression struct {
	Span   token.Span
	Inner  Expression
	Target Type
}

func (e *CastExpression) Pos() token.Span { return e.Span }
func (e *CastExpression) GetType() Type   { return e.Target }

// ArrayIndexExpression is `array[index]`.
type ArrayIndexExpression struct {
	Span    token.Span
	Array   Expression
	Index   Expression
	Element Type
}

func (e *ArrayIndexExpression) Pos() token.Span { return e.Span }
func (e *ArrayIndexExpression) GetType() Type   { return e.Element }

// EnumAccessExpression is `Enum.variant`, resolving to the enum's
// representation scalar value carrying the variant's tag.
type EnumAccessExpression struct {
	Span  token.Span
	Enum  *EnumType
	Item  string
	Value int64
}

func (e *EnumAccessExpression) Pos() token.Span { return e.Span }
func (e *EnumAccessExpression) GetType() Type {
	return ScalarOf(e.Span, e.Enum.Rep)
}

// MemberExpression is `x.name`, a bitfield flag-presence test resolving to
// bool.
type MemberExpression struct {
	Span     token.Span
	Target   Expression
	Bitfield *BitfieldType
	Name     string
}

func (e *MemberExpression) Pos() token.Span { return e.Span }
func (e *MemberExpression) GetType() Type   { return BoolOf(e.Span) }

// TernaryExpression is `cond ? ifTrue : ifFalse`.
type TernaryExpression struct {
	Span    token.Span
	Cond    Expression
	IfTrue  Expression
	IfFalse Expression
	Typ     Type
}

func (e *TernaryExpression) Pos() token.Span { return e.Span }
func (e *TernaryExpression) GetType() Type   { return e.Typ }

// CallExpression is a resolved call to a built-in or FFI function.
type CallExpression struct {
	Span      token.Span
	Function  *Function
	Arguments []Expression
}

func (e *CallExpression) Pos() token.Span { return e.Span }
func (e *CallExpression) GetType() Type   { return e.Function.Return }

// IntExpression is a resolved integer literal.
type IntExpression struct {
	Span  token.Span
	Value int64
	Typ   Type
}

func (e *IntExpression) Pos() token.Span { return e.Span }
func (e *IntExpression) GetType() Type   { return e.Typ }

// StrExpression is a string literal, used only in FFI/transform argument
// position (never part of the wire representation).
type StrExpression struct {
	Span  token.Span
	Value string
}

func (e *StrExpression) Pos() token.Span { return e.Span }
func (e *StrExpression) GetType() Type   { return Type{Span: e.Span, Kind: KindForeign, Foreign: &ForeignType{Name: "string"}} }

// BoolExpression is a resolved boolean literal.
type BoolExpression struct {
	Span  token.Span
	Value bool
}

func (e *BoolExpression) Pos() token.Span { return e.Span }
func (e *BoolExpression) GetType() Type   { return BoolOf(e.Span) }

// FieldRefExpression refers to a sibling (or ancestor, for nested
// containers) field by name.
type FieldRefExpression struct {
	Span  token.Span
	Name  string
	Field *Field
}

func (e *FieldRefExpression) Pos() token.Span { return e.Span }
func (e *FieldRefExpression) GetType() Type   { return *e.Field.Type }

// InputRefExpression refers to a type/transform/function's formal
// argument.
type InputRefExpression struct {
	Span  token.Span
	Input *Input
}

func (e *InputRefExpression) Pos() token.Span { return e.Span }
func (e *InputRefExpression) GetType() Type   { return e.Input.Type }

// ConstRefExpression refers to a top-level const declaration.
type ConstRefExpression struct {
	Span  token.Span
	Const *Const
}

func (e *ConstRefExpression) Pos() token.Span { return e.Span }
func (e *ConstRefExpression) GetType() Type   { return e.Const.Type }
