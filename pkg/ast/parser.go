package ast

import (
	"fmt"
	"strings"

	"github.com/ironwell/protospec/pkg/token"
)

// Parser parses ProtoSpec schema source into a Program.
type Parser struct {
	lexer    *token.Lexer
	current  token.Token
	previous token.Token
	errors   []ParseError
	comments []*Comment
}

// ParseError is a single recoverable parse failure.
type ParseError struct {
	Span    token.Span
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// NewParser creates a parser over the named file's source text.
func NewParser(file, input string) *Parser {
	p := &Parser{lexer: token.NewLexer(file, input)}
	p.advance()
	return p
}

// ParseFile parses a complete schema file, returning every declaration it
// could recover along with any errors encountered.
func ParseFile(file, input string) (*Program, []ParseError) {
	p := NewParser(file, input)
	return p.Parse()
}

// Parse parses the whole token stream into a Program.
func (p *Parser) Parse() (*Program, []ParseError) {
	start := p.current.Span
	prog := &Program{Span: start}

	for !p.check(token.EOF) {
		docs := p.collectComments()
		if p.check(token.EOF) {
			break
		}
		decl, err := p.parseDecl(docs)
		if err != nil {
			p.errors = append(p.errors, *err)
			p.synchronize()
			continue
		}
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}

	prog.Span = prog.Span.Sum(p.previous.Span)
	return prog, p.errors
}

func (p *Parser) parseDecl(docs []*Comment) (Decl, *ParseError) {
	switch p.current.Type {
	case token.Type_:
		return p.parseTypeDecl(docs)
	case token.Const:
		return p.parseConstDecl(docs)
	case token.Import:
		return p.parseImportDecl()
	case token.ImportFFI:
		return p.parseFFIDecl()
	default:
		e := p.error(fmt.Sprintf("unexpected token at top level: %s", p.current.Type))
		p.advance()
		return nil, e
	}
}

// parseTypeDecl parses `type NAME(args)? = field;`.
func (p *Parser) parseTypeDecl(docs []*Comment) (*TypeDecl, *ParseError) {
	start := p.current.Span
	p.advance() // 'type'

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var args []*TypeArg
	if p.match(token.LParen) {
		for !p.check(token.RParen) {
			argStart := p.current.Span
			argName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.consume(token.Colon, "expected ':' after argument name"); err != nil {
				return nil, err
			}
			argType, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			var def Expr
			if p.match(token.Question) {
				def, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			args = append(args, &TypeArg{Span: argStart, Name: argName, Type: argType, Default: def})
			if !p.match(token.Comma) {
				if err := p.consume(token.RParen, "expected ')' after type arguments"); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	if err := p.consume(token.Equals, "expected '=' in type declaration"); err != nil {
		return nil, err
	}

	value, err := p.parseField()
	if err != nil {
		return nil, err
	}

	if err := p.consume(token.Semicolon, "expected ';' after type declaration"); err != nil {
		return nil, err
	}

	return &TypeDecl{
		Span:     start.Sum(value.Span),
		Name:     name,
		Args:     args,
		Value:    value,
		Comments: docs,
	}, nil
}

// parseConstDecl parses `const NAME: type = expr;`.
func (p *Parser) parseConstDecl(docs []*Comment) (*ConstDecl, *ParseError) {
	start := p.current.Span
	p.advance() // 'const'

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.consume(token.Colon, "expected ':' after const name"); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	if err := p.consume(token.Equals, "expected '=' in const declaration"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.consume(token.Semicolon, "expected ';' after const declaration"); err != nil {
		return nil, err
	}
	return &ConstDecl{Span: start.Sum(value.Pos()), Name: name, Type: typ, Value: value, Comments: docs}, nil
}

// parseImportDecl parses `import a, b as c from "path";`.
func (p *Parser) parseImportDecl() (*ImportDecl, *ParseError) {
	start := p.current.Span
	p.advance() // 'import'

	var items []ImportItem
	for {
		itemStart := p.current.Span
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		alias := name
		if p.match(token.As) {
			alias, err = p.expectIdent()
			if err != nil {
				return nil, err
			}
		}
		items = append(items, ImportItem{Span: itemStart, Name: name, Alias: alias})
		if !p.match(token.Comma) {
			break
		}
	}

	if err := p.consume(token.From, "expected 'from' in import declaration"); err != nil {
		return nil, err
	}
	path, err := p.expectString()
	if err != nil {
		return nil, err
	}
	end := p.current.Span
	if err := p.consume(token.Semicolon, "expected ';' after import declaration"); err != nil {
		return nil, err
	}
	return &ImportDecl{Span: start.Sum(end), Items: items, From: path}, nil
}

// parseFFIDecl parses `import_ffi NAME as (transform|type|function);`.
func (p *Parser) parseFFIDecl() (*FFIDecl, *ParseError) {
	start := p.current.Span
	p.advance() // 'import_ffi'

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.consume(token.As, "expected 'as' in import_ffi declaration"); err != nil {
		return nil, err
	}
	var kind FFIKind
	switch p.current.Type {
	case token.Transform_:
		kind = FFITransform
	case token.Type_:
		kind = FFIType
	case token.Function:
		kind = FFIFunction
	default:
		return nil, p.error(fmt.Sprintf("unknown FFI kind %q, expected transform, type, or function", p.current.Value))
	}
	p.advance()
	end := p.current.Span
	if err := p.consume(token.Semicolon, "expected ';' after import_ffi declaration"); err != nil {
		return nil, err
	}
	return &FFIDecl{Span: start.Sum(end), Name: name, Kind: kind}, nil
}

// parseField parses a type, optionally followed by flags, a presence
// condition, a chain of transforms, and zero or more trailing array-length
// brackets building nested array types from the outside in.
func (p *Parser) parseField() (*Field, *ParseError) {
	start := p.current.Span

	typ, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}

	flags, cond, transforms, err := p.parseConditionAndTransforms()
	if err != nil {
		return nil, err
	}

	out := &Field{Span: start, Type: typ, Flags: flags, Condition: cond, Transforms: transforms}
	out.Span = p.fieldSpan(start, out)

	for p.match(token.LBracket) {
		length, err := p.parseLengthConstraint()
		if err != nil {
			return nil, err
		}
		if err := p.consume(token.RBracket, "expected ']' after array length"); err != nil {
			return nil, err
		}

		flags, cond, transforms, err := p.parseConditionAndTransforms()
		if err != nil {
			return nil, err
		}

		arr := &ArrayTypeExpr{Span: start.Sum(p.previous.Span), Element: out, Length: length}
		next := &Field{Span: start, Type: arr, Flags: flags, Condition: cond, Transforms: transforms}
		next.Span = p.fieldSpan(start, next)
		out = next
	}

	return out, nil
}

func (p *Parser) fieldSpan(start token.Span, f *Field) token.Span {
	s := start
	if len(f.Transforms) > 0 {
		s = s.Sum(f.Transforms[len(f.Transforms)-1].Span)
	} else if f.Condition != nil {
		s = s.Sum(f.Condition.Pos())
	}
	return s
}

// parseConditionAndTransforms parses the optional modifier flags (`+name`,
// or a bare `auto`/`pad`), `{ cond }` presence clause, and chain of
// `-> name(args)? { cond }?` transforms that can follow any type in a field.
func (p *Parser) parseConditionAndTransforms() ([]string, Expr, []*TransformCall, *ParseError) {
	var flags []string
	for {
		if p.match(token.Plus_) {
			name, err := p.expectIdent()
			if err != nil {
				return nil, nil, nil, err
			}
			flags = append(flags, name)
			continue
		}
		if !p.check(token.Ident) || !isFlagKeyword(p.current.Value) {
			break
		}
		flags = append(flags, p.current.Value)
		p.advance()
	}

	cond, err := p.parseConditionalClause()
	if err != nil {
		return nil, nil, nil, err
	}

	var transforms []*TransformCall
	for p.match(token.Arrow) {
		tStart := p.previous.Span
		name, err := p.expectIdent()
		if err != nil {
			return nil, nil, nil, err
		}
		var args []Expr
		if p.match(token.LParen) {
			for !p.check(token.RParen) {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, nil, nil, err
				}
				args = append(args, arg)
				if !p.match(token.Comma) {
					break
				}
			}
			if err := p.consume(token.RParen, "expected ')' after transform arguments"); err != nil {
				return nil, nil, nil, err
			}
		}
		tCond, err := p.parseConditionalClause()
		if err != nil {
			return nil, nil, nil, err
		}
		end := p.previous.Span
		transforms = append(transforms, &TransformCall{Span: tStart.Sum(end), Name: name, Args: args, Condition: tCond})
	}

	return flags, cond, transforms, nil
}

// parseConditionalClause parses an optional `{ expr }` presence condition.
func (p *Parser) parseConditionalClause() (Expr, *ParseError) {
	if !p.check(token.LBrace) {
		return nil, nil
	}
	p.advance()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.consume(token.RBrace, "expected '}' after condition"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseLengthConstraint parses `'..'? expression?` inside `[...]`.
func (p *Parser) parseLengthConstraint() (*LengthConstraintExpr, *ParseError) {
	start := p.current.Span
	expandable := p.match(token.DotDot)

	var value Expr
	if !p.check(token.RBracket) {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		value = v
	}

	if !expandable && value == nil {
		return nil, p.error("array length must specify a bound, '..', or both")
	}

	end := start
	if value != nil {
		end = value.Pos()
	}
	return &LengthConstraintExpr{Span: start.Sum(end), Expandable: expandable, Value: value}, nil
}

// isFlagKeyword recognizes the field modifier flags understood by the
// planner: `auto` (length/offset auto-computation) and `pad` (alignment
// padding that never round-trips a value).
func isFlagKeyword(name string) bool {
	return name == "auto" || name == "pad"
}

// parseTypeExpr parses a type expression: container, enum, bitfield,
// scalar, f32/f64/bool, or a reference to a named type.
func (p *Parser) parseTypeExpr() (TypeExpr, *ParseError) {
	switch {
	case p.check(token.Container):
		return p.parseContainerType()
	case p.check(token.Enum):
		return p.parseEnumType()
	case p.check(token.Bitfield):
		return p.parseBitfieldType()
	case p.check(token.Scalar):
		t := p.current
		p.advance()
		return &ScalarTypeExpr{Span: t.Span, Name: t.Value}, nil
	case p.check(token.Ident) && (p.current.Value == "f32" || p.current.Value == "f64" || p.current.Value == "bool"):
		t := p.current
		p.advance()
		return &ScalarTypeExpr{Span: t.Span, Name: t.Value}, nil
	case p.check(token.Ident):
		return p.parseRefType()
	default:
		return nil, p.error(fmt.Sprintf("expected a type, got %s", p.current.Type))
	}
}

func (p *Parser) parseContainerType() (*ContainerTypeExpr, *ParseError) {
	start := p.current.Span
	p.advance() // 'container'

	var length Expr
	if p.match(token.LBracket) {
		l, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		length = l
		if err := p.consume(token.RBracket, "expected ']' after container length"); err != nil {
			return nil, err
		}
	}

	if err := p.consume(token.LBrace, "expected '{' after container"); err != nil {
		return nil, err
	}

	var fields []*NamedField
	for !p.check(token.RBrace) {
		docs := p.collectComments()
		if p.check(token.RBrace) {
			break
		}
		fStart := p.current.Span
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.consume(token.Colon, "expected ':' after field name"); err != nil {
			return nil, err
		}
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		field.Comments = docs
		if err := p.consume(token.Semicolon, "expected ';' after field"); err != nil {
			return nil, err
		}
		fields = append(fields, &NamedField{Span: fStart.Sum(field.Span), Name: name, Field: field})
	}

	end := p.current.Span
	if err := p.consume(token.RBrace, "expected '}' to close container"); err != nil {
		return nil, err
	}
	return &ContainerTypeExpr{Span: start.Sum(end), Fields: fields, Length: length}, nil
}

func (p *Parser) parseEnumType() (*EnumTypeExpr, *ParseError) {
	start := p.current.Span
	p.advance() // 'enum'
	rep, err := p.parseScalarRep("enum")
	if err != nil {
		return nil, err
	}
	items, end, err := p.parseEnumItems()
	if err != nil {
		return nil, err
	}
	return &EnumTypeExpr{Span: start.Sum(end), Rep: rep, Items: items}, nil
}

func (p *Parser) parseBitfieldType() (*BitfieldTypeExpr, *ParseError) {
	start := p.current.Span
	p.advance() // 'bitfield'
	rep, err := p.parseScalarRep("bitfield")
	if err != nil {
		return nil, err
	}
	items, end, err := p.parseEnumItems()
	if err != nil {
		return nil, err
	}
	return &BitfieldTypeExpr{Span: start.Sum(end), Rep: rep, Items: items}, nil
}

func (p *Parser) parseScalarRep(kind string) (TypeExpr, *ParseError) {
	if !p.check(token.Scalar) {
		return nil, p.error(fmt.Sprintf("%s requires a scalar representation type", kind))
	}
	t := p.current
	p.advance()
	return &ScalarTypeExpr{Span: t.Span, Name: t.Value}, nil
}

// parseEnumItems parses the shared `{ item (= value)?, ... }` body used by
// both enum and bitfield declarations. The first item must carry an
// explicit value; later items default from it (incrementing for enums,
// shifting for bitfields — resolved during semantic analysis).
func (p *Parser) parseEnumItems() ([]*EnumItem, token.Span, *ParseError) {
	if err := p.consume(token.LBrace, "expected '{' to open item list"); err != nil {
		return nil, token.Span{}, err
	}

	var items []*EnumItem
	for {
		docs := p.collectComments()
		itemStart := p.current.Span
		name, err := p.expectIdent()
		if err != nil {
			return nil, token.Span{}, err
		}

		var value Expr
		if len(items) == 0 {
			if err := p.consume(token.Equals, "first item must have an explicit value"); err != nil {
				return nil, token.Span{}, err
			}
			value, err = p.parseExpr()
			if err != nil {
				return nil, token.Span{}, err
			}
		} else if p.match(token.Equals) {
			value, err = p.parseExpr()
			if err != nil {
				return nil, token.Span{}, err
			}
		}

		span := itemStart
		if value != nil {
			span = span.Sum(value.Pos())
		}
		items = append(items, &EnumItem{Span: span, Name: name, Value: value, Comments: docs})

		if !p.match(token.Comma) {
			break
		}
		if p.check(token.RBrace) {
			break
		}
	}

	end := p.current.Span
	if err := p.consume(token.RBrace, "expected '}' to close item list"); err != nil {
		return nil, token.Span{}, err
	}
	return items, end, nil
}

// parseRefType parses a reference to a named type with optional actual
// arguments: `IDENT('(' args ')')?`.
func (p *Parser) parseRefType() (*RefTypeExpr, *ParseError) {
	t := p.current
	p.advance()
	ref := &RefTypeExpr{Span: t.Span, Name: t.Value}
	if p.match(token.LParen) {
		for !p.check(token.RParen) {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			ref.Args = append(ref.Args, arg)
			if !p.match(token.Comma) {
				break
			}
		}
		end := p.current.Span
		if err := p.consume(token.RParen, "expected ')' after type arguments"); err != nil {
			return nil, err
		}
		ref.Span = ref.Span.Sum(end)
	}
	return ref, nil
}

// Expression grammar, precedence climbing low to high:
// ternary > elvis/cast > or > and > bitor > bitxor > bitand > eq > rel >
// shift > add > multiply > unary > array-index > primary.
//
// Elvis and cast share a precedence level, matched left to right, directly
// above the boolean/bitwise chain, so that `a || b :> u8` casts the whole
// disjunction rather than just `b`.

func (p *Parser) parseExpr() (Expr, *ParseError) {
	expr, err := p.parseCastExpr()
	if err != nil {
		return nil, err
	}
	if p.match(token.Question) {
		ifTrue, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.consume(token.Colon, "expected ':' in ternary expression"); err != nil {
			return nil, err
		}
		ifFalse, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		return &TernaryExpr{Span: expr.Pos().Sum(ifFalse.Pos()), Cond: expr, IfTrue: ifTrue, IfFalse: ifFalse}, nil
	}
	return expr, nil
}

func (p *Parser) parseCastExpr() (Expr, *ParseError) {
	expr, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.CastArrow):
			target, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			expr = &CastExpr{Span: expr.Pos().Sum(target.Pos()), Inner: expr, Target: target}
		case p.match(token.Elvis):
			right, err := p.parseOrExpr()
			if err != nil {
				return nil, err
			}
			expr = &BinaryExpr{Span: expr.Pos().Sum(right.Pos()), Op: OpElvis, Left: expr, Right: right}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseOrExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseAndExpr, map[token.Type]BinaryOp{token.PipePipe: OpOr_})
}

func (p *Parser) parseAndExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseBitOrExpr, map[token.Type]BinaryOp{token.AmpAmp: OpAnd_})
}

func (p *Parser) parseBitOrExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseBitXorExpr, map[token.Type]BinaryOp{token.Pipe: OpBitOr})
}

func (p *Parser) parseBitXorExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseBitAndExpr, map[token.Type]BinaryOp{token.Caret: OpBitXor})
}

func (p *Parser) parseBitAndExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseEqExpr, map[token.Type]BinaryOp{token.Amp: OpBitAnd})
}

func (p *Parser) parseEqExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseRelExpr, map[token.Type]BinaryOp{token.EqEq: OpEq, token.NotEq: OpNe})
}

func (p *Parser) parseRelExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseShiftExpr, map[token.Type]BinaryOp{
		token.Lt: OpLt, token.Gt: OpGt, token.Lte: OpLte, token.Gte: OpGte,
	})
}

func (p *Parser) parseShiftExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseAddExpr, map[token.Type]BinaryOp{
		token.Shl: OpShl, token.Shr: OpShr, token.UShr: OpUShr,
	})
}

func (p *Parser) parseAddExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseMulExpr, map[token.Type]BinaryOp{token.Plus_: OpAdd, token.Minus: OpSub})
}

func (p *Parser) parseMulExpr() (Expr, *ParseError) {
	return p.parseBinaryLevel(p.parseUnaryExpr, map[token.Type]BinaryOp{
		token.Star: OpMul, token.Slash: OpDiv, token.Percent: OpMod,
	})
}

// parseBinaryLevel is the shared left-associative binary operator climber
// used by every precedence level from || down to * / %.
func (p *Parser) parseBinaryLevel(next func() (Expr, *ParseError), ops map[token.Type]BinaryOp) (Expr, *ParseError) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.current.Type]
		if !ok {
			return expr, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Span: expr.Pos().Sum(right.Pos()), Op: op, Left: expr, Right: right}
	}
}

func (p *Parser) parseUnaryExpr() (Expr, *ParseError) {
	switch p.current.Type {
	case token.Bang, token.Minus, token.Tilde:
		opTok := p.current
		p.advance()
		inner, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		var op UnaryOp
		switch opTok.Type {
		case token.Bang:
			op = OpNot
		case token.Minus:
			op = OpNeg
		case token.Tilde:
			op = OpBitNot
		}
		return &UnaryExpr{Span: opTok.Span.Sum(inner.Pos()), Op: op, Inner: inner}, nil
	default:
		return p.parseArrayIndexExpr()
	}
}

func (p *Parser) parseArrayIndexExpr() (Expr, *ParseError) {
	expr, err := p.parsePostfixExpr()
	if err != nil {
		return nil, err
	}
	for p.match(token.LBracket) {
		index, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end := p.current.Span
		if err := p.consume(token.RBracket, "expected ']' after array index"); err != nil {
			return nil, err
		}
		expr = &ArrayIndexExpr{Span: expr.Pos().Sum(end), Array: expr, Index: index}
	}
	return expr, nil
}

// parsePostfixExpr handles `.` member/variant access chained onto a primary
// expression.
func (p *Parser) parsePostfixExpr() (Expr, *ParseError) {
	expr, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for p.match(token.Dot) {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		expr = &MemberExpr{Span: expr.Pos().Sum(p.previous.Span), Target: expr, Name: name}
	}
	return expr, nil
}

func (p *Parser) parsePrimaryExpr() (Expr, *ParseError) {
	t := p.current
	switch t.Type {
	case token.LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.consume(token.RParen, "expected ')' to close expression"); err != nil {
			return nil, err
		}
		return inner, nil
	case token.Int:
		p.advance()
		text, suffix := splitIntSuffix(t.Value)
		return &IntLit{Span: t.Span, Text: text, Suffix: suffix}, nil
	case token.String:
		p.advance()
		return &StrLit{Span: t.Span, Value: t.Value}, nil
	case token.Bool:
		p.advance()
		return &BoolLit{Span: t.Span, Value: t.Value == "true"}, nil
	case token.Ident:
		p.advance()
		if p.check(token.LParen) {
			return p.parseCallExpr(t)
		}
		return &IdentExpr{Span: t.Span, Name: t.Value}, nil
	default:
		return nil, p.error(fmt.Sprintf("expected an expression, got %s", t.Type))
	}
}

func (p *Parser) parseCallExpr(name token.Token) (Expr, *ParseError) {
	p.advance() // '('
	var args []Expr
	for !p.check(token.RParen) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(token.Comma) {
			break
		}
	}
	end := p.current.Span
	if err := p.consume(token.RParen, "expected ')' after call arguments"); err != nil {
		return nil, err
	}
	return &CallExpr{Span: name.Span.Sum(end), Name: name.Value, Args: args}, nil
}

// splitIntSuffix separates the digit text (with any 0x/0b prefix intact)
// from a trailing iN/uN scalar suffix, matching the lexer's combined Int
// token spelling.
func splitIntSuffix(text string) (digits, suffix string) {
	body := text
	prefix := ""
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") || strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B") {
		prefix, body = text[:2], text[2:]
	}
	i := len(body)
	for i > 0 && body[i-1] >= '0' && body[i-1] <= '9' {
		i--
	}
	if i > 0 && i < len(body) && (body[i-1] == 'i' || body[i-1] == 'u') {
		i--
		return prefix + body[:i], body[i:]
	}
	return text, ""
}

// Cursor helpers

func (p *Parser) advance() {
	p.previous = p.current
	p.current = p.lexer.Next()
	for p.current.Type == token.Comment {
		p.current = p.lexer.Next()
	}
}

func (p *Parser) check(typ token.Type) bool {
	return p.current.Type == typ
}

func (p *Parser) match(typ token.Type) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(typ token.Type, msg string) *ParseError {
	if p.check(typ) {
		p.advance()
		return nil
	}
	return p.error(msg)
}

func (p *Parser) expectIdent() (string, *ParseError) {
	if !p.check(token.Ident) {
		return "", p.error(fmt.Sprintf("expected an identifier, got %s", p.current.Type))
	}
	name := p.current.Value
	p.advance()
	return name, nil
}

func (p *Parser) expectString() (string, *ParseError) {
	if !p.check(token.String) {
		return "", p.error(fmt.Sprintf("expected a string literal, got %s", p.current.Type))
	}
	v := p.current.Value
	p.advance()
	return v, nil
}

func (p *Parser) error(msg string) *ParseError {
	return &ParseError{Span: p.current.Span, Message: msg}
}

// synchronize skips tokens until a likely declaration boundary, so one bad
// top-level declaration doesn't hide errors in the rest of the file.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.previous.Type == token.Semicolon {
			return
		}
		switch p.current.Type {
		case token.Type_, token.Const, token.Import, token.ImportFFI:
			return
		}
		p.advance()
	}
}

// collectComments gathers leading doc comments for the next declaration.
func (p *Parser) collectComments() []*Comment {
	var docs []*Comment
	for p.current.Type == token.DocComment {
		docs = append(docs, &Comment{Span: p.current.Span, Text: p.current.Value})
		p.current = p.lexer.Next()
	}
	return docs
}
