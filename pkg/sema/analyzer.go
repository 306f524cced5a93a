package sema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/ast"
	"github.com/ironwell/protospec/pkg/ffi"
	"github.com/ironwell/protospec/pkg/token"
)

type visitState int

const (
	visitUnvisited visitState = iota
	visitVisiting
	visitDone
)

// Analyzer runs the four sub-phases of semantic analysis over a parsed
// ast.Program and produces a resolved ag.Program: declaration registration
// (with placeholder Fields so cyclic and forward references have somewhere
// to point), constant resolution, type resolution, and cycle annotation.
type Analyzer struct {
	resolver ffi.Resolver
	program  *ag.Program
	errors   []*AnalysisError

	astTypes   map[string]*ast.TypeDecl
	astConsts  map[string]*ast.ConstDecl
	constOrder []string

	constState map[string]visitState
}

// NewAnalyzer creates an Analyzer that consults resolver for imports and
// FFI bindings.
func NewAnalyzer(resolver ffi.Resolver) *Analyzer {
	return &Analyzer{
		resolver:   resolver,
		program:    ag.NewProgram(),
		astTypes:   make(map[string]*ast.TypeDecl),
		astConsts:  make(map[string]*ast.ConstDecl),
		constState: make(map[string]visitState),
	}
}

// Analyze resolves prog (parsed from file) into a complete ag.Program.
func Analyze(resolver ffi.Resolver, file string, prog *ast.Program) (*ag.Program, []*AnalysisError) {
	a := NewAnalyzer(resolver)
	a.registerDeclarations(file, prog)
	a.resolveAllConstants()
	a.resolveAllTypes()
	a.scanCycles()
	return a.program, a.errors
}

func (a *Analyzer) addError(err *AnalysisError) {
	if err != nil {
		a.errors = append(a.errors, err)
	}
}

// Phase (a): declaration registration.

func (a *Analyzer) registerDeclarations(file string, prog *ast.Program) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.TypeDecl:
			a.registerType(d)
		case *ast.ConstDecl:
			a.registerConst(d)
		case *ast.ImportDecl:
			a.registerImport(file, d)
		case *ast.FFIDecl:
			a.registerFFIDecl(d)
		}
	}
}

func (a *Analyzer) registerType(d *ast.TypeDecl) {
	if _, exists := a.program.Types[d.Name]; exists {
		a.addError(newError(d.Span, ErrKindStructural, ErrDuplicate, "type %q is already declared", d.Name))
		return
	}
	a.program.Types[d.Name] = &ag.TypeDecl{Span: d.Span, Name: d.Name, Value: &ag.Field{}}
	a.astTypes[d.Name] = d
	a.program.Order = append(a.program.Order, d.Name)
}

func (a *Analyzer) registerConst(d *ast.ConstDecl) {
	if _, exists := a.astConsts[d.Name]; exists {
		a.addError(newError(d.Span, ErrKindStructural, ErrDuplicate, "constant %q is already declared", d.Name))
		return
	}
	a.astConsts[d.Name] = d
	a.constOrder = append(a.constOrder, d.Name)
}

func (a *Analyzer) registerImport(file string, d *ast.ImportDecl) {
	key := a.resolver.NormalizeImport(file, d.From)
	imported, err := a.resolver.ResolveImport(key)
	if err != nil {
		a.addError(newError(d.Span, ErrKindResolution, err, "cannot resolve import %q", d.From))
		return
	}
	a.registerDeclarations(key, imported)

	for _, item := range d.Items {
		if item.Alias == item.Name {
			continue
		}
		if td, ok := a.program.Types[item.Name]; ok {
			a.program.Types[item.Alias] = td
		}
		if astd, ok := a.astConsts[item.Name]; ok {
			a.astConsts[item.Alias] = astd
		}
	}
}

func (a *Analyzer) registerFFIDecl(d *ast.FFIDecl) {
	switch d.Kind {
	case ast.FFITransform:
		handle, ok := a.resolver.ResolveFFITransform(d.Name)
		if !ok {
			a.addError(newError(d.Span, ErrKindResolution, ErrUndefined, "no FFI transform binding for %q", d.Name))
			return
		}
		a.program.Transforms[d.Name] = &ag.Transform{Span: d.Span, Name: d.Name, Arguments: handle.Arguments}
	case ast.FFIType:
		if _, ok := a.resolver.ResolveFFIType(d.Name); !ok {
			a.addError(newError(d.Span, ErrKindResolution, ErrUndefined, "no FFI type binding for %q", d.Name))
		}
	case ast.FFIFunction:
		handle, ok := a.resolver.ResolveFFIFunction(d.Name)
		if !ok {
			a.addError(newError(d.Span, ErrKindResolution, ErrUndefined, "no FFI function binding for %q", d.Name))
			return
		}
		a.program.Functions[d.Name] = &ag.Function{Span: d.Span, Name: d.Name, Arguments: handle.Arguments, Return: handle.Return}
	}
}

// Phase (b): constant resolution.

func (a *Analyzer) resolveAllConstants() {
	for _, name := range a.constOrder {
		if err := a.resolveConstByName(name); err != nil {
			a.addError(err)
		}
	}
}

// resolveConstByName resolves (and memoizes) the constant named name,
// detecting cyclic dependencies via a three-color DFS. It never appends to
// a.errors itself: callers that trigger resolution as a side effect of
// resolving something else propagate the error to wherever it ultimately
// surfaces, so one failing constant is reported once, at its own
// top-level declaration.
func (a *Analyzer) resolveConstByName(name string) *AnalysisError {
	if _, ok := a.program.Consts[name]; ok {
		return nil
	}
	switch a.constState[name] {
	case visitVisiting:
		return newError(token.Span{}, ErrKindStructural, ErrCyclicConst, "constant %q participates in a cyclic dependency", name)
	case visitDone:
		return nil
	}

	d, ok := a.astConsts[name]
	if !ok {
		return newError(token.Span{}, ErrKindResolution, ErrUndefined, "undefined constant %q", name)
	}

	a.constState[name] = visitVisiting
	scope := NewScope()

	typ, err := a.resolveTypeExpr(d.Type, scope)
	if err != nil {
		a.constState[name] = visitDone
		return err
	}
	value, err := a.resolveExpr(d.Value, scope, ag.ExactOf(typ))
	if err != nil {
		a.constState[name] = visitDone
		return err
	}

	a.program.Consts[name] = &ag.Const{Span: d.Span, Name: name, Type: typ, Value: value}
	a.constState[name] = visitDone
	return nil
}

// Phase (c): type resolution.

func (a *Analyzer) resolveAllTypes() {
	for _, name := range a.program.Order {
		d, ok := a.astTypes[name]
		if !ok {
			continue // an alias entry; its original name resolves it
		}
		scope := NewScope()
		var params []ag.Input
		for _, arg := range d.Args {
			t, err := a.resolveTypeExpr(arg.Type, scope)
			if err != nil {
				a.addError(err)
				continue
			}
			inp := &ag.Input{Span: arg.Span, Name: arg.Name, Type: t}
			if arg.Default != nil {
				def, err := a.resolveExpr(arg.Default, scope, ag.ExactOf(t))
				if err != nil {
					a.addError(err)
				} else {
					inp.Default = def
				}
			}
			scope.DeclareInput(arg.Name, inp)
			params = append(params, *inp)
		}

		resolved, err := a.resolveField(d.Value, scope)
		if err != nil {
			a.addError(err)
			continue
		}
		target := a.program.Types[name]
		*target.Value = *resolved
		target.Params = params
	}
}

func (a *Analyzer) resolveField(f *ast.Field, scope *Scope) (*ag.Field, *AnalysisError) {
	result := &ag.Field{Span: f.Span}
	for _, flag := range f.Flags {
		switch flag {
		case "auto":
			result.IsAuto = true
		case "pad":
			result.IsPad = true
		}
	}

	typ, err := a.resolveTypeExpr(f.Type, scope)
	if err != nil {
		return nil, err
	}
	result.Type = &typ

	if f.Condition != nil {
		cond, err := a.resolveExpr(f.Condition, scope, ag.ExactOf(ag.BoolOf(f.Condition.Pos())))
		if err != nil {
			return nil, err
		}
		result.Condition = cond
	}

	for _, tc := range f.Transforms {
		ta, err := a.resolveTransformCall(tc, scope)
		if err != nil {
			return nil, err
		}
		result.Transforms = append(result.Transforms, ta)
	}

	return result, nil
}

func (a *Analyzer) resolveTypeExpr(t ast.TypeExpr, scope *Scope) (ag.Type, *AnalysisError) {
	switch v := t.(type) {
	case *ast.ScalarTypeExpr:
		return a.resolveScalarName(v.Span, v.Name)
	case *ast.ArrayTypeExpr:
		return a.resolveArrayType(v, scope)
	case *ast.ContainerTypeExpr:
		return a.resolveContainerType(v, scope)
	case *ast.EnumTypeExpr:
		return a.resolveEnumType(v, scope)
	case *ast.BitfieldTypeExpr:
		return a.resolveBitfieldType(v, scope)
	case *ast.RefTypeExpr:
		return a.resolveRefType(v, scope)
	default:
		return ag.Type{}, newError(t.Pos(), ErrKindStructural, nil, "unsupported type expression %T", t)
	}
}

func (a *Analyzer) resolveScalarName(span token.Span, name string) (ag.Type, *AnalysisError) {
	switch name {
	case "f32":
		return ag.F32Of(span), nil
	case "f64":
		return ag.F64Of(span), nil
	case "bool":
		return ag.BoolOf(span), nil
	}
	s, ok := ag.Scalars[name]
	if !ok {
		return ag.Type{}, newError(span, ErrKindResolution, ErrUndefined, "unknown scalar type %q", name)
	}
	return ag.ScalarOf(span, s), nil
}

func (a *Analyzer) resolveArrayType(v *ast.ArrayTypeExpr, scope *Scope) (ag.Type, *AnalysisError) {
	elem, err := a.resolveField(v.Element, scope)
	if err != nil {
		return ag.Type{}, err
	}
	length, err := a.resolveLengthConstraint(v.Length, scope)
	if err != nil {
		return ag.Type{}, err
	}
	return ag.Type{
		Span:  v.Span,
		Kind:  ag.KindArray,
		Array: &ag.ArrayType{Span: v.Span, Element: elem, Length: length},
	}, nil
}

func (a *Analyzer) resolveLengthConstraint(lc *ast.LengthConstraintExpr, scope *Scope) (ag.LengthConstraint, *AnalysisError) {
	kind := ag.LengthFixed
	switch {
	case lc.Expandable && lc.Value != nil:
		kind = ag.LengthBoundedThenExhaust
	case lc.Expandable && lc.Value == nil:
		kind = ag.LengthConsumeToEnd
	case !lc.Expandable && lc.Value == nil:
		kind = ag.LengthRejected
		return ag.LengthConstraint{Span: lc.Span, Kind: kind, Expandable: false}, newError(lc.Span, ErrKindStructural, ErrEmptyLength, "array length must specify a bound, '..', or both")
	}

	var value ag.Expression
	if lc.Value != nil {
		v, err := a.resolveExpr(lc.Value, scope, ag.AnyScalar())
		if err != nil {
			return ag.LengthConstraint{}, err
		}
		value = v
	}
	return ag.LengthConstraint{Span: lc.Span, Kind: kind, Expandable: lc.Expandable, Value: value}, nil
}

func (a *Analyzer) resolveContainerType(v *ast.ContainerTypeExpr, scope *Scope) (ag.Type, *AnalysisError) {
	cont := &ag.ContainerType{Span: v.Span}
	child := scope.Child()

	placeholders := make([]*ag.Field, len(v.Fields))
	for i, nf := range v.Fields {
		ph := &ag.Field{}
		placeholders[i] = ph
		child.DeclareField(nf.Name, ph)
	}

	for i, nf := range v.Fields {
		resolved, err := a.resolveField(nf.Field, child)
		if err != nil {
			a.addError(err)
			continue
		}
		*placeholders[i] = *resolved
		cont.Fields = append(cont.Fields, &ag.NamedField{Name: nf.Name, Field: placeholders[i]})
	}

	if v.Length != nil {
		lengthExpr, err := a.resolveExpr(v.Length, child, ag.AnyScalar())
		if err != nil {
			return ag.Type{}, err
		}
		cont.Length = lengthExpr
	}

	return ag.Type{Span: v.Span, Kind: ag.KindContainer, Container: cont}, nil
}

func (a *Analyzer) resolveEnumType(v *ast.EnumTypeExpr, scope *Scope) (ag.Type, *AnalysisError) {
	rep, err := a.resolveScalarRep(v.Rep)
	if err != nil {
		return ag.Type{}, err
	}
	items, err := a.resolveEnumItems(v.Items, scope, false)
	if err != nil {
		return ag.Type{}, err
	}
	return ag.Type{Span: v.Span, Kind: ag.KindEnum, Enum: &ag.EnumType{Span: v.Span, Rep: rep, Items: items}}, nil
}

func (a *Analyzer) resolveBitfieldType(v *ast.BitfieldTypeExpr, scope *Scope) (ag.Type, *AnalysisError) {
	rep, err := a.resolveScalarRep(v.Rep)
	if err != nil {
		return ag.Type{}, err
	}
	items, err := a.resolveEnumItems(v.Items, scope, true)
	if err != nil {
		return ag.Type{}, err
	}
	return ag.Type{Span: v.Span, Kind: ag.KindBitfield, Bitfield: &ag.BitfieldType{Span: v.Span, Rep: rep, Items: items}}, nil
}

func (a *Analyzer) resolveScalarRep(t ast.TypeExpr) (ag.ScalarType, *AnalysisError) {
	scalar, ok := t.(*ast.ScalarTypeExpr)
	if !ok {
		return ag.ScalarType{}, newError(t.Pos(), ErrKindStructural, ErrNotScalar, "representation type must be a scalar")
	}
	s, ok := ag.Scalars[scalar.Name]
	if !ok {
		return ag.ScalarType{}, newError(t.Pos(), ErrKindStructural, ErrNotScalar, "representation type must be a scalar")
	}
	return s, nil
}

// resolveEnumItems resolves the shared enum/bitfield item list. The first
// item always carries an explicit value (enforced by the parser); later
// items default from the previous one: +1 for enums, <<1 for bitfields.
func (a *Analyzer) resolveEnumItems(items []*ast.EnumItem, scope *Scope, isBitfield bool) ([]ag.EnumItem, *AnalysisError) {
	var out []ag.EnumItem
	var prev int64
	for _, it := range items {
		var val int64
		if it.Value != nil {
			resolved, err := a.resolveExpr(it.Value, scope, ag.AnyScalar())
			if err != nil {
				return nil, err
			}
			n, ok := foldConstInt(resolved)
			if !ok {
				return nil, newError(it.Value.Pos(), ErrKindStructural, nil, "item value must be a compile-time constant integer")
			}
			val = n
		} else if isBitfield {
			val = prev << 1
		} else {
			val = prev + 1
		}
		out = append(out, ag.EnumItem{Span: it.Span, Name: it.Name, Value: val})
		prev = val
	}
	return out, nil
}

func (a *Analyzer) resolveRefType(v *ast.RefTypeExpr, scope *Scope) (ag.Type, *AnalysisError) {
	if handle, ok := a.resolver.ResolveFFIType(v.Name); ok {
		args, err := a.resolveArgs(v.Args, handle.Arguments, scope)
		if err != nil {
			return ag.Type{}, err
		}
		return ag.Type{Span: v.Span, Kind: ag.KindForeign, Foreign: &ag.ForeignType{Span: v.Span, Name: v.Name, Arguments: args}}, nil
	}

	target, ok := a.program.Types[v.Name]
	if !ok {
		return ag.Type{}, newError(v.Span, ErrKindResolution, ErrUndefined, "undefined type %q", v.Name)
	}
	args, err := a.resolveRefArgs(v.Span, v.Args, target.Params, scope)
	if err != nil {
		return ag.Type{}, err
	}
	return ag.Type{Span: v.Span, Kind: ag.KindRef, Ref: &ag.RefType{Span: v.Span, Name: v.Name, Target: target, Arguments: args}}, nil
}

// resolveRefArgs binds the actual arguments of a reference to a top-level
// type against its formal parameters, falling back to each parameter's
// default expression (if any) when the reference omits a trailing
// argument.
func (a *Analyzer) resolveRefArgs(span token.Span, exprs []ast.Expr, params []ag.Input, scope *Scope) ([]ag.Expression, *AnalysisError) {
	if len(exprs) > len(params) {
		return nil, newError(span, ErrKindStructural, ErrWrongArgCount, "expected at most %d arguments, got %d", len(params), len(exprs))
	}
	var out []ag.Expression
	for i, p := range params {
		if i < len(exprs) {
			resolved, err := a.resolveExpr(exprs[i], scope, ag.ExactOf(p.Type))
			if err != nil {
				return nil, err
			}
			out = append(out, resolved)
			continue
		}
		if p.Default == nil {
			return nil, newError(span, ErrKindStructural, ErrWrongArgCount, "missing required argument %q", p.Name)
		}
		out = append(out, p.Default)
	}
	return out, nil
}

func (a *Analyzer) resolveArgs(exprs []ast.Expr, want []ag.FFIArgument, scope *Scope) ([]ag.Expression, *AnalysisError) {
	var out []ag.Expression
	for i, e := range exprs {
		hint := ag.Any()
		if i < len(want) && want[i].Type != nil {
			hint = ag.ExactOf(*want[i].Type)
		}
		resolved, err := a.resolveExpr(e, scope, hint)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Expression resolution.

func (a *Analyzer) resolveExpr(e ast.Expr, scope *Scope, hint ag.PartialType) (ag.Expression, *AnalysisError) {
	switch v := e.(type) {
	case *ast.IntLit:
		return a.resolveIntLit(v, hint)
	case *ast.StrLit:
		return &ag.StrExpression{Span: v.Span, Value: v.Value}, nil
	case *ast.BoolLit:
		return &ag.BoolExpression{Span: v.Span, Value: v.Value}, nil
	case *ast.IdentExpr:
		return a.resolveIdent(v, scope)
	case *ast.UnaryExpr:
		return a.resolveUnaryExpr(v, scope, hint)
	case *ast.BinaryExpr:
		return a.resolveBinaryExpr(v, scope, hint)
	case *ast.CastExpr:
		return a.resolveCastExpr(v, scope)
	case *ast.TernaryExpr:
		return a.resolveTernaryExpr(v, scope, hint)
	case *ast.ArrayIndexExpr:
		return a.resolveArrayIndexExpr(v, scope)
	case *ast.MemberExpr:
		return a.resolveMemberExpr(v, scope)
	case *ast.CallExpr:
		return a.resolveCallExpr(v, scope)
	default:
		return nil, newError(e.Pos(), ErrKindStructural, nil, "unsupported expression %T", e)
	}
}

func (a *Analyzer) resolveIntLit(v *ast.IntLit, hint ag.PartialType) (ag.Expression, *AnalysisError) {
	base := 10
	text := v.Text
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base, text = 16, text[2:]
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		base, text = 2, text[2:]
	}
	val, convErr := strconv.ParseUint(text, base, 64)
	if convErr != nil {
		return nil, newError(v.Span, ErrKindStructural, convErr, "malformed integer literal %q", v.Text)
	}

	var scalar ag.ScalarType
	switch {
	case v.Suffix != "":
		s, ok := ag.Scalars[v.Suffix]
		if !ok {
			return nil, newError(v.Span, ErrKindResolution, ErrUndefined, "unknown integer suffix %q", v.Suffix)
		}
		scalar = s
	case hint.Kind == ag.PartialScalar && hint.Scalar != nil:
		scalar = *hint.Scalar
	case hint.Kind == ag.PartialExact && hint.Exact.Kind == ag.KindScalar:
		scalar = hint.Exact.Scalar
	default:
		scalar = ag.I64
	}
	lit := ag.ScalarOf(v.Span, scalar)
	if v.Suffix != "" && !hint.AssignableFrom(lit) {
		return nil, newError(v.Span, ErrKindType, ErrNotAssignable, "literal suffix %q (%s) conflicts with the expected type", v.Suffix, scalar.Name)
	}
	return &ag.IntExpression{Span: v.Span, Value: int64(val), Typ: lit}, nil
}

func (a *Analyzer) resolveIdent(v *ast.IdentExpr, scope *Scope) (ag.Expression, *AnalysisError) {
	if f, ok := scope.LookupField(v.Name); ok {
		return &ag.FieldRefExpression{Span: v.Span, Name: v.Name, Field: f}, nil
	}
	if in, ok := scope.LookupInput(v.Name); ok {
		return &ag.InputRefExpression{Span: v.Span, Input: in}, nil
	}
	if c, ok := a.program.Consts[v.Name]; ok {
		return &ag.ConstRefExpression{Span: v.Span, Const: c}, nil
	}
	if _, ok := a.astConsts[v.Name]; ok {
		if err := a.resolveConstByName(v.Name); err != nil {
			return nil, err
		}
		return &ag.ConstRefExpression{Span: v.Span, Const: a.program.Consts[v.Name]}, nil
	}
	return nil, newError(v.Span, ErrKindResolution, ErrUndefined, "undefined name %q", v.Name)
}

func (a *Analyzer) resolveUnaryExpr(v *ast.UnaryExpr, scope *Scope, hint ag.PartialType) (ag.Expression, *AnalysisError) {
	inner, err := a.resolveExpr(v.Inner, scope, hint)
	if err != nil {
		return nil, err
	}
	op, convErr := convertUnaryOp(v.Op)
	if convErr != nil {
		return nil, newError(v.Span, ErrKindStructural, convErr, "unsupported unary operator")
	}
	return &ag.UnaryExpression{Span: v.Span, Op: op, Inner: inner, Typ: inner.GetType()}, nil
}

func (a *Analyzer) resolveBinaryExpr(v *ast.BinaryExpr, scope *Scope, hint ag.PartialType) (ag.Expression, *AnalysisError) {
	op, convErr := convertBinaryOp(v.Op)
	if convErr != nil {
		return nil, newError(v.Span, ErrKindStructural, convErr, "unsupported binary operator")
	}

	switch op {
	case ag.OpEq, ag.OpNe, ag.OpLt, ag.OpGt, ag.OpLte, ag.OpGte:
		left, err := a.resolveExpr(v.Left, scope, ag.Any())
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(v.Right, scope, ag.ExactOf(left.GetType()))
		if err != nil {
			return nil, err
		}
		return &ag.BinaryExpression{Span: v.Span, Op: op, Left: left, Right: right, Typ: ag.BoolOf(v.Span)}, nil
	case ag.OpAnd, ag.OpOr:
		left, err := a.resolveExpr(v.Left, scope, ag.ExactOf(ag.BoolOf(v.Span)))
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(v.Right, scope, ag.ExactOf(ag.BoolOf(v.Span)))
		if err != nil {
			return nil, err
		}
		return &ag.BinaryExpression{Span: v.Span, Op: op, Left: left, Right: right, Typ: ag.BoolOf(v.Span)}, nil
	case ag.OpElvis:
		left, err := a.resolveExpr(v.Left, scope, hint)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(v.Right, scope, ag.ExactOf(left.GetType()))
		if err != nil {
			return nil, err
		}
		return &ag.BinaryExpression{Span: v.Span, Op: op, Left: left, Right: right, Typ: left.GetType()}, nil
	default:
		left, err := a.resolveExpr(v.Left, scope, hint)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(v.Right, scope, ag.ExactOf(left.GetType()))
		if err != nil {
			return nil, err
		}
		return &ag.BinaryExpression{Span: v.Span, Op: op, Left: left, Right: right, Typ: left.GetType()}, nil
	}
}

func (a *Analyzer) resolveCastExpr(v *ast.CastExpr, scope *Scope) (ag.Expression, *AnalysisError) {
	inner, err := a.resolveExpr(v.Inner, scope, ag.Any())
	if err != nil {
		return nil, err
	}
	target, err := a.resolveTypeExpr(v.Target, scope)
	if err != nil {
		return nil, err
	}
	if !target.IsNumeric() && target.Kind != ag.KindBool {
		return nil, newError(v.Span, ErrKindType, ErrNotAssignable, "cannot cast to non-scalar type %s", target.Kind)
	}
	return &ag.CastExpression{Span: v.Span, Inner: inner, Target: target}, nil
}

func (a *Analyzer) resolveTernaryExpr(v *ast.TernaryExpr, scope *Scope, hint ag.PartialType) (ag.Expression, *AnalysisError) {
	cond, err := a.resolveExpr(v.Cond, scope, ag.ExactOf(ag.BoolOf(v.Cond.Pos())))
	if err != nil {
		return nil, err
	}
	ifTrue, err := a.resolveExpr(v.IfTrue, scope, hint)
	if err != nil {
		return nil, err
	}
	ifFalse, err := a.resolveExpr(v.IfFalse, scope, ag.ExactOf(ifTrue.GetType()))
	if err != nil {
		return nil, err
	}
	return &ag.TernaryExpression{Span: v.Span, Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse, Typ: ifTrue.GetType()}, nil
}

func (a *Analyzer) resolveArrayIndexExpr(v *ast.ArrayIndexExpr, scope *Scope) (ag.Expression, *AnalysisError) {
	arr, err := a.resolveExpr(v.Array, scope, ag.Any())
	if err != nil {
		return nil, err
	}
	arrType := arr.GetType()
	if arrType.Kind != ag.KindArray {
		return nil, newError(v.Span, ErrKindType, ErrNotAssignable, "cannot index into non-array type %s", arrType.Kind)
	}
	index, err := a.resolveExpr(v.Index, scope, ag.AnyScalar())
	if err != nil {
		return nil, err
	}
	return &ag.ArrayIndexExpression{Span: v.Span, Array: arr, Index: index, Element: *arrType.Array.Element.Type}, nil
}

func (a *Analyzer) resolveMemberExpr(v *ast.MemberExpr, scope *Scope) (ag.Expression, *AnalysisError) {
	if identTarget, ok := v.Target.(*ast.IdentExpr); ok {
		if td, ok := a.program.Types[identTarget.Name]; ok && td.Value != nil && td.Value.Type != nil && td.Value.Type.Kind == ag.KindEnum {
			enumType := td.Value.Type.Enum
			val, ok := enumType.ValueOf(v.Name)
			if !ok {
				return nil, newError(v.Span, ErrKindResolution, ErrUndefined, "enum %q has no variant %q", identTarget.Name, v.Name)
			}
			return &ag.EnumAccessExpression{Span: v.Span, Enum: enumType, Item: v.Name, Value: val}, nil
		}
	}

	target, err := a.resolveExpr(v.Target, scope, ag.Any())
	if err != nil {
		return nil, err
	}
	targetType := target.GetType()
	if targetType.Kind != ag.KindBitfield {
		return nil, newError(v.Span, ErrKindType, ErrNotAssignable, "member access requires a bitfield value, got %s", targetType.Kind)
	}
	if _, ok := bitfieldValueOf(targetType.Bitfield, v.Name); !ok {
		return nil, newError(v.Span, ErrKindResolution, ErrUndefined, "bitfield has no member %q", v.Name)
	}
	return &ag.MemberExpression{Span: v.Span, Target: target, Bitfield: targetType.Bitfield, Name: v.Name}, nil
}

func (a *Analyzer) resolveCallExpr(v *ast.CallExpr, scope *Scope) (ag.Expression, *AnalysisError) {
	fn, ok := a.program.Functions[v.Name]
	if !ok {
		handle, ok2 := a.resolver.ResolveFFIFunction(v.Name)
		if !ok2 {
			return nil, newError(v.Span, ErrKindResolution, ErrUndefined, "undefined function %q", v.Name)
		}
		fn = &ag.Function{Name: v.Name, Arguments: handle.Arguments, Return: handle.Return}
		a.program.Functions[v.Name] = fn
	}

	var want []ag.FFIArgument
	want = fn.Arguments
	if len(v.Args) > len(want) && want != nil {
		return nil, newError(v.Span, ErrKindStructural, ErrWrongArgCount, "%q takes at most %d arguments, got %d", v.Name, len(want), len(v.Args))
	}
	args, err := a.resolveArgs(v.Args, want, scope)
	if err != nil {
		return nil, err
	}
	return &ag.CallExpression{Span: v.Span, Function: fn, Arguments: args}, nil
}

func (a *Analyzer) resolveTransformCall(tc *ast.TransformCall, scope *Scope) (*ag.TransformApplication, *AnalysisError) {
	tr, ok := a.program.Transforms[tc.Name]
	if !ok {
		handle, ok2 := a.resolver.ResolveFFITransform(tc.Name)
		if !ok2 {
			return nil, newError(tc.Span, ErrKindResolution, ErrUndefined, "undefined transform %q", tc.Name)
		}
		tr = &ag.Transform{Name: tc.Name, Arguments: handle.Arguments}
		a.program.Transforms[tc.Name] = tr
	}

	args, err := a.resolveArgs(tc.Args, tr.Arguments, scope)
	if err != nil {
		return nil, err
	}

	var cond ag.Expression
	if tc.Condition != nil {
		c, err := a.resolveExpr(tc.Condition, scope, ag.ExactOf(ag.BoolOf(tc.Condition.Pos())))
		if err != nil {
			return nil, err
		}
		cond = c
	}
	return &ag.TransformApplication{Span: tc.Span, Transform: tr, Arguments: args, Condition: cond}, nil
}

func bitfieldValueOf(b *ag.BitfieldType, name string) (int64, bool) {
	for _, it := range b.Items {
		if it.Name == name {
			return it.Value, true
		}
	}
	return 0, false
}

func convertBinaryOp(op ast.BinaryOp) (ag.BinaryOp, error) {
	switch op {
	case ast.OpAdd:
		return ag.OpAdd, nil
	case ast.OpSub:
		return ag.OpSub, nil
	case ast.OpMul:
		return ag.OpMul, nil
	case ast.OpDiv:
		return ag.OpDiv, nil
	case ast.OpMod:
		return ag.OpMod, nil
	case ast.OpAnd_:
		return ag.OpAnd, nil
	case ast.OpOr_:
		return ag.OpOr, nil
	case ast.OpBitAnd:
		return ag.OpBitAnd, nil
	case ast.OpBitOr:
		return ag.OpBitOr, nil
	case ast.OpBitXor:
		return ag.OpBitXor, nil
	case ast.OpShl:
		return ag.OpShl, nil
	case ast.OpShr:
		return ag.OpShr, nil
	case ast.OpUShr:
		return ag.OpUShr, nil
	case ast.OpEq:
		return ag.OpEq, nil
	case ast.OpNe:
		return ag.OpNe, nil
	case ast.OpLt:
		return ag.OpLt, nil
	case ast.OpGt:
		return ag.OpGt, nil
	case ast.OpLte:
		return ag.OpLte, nil
	case ast.OpGte:
		return ag.OpGte, nil
	case ast.OpElvis:
		return ag.OpElvis, nil
	default:
		return 0, fmt.Errorf("unknown binary operator %v", op)
	}
}

func convertUnaryOp(op ast.UnaryOp) (ag.UnaryOp, error) {
	switch op {
	case ast.OpNeg:
		return ag.OpNeg, nil
	case ast.OpNot:
		return ag.OpNot, nil
	case ast.OpBitNot:
		return ag.OpBitNot, nil
	default:
		return 0, fmt.Errorf("unknown unary operator %v", op)
	}
}

// foldConstInt evaluates e as a compile-time constant integer, following
// const references and folding arithmetic on literal operands. It reports
// ok=false for anything that isn't foldable (a field reference, an FFI
// call, a float).
func foldConstInt(e ag.Expression) (int64, bool) {
	switch v := e.(type) {
	case *ag.IntExpression:
		return v.Value, true
	case *ag.ConstRefExpression:
		return foldConstInt(v.Const.Value)
	case *ag.EnumAccessExpression:
		return v.Value, true
	case *ag.UnaryExpression:
		inner, ok := foldConstInt(v.Inner)
		if !ok {
			return 0, false
		}
		switch v.Op {
		case ag.OpNeg:
			return -inner, true
		case ag.OpBitNot:
			return ^inner, true
		default:
			return 0, false
		}
	case *ag.BinaryExpression:
		l, ok1 := foldConstInt(v.Left)
		r, ok2 := foldConstInt(v.Right)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch v.Op {
		case ag.OpAdd:
			return l + r, true
		case ag.OpSub:
			return l - r, true
		case ag.OpMul:
			return l * r, true
		case ag.OpDiv:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case ag.OpBitOr:
			return l | r, true
		case ag.OpBitAnd:
			return l & r, true
		case ag.OpBitXor:
			return l ^ r, true
		case ag.OpShl:
			return l << uint(r), true
		case ag.OpShr:
			return l >> uint(r), true
		default:
			return 0, false
		}
	default:
		return 0, false
	}
}
