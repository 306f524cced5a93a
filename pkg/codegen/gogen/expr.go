package gogen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/codegen"
	"github.com/ironwell/protospec/pkg/plan"
)

// scope binds a dotted field-path prefix to the Go expression that reads
// or writes values under it: "" -> the type's own receiver/result
// variable at the root, and path+"[]" -> a loop's per-iteration element
// variable while a Loop's body is being emitted.
type scope struct {
	prefix string
	expr   string
}

// resolvePath turns a planner path (as carried on DecodePrimitive.Field,
// EncodeRef.Field, a FieldRefExpression's resolved field, ...) into the Go
// selector expression that reads or writes it, given the active scope
// stack innermost-first.
func resolvePath(scopes []scope, path string) string {
	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		if path == s.prefix {
			return s.expr
		}
		if strings.HasPrefix(path, s.prefix) {
			rem := strings.TrimPrefix(path[len(s.prefix):], ".")
			if rem == "" {
				return s.expr
			}
			return s.expr + "." + selectorChain(rem)
		}
	}
	return "out." + selectorChain(path)
}

func selectorChain(rem string) string {
	parts := strings.Split(rem, ".")
	for i, p := range parts {
		parts[i] = codegen.ToPascalCase(p)
	}
	return strings.Join(parts, ".")
}

// exprCtx carries everything exprGo needs to turn a resolved AG expression
// (or a planner pseudo-expression) into Go source text.
type exprCtx struct {
	tg     *typeGen
	scopes []scope
}

func (tg *typeGen) exprCtx(scopes []scope) *exprCtx {
	tg.buildPathIndex()
	return &exprCtx{tg: tg, scopes: scopes}
}

// buildPathIndex lazily populates fieldPaths, fieldByPath, and regPath, the
// three lookup tables the instruction emitter needs to recover a path or
// struct field from planner state that doesn't carry one directly (an Eval's
// Reg, a Loop's missing Field).
func (tg *typeGen) buildPathIndex() {
	if tg.fieldPaths != nil {
		return
	}
	tg.fieldPaths = make(map[*ag.Field]string)
	tg.fieldByPath = make(map[string]*ag.Field)
	var walk func(f *ag.Field, path string)
	walk = func(f *ag.Field, path string) {
		if f == nil || f.Type == nil {
			return
		}
		tg.fieldPaths[f] = path
		tg.fieldByPath[path] = f
		switch f.Type.Kind {
		case ag.KindContainer:
			for _, nf := range f.Type.Container.Fields {
				walk(nf.Field, childPath(path, nf.Name))
			}
		case ag.KindArray:
			walk(f.Type.Array.Element, elemPath(path))
		}
	}
	walk(tg.decl.Value, "")

	tg.regPath = make(map[plan.Register]string)
	if tg.plan != nil {
		for path, reg := range tg.plan.DecodeRegOf {
			tg.regPath[reg] = path
		}
	}
}

// elemGoType returns the Go element type of the array field declared at
// arrPath.
func (tg *typeGen) elemGoType(arrPath string) string {
	f := tg.fieldByPath[arrPath]
	if f == nil || f.Type == nil || f.Type.Kind != ag.KindArray {
		return "any"
	}
	return tg.goTypeOf(f.Type.Array.Element, elemPath(arrPath))
}

func binOpGo(op ag.BinaryOp) string {
	switch op {
	case ag.OpAdd:
		return "+"
	case ag.OpSub:
		return "-"
	case ag.OpMul:
		return "*"
	case ag.OpDiv:
		return "/"
	case ag.OpMod:
		return "%"
	case ag.OpAnd:
		return "&&"
	case ag.OpOr:
		return "||"
	case ag.OpBitAnd:
		return "&"
	case ag.OpBitOr:
		return "|"
	case ag.OpBitXor:
		return "^"
	case ag.OpShl:
		return "<<"
	case ag.OpShr, ag.OpUShr:
		return ">>"
	case ag.OpEq:
		return "=="
	case ag.OpNe:
		return "!="
	case ag.OpLt:
		return "<"
	case ag.OpGt:
		return ">"
	case ag.OpLte:
		return "<="
	case ag.OpGte:
		return ">="
	default:
		return "/* elvis */"
	}
}

// goExpr renders e as a Go expression. Most node kinds translate directly;
// OpElvis (x ?: y, "x unless x's zero value") has no single Go operator,
// so it expands to an immediately invoked closure.
func (c *exprCtx) goExpr(e ag.Expression) string {
	switch v := e.(type) {
	case *ag.IntExpression:
		return strconv.FormatInt(v.Value, 10)
	case *ag.BoolExpression:
		return strconv.FormatBool(v.Value)
	case *ag.StrExpression:
		return strconv.Quote(v.Value)
	case *ag.BinaryExpression:
		if v.Op == ag.OpElvis {
			t := goTypeName(v.GetType(), c.tg)
			return fmt.Sprintf("func() %s { if lhs := %s; lhs != 0 { return lhs }; return %s }()",
				t, c.goExpr(v.Left), c.goExpr(v.Right))
		}
		if v.Op == ag.OpUShr {
			if lt := v.Left.GetType(); lt.Kind == ag.KindScalar && lt.Scalar.IsSigned && lt.Scalar.SizeBytes <= 8 {
				return fmt.Sprintf("%s(uint%d(%s) >> %s)", goTypeName(lt, c.tg), lt.Scalar.SizeBytes*8, c.goExpr(v.Left), c.goExpr(v.Right))
			}
		}
		return fmt.Sprintf("(%s %s %s)", c.goExpr(v.Left), binOpGo(v.Op), c.goExpr(v.Right))
	case *ag.UnaryExpression:
		switch v.Op {
		case ag.OpNeg:
			return fmt.Sprintf("(-%s)", c.goExpr(v.Inner))
		case ag.OpNot:
			return fmt.Sprintf("(!%s)", c.goExpr(v.Inner))
		case ag.OpBitNot:
			return fmt.Sprintf("(^%s)", c.goExpr(v.Inner))
		}
		return c.goExpr(v.Inner)
	case *ag.CastExpression:
		return fmt.Sprintf("%s(%s)", goTypeName(v.Target, c.tg), c.goExpr(v.Inner))
	case *ag.ArrayIndexExpression:
		return fmt.Sprintf("%s[%s]", c.goExpr(v.Array), c.goExpr(v.Index))
	case *ag.EnumAccessExpression:
		return strconv.FormatInt(v.Value, 10)
	case *ag.MemberExpression:
		return fmt.Sprintf("(%s.Has%s())", c.goExpr(v.Target), codegen.ToPascalCase(v.Name))
	case *ag.TernaryExpression:
		t := goTypeName(v.Typ, c.tg)
		return fmt.Sprintf("func() %s { if %s { return %s }; return %s }()",
			t, c.goExpr(v.Cond), c.goExpr(v.IfTrue), c.goExpr(v.IfFalse))
	case *ag.CallExpression:
		return c.callGo(v)
	case *ag.FieldRefExpression:
		path, ok := c.tg.fieldPaths[v.Field]
		if !ok {
			return "/* unresolved field ref " + v.Name + " */"
		}
		return resolvePath(c.scopes, path)
	case *ag.InputRefExpression:
		return codegen.ToCamelCase(v.Input.Name)
	case *ag.ConstRefExpression:
		return "Const" + codegen.ToPascalCase(v.Const.Name)
	case *plan.ScratchLenExpr:
		return fmt.Sprintf("%s(len(%s))", goTypeName(v.Typ, c.tg), streamVarName(plan.DirEncode, v.Scratch))
	default:
		return "/* unsupported expression */"
	}
}

func (c *exprCtx) callGo(v *ag.CallExpression) string {
	h, ok := c.tg.gen.Resolver.ResolveFFIFunction(v.Function.Name)
	if !ok {
		return fmt.Sprintf("/* unresolved function %s */", v.Function.Name)
	}
	c.tg.noteFFIImports(v.Function.Name)
	args := make([]any, len(v.Arguments))
	for i, a := range v.Arguments {
		args[i] = c.goExpr(a)
	}
	return fmt.Sprintf(h.GoExpr, args...)
}

// goTypeName renders an ag.Type that may appear free-standing in an
// expression (a cast target, a ternary/elvis result type) rather than
// bound to a declared field, so it cannot use a field path's generated
// struct name.
func goTypeName(t ag.Type, tg *typeGen) string {
	switch t.Kind {
	case ag.KindScalar:
		return goScalar(t.Scalar)
	case ag.KindF32:
		return "float32"
	case ag.KindF64:
		return "float64"
	case ag.KindBool:
		return "bool"
	case ag.KindForeign:
		if h, ok := tg.gen.Resolver.ResolveFFIType(t.Foreign.Name); ok {
			return h.GoType
		}
		return "[]byte"
	default:
		return "int64"
	}
}

// streamVarName names the Go local variable backing a stream reference.
// The main stream is the function's own buffer (the accumulator "buf" on
// encode, the remaining-input slice "src" on decode); every other
// StreamRef names an inner stream introduced by WrapTransform,
// BoundedStream, or EncodeScratch, scoped to the block that declared it.
func streamVarName(dir plan.Direction, ref plan.StreamRef) string {
	if ref == plan.MainStream {
		if dir == plan.DirDecode {
			return "src"
		}
		return "buf"
	}
	return "strm_" + string(ref)
}
