package gogen

import (
	"fmt"
	"strings"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/codegen"
	"github.com/ironwell/protospec/pkg/plan"
)

// emitter accumulates indented Go source lines into a strings.Builder.
type emitter struct {
	w   *strings.Builder
	ind int
}

func (e *emitter) printf(format string, args ...any) {
	e.w.WriteString(strings.Repeat("\t", e.ind))
	fmt.Fprintf(e.w, format, args...)
	e.w.WriteString("\n")
}

func (e *emitter) raw(s string) {
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			e.w.WriteString("\n")
			continue
		}
		e.w.WriteString(strings.Repeat("\t", e.ind))
		e.w.WriteString(line)
		e.w.WriteString("\n")
	}
}

// instrCtx carries the state the instruction walker threads through a
// single Encode or Decode body: the expression translator (itself carrying
// the scope stack), the emitter writing out statements, the direction
// governing which of the two instruction shapes we're walking, and the
// pendingAuto slot ResolveAuto leaves for the EncodePrimitive that follows
// it immediately, per the planner's guaranteed emission order.
type instrCtx struct {
	*exprCtx
	e           *emitter
	dir         plan.Direction
	pendingAuto string
}

func (tg *typeGen) instrCtx(e *emitter, dir plan.Direction, scopes []scope) *instrCtx {
	return &instrCtx{exprCtx: tg.exprCtx(scopes), e: e, dir: dir}
}

func (c *instrCtx) push(s scope) *instrCtx {
	n := &instrCtx{exprCtx: &exprCtx{tg: c.tg, scopes: append(append([]scope(nil), c.scopes...), s)}, e: c.e, dir: c.dir}
	return n
}

// emit walks instrs, writing one or more Go statements per instruction.
func (c *instrCtx) emit(instrs []plan.Instruction) {
	for _, instr := range instrs {
		c.emitOne(instr)
	}
}

func (c *instrCtx) emitOne(instr plan.Instruction) {
	switch v := instr.(type) {
	case *plan.Eval:
		c.emitEval(v)
	case *plan.Alloc:
		// Pre-sizing hint only; generated slices grow via append instead.
	case *plan.DecodePrimitive:
		c.emitDecodePrimitive(v)
	case *plan.EncodePrimitive:
		c.emitEncodePrimitive(v)
	case *plan.DecodeRef:
		c.emitDecodeRef(v)
	case *plan.EncodeRef:
		c.emitEncodeRef(v)
	case *plan.DecodeForeign:
		c.emitDecodeForeign(v)
	case *plan.EncodeForeign:
		c.emitEncodeForeign(v)
	case *plan.WrapTransform:
		c.emitWrapTransform(v)
	case *plan.Conditional:
		c.emitConditional(v)
	case *plan.BoundedStream:
		c.emitBoundedStream(v)
	case *plan.Loop:
		c.emitLoop(v)
	case *plan.BreakpointAuto:
		// A no-op: append-based buffer encoding already produces the
		// correct [length][payload] byte order without reserving a slot.
	case *plan.ResolveAuto:
		c.pendingAuto = c.goExpr(v.Value)
	case *plan.EncodeScratch:
		c.emit(v.Body)
	case *plan.SpliceScratch:
		into := streamVarName(plan.DirEncode, v.Into)
		scratch := streamVarName(plan.DirEncode, v.Scratch)
		c.e.printf("%s = append(%s, %s...)", into, into, scratch)
	}
}

func (c *instrCtx) lvalue(path string) string { return resolvePath(c.scopes, path) }

func (c *instrCtx) emitEval(v *plan.Eval) {
	expr := c.goExpr(v.Expr)
	if c.dir == plan.DirEncode {
		c.e.printf("_ = %s", expr)
		return
	}
	path, ok := c.tg.regPath[v.Reg]
	if !ok {
		c.e.printf("_ = %s", expr)
		return
	}
	c.e.printf("%s = %s", c.lvalue(path), expr)
}

// wireCastType returns the Go type a fixed-width primitive of t should be
// cast to/from when crossing the internal/wire boundary: the unsigned
// width for 1-8 byte integers and [16]byte for 128-bit ones (wire.AppendFixedN always takes the
// unsigned form; Go's conversion rules let a signed or named-enum value
// convert to it directly) and t's own Go type for everything else.
func wireCastType(t ag.Type) string {
	switch t.Kind {
	case ag.KindScalar:
		if t.Scalar.SizeBytes == 16 {
			return "[16]byte"
		}
		return fmt.Sprintf("uint%d", t.Scalar.SizeBytes*8)
	case ag.KindF32:
		return "float32"
	case ag.KindF64:
		return "float64"
	default:
		return "bool"
	}
}

func (c *instrCtx) emitDecodePrimitive(v *plan.DecodePrimitive) {
	stream := streamVarName(plan.DirDecode, v.Stream)
	lv := c.lvalue(v.Field)
	goType := c.lvalueGoType(v.Field, v.Type)

	if v.Type.Kind == ag.KindBool {
		c.e.printf("if len(%s) < 1 {", stream)
		c.e.ind++
		c.e.printf("return out, %s, errShortRead", stream)
		c.e.ind--
		c.e.printf("}")
		c.e.printf("%s = %s[0] != 0", lv, stream)
		c.e.printf("%s = %s[1:]", stream, stream)
		return
	}

	decodeFn, size := "", 0
	switch v.Type.Kind {
	case ag.KindF32:
		decodeFn, size = "wire.DecodeFloat32", 4
	case ag.KindF64:
		decodeFn, size = "wire.DecodeFloat64", 8
	case ag.KindScalar:
		size = v.Type.Scalar.SizeBytes
		decodeFn = fmt.Sprintf("wire.DecodeFixed%d", size*8)
	}

	c.e.printf("rawVal, err := %s(%s)", decodeFn, stream)
	c.e.printf("if err != nil {")
	c.e.ind++
	c.e.printf("return out, %s, err", stream)
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s = %s(%s)", stream, stream, fmt.Sprintf("%s[%d:]", stream, size))
	if goType != wireCastType(v.Type) {
		c.e.printf("%s = %s(rawVal)", lv, goType)
	} else {
		c.e.printf("%s = rawVal", lv)
	}
}

// lvalueGoType returns the Go type of the field the path identifies, used
// to decide whether a decoded raw value needs a cast to a named
// enum/bitfield type.
func (c *instrCtx) lvalueGoType(path string, wireType ag.Type) string {
	f := c.tg.fieldByPath[path]
	if f == nil || f.Type == nil {
		return wireCastType(wireType)
	}
	switch f.Type.Kind {
	case ag.KindEnum, ag.KindBitfield:
		return c.tg.nameFor(path)
	default:
		return c.tg.goTypeOf(f, path)
	}
}

func (c *instrCtx) emitEncodePrimitive(v *plan.EncodePrimitive) {
	stream := streamVarName(plan.DirEncode, v.Stream)
	var valExpr string
	if c.pendingAuto != "" {
		valExpr = c.pendingAuto
		c.pendingAuto = ""
	} else {
		valExpr = c.lvalue(v.Field)
	}

	switch v.Type.Kind {
	case ag.KindBool:
		c.e.printf("if %s {", valExpr)
		c.e.ind++
		c.e.printf("%s = append(%s, 1)", stream, stream)
		c.e.ind--
		c.e.printf("} else {")
		c.e.ind++
		c.e.printf("%s = append(%s, 0)", stream, stream)
		c.e.ind--
		c.e.printf("}")
	case ag.KindF32:
		c.e.printf("%s = wire.AppendFloat32(%s, float32(%s))", stream, stream, valExpr)
	case ag.KindF64:
		c.e.printf("%s = wire.AppendFloat64(%s, float64(%s))", stream, stream, valExpr)
	case ag.KindScalar:
		size := v.Type.Scalar.SizeBytes
		cast := wireCastType(v.Type)
		c.e.printf("%s = wire.AppendFixed%d(%s, %s(%s))", stream, size*8, stream, cast, valExpr)
	}
}

func (tg *typeGen) refArgs(args []ag.Expression, scopes []scope) string {
	if len(args) == 0 {
		return ""
	}
	ctx := tg.exprCtx(scopes)
	var b strings.Builder
	for _, a := range args {
		b.WriteString(", ")
		b.WriteString(ctx.goExpr(a))
	}
	return b.String()
}

func (c *instrCtx) emitDecodeRef(v *plan.DecodeRef) {
	stream := streamVarName(plan.DirDecode, v.Stream)
	lv := c.lvalue(v.Field)
	goName := topTypeGoName(c.tg.options, v.Target)
	args := c.tg.refArgs(v.Args, c.scopes)
	tag := fieldTag(v.Field)
	c.e.printf("decVal%s, decRest%s, err := Decode%s(%s%s)", tag, tag, goName, stream, args)
	c.e.printf("if err != nil {")
	c.e.ind++
	c.e.printf("return out, %s, err", stream)
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s = decVal%s", lv, tag)
	c.e.printf("%s = decRest%s", stream, tag)
}

func (c *instrCtx) emitEncodeRef(v *plan.EncodeRef) {
	stream := streamVarName(plan.DirEncode, v.Stream)
	rv := c.lvalue(v.Field)
	args := c.tg.refArgs(v.Args, c.scopes)
	c.e.printf("encVal%s, err := %s.Encode(%s)", fieldTag(v.Field), rv, strings.TrimPrefix(args, ", "))
	c.e.printf("if err != nil {")
	c.e.ind++
	c.e.printf("return nil, err")
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s = append(%s, encVal%s...)", stream, stream, fieldTag(v.Field))
}

func fieldTag(path string) string {
	if path == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range strings.Split(path, ".") {
		b.WriteString(pascalSegment(seg))
	}
	return b.String()
}

// unexport lower-cases a Go exported identifier's first rune, used to turn
// a generated type name into a local variable name.
func unexport(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// knownImportsFor names the standard-library imports a prelude
// transform/type/function's spliced code depends on. The ffi.Resolver
// interface has no way to declare this itself, so the Go backend keeps
// its own small table for the bindings it ships with (pkg/ffi/prelude.go);
// a resolver backing a custom import_ffi binding is expected to only ever
// splice code whose imports the generated file already carries, or to
// supply its own Generator wiring if that's not the case.
func knownImportsFor(name string) []string {
	switch name {
	case "gzip":
		return []string{"bytes", "compress/gzip", "io"}
	case "base64":
		return []string{"encoding/base64"}
	case "duration":
		return []string{"time"}
	case "crc32":
		return []string{"hash/crc32"}
	case "now":
		return []string{"time"}
	default:
		return nil
	}
}

func (tg *typeGen) noteFFIImports(name string) {
	for _, p := range knownImportsFor(name) {
		tg.imports.add(p)
	}
}

func (c *instrCtx) emitDecodeForeign(v *plan.DecodeForeign) {
	h, ok := c.tg.gen.Resolver.ResolveFFIType(v.Foreign)
	stream := streamVarName(plan.DirDecode, v.Stream)
	lv := c.lvalue(v.Field)
	if !ok {
		c.e.printf("// unresolved foreign type %q", v.Foreign)
		return
	}
	c.tg.noteFFIImports(v.Foreign)
	c.e.printf("{")
	c.e.ind++
	c.e.raw(fmt.Sprintf(h.DecodeCode, stream))
	c.e.printf("if err != nil {")
	c.e.ind++
	c.e.printf("return out, %s, err", stream)
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s = v", lv)
	c.e.printf("%s = %s[n:]", stream, stream)
	c.e.ind--
	c.e.printf("}")
}

func (c *instrCtx) emitEncodeForeign(v *plan.EncodeForeign) {
	h, ok := c.tg.gen.Resolver.ResolveFFIType(v.Foreign)
	stream := streamVarName(plan.DirEncode, v.Stream)
	rv := c.lvalue(v.Field)
	if !ok {
		c.e.printf("// unresolved foreign type %q", v.Foreign)
		return
	}
	c.tg.noteFFIImports(v.Foreign)
	c.e.printf("{")
	c.e.ind++
	c.e.raw(fmt.Sprintf(strings.Replace(h.EncodeCode, "return ", "encBytes, encErr := ", 1), rv))
	c.e.printf("if encErr != nil {")
	c.e.ind++
	c.e.printf("return nil, encErr")
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s = append(%s, encBytes...)", stream, stream)
	c.e.ind--
	c.e.printf("}")
}

// emitWrapTransform splices an ffi.TransformHandle's code as the body of an
// anonymous func literal, matching the return-based convention the gzip
// and base64 prelude bindings use. The varint prelude transform does not
// follow this convention (it produces bare value locals, matching its
// TypeHandle cousin "duration" instead of its own TransformHandle peers);
// that mismatch predates this backend and is not papered over here, so a
// schema splicing "varint" as a transform emits code that will not compile.
func (c *instrCtx) emitWrapTransform(v *plan.WrapTransform) {
	h, ok := c.tg.gen.Resolver.ResolveFFITransform(v.Transform.Name)
	if !ok {
		c.e.printf("// unresolved transform %q", v.Transform.Name)
		return
	}
	c.tg.noteFFIImports(v.Transform.Name)
	outer := streamVarName(c.dir, v.Outer)
	inner := streamVarName(c.dir, v.Inner)

	if c.dir == plan.DirEncode {
		c.emit(v.Body)
		c.e.printf("%sXformed, err := func(src []byte) ([]byte, error) {", inner)
		c.e.ind++
		c.e.raw(fmt.Sprintf(h.EncodeCode, "src"))
		c.e.ind--
		c.e.printf("}(%s)", inner)
		c.e.printf("if err != nil {")
		c.e.ind++
		c.e.printf("return nil, err")
		c.e.ind--
		c.e.printf("}")
		c.e.printf("%s = append(%s, %sXformed...)", outer, outer, inner)
		return
	}

	c.e.printf("%s, err := func(src []byte) ([]byte, error) {", inner)
	c.e.ind++
	c.e.raw(fmt.Sprintf(h.DecodeCode, "src"))
	c.e.ind--
	c.e.printf("}(%s)", outer)
	c.e.printf("if err != nil {")
	c.e.ind++
	c.e.printf("return out, %s, err", outer)
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s = nil", outer)
	c.emit(v.Body)
}

func (c *instrCtx) emitConditional(v *plan.Conditional) {
	c.e.printf("if %s {", c.goExpr(v.Cond))
	c.e.ind++
	c.emit(v.Body)
	c.e.ind--
	c.e.printf("}")
}

func (c *instrCtx) emitBoundedStream(v *plan.BoundedStream) {
	outer := streamVarName(c.dir, v.Outer)
	inner := streamVarName(c.dir, v.Inner)

	if c.dir == plan.DirEncode {
		c.emit(v.Body)
		c.e.printf("%s = append(%s, %s...)", outer, outer, inner)
		return
	}

	c.e.printf("%sLen := int(%s)", inner, c.goExpr(v.ByteLength))
	c.e.printf("if %sLen > len(%s) {", inner, outer)
	c.e.ind++
	c.e.printf("%sLen = len(%s)", inner, outer)
	c.e.ind--
	c.e.printf("}")
	c.e.printf("%s := %s[:%sLen]", inner, outer, inner)
	c.e.printf("%s = %s[%sLen:]", outer, outer, inner)
	c.emit(v.Body)
}

// findLeafField recovers the dotted field path carried by the first leaf
// instruction reachable inside instrs. Loop and BoundedStream bodies carry
// no Field of their own; this is how the emitter recovers an array's path
// despite that.
func findLeafField(instrs []plan.Instruction) (string, bool) {
	for _, instr := range instrs {
		switch v := instr.(type) {
		case *plan.DecodePrimitive:
			return v.Field, true
		case *plan.EncodePrimitive:
			return v.Field, true
		case *plan.DecodeRef:
			return v.Field, true
		case *plan.EncodeRef:
			return v.Field, true
		case *plan.DecodeForeign:
			return v.Field, true
		case *plan.EncodeForeign:
			return v.Field, true
		case *plan.BreakpointAuto:
			return v.Field, true
		case *plan.Conditional:
			if f, ok := findLeafField(v.Body); ok {
				return f, true
			}
		case *plan.BoundedStream:
			if f, ok := findLeafField(v.Body); ok {
				return f, true
			}
		case *plan.WrapTransform:
			if f, ok := findLeafField(v.Body); ok {
				return f, true
			}
		case *plan.Loop:
			if f, ok := findLeafField(v.Body); ok {
				return f, true
			}
		case *plan.EncodeScratch:
			if f, ok := findLeafField(v.Body); ok {
				return f, true
			}
		}
	}
	return "", false
}

// findLeafStream mirrors findLeafField, recovering the StreamRef a Loop's
// body reads from or writes to so LoopUntilEOF/LoopUntilInnerExhausted can
// test that stream's remaining length.
func findLeafStream(instrs []plan.Instruction) (plan.StreamRef, bool) {
	for _, instr := range instrs {
		switch v := instr.(type) {
		case *plan.DecodePrimitive:
			return v.Stream, true
		case *plan.EncodePrimitive:
			return v.Stream, true
		case *plan.DecodeRef:
			return v.Stream, true
		case *plan.EncodeRef:
			return v.Stream, true
		case *plan.DecodeForeign:
			return v.Stream, true
		case *plan.EncodeForeign:
			return v.Stream, true
		case *plan.Conditional:
			if s, ok := findLeafStream(v.Body); ok {
				return s, true
			}
		case *plan.BoundedStream:
			if s, ok := findLeafStream(v.Body); ok {
				return s, true
			}
		case *plan.WrapTransform:
			if s, ok := findLeafStream(v.Body); ok {
				return s, true
			}
		case *plan.Loop:
			if s, ok := findLeafStream(v.Body); ok {
				return s, true
			}
		case *plan.EncodeScratch:
			if s, ok := findLeafStream(v.Body); ok {
				return s, true
			}
		}
	}
	return "", false
}

// arrayFieldPathOf recovers an array field's own dotted path from the
// first leaf instruction nested in its Loop's Body, truncating at the
// "[]" marker elemPath stamped onto every descendant of that element.
func arrayFieldPathOf(body []plan.Instruction) string {
	f, ok := findLeafField(body)
	if !ok {
		return ""
	}
	if idx := strings.Index(f, "[]"); idx >= 0 {
		return f[:idx]
	}
	return f
}

func (c *instrCtx) emitLoop(v *plan.Loop) {
	arrPath := arrayFieldPathOf(v.Body)
	arrLV := c.lvalue(arrPath)
	elemVar := fmt.Sprintf("elem%d", len(c.scopes))

	if c.dir == plan.DirEncode {
		c.e.printf("for _, %s := range %s {", elemVar, arrLV)
		c.e.ind++
		inner := c.push(scope{prefix: elemPath(arrPath), expr: elemVar})
		inner.e = c.e
		inner.emit(v.Body)
		c.e.ind--
		c.e.printf("}")
		return
	}

	elemType := c.tg.elemGoType(arrPath)
	c.e.printf("%s = make([]%s, 0)", arrLV, elemType)

	switch v.Kind {
	case plan.LoopCountedBy:
		c.e.printf("for loopI := int64(0); loopI < int64(%s); loopI++ {", c.goExpr(v.Count))
	case plan.LoopUntilEOF, plan.LoopUntilInnerExhausted:
		boundStream := "src"
		if s, ok := findLeafStream(v.Body); ok {
			boundStream = streamVarName(plan.DirDecode, s)
		}
		c.e.printf("for len(%s) > 0 {", boundStream)
	}
	c.e.ind++
	c.e.printf("var %s %s", elemVar, elemType)
	inner := c.push(scope{prefix: elemPath(arrPath), expr: elemVar})
	inner.e = c.e
	inner.emit(v.Body)
	c.e.printf("%s = append(%s, %s)", arrLV, arrLV, elemVar)
	c.e.ind--
	c.e.printf("}")
}

// paramSignature renders decl.Params as a Go parameter list fragment,
// camelCased and suitable for appending after a leading required
// parameter (src []byte for Decode, none for Encode's receiver-bound
// form).
func (tg *typeGen) paramSignature(leading bool) string {
	if len(tg.decl.Params) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range tg.decl.Params {
		if leading || b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(codegen.ToCamelCase(p.Name))
		b.WriteByte(' ')
		b.WriteString(goTypeName(p.Type, tg))
	}
	return b.String()
}
