package plan

import "github.com/ironwell/protospec/pkg/ag"

// Planner turns one resolved top-level type's field tree into a FieldPlan.
// A Planner carries no state across calls to PlanType; every call starts a
// fresh register/stream counter, matching the register allocator described
// in spec.md §4.4 ("a monotonically increasing usize counter").
type Planner struct {
	program *ag.Program
}

// NewPlanner creates a Planner over prog's resolved declarations. prog must
// already have completed semantic analysis (including cycle annotation):
// the planner never mutates it and assumes every Ref is already bound.
func NewPlanner(prog *ag.Program) *Planner {
	return &Planner{program: prog}
}

// PlanAll plans every top-level type declared directly in prog (not
// aliases introduced by an import), in declaration order.
func PlanAll(prog *ag.Program) (map[string]*FieldPlan, []*PlanError) {
	p := NewPlanner(prog)
	out := make(map[string]*FieldPlan)
	var errs []*PlanError
	seen := make(map[string]bool)
	for _, name := range prog.Order {
		if seen[name] {
			continue
		}
		seen[name] = true
		td, ok := prog.Types[name]
		if !ok {
			continue
		}
		fp, err := p.PlanType(td)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = fp
	}
	return out, errs
}

// PlanType plans one top-level type declaration, producing its encode and
// decode instruction lists independently (each with its own register
// numbering, since the two lists are never interleaved by a consumer).
func (p *Planner) PlanType(td *ag.TypeDecl) (*FieldPlan, *PlanError) {
	if td.Value == nil || td.Value.Type == nil {
		return nil, newPlanError(td.Span, "type %q has no resolved value to plan", td.Name)
	}

	encodeCtx := newPlanCtx(p.program)
	encode := encodeCtx.planField(DirEncode, td.Value, MainStream, "")

	decodeCtx := newPlanCtx(p.program)
	decode := decodeCtx.planField(DirDecode, td.Value, MainStream, "")

	return &FieldPlan{
		TypeName:    td.Name,
		Encode:      encode,
		Decode:      decode,
		DecodeRegOf: decodeCtx.decodeRegOf,
	}, nil
}

// planCtx carries the per-direction register/stream counters and the
// decode register map for a single PlanType call.
type planCtx struct {
	program     *ag.Program
	nextReg     int
	nextStream  int
	decodeRegOf map[string]Register
}

func newPlanCtx(prog *ag.Program) *planCtx {
	return &planCtx{program: prog, decodeRegOf: make(map[string]Register)}
}

func (c *planCtx) freshReg() Register {
	r := Register(c.nextReg)
	c.nextReg++
	return r
}

func (c *planCtx) freshStream() StreamRef {
	c.nextStream++
	return StreamRef(streamName(c.nextStream))
}

func streamName(n int) string {
	const base = "s"
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return base + string(digits)
}

func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func elemPath(path string) string {
	return path + "[]"
}

// planField plans one field (top-level value, array element, or container
// member) in direction dir, reading from or writing to stream, with path
// naming it for the code generator (empty at the type's own root value).
func (c *planCtx) planField(dir Direction, f *ag.Field, stream StreamRef, path string) []Instruction {
	if f.Calculated != nil {
		reg := c.freshReg()
		if dir == DirDecode {
			c.decodeRegOf[path] = reg
		}
		return []Instruction{&Eval{Reg: reg, Expr: f.Calculated}}
	}

	var core []Instruction
	switch dir {
	case DirEncode:
		core = c.planEncodeTransformed(f, stream, path)
	case DirDecode:
		core = c.planDecodeTransformed(f, stream, path)
	}

	if f.Condition != nil {
		core = []Instruction{&Conditional{Cond: f.Condition, Body: core}}
	}
	return core
}

// planEncodeTransformed applies f's transform chain inside-out: the first
// declared transform wraps the raw encoded bytes, later ones wrap the
// previous wrapper's output, ending at target.
func (c *planCtx) planEncodeTransformed(f *ag.Field, target StreamRef, path string) []Instruction {
	if len(f.Transforms) == 0 {
		return c.planEncodeValue(f, target, path)
	}

	inner := c.freshStream()
	body := c.planEncodeValue(f, inner, path)
	cur := inner
	for i, t := range f.Transforms {
		outer := target
		if i < len(f.Transforms)-1 {
			outer = c.freshStream()
		}
		wrap := &WrapTransform{Outer: outer, Inner: cur, Transform: t.Transform, Args: t.Arguments, Direction: DirEncode, Body: body}
		var wrapped Instruction = wrap
		if t.Condition != nil {
			wrapped = &Conditional{Cond: t.Condition, Body: []Instruction{wrap}}
		}
		body = []Instruction{wrapped}
		cur = outer
	}
	return body
}

// planDecodeTransformed unwraps f's transform chain outside-in: the last
// declared transform (outermost at encode time) is peeled first.
func (c *planCtx) planDecodeTransformed(f *ag.Field, source StreamRef, path string) []Instruction {
	return c.planDecodeTransformsRec(f, f.Transforms, source, path)
}

func (c *planCtx) planDecodeTransformsRec(f *ag.Field, transforms []*ag.TransformApplication, source StreamRef, path string) []Instruction {
	if len(transforms) == 0 {
		return c.planDecodeValue(f, source, path)
	}
	last := transforms[len(transforms)-1]
	inner := c.freshStream()
	body := c.planDecodeTransformsRec(f, transforms[:len(transforms)-1], inner, path)
	wrap := &WrapTransform{Outer: source, Inner: inner, Transform: last.Transform, Args: last.Arguments, Direction: DirDecode, Body: body}
	var wrapped Instruction = wrap
	if last.Condition != nil {
		wrapped = &Conditional{Cond: last.Condition, Body: []Instruction{wrap}}
	}
	return []Instruction{wrapped}
}

func (c *planCtx) planEncodeValue(f *ag.Field, target StreamRef, path string) []Instruction {
	t := f.Type
	switch t.Kind {
	case ag.KindScalar, ag.KindF32, ag.KindF64, ag.KindBool:
		return []Instruction{&EncodePrimitive{Field: path, Type: *t, Stream: target}}
	case ag.KindEnum:
		return []Instruction{&EncodePrimitive{Field: path, Type: ag.ScalarOf(t.Span, t.Enum.Rep), Stream: target}}
	case ag.KindBitfield:
		return []Instruction{&EncodePrimitive{Field: path, Type: ag.ScalarOf(t.Span, t.Bitfield.Rep), Stream: target}}
	case ag.KindArray:
		return c.planEncodeArray(f, target, path)
	case ag.KindContainer:
		return c.planEncodeContainer(t.Container, target, path)
	case ag.KindForeign:
		return []Instruction{&EncodeForeign{Field: path, Foreign: t.Foreign.Name, Args: t.Foreign.Arguments, Stream: target}}
	case ag.KindRef:
		return []Instruction{&EncodeRef{Field: path, Target: t.Ref.Name, Args: t.Ref.Arguments, Stream: target}}
	default:
		return nil
	}
}

func (c *planCtx) planDecodeValue(f *ag.Field, source StreamRef, path string) []Instruction {
	t := f.Type
	switch t.Kind {
	case ag.KindScalar, ag.KindF32, ag.KindF64, ag.KindBool:
		reg := c.freshReg()
		c.decodeRegOf[path] = reg
		return []Instruction{&DecodePrimitive{Reg: reg, Field: path, Type: *t, Stream: source}}
	case ag.KindEnum:
		reg := c.freshReg()
		c.decodeRegOf[path] = reg
		return []Instruction{&DecodePrimitive{Reg: reg, Field: path, Type: ag.ScalarOf(t.Span, t.Enum.Rep), Stream: source}}
	case ag.KindBitfield:
		reg := c.freshReg()
		c.decodeRegOf[path] = reg
		return []Instruction{&DecodePrimitive{Reg: reg, Field: path, Type: ag.ScalarOf(t.Span, t.Bitfield.Rep), Stream: source}}
	case ag.KindArray:
		return c.planDecodeArray(f, source, path)
	case ag.KindContainer:
		return c.planDecodeContainer(t.Container, source, path)
	case ag.KindForeign:
		reg := c.freshReg()
		c.decodeRegOf[path] = reg
		return []Instruction{&DecodeForeign{Reg: reg, Field: path, Foreign: t.Foreign.Name, Args: t.Foreign.Arguments, Stream: source}}
	case ag.KindRef:
		reg := c.freshReg()
		c.decodeRegOf[path] = reg
		return []Instruction{&DecodeRef{Reg: reg, Field: path, Target: t.Ref.Name, Args: t.Ref.Arguments, Stream: source}}
	default:
		return nil
	}
}

// planEncodeArray writes every in-memory element consecutively; the bound
// a LengthBoundedThenExhaust constraint expresses only disciplines
// decoding, since an encoder already knows exactly how many elements it
// holds.
func (c *planCtx) planEncodeArray(f *ag.Field, target StreamRef, path string) []Instruction {
	arr := f.Type.Array
	body := c.planField(DirEncode, arr.Element, target, elemPath(path))

	var count Expr
	if arr.Length.Kind == ag.LengthFixed {
		count = arr.Length.Value
	}
	return []Instruction{&Loop{Kind: LoopCountedBy, Count: count, Body: body}}
}

func (c *planCtx) planDecodeArray(f *ag.Field, source StreamRef, path string) []Instruction {
	arr := f.Type.Array
	reg := c.freshReg()
	c.decodeRegOf[path] = reg

	switch arr.Length.Kind {
	case ag.LengthFixed:
		alloc := &Alloc{Reg: reg, Type: *f.Type}
		body := c.planField(DirDecode, arr.Element, source, elemPath(path))
		loop := &Loop{Kind: LoopCountedBy, Count: arr.Length.Value, Body: body}
		return []Instruction{alloc, loop}
	case ag.LengthConsumeToEnd:
		body := c.planField(DirDecode, arr.Element, source, elemPath(path))
		loop := &Loop{Kind: LoopUntilEOF, Body: body}
		return []Instruction{loop}
	case ag.LengthBoundedThenExhaust:
		inner := c.freshStream()
		body := c.planField(DirDecode, arr.Element, inner, elemPath(path))
		loop := &Loop{Kind: LoopUntilInnerExhausted, Body: body}
		bounded := &BoundedStream{Outer: source, Inner: inner, ByteLength: arr.Length.Value, Body: []Instruction{loop}}
		return []Instruction{bounded}
	default: // LengthRejected: analysis should already have reported this
		return nil
	}
}

// planEncodeContainer walks c's fields in declaration order. A field
// declared `+auto` whose value feeds a later array field's length is
// encoded out of order: the consumer is encoded first into a scratch
// buffer, the auto field's value is resolved from the buffer's length,
// then the auto field and the buffered bytes are emitted in their
// original positions.
func (c *planCtx) planEncodeContainer(cont *ag.ContainerType, target StreamRef, path string) []Instruction {
	var out []Instruction
	pending := make(map[int]StreamRef) // consumer index -> its buffered scratch

	for i, nf := range cont.Fields {
		if scratch, ok := pending[i]; ok {
			out = append(out, &SpliceScratch{Scratch: scratch, Into: target})
			continue
		}
		f := nf.Field
		fieldPath := childPath(path, nf.Name)

		if f.IsAuto {
			if consumerIdx, consumerField, ok := c.findAutoConsumer(cont, i); ok {
				consumerName := cont.Fields[consumerIdx].Name
				scratch := c.freshStream()
				scratchBody := c.planField(DirEncode, consumerField, scratch, childPath(path, consumerName))

				reg := c.freshReg()
				out = append(out, &EncodeScratch{Scratch: scratch, Field: consumerName, Body: scratchBody})
				out = append(out, &BreakpointAuto{Reg: reg, Field: nf.Name})
				out = append(out, &ResolveAuto{Reg: reg, Value: &ScratchLenExpr{Scratch: scratch, Typ: *f.Type}})
				out = append(out, c.planField(DirEncode, f, target, fieldPath)...)

				pending[consumerIdx] = scratch
				continue
			}
		}

		out = append(out, c.planField(DirEncode, f, target, fieldPath)...)
	}
	return out
}

func (c *planCtx) planDecodeContainer(cont *ag.ContainerType, source StreamRef, path string) []Instruction {
	var out []Instruction
	for _, nf := range cont.Fields {
		out = append(out, c.planField(DirDecode, nf.Field, source, childPath(path, nf.Name))...)
	}
	return out
}

// findAutoConsumer looks for the first field after autoIdx whose array
// length constraint reads the auto field's value, the one concrete
// consumer site spec.md §4.4/§9 describes.
func (c *planCtx) findAutoConsumer(cont *ag.ContainerType, autoIdx int) (int, *ag.Field, bool) {
	autoName := cont.Fields[autoIdx].Name
	for j := autoIdx + 1; j < len(cont.Fields); j++ {
		f := cont.Fields[j].Field
		if f.Type == nil || f.Type.Kind != ag.KindArray {
			continue
		}
		lc := f.Type.Array.Length
		if lc.Value != nil && exprReferencesField(lc.Value, autoName) {
			return j, f, true
		}
	}
	return 0, nil, false
}

// exprReferencesField reports whether e reads name's field value anywhere
// in its tree.
func exprReferencesField(e ag.Expression, name string) bool {
	switch v := e.(type) {
	case *ag.FieldRefExpression:
		return v.Name == name
	case *ag.BinaryExpression:
		return exprReferencesField(v.Left, name) || exprReferencesField(v.Right, name)
	case *ag.UnaryExpression:
		return exprReferencesField(v.Inner, name)
	case *ag.CastExpression:
		return exprReferencesField(v.Inner, name)
	case *ag.TernaryExpression:
		return exprReferencesField(v.Cond, name) || exprReferencesField(v.IfTrue, name) || exprReferencesField(v.IfFalse, name)
	case *ag.ArrayIndexExpression:
		return exprReferencesField(v.Array, name) || exprReferencesField(v.Index, name)
	case *ag.MemberExpression:
		return exprReferencesField(v.Target, name)
	case *ag.CallExpression:
		for _, a := range v.Arguments {
			if exprReferencesField(a, name) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
