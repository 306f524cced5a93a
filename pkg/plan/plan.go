// Package plan implements the planner (component C4): it linearizes one
// top-level type's resolved field tree into a pair of small register-based
// instruction lists — one for encoding, one for decoding — that a separate
// code generator walks directly, without having to re-derive evaluation
// order, transform nesting, or auto-length bookkeeping itself.
package plan

import (
	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/token"
)

// Register is a fresh tag naming an intermediate decoded or encoded value.
// Registers are scoped to a single FieldPlan's Encode or Decode list; they
// are allocated by a monotonically increasing counter, never reused.
type Register int

// StreamRef names the byte stream an instruction reads from or writes to:
// the outer stream a top-level codec was invoked with, or an inner one
// introduced by WrapTransform, BoundedStream, or an auto-length scratch
// buffer, valid only for the lifetime of the block that introduced it.
type StreamRef string

// MainStream is the stream every top-level Encode/Decode call is given.
const MainStream StreamRef = "main"

// Direction distinguishes the encode half of a WrapTransform from its
// decode half; both use the same instruction shape.
type Direction int

const (
	DirEncode Direction = iota
	DirDecode
)

func (d Direction) String() string {
	if d == DirEncode {
		return "encode"
	}
	return "decode"
}

// Instruction is implemented by every node in the planner's IR.
type Instruction interface {
	instrNode()
}

// Eval evaluates a pure expression and binds its value to Reg, used for
// calculated (virtual) fields that have no wire representation of their
// own.
type Eval struct {
	Reg  Register
	Expr ag.Expression
}

// Alloc reserves a slot for a value of Type, emitted ahead of a Loop whose
// element count is known before the loop runs so the generated code can
// pre-size a slice instead of growing it element by element.
type Alloc struct {
	Reg  Register
	Type ag.Type
}

// DecodePrimitive reads a fixed-width scalar, float, or bool from Stream
// into Reg and records it as the decoded value of Field. Type.Kind is
// always one of KindScalar, KindF32, KindF64, or KindBool.
type DecodePrimitive struct {
	Reg    Register
	Field  string
	Type   ag.Type
	Stream StreamRef
}

// EncodePrimitive writes Field's current value to Stream.
type EncodePrimitive struct {
	Field  string
	Type   ag.Type
	Stream StreamRef
}

// DecodeRef delegates to another top-level type's generated decoder,
// binding its result to Reg as Field's value.
type DecodeRef struct {
	Reg    Register
	Field  string
	Target string
	Args   []ag.Expression
	Stream StreamRef
}

// EncodeRef delegates to another top-level type's generated encoder.
type EncodeRef struct {
	Field  string
	Target string
	Args   []ag.Expression
	Stream StreamRef
}

// DecodeForeign delegates to an FFI type's decoding hook.
type DecodeForeign struct {
	Reg     Register
	Field   string
	Foreign string
	Args    []ag.Expression
	Stream  StreamRef
}

// EncodeForeign delegates to an FFI type's encoding hook.
type EncodeForeign struct {
	Field   string
	Foreign string
	Args    []ag.Expression
	Stream  StreamRef
}

// WrapTransform replaces Inner with a stream wrapped by Transform's codegen
// hook, valid for the lifetime of Body, which unwraps (decode) or flushes
// (encode) the wrapper on exit. Outer is the stream Inner's wrapped bytes
// are ultimately read from or written to.
type WrapTransform struct {
	Outer     StreamRef
	Inner     StreamRef
	Transform *ag.Transform
	Args      []ag.Expression
	Direction Direction
	Body      []Instruction
}

// Conditional runs Body only when Cond evaluates truthy; on decode, a false
// condition leaves the field's decoded value absent.
type Conditional struct {
	Cond Expr
	Body []Instruction
}

// Expr is the planner's alias for the expression type its instructions
// carry; it is identical to ag.Expression, which planner-only
// pseudo-expressions (ScratchLenExpr) implement directly.
type Expr = ag.Expression

// BoundedStream restricts Outer to at most ByteLength bytes for the
// lifetime of Body, presenting that bounded region as Inner; on exit the
// outer stream advances by exactly the bytes the bound allowed, regardless
// of how much of Body's decode actually consumed.
type BoundedStream struct {
	Outer      StreamRef
	Inner      StreamRef
	ByteLength Expr
	Body       []Instruction
}

// LoopKind discriminates the three ways an array's element count is
// determined.
type LoopKind int

const (
	// LoopCountedBy repeats Body exactly Count times.
	LoopCountedBy LoopKind = iota
	// LoopUntilEOF repeats Body until the stream is exhausted.
	LoopUntilEOF
	// LoopUntilInnerExhausted repeats Body until a BoundedStream
	// introduced around the loop is exhausted; Count is unused.
	LoopUntilInnerExhausted
)

// Loop repeats Body once per array element.
type Loop struct {
	Kind  LoopKind
	Count Expr // element count (LoopCountedBy; nil on encode unless the length is fixed); unused by the other kinds
	Body  []Instruction
}

// BreakpointAuto reserves Reg at an auto field's declared position in the
// encode stream, before its value is known.
type BreakpointAuto struct {
	Reg   Register
	Field string
}

// ResolveAuto supplies the value an earlier BreakpointAuto reserved Reg
// for, computed from Value once its consumer has been planned.
type ResolveAuto struct {
	Reg   Register
	Value Expr
}

// EncodeScratch buffers the encode of Body into a fresh scratch stream
// rather than the live output, so a preceding auto field can learn the
// buffered payload's length before the auto field itself is encoded. Field
// names which container member Body encodes, for diagnostics.
type EncodeScratch struct {
	Scratch StreamRef
	Field   string
	Body    []Instruction
}

// SpliceScratch appends a previously buffered scratch stream's bytes onto
// Into, at the consumer field's original declared position.
type SpliceScratch struct {
	Scratch StreamRef
	Into    StreamRef
}

func (*Eval) instrNode()            {}
func (*Alloc) instrNode()           {}
func (*DecodePrimitive) instrNode() {}
func (*EncodePrimitive) instrNode() {}
func (*DecodeRef) instrNode()       {}
func (*EncodeRef) instrNode()       {}
func (*DecodeForeign) instrNode()   {}
func (*EncodeForeign) instrNode()   {}
func (*WrapTransform) instrNode()   {}
func (*Conditional) instrNode()     {}
func (*BoundedStream) instrNode()   {}
func (*Loop) instrNode()            {}
func (*BreakpointAuto) instrNode()  {}
func (*ResolveAuto) instrNode()     {}
func (*EncodeScratch) instrNode()   {}
func (*SpliceScratch) instrNode()   {}

// ScratchLenExpr is a planner-only pseudo-expression representing "the
// number of bytes buffered in Scratch so far", cast to Typ. It implements
// ag.Expression so it can sit in a ResolveAuto's Value exactly like any
// other resolved expression, even though no source text ever produces one.
type ScratchLenExpr struct {
	Scratch StreamRef
	Typ     ag.Type
}

func (e *ScratchLenExpr) Pos() token.Span { return token.Span{} }

// GetType returns the scalar type the scratch length is cast to before
// being written as the auto field's value.
func (e *ScratchLenExpr) GetType() ag.Type { return e.Typ }

// FieldPlan is the planner's output for one top-level type: an Encode and
// a Decode instruction list, plus the register each decoded field's value
// ends up bound to so the code generator can wire registers to struct
// fields without re-walking the container.
type FieldPlan struct {
	TypeName    string
	Encode      []Instruction
	Decode      []Instruction
	DecodeRegOf map[string]Register // dotted field path -> its decode register
}
