// Command protospec is the ProtoSpec schema compiler.
//
// Usage:
//
//	protospec check <schema-file>...
//	protospec plan <schema-file> [-type NAME]
//	protospec generate -out DIR <schema-file>...
//	protospec tokens <schema-file>
//
// Check Command:
//
//	Tokenize, parse, and semantically analyze schema files; print
//	diagnostics. Exits nonzero if any file has an error.
//
// Plan Command:
//
//	Run the full pipeline and print the planner's instruction list for
//	one (or, with no -type, every) top-level type, for debugging the
//	planner and the auto-length/transform-nesting rewrite it performs.
//
// Generate Command:
//
//	Run the full pipeline through the Go backend, writing one .go file
//	per schema file into -out.
//
// Tokens Command:
//
//	Dump the raw token stream of a single schema file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/ast"
	"github.com/ironwell/protospec/pkg/codegen"
	"github.com/ironwell/protospec/pkg/codegen/gogen"
	"github.com/ironwell/protospec/pkg/ffi"
	"github.com/ironwell/protospec/pkg/plan"
	"github.com/ironwell/protospec/pkg/sema"
	"github.com/ironwell/protospec/pkg/token"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check", "c":
		cmdCheck(os.Args[2:])
	case "plan", "p":
		cmdPlan(os.Args[2:])
	case "generate", "gen", "g":
		cmdGenerate(os.Args[2:])
	case "tokens", "t":
		cmdTokens(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ProtoSpec Schema Compiler

Usage:
  protospec <command> [options] <files>...

Commands:
  check       Tokenize, parse, and analyze schema files
  plan        Print the planner's instruction list for a type
  generate    Generate Go code from schema files
  tokens      Dump the raw token stream of a schema file
  help        Print this help message

Run 'protospec <command> -h' for command-specific help.`)
}

// compile runs the pipeline (tokenize implicitly, via the parser) through
// semantic analysis for one file and reports every diagnostic it produced
// while doing so, so a malformed declaration never hides the rest of the
// file's errors.
func compile(path string, resolver ffi.Resolver) (*ag.Program, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return nil, false
	}

	astProg, parseErrs := ast.ParseFile(path, string(data))
	for _, e := range parseErrs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if len(parseErrs) > 0 {
		return nil, false
	}

	prog, analysisErrs := sema.Analyze(resolver, path, astProg)
	for _, e := range analysisErrs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	return prog, len(analysisErrs) == 0
}

func defaultResolver() ffi.Resolver {
	return ffi.NewFileResolver(ffi.Prelude{})
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println(`Usage: protospec check <schema-file>...

Tokenize, parse, and semantically analyze schema files without generating
code.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files")
		fs.Usage()
		os.Exit(1)
	}

	resolver := defaultResolver()
	hasErrors := false
	for _, file := range fs.Args() {
		if _, ok := compile(file, resolver); !ok {
			hasErrors = true
			continue
		}
		fmt.Printf("Valid: %s\n", file)
	}
	if hasErrors {
		os.Exit(1)
	}
}

func cmdPlan(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	typeName := fs.String("type", "", "Only plan this top-level type (default: all)")
	fs.Usage = func() {
		fmt.Println(`Usage: protospec plan <schema-file> [-type NAME]

Run the full pipeline and print the planner's instruction list for one (or
every) top-level type.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one input file")
		fs.Usage()
		os.Exit(1)
	}

	resolver := defaultResolver()
	prog, ok := compile(fs.Arg(0), resolver)
	if !ok {
		os.Exit(1)
	}

	plans, planErrs := plan.PlanAll(prog)
	for _, e := range planErrs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if len(planErrs) > 0 {
		os.Exit(1)
	}

	names := prog.Order
	if *typeName != "" {
		names = []string{*typeName}
	}
	for _, name := range names {
		fp, ok := plans[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "no such type %q\n", name)
			os.Exit(1)
		}
		fmt.Printf("=== %s ===\n", name)
		fmt.Println("-- encode --")
		dumpInstructions(fp.Encode, 1)
		fmt.Println("-- decode --")
		dumpInstructions(fp.Decode, 1)
	}
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	outDir := fs.String("out", ".", "Output directory")
	pkg := fs.String("package", "", "Override package name")
	prefix := fs.String("prefix", "", "Add prefix to all type names")
	suffix := fs.String("suffix", "", "Add suffix to all type names")
	fs.Usage = func() {
		fmt.Println(`Usage: protospec generate -out DIR <schema-file>...

Generate Go code from schema files.

Options:`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files")
		fs.Usage()
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	resolver := defaultResolver()
	gen := gogen.New(resolver)

	opts := codegen.DefaultOptions()
	if *pkg != "" {
		opts.Package = *pkg
	}
	opts.TypePrefix = *prefix
	opts.TypeSuffix = *suffix

	hasErrors := false
	for _, file := range fs.Args() {
		prog, ok := compile(file, resolver)
		if !ok {
			hasErrors = true
			continue
		}
		plans, planErrs := plan.PlanAll(prog)
		for _, e := range planErrs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		if len(planErrs) > 0 {
			hasErrors = true
			continue
		}

		baseName := filepath.Base(file)
		baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
		outFile := filepath.Join(*outDir, baseName+gen.FileExtension())

		f, err := os.Create(outFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			hasErrors = true
			continue
		}
		if err := gen.Generate(f, prog, plans, opts); err != nil {
			f.Close()
			os.Remove(outFile)
			fmt.Fprintf(os.Stderr, "Error generating code: %v\n", err)
			hasErrors = true
			continue
		}
		f.Close()
		fmt.Printf("Generated: %s\n", outFile)
	}
	if hasErrors {
		os.Exit(1)
	}
}

func cmdTokens(args []string) {
	fs := flag.NewFlagSet("tokens", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println(`Usage: protospec tokens <schema-file>

Dump the raw token stream of a schema file.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one input file")
		fs.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}
	for _, tok := range token.Tokenize(fs.Arg(0), string(data)) {
		fmt.Printf("%s: %s\n", tok.Span, tok)
	}
}

// dumpInstructions is a debug pretty-printer for the planner's IR, local
// to the driver since the core compiler never needs to render its own
// instruction lists as text (pkg/plan only exposes the IR as data for a
// code generator to walk).
func dumpInstructions(instrs []plan.Instruction, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, instr := range instrs {
		switch v := instr.(type) {
		case *plan.Eval:
			fmt.Printf("%sEval(r%d, %s)\n", indent, v.Reg, exprString(v.Expr))
		case *plan.Alloc:
			fmt.Printf("%sAlloc(r%d, %s)\n", indent, v.Reg, v.Type.Kind)
		case *plan.DecodePrimitive:
			fmt.Printf("%sDecodePrimitive(r%d, %s, %s) ; field=%s\n", indent, v.Reg, v.Type.Kind, v.Stream, v.Field)
		case *plan.EncodePrimitive:
			fmt.Printf("%sEncodePrimitive(%s, %s, %s)\n", indent, v.Field, v.Type.Kind, v.Stream)
		case *plan.DecodeRef:
			fmt.Printf("%sDecodeRef(r%d, %s -> %s, %s)\n", indent, v.Reg, v.Field, v.Target, v.Stream)
		case *plan.EncodeRef:
			fmt.Printf("%sEncodeRef(%s -> %s, %s)\n", indent, v.Field, v.Target, v.Stream)
		case *plan.DecodeForeign:
			fmt.Printf("%sDecodeForeign(r%d, %s -> %s, %s)\n", indent, v.Reg, v.Field, v.Foreign, v.Stream)
		case *plan.EncodeForeign:
			fmt.Printf("%sEncodeForeign(%s -> %s, %s)\n", indent, v.Field, v.Foreign, v.Stream)
		case *plan.WrapTransform:
			fmt.Printf("%sWrapTransform(%s <- %s, %s, %s)\n", indent, v.Outer, v.Inner, v.Transform.Name, v.Direction)
			dumpInstructions(v.Body, depth+1)
		case *plan.Conditional:
			fmt.Printf("%sConditional(%s)\n", indent, exprString(v.Cond))
			dumpInstructions(v.Body, depth+1)
		case *plan.BoundedStream:
			fmt.Printf("%sBoundedStream(%s <- %s, %s)\n", indent, v.Inner, v.Outer, exprString(v.ByteLength))
			dumpInstructions(v.Body, depth+1)
		case *plan.Loop:
			fmt.Printf("%sLoop(%s)\n", indent, loopKindString(v.Kind, v.Count))
			dumpInstructions(v.Body, depth+1)
		case *plan.BreakpointAuto:
			fmt.Printf("%sBreakpointAuto(r%d) ; field=%s\n", indent, v.Reg, v.Field)
		case *plan.ResolveAuto:
			fmt.Printf("%sResolveAuto(r%d, %s)\n", indent, v.Reg, exprString(v.Value))
		case *plan.EncodeScratch:
			fmt.Printf("%sEncodeScratch(%s) ; field=%s\n", indent, v.Scratch, v.Field)
			dumpInstructions(v.Body, depth+1)
		case *plan.SpliceScratch:
			fmt.Printf("%sSpliceScratch(%s -> %s)\n", indent, v.Scratch, v.Into)
		default:
			fmt.Printf("%s%T\n", indent, instr)
		}
	}
}

func loopKindString(kind plan.LoopKind, count plan.Expr) string {
	switch kind {
	case plan.LoopCountedBy:
		return "counted: " + exprString(count)
	case plan.LoopUntilEOF:
		return "until-eof"
	case plan.LoopUntilInnerExhausted:
		return "until-inner-exhausted"
	default:
		return "?"
	}
}

// exprString renders an ag.Expression well enough for plan-dump
// diagnostics; it is not a full pretty-printer and does not round-trip.
func exprString(e ag.Expression) string {
	if e == nil {
		return "<nil>"
	}
	switch v := e.(type) {
	case *ag.IntExpression:
		return fmt.Sprintf("%d", v.Value)
	case *ag.StrExpression:
		return fmt.Sprintf("%q", v.Value)
	case *ag.BoolExpression:
		return fmt.Sprintf("%v", v.Value)
	case *ag.FieldRefExpression:
		return v.Name
	case *ag.InputRefExpression:
		return v.Input.Name
	case *ag.ConstRefExpression:
		return v.Const.Name
	case *ag.EnumAccessExpression:
		return fmt.Sprintf("%s.%s", v.Enum.Rep.Name, v.Item)
	case *ag.UnaryExpression:
		return fmt.Sprintf("(%s%s)", unaryOpString(v.Op), exprString(v.Inner))
	case *ag.BinaryExpression:
		return fmt.Sprintf("(%s %s %s)", exprString(v.Left), binaryOpString(v.Op), exprString(v.Right))
	case *ag.CastExpression:
		return fmt.Sprintf("(%s :> %s)", exprString(v.Inner), v.Target.Kind)
	case *ag.TernaryExpression:
		return fmt.Sprintf("(%s ? %s : %s)", exprString(v.Cond), exprString(v.IfTrue), exprString(v.IfFalse))
	case *ag.ArrayIndexExpression:
		return fmt.Sprintf("%s[%s]", exprString(v.Array), exprString(v.Index))
	case *ag.MemberExpression:
		return fmt.Sprintf("%s.%s", exprString(v.Target), v.Name)
	case *ag.CallExpression:
		return fmt.Sprintf("%s(...)", v.Function.Name)
	case *plan.ScratchLenExpr:
		return fmt.Sprintf("len(%s)", v.Scratch)
	default:
		return fmt.Sprintf("%T", e)
	}
}

func binaryOpString(op ag.BinaryOp) string {
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
	case ag.OpShr:
		return ">>"
	case ag.OpUShr:
		return ">>>"
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
	case ag.OpElvis:
		return "?:"
	default:
		return "?"
	}
}

func unaryOpString(op ag.UnaryOp) string {
	switch op {
	case ag.OpNeg:
		return "-"
	case ag.OpNot:
		return "!"
	case ag.OpBitNot:
		return "~"
	default:
		return "?"
	}
}
