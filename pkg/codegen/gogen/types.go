package gogen

import (
	"fmt"
	"strings"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/codegen"
	"github.com/ironwell/protospec/pkg/plan"
)

// typeGen holds the state needed to emit one top-level type declaration
// and its Encode/Decode pair.
type typeGen struct {
	gen     *Generator
	prog    *ag.Program
	decl    *ag.TypeDecl
	options codegen.Options
	imports *importSet
	plan    *plan.FieldPlan

	topName     string
	fieldPaths  map[*ag.Field]string
	fieldByPath map[string]*ag.Field
	regPath     map[plan.Register]string
}

// childPath and elemPath mirror the planner's own path-naming scheme
// (pkg/plan's unexported helpers of the same name) exactly, so a path
// string produced here always agrees with the one the planner stamped on
// an instruction's Field.
func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func elemPath(path string) string { return path + "[]" }

func topTypeGoName(opts codegen.Options, name string) string {
	return opts.TypePrefix + codegen.ToPascalCase(name) + opts.TypeSuffix
}

func pascalSegment(seg string) string {
	elems := 0
	for strings.HasSuffix(seg, "[]") {
		seg = strings.TrimSuffix(seg, "[]")
		elems++
	}
	out := codegen.ToPascalCase(seg)
	for i := 0; i < elems; i++ {
		out += "Elem"
	}
	return out
}

func (tg *typeGen) nameFor(path string) string {
	if path == "" {
		return tg.topName
	}
	var b strings.Builder
	b.WriteString(tg.topName)
	for _, seg := range strings.Split(path, ".") {
		b.WriteByte('_')
		b.WriteString(pascalSegment(seg))
	}
	return b.String()
}

func goScalar(s ag.ScalarType) string {
	switch s.Name {
	case "i8":
		return "int8"
	case "i16":
		return "int16"
	case "i32":
		return "int32"
	case "i64":
		return "int64"
	case "i128":
		return "[16]byte"
	case "u8":
		return "uint8"
	case "u16":
		return "uint16"
	case "u32":
		return "uint32"
	case "u64":
		return "uint64"
	case "u128":
		return "[16]byte"
	default:
		return "int64"
	}
}

// goTypeOf returns the Go type a field at path resolves to, for use as a
// struct field type, slice element type, or alias underlying type.
func (tg *typeGen) goTypeOf(f *ag.Field, path string) string {
	t := f.Type
	switch t.Kind {
	case ag.KindScalar:
		return goScalar(t.Scalar)
	case ag.KindF32:
		return "float32"
	case ag.KindF64:
		return "float64"
	case ag.KindBool:
		return "bool"
	case ag.KindArray:
		return "[]" + tg.goTypeOf(t.Array.Element, elemPath(path))
	case ag.KindContainer, ag.KindEnum, ag.KindBitfield:
		return tg.nameFor(path)
	case ag.KindForeign:
		if h, ok := tg.gen.Resolver.ResolveFFIType(t.Foreign.Name); ok {
			return h.GoType
		}
		return "[]byte"
	case ag.KindRef:
		return topTypeGoName(tg.options, t.Ref.Name)
	default:
		return "any"
	}
}

// declareFieldType emits a named Go type for f at path when its kind
// warrants one (container, enum, bitfield, or a top-level array/scalar
// alias), then recurses into children so every nested shape gets its own
// declaration exactly once.
func (tg *typeGen) declareFieldType(w *strings.Builder, f *ag.Field, path string) {
	if f.Type == nil {
		return
	}
	t := f.Type
	switch t.Kind {
	case ag.KindContainer:
		name := tg.nameFor(path)
		if tg.options.GenerateComments && path == "" {
			fmt.Fprintf(w, "// %s is generated from the %s schema declaration.\n", name, tg.decl.Name)
		}
		fmt.Fprintf(w, "type %s struct {\n", name)
		for _, nf := range t.Container.Fields {
			cp := childPath(path, nf.Name)
			fmt.Fprintf(w, "\t%s %s\n", codegen.ToPascalCase(nf.Name), tg.goTypeOf(nf.Field, cp))
		}
		w.WriteString("}\n\n")
		for _, nf := range t.Container.Fields {
			tg.declareFieldType(w, nf.Field, childPath(path, nf.Name))
		}
	case ag.KindArray:
		if path == "" {
			fmt.Fprintf(w, "type %s %s\n\n", tg.nameFor(path), tg.goTypeOf(f, path))
		}
		tg.declareFieldType(w, t.Array.Element, elemPath(path))
	case ag.KindEnum:
		tg.declareEnum(w, t.Enum, tg.nameFor(path))
	case ag.KindBitfield:
		tg.declareBitfield(w, t.Bitfield, tg.nameFor(path))
	default: // scalar, f32, f64, bool, foreign, ref
		if path == "" {
			fmt.Fprintf(w, "type %s %s\n\n", tg.nameFor(path), tg.goTypeOf(f, path))
		}
	}
}

func (tg *typeGen) declareEnum(w *strings.Builder, e *ag.EnumType, name string) {
	fmt.Fprintf(w, "type %s %s\n\n", name, goScalar(e.Rep))
	if len(e.Items) == 0 {
		return
	}
	w.WriteString("const (\n")
	for _, it := range e.Items {
		fmt.Fprintf(w, "\t%s%s %s = %d\n", name, codegen.ToPascalCase(it.Name), name, it.Value)
	}
	w.WriteString(")\n\n")
}

func (tg *typeGen) declareBitfield(w *strings.Builder, b *ag.BitfieldType, name string) {
	fmt.Fprintf(w, "type %s %s\n\n", name, goScalar(b.Rep))
	if len(b.Items) == 0 {
		return
	}
	w.WriteString("const (\n")
	for _, it := range b.Items {
		fmt.Fprintf(w, "\t%s%s %s = %d\n", name, codegen.ToPascalCase(it.Name), name, it.Value)
	}
	w.WriteString(")\n\n")
	for _, it := range b.Items {
		fmt.Fprintf(w, "func (b %s) Has%s() bool {\n\treturn b&%s%s != 0\n}\n\n",
			name, codegen.ToPascalCase(it.Name), name, codegen.ToPascalCase(it.Name))
	}
}
