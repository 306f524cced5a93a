// Package gogen is the one concrete backend provided for pkg/codegen: it
// walks a fully analyzed program plus the planner's per-type instruction
// lists and emits a single Go source file defining one type (and its
// Encode/Decode pair) per top-level schema declaration.
package gogen

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/codegen"
	"github.com/ironwell/protospec/pkg/ffi"
	"github.com/ironwell/protospec/pkg/plan"
)

// Generator emits Go source. It needs an ffi.Resolver to turn foreign
// type/transform/function names back into spliceable Go source, so it is
// constructed directly with New; it does not register itself in the
// codegen registry.
type Generator struct {
	Resolver ffi.Resolver
}

// New returns a Go backend that resolves foreign bindings through resolver.
func New(resolver ffi.Resolver) *Generator {
	return &Generator{Resolver: resolver}
}

var _ codegen.Generator = (*Generator)(nil)

func (g *Generator) Language() codegen.Language { return codegen.LanguageGo }

func (g *Generator) FileExtension() string { return ".go" }

// Generate emits a complete Go file for prog to w. plans must contain an
// entry for every name in prog.Order; Generate does not plan types itself.
func (g *Generator) Generate(w io.Writer, prog *ag.Program, plans map[string]*plan.FieldPlan, options codegen.Options) error {
	pkg := options.Package
	if pkg == "" {
		pkg = "protospecgen"
	}

	var body strings.Builder
	imp := newImportSet()

	names := append([]string(nil), prog.Order...)
	sort.Strings(names)

	for _, name := range names {
		decl := prog.Types[name]
		p, ok := plans[name]
		if !ok {
			return &codegen.GeneratorError{Message: fmt.Sprintf("no plan provided for type %q", name), Span: decl.Span}
		}

		tg := &typeGen{
			gen:     g,
			prog:    prog,
			decl:    decl,
			options: options,
			imports: imp,
		}
		if err := tg.emitAll(&body); err != nil {
			return err
		}
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by protospec. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", pkg)
	imp.writeImports(&out)
	out.WriteString(body.String())

	formatted, err := imports.Process("generated.go", out.Bytes(), nil)
	if err != nil {
		// Fall back to the unformatted source; a syntax mistake in the
		// emitted code is more useful to a caller visible in raw form
		// than swallowed behind a formatting failure.
		formatted = out.Bytes()
	}

	_, err = w.Write(formatted)
	return err
}

// importSet collects package paths referenced by generated code across all
// types in one file, deduplicated.
type importSet struct {
	paths map[string]bool
}

func newImportSet() *importSet {
	return &importSet{paths: map[string]bool{
		"github.com/ironwell/protospec/internal/wire": true,
	}}
}

func (s *importSet) add(path string) { s.paths[path] = true }

func (s *importSet) writeImports(out *bytes.Buffer) {
	paths := make([]string, 0, len(s.paths))
	for p := range s.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out.WriteString("import (\n")
	for _, p := range paths {
		fmt.Fprintf(out, "\t%q\n", p)
	}
	out.WriteString(")\n\n")
}
