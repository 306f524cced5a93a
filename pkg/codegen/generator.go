// Package codegen defines the backend interface every target-language code
// generator implements: it consumes a fully analyzed program plus the
// planner's per-type instruction lists and emits source text. The package
// also carries the identifier-casing helpers every backend needs
// regardless of target language.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/plan"
	"github.com/ironwell/protospec/pkg/token"
)

// Language identifies a code generation backend.
type Language string

const (
	LanguageGo Language = "go"
)

// Generator produces target-language source for a fully planned program. A
// single Generate call emits one complete output unit (one file, for the Go
// backend) covering every top-level type in prog.
type Generator interface {
	// Generate writes generated source for prog to w, using plans (the
	// planner's output for every top-level type, keyed by type name) to
	// drive Encode/Decode emission.
	Generate(w io.Writer, prog *ag.Program, plans map[string]*plan.FieldPlan, options Options) error

	// Language returns the target language this Generator emits.
	Language() Language

	// FileExtension returns the file extension generated files should use.
	FileExtension() string
}

// Options configures code generation.
type Options struct {
	// Package overrides the package name; empty uses a default.
	Package string

	// GenerateComments adds a one-line comment above each generated
	// top-level type naming the schema declaration it came from. The
	// schema's own doc comments are not carried into generated code.
	GenerateComments bool

	// TypePrefix adds a prefix to every generated type name.
	TypePrefix string

	// TypeSuffix adds a suffix to every generated type name.
	TypeSuffix string
}

// DefaultOptions returns the default code generation options.
func DefaultOptions() Options {
	return Options{
		Package:          "protospecgen",
		GenerateComments: true,
	}
}

// registry holds registered generators by language.
var registry = make(map[Language]Generator)

// Register registers a generator for a language.
func Register(gen Generator) {
	registry[gen.Language()] = gen
}

// Get returns the generator for a language.
func Get(lang Language) (Generator, bool) {
	gen, ok := registry[lang]
	return gen, ok
}

// Languages returns all registered languages.
func Languages() []Language {
	langs := make([]Language, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	return langs
}

// Helper functions for code generation.

// titleCaser is used for converting strings to title case.
var titleCaser = cases.Title(language.English)

// ToPascalCase converts a string to PascalCase.
func ToPascalCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = titleCaser.String(strings.ToLower(p))
	}
	return strings.Join(parts, "")
}

// ToCamelCase converts a string to camelCase.
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return ""
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// ToSnakeCase converts a string to snake_case.
func ToSnakeCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "_")
}

// ToUpperSnakeCase converts a string to UPPER_SNAKE_CASE.
func ToUpperSnakeCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p)
	}
	return strings.Join(parts, "_")
}

// ToKebabCase converts a string to kebab-case.
func ToKebabCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "-")
}

// splitName splits a name into parts based on underscores and case
// transitions.
func splitName(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	for i, r := range s {
		if r == '_' || r == '-' {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			continue
		}

		if i > 0 && isUpper(r) && !isUpper(rune(s[i-1])) {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// Indent indents each non-empty line of s by the given number of tabs.
func Indent(s string, tabs int) string {
	indent := strings.Repeat("\t", tabs)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// Comment wraps text as a comment with the given line prefix.
func Comment(text, prefix string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + " " + line
	}
	return strings.Join(lines, "\n")
}

// GoComment wraps text as a Go doc comment.
func GoComment(text string) string {
	return Comment(text, "//")
}

// GeneratorError represents a code generation failure tied to the schema
// position that caused it.
type GeneratorError struct {
	Message string
	Span    token.Span
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}
