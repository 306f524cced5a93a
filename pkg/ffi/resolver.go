// Package ffi defines the external collaborator interfaces the compiler
// consumes but never implements itself: import resolution, and bindings
// for transforms/types/functions supplied by import_ffi declarations. A
// concrete Go backend resolves every handle to source text it can splice
// directly into generated code.
package ffi

import (
	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/ast"
)

// Resolver is implemented by whatever supplies imports and FFI bindings to
// the semantic analyzer. The analyzer never reads the filesystem or any
// other external resource directly; it only ever calls through a Resolver,
// so tests can substitute an in-memory one.
type Resolver interface {
	// NormalizeImport turns the literal path written in an `import ...
	// from "path"` declaration, relative to the file that contains it,
	// into a key stable enough to deduplicate repeated imports of the
	// same file.
	NormalizeImport(fromFile, importPath string) string

	// ResolveImport loads and parses the schema file identified by a
	// normalized import key.
	ResolveImport(key string) (*ast.Program, error)

	// ResolveFFITransform looks up an `import_ffi NAME as transform;`
	// binding.
	ResolveFFITransform(name string) (*TransformHandle, bool)

	// ResolveFFIType looks up an `import_ffi NAME as type;` binding.
	ResolveFFIType(name string) (*TypeHandle, bool)

	// ResolveFFIFunction looks up an `import_ffi NAME as function;`
	// binding.
	ResolveFFIFunction(name string) (*FunctionHandle, bool)
}

// TransformHandle describes how to encode/decode through an externally
// supplied stream transform. DecodeCode and EncodeCode are Go source
// fragments; the gogen backend splices them in as the body of the
// transform's wrapping function, with `src` bound to the input bytes in
// both directions.
type TransformHandle struct {
	Name       string
	Arguments  []ag.FFIArgument
	DecodeCode string
	EncodeCode string
}

// TypeHandle describes an externally supplied scalar-like type: its Go
// representation and how to read/write one.
type TypeHandle struct {
	Name       string
	Arguments  []ag.FFIArgument
	GoType     string
	DecodeCode string
	EncodeCode string
}

// FunctionHandle describes an externally supplied pure function usable
// from field expressions (conditions, lengths, calculated fields).
type FunctionHandle struct {
	Name      string
	Arguments []ag.FFIArgument
	Return    ag.Type
	GoExpr    string // Go expression template, e.g. "len(%s)"
}
