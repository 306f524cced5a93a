package ffi

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ironwell/protospec/pkg/ast"
)

// FileResolver resolves `import ... from "path"` declarations against the
// local filesystem, relative to each importing file's own directory, and
// delegates every FFI lookup to an embedded Resolver (typically Prelude,
// optionally wrapped by the caller's own FFI bindings).
type FileResolver struct {
	FFI Resolver

	mu    sync.Mutex
	cache map[string]*ast.Program
}

// NewFileResolver creates a FileResolver whose FFI lookups fall back to
// ffi.
func NewFileResolver(ffi Resolver) *FileResolver {
	return &FileResolver{FFI: ffi, cache: make(map[string]*ast.Program)}
}

// NormalizeImport resolves importPath relative to the directory containing
// fromFile, then cleans it so two different relative spellings of the same
// file share one cache entry. The result is absolute only when importPath
// or fromFile is.
func (r *FileResolver) NormalizeImport(fromFile, importPath string) string {
	if filepath.IsAbs(importPath) {
		return filepath.Clean(importPath)
	}
	dir := filepath.Dir(fromFile)
	return filepath.Clean(filepath.Join(dir, importPath))
}

// ResolveImport reads and parses the schema file at the normalized key,
// caching the result so repeated imports of the same file parse once.
func (r *FileResolver) ResolveImport(key string) (*ast.Program, error) {
	r.mu.Lock()
	if prog, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return prog, nil
	}
	r.mu.Unlock()

	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("reading import %q: %w", key, err)
	}
	prog, errs := ast.ParseFile(key, string(data))
	if len(errs) > 0 {
		return nil, fmt.Errorf("parsing import %q: %w", key, errs[0])
	}

	r.mu.Lock()
	r.cache[key] = prog
	r.mu.Unlock()
	return prog, nil
}

func (r *FileResolver) ResolveFFITransform(name string) (*TransformHandle, bool) {
	if r.FFI == nil {
		return nil, false
	}
	return r.FFI.ResolveFFITransform(name)
}

func (r *FileResolver) ResolveFFIType(name string) (*TypeHandle, bool) {
	if r.FFI == nil {
		return nil, false
	}
	return r.FFI.ResolveFFIType(name)
}

func (r *FileResolver) ResolveFFIFunction(name string) (*FunctionHandle, bool) {
	if r.FFI == nil {
		return nil, false
	}
	return r.FFI.ResolveFFIFunction(name)
}
