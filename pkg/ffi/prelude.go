package ffi

import (
	"fmt"

	"github.com/ironwell/protospec/pkg/ag"
	"github.com/ironwell/protospec/pkg/ast"
	"github.com/ironwell/protospec/pkg/token"
)

// Prelude is the built-in Resolver every compilation gets for free, even
// with no import_ffi declarations in the source file: a handful of stream
// transforms and functions common enough to not require external binding.
// Prelude never resolves imports; wrap it in a FileResolver to add that.
type Prelude struct{}

var _ Resolver = Prelude{}

func (Prelude) NormalizeImport(fromFile, importPath string) string { return importPath }

func (Prelude) ResolveImport(key string) (*ast.Program, error) {
	return nil, fmt.Errorf("prelude cannot resolve imports: %q", key)
}

// ResolveFFITransform looks up one of the built-in stream transforms:
// gzip (compress/gzip), base64 (encoding/base64), and varint (our own
// little-endian LEB128 codec in internal/wire).
func (Prelude) ResolveFFITransform(name string) (*TransformHandle, bool) {
	h, ok := preludeTransforms[name]
	return h, ok
}

// ResolveFFIType looks up a built-in foreign scalar-like type. Currently
// just `duration`, a varint-encoded count of nanoseconds that decodes to a
// Go time.Duration.
func (Prelude) ResolveFFIType(name string) (*TypeHandle, bool) {
	h, ok := preludeTypes[name]
	return h, ok
}

// ResolveFFIFunction looks up a built-in pure function: len, crc32, now.
func (Prelude) ResolveFFIFunction(name string) (*FunctionHandle, bool) {
	h, ok := preludeFunctions[name]
	return h, ok
}

var preludeTransforms = map[string]*TransformHandle{
	"gzip": {
		Name: "gzip",
		DecodeCode: `gr, err := gzip.NewReader(bytes.NewReader(%[1]s))
if err != nil {
	return nil, err
}
defer gr.Close()
return io.ReadAll(gr)`,
		EncodeCode: `var buf bytes.Buffer
gw := gzip.NewWriter(&buf)
if _, err := gw.Write(%[1]s); err != nil {
	return nil, err
}
if err := gw.Close(); err != nil {
	return nil, err
}
return buf.Bytes(), nil`,
	},
	"base64": {
		Name: "base64",
		Arguments: []ag.FFIArgument{
			{Name: "urlSafe", Type: boolType(), Optional: true},
		},
		DecodeCode: `return base64.StdEncoding.DecodeString(string(%[1]s))`,
		EncodeCode: `return []byte(base64.StdEncoding.EncodeToString(%[1]s)), nil`,
	},
	"varint": {
		Name:       "varint",
		DecodeCode: `v, n, err := wire.DecodeUvarint(%[1]s)`,
		EncodeCode: `return wire.AppendUvarint(nil, %[1]s), nil`,
	},
}

var preludeTypes = map[string]*TypeHandle{
	"duration": {
		Name:       "duration",
		GoType:     "time.Duration",
		DecodeCode: `v, n, err := wire.DecodeUvarint(%[1]s)`,
		EncodeCode: `return wire.AppendUvarint(nil, uint64(%[1]s)), nil`,
	},
}

var preludeFunctions = map[string]*FunctionHandle{
	"len": {
		Name:   "len",
		Return: ag.ScalarOf(noSpan, ag.U64),
		GoExpr: "uint64(len(%s))",
	},
	"crc32": {
		Name:   "crc32",
		Return: ag.ScalarOf(noSpan, ag.U32),
		GoExpr: "crc32.ChecksumIEEE(%s)",
	},
	"now": {
		Name:   "now",
		Return: ag.ScalarOf(noSpan, ag.U64),
		GoExpr: "uint64(time.Now().Unix())",
	},
}

func boolType() *ag.Type {
	t := ag.BoolOf(noSpan)
	return &t
}

var noSpan = token.Span{}
