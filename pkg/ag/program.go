package ag

// Program is the complete analyzed graph for one compiled schema file: every
// top-level declaration resolved, with all cross-references bound to
// concrete pointers instead of names. A Program is frozen once the
// semantic analyzer finishes scanning for cycles; it is then safe to read
// concurrently from multiple goroutines (the planner never mutates it).
type Program struct {
	Types      map[string]*TypeDecl
	Consts     map[string]*Const
	Transforms map[string]*Transform
	Functions  map[string]*Function

	// Order preserves declaration order for deterministic diagnostics and
	// codegen output.
	Order []string
}

// NewProgram returns an empty Program ready for population by the
// analyzer.
func NewProgram() *Program {
	return &Program{
		Types:      make(map[string]*TypeDecl),
		Consts:     make(map[string]*Const),
		Transforms: make(map[string]*Transform),
		Functions:  make(map[string]*Function),
	}
}
