package sema

import "github.com/ironwell/protospec/pkg/ag"

// Scope resolves a bare identifier to a field or input (constants are
// looked up by the Analyzer, not the Scope), searching its own bindings before falling through to its parent. Each
// container introduces a new Scope chained to its enclosing one, so a
// nested field can reference an outer sibling but an outer field cannot
// see into a container it hasn't been decoded from yet.
type Scope struct {
	parent *Scope
	fields map[string]*ag.Field
	inputs map[string]*ag.Input
}

// NewScope creates a root scope with no parent.
func NewScope() *Scope {
	return &Scope{fields: make(map[string]*ag.Field), inputs: make(map[string]*ag.Input)}
}

// Child creates a new scope nested under s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, fields: make(map[string]*ag.Field), inputs: make(map[string]*ag.Input)}
}

// DeclareField binds name to field in this scope.
func (s *Scope) DeclareField(name string, field *ag.Field) {
	s.fields[name] = field
}

// DeclareInput binds name to input in this scope.
func (s *Scope) DeclareInput(name string, input *ag.Input) {
	s.inputs[name] = input
}

// LookupField searches this scope and its ancestors for a field binding.
func (s *Scope) LookupField(name string) (*ag.Field, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if f, ok := sc.fields[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// LookupInput searches this scope and its ancestors for an input binding.
func (s *Scope) LookupInput(name string) (*ag.Input, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if in, ok := sc.inputs[name]; ok {
			return in, true
		}
	}
	return nil, false
}
