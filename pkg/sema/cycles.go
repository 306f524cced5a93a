package sema

import "github.com/ironwell/protospec/pkg/ag"

// scanCycles walks every resolved type after analysis completes and marks
// each Field.IsMaybeCyclical whose interior can reach back to a top-level
// type already on the current path. Containers and arrays are transparent
// to this walk (an array's runtime-determined length doesn't change which
// top-level types its element's body can name); a Ref is the only real
// edge, resolved through the same stack-tracked DFS used for direct
// self-reference (`a` containing `a` directly) and indirect cycles
// (`a` containing `b` containing `a`) alike.
func (a *Analyzer) scanCycles() {
	visited := make(map[*ag.TypeDecl]bool)
	for _, name := range a.program.Order {
		td, ok := a.program.Types[name]
		if !ok || visited[td] {
			continue
		}
		a.visitCycle(td, make(map[*ag.TypeDecl]bool), visited)
	}
}

func (a *Analyzer) visitCycle(td *ag.TypeDecl, stack, visited map[*ag.TypeDecl]bool) bool {
	if td == nil || td.Value == nil {
		return false
	}
	if stack[td] {
		return true
	}
	if visited[td] {
		return false
	}

	stack[td] = true
	cyclic := a.visitFieldCycle(td.Value, stack, visited)
	delete(stack, td)
	visited[td] = true
	return cyclic
}

func (a *Analyzer) visitFieldCycle(f *ag.Field, stack, visited map[*ag.TypeDecl]bool) bool {
	if f == nil || f.Type == nil {
		return false
	}
	cyclic := a.visitTypeCycle(f.Type, stack, visited)
	if cyclic {
		f.IsMaybeCyclical = true
	}
	return cyclic
}

func (a *Analyzer) visitTypeCycle(t *ag.Type, stack, visited map[*ag.TypeDecl]bool) bool {
	switch t.Kind {
	case ag.KindRef:
		target := t.Ref.Target
		if stack[target] {
			return true
		}
		return a.visitCycle(target, stack, visited)
	case ag.KindArray:
		return a.visitFieldCycle(t.Array.Element, stack, visited)
	case ag.KindContainer:
		cyclic := false
		for _, nf := range t.Container.Fields {
			if a.visitFieldCycle(nf.Field, stack, visited) {
				cyclic = true
			}
		}
		return cyclic
	default:
		return false
	}
}
