package plan

import (
	"fmt"

	"github.com/ironwell/protospec/pkg/token"
)

// PlanError is a single recoverable planning failure, isolated to the
// top-level type it was found in.
type PlanError struct {
	Span    token.Span
	Message string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: plan error: %s", e.Span, e.Message)
}

func newPlanError(span token.Span, format string, args ...any) *PlanError {
	return &PlanError{Span: span, Message: fmt.Sprintf(format, args...)}
}
