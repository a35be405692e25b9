package evaluator

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

var (
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrArityMismatch  = errors.New("arity mismatch")
	ErrUndefinedName  = errors.New("undefined name")
	ErrCast           = errors.New("cast error")
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("integer overflow")
	ErrBudget         = errors.New("budget exceeded")
	ErrCanceled       = errors.New("evaluation canceled")
	ErrOutput         = errors.New("output error")
)

var sentinels = map[string]error{
	diagnostics.ETypeMismatch: ErrTypeMismatch,
	diagnostics.EArity:        ErrArityMismatch,
	diagnostics.EUndefined:    ErrUndefinedName,
	diagnostics.ECast:         ErrCast,
	diagnostics.EDivZero:      ErrDivisionByZero,
	diagnostics.EOverflow:     ErrOverflow,
	diagnostics.EBudget:       ErrBudget,
	diagnostics.ECanceled:     ErrCanceled,
	diagnostics.EOutput:       ErrOutput,
}

// RuntimeError represents an error raised while evaluating a program. Every
// error aborts the current top-level unit.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	cause   error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Is matches the sentinel error for the error's code.
func (e *RuntimeError) Is(target error) bool {
	return sentinels[e.Code] == target
}

func (e *RuntimeError) Unwrap() error {
	return e.cause
}

// Diagnostic converts the error to a diagnostic for reporting.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

func newError(code string, span *ast.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

func typeMismatch(span *ast.Span, format string, args ...any) *RuntimeError {
	return newError(diagnostics.ETypeMismatch, span, format, args...)
}

// withSpan attaches span to a runtime error that was raised without one.
func withSpan(err error, span ast.Span) error {
	var rerr *RuntimeError
	if errors.As(err, &rerr) && rerr.Span == nil {
		rerr.Span = &span
	}
	return err
}
