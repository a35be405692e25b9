// Package diagnostics defines minilang diagnostic types for lex/parse/validation/runtime errors.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/thomasrohde/minilang/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex          = "E_LEX"
	EParse        = "E_PARSE"
	EDupParam     = "E_DUP_PARAM"
	ETypeMismatch = "E_TYPE_MISMATCH"
	EArity        = "E_ARITY_MISMATCH"
	EUndefined    = "E_UNDEFINED_NAME"
	ECast         = "E_CAST"
	EDivZero      = "E_DIV_ZERO"
	EOverflow     = "E_INT_OVERFLOW"
	EBudget       = "E_BUDGET"
	ECanceled     = "E_CANCELED"
	EOutput       = "E_OUTPUT"
	EIO           = "E_IO"
	EConfig       = "E_CONFIG"
)

var (
	// ErrLex matches failures reported by the tokenizer.
	ErrLex = errors.New("lex error")

	// ErrParse matches failures reported by the parser.
	ErrParse = errors.New("parse error")

	// ErrValidation matches structural checks that reject a parsed program.
	ErrValidation = errors.New("validation error")
)

// Sentinel maps a front-end diagnostic code to its sentinel error, or nil.
func Sentinel(code string) error {
	switch code {
	case ELex:
		return ErrLex
	case EParse:
		return ErrParse
	case EDupParam:
		return ErrValidation
	}
	return nil
}

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
