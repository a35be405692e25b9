// Package evaluator implements the minilang tree-walking evaluator.
package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/minilang/pkg/ast"
)

// Value is the interface for all minilang runtime values. A nil Value means
// "none": the result of statements and of blocks that produced nothing.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	Kind() ast.ValueKind
	String() string
	value() // sealed marker
}

// IntValue is a 64-bit signed integer.
type IntValue struct {
	Value int64
}

func (IntValue) Kind() ast.ValueKind { return ast.KindInt }
func (v IntValue) String() string    { return strconv.FormatInt(v.Value, 10) }
func (IntValue) value()              {}

// FloatValue is a 64-bit float.
type FloatValue struct {
	Value float64
}

func (FloatValue) Kind() ast.ValueKind { return ast.KindFloat }
func (v FloatValue) String() string    { return formatFloat(v.Value) }
func (FloatValue) value()              {}

// StringValue is an immutable string.
type StringValue struct {
	Value string
}

func (StringValue) Kind() ast.ValueKind { return ast.KindString }
func (v StringValue) String() string    { return v.Value }
func (StringValue) value()              {}

// BoolValue is a boolean.
type BoolValue struct {
	Value bool
}

func (BoolValue) Kind() ast.ValueKind { return ast.KindBool }
func (v BoolValue) String() string    { return strconv.FormatBool(v.Value) }
func (BoolValue) value()              {}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return IntValue{Value: n}
}

// NewFloat creates a float value.
func NewFloat(f float64) Value {
	return FloatValue{Value: f}
}

// NewString creates a string value.
func NewString(s string) Value {
	return StringValue{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return BoolValue{Value: b}
}

// KindOf returns the kind name of v, or "none" for a nil value.
func KindOf(v Value) string {
	if v == nil {
		return "none"
	}
	return v.Kind().String()
}

// Render returns the print rendering of v. None renders as "none".
func Render(v Value) string {
	if v == nil {
		return "none"
	}
	return v.String()
}

// formatFloat renders the shortest representation that round-trips. Integral
// values keep a ".0" suffix; very large and very small magnitudes switch to
// exponent notation.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Equal reports whether two values have the same kind and payload.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
