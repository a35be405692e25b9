package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

// binaryOp applies op to two already evaluated operands. Both operands must
// have exactly the same kind; strings only support concatenation.
func binaryOp(op ast.Operator, left, right Value, span *ast.Span) (Value, error) {
	if left == nil || right == nil {
		return nil, typeMismatch(span, "operator '%s' cannot be applied to %s and %s", op, KindOf(left), KindOf(right))
	}
	if left.Kind() != right.Kind() {
		return nil, typeMismatch(span, "operator '%s' requires operands of the same kind, got %s and %s", op, KindOf(left), KindOf(right))
	}

	switch l := left.(type) {
	case StringValue:
		if op != ast.OpAdd {
			return nil, typeMismatch(span, "invalid string operation '%s'", op)
		}
		return NewString(l.Value + right.(StringValue).Value), nil
	case IntValue:
		return intOp(op, l.Value, right.(IntValue).Value, span)
	case FloatValue:
		return floatOp(op, l.Value, right.(FloatValue).Value, span)
	case BoolValue:
		return boolOp(op, l.Value, right.(BoolValue).Value, span)
	}
	return nil, typeMismatch(span, "unsupported operand kind %s", KindOf(left))
}

func divisionByZero(span *ast.Span, op ast.Operator) error {
	return newError(diagnostics.EDivZero, span, "division by zero in '%s'", op)
}

func intOp(op ast.Operator, a, b int64, span *ast.Span) (Value, error) {
	switch op {
	case ast.OpAdd:
		n, ok := addInt(a, b)
		return intResult(n, ok, op, a, b, span)
	case ast.OpSub:
		n, ok := subInt(a, b)
		return intResult(n, ok, op, a, b, span)
	case ast.OpMul:
		n, ok := mulInt(a, b)
		return intResult(n, ok, op, a, b, span)
	case ast.OpDiv:
		if b == 0 {
			return nil, divisionByZero(span, op)
		}
		return NewFloat(float64(a) / float64(b)), nil
	case ast.OpMod:
		if b == 0 {
			return nil, divisionByZero(span, op)
		}
		if b == -1 {
			return NewInt(0), nil
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return NewInt(m), nil
	case ast.OpPow:
		if b < 0 {
			if a == 0 {
				return nil, divisionByZero(span, op)
			}
			return NewFloat(math.Pow(float64(a), float64(b))), nil
		}
		n, ok := ipow(a, b)
		return intResult(n, ok, op, a, b, span)
	case ast.OpEq:
		return NewBool(a == b), nil
	case ast.OpNe:
		return NewBool(a != b), nil
	case ast.OpLt:
		return NewBool(a < b), nil
	case ast.OpLe:
		return NewBool(a <= b), nil
	case ast.OpGt:
		return NewBool(a > b), nil
	case ast.OpGe:
		return NewBool(a >= b), nil
	}
	return nil, typeMismatch(span, "operator '%s' requires bool operands, got int", op)
}

func overflow(span *ast.Span, op ast.Operator, a, b int64) error {
	return newError(diagnostics.EOverflow, span, "integer overflow in %d %s %d", a, op, b)
}

func intResult(n int64, ok bool, op ast.Operator, a, b int64, span *ast.Span) (Value, error) {
	if !ok {
		return nil, overflow(span, op, a, b)
	}
	return NewInt(n), nil
}

func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}

// ipow is exponentiation by squaring; ok is false when the result does not
// fit in an int64.
func ipow(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}

func floatOp(op ast.Operator, a, b float64, span *ast.Span) (Value, error) {
	switch op {
	case ast.OpAdd:
		return NewFloat(a + b), nil
	case ast.OpSub:
		return NewFloat(a - b), nil
	case ast.OpMul:
		return NewFloat(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return nil, divisionByZero(span, op)
		}
		return NewFloat(a / b), nil
	case ast.OpMod:
		if b == 0 {
			return nil, divisionByZero(span, op)
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return NewFloat(m), nil
	case ast.OpPow:
		if a == 0 && b < 0 {
			return nil, divisionByZero(span, op)
		}
		return NewFloat(math.Pow(a, b)), nil
	case ast.OpEq:
		return NewBool(a == b), nil
	case ast.OpNe:
		return NewBool(a != b), nil
	case ast.OpLt:
		return NewBool(a < b), nil
	case ast.OpLe:
		return NewBool(a <= b), nil
	case ast.OpGt:
		return NewBool(a > b), nil
	case ast.OpGe:
		return NewBool(a >= b), nil
	}
	return nil, typeMismatch(span, "operator '%s' requires bool operands, got float", op)
}

func boolOp(op ast.Operator, a, b bool, span *ast.Span) (Value, error) {
	ai, bi := boolToInt(a), boolToInt(b)
	switch op {
	case ast.OpAnd:
		return NewBool(a && b), nil
	case ast.OpOr:
		return NewBool(a || b), nil
	case ast.OpEq:
		return NewBool(a == b), nil
	case ast.OpNe:
		return NewBool(a != b), nil
	case ast.OpLt:
		return NewBool(ai < bi), nil
	case ast.OpLe:
		return NewBool(ai <= bi), nil
	case ast.OpGt:
		return NewBool(ai > bi), nil
	case ast.OpGe:
		return NewBool(ai >= bi), nil
	}
	return nil, typeMismatch(span, "operator '%s' cannot be applied to bool", op)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func negate(v Value, span *ast.Span) (Value, error) {
	switch n := v.(type) {
	case IntValue:
		if n.Value == math.MinInt64 {
			return nil, newError(diagnostics.EOverflow, span, "integer overflow in -(%d)", n.Value)
		}
		return NewInt(-n.Value), nil
	case FloatValue:
		return NewFloat(-n.Value), nil
	}
	return nil, typeMismatch(span, "unary '-' requires int or float, got %s", KindOf(v))
}

func logicalNot(v Value, span *ast.Span) (Value, error) {
	if b, ok := v.(BoolValue); ok {
		return NewBool(!b.Value), nil
	}
	return nil, typeMismatch(span, "'not' requires bool, got %s", KindOf(v))
}

func castError(span *ast.Span, v Value, target ast.ValueKind) error {
	return newError(diagnostics.ECast, span, "cannot cast %s %q to %s", KindOf(v), Render(v), target)
}

// cast coerces v to the target kind.
func cast(target ast.ValueKind, v Value, span *ast.Span) (Value, error) {
	if v == nil {
		return nil, castError(span, v, target)
	}

	switch target {
	case ast.KindInt:
		switch n := v.(type) {
		case IntValue:
			return n, nil
		case FloatValue:
			if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) || n.Value >= math.MaxInt64 || n.Value < math.MinInt64 {
				return nil, castError(span, v, target)
			}
			return NewInt(int64(math.Trunc(n.Value))), nil
		case StringValue:
			i, err := strconv.ParseInt(strings.TrimSpace(n.Value), 10, 64)
			if err != nil {
				return nil, castError(span, v, target)
			}
			return NewInt(i), nil
		case BoolValue:
			return NewInt(boolToInt(n.Value)), nil
		}

	case ast.KindFloat:
		switch n := v.(type) {
		case IntValue:
			return NewFloat(float64(n.Value)), nil
		case FloatValue:
			return n, nil
		case StringValue:
			f, err := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
			if err != nil {
				return nil, castError(span, v, target)
			}
			return NewFloat(f), nil
		case BoolValue:
			return NewFloat(float64(boolToInt(n.Value))), nil
		}

	case ast.KindString:
		return NewString(v.String()), nil

	case ast.KindBool:
		switch n := v.(type) {
		case IntValue:
			return NewBool(n.Value != 0), nil
		case FloatValue:
			return NewBool(n.Value != 0), nil
		case StringValue:
			return NewBool(n.Value != ""), nil
		case BoolValue:
			return n, nil
		}
	}

	return nil, castError(span, v, target)
}
