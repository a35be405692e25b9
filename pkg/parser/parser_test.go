package parser_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
	"github.com/thomasrohde/minilang/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(source, "test.mini")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if prog == nil {
		t.Fatal("expected non-nil program")
	}
	return prog
}

// helper: parse source and return the first diagnostic
func mustFail(t *testing.T, source string) diagnostics.Diagnostic {
	t.Helper()
	prog, diags := parser.Parse(source, "test.mini")
	require.Nil(t, prog, "expected parse of %q to fail", source)
	require.NotEmpty(t, diags)
	return diags[0]
}

// helper: extract the single statement from a program, assert it is a Statement, return its Expr
func singleExpr(t *testing.T, source string) ast.Expr {
	t.Helper()
	prog := mustParse(t, source)
	require.Len(t, prog.Block.Statements, 1)
	stmt, ok := prog.Block.Statements[0].(*ast.Statement)
	require.True(t, ok, "expected Statement, got %T", prog.Block.Statements[0])
	return stmt.Expr
}

func TestEmptyProgram(t *testing.T) {
	prog := mustParse(t, "")
	assert.Empty(t, prog.Block.Statements)

	prog = mustParse(t, "  # only a comment\n")
	assert.Empty(t, prog.Block.Statements)
}

func TestDefineAndAssign(t *testing.T) {
	prog := mustParse(t, "x := 1; x = 2")
	require.Len(t, prog.Block.Statements, 2)

	def, ok := prog.Block.Statements[0].(*ast.Define)
	require.True(t, ok)
	assert.Equal(t, "x", def.Name)
	assert.Equal(t, int64(1), def.Value.(*ast.IntLiteral).Value)

	asg, ok := prog.Block.Statements[1].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "x", asg.Name)
	assert.Equal(t, int64(2), asg.Value.(*ast.IntLiteral).Value)
}

func TestTrailingAndRepeatedSemicolons(t *testing.T) {
	prog := mustParse(t, "x := 1;; y := 2;")
	assert.Len(t, prog.Block.Statements, 2)
}

func TestMissingSeparator(t *testing.T) {
	d := mustFail(t, "x := 1 y := 2")
	assert.Equal(t, diagnostics.EParse, d.Code)
	assert.Contains(t, d.Message, "';'")
	require.NotNil(t, d.Span)
	assert.Equal(t, 8, d.Span.StartCol)
}

func TestSeparatorOptionalAfterBrace(t *testing.T) {
	prog := mustParse(t, "if true { println(1) }\nwhile false { x = 1 }\nfn f() { 1 }\nprintln(2)")
	require.Len(t, prog.Block.Statements, 4)
	assert.IsType(t, &ast.Statement{}, prog.Block.Statements[0])
	assert.IsType(t, &ast.Fn{}, prog.Block.Statements[2])
	assert.IsType(t, &ast.Print{}, prog.Block.Statements[3])
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, int64(42), singleExpr(t, "42").(*ast.IntLiteral).Value)
	assert.Equal(t, 2.5, singleExpr(t, "2.5").(*ast.FloatLiteral).Value)
	assert.Equal(t, 1000.0, singleExpr(t, "1e3").(*ast.FloatLiteral).Value)
	assert.Equal(t, "a\tb", singleExpr(t, `"a\tb"`).(*ast.StringLiteral).Value)
	assert.Equal(t, "plain", singleExpr(t, `"plain"`).(*ast.StringLiteral).Value)
	assert.True(t, singleExpr(t, "true").(*ast.BoolLiteral).Value)
	assert.False(t, singleExpr(t, "false").(*ast.BoolLiteral).Value)
	assert.Equal(t, "abc", singleExpr(t, "abc").(*ast.Symbol).Name)
}

func TestIntegerOutOfRange(t *testing.T) {
	d := mustFail(t, "99999999999999999999")
	assert.Contains(t, d.Message, "out of range")
}

func TestMostNegativeIntegerLiteral(t *testing.T) {
	lit, ok := singleExpr(t, "-9223372036854775808").(*ast.IntLiteral)
	require.True(t, ok)
	assert.Equal(t, int64(math.MinInt64), lit.Value)

	d := mustFail(t, "9223372036854775808")
	assert.Contains(t, d.Message, "out of range")

	// '**' binds tighter than unary minus, so the magnitude stays a literal on its own.
	d = mustFail(t, "-9223372036854775808 ** 1")
	assert.Contains(t, d.Message, "out of range")
}

func TestPrecedence(t *testing.T) {
	// 1 + 2 * 3 => 1 + (2 * 3)
	add, ok := singleExpr(t, "1 + 2 * 3").(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul, ok := add.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mul.Op)

	// left-associative subtraction
	sub := singleExpr(t, "10 - 3 - 2").(*ast.BinaryOp)
	assert.Equal(t, ast.OpSub, sub.Op)
	inner := sub.Left.(*ast.BinaryOp)
	assert.Equal(t, ast.OpSub, inner.Op)
	assert.Equal(t, int64(2), sub.Right.(*ast.IntLiteral).Value)
}

func TestPowerIsRightAssociative(t *testing.T) {
	pow := singleExpr(t, "2 ** 3 ** 2").(*ast.BinaryOp)
	assert.Equal(t, ast.OpPow, pow.Op)
	assert.Equal(t, int64(2), pow.Left.(*ast.IntLiteral).Value)
	right := pow.Right.(*ast.BinaryOp)
	assert.Equal(t, ast.OpPow, right.Op)
}

func TestUnaryMinusBindsLooserThanPower(t *testing.T) {
	minus, ok := singleExpr(t, "-2 ** 2").(*ast.Minus)
	require.True(t, ok)
	pow := minus.Operand.(*ast.BinaryOp)
	assert.Equal(t, ast.OpPow, pow.Op)

	pow = singleExpr(t, "2 ** -1").(*ast.BinaryOp)
	assert.IsType(t, &ast.Minus{}, pow.Right)
}

func TestLogicalPrecedence(t *testing.T) {
	// a or b and not c => a or (b and (not c))
	or := singleExpr(t, "a or b and not c").(*ast.BinaryOp)
	assert.Equal(t, ast.OpOr, or.Op)
	and := or.Right.(*ast.BinaryOp)
	assert.Equal(t, ast.OpAnd, and.Op)
	assert.IsType(t, &ast.Not{}, and.Right)

	// not binds looser than comparison
	not := singleExpr(t, "!1 < 2").(*ast.Not)
	cmp := not.Operand.(*ast.BinaryOp)
	assert.Equal(t, ast.OpLt, cmp.Op)
}

func TestComparisonOperators(t *testing.T) {
	for src, op := range map[string]ast.Operator{
		"a == b": ast.OpEq, "a != b": ast.OpNe,
		"a < b": ast.OpLt, "a <= b": ast.OpLe,
		"a > b": ast.OpGt, "a >= b": ast.OpGe,
		"a % b": ast.OpMod, "a / b": ast.OpDiv,
	} {
		bin := singleExpr(t, src).(*ast.BinaryOp)
		assert.Equal(t, op, bin.Op, src)
	}
}

func TestParentheses(t *testing.T) {
	mul := singleExpr(t, "(1 + 2) * 3").(*ast.BinaryOp)
	assert.Equal(t, ast.OpMul, mul.Op)
	assert.IsType(t, &ast.BinaryOp{}, mul.Left)
}

func TestPrint(t *testing.T) {
	prog := mustParse(t, `print("a"); println(1 + 1)`)
	p0 := prog.Block.Statements[0].(*ast.Print)
	assert.False(t, p0.Newline)
	p1 := prog.Block.Statements[1].(*ast.Print)
	assert.True(t, p1.Newline)
	assert.IsType(t, &ast.BinaryOp{}, p1.Value)

	mustFail(t, "print 1")
}

func TestCast(t *testing.T) {
	for src, kind := range map[string]ast.ValueKind{
		`cast(int, "3")`:  ast.KindInt,
		`cast(float, 3)`:  ast.KindFloat,
		`cast(str, 3)`:    ast.KindString,
		`cast(bool, 1.0)`: ast.KindBool,
	} {
		c, ok := singleExpr(t, src).(*ast.Cast)
		require.True(t, ok, src)
		assert.Equal(t, kind, c.Target, src)
	}

	d := mustFail(t, "cast(list, 1)")
	assert.Contains(t, d.Message, "expected a type")
}

func TestIfAndIfElse(t *testing.T) {
	ifExpr, ok := singleExpr(t, "if x > 1 { println(x) }").(*ast.If)
	require.True(t, ok)
	assert.IsType(t, &ast.BinaryOp{}, ifExpr.Cond)
	assert.Len(t, ifExpr.Then.Statements, 1)

	ie, ok := singleExpr(t, "if c { 1 } else { 2; 3 }").(*ast.IfElse)
	require.True(t, ok)
	assert.Len(t, ie.Then.Statements, 1)
	assert.Len(t, ie.Else.Statements, 2)
}

func TestIfAsValue(t *testing.T) {
	prog := mustParse(t, "x := if true { 1 } else { 2 }")
	def := prog.Block.Statements[0].(*ast.Define)
	assert.IsType(t, &ast.IfElse{}, def.Value)
}

func TestWhile(t *testing.T) {
	w, ok := singleExpr(t, "while i < 10 { i = i + 1 }").(*ast.While)
	require.True(t, ok)
	assert.Len(t, w.Body.Statements, 1)
	assert.IsType(t, &ast.Assign{}, w.Body.Statements[0])
}

func TestEmptyBody(t *testing.T) {
	w := singleExpr(t, "while false { }").(*ast.While)
	assert.Empty(t, w.Body.Statements)
}

func TestFor(t *testing.T) {
	f, ok := singleExpr(t, "for i := 0; i < 3; i = i + 1 { print(i) }").(*ast.For)
	require.True(t, ok)
	assert.IsType(t, &ast.Define{}, f.Init)
	assert.IsType(t, &ast.BinaryOp{}, f.Cond)
	assert.IsType(t, &ast.Assign{}, f.Step)
	require.Len(t, f.Body.Statements, 1)
	assert.IsType(t, &ast.Print{}, f.Body.Statements[0])
}

func TestForMissingClause(t *testing.T) {
	mustFail(t, "for i := 0; i < 3 { }")
}

func TestFnDeclaration(t *testing.T) {
	prog := mustParse(t, "fn add(a: int, b: float) { a + b }")
	fn, ok := prog.Block.Statements[0].(*ast.Fn)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, ast.KindInt, fn.Params[0].Type)
	assert.Equal(t, "b", fn.Params[1].Name)
	assert.Equal(t, ast.KindFloat, fn.Params[1].Type)
	assert.Len(t, fn.Body.Statements, 1)
}

func TestFnWithoutParams(t *testing.T) {
	prog := mustParse(t, "fn f() { println(1) }; f()")
	fn := prog.Block.Statements[0].(*ast.Fn)
	assert.Empty(t, fn.Params)
}

func TestFnParamRequiresType(t *testing.T) {
	mustFail(t, "fn f(a) { a }")
	mustFail(t, "fn f(a: list) { a }")
}

func TestCall(t *testing.T) {
	call, ok := singleExpr(t, "f(1, x + 1, g())").(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "f", call.Name)
	require.Len(t, call.Args, 3)
	assert.IsType(t, &ast.IntLiteral{}, call.Args[0])
	assert.IsType(t, &ast.BinaryOp{}, call.Args[1])
	assert.IsType(t, &ast.Call{}, call.Args[2])

	call = singleExpr(t, "f()").(*ast.Call)
	assert.Empty(t, call.Args)
}

func TestSpans(t *testing.T) {
	prog := mustParse(t, "x := 1\n;\ny := 22")
	def := prog.Block.Statements[1].(*ast.Define)
	assert.Equal(t, 3, def.Span.StartLine)
	assert.Equal(t, 1, def.Span.StartCol)
	assert.Equal(t, 8, def.Span.EndCol)
	assert.Equal(t, "test.mini", def.Span.File)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed brace", "if true { 1"},
		{"unclosed paren", "println(1"},
		{"dangling operator", "1 +"},
		{"stray closing brace", "}"},
		{"else without if", "else { 1 }"},
		{"define needs name", "1 := 2"},
		{"fn needs name", "fn (a: int) { a }"},
		{"call trailing comma", "f(1,)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustFail(t, tt.src)
			assert.Equal(t, diagnostics.EParse, d.Code)
		})
	}
}

func TestLexErrorsSurfaceAsDiagnostics(t *testing.T) {
	d := mustFail(t, `x := "abc`)
	assert.Equal(t, diagnostics.ELex, d.Code)
}

func TestUnexpectedEOFMessage(t *testing.T) {
	d := mustFail(t, "x :=")
	assert.Contains(t, d.Message, "end of file")
}
