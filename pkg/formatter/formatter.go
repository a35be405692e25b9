// Package formatter implements the minilang source code formatter.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/minilang/pkg/ast"
)

const indent = "  "

// Binding strength of each expression form (higher = tighter binding).
const (
	precCompound = 0 // if/while/for used as an operand
	precOr       = 1
	precAnd      = 2
	precNot      = 3
	precCompare  = 4
	precAdd      = 5
	precMul      = 6
	precMinus    = 7
	precPow      = 8
	precPrimary  = 9
)

var precedence = map[ast.Operator]int{
	ast.OpOr:  precOr,
	ast.OpAnd: precAnd,
	ast.OpEq:  precCompare, ast.OpNe: precCompare,
	ast.OpLt: precCompare, ast.OpLe: precCompare, ast.OpGt: precCompare, ast.OpGe: precCompare,
	ast.OpAdd: precAdd, ast.OpSub: precAdd,
	ast.OpMul: precMul, ast.OpDiv: precMul, ast.OpMod: precMul,
	ast.OpPow: precPow,
}

func exprPrec(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.BinaryOp:
		return precedence[expr.Op]
	case *ast.Not:
		return precNot
	case *ast.Minus:
		return precMinus
	case *ast.IntLiteral:
		if expr.Value < 0 {
			return precMinus
		}
	case *ast.FloatLiteral:
		if expr.Value < 0 {
			return precMinus
		}
	case *ast.If, *ast.IfElse, *ast.While, *ast.For:
		return precCompound
	}
	return precPrimary
}

// operand formats e, parenthesized when it binds looser than minPrec.
func operand(e ast.Expr, minPrec, depth int) string {
	s := formatExpr(e, depth)
	if exprPrec(e) < minPrec {
		return "(" + s + ")"
	}
	return s
}

// Format pretty-prints a minilang AST back to source code. Statements that do
// not end with a closing brace are terminated with ';'.
func Format(program *ast.Program) string {
	if program == nil || program.Block == nil || len(program.Block.Statements) == 0 {
		return ""
	}
	return formatStatements(program.Block.Statements, 0) + "\n"
}

// FormatExpr pretty-prints a single expression.
func FormatExpr(e ast.Expr) string {
	return formatExpr(e, 0)
}

// HasComments checks if a source string contains minilang comments (# prefix).
func HasComments(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		inString := false
		for i := 0; i < len(line); i++ {
			switch {
			case inString && line[i] == '\\':
				i++
			case line[i] == '"':
				inString = !inString
			case !inString && line[i] == '#':
				return true
			}
		}
	}
	return false
}

func formatStatements(stmts []ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		text := formatStmt(s, depth)
		if !strings.HasSuffix(text, "}") {
			text += ";"
		}
		lines[i] = prefix + text
	}
	return strings.Join(lines, "\n")
}

func formatBlock(block *ast.Block, depth int) string {
	if block == nil || len(block.Statements) == 0 {
		return "{}"
	}
	return "{\n" + formatStatements(block.Statements, depth+1) + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatStmt(s ast.Stmt, depth int) string {
	switch stmt := s.(type) {
	case *ast.Statement:
		return formatExpr(stmt.Expr, depth)
	case *ast.Define:
		return stmt.Name + " := " + formatExpr(stmt.Value, depth)
	case *ast.Assign:
		return stmt.Name + " = " + formatExpr(stmt.Value, depth)
	case *ast.Print:
		kw := "print"
		if stmt.Newline {
			kw = "println"
		}
		return kw + "(" + formatExpr(stmt.Value, depth) + ")"
	case *ast.Fn:
		params := make([]string, len(stmt.Params))
		for i, p := range stmt.Params {
			params[i] = p.Name + ": " + p.Type.String()
		}
		return "fn " + stmt.Name + "(" + strings.Join(params, ", ") + ") " + formatBlock(stmt.Body, depth)
	}
	return ""
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(expr.Value, 10)
	case *ast.FloatLiteral:
		return formatFloatLiteral(expr.Value)
	case *ast.BoolLiteral:
		return strconv.FormatBool(expr.Value)
	case *ast.StringLiteral:
		return quote(expr.Value)
	case *ast.Symbol:
		return expr.Name
	case *ast.BinaryOp:
		prec := precedence[expr.Op]
		leftMin, rightMin := prec, prec+1
		if expr.Op == ast.OpPow {
			leftMin, rightMin = precPrimary, precMinus
		}
		return operand(expr.Left, leftMin, depth) + " " + string(expr.Op) + " " + operand(expr.Right, rightMin, depth)
	case *ast.Minus:
		return "-" + operand(expr.Operand, precMinus, depth)
	case *ast.Not:
		return "not " + operand(expr.Operand, precNot, depth)
	case *ast.Cast:
		return fmt.Sprintf("cast(%s, %s)", expr.Target, formatExpr(expr.Value, depth))
	case *ast.If:
		return "if " + formatExpr(expr.Cond, depth) + " " + formatBlock(expr.Then, depth)
	case *ast.IfElse:
		return "if " + formatExpr(expr.Cond, depth) + " " + formatBlock(expr.Then, depth) +
			" else " + formatBlock(expr.Else, depth)
	case *ast.While:
		return "while " + formatExpr(expr.Cond, depth) + " " + formatBlock(expr.Body, depth)
	case *ast.For:
		return "for " + formatStmt(expr.Init, depth) + "; " + formatExpr(expr.Cond, depth) + "; " +
			formatStmt(expr.Step, depth) + " " + formatBlock(expr.Body, depth)
	case *ast.Call:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a, depth)
		}
		return expr.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

// formatFloatLiteral renders a float so that it lexes back as a float.
func formatFloatLiteral(value float64) string {
	s := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// quote renders s as a string literal using only the escapes the lexer accepts.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
