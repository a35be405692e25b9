// Package validator implements structural validation of minilang AST programs.
package validator

import (
	"fmt"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks a parsed program for structural errors the grammar cannot
// express and returns diagnostics. It performs no type inference: kinds are
// only checked at runtime.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	if program != nil {
		v.validateBlock(program.Block)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span *ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, hint))
}

func (v *validator) validateBlock(block *ast.Block) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		v.validateStmt(stmt)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Statement:
		v.validateExpr(s.Expr)
	case *ast.Define:
		v.validateExpr(s.Value)
	case *ast.Assign:
		v.validateExpr(s.Value)
	case *ast.Print:
		v.validateExpr(s.Value)
	case *ast.Fn:
		v.validateFn(s)
	}
}

func (v *validator) validateFn(fn *ast.Fn) {
	seen := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		if seen[p.Name] {
			span := p.Span
			v.addDiag(diagnostics.EDupParam,
				fmt.Sprintf("duplicate parameter '%s' in function '%s'", p.Name, fn.Name),
				&span, "rename one of the parameters")
			continue
		}
		seen[p.Name] = true
	}
	v.validateBlock(fn.Body)
}

func (v *validator) validateExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.BinaryOp:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)
	case *ast.Minus:
		v.validateExpr(e.Operand)
	case *ast.Not:
		v.validateExpr(e.Operand)
	case *ast.Cast:
		v.validateExpr(e.Value)
	case *ast.If:
		v.validateExpr(e.Cond)
		v.validateBlock(e.Then)
	case *ast.IfElse:
		v.validateExpr(e.Cond)
		v.validateBlock(e.Then)
		v.validateBlock(e.Else)
	case *ast.While:
		v.validateExpr(e.Cond)
		v.validateBlock(e.Body)
	case *ast.For:
		v.validateStmt(e.Init)
		v.validateExpr(e.Cond)
		v.validateStmt(e.Step)
		v.validateBlock(e.Body)
	case *ast.Call:
		for _, arg := range e.Args {
			v.validateExpr(arg)
		}
	}
}
