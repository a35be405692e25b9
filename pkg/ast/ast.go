// Package ast defines the minilang AST node types.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Operator represents a binary operator.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpPow Operator = "**"
	OpEq  Operator = "=="
	OpNe  Operator = "!="
	OpLt  Operator = "<"
	OpLe  Operator = "<="
	OpGt  Operator = ">"
	OpGe  Operator = ">="
	OpAnd Operator = "and"
	OpOr  Operator = "or"
)

// IsComparison reports whether the operator yields a boolean from two ordered operands.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsLogical reports whether the operator is a boolean connective.
func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// ValueKind is the runtime tag of a value. It doubles as the type annotation
// for function parameters and the target of a cast.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

var kindNames = map[ValueKind]string{
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "str",
	KindBool:   "bool",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// ParseValueKind maps a type keyword to its kind.
func ParseValueKind(name string) (ValueKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Program & Block ---

type Program struct {
	Span  Span
	Block *Block
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }

// Block is an ordered statement sequence. It never introduces a scope.
type Block struct {
	Span       Span
	Statements []Stmt
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }

// --- Statements ---

// Statement wraps a bare expression evaluated for its value or side effects.
type Statement struct {
	Span Span
	Expr Expr
}

func (n *Statement) Kind() string   { return "Statement" }
func (n *Statement) NodeSpan() Span { return n.Span }
func (n *Statement) stmtNode()      {}

// Define binds Name in the current frame (name := value).
type Define struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *Define) Kind() string   { return "Define" }
func (n *Define) NodeSpan() Span { return n.Span }
func (n *Define) stmtNode()      {}

// Assign mutates the nearest existing binding of Name (name = value).
type Assign struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *Assign) Kind() string   { return "Assign" }
func (n *Assign) NodeSpan() Span { return n.Span }
func (n *Assign) stmtNode()      {}

type Print struct {
	Span    Span
	Value   Expr
	Newline bool
}

func (n *Print) Kind() string   { return "Print" }
func (n *Print) NodeSpan() Span { return n.Span }
func (n *Print) stmtNode()      {}

// Param is a declared function parameter.
type Param struct {
	Span Span
	Name string
	Type ValueKind
}

type Fn struct {
	Span   Span
	Name   string
	Params []Param
	Body   *Block
}

func (n *Fn) Kind() string   { return "Fn" }
func (n *Fn) NodeSpan() Span { return n.Span }
func (n *Fn) stmtNode()      {}

// --- Literal Expressions ---

type IntLiteral struct {
	Span  Span
	Value int64
}

func (n *IntLiteral) Kind() string   { return "IntLiteral" }
func (n *IntLiteral) NodeSpan() Span { return n.Span }
func (n *IntLiteral) exprNode()      {}

type FloatLiteral struct {
	Span  Span
	Value float64
}

func (n *FloatLiteral) Kind() string   { return "FloatLiteral" }
func (n *FloatLiteral) NodeSpan() Span { return n.Span }
func (n *FloatLiteral) exprNode()      {}

type StringLiteral struct {
	Span  Span
	Value string
}

func (n *StringLiteral) Kind() string   { return "StringLiteral" }
func (n *StringLiteral) NodeSpan() Span { return n.Span }
func (n *StringLiteral) exprNode()      {}

// NewStringLiteral builds a string literal from its quoted source text,
// stripping the enclosing quotes and resolving escape sequences.
func NewStringLiteral(span Span, quoted string) (*StringLiteral, error) {
	if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
		return nil, fmt.Errorf("malformed string literal %s", quoted)
	}
	value := quoted[1 : len(quoted)-1]
	if strings.ContainsRune(value, '\\') {
		unquoted, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, fmt.Errorf("malformed string literal %s: %w", quoted, err)
		}
		value = unquoted
	}
	return &StringLiteral{Span: span, Value: value}, nil
}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) exprNode()      {}

// --- Identifiers ---

type Symbol struct {
	Span Span
	Name string
}

func (n *Symbol) Kind() string   { return "Symbol" }
func (n *Symbol) NodeSpan() Span { return n.Span }
func (n *Symbol) exprNode()      {}

// --- Operators ---

type BinaryOp struct {
	Span  Span
	Op    Operator
	Left  Expr
	Right Expr
}

func (n *BinaryOp) Kind() string   { return "BinaryOp" }
func (n *BinaryOp) NodeSpan() Span { return n.Span }
func (n *BinaryOp) exprNode()      {}

// Minus is unary negation.
type Minus struct {
	Span    Span
	Operand Expr
}

func (n *Minus) Kind() string   { return "Minus" }
func (n *Minus) NodeSpan() Span { return n.Span }
func (n *Minus) exprNode()      {}

type Not struct {
	Span    Span
	Operand Expr
}

func (n *Not) Kind() string   { return "Not" }
func (n *Not) NodeSpan() Span { return n.Span }
func (n *Not) exprNode()      {}

type Cast struct {
	Span   Span
	Target ValueKind
	Value  Expr
}

func (n *Cast) Kind() string   { return "Cast" }
func (n *Cast) NodeSpan() Span { return n.Span }
func (n *Cast) exprNode()      {}

// --- Control Flow ---

type If struct {
	Span Span
	Cond Expr
	Then *Block
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) exprNode()      {}

type IfElse struct {
	Span Span
	Cond Expr
	Then *Block
	Else *Block
}

func (n *IfElse) Kind() string   { return "IfElse" }
func (n *IfElse) NodeSpan() Span { return n.Span }
func (n *IfElse) exprNode()      {}

type While struct {
	Span Span
	Cond Expr
	Body *Block
}

func (n *While) Kind() string   { return "While" }
func (n *While) NodeSpan() Span { return n.Span }
func (n *While) exprNode()      {}

type For struct {
	Span Span
	Init Stmt
	Cond Expr
	Step Stmt
	Body *Block
}

func (n *For) Kind() string   { return "For" }
func (n *For) NodeSpan() Span { return n.Span }
func (n *For) exprNode()      {}

// --- Calls ---

type Call struct {
	Span Span
	Name string
	Args []Expr
}

func (n *Call) Kind() string   { return "Call" }
func (n *Call) NodeSpan() Span { return n.Span }
func (n *Call) exprNode()      {}
