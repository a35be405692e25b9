// Package parser implements the minilang parser.
package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
	"github.com/thomasrohde/minilang/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already tokenized program. The slice must end with TokEOF.
func ParseTokens(tokens []lexer.Token) (*ast.Program, []diagnostics.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, "token stream is not terminated", nil, "")}
	}
	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got %s", tokenName(typ), describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, ""))
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokComma:
		return "','"
	case lexer.TokSemicolon:
		return "';'"
	case lexer.TokColon:
		return "':'"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokEOF:
		return "end of file"
	default:
		return t.String()
	}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// isTypeKeyword returns true if the token names a value kind.
func isTypeKeyword(t lexer.TokenType) bool {
	return t >= lexer.TokTypeInt && t <= lexer.TokTypeBool
}

// --- Program & Block ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span
	block := p.parseBlock(lexer.TokEOF)
	if block == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokEOF); !ok {
		return nil
	}
	return &ast.Program{
		Span:  p.spanFromTo(startSpan, p.current().Span),
		Block: block,
	}
}

// parseBlock reads statements up to (not including) the end token. Statements
// are separated by ';', which may be omitted after a statement ending in '}'.
func (p *parser) parseBlock(end lexer.TokenType) *ast.Block {
	startSpan := p.current().Span
	stmts := []ast.Stmt{}

	for p.peek() != end && p.peek() != lexer.TokEOF {
		if p.peek() == lexer.TokSemicolon {
			p.advance()
			continue
		}

		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)

		switch {
		case p.peek() == lexer.TokSemicolon:
			p.advance()
		case p.peek() == end, p.peek() == lexer.TokEOF:
		case p.previous().Type == lexer.TokRBrace:
		default:
			tok := p.current()
			p.addError(fmt.Sprintf("expected ';' between statements, got %s", describe(tok)), &tok.Span)
			return nil
		}
	}

	return &ast.Block{
		Span:       p.spanFromTo(startSpan, p.previous().Span),
		Statements: stmts,
	}
}

// parseBraced parses '{' block '}'.
func (p *parser) parseBraced() *ast.Block {
	open, ok := p.expect(lexer.TokLBrace)
	if !ok {
		return nil
	}
	block := p.parseBlock(lexer.TokRBrace)
	if block == nil {
		return nil
	}
	closeTok, ok := p.expect(lexer.TokRBrace)
	if !ok {
		return nil
	}
	block.Span = p.spanFromTo(open.Span, closeTok.Span)
	return block
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokIdent:
		switch p.peekAt(1) {
		case lexer.TokDefine:
			return p.parseDefine()
		case lexer.TokAssign:
			return p.parseAssign()
		}
	case lexer.TokPrint, lexer.TokPrintln:
		return p.parsePrint()
	case lexer.TokFn:
		return p.parseFn()
	}

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.Statement{Span: expr.NodeSpan(), Expr: expr}
}

func (p *parser) parseDefine() ast.Stmt {
	name := p.advance()
	p.advance() // :=
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.Define{
		Span:  p.spanFromTo(name.Span, value.NodeSpan()),
		Name:  name.Value,
		Value: value,
	}
}

func (p *parser) parseAssign() ast.Stmt {
	name := p.advance()
	p.advance() // =
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.Assign{
		Span:  p.spanFromTo(name.Span, value.NodeSpan()),
		Name:  name.Value,
		Value: value,
	}
}

func (p *parser) parsePrint() ast.Stmt {
	start := p.advance()
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	closeTok, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}
	return &ast.Print{
		Span:    p.spanFromTo(start.Span, closeTok.Span),
		Value:   value,
		Newline: start.Type == lexer.TokPrintln,
	}
}

func (p *parser) parseFn() ast.Stmt {
	start := p.advance() // fn
	name, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	params := []ast.Param{}
	if p.peek() != lexer.TokRParen {
		for {
			param, ok := p.parseParam()
			if !ok {
				return nil
			}
			params = append(params, param)
			if p.peek() != lexer.TokComma {
				break
			}
			p.advance()
		}
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body := p.parseBraced()
	if body == nil {
		return nil
	}
	return &ast.Fn{
		Span:   p.spanFromTo(start.Span, body.Span),
		Name:   name.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseParam() (ast.Param, bool) {
	name, ok := p.expect(lexer.TokIdent)
	if !ok {
		return ast.Param{}, false
	}
	if _, ok := p.expect(lexer.TokColon); !ok {
		return ast.Param{}, false
	}
	kind, typeTok, ok := p.parseType()
	if !ok {
		return ast.Param{}, false
	}
	return ast.Param{
		Span: p.spanFromTo(name.Span, typeTok.Span),
		Name: name.Value,
		Type: kind,
	}, true
}

func (p *parser) parseType() (ast.ValueKind, lexer.Token, bool) {
	tok := p.current()
	if !isTypeKeyword(tok.Type) {
		p.addError(fmt.Sprintf("expected a type (int, float, str, bool), got %s", describe(tok)), &tok.Span)
		return ast.KindInvalid, tok, false
	}
	p.advance()
	kind, _ := ast.ParseValueKind(tok.Value)
	return kind, tok, true
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

// --- Precedence climbing ---

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokOr {
		p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = p.binary(ast.OpOr, left, right)
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseNot()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokAnd {
		p.advance()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		left = p.binary(ast.OpAnd, left, right)
	}
	return left
}

func (p *parser) parseNot() ast.Expr {
	if p.peek() == lexer.TokNot || p.peek() == lexer.TokBang {
		start := p.advance()
		operand := p.parseNot()
		if operand == nil {
			return nil
		}
		return &ast.Not{
			Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
			Operand: operand,
		}
	}
	return p.parseComparison()
}

var comparisonOps = map[lexer.TokenType]ast.Operator{
	lexer.TokEq: ast.OpEq,
	lexer.TokNe: ast.OpNe,
	lexer.TokLt: ast.OpLt,
	lexer.TokLe: ast.OpLe,
	lexer.TokGt: ast.OpGt,
	lexer.TokGe: ast.OpGe,
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}

	for {
		op, ok := comparisonOps[p.peek()]
		if !ok {
			return left
		}
		p.advance()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		left = p.binary(op, left, right)
	}
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}

	for {
		var op ast.Operator
		switch p.peek() {
		case lexer.TokPlus:
			op = ast.OpAdd
		case lexer.TokMinus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = p.binary(op, left, right)
	}
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		var op ast.Operator
		switch p.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		case lexer.TokPercent:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = p.binary(op, left, right)
	}
}

// minIntMagnitude is the only integer literal that is valid solely when negated.
const minIntMagnitude = "9223372036854775808"

func (p *parser) parseUnary() ast.Expr {
	if p.peek() == lexer.TokMinus && p.peekAt(1) == lexer.TokIntLit &&
		p.peekAt(2) != lexer.TokStarStar && p.tokens[p.pos+1].Value == minIntMagnitude {
		start := p.advance()
		tok := p.advance()
		return &ast.IntLiteral{Span: p.spanFromTo(start.Span, tok.Span), Value: math.MinInt64}
	}
	if p.peek() == lexer.TokMinus {
		start := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Minus{
			Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
			Operand: operand,
		}
	}
	return p.parsePower()
}

// parsePower handles the right-associative '**', which binds tighter than unary minus.
func (p *parser) parsePower() ast.Expr {
	base := p.parsePrimary()
	if base == nil {
		return nil
	}
	if p.peek() != lexer.TokStarStar {
		return base
	}
	p.advance()
	exponent := p.parseUnary()
	if exponent == nil {
		return nil
	}
	return p.binary(ast.OpPow, base, exponent)
}

func (p *parser) binary(op ast.Operator, left, right ast.Expr) ast.Expr {
	return &ast.BinaryOp{
		Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	case lexer.TokIntLit:
		tok := p.advance()
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.addError(fmt.Sprintf("integer literal %s is out of range", tok.Value), &tok.Span)
			return nil
		}
		return &ast.IntLiteral{Span: tok.Span, Value: val}

	case lexer.TokFloatLit:
		tok := p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.addError(fmt.Sprintf("float literal %s is out of range", tok.Value), &tok.Span)
			return nil
		}
		return &ast.FloatLiteral{Span: tok.Span, Value: val}

	case lexer.TokStringLit:
		tok := p.advance()
		lit, err := ast.NewStringLiteral(tok.Span, tok.Value)
		if err != nil {
			p.addError(err.Error(), &tok.Span)
			return nil
		}
		return lit

	case lexer.TokTrue:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}

	case lexer.TokFalse:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}

	case lexer.TokIf:
		return p.parseIf()

	case lexer.TokWhile:
		return p.parseWhile()

	case lexer.TokFor:
		return p.parseFor()

	case lexer.TokCast:
		return p.parseCast()

	case lexer.TokIdent:
		if p.peekAt(1) == lexer.TokLParen {
			return p.parseCall()
		}
		tok := p.advance()
		return &ast.Symbol{Span: tok.Span, Name: tok.Value}

	default:
		tok := p.current()
		if tok.Type == lexer.TokEOF {
			p.addError("unexpected end of file", &tok.Span)
		} else {
			p.addError(fmt.Sprintf("unexpected token '%s'", tok.Value), &tok.Span)
		}
		return nil
	}
}

func (p *parser) parseIf() ast.Expr {
	start := p.advance() // if
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	then := p.parseBraced()
	if then == nil {
		return nil
	}
	if p.peek() != lexer.TokElse {
		return &ast.If{
			Span: p.spanFromTo(start.Span, then.Span),
			Cond: cond,
			Then: then,
		}
	}
	p.advance() // else
	els := p.parseBraced()
	if els == nil {
		return nil
	}
	return &ast.IfElse{
		Span: p.spanFromTo(start.Span, els.Span),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *parser) parseWhile() ast.Expr {
	start := p.advance() // while
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	body := p.parseBraced()
	if body == nil {
		return nil
	}
	return &ast.While{
		Span: p.spanFromTo(start.Span, body.Span),
		Cond: cond,
		Body: body,
	}
}

func (p *parser) parseFor() ast.Expr {
	start := p.advance() // for
	init := p.parseStmt()
	if init == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	step := p.parseStmt()
	if step == nil {
		return nil
	}
	body := p.parseBraced()
	if body == nil {
		return nil
	}
	return &ast.For{
		Span: p.spanFromTo(start.Span, body.Span),
		Init: init,
		Cond: cond,
		Step: step,
		Body: body,
	}
}

func (p *parser) parseCast() ast.Expr {
	start := p.advance() // cast
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	kind, _, ok := p.parseType()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	closeTok, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}
	return &ast.Cast{
		Span:   p.spanFromTo(start.Span, closeTok.Span),
		Target: kind,
		Value:  value,
	}
}

func (p *parser) parseCall() ast.Expr {
	name := p.advance()
	p.advance() // (

	args := []ast.Expr{}
	if p.peek() != lexer.TokRParen {
		for {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if p.peek() != lexer.TokComma {
				break
			}
			p.advance()
		}
	}
	closeTok, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}
	return &ast.Call{
		Span: p.spanFromTo(name.Span, closeTok.Span),
		Name: name.Value,
		Args: args,
	}
}
