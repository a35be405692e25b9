// Package lexer implements the minilang tokenizer.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/thomasrohde/minilang/pkg/ast"
	"github.com/thomasrohde/minilang/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokIf TokenType = iota
	TokElse
	TokWhile
	TokFor
	TokFn
	TokPrint
	TokPrintln
	TokCast
	TokTypeInt
	TokTypeFloat
	TokTypeStr
	TokTypeBool
	TokTrue
	TokFalse
	TokAnd
	TokOr
	TokNot

	// Literals
	TokIntLit
	TokFloatLit
	TokStringLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLBrace    // {
	TokRBrace    // }
	TokLParen    // (
	TokRParen    // )
	TokComma     // ,
	TokSemicolon // ;
	TokColon     // :

	// Binding
	TokDefine // :=
	TokAssign // =

	// Comparison operators
	TokEq // ==
	TokNe // !=
	TokLe // <=
	TokGe // >=
	TokLt // <
	TokGt // >

	// Arithmetic operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokStarStar // **
	TokSlash    // /
	TokPercent  // %
	TokBang     // !

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokIf: "IF", TokElse: "ELSE", TokWhile: "WHILE", TokFor: "FOR", TokFn: "FN",
	TokPrint: "PRINT", TokPrintln: "PRINTLN", TokCast: "CAST",
	TokTypeInt: "INT", TokTypeFloat: "FLOAT", TokTypeStr: "STR", TokTypeBool: "BOOL",
	TokTrue: "TRUE", TokFalse: "FALSE", TokAnd: "AND", TokOr: "OR", TokNot: "NOT",
	TokIntLit: "VALUE_INT", TokFloatLit: "VALUE_FLOAT", TokStringLit: "VALUE_STRING",
	TokIdent: "SYMBOL",
	TokLBrace: "LBRACE", TokRBrace: "RBRACE", TokLParen: "LPAREN", TokRParen: "RPAREN",
	TokComma: "COMMA", TokSemicolon: "SC", TokColon: "COLON",
	TokDefine: "DEFINE", TokAssign: "ASSIGN",
	TokEq: "EQ", TokNe: "NE", TokLe: "LE", TokGe: "GE", TokLt: "LT", TokGt: "GT",
	TokPlus: "ADD", TokMinus: "SUB", TokStar: "MUL", TokStarStar: "POW", TokSlash: "DIV",
	TokPercent: "MOD", TokBang: "BANG",
	TokEOF: "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// Token represents a single lexer token. String literals keep their quotes.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q %d:%d", t.Type, t.Value, t.Span.StartLine, t.Span.StartCol)
}

var keywords = map[string]TokenType{
	"if":      TokIf,
	"else":    TokElse,
	"while":   TokWhile,
	"for":     TokFor,
	"fn":      TokFn,
	"print":   TokPrint,
	"println": TokPrintln,
	"cast":    TokCast,
	"int":     TokTypeInt,
	"float":   TokTypeFloat,
	"str":     TokTypeStr,
	"bool":    TokTypeBool,
	"true":    TokTrue,
	"false":   TokFalse,
	"and":     TokAnd,
	"or":      TokOr,
	"not":     TokNot,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '#' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func isHex(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// scanString validates a double-quoted literal and returns it verbatim,
// quotes included. Escapes are resolved when the AST node is built.
func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	s.advance() // consume opening "

	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == '"':
			s.advance()
			return Token{
				Type:  TokStringLit,
				Value: s.source[startPos:s.pos],
				Span:  s.span(startLine, startCol),
			}, nil
		case ch == '\\':
			s.advance()
			if s.atEnd() {
				return Token{}, s.lexError(startLine, startCol, "unterminated string escape")
			}
			esc := s.advance()
			switch esc {
			case '"', '\\', 'n', 'r', 't':
			case 'u':
				for i := 0; i < 4; i++ {
					if !isHex(s.peek()) {
						return Token{}, s.lexError(startLine, startCol, "invalid unicode escape")
					}
					s.advance()
				}
			default:
				return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid escape character: \\%c", esc))
			}
		case ch == '\n':
			return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
		default:
			r, size := utf8.DecodeRuneInString(s.source[s.pos:])
			if r == utf8.RuneError && size == 1 {
				return Token{}, s.lexError(startLine, startCol, "invalid UTF-8 character in string")
			}
			for i := 0; i < size; i++ {
				s.advance()
			}
		}
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	isFloat := false

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// Optional fractional part
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		isFloat = true
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	// Optional exponent, only when digits follow
	if s.peek() == 'e' || s.peek() == 'E' {
		offset := 1
		if s.peekAt(1) == '+' || s.peekAt(1) == '-' {
			offset = 2
		}
		if isDigit(s.peekAt(offset)) {
			isFloat = true
			for i := 0; i < offset; i++ {
				s.advance()
			}
			for !s.atEnd() && isDigit(s.peek()) {
				s.advance()
			}
		}
	}

	tokType := TokIntLit
	if isFloat {
		tokType = TokFloatLit
	}

	return Token{
		Type:  tokType,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	tokType := TokIdent
	if kw, ok := keywords[text]; ok {
		tokType = kw
	}

	return Token{
		Type:  tokType,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (e *LexError) Unwrap() error {
	return diagnostics.ErrLex
}

func (s *scanner) single(typ TokenType, startLine, startCol int) (Token, error) {
	ch := s.advance()
	return Token{Type: typ, Value: string(ch), Span: s.span(startLine, startCol)}, nil
}

// pair emits a two-character token when the next byte is second, otherwise a one-character token.
func (s *scanner) pair(second byte, double, single TokenType, startLine, startCol int) (Token, error) {
	start := s.pos
	s.advance()
	if s.peek() == second {
		s.advance()
		return Token{Type: double, Value: s.source[start:s.pos], Span: s.span(startLine, startCol)}, nil
	}
	return Token{Type: single, Value: s.source[start:s.pos], Span: s.span(startLine, startCol)}, nil
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	// Single-char tokens
	switch ch {
	case '{':
		return s.single(TokLBrace, startLine, startCol)
	case '}':
		return s.single(TokRBrace, startLine, startCol)
	case '(':
		return s.single(TokLParen, startLine, startCol)
	case ')':
		return s.single(TokRParen, startLine, startCol)
	case ',':
		return s.single(TokComma, startLine, startCol)
	case ';':
		return s.single(TokSemicolon, startLine, startCol)
	case '+':
		return s.single(TokPlus, startLine, startCol)
	case '-':
		return s.single(TokMinus, startLine, startCol)
	case '/':
		return s.single(TokSlash, startLine, startCol)
	case '%':
		return s.single(TokPercent, startLine, startCol)
	}

	// Multi-char tokens
	switch ch {
	case ':':
		return s.pair('=', TokDefine, TokColon, startLine, startCol)
	case '=':
		return s.pair('=', TokEq, TokAssign, startLine, startCol)
	case '!':
		return s.pair('=', TokNe, TokBang, startLine, startCol)
	case '<':
		return s.pair('=', TokLe, TokLt, startLine, startCol)
	case '>':
		return s.pair('=', TokGe, TokGt, startLine, startCol)
	case '*':
		return s.pair('*', TokStarStar, TokStar, startLine, startCol)
	}

	if isDigit(ch) {
		return s.scanNumber(), nil
	}

	if ch == '"' {
		return s.scanString()
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), nil
	}

	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	s.advance()
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", r))
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
