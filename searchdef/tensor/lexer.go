package tensor

import (
	"fmt"
	"strconv"
	"unicode"
)

// Token represents a lexical token of a tensor type expression
type Token struct {
	Kind  TokenKind
	Value string
	Num   int
	Pos   int
}

// TokenKind is the type of token
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokNumber
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokLt
	TokGt
	TokComma
	TokEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokIdent:
		return "Ident"
	case TokNumber:
		return "Number"
	case TokLParen:
		return "LParen"
	case TokRParen:
		return "RParen"
	case TokLBracket:
		return "LBracket"
	case TokRBracket:
		return "RBracket"
	case TokLBrace:
		return "LBrace"
	case TokRBrace:
		return "RBrace"
	case TokLt:
		return "Lt"
	case TokGt:
		return "Gt"
	case TokComma:
		return "Comma"
	case TokEOF:
		return "EOF"
	default:
		return "Unknown"
	}
}

func (t Token) String() string {
	switch t.Kind {
	case TokIdent:
		return fmt.Sprintf("Ident(%s)", t.Value)
	case TokNumber:
		return fmt.Sprintf("Number(%d)", t.Num)
	default:
		return t.Kind.String()
	}
}

// Lexer tokenizes a tensor type string
type Lexer struct {
	input []rune
	pos   int
}

// NewLexer creates a new lexer for the input string
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: []rune(input),
		pos:   0,
	}
}

// Lex tokenizes the entire input
func Lex(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Pos: start}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Pos: start}, nil
	case '[':
		l.pos++
		return Token{Kind: TokLBracket, Pos: start}, nil
	case ']':
		l.pos++
		return Token{Kind: TokRBracket, Pos: start}, nil
	case '{':
		l.pos++
		return Token{Kind: TokLBrace, Pos: start}, nil
	case '}':
		l.pos++
		return Token{Kind: TokRBrace, Pos: start}, nil
	case '<':
		l.pos++
		return Token{Kind: TokLt, Pos: start}, nil
	case '>':
		l.pos++
		return Token{Kind: TokGt, Pos: start}, nil
	case ',':
		l.pos++
		return Token{Kind: TokComma, Pos: start}, nil
	}

	if unicode.IsDigit(ch) {
		return l.scanNumber()
	}

	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}

	return Token{}, fmt.Errorf("unexpected character %q at offset %d", ch, l.pos)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
		l.pos++
	}

	numStr := string(l.input[start:l.pos])
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return Token{}, fmt.Errorf("invalid number: %s", numStr)
	}

	return Token{Kind: TokNumber, Value: numStr, Num: num, Pos: start}, nil
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokIdent, Value: string(l.input[start:l.pos]), Pos: start}
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
