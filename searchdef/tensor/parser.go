package tensor

import (
	"fmt"
)

// Parse parses a tensor type declaration into a Type
func Parse(input string) (Type, error) {
	tokens, err := Lex(input)
	if err != nil {
		return Type{}, fmt.Errorf("tensor type %q: %w", input, err)
	}

	p := &parser{tokens: tokens, pos: 0}
	t, err := p.parseType()
	if err != nil {
		return Type{}, fmt.Errorf("tensor type %q: %w", input, err)
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(input string) Type {
	t, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) parseType() (Type, error) {
	if !p.match(TokIdent) || p.current().Value != "tensor" {
		return Type{}, fmt.Errorf("expected 'tensor', got %v", p.current())
	}
	p.advance()

	vt := ValueDouble
	if p.match(TokLt) {
		p.advance()
		if !p.match(TokIdent) {
			return Type{}, fmt.Errorf("expected cell type, got %v", p.current())
		}
		name := p.current().Value
		parsed, ok := parseValueType(name)
		if !ok {
			return Type{}, fmt.Errorf("unknown cell type %q", name)
		}
		vt = parsed
		p.advance()
		if err := p.expect(TokGt); err != nil {
			return Type{}, err
		}
	}

	if err := p.expect(TokLParen); err != nil {
		return Type{}, err
	}

	var dims []Dimension
	if !p.match(TokRParen) {
		for {
			d, err := p.parseDimension()
			if err != nil {
				return Type{}, err
			}
			dims = append(dims, d)
			if !p.match(TokComma) {
				break
			}
			p.advance()
		}
	}

	if err := p.expect(TokRParen); err != nil {
		return Type{}, err
	}
	if !p.match(TokEOF) {
		return Type{}, fmt.Errorf("unexpected trailing input at offset %d", p.current().Pos)
	}

	return NewType(vt, dims...)
}

func (p *parser) parseDimension() (Dimension, error) {
	if !p.match(TokIdent) {
		return Dimension{}, fmt.Errorf("expected dimension name, got %v", p.current())
	}
	name := p.current().Value
	p.advance()

	switch p.current().Kind {
	case TokLBrace:
		p.advance()
		if err := p.expect(TokRBrace); err != nil {
			return Dimension{}, err
		}
		return Dimension{Name: name, Kind: DimensionMapped}, nil

	case TokLBracket:
		p.advance()
		if p.match(TokRBracket) {
			p.advance()
			return Dimension{Name: name, Kind: DimensionIndexed}, nil
		}
		if !p.match(TokNumber) {
			return Dimension{}, fmt.Errorf("dimension %q: expected size, got %v", name, p.current())
		}
		size := p.current().Num
		p.advance()
		if err := p.expect(TokRBracket); err != nil {
			return Dimension{}, err
		}
		return Dimension{Name: name, Kind: DimensionIndexed, Bound: true, Size: size}, nil

	default:
		return Dimension{}, fmt.Errorf("dimension %q: expected '[' or '{', got %v", name, p.current())
	}
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) match(kind TokenKind) bool {
	return p.current().Kind == kind
}

func (p *parser) expect(kind TokenKind) error {
	if !p.match(kind) {
		return fmt.Errorf("expected %v, got %v", kind, p.current())
	}
	p.advance()
	return nil
}
