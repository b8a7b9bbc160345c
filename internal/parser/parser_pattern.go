package parser

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/lexer"
)

// parsePattern parses a full pattern, including a trailing constructor
// application without parens (`Some x`) when in arm/binder position.
func (p *Parser) parsePattern() ast.Pattern {
	pat := p.parsePatternAtom()
	if ctor, ok := pat.(*ast.ConstructorPattern); ok && len(ctor.Args) == 0 {
		var args []ast.Pattern
		for p.canStartPatternArg() {
			args = append(args, p.parsePatternAtom())
		}
		if len(args) > 0 {
			ctor.Args = args
		}
	}
	return pat
}

func (p *Parser) canStartPatternArg() bool {
	switch p.curKind() {
	case lexer.IDENT, lexer.UNDERSCORE, lexer.NUMBER, lexer.STRING, lexer.BOOL, lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePatternAtom() ast.Pattern {
	start := p.cur().Span.Start
	switch p.curKind() {
	case lexer.UNDERSCORE:
		p.advance()
		return &ast.WildcardPattern{Spanned: sp(p, start)}
	case lexer.IDENT:
		tok := p.advance()
		if len(tok.Text) > 0 && isUpper(tok.Text[0]) {
			return &ast.ConstructorPattern{Spanned: sp(p, start), Name: tok.Text}
		}
		return &ast.Ident{Spanned: sp(p, start), Name: tok.Text}
	case lexer.NUMBER, lexer.STRING, lexer.BOOL, lexer.SIGIL:
		lit := p.parsePrefix()
		if l, ok := lit.(*ast.Literal); ok {
			return &ast.LiteralPattern{Spanned: sp(p, start), Lit: l}
		}
		return &ast.WildcardPattern{Spanned: sp(p, start)}
	case lexer.LPAREN:
		p.advance()
		if p.at(lexer.RPAREN) {
			p.advance()
			return &ast.TuplePattern{Spanned: sp(p, start)}
		}
		first := p.parsePattern()
		if p.at(lexer.COMMA) {
			elems := []ast.Pattern{first}
			for p.at(lexer.COMMA) {
				p.advance()
				elems = append(elems, p.parsePattern())
			}
			p.expect(lexer.RPAREN)
			return &ast.TuplePattern{Spanned: sp(p, start), Elements: elems}
		}
		p.expect(lexer.RPAREN)
		return first
	case lexer.LBRACKET:
		return p.parseListPattern()
	case lexer.LBRACE:
		return p.parseRecordPattern()
	default:
		p.errHere("PAR1503", "unexpected token %v %q in pattern position", p.curKind(), p.cur().Text)
		p.advance()
		return &ast.WildcardPattern{Spanned: sp(p, start)}
	}
}

func (p *Parser) parseListPattern() ast.Pattern {
	start := p.cur().Span.Start
	p.advance() // [
	lp := &ast.ListPattern{Spanned: sp(p, start)}
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		if p.at(lexer.DOTDOT) {
			p.advance()
			lp.Rest = p.parsePatternAtom()
			break
		}
		lp.Elements = append(lp.Elements, p.parsePattern())
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACKET)
	lp.Sp = p.spanFrom(start)
	return lp
}

func (p *Parser) parseRecordPattern() ast.Pattern {
	start := p.cur().Span.Start
	p.advance() // {
	rp := &ast.RecordPattern{Spanned: sp(p, start)}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.DOTDOT) {
			p.advance()
			rp.Rest = true
			if p.at(lexer.COMMA) {
				p.advance()
			}
			continue
		}
		fStart := p.cur().Span.Start
		name := p.advance().Text
		segs := p.parsePathSegments()
		path := append([]ast.PathSegment{{Kind: ast.SegField, Name: name}}, segs...)
		var fieldPat ast.Pattern
		if p.at(lexer.COLON) {
			p.advance()
			fieldPat = p.parsePattern()
		} else {
			fieldPat = &ast.Ident{Name: name}
		}
		rp.Fields = append(rp.Fields, ast.FieldPattern{Path: path, Pattern: fieldPat, Span: p.spanFrom(fStart)})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	rp.Sp = p.spanFrom(start)
	return rp
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
