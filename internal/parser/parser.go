// Package parser implements a recursive-descent / Pratt parser over the
// aivi token stream, building the ast.Module tree (spec §3.2, §4.2).
package parser

import (
	"fmt"
	"strings"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/lexer"
)

// Precedence levels, lowest to highest. `|>`/`<|` bind loosest so a
// pipeline reads as a single chain; field access/indexing bind tightest
// so `items[pred].price` parses as one path.
const (
	_ int = iota
	LOWEST
	PIPE    // |> <|
	LOGOR   // ||
	LOGAND  // &&
	EQUALS  // == !=
	COMPARE // < > <= >=
	RANGE   // ..
	APPEND  // ++
	SUM     // + -
	PRODUCT // * / %
	PREFIX  // unary - !
	CALL    // juxtaposed application
	ACCESS  // . [ ]
)

var precedences = map[lexer.TokenKind]int{
	lexer.PIPEOP:   PIPE,
	lexer.PATCH:    PIPE,
	lexer.PIPEPIPE: LOGOR,
	lexer.AMPAMP:   LOGAND,
	lexer.EQ:       EQUALS,
	lexer.NEQ:      EQUALS,
	lexer.LT:       COMPARE,
	lexer.GT:       COMPARE,
	lexer.LTE:      COMPARE,
	lexer.GTE:      COMPARE,
	lexer.DOTDOT:   RANGE,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.STAR:     PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.DOT:      ACCESS,
	lexer.LBRACKET: ACCESS,
}

// Parser consumes a significant-tokens-only stream (trivia already
// stripped by the caller via lexer.SignificantOnly) and produces a
// surface AST, recovering past failures by checkpoint restoration and
// token skipping (spec §4.2).
type Parser struct {
	file   string
	toks   []lexer.CstToken
	pos    int
	diags  []diag.Diagnostic
}

func New(source, file string) *Parser {
	all, lexDiags := lexer.Tokenize(source, file)
	sig := lexer.SignificantOnly(all)
	return &Parser{file: file, toks: sig, diags: lexDiags}
}

func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }

func (p *Parser) cur() lexer.CstToken {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peek(offset int) lexer.CstToken {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) curKind() lexer.TokenKind { return p.cur().Inner.Kind }

func (p *Parser) advance() lexer.CstToken {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.TokenKind) bool { return p.curKind() == k }

func (p *Parser) errHere(code, format string, args ...any) {
	sp := p.cur().Span
	p.diags = append(p.diags, diag.Errorf(code, sp, format, args...))
}

// expect consumes a token of kind k, or records a missing-delimiter
// diagnostic and continues without consuming (error recovery).
func (p *Parser) expect(k lexer.TokenKind) (lexer.CstToken, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errHere(diagParMissingDelim(), "expected %v, found %v %q", k, p.curKind(), p.cur().Text)
	return p.cur(), false
}

func diagParMissingDelim() string { return "PAR1501" }

func (p *Parser) spanFrom(start diag.Position) diag.Span {
	end := p.toks[max(0, p.pos-1)].Span.End
	return diag.Span{Start: start, End: end}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// checkpoint / restore implement recovery by token-skipping: on a parse
// failure inside a sub-rule, the caller can snapshot pos, attempt an
// alternative, and roll back if that also fails.
type checkpoint struct{ pos int }

func (p *Parser) mark() checkpoint        { return checkpoint{pos: p.pos} }
func (p *Parser) restore(c checkpoint)    { p.pos = c.pos }

// skipToSync advances past tokens until it finds one of the given
// "sync" kinds or EOF, used to resume parsing after an error.
func (p *Parser) skipToSync(kinds ...lexer.TokenKind) {
	for !p.at(lexer.EOF) {
		for _, k := range kinds {
			if p.at(k) {
				return
			}
		}
		p.advance()
	}
}

// ParseModule parses an entire compilation unit: optional `module` header,
// `export`/`use` declarations, then a sequence of module items.
func (p *Parser) ParseModule() *ast.Module {
	start := p.cur().Span.Start
	mod := &ast.Module{Path: p.file}

	if p.at(lexer.MODULE) {
		p.advance()
		nameStart := p.cur().Span.Start
		mod.Name = p.parseDottedName()
		mod.NameSpan = p.spanFrom(nameStart)
	}

	for {
		switch {
		case p.at(lexer.EXPORT) && p.peek(1).Inner.Kind == lexer.LBRACE:
			p.advance()
			p.advance() // {
			for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
				nameTok := p.advance()
				mod.Exports = append(mod.Exports, ast.ExportedName{Name: nameTok.Text, Span: nameTok.Span})
				if p.at(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RBRACE)
		case p.at(lexer.USE):
			mod.Uses = append(mod.Uses, p.parseUseDecl())
		default:
			goto items
		}
	}
items:
	for !p.at(lexer.EOF) {
		item := p.parseModuleItem()
		if item != nil {
			mod.Items = append(mod.Items, item)
		} else {
			p.skipToSync(lexer.DEF, lexer.TYPE, lexer.CLASS, lexer.INSTANCE, lexer.DOMAIN, lexer.EOF)
			if !p.at(lexer.EOF) && p.pos == 0 {
				p.advance()
			}
		}
	}

	mod.Sp = p.spanFrom(start)
	return mod
}

func (p *Parser) parseDottedName() string {
	var parts []string
	parts = append(parts, p.advance().Text)
	for p.at(lexer.DOT) {
		p.advance()
		parts = append(parts, p.advance().Text)
	}
	return strings.Join(parts, ".")
}

func (p *Parser) parseUseDecl() *ast.UseDecl {
	start := p.cur().Span.Start
	p.advance() // use
	u := &ast.UseDecl{}
	u.Target = p.parseDottedName()
	if p.at(lexer.DOT) {
		p.advance()
		if p.at(lexer.STAR) {
			p.advance()
			u.Wildcard = true
		}
	}
	if p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			kind := ast.UseValue
			if p.at(lexer.DOMAIN) {
				p.advance()
				kind = ast.UseDomain
			}
			name := p.advance().Text
			u.Items = append(u.Items, ast.UseItem{Name: name, Kind: kind})
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
	}
	u.Sp = p.spanFrom(start)
	return u
}

func (p *Parser) parseDecorators() []ast.Decorator {
	var decs []ast.Decorator
	for p.at(lexer.AT) {
		start := p.cur().Span.Start
		p.advance()
		name := p.advance().Text
		var args []string
		if p.at(lexer.LPAREN) {
			p.advance()
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				args = append(args, p.advance().Text)
				if p.at(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
		}
		decs = append(decs, ast.Decorator{Name: name, Args: args, Span: p.spanFrom(start)})
	}
	return decs
}

func (p *Parser) parseModuleItem() ast.ModuleItem {
	decorators := p.parseDecorators()
	switch {
	case p.at(lexer.DEF):
		return p.parseDef(decorators)
	case p.at(lexer.TYPE):
		return p.parseTypeItem()
	case p.at(lexer.CLASS):
		return p.parseClassDecl()
	case p.at(lexer.INSTANCE):
		return p.parseInstanceDecl()
	case p.at(lexer.DOMAIN):
		return p.parseDomainDecl()
	case p.at(lexer.IDENT) && p.peek(1).Inner.Kind == lexer.COLON:
		return p.parseTypeSig()
	default:
		p.errHere("PAR1500", "unexpected token %v %q at module level", p.curKind(), p.cur().Text)
		p.advance()
		return nil
	}
}

func (p *Parser) parseTypeSig() *ast.TypeSig {
	start := p.cur().Span.Start
	name := p.advance().Text
	p.expect(lexer.COLON)
	t := p.parseTypeExpr()
	return &ast.TypeSig{Spanned: ast.Spanned{Sp: p.spanFrom(start)}, Name: name, Type: t}
}

func (p *Parser) parseDef(decorators []ast.Decorator) *ast.Def {
	start := p.cur().Span.Start
	p.advance() // def
	nameStart := p.cur().Span.Start
	name := p.advance().Text
	nameSpan := p.spanFrom(nameStart)

	var params []ast.Pattern
	for !p.at(lexer.ASSIGN) && !p.at(lexer.EOF) {
		params = append(params, p.parsePatternAtom())
	}
	p.expect(lexer.ASSIGN)
	body := p.parseExpr(LOWEST)

	return &ast.Def{
		Spanned:    ast.Spanned{Sp: p.spanFrom(start)},
		Decorators: decorators,
		Name:       name,
		NameSpan:   nameSpan,
		Params:     params,
		Body:       body,
	}
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	start := p.cur().Span.Start
	p.advance() // class
	name := p.advance().Text
	p.expect(lexer.LBRACKET)
	param := p.advance().Text
	p.expect(lexer.RBRACKET)
	p.expect(lexer.LBRACE)
	c := &ast.ClassDecl{Name: name, Param: param}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		mStart := p.cur().Span.Start
		mname := p.advance().Text
		p.expect(lexer.COLON)
		mtype := p.parseTypeExpr()
		c.Members = append(c.Members, ast.ClassMember{Name: mname, Type: mtype, Span: p.spanFrom(mStart)})
	}
	p.expect(lexer.RBRACE)
	c.Sp = p.spanFrom(start)
	return c
}

func (p *Parser) parseInstanceDecl() *ast.InstanceDecl {
	start := p.cur().Span.Start
	p.advance() // instance
	className := p.advance().Text
	p.expect(lexer.LBRACKET)
	param := p.parseTypeExpr()
	p.expect(lexer.RBRACKET)
	p.expect(lexer.LBRACE)
	inst := &ast.InstanceDecl{ClassName: className, Param: param}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.DEF) {
			inst.Defs = append(inst.Defs, p.parseDef(nil))
		} else {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	inst.Sp = p.spanFrom(start)
	return inst
}

func (p *Parser) parseDomainDecl() *ast.DomainDecl {
	start := p.cur().Span.Start
	p.advance() // domain
	name := p.advance().Text
	p.expect(lexer.LBRACE)
	d := &ast.DomainDecl{Name: name}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.DEF) {
			d.Defs = append(d.Defs, p.parseDef(nil))
		} else {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	d.Sp = p.spanFrom(start)
	return d
}

// ParseErrorsSummary renders accumulated diagnostics for debug use.
func (p *Parser) ParseErrorsSummary() string {
	var sb strings.Builder
	for _, d := range p.diags {
		sb.WriteString(fmt.Sprintf("%s: %s\n", d.Code(), d.Message()))
	}
	return sb.String()
}
