package parser

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/lexer"
)

// parseTypeExpr parses a surface type annotation: names with args, function
// arrows (right-associative), tuples, and record types with an optional
// open-row tail (spec §3.2, §4.6 for the row-polymorphism this feeds).
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	t := p.parseTypeAtomChain()
	if p.at(lexer.ARROW) {
		p.advance()
		result := p.parseTypeExpr()
		return &ast.FuncTypeExpr{Spanned: sp(p, t.Span().Start), Param: t, Result: result}
	}
	return t
}

// parseTypeAtomChain parses a type atom followed by juxtaposed type
// arguments, e.g. `List a`, `Map k v`.
func (p *Parser) parseTypeAtomChain() ast.TypeExpr {
	head := p.parseTypeAtom()
	name, ok := head.(*ast.TypeName)
	if !ok {
		return head
	}
	for p.canStartTypeArg() {
		name.Args = append(name.Args, p.parseTypeAtom())
	}
	name.Sp = p.spanFrom(name.Sp.Start)
	return name
}

func (p *Parser) canStartTypeArg() bool {
	switch p.curKind() {
	case lexer.IDENT, lexer.LPAREN, lexer.LBRACE, lexer.LBRACKET:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTypeAtom() ast.TypeExpr {
	start := p.cur().Span.Start
	switch p.curKind() {
	case lexer.IDENT:
		name := p.advance().Text
		return &ast.TypeName{Spanned: sp(p, start), Name: name}
	case lexer.LBRACKET:
		// [T] is sugar for `List T`.
		p.advance()
		elem := p.parseTypeExpr()
		p.expect(lexer.RBRACKET)
		return &ast.TypeName{Spanned: sp(p, start), Name: "List", Args: []ast.TypeExpr{elem}}
	case lexer.LPAREN:
		p.advance()
		if p.at(lexer.RPAREN) {
			p.advance()
			return &ast.TypeName{Spanned: sp(p, start), Name: "Unit"}
		}
		first := p.parseTypeExpr()
		if p.at(lexer.COMMA) {
			elems := []ast.TypeExpr{first}
			for p.at(lexer.COMMA) {
				p.advance()
				elems = append(elems, p.parseTypeExpr())
			}
			p.expect(lexer.RPAREN)
			return &ast.TupleTypeExpr{Spanned: sp(p, start), Elements: elems}
		}
		p.expect(lexer.RPAREN)
		return first
	case lexer.LBRACE:
		return p.parseRecordTypeExpr()
	default:
		p.errHere("PAR1500", "unexpected token %v %q in type position", p.curKind(), p.cur().Text)
		p.advance()
		return &ast.TypeName{Spanned: sp(p, start), Name: "?"}
	}
}

func (p *Parser) parseRecordTypeExpr() ast.TypeExpr {
	start := p.cur().Span.Start
	p.advance() // {
	rt := &ast.RecordTypeExpr{}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.DOTDOT) {
			p.advance()
			rt.Open = true
			if p.at(lexer.COMMA) {
				p.advance()
			}
			continue
		}
		fStart := p.cur().Span.Start
		name := p.advance().Text
		p.expect(lexer.COLON)
		ft := p.parseTypeExpr()
		rt.Fields = append(rt.Fields, ast.RecordFieldType{Name: name, Type: ft, Span: p.spanFrom(fStart)})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	rt.Sp = p.spanFrom(start)
	return rt
}

// parseTypeItem parses a `type` module item: an algebraic type
// (`type Name a = Ctor(T) | Ctor2 | ...`), a record type
// (`type Name = { field: T, ... }`), or a plain alias to a
// lowercase-named type (`type UserId = string`).
func (p *Parser) parseTypeItem() ast.ModuleItem {
	start := p.cur().Span.Start
	p.advance() // type
	name := p.advance().Text

	var typeParams []string
	for p.at(lexer.IDENT) {
		typeParams = append(typeParams, p.advance().Text)
	}
	p.expect(lexer.ASSIGN)

	if p.at(lexer.LBRACE) {
		rec := p.parseRecordTypeExpr().(*ast.RecordTypeExpr)
		return &ast.TypeDecl{
			Spanned:    ast.Spanned{Sp: p.spanFrom(start)},
			Name:       name,
			TypeParams: typeParams,
			Record:     rec,
		}
	}

	if p.at(lexer.BAR) {
		p.advance()
	}
	first := p.parseConstructor()
	if p.at(lexer.BAR) {
		ctors := []ast.Constructor{first}
		for p.at(lexer.BAR) {
			p.advance()
			ctors = append(ctors, p.parseConstructor())
		}
		return &ast.TypeDecl{
			Spanned:    ast.Spanned{Sp: p.spanFrom(start)},
			Name:       name,
			TypeParams: typeParams,
			Variants:   ctors,
		}
	}

	// A single bare uppercase name with no fields and no further `|` arm is
	// ambiguous between "one-constructor ADT" and "type alias"; aivi treats
	// it as a one-constructor ADT when the name starts uppercase, else as
	// an alias to the parsed type expression (e.g. `type UserId = string`
	// should not become a wrapper type but also not re-parse as a ctor).
	if ctorOnly(first) {
		return &ast.TypeDecl{
			Spanned:    ast.Spanned{Sp: p.spanFrom(start)},
			Name:       name,
			TypeParams: typeParams,
			Variants:   []ast.Constructor{first},
		}
	}
	return &ast.TypeAlias{
		Spanned: ast.Spanned{Sp: p.spanFrom(start)},
		Name:    name,
		Type:    constructorAsType(first),
	}
}

// parseConstructor parses one `Name` or `Name(T1, T2, ...)` variant arm.
func (p *Parser) parseConstructor() ast.Constructor {
	start := p.cur().Span.Start
	name := p.advance().Text
	var fields []ast.TypeExpr
	if p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			fields = append(fields, p.parseTypeExpr())
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
	}
	return ast.Constructor{Name: name, Fields: fields, Span: p.spanFrom(start)}
}

// ctorOnly reports whether a bare parsed constructor looks like a genuine
// nullary/positional data constructor (uppercase name) rather than a type
// name used as an alias target.
func ctorOnly(c ast.Constructor) bool {
	return len(c.Name) > 0 && isUpper(c.Name[0])
}

func constructorAsType(c ast.Constructor) ast.TypeExpr {
	return &ast.TypeName{Spanned: ast.Spanned{Sp: c.Span}, Name: c.Name, Args: c.Fields}
}
