package parser

import (
	"strings"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/lexer"
)

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.curKind()]; ok {
		return prec
	}
	return LOWEST
}

// ParseExpr is the public entry point used by ParseModule's def bodies
// and by callers that want to parse a bare expression (REPL, tests).
func (p *Parser) ParseExpr() ast.Expr { return p.parseExpr(LOWEST) }

func (p *Parser) parseExpr(precedence int) ast.Expr {
	left := p.parsePrefix()
	for !p.at(lexer.EOF) && precedence < p.peekPrecedence() {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	start := p.cur().Span.Start
	switch p.curKind() {
	case lexer.NUMBER:
		tok := p.advance()
		return &ast.Literal{Spanned: sp(p, start), Kind: ast.LitNumber, Value: tok.Text}
	case lexer.STRING:
		return p.parseStringLiteral()
	case lexer.SIGIL:
		tok := p.advance()
		kind := ast.LitSigil
		switch tok.Inner.SigilTag {
		case "dt", "t":
			kind = ast.LitDateTime
		}
		return &ast.Literal{Spanned: sp(p, start), Kind: kind, Value: tok.Text, SigilTag: tok.Inner.SigilTag, SigilBody: tok.Inner.SigilBody}
	case lexer.BOOL:
		tok := p.advance()
		return &ast.Literal{Spanned: sp(p, start), Kind: ast.LitBool, Value: tok.Text}
	case lexer.UNDERSCORE:
		p.advance()
		return &ast.Placeholder{Spanned: sp(p, start)}
	case lexer.IDENT:
		tok := p.advance()
		return &ast.Ident{Spanned: sp(p, start), Name: tok.Text}
	case lexer.DOT:
		p.advance()
		name := p.advance().Text
		return &ast.FieldSection{Spanned: sp(p, start), Name: name}
	case lexer.BACKSLASH:
		return p.parseLambda()
	case lexer.LPAREN:
		return p.parseParenOrTuple()
	case lexer.LBRACKET:
		return p.parseListLit()
	case lexer.LBRACE:
		return p.parseRecordOrPatch()
	case lexer.IF:
		return p.parseIf()
	case lexer.MATCH:
		return p.parseMatch()
	case lexer.EFFECT:
		return p.parseBlock(ast.BlockEffect)
	case lexer.GENERATE:
		return p.parseBlock(ast.BlockGenerate)
	case lexer.RESOURCE:
		return p.parseBlock(ast.BlockResource)
	case lexer.MINUS, lexer.BANG:
		op := p.advance().Text
		operand := p.parseExpr(PREFIX)
		return &ast.UnaryOp{Spanned: sp(p, start), Op: op, Operand: operand}
	default:
		p.errHere("PAR1500", "unexpected token %v %q in expression position", p.curKind(), p.cur().Text)
		tok := p.advance()
		return &ast.Raw{Spanned: sp(p, start), Text: tok.Text}
	}
}

func sp(p *Parser, start diag.Position) ast.Spanned {
	return ast.Spanned{Sp: p.spanFrom(start)}
}

func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	start := leftStart(left)
	switch p.curKind() {
	case lexer.LPAREN:
		return p.parseCall(left, start)
	case lexer.DOT, lexer.LBRACKET:
		return p.parsePathChain(left, start)
	case lexer.PATCH:
		p.advance()
		patch := p.parseExpr(PIPE)
		if rl, ok := patch.(*ast.RecordLit); ok && rl.Spread == nil {
			// A plain record literal on the right is a patch whose entries
			// are single-field paths.
			entries := make([]ast.PatchEntry, len(rl.Fields))
			for i, f := range rl.Fields {
				entries[i] = ast.PatchEntry{Path: []ast.PathSegment{{Kind: ast.SegField, Name: f.Name, Span: f.Span}}, Updater: f.Value, Span: f.Span}
			}
			patch = &ast.PatchLit{Spanned: rl.Spanned, Entries: entries}
		}
		if pl, ok := patch.(*ast.PatchLit); ok {
			return &ast.Call{Spanned: sp(p, start), Func: &ast.Ident{Name: "__patch_apply"}, Args: []ast.Expr{left, exprOf(pl)}}
		}
		// `<|` with a non-record-literal right side is plain application: f <| x == f(x)
		return &ast.Call{Spanned: sp(p, start), Func: left, Args: []ast.Expr{patch}}
	case lexer.PIPEOP:
		p.advance()
		right := p.parseExpr(PIPE)
		return &ast.Call{Spanned: sp(p, start), Func: right, Args: []ast.Expr{left}}
	default:
		op := p.advance().Text
		prec := precedences[p.toks[p.pos-1].Inner.Kind]
		right := p.parseExpr(prec)
		return &ast.BinaryOp{Spanned: sp(p, start), Op: op, Left: left, Right: right}
	}
}

func exprOf(p *ast.PatchLit) ast.Expr { return p }

func leftStart(e ast.Expr) diag.Position { return e.Span().Start }

func (p *Parser) parseCall(fn ast.Expr, start diag.Position) ast.Expr {
	p.advance() // (
	var args []ast.Expr
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		args = append(args, p.parseExpr(LOWEST))
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return &ast.Call{Spanned: sp(p, start), Func: fn, Args: args}
}

// parsePathChain parses a run of `.field`, `[expr]`, `[*]` segments
// following a target, producing either a FieldAccess (no index segments)
// or an IndexExpr chain, per spec §3.2/§4.7.
func (p *Parser) parsePathChain(target ast.Expr, start diag.Position) ast.Expr {
	segs := p.parsePathSegments()
	if len(segs) == 1 && segs[0].Kind == ast.SegIndex {
		return &ast.IndexExpr{Spanned: sp(p, start), Target: target, Index: segs[0].Index}
	}
	if len(segs) == 1 && segs[0].Kind == ast.SegAll {
		return &ast.IndexExpr{Spanned: sp(p, start), Target: target, All: true}
	}
	return &ast.FieldAccess{Spanned: sp(p, start), Target: target, Path: segs}
}

func (p *Parser) parsePathSegments() []ast.PathSegment {
	var segs []ast.PathSegment
	for p.at(lexer.DOT) || p.at(lexer.LBRACKET) {
		segStart := p.cur().Span.Start
		if p.at(lexer.DOT) {
			p.advance()
			name := p.advance().Text
			segs = append(segs, ast.PathSegment{Kind: ast.SegField, Name: name, Span: p.spanFrom(segStart)})
			continue
		}
		p.advance() // [
		if p.at(lexer.STAR) {
			p.advance()
			segs = append(segs, ast.PathSegment{Kind: ast.SegAll, Span: p.spanFrom(segStart)})
			p.expect(lexer.RBRACKET)
			continue
		}
		idx := p.parseExpr(LOWEST)
		p.expect(lexer.RBRACKET)
		segs = append(segs, ast.PathSegment{Kind: ast.SegIndex, Index: idx, Span: p.spanFrom(segStart)})
	}
	return segs
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // backslash
	var params []ast.Pattern
	for !p.at(lexer.ARROW) && !p.at(lexer.EOF) {
		params = append(params, p.parsePatternAtom())
	}
	p.expect(lexer.ARROW)
	body := p.parseExpr(LOWEST)
	return &ast.Lambda{Spanned: sp(p, start), Params: params, Body: body}
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // (
	if p.at(lexer.RPAREN) {
		p.advance()
		return &ast.TupleLit{Spanned: sp(p, start)}
	}
	first := p.parseExpr(LOWEST)
	if p.at(lexer.COMMA) {
		elems := []ast.Expr{first}
		for p.at(lexer.COMMA) {
			p.advance()
			elems = append(elems, p.parseExpr(LOWEST))
		}
		p.expect(lexer.RPAREN)
		return &ast.TupleLit{Spanned: sp(p, start), Elements: elems}
	}
	p.expect(lexer.RPAREN)
	return first
}

func (p *Parser) parseListLit() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // [
	var items []ast.ListItem
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		spread := false
		if p.at(lexer.DOTDOT) {
			// `...expr` spread items use DOTDOT followed immediately by a
			// third dot-less identifier is ambiguous with ranges; spreads
			// are only recognized when the list item begins the segment.
			p.advance()
			spread = true
		}
		val := p.parseExpr(LOWEST)
		items = append(items, ast.ListItem{Value: val, Spread: spread})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.ListLit{Spanned: sp(p, start), Items: items}
}

// parseRecordOrPatch disambiguates a plain record literal `{ a: 1 }` from
// a patch literal `{ path: updater }` by the presence of a path (`.`/`[`)
// before the first top-level `:` — mirrors the HIR-stage patch-vs-apply
// disambiguation described in spec §4.2/§4.5 but performed eagerly here
// since the grammars only differ in the LHS shape.
func (p *Parser) parseRecordOrPatch() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // {
	if p.at(lexer.RBRACE) {
		p.advance()
		return &ast.RecordLit{Spanned: sp(p, start)}
	}

	var spreadBase ast.Expr
	if p.at(lexer.DOTDOT) && p.peek(1).Inner.Kind == lexer.DOTDOT {
		// unreachable: DOTDOT is a single token; kept for readability.
	}

	var fields []ast.RecordFieldLit
	var patchEntries []ast.PatchEntry
	isPatch := false

	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		fieldStart := p.cur().Span.Start
		if p.at(lexer.DOTDOT) {
			p.advance()
			spreadBase = p.parseExpr(LOWEST)
			if p.at(lexer.COMMA) {
				p.advance()
			}
			continue
		}
		name := p.advance().Text
		segs := p.parsePathSegments()
		if len(segs) > 0 {
			isPatch = true
		}
		p.expect(lexer.COLON)
		val := p.parseExpr(LOWEST)
		if isPatch {
			fullPath := append([]ast.PathSegment{{Kind: ast.SegField, Name: name}}, segs...)
			patchEntries = append(patchEntries, ast.PatchEntry{Path: fullPath, Updater: val, Span: p.spanFrom(fieldStart)})
		} else {
			fields = append(fields, ast.RecordFieldLit{Name: name, Value: val, Span: p.spanFrom(fieldStart)})
		}
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	if isPatch {
		return &ast.PatchLit{Spanned: sp(p, start), Entries: patchEntries}
	}
	return &ast.RecordLit{Spanned: sp(p, start), Fields: fields, Spread: spreadBase}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // if
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.THEN)
	then := p.parseExpr(LOWEST)
	p.expect(lexer.ELSE)
	els := p.parseExpr(LOWEST)
	return &ast.If{Spanned: sp(p, start), Cond: cond, Then: then, Else: els}
}

// parseMatch parses both the full `match expr { | pat => body ... }` form
// and the scrutinee-less multi-clause sugar `match { | pat => body }`
// (spec §4.2).
func (p *Parser) parseMatch() ast.Expr {
	start := p.cur().Span.Start
	p.advance() // match
	var scrutinee ast.Expr
	if !p.at(lexer.LBRACE) {
		scrutinee = p.parseExpr(LOWEST)
	}
	p.expect(lexer.LBRACE)
	var cases []ast.MatchCase
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		cStart := p.cur().Span.Start
		if p.at(lexer.BAR) {
			p.advance()
		}
		pat := p.parsePattern()
		var guard ast.Expr
		if p.at(lexer.IF) {
			p.advance()
			guard = p.parseExpr(LOWEST)
		}
		p.expect(lexer.FARROW)
		body := p.parseExpr(LOWEST)
		cases = append(cases, ast.MatchCase{Pattern: pat, Guard: guard, Body: body, Span: p.spanFrom(cStart)})
	}
	p.expect(lexer.RBRACE)
	return &ast.Match{Spanned: sp(p, start), Scrutinee: scrutinee, Cases: cases}
}

// parseBlock parses `effect|generate|resource { items... }`. A misused
// `yield`/`recurse`/`<-` for the given kind still produces a
// representative block item so later passes see a shape (spec §4.2).
func (p *Parser) parseBlock(kind ast.BlockKind) ast.Expr {
	start := p.cur().Span.Start
	p.advance() // keyword
	p.expect(lexer.LBRACE)
	var items []ast.BlockItem
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		items = append(items, p.parseBlockItem(kind))
	}
	p.expect(lexer.RBRACE)
	if len(items) == 0 {
		p.errHere("PAR1505", "%s block must not be empty", kind)
	}
	return &ast.Block{Spanned: sp(p, start), Kind: kind, Items: items}
}

func (p *Parser) parseBlockItem(kind ast.BlockKind) ast.BlockItem {
	start := p.cur().Span.Start

	if p.at(lexer.YIELD) {
		if kind != ast.BlockGenerate && kind != ast.BlockResource {
			p.errHere("PAR1502", "yield is only valid in generate/resource blocks")
		}
		p.advance()
		val := p.parseExpr(LOWEST)
		return ast.BlockItem{Kind: ast.ItemYield, Value: val, Span: p.spanFrom(start)}
	}
	if p.at(lexer.RECURSE) {
		if kind != ast.BlockGenerate {
			p.errHere("PAR1502", "recurse is only valid in generate blocks")
		}
		p.advance()
		val := p.parseExpr(LOWEST)
		return ast.BlockItem{Kind: ast.ItemRecurse, Value: val, Span: p.spanFrom(start)}
	}

	// `pattern <- expr [or ...]` or `pattern = expr` or a bare expr/filter.
	save := p.mark()
	if pat, ok := p.tryParsePatternThen(lexer.LARROW); ok {
		if kind == ast.BlockPlain {
			p.errHere("PAR1502", "<- is only valid in effect/generate/resource blocks")
		}
		val := p.parseExpr(LOWEST)
		item := ast.BlockItem{Kind: ast.ItemBind, Binder: pat, Value: val}
		if p.at(lexer.OR) {
			p.advance()
			if p.at(lexer.BAR) {
				for p.at(lexer.BAR) {
					p.advance()
					cp := p.parsePattern()
					p.expect(lexer.FARROW)
					cb := p.parseExpr(LOWEST)
					item.OrCases = append(item.OrCases, ast.MatchCase{Pattern: cp, Body: cb})
				}
			} else {
				item.OrElse = p.parseExpr(LOWEST)
			}
		}
		item.Span = p.spanFrom(start)
		return item
	}
	p.restore(save)

	if pat, ok := p.tryParsePatternThen(lexer.ASSIGN); ok {
		val := p.parseExpr(LOWEST)
		return ast.BlockItem{Kind: ast.ItemLet, Binder: pat, Value: val, Span: p.spanFrom(start)}
	}
	p.restore(save)

	expr := p.parseExpr(LOWEST)
	if kind == ast.BlockGenerate && p.at(lexer.ARROW) {
		p.advance()
		cont := p.parseExpr(LOWEST)
		// `guard -> rest` desugars into an ItemFilter whose Value is the
		// guard and whose OrElse carries the guarded continuation; HIR
		// desugar folds this back into the Church `if` combinator.
		return ast.BlockItem{Kind: ast.ItemFilter, Value: expr, OrElse: cont, Span: p.spanFrom(start)}
	}
	return ast.BlockItem{Kind: ast.ItemExpr, Value: expr, Span: p.spanFrom(start)}
}

// tryParsePatternThen attempts to parse a pattern followed immediately by
// `want`; on failure it leaves the parser position ambiguous (caller must
// restore from a checkpoint taken before this call).
func (p *Parser) tryParsePatternThen(want lexer.TokenKind) (ast.Pattern, bool) {
	if !p.at(lexer.IDENT) && !p.at(lexer.UNDERSCORE) {
		return nil, false
	}
	pat := p.parsePatternAtom()
	if p.at(want) {
		p.advance()
		return pat, true
	}
	return nil, false
}

func (p *Parser) parseStringLiteral() ast.Expr {
	start := p.cur().Span.Start
	tok := p.advance()
	raw := tok.Text
	if !strings.Contains(raw, "${") {
		return &ast.Literal{Spanned: sp(p, start), Kind: ast.LitString, Value: unescapeString(raw)}
	}
	return p.parseInterpolation(raw, start)
}

// parseInterpolation splits a raw string body on `${...}` markers and
// recursively parses each embedded expression with a fresh sub-parser
// over that slice of source text.
func (p *Parser) parseInterpolation(raw string, start diag.Position) ast.Expr {
	var parts []ast.TextPart
	i := 0
	for i < len(raw) {
		idx := strings.Index(raw[i:], "${")
		if idx < 0 {
			parts = append(parts, ast.TextPart{Text: unescapeString(raw[i:])})
			break
		}
		if idx > 0 {
			parts = append(parts, ast.TextPart{Text: unescapeString(raw[i : i+idx])})
		}
		depth := 1
		j := i + idx + 2
		exprStart := j
		for j < len(raw) && depth > 0 {
			switch raw[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					goto doneExpr
				}
			}
			j++
		}
	doneExpr:
		exprSrc := raw[exprStart:j]
		sub := New(exprSrc, p.file)
		e := sub.parseExpr(LOWEST)
		parts = append(parts, ast.TextPart{Expr: e})
		p.diags = append(p.diags, sub.diags...)
		i = j + 1
	}
	return &ast.TextInterp{Spanned: sp(p, start), Parts: parts}
}

func unescapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
