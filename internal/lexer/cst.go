package lexer

import "github.com/mendrik/aivi/internal/diag"

// CstTokenKind buckets a Token into the coarse categories the formatter
// and semantic-token classifier care about (spec §4.1).
type CstTokenKind string

const (
	CstWhitespace CstTokenKind = "whitespace"
	CstComment    CstTokenKind = "comment"
	CstIdent      CstTokenKind = "ident"
	CstNumber     CstTokenKind = "number"
	CstString     CstTokenKind = "string"
	CstSigil      CstTokenKind = "sigil"
	CstSymbol     CstTokenKind = "symbol"
	CstNewline    CstTokenKind = "newline"
)

// CstToken is a CST-level token: kind, original text, and its span.
// Whitespace and comments are preserved so the formatter and semantic
// tokens have a complete, trivia-aware view of the file.
type CstToken struct {
	Kind  CstTokenKind
	Text  string
	Span  diag.Span
	Inner Token
}

func bucket(t Token) CstTokenKind {
	switch t.Kind {
	case WHITESPACE:
		return CstWhitespace
	case NEWLINE:
		return CstNewline
	case COMMENT:
		return CstComment
	case IDENT, MODULE, USE, EXPORT, DEF, TYPE, CLASS, INSTANCE, DOMAIN, MATCH, IF, THEN, ELSE,
		EFFECT, GENERATE, RESOURCE, YIELD, RECURSE, OR, BOOL, UNDERSCORE:
		return CstIdent
	case NUMBER:
		return CstNumber
	case STRING:
		return CstString
	case SIGIL:
		return CstSigil
	default:
		return CstSymbol
	}
}

// Tokenize runs the Lexer to completion (including trivia) and returns the
// CST token stream plus any lexical diagnostics it surfaced, per spec §4.1
// ("always continues to produce tokens").
func Tokenize(source, file string) ([]CstToken, []diag.Diagnostic) {
	l := New(normalizeSource(source), file)
	var out []CstToken
	for {
		tok := l.NextToken()
		start := diag.Position{Line: tok.Line, Column: tok.Column, File: file}
		end := diag.Position{Line: l.line, Column: l.column, File: file}
		out = append(out, CstToken{
			Kind:  bucket(tok),
			Text:  tok.Literal,
			Span:  diag.Span{Start: start, End: end},
			Inner: tok,
		})
		if tok.Kind == EOF {
			break
		}
	}
	var diags []diag.Diagnostic
	for _, e := range l.Errors() {
		pos := diag.Position{Line: e.Line, Column: e.Column, File: file}
		diags = append(diags, diag.Errorf("LEX001", diag.Span{Start: pos, End: pos}, "%s", e.Message))
	}
	return out, diags
}

// SignificantOnly filters trivia tokens out, for consumers (parser) that
// do not need whitespace/comments/newlines.
func SignificantOnly(toks []CstToken) []CstToken {
	out := make([]CstToken, 0, len(toks))
	for _, t := range toks {
		if t.Kind == CstWhitespace || t.Kind == CstNewline || t.Kind == CstComment {
			continue
		}
		out = append(out, t)
	}
	return out
}
