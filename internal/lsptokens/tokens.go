// Package lsptokens classifies a CST token stream into LSP semantic
// token kinds (spec §6.6): a pure classifier over lexer.CstToken plus
// local context, no JSON-RPC transport (that stays an external
// collaborator per spec §1).
package lsptokens

import "github.com/mendrik/aivi/internal/lexer"

// Kind is one entry of the semantic token legend. The standard LSP
// kinds come first, followed by the `aivi.*` extensions spec §6.6 names.
type Kind int

const (
	Keyword Kind = iota
	Type
	Function
	Variable
	Number
	String
	Comment
	Operator
	Decorator
	Property
	TypeParameter
	ArrowSym
	PipeSym
	BracketSym
	UnitSym
	SigilSym
	DotSym
	PathHead
	PathMid
	PathTail
)

// Legend is the fixed token-type ordering the LSP initialize response
// advertises; index into it is the token's encoded type.
var Legend = []string{
	"keyword", "type", "function", "variable", "number", "string", "comment",
	"operator", "decorator", "property", "typeParameter",
	"aivi.arrow", "aivi.pipe", "aivi.bracket", "aivi.unit", "aivi.sigil",
	"aivi.dot", "aivi.path.head", "aivi.path.mid", "aivi.path.tail",
}

// Token pairs a CST token with its classified kind, ready for LSP
// delta-encoding by the transport layer.
type Token struct {
	Cst  lexer.CstToken
	Kind Kind
}

var keywords = map[string]bool{
	"module": true, "use": true, "export": true, "def": true, "type": true,
	"class": true, "instance": true, "domain": true, "match": true, "if": true,
	"then": true, "else": true, "effect": true, "generate": true, "resource": true,
	"yield": true, "recurse": true, "or": true,
}

func isArrowSymbol(s string) bool {
	return s == "->" || s == "=>" || s == "<-"
}

func isPipeSymbol(s string) bool {
	return s == "|>" || s == "<|" || s == "|"
}

func isBracketSymbol(s string) bool {
	switch s {
	case "(", ")", "{", "}", "[", "]":
		return true
	default:
		return false
	}
}

func isOperatorSymbol(s string) bool {
	switch s {
	case "+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "&&", "||", "!", "..":
		return true
	default:
		return false
	}
}

// isTypeParameterName reports a single lowercase letter, the usual
// surface spelling of a type variable (`a`, `b`, ...).
func isTypeParameterName(s string) bool {
	return len(s) == 1 && s[0] >= 'a' && s[0] <= 'z'
}

func isUnitSuffix(prev, tok lexer.CstToken) bool {
	if prev.Kind != lexer.CstNumber || tok.Kind != lexer.CstIdent {
		return false
	}
	if prev.Span.End.Line != tok.Span.Start.Line {
		return false
	}
	return prev.Span.End.Column+1 == tok.Span.Start.Column
}

// isRecordLabel recognizes `name:` inside a record/patch literal: an
// ident immediately followed by `:`. The name of a standalone type
// signature line (`name : T`) matches too and is classified as Property.
func isRecordLabel(next lexer.CstToken) bool {
	return next.Kind == lexer.CstSymbol && next.Text == ":"
}

// isApplicationHead recognizes an identifier that is itself applied to
// at least one argument: preceded by nothing binding-like, followed by
// another ident/literal on the same logical application.
func isApplicationHead(prev lexer.CstToken, havePrev bool, next lexer.CstToken, haveNext bool) bool {
	if !haveNext {
		return false
	}
	switch next.Kind {
	case lexer.CstIdent, lexer.CstNumber, lexer.CstString, lexer.CstSigil:
	default:
		return false
	}
	if havePrev && prev.Kind == lexer.CstSymbol && prev.Text == "." {
		return false
	}
	return true
}

// Classify walks a significant-only CST token stream (whitespace,
// comments, and newlines already filtered) and assigns each token its
// semantic kind; tokens the legend has no slot for (e.g. punctuation
// that isn't itself meaningful) are left out of the result.
func Classify(toks []lexer.CstToken) []Token {
	out := make([]Token, 0, len(toks))
	for i, tok := range toks {
		var prev, next lexer.CstToken
		havePrev, haveNext := i > 0, i+1 < len(toks)
		if havePrev {
			prev = toks[i-1]
		}
		if haveNext {
			next = toks[i+1]
		}
		if kind, ok := classifyOne(prev, havePrev, tok, next, haveNext); ok {
			out = append(out, Token{Cst: tok, Kind: kind})
		}
	}
	return out
}

func classifyOne(prev lexer.CstToken, havePrev bool, tok lexer.CstToken, next lexer.CstToken, haveNext bool) (Kind, bool) {
	switch tok.Kind {
	case lexer.CstComment:
		return Comment, true
	case lexer.CstString:
		return String, true
	case lexer.CstSigil:
		return SigilSym, true
	case lexer.CstNumber:
		return Number, true
	case lexer.CstSymbol:
		switch {
		case tok.Text == "@":
			return Decorator, true
		case tok.Text == ".":
			return DotSym, true
		case isArrowSymbol(tok.Text):
			return ArrowSym, true
		case isPipeSymbol(tok.Text):
			return PipeSym, true
		case isBracketSymbol(tok.Text):
			return BracketSym, true
		case isOperatorSymbol(tok.Text):
			return Operator, true
		default:
			return 0, false
		}
	case lexer.CstIdent:
		if havePrev && isUnitSuffix(prev, tok) {
			return UnitSym, true
		}
		if isTypeParameterName(tok.Text) {
			return TypeParameter, true
		}
		if tok.Text == "_" || keywords[tok.Text] {
			return Keyword, true
		}
		if havePrev && prev.Kind == lexer.CstSymbol && prev.Text == "@" {
			return Decorator, true
		}
		if haveNext && isRecordLabel(next) {
			return Property, true
		}
		if len(tok.Text) > 0 && tok.Text[0] >= 'A' && tok.Text[0] <= 'Z' {
			return Type, true
		}
		if haveNext && next.Kind == lexer.CstSymbol && next.Text == "=" {
			return Function, true
		}
		if isApplicationHead(prev, havePrev, next, haveNext) {
			return Function, true
		}
		return Variable, true
	default:
		return 0, false
	}
}
