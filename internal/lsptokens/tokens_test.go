package lsptokens

import (
	"testing"

	"github.com/mendrik/aivi/internal/lexer"
)

func classifySource(t *testing.T, src string) []Token {
	t.Helper()
	toks, diags := lexer.Tokenize(src, "test.aivi")
	if len(diags) != 0 {
		t.Fatalf("unexpected lex diagnostics: %v", diags)
	}
	return Classify(lexer.SignificantOnly(toks))
}

func findKind(t *testing.T, toks []Token, text string) Kind {
	t.Helper()
	for _, tok := range toks {
		if tok.Cst.Text == text {
			return tok.Kind
		}
	}
	t.Fatalf("token %q not found in stream", text)
	return 0
}

func TestClassify_Keyword(t *testing.T) {
	toks := classifySource(t, "def inc x = x + 1")
	if k := findKind(t, toks, "def"); k != Keyword {
		t.Errorf("expected 'def' to classify as Keyword, got %v", k)
	}
}

func TestClassify_FunctionDefinitionHead(t *testing.T) {
	toks := classifySource(t, "def inc x = x + 1")
	if k := findKind(t, toks, "inc"); k != Function {
		t.Errorf("expected 'inc' (name = ...) to classify as Function, got %v", k)
	}
}

func TestClassify_TypeName(t *testing.T) {
	toks := classifySource(t, "type Option a = None | Some a")
	if k := findKind(t, toks, "Option"); k != Type {
		t.Errorf("expected 'Option' to classify as Type, got %v", k)
	}
}

func TestClassify_TypeParameter(t *testing.T) {
	toks := classifySource(t, "type Option a = None | Some a")
	if k := findKind(t, toks, "a"); k != TypeParameter {
		t.Errorf("expected 'a' to classify as TypeParameter, got %v", k)
	}
}

func TestClassify_Pipe(t *testing.T) {
	toks := classifySource(t, "def f x = x |> inc")
	if k := findKind(t, toks, "|>"); k != PipeSym {
		t.Errorf("expected '|>' to classify as PipeSym, got %v", k)
	}
}

func TestClassify_Operator(t *testing.T) {
	toks := classifySource(t, "def f x = x + 1")
	if k := findKind(t, toks, "+"); k != Operator {
		t.Errorf("expected '+' to classify as Operator, got %v", k)
	}
}

func TestClassify_Decorator(t *testing.T) {
	toks := classifySource(t, "@mcp_tool\ndef hello name = name")
	if k := findKind(t, toks, "@"); k != Decorator {
		t.Errorf("expected '@' to classify as Decorator, got %v", k)
	}
	if k := findKind(t, toks, "mcp_tool"); k != Decorator {
		t.Errorf("expected 'mcp_tool' following '@' to classify as Decorator, got %v", k)
	}
}

func TestClassify_RecordLabel(t *testing.T) {
	toks := classifySource(t, "def r = { name: \"x\" }")
	if k := findKind(t, toks, "name"); k != Property {
		t.Errorf("expected 'name:' to classify as Property, got %v", k)
	}
}

func TestClassify_Variable(t *testing.T) {
	toks := classifySource(t, "def f x = x")
	if k := findKind(t, toks, "x"); k != Variable && k != Function {
		t.Errorf("expected 'x' to classify as Variable or Function, got %v", k)
	}
}

func TestClassify_Underscore(t *testing.T) {
	toks := classifySource(t, "def f _ = 1")
	if k := findKind(t, toks, "_"); k != Keyword {
		t.Errorf("expected '_' to classify as Keyword, got %v", k)
	}
}
