package interp

import (
	"testing"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

func TestMatchPattern_Ident_BindsValue(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	bound, ok := rt.matchPattern(&ast.Ident{Name: "x"}, &IntValue{Value: 5}, env)
	if !ok {
		t.Fatal("expected Ident pattern to always match")
	}
	v, found := bound.Get("x")
	if !found {
		t.Fatal("expected x to be bound")
	}
	if iv, ok := v.(*IntValue); !ok || iv.Value != 5 {
		t.Fatalf("expected IntValue(5) bound to x, got %v", v)
	}
}

func TestMatchPattern_Wildcard_AlwaysMatches(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	if _, ok := rt.matchPattern(&ast.WildcardPattern{}, &IntValue{Value: 9}, env); !ok {
		t.Fatal("expected wildcard pattern to match anything")
	}
}

func TestMatchPattern_Constructor_MatchesNameAndArity(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()

	some := &ConstructorValue{TypeName: "Option", CtorName: "Some", Arity: 1, Fields: []Value{&IntValue{Value: 3}}}
	pat := &ast.ConstructorPattern{Name: "Some", Args: []ast.Pattern{&ast.Ident{Name: "v"}}}

	bound, ok := rt.matchPattern(pat, some, env)
	if !ok {
		t.Fatal("expected Some(v) to match Some(3)")
	}
	v, _ := bound.Get("v")
	if iv, ok := v.(*IntValue); !ok || iv.Value != 3 {
		t.Fatalf("expected v bound to 3, got %v", v)
	}

	none := &ConstructorValue{TypeName: "Option", CtorName: "None", Arity: 0}
	if _, ok := rt.matchPattern(pat, none, env); ok {
		t.Fatal("expected Some(v) not to match None")
	}
}

func TestMatchPattern_ListWithRest(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	list := &ListValue{Elements: []Value{&IntValue{Value: 1}, &IntValue{Value: 2}, &IntValue{Value: 3}}}
	pat := &ast.ListPattern{Elements: []ast.Pattern{&ast.Ident{Name: "head"}}, Rest: &ast.Ident{Name: "tail"}}

	bound, ok := rt.matchPattern(pat, list, env)
	if !ok {
		t.Fatal("expected [head, ...tail] to match a 3-element list")
	}
	head, _ := bound.Get("head")
	if iv, ok := head.(*IntValue); !ok || iv.Value != 1 {
		t.Fatalf("expected head=1, got %v", head)
	}
	tail, _ := bound.Get("tail")
	tv, ok := tail.(*ListValue)
	if !ok || len(tv.Elements) != 2 {
		t.Fatalf("expected tail to be a 2-element list, got %v", tail)
	}
}

func TestMatchPattern_RecordField(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	rec := NewRecord()
	rec.Set("name", &StringValue{Value: "ada"})
	pat := &ast.RecordPattern{Fields: []ast.FieldPattern{
		{Path: []ast.PathSegment{{Kind: ast.SegField, Name: "name"}}, Pattern: &ast.Ident{Name: "n"}},
	}}

	bound, ok := rt.matchPattern(pat, rec, env)
	if !ok {
		t.Fatal("expected { name: n } to match a record with a name field")
	}
	n, _ := bound.Get("n")
	if sv, ok := n.(*StringValue); !ok || sv.Value != "ada" {
		t.Fatalf("expected n bound to \"ada\", got %v", n)
	}
}

func TestEvalMatch_FallsThroughToNoMatch(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	m := &hir.Match{
		Scrutinee: &hir.Lit{Kind: ast.LitBool, Value: "false"},
		Cases: []hir.MatchCase{
			{Pattern: &ast.LiteralPattern{Lit: &ast.Literal{Kind: ast.LitBool, Value: "true"}}, Body: &hir.Lit{Kind: ast.LitNumber, Value: "1"}},
		},
	}
	_, err := rt.evalMatch(m, env)
	if err != ErrNoMatch {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestEvalMatch_GuardSkipsNonMatchingArm(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	m := &hir.Match{
		Scrutinee: &hir.Lit{Kind: ast.LitNumber, Value: "5"},
		Cases: []hir.MatchCase{
			{
				Pattern: &ast.Ident{Name: "n"},
				Guard:   &hir.Lit{Kind: ast.LitBool, Value: "false"},
				Body:    &hir.Lit{Kind: ast.LitNumber, Value: "1"},
			},
			{
				Pattern: &ast.Ident{Name: "n"},
				Body:    &hir.Lit{Kind: ast.LitNumber, Value: "2"},
			},
		},
	}
	v, err := rt.evalMatch(m, env)
	if err != nil {
		t.Fatalf("evalMatch returned error: %v", err)
	}
	if iv, ok := v.(*IntValue); !ok || iv.Value != 2 {
		t.Fatalf("expected the guarded arm to be skipped in favor of the second, got %v", v)
	}
}
