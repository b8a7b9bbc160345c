package rustir

import (
	"testing"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/kernel"
)

func TestLower_VarClassification(t *testing.T) {
	body := &kernel.Lambda{
		Param: "x",
		Body: &kernel.Call{
			Func: &kernel.Var{Name: "print"},
			Args: []kernel.Expr{
				&kernel.Var{Name: "x"},
				&kernel.Var{Name: "Total"},
				&kernel.Var{Name: "runningTotal"},
			},
		},
	}
	prog := &kernel.Program{
		ModuleName: "m",
		Defs: []*kernel.Def{
			{Name: "runningTotal", Body: &kernel.Lit{Kind: ast.LitNumber, Value: "0"}},
			{Name: "report", Body: body},
		},
	}

	lowerer := NewLowerer([]string{"runningTotal", "report"})
	out := lowerer.Lower(prog)

	if len(lowerer.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", lowerer.Diagnostics())
	}

	lam, ok := out.Defs[1].Body.(*Lambda)
	if !ok {
		t.Fatalf("expected Lambda, got %T", out.Defs[1].Body)
	}
	call, ok := lam.Body.(*Call)
	if !ok {
		t.Fatalf("expected Call, got %T", lam.Body)
	}
	fn, ok := call.Func.(*Var)
	if !ok || fn.Kind != Builtin {
		t.Fatalf("expected builtin print, got %+v", call.Func)
	}

	wantKinds := []VarKind{Local, ConstructorValue, Global}
	for i, arg := range call.Args {
		v, ok := arg.(*Var)
		if !ok {
			t.Fatalf("arg %d: expected Var, got %T", i, arg)
		}
		if v.Kind != wantKinds[i] {
			t.Errorf("arg %d (%s): expected kind %s, got %s", i, v.Name, wantKinds[i], v.Kind)
		}
	}
}

func TestLower_UnboundVarReportsRIR001(t *testing.T) {
	prog := &kernel.Program{
		ModuleName: "m",
		Defs: []*kernel.Def{
			{Name: "bad", Body: &kernel.Var{Name: "mystery"}},
		},
	}
	lowerer := NewLowerer(nil)
	lowerer.Lower(prog)

	diags := lowerer.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code() != "RIR001" {
		t.Errorf("expected RIR001, got %s", diags[0].Code())
	}
}

func TestLowerPath_FieldAndAllSegments(t *testing.T) {
	lowerer := NewLowerer(nil)
	segs := lowerer.lowerPath([]ast.PathSegment{
		{Kind: ast.SegField, Name: "age"},
		{Kind: ast.SegAll},
	})
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Kind != SegField || segs[0].Name != "age" {
		t.Errorf("segment 0: expected field 'age', got %+v", segs[0])
	}
	if segs[1].Kind != SegIndexAll {
		t.Errorf("segment 1: expected IndexAll, got %+v", segs[1])
	}
}

func TestLowerPath_IndexFieldBool(t *testing.T) {
	// a[active]  — a bare unbound identifier predicate shorthand.
	lowerer := NewLowerer(nil)
	segs := lowerer.lowerPath([]ast.PathSegment{
		{Kind: ast.SegIndex, Index: &ast.Ident{Name: "active"}},
	})
	if segs[0].Kind != SegIndexFieldBool || segs[0].Name != "active" {
		t.Fatalf("expected IndexFieldBool(active), got %+v", segs[0])
	}
}

func TestLowerPath_IndexPredicateRewritesUnboundNames(t *testing.T) {
	// a[age > 18] — age is unbound, rewritten to __it.age under a λ__it.
	lowerer := NewLowerer(nil)
	idx := &ast.BinaryOp{Op: ">", Left: &ast.Ident{Name: "age"}, Right: &ast.Literal{Kind: ast.LitNumber, Value: "18"}}
	segs := lowerer.lowerPath([]ast.PathSegment{{Kind: ast.SegIndex, Index: idx}})

	seg := segs[0]
	if seg.Kind != SegIndexPredicate {
		t.Fatalf("expected IndexPredicate, got %+v", seg)
	}
	if seg.Predicate == nil || seg.Predicate.Param != "__it" {
		t.Fatalf("expected λ__it closure, got %+v", seg.Predicate)
	}
	call, ok := seg.Predicate.Body.(*Call)
	if !ok {
		t.Fatalf("expected Call body, got %T", seg.Predicate.Body)
	}
	fa, ok := call.Args[0].(*FieldAccess)
	if !ok {
		t.Fatalf("expected age rewritten to FieldAccess, got %T", call.Args[0])
	}
	target, ok := fa.Target.(*Var)
	if !ok || target.Name != "__it" {
		t.Fatalf("expected field access target __it, got %+v", fa.Target)
	}
	if len(fa.Path) != 1 || fa.Path[0].Name != "age" {
		t.Fatalf("expected path segment 'age', got %+v", fa.Path)
	}
}

func TestLowerPath_ClosedIndexIsValue(t *testing.T) {
	lowerer := NewLowerer(nil)
	segs := lowerer.lowerPath([]ast.PathSegment{
		{Kind: ast.SegIndex, Index: &ast.Literal{Kind: ast.LitNumber, Value: "0"}},
	})
	if segs[0].Kind != SegIndexValue {
		t.Fatalf("expected IndexValue for closed expression, got %+v", segs[0])
	}
}

func TestLower_MatchCasePushesPatternBinders(t *testing.T) {
	prog := &kernel.Program{
		ModuleName: "m",
		Defs: []*kernel.Def{
			{
				Name: "describe",
				Body: &kernel.Match{
					Scrutinee: &kernel.Var{Name: "x"},
					Cases: []kernel.MatchCase{
						{
							Pattern: &ast.ConstructorPattern{Name: "Some", Args: []ast.Pattern{&ast.Ident{Name: "inner"}}},
							Body:    &kernel.Var{Name: "inner"},
						},
					},
				},
			},
		},
	}
	lowerer := NewLowerer([]string{"x"})
	lowerer.Lower(prog)
	for _, d := range lowerer.Diagnostics() {
		t.Errorf("unexpected diagnostic: %v", d)
	}
}
