package interp

import (
	"testing"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

func newRuntimeForTest() *Runtime {
	return NewRuntime(&hir.Program{}, NewEnvironment(), map[string]Value{}, map[string]*ConstructorValue{})
}

func TestThunk_ForceCachesResult(t *testing.T) {
	rt := newRuntimeForTest()
	th := NewThunk("x", &hir.Lit{Kind: ast.LitNumber, Value: "41"}, NewEnvironment())

	v1, err := th.Force(rt)
	if err != nil {
		t.Fatalf("Force returned error: %v", err)
	}
	if iv, ok := v1.(*IntValue); !ok || iv.Value != 41 {
		t.Fatalf("expected IntValue(41), got %v", v1)
	}

	v2, err := th.Force(rt)
	if err != nil {
		t.Fatalf("second Force returned error: %v", err)
	}
	if v2 != v1 {
		t.Fatal("expected Force to return the cached value on the second call")
	}
}

func TestThunk_RejectsRecursiveForcing(t *testing.T) {
	// `def loop = loop` desugars to a Thunk whose body is a Var naming
	// itself; binding the env entry to the thunk being forced lets Force
	// observe its own in-progress flag, exactly as the real self-
	// referential case would.
	env := NewEnvironment()
	th := NewThunk("loop", &hir.Var{Name: "loop"}, env)
	env.Set("loop", th)

	rt := newRuntimeForTest()
	_, err := th.Force(rt)
	if err == nil {
		t.Fatal("expected an error forcing a thunk that forces itself")
	}
	if got := err.Error(); got != "recursive definition detected: loop" {
		t.Fatalf("unexpected error: %q", got)
	}
}

func TestRuntime_EvalCallsForceThroughVar(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	env.Set("answer", NewThunk("answer", &hir.Lit{Kind: ast.LitNumber, Value: "7"}, env))

	v, err := rt.Eval(&hir.Var{Name: "answer"}, env)
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if iv, ok := v.(*IntValue); !ok || iv.Value != 7 {
		t.Fatalf("expected IntValue(7), got %v", v)
	}
}
