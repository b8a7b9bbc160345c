package interp

import (
	"errors"
	"testing"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

func TestCancel_StopsSubsequentEval(t *testing.T) {
	rt := newRuntimeForTest()
	env := NewEnvironment()
	rt.Cancel()

	_, err := rt.Eval(&hir.Lit{Kind: ast.LitNumber, Value: "1"}, env)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled after Cancel, got %v", err)
	}
}

func TestUncancelable_SuppressesCancellationDuringRegion(t *testing.T) {
	rt := newRuntimeForTest()
	rt.Cancel()

	ran := false
	err := rt.Uncancelable(func() error {
		ran = true
		if rt.cancel.isSet() {
			t.Error("expected cancel flag to read as unset inside an Uncancelable region")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Uncancelable returned error: %v", err)
	}
	if !ran {
		t.Fatal("expected the wrapped function to run")
	}
	if !rt.cancel.isSet() {
		t.Fatal("expected the cancel flag to read as set again after leaving the region")
	}
}

func TestChild_HasIndependentCancelFlag(t *testing.T) {
	rt := newRuntimeForTest()
	child := rt.Child()
	rt.Cancel()

	if child.cancel.isSet() {
		t.Fatal("expected a child Runtime's cancel flag to be independent of its parent")
	}
	child.Cancel()
	if !child.cancel.isSet() {
		t.Fatal("expected Cancel on the child to set its own flag")
	}
}
