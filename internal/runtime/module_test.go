package runtime

import (
	"errors"
	"testing"

	"github.com/mendrik/aivi/internal/hir"
	"github.com/mendrik/aivi/internal/interp"
	"github.com/mendrik/aivi/internal/resolver"
)

var errTest = errors.New("test error")

func TestNewModuleInstance(t *testing.T) {
	mod := &resolver.Module{Identity: "test/module", Dependencies: []string{"test/dep"}}
	prog := &hir.Program{ModuleName: "test/module"}

	inst := NewModuleInstance(mod, prog)

	if inst.Identity != "test/module" {
		t.Errorf("expected identity 'test/module', got %q", inst.Identity)
	}
	if inst.Mod == nil {
		t.Error("expected Mod to be set")
	}
	if inst.HIR == nil {
		t.Error("expected HIR to be set")
	}
	if inst.Bindings == nil || inst.Exports == nil || inst.Imports == nil {
		t.Error("expected Bindings/Exports/Imports maps to be initialized")
	}
	if len(inst.Bindings) != 0 || len(inst.Exports) != 0 || len(inst.Imports) != 0 {
		t.Error("expected all maps to start empty")
	}
}

func TestModuleInstance_GetExport(t *testing.T) {
	inst := &ModuleInstance{Identity: "test/module", Exports: make(map[string]interp.Value)}

	if _, err := inst.GetExport("main"); err == nil {
		t.Error("expected error getting non-existent export")
	}

	inst.Exports["foo"] = &interp.IntValue{Value: 42}
	inst.Exports["bar"] = &interp.IntValue{Value: 100}

	if _, err := inst.GetExport("main"); err == nil {
		t.Error("expected error getting non-existent export when others exist")
	}

	val, err := inst.GetExport("foo")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	iv, ok := val.(*interp.IntValue)
	if !ok || iv.Value != 42 {
		t.Errorf("expected IntValue(42), got %#v", val)
	}
}

func TestModuleInstance_HasExport(t *testing.T) {
	inst := &ModuleInstance{Identity: "test/module", Exports: make(map[string]interp.Value)}

	if inst.HasExport("main") {
		t.Error("expected HasExport false for non-existent export")
	}
	inst.Exports["main"] = &interp.IntValue{Value: 42}
	if !inst.HasExport("main") {
		t.Error("expected HasExport true for existing export")
	}
	if inst.HasExport("foo") {
		t.Error("expected HasExport false for a different name")
	}
}

func TestModuleInstance_GetBinding(t *testing.T) {
	inst := &ModuleInstance{
		Identity: "test/module",
		Bindings: make(map[string]interp.Value),
		Exports:  make(map[string]interp.Value),
	}

	if _, err := inst.GetBinding("foo"); err == nil {
		t.Error("expected error getting non-existent binding")
	}

	inst.Bindings["helper"] = &interp.IntValue{Value: 10}
	inst.Bindings["main"] = &interp.IntValue{Value: 42}
	inst.Exports["main"] = inst.Bindings["main"]

	val, err := inst.GetBinding("helper")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if iv, ok := val.(*interp.IntValue); !ok || iv.Value != 10 {
		t.Errorf("expected IntValue(10), got %#v", val)
	}

	val, err = inst.GetBinding("main")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if iv, ok := val.(*interp.IntValue); !ok || iv.Value != 42 {
		t.Errorf("expected IntValue(42), got %#v", val)
	}
}

func TestModuleInstance_ListExports(t *testing.T) {
	inst := &ModuleInstance{Identity: "test/module", Exports: make(map[string]interp.Value)}

	if exports := inst.ListExports(); len(exports) != 0 {
		t.Errorf("expected 0 exports, got %d", len(exports))
	}

	inst.Exports["foo"] = &interp.IntValue{Value: 1}
	inst.Exports["bar"] = &interp.IntValue{Value: 2}
	inst.Exports["baz"] = &interp.IntValue{Value: 3}

	exports := inst.ListExports()
	if len(exports) != 3 {
		t.Errorf("expected 3 exports, got %d", len(exports))
	}
	found := make(map[string]bool, len(exports))
	for _, name := range exports {
		found[name] = true
	}
	if !found["foo"] || !found["bar"] || !found["baz"] {
		t.Errorf("missing exports, got %v", exports)
	}
}

func TestModuleInstance_IsEvaluated(t *testing.T) {
	inst := &ModuleInstance{Identity: "test/module", Bindings: make(map[string]interp.Value)}

	if inst.IsEvaluated() {
		t.Error("expected IsEvaluated false initially")
	}
	inst.Bindings["foo"] = &interp.IntValue{Value: 42}
	if !inst.IsEvaluated() {
		t.Error("expected IsEvaluated true after adding bindings")
	}
}

func TestModuleInstance_GetEvaluationError(t *testing.T) {
	inst := &ModuleInstance{Identity: "test/module", Bindings: make(map[string]interp.Value)}

	if inst.GetEvaluationError() != nil {
		t.Error("expected no evaluation error initially")
	}
	inst.initErr = errTest
	if inst.GetEvaluationError() == nil {
		t.Error("expected evaluation error to be returned")
	}
}
