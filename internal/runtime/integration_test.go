package runtime

import (
	"strings"
	"testing"

	"github.com/mendrik/aivi/internal/interp"
)

func TestIntegration_SimpleModule(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	inst, err := rt.LoadAndEvaluate("testdata/simple.aivi")
	if err != nil {
		t.Fatalf("failed to load and evaluate simple module: %v", err)
	}
	if !inst.IsEvaluated() {
		t.Error("expected module to be evaluated")
	}

	mainVal, err := inst.GetExport("main")
	if err != nil {
		t.Fatalf("failed to get main export: %v", err)
	}
	if _, ok := mainVal.(*interp.Thunk); !ok {
		t.Fatalf("expected main to be a lazy Thunk (zero-arg def), got %T", mainVal)
	}
}

func TestIntegration_ModuleWithImport(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	inst, err := rt.LoadAndEvaluate("testdata/with_import.aivi")
	if err != nil {
		t.Fatalf("failed to load and evaluate module with import: %v", err)
	}

	identity := identityForPath("testdata/with_import.aivi")
	depIdentity := identityForPath("testdata/dep.aivi")

	if !rt.HasInstance(identity) {
		t.Error("expected with_import module to be cached")
	}
	if !rt.HasInstance(depIdentity) {
		t.Error("expected dep module to be cached")
	}

	depInst := rt.GetInstance(depIdentity)
	if depInst == nil || !depInst.IsEvaluated() {
		t.Fatal("expected dep module to be evaluated")
	}

	incVal, err := depInst.GetExport("inc")
	if err != nil {
		t.Fatalf("failed to get inc export from dep: %v", err)
	}
	if _, ok := incVal.(*interp.Closure); !ok {
		t.Errorf("expected inc to be a Closure, got %T", incVal)
	}

	mainVal, err := inst.GetExport("main")
	if err != nil {
		t.Fatalf("failed to get main export: %v", err)
	}
	if _, ok := mainVal.(*interp.Thunk); !ok {
		t.Errorf("expected main to be a Thunk, got %T", mainVal)
	}
}

func TestIntegration_CachedModules(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	inst1, err := rt.LoadAndEvaluate("testdata/simple.aivi")
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	inst2, err := rt.LoadAndEvaluate("testdata/simple.aivi")
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if inst1 != inst2 {
		t.Error("expected cached instance to be returned on second load")
	}
}

func TestIntegration_ModuleEvaluationOrder(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	_, err := rt.LoadAndEvaluate("testdata/with_import.aivi")
	if err != nil {
		t.Fatalf("failed to load module: %v", err)
	}

	instances := rt.ListInstances()
	if len(instances) != 2 {
		t.Errorf("expected 2 cached instances, got %d", len(instances))
	}

	depIdentity := identityForPath("testdata/dep.aivi")
	depInst := rt.GetInstance(depIdentity)
	if depInst == nil {
		t.Fatal("expected dep module to be loaded")
	}
	if !depInst.IsEvaluated() {
		t.Error("expected dep module to be evaluated (dependencies evaluate first)")
	}

	mainIdentity := identityForPath("testdata/with_import.aivi")
	mainInst := rt.GetInstance(mainIdentity)
	if mainInst == nil {
		t.Fatal("expected with_import module to be loaded")
	}
	if !mainInst.IsEvaluated() {
		t.Error("expected with_import module to be evaluated")
	}
	if len(mainInst.Imports) != 1 {
		t.Errorf("expected 1 import, got %d", len(mainInst.Imports))
	}
	if mainInst.Imports["dep"] != depInst {
		t.Error("expected import to point to the cached dependency instance")
	}
}

func TestIntegration_CircularImport(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	_, err := rt.LoadAndEvaluate("testdata/cycle_a.aivi")
	if err == nil {
		t.Fatal("expected error loading a module whose imports cycle back to itself")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected error to mention the import cycle, got: %v", err)
	}
}

func TestIntegration_NonExistentModule(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	_, err := rt.LoadAndEvaluate("testdata/does_not_exist.aivi")
	if err == nil {
		t.Error("expected error when loading non-existent module")
	}
	if !strings.Contains(err.Error(), "does_not_exist") {
		t.Errorf("expected error to mention module path, got: %v", err)
	}
}

func TestIntegration_ExportFiltering(t *testing.T) {
	rt := NewModuleRuntime([]string{"testdata"})

	inst, err := rt.LoadAndEvaluate("testdata/simple.aivi")
	if err != nil {
		t.Fatalf("failed to load module: %v", err)
	}

	exports := inst.ListExports()
	if len(exports) != 1 {
		t.Errorf("expected 1 export, got %d", len(exports))
	}
	if exports[0] != "main" {
		t.Errorf("expected export to be 'main', got '%s'", exports[0])
	}

	if _, err := inst.GetExport("notExported"); err == nil {
		t.Error("expected error when getting non-existent export")
	}
}
