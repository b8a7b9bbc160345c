package runtime

import "testing"

func TestNewModuleRuntime(t *testing.T) {
	rt := NewModuleRuntime([]string{"/test/path"})

	if rt.loader == nil {
		t.Error("expected loader to be initialized")
	}
	if rt.builtins == nil {
		t.Error("expected builtins registry to be initialized")
	}
	if rt.instances == nil {
		t.Error("expected instances map to be initialized")
	}
	if len(rt.instances) != 0 {
		t.Errorf("expected instances map to be empty, got %d entries", len(rt.instances))
	}
}

func TestModuleRuntime_GetInstance(t *testing.T) {
	rt := NewModuleRuntime(nil)

	if inst := rt.GetInstance("test/module"); inst != nil {
		t.Error("expected nil when getting non-existent instance")
	}

	mockInst := &ModuleInstance{Identity: "test/module"}
	rt.instances["test/module"] = mockInst

	inst := rt.GetInstance("test/module")
	if inst == nil {
		t.Fatal("expected instance to be found")
	}
	if inst.Identity != "test/module" {
		t.Errorf("expected identity 'test/module', got %q", inst.Identity)
	}
}

func TestModuleRuntime_HasInstance(t *testing.T) {
	rt := NewModuleRuntime(nil)

	if rt.HasInstance("test/module") {
		t.Error("expected HasInstance to return false for non-existent instance")
	}

	rt.instances["test/module"] = &ModuleInstance{Identity: "test/module"}

	if !rt.HasInstance("test/module") {
		t.Error("expected HasInstance to return true for existing instance")
	}
	if rt.HasInstance("test/other") {
		t.Error("expected HasInstance to return false for a different identity")
	}
}

func TestModuleRuntime_ListInstances(t *testing.T) {
	rt := NewModuleRuntime(nil)

	if instances := rt.ListInstances(); len(instances) != 0 {
		t.Errorf("expected 0 instances, got %d", len(instances))
	}

	rt.instances["test/a"] = &ModuleInstance{Identity: "test/a"}
	rt.instances["test/b"] = &ModuleInstance{Identity: "test/b"}
	rt.instances["test/c"] = &ModuleInstance{Identity: "test/c"}

	instances := rt.ListInstances()
	if len(instances) != 3 {
		t.Errorf("expected 3 instances, got %d", len(instances))
	}

	found := make(map[string]bool, len(instances))
	for _, id := range instances {
		found[id] = true
	}
	if !found["test/a"] || !found["test/b"] || !found["test/c"] {
		t.Errorf("missing instances, got: %v", instances)
	}
}

// Full LoadAndEvaluate tests require actual .aivi files and live in
// integration_test.go. These unit tests cover the instance cache only.
