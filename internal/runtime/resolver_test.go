package runtime

import (
	"testing"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
	"github.com/mendrik/aivi/internal/interp"
	"github.com/mendrik/aivi/internal/resolver"
)

// newTestRuntime builds a ModuleRuntime whose instances map is populated
// directly (bypassing the loader) so link()/resolveConstructors() can be
// exercised against hand-built fixtures.
func newTestRuntime() *ModuleRuntime {
	return &ModuleRuntime{builtins: NewBuiltinRegistry(), instances: make(map[string]*ModuleInstance)}
}

func newTestInstance(identity string, astMod *ast.Module) *ModuleInstance {
	mod := &resolver.Module{Identity: identity, AST: astMod}
	prog := &hir.Program{ModuleName: identity}
	return NewModuleInstance(mod, prog)
}

func TestModuleGlobalResolver_LinkNamedImport(t *testing.T) {
	rt := newTestRuntime()

	dep := newTestInstance("test/dep", &ast.Module{Name: "test/dep"})
	dep.Bindings["foo"] = &interp.IntValue{Value: 1}
	dep.Exports["foo"] = dep.Bindings["foo"]
	rt.instances["test/dep"] = dep

	current := newTestInstance("test/module", &ast.Module{
		Name: "test/module",
		Uses: []*ast.UseDecl{{Target: "test/dep", Items: []ast.UseItem{{Name: "foo"}}}},
	})
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	if err := res.link(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	val, ok := current.Bindings["foo"]
	if !ok {
		t.Fatal("expected 'foo' to be copied into current's bindings")
	}
	if iv, ok := val.(*interp.IntValue); !ok || iv.Value != 1 {
		t.Errorf("expected IntValue(1), got %#v", val)
	}
	if current.Imports["test/dep"] != dep {
		t.Error("expected dep to be recorded in current.Imports")
	}
}

func TestModuleGlobalResolver_LinkWildcardImport(t *testing.T) {
	rt := newTestRuntime()

	dep := newTestInstance("test/dep", &ast.Module{Name: "test/dep"})
	dep.Exports["foo"] = &interp.IntValue{Value: 1}
	dep.Exports["bar"] = &interp.IntValue{Value: 2}
	rt.instances["test/dep"] = dep

	current := newTestInstance("test/module", &ast.Module{
		Name: "test/module",
		Uses: []*ast.UseDecl{{Target: "test/dep", Wildcard: true}},
	})
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	if err := res.link(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(current.Bindings) != 2 {
		t.Errorf("expected 2 bindings copied from wildcard import, got %d", len(current.Bindings))
	}
}

func TestModuleGlobalResolver_LinkTargetNotLoaded(t *testing.T) {
	rt := newTestRuntime()

	current := newTestInstance("test/module", &ast.Module{
		Name: "test/module",
		Uses: []*ast.UseDecl{{Target: "test/missing", Items: []ast.UseItem{{Name: "foo"}}}},
	})
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	if err := res.link(); err == nil {
		t.Error("expected error when import target was never loaded")
	}
}

func TestModuleGlobalResolver_LinkExportNotFound(t *testing.T) {
	rt := newTestRuntime()

	dep := newTestInstance("test/dep", &ast.Module{Name: "test/dep"})
	rt.instances["test/dep"] = dep

	current := newTestInstance("test/module", &ast.Module{
		Name: "test/module",
		Uses: []*ast.UseDecl{{Target: "test/dep", Items: []ast.UseItem{{Name: "undefined"}}}},
	})
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	if err := res.link(); err == nil {
		t.Error("expected error when requested item isn't exported by the dependency")
	}
}

func TestModuleGlobalResolver_LinkEmptyModule(t *testing.T) {
	rt := newTestRuntime()
	current := newTestInstance("test/module", &ast.Module{Name: "test/module"})
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	if err := res.link(); err != nil {
		t.Fatalf("expected no error for a module with no uses, got %v", err)
	}
	if len(current.Bindings) != 0 {
		t.Errorf("expected no bindings, got %d", len(current.Bindings))
	}
}

func TestModuleGlobalResolver_ResolveConstructors_Local(t *testing.T) {
	rt := newTestRuntime()
	current := newTestInstance("test/module", &ast.Module{
		Name: "test/module",
		Items: []ast.ModuleItem{
			&ast.TypeDecl{Name: "Option", Variants: []ast.Constructor{
				{Name: "Some", Fields: []ast.TypeExpr{nil}},
				{Name: "None"},
			}},
		},
	})
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	ctors, err := res.resolveConstructors()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	some, ok := ctors["Some"]
	if !ok {
		t.Fatal("expected 'Some' constructor to be resolved")
	}
	if some.TypeName != "Option" || some.Arity != 1 {
		t.Errorf("expected Option/Some arity 1, got %+v", some)
	}
	none, ok := ctors["None"]
	if !ok || none.Arity != 0 {
		t.Errorf("expected 'None' constructor with arity 0, got %+v", none)
	}
}

func TestModuleGlobalResolver_ResolveConstructors_AcrossImports(t *testing.T) {
	rt := newTestRuntime()

	dep := newTestInstance("test/dep", &ast.Module{
		Name: "test/dep",
		Items: []ast.ModuleItem{
			&ast.TypeDecl{Name: "Shape", Variants: []ast.Constructor{{Name: "Circle", Fields: []ast.TypeExpr{nil}}}},
		},
	})
	rt.instances["test/dep"] = dep

	current := newTestInstance("test/module", &ast.Module{Name: "test/module"})
	current.Imports["test/dep"] = dep
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	ctors, err := res.resolveConstructors()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := ctors["Circle"]; !ok {
		t.Error("expected 'Circle' to be visible from an imported module")
	}
}

func TestModuleGlobalResolver_ResolveConstructors_Ambiguous(t *testing.T) {
	rt := newTestRuntime()

	dep := newTestInstance("test/dep", &ast.Module{
		Name: "test/dep",
		Items: []ast.ModuleItem{
			&ast.TypeDecl{Name: "Shape", Variants: []ast.Constructor{{Name: "Circle"}}},
		},
	})
	rt.instances["test/dep"] = dep

	current := newTestInstance("test/module", &ast.Module{
		Name: "test/module",
		Items: []ast.ModuleItem{
			&ast.TypeDecl{Name: "Other", Variants: []ast.Constructor{{Name: "Circle"}}},
		},
	})
	current.Imports["test/dep"] = dep
	rt.instances["test/module"] = current

	res := newModuleGlobalResolver(current, rt)
	if _, err := res.resolveConstructors(); err == nil {
		t.Error("expected ambiguous-constructor error when two modules in scope declare the same name")
	}
}
