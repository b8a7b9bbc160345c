package runtime

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/interp"
)

// moduleGlobalResolver links one module's `use` declarations against its
// already-evaluated dependencies. Linking happens once, at module-load
// time, by copying each imported item's exported value (or, for a
// wildcard use, every export) into the importing module's seed bindings
// before its own defs are evaluated — so a module body never needs a
// live cross-module lookup hook, only its own Environment.
//
// Encapsulation: only Exports are copied across the boundary; a module's
// private bindings never become visible to an importer (spec §4.3: E2003
// "non-exported imported items" — the resolver package already rejects
// this statically, so by the time linking runs every `use` item names a
// real export).
type moduleGlobalResolver struct {
	current *ModuleInstance
	runtime *ModuleRuntime
}

func newModuleGlobalResolver(inst *ModuleInstance, rt *ModuleRuntime) *moduleGlobalResolver {
	return &moduleGlobalResolver{current: inst, runtime: rt}
}

// link copies bindings contributed by `use` declarations into
// r.current's Bindings map, ahead of evaluating r.current's own defs.
func (r *moduleGlobalResolver) link() error {
	for _, u := range r.current.Mod.AST.Uses {
		depIdentity, ok := r.runtime.identityOfTarget(u.Target)
		if !ok {
			return fmt.Errorf("module %s: import %q not loaded", r.current.Identity, u.Target)
		}
		dep, ok := r.runtime.instances[depIdentity]
		if !ok {
			return fmt.Errorf("module %s: import %q not yet evaluated", r.current.Identity, u.Target)
		}
		r.current.Imports[u.Target] = dep

		if u.Wildcard {
			for name, val := range dep.Exports {
				r.current.Bindings[name] = val
			}
			continue
		}
		for _, item := range u.Items {
			val, err := dep.GetExport(item.Name)
			if err != nil {
				return fmt.Errorf("module %s: %w", r.current.Identity, err)
			}
			r.current.Bindings[item.Name] = val
		}
	}
	return nil
}

// resolveConstructors finds every Constructor declared across the
// current module and its direct imports, so `Ctor(args)` expressions
// that aren't locally declared (an imported ADT) can still classify as
// a ConstructorValue template at runtime. Ambiguity (same constructor
// name declared by two modules both in scope) is an error — the
// importer must alias one of the `use` declarations.
func (r *moduleGlobalResolver) resolveConstructors() (map[string]*interp.ConstructorValue, error) {
	found := map[string][]string{} // ctorName -> owning module identities
	ctors := map[string]*interp.ConstructorValue{}

	collect := func(identity string, astMod *ast.Module) {
		for _, item := range astMod.Items {
			td, ok := item.(*ast.TypeDecl)
			if !ok {
				continue
			}
			for _, c := range td.Variants {
				found[c.Name] = append(found[c.Name], identity)
				ctors[c.Name] = &interp.ConstructorValue{TypeName: td.Name, CtorName: c.Name, Arity: len(c.Fields)}
			}
		}
	}

	collect(r.current.Identity, r.current.Mod.AST)
	for _, dep := range r.current.Imports {
		collect(dep.Identity, dep.Mod.AST)
	}

	for name, owners := range found {
		if len(owners) > 1 {
			return nil, fmt.Errorf("ambiguous constructor %s declared by multiple modules in scope: %v (alias one of the imports)", name, owners)
		}
	}
	return ctors, nil
}
