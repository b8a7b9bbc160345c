package runtime

import (
	"fmt"
	"sync"

	"github.com/mendrik/aivi/internal/hir"
	"github.com/mendrik/aivi/internal/interp"
	"github.com/mendrik/aivi/internal/resolver"
)

// ModuleInstance represents a runtime module with evaluated bindings
//
// A ModuleInstance is created from a resolver.Module after its AST has
// been desugared to HIR and contains the runtime state of the module,
// including:
//   - All top-level bindings (both exported and private)
//   - Exported bindings only (for cross-module access)
//   - Links to imported module instances
//
// Thread-safety: Initialization is protected by sync.Once to ensure
// each module is evaluated exactly once, even with concurrent access.
type ModuleInstance struct {
	// Identity
	Identity string // Module identity (absolute source path, per resolver.Module)

	// Static Information (from loading/resolving)
	Mod *resolver.Module // Resolver's view: AST, exports, dependency list
	HIR *hir.Program     // Desugared HIR for this module only

	// Runtime State
	Bindings map[string]interp.Value   // All top-level bindings
	Exports  map[string]interp.Value   // Exported bindings only
	Imports  map[string]*ModuleInstance // Imported modules, keyed by use target

	// Evaluation State (thread-safe initialization)
	initOnce sync.Once // Ensures single evaluation
	initErr  error     // Evaluation error (if any)
}

// NewModuleInstance creates a new module instance from a resolved module
// and its desugared HIR.
func NewModuleInstance(mod *resolver.Module, prog *hir.Program) *ModuleInstance {
	return &ModuleInstance{
		Identity: mod.Identity,
		Mod:      mod,
		HIR:      prog,
		Bindings: make(map[string]interp.Value),
		Exports:  make(map[string]interp.Value),
		Imports:  make(map[string]*ModuleInstance),
	}
}

// GetExport retrieves an exported value by name. Only exported bindings
// are reachable from another module (spec §4.3: "non-exported imported
// items" is a resolver error long before runtime sees it, but GetExport
// re-enforces the boundary for tooling that bypasses the resolver, e.g.
// the MCP manifest server).
func (mi *ModuleInstance) GetExport(name string) (interp.Value, error) {
	val, ok := mi.Exports[name]
	if !ok {
		available := mi.ListExports()
		if len(available) == 0 {
			return nil, fmt.Errorf("module %s has no exports", mi.Identity)
		}
		return nil, fmt.Errorf("export %s not found in module %s (available: %v)", name, mi.Identity, available)
	}
	return val, nil
}

func (mi *ModuleInstance) HasExport(name string) bool {
	_, ok := mi.Exports[name]
	return ok
}

// GetBinding retrieves a binding by name (exported or private), used for
// same-module references during evaluation.
func (mi *ModuleInstance) GetBinding(name string) (interp.Value, error) {
	val, ok := mi.Bindings[name]
	if !ok {
		return nil, fmt.Errorf("undefined binding '%s' in module %s", name, mi.Identity)
	}
	return val, nil
}

func (mi *ModuleInstance) ListExports() []string {
	exports := make([]string, 0, len(mi.Exports))
	for name := range mi.Exports {
		exports = append(exports, name)
	}
	return exports
}

func (mi *ModuleInstance) IsEvaluated() bool {
	return len(mi.Bindings) > 0 || mi.initErr != nil
}

func (mi *ModuleInstance) GetEvaluationError() error {
	return mi.initErr
}
