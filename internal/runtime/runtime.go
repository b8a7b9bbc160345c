package runtime

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mendrik/aivi/internal/hir"
	"github.com/mendrik/aivi/internal/interp"
	"github.com/mendrik/aivi/internal/resolver"
)

// ModuleRuntime loads the full `use` graph for an entry file, desugars
// every module to HIR, links each module's imports against its already-
// evaluated dependencies, and evaluates modules in dependency order, each
// in its own interp.Runtime over one shared global Environment.
//
// Thread-safety: each ModuleInstance is populated exactly once via its
// initOnce guard; ModuleRuntime itself is meant for single-goroutine
// driving from cmd/aivi.
type ModuleRuntime struct {
	loader    *resolver.Loader
	builtins  *BuiltinRegistry
	instances map[string]*ModuleInstance // identity -> instance
	order     []string                   // evaluation order (deps first)
}

// NewModuleRuntime creates a runtime that resolves `use` targets under
// searchPaths (in addition to each importing file's own directory).
func NewModuleRuntime(searchPaths []string) *ModuleRuntime {
	return &ModuleRuntime{
		loader:    resolver.NewLoader(searchPaths),
		builtins:  NewBuiltinRegistry(),
		instances: make(map[string]*ModuleInstance),
	}
}

// LoadAndEvaluate loads entryFile and everything it `use`s, desugars each
// module to HIR, and evaluates them in dependency order. It returns the
// ModuleInstance for entryFile.
func (rt *ModuleRuntime) LoadAndEvaluate(entryFile string) (*ModuleInstance, error) {
	mods, err := rt.loader.LoadFile(entryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", entryFile, err)
	}
	order, err := rt.loader.TopologicalSort(mods)
	if err != nil {
		return nil, fmt.Errorf("failed to order modules: %w", err)
	}
	rt.order = order

	desugarer := hir.NewDesugarer()
	for _, identity := range order {
		if _, ok := rt.instances[identity]; ok {
			continue
		}
		mod := mods[identity]
		prog := desugarer.Desugar(mod.AST)
		inst := NewModuleInstance(mod, prog)
		rt.instances[identity] = inst
	}
	if diags := desugarer.Diagnostics(); len(diags) > 0 {
		return nil, fmt.Errorf("desugaring produced %d diagnostic(s): %v", len(diags), diags[0])
	}

	env := interp.NewEnvironment()
	for _, identity := range order {
		inst := rt.instances[identity]
		inst.initOnce.Do(func() {
			inst.initErr = rt.evaluateModule(inst, env)
		})
		if inst.initErr != nil {
			return inst, inst.initErr
		}
	}

	entryIdentity := identityForPath(entryFile)
	return rt.instances[entryIdentity], nil
}

// identityForPath mirrors resolver.Loader's own identity scheme (absolute,
// slash-separated path) since the loader does not export it.
func identityForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(abs)
}

// evaluateModule links inst's `use` declarations against already-
// evaluated dependencies, then evaluates its own HIR defs into a fresh
// Runtime sharing the program-wide global Environment, populating
// Bindings and, filtered by its export list, Exports.
func (rt *ModuleRuntime) evaluateModule(inst *ModuleInstance, globals *interp.Environment) error {
	res := newModuleGlobalResolver(inst, rt)
	if err := res.link(); err != nil {
		return err
	}
	for name, val := range inst.Bindings {
		globals.Set(name, val)
	}

	ctors, err := res.resolveConstructors()
	if err != nil {
		return err
	}

	ir := interp.NewRuntime(inst.HIR, globals, rt.builtins.Values(), ctors)
	bindings, err := ir.EvaluateDefs()
	if err != nil {
		return fmt.Errorf("failed to evaluate module %s: %w", inst.Identity, err)
	}
	for name, val := range bindings {
		inst.Bindings[name] = val
		globals.Set(name, val)
	}

	for _, exp := range inst.Mod.AST.Exports {
		val, ok := inst.Bindings[exp.Name]
		if !ok {
			return fmt.Errorf("exported binding '%s' not found in module %s bindings", exp.Name, inst.Identity)
		}
		inst.Exports[exp.Name] = val
	}
	return nil
}

// identityOfTarget maps a dotted `use` target to the identity under
// which its file was loaded, mirroring resolver.Loader's own suffix
// match (the loader keys modules by absolute path, not dotted name).
func (rt *ModuleRuntime) identityOfTarget(target string) (string, bool) {
	want := strings.ReplaceAll(target, ".", string(filepath.Separator))
	for id := range rt.instances {
		if strings.HasSuffix(strings.TrimSuffix(id, ".aivi"), want) {
			return id, true
		}
	}
	return "", false
}

func (rt *ModuleRuntime) GetInstance(identity string) *ModuleInstance {
	return rt.instances[identity]
}

func (rt *ModuleRuntime) HasInstance(identity string) bool {
	_, ok := rt.instances[identity]
	return ok
}

func (rt *ModuleRuntime) ListInstances() []string {
	paths := make([]string, 0, len(rt.instances))
	for path := range rt.instances {
		paths = append(paths, path)
	}
	return paths
}
