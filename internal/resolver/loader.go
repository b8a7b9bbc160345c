// Package resolver loads the `use` graph of an aivi program, checking
// module-level invariants: no duplicate module identities, no import
// cycles, every `use` item is actually exported by its target, and
// (as warnings) unused imports/bindings (spec §3.2, §4.3).
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/parser"
)

// Module is one loaded compilation unit plus the bookkeeping the resolver
// needs: its export set, keyed by name, and the identities it depends on.
type Module struct {
	Identity     string
	FilePath     string
	AST          *ast.Module
	Dependencies []string
	Exports      map[string]ast.ModuleItem
}

// Loader resolves `use` targets to files, parses them, and tracks the
// in-progress load chain so cycles are caught rather than recursing
// forever.
type Loader struct {
	mu          sync.RWMutex
	cache       map[string]*Module
	searchPaths []string
	loadStack   []string
	diags       []diag.Diagnostic
}

func NewLoader(searchPaths []string) *Loader {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}
	return &Loader{cache: make(map[string]*Module), searchPaths: searchPaths}
}

func (l *Loader) Diagnostics() []diag.Diagnostic { return l.diags }

// LoadFile parses filePath as the entry module and recursively loads every
// module it `use`s, returning the full set keyed by identity.
func (l *Loader) LoadFile(filePath string) (map[string]*Module, error) {
	mod, err := l.loadPath(filePath)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Module)
	l.mu.RLock()
	for k, v := range l.cache {
		out[k] = v
	}
	l.mu.RUnlock()
	out[mod.Identity] = mod
	return out, nil
}

func (l *Loader) loadPath(filePath string) (*Module, error) {
	identity := l.identityFor(filePath)

	if err := l.checkCycle(identity); err != nil {
		return nil, err
	}
	if cached := l.getCached(identity); cached != nil {
		return cached, nil
	}
	l.pushStack(identity)
	defer l.popStack()

	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("module not found: %s (%w)", filePath, err)
	}
	p := parser.New(string(src), filePath)
	astMod := p.ParseModule()
	l.diags = append(l.diags, p.Diagnostics()...)

	mod := &Module{
		Identity: identity,
		FilePath: filePath,
		AST:      astMod,
		Exports:  exportsOf(astMod),
	}
	for _, u := range astMod.Uses {
		mod.Dependencies = append(mod.Dependencies, u.Target)
	}
	l.cacheModule(mod)

	for _, u := range astMod.Uses {
		depPath, err := l.resolveImport(u.Target, filePath)
		if err != nil {
			l.diags = append(l.diags, diag.Errorf(diagResUnknownImport(), u.Span(), "cannot resolve import %q: %v", u.Target, err))
			continue
		}
		if _, err := l.loadPath(depPath); err != nil {
			return nil, err
		}
	}
	return mod, nil
}

func diagResUnknownImport() string { return "E2002" }

func exportsOf(mod *ast.Module) map[string]ast.ModuleItem {
	names := exportNameSet(mod)
	out := make(map[string]ast.ModuleItem)
	for _, item := range mod.Items {
		if n := itemName(item); names[n] {
			out[n] = item
		}
	}
	return out
}

func itemName(item ast.ModuleItem) string {
	switch v := item.(type) {
	case *ast.Def:
		return v.Name
	case *ast.TypeDecl:
		return v.Name
	case *ast.TypeAlias:
		return v.Name
	case *ast.ClassDecl:
		return v.Name
	case *ast.DomainDecl:
		return v.Name
	case *ast.TypeSig:
		return v.Name
	default:
		return ""
	}
}

func (l *Loader) getCached(identity string) *Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[identity]
}

func (l *Loader) cacheModule(mod *Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[mod.Identity] = mod
}

func (l *Loader) checkCycle(identity string) error {
	for i, id := range l.loadStack {
		if id == identity {
			cycle := append(append([]string{}, l.loadStack[i:]...), identity)
			return fmt.Errorf("import cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	return nil
}

func (l *Loader) pushStack(identity string) { l.loadStack = append(l.loadStack, identity) }
func (l *Loader) popStack()                 { l.loadStack = l.loadStack[:len(l.loadStack)-1] }

func (l *Loader) identityFor(filePath string) string {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return filePath
	}
	return filepath.ToSlash(abs)
}

// resolveImport maps a dotted `use` target (e.g. "data.tree") to a file
// path, first relative to currentFile's directory, then across search
// paths, appending the ".aivi" extension.
func (l *Loader) resolveImport(target, currentFile string) (string, error) {
	rel := strings.ReplaceAll(target, ".", string(filepath.Separator)) + ".aivi"

	candidates := []string{filepath.Join(filepath.Dir(currentFile), rel)}
	for _, sp := range l.searchPaths {
		candidates = append(candidates, filepath.Join(sp, rel))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no file matches %q under %v", rel, l.searchPaths)
}

// TopologicalSort returns module identities ordered so each module appears
// after its dependencies. The graph is already cycle-checked during
// loading; a dependency that matches no loaded module is skipped, so the
// returned error is always nil.
func (l *Loader) TopologicalSort(mods map[string]*Module) ([]string, error) {
	visited := make(map[string]bool)
	var order []string
	var visit func(id string) error
	visit = func(id string) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		mod, ok := mods[id]
		if !ok {
			return nil
		}
		for _, dep := range mod.Dependencies {
			depID := l.identityOfTarget(mods, dep)
			if depID == "" {
				continue
			}
			if err := visit(depID); err != nil {
				return err
			}
		}
		order = append(order, id)
		return nil
	}
	for id := range mods {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (l *Loader) identityOfTarget(mods map[string]*Module, target string) string {
	for id, m := range mods {
		if strings.HasSuffix(strings.TrimSuffix(id, ".aivi"), strings.ReplaceAll(target, ".", string(filepath.Separator))) {
			return id
		}
	}
	return ""
}
