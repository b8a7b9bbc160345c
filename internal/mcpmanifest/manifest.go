// Package mcpmanifest derives the MCP tool/resource manifest from a set
// of parsed modules (spec §6.3): a decorator scan over `@mcp_tool` and
// `@mcp_resource` definitions, curried-signature-to-JSON-Schema
// flattening, and row-operator rewriting ahead of schema emission. The
// JSON-RPC transport itself is an external collaborator (spec §1).
package mcpmanifest

import (
	"sort"

	"github.com/mendrik/aivi/internal/ast"
)

// Tool is one `@mcp_tool`-decorated binding.
type Tool struct {
	Name        string // qualified Module.binding
	Module      string
	Binding     string
	InputSchema map[string]any
	Effectful   bool
}

// Resource is one `@mcp_resource`-decorated binding.
type Resource struct {
	Name    string
	Module  string
	Binding string
}

// Manifest is the full derived tool/resource listing for a program.
type Manifest struct {
	Tools     []Tool
	Resources []Resource
}

// Policy gates which tools `tools/list` surfaces. DeniedTools is keyed by
// the tool's qualified Module.binding name, for operators who want to
// block specific bindings rather than gate all effectful tools at once;
// see LoadPolicy for the on-disk (TOML) form.
type Policy struct {
	AllowEffectfulTools bool
	DeniedTools         map[string]bool
}

// VisibleTools returns the tools policy permits in `tools/list`: every
// tool unless it's effectful and the policy hasn't opted in, or it's
// named explicitly in DeniedTools.
func (m *Manifest) VisibleTools(p Policy) []Tool {
	out := make([]Tool, 0, len(m.Tools))
	for _, t := range m.Tools {
		if t.Effectful && !p.AllowEffectfulTools {
			continue
		}
		if p.DeniedTools[t.Name] {
			continue
		}
		out = append(out, t)
	}
	return out
}

const (
	decoratorTool     = "mcp_tool"
	decoratorResource = "mcp_resource"
)

func hasDecorator(decs []ast.Decorator, name string) bool {
	for _, d := range decs {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Collect walks modules (keyed by their module name) and builds the
// manifest, matching each decorated Def against a standalone TypeSig of
// the same name for its schema when one is present.
func Collect(modules map[string]*ast.Module) *Manifest {
	m := &Manifest{}
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, modName := range names {
		mod := modules[modName]
		sigs := map[string]*ast.TypeSig{}
		for _, item := range mod.Items {
			if sig, ok := item.(*ast.TypeSig); ok {
				sigs[sig.Name] = sig
			}
		}
		for _, item := range mod.Items {
			def, ok := item.(*ast.Def)
			if !ok {
				continue
			}
			sig := sigs[def.Name]
			switch {
			case hasDecorator(def.Decorators, decoratorTool):
				m.Tools = append(m.Tools, Tool{
					Name:        modName + "." + def.Name,
					Module:      modName,
					Binding:     def.Name,
					InputSchema: toolInputSchema(sig, def),
					Effectful:   isEffectful(sig, def),
				})
			case hasDecorator(def.Decorators, decoratorResource):
				m.Resources = append(m.Resources, Resource{
					Name:    modName + "." + def.Name,
					Module:  modName,
					Binding: def.Name,
				})
			}
		}
	}
	return m
}
