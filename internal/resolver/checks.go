package resolver

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
)

// Check runs every module-graph invariant over an already-loaded set of
// modules and returns the accumulated diagnostics. It never stops at the
// first violation (spec §4.2's "continues past failures" extends to
// resolution).
func Check(mods map[string]*Module) []diag.Diagnostic {
	var out []diag.Diagnostic
	out = append(out, checkDuplicateModules(mods)...)
	for _, mod := range mods {
		out = append(out, checkDuplicateExports(mod)...)
		out = append(out, checkImportsExported(mod, mods)...)
		out = append(out, checkUnusedImports(mod)...)
		out = append(out, checkUnusedBindings(mod)...)
	}
	return out
}

func checkDuplicateModules(mods map[string]*Module) []diag.Diagnostic {
	var out []diag.Diagnostic
	seen := make(map[string]string)
	for _, mod := range mods {
		if mod.AST.Name == "" {
			continue
		}
		if prior, ok := seen[mod.AST.Name]; ok && prior != mod.FilePath {
			out = append(out, diag.Errorf("E2000", mod.AST.NameSpan,
				"module %q declared in both %s and %s", mod.AST.Name, prior, mod.FilePath))
			continue
		}
		seen[mod.AST.Name] = mod.FilePath
	}
	return out
}

func checkDuplicateExports(mod *Module) []diag.Diagnostic {
	var out []diag.Diagnostic
	seen := make(map[string]diag.Span)
	for _, exp := range mod.AST.Exports {
		if prior, ok := seen[exp.Name]; ok {
			out = append(out, diag.Errorf("E2001", exp.Span,
				"%q is exported twice (first at %s)", exp.Name, prior))
			continue
		}
		seen[exp.Name] = exp.Span
	}
	return out
}

func checkImportsExported(mod *Module, mods map[string]*Module) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, u := range mod.AST.Uses {
		if u.Wildcard {
			continue
		}
		target := findModuleByName(mods, u.Target)
		if target == nil {
			continue // already reported as E2002 during load
		}
		exportSet := exportNameSet(target.AST)
		for _, item := range u.Items {
			if !exportSet[item.Name] {
				out = append(out, diag.Errorf("E2003", u.Span(),
					"%q is not exported by module %s", item.Name, u.Target))
			}
		}
	}
	return out
}

func findModuleByName(mods map[string]*Module, name string) *Module {
	for _, m := range mods {
		if m.AST.Name == name {
			return m
		}
	}
	return nil
}

func exportNameSet(mod *ast.Module) map[string]bool {
	set := make(map[string]bool)
	if len(mod.Exports) == 0 {
		// No explicit export list: every top-level item is visible,
		// matching the teacher's "export everything by default" stance
		// for modules with no `export { ... }` header.
		for _, item := range mod.Items {
			if n := itemName(item); n != "" {
				set[n] = true
			}
		}
		return set
	}
	for _, e := range mod.Exports {
		set[e.Name] = true
	}
	return set
}

// checkUnusedImports warns when a named `use` item is never referenced by
// any identifier in the module's defs.
func checkUnusedImports(mod *Module) []diag.Diagnostic {
	var out []diag.Diagnostic
	used := collectIdentNames(mod.AST)
	for _, u := range mod.AST.Uses {
		for _, item := range u.Items {
			if !used[item.Name] {
				out = append(out, diag.Warnf("W2100", u.Span(), "imported name %q is never used", item.Name))
			}
		}
	}
	return out
}

// checkUnusedBindings warns on top-level defs whose name is neither
// exported nor referenced elsewhere in the module — a module-local dead
// binding.
func checkUnusedBindings(mod *Module) []diag.Diagnostic {
	var out []diag.Diagnostic
	exportSet := exportNameSet(mod.AST)
	used := collectIdentNames(mod.AST)
	for _, item := range mod.AST.Items {
		def, ok := item.(*ast.Def)
		if !ok {
			continue
		}
		if exportSet[def.Name] || used[def.Name] {
			continue
		}
		out = append(out, diag.Warnf("W2101", def.NameSpan, "%q is defined but never used", def.Name))
	}
	return out
}

// collectIdentNames walks every def body in the module and records every
// identifier name referenced anywhere, a coarse over-approximation (it
// doesn't distinguish shadowed locals) sufficient for unused-import and
// unused-top-level-binding warnings.
func collectIdentNames(mod *ast.Module) map[string]bool {
	names := make(map[string]bool)
	var walkExpr func(e ast.Expr)
	var walkPattern func(p ast.Pattern)

	walkPattern = func(p ast.Pattern) {
		switch v := p.(type) {
		case *ast.ConstructorPattern:
			names[v.Name] = true
			for _, a := range v.Args {
				walkPattern(a)
			}
		case *ast.TuplePattern:
			for _, e := range v.Elements {
				walkPattern(e)
			}
		case *ast.ListPattern:
			for _, e := range v.Elements {
				walkPattern(e)
			}
			if v.Rest != nil {
				walkPattern(v.Rest)
			}
		case *ast.RecordPattern:
			for _, f := range v.Fields {
				walkPattern(f.Pattern)
			}
		}
	}

	walkExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.Ident:
			names[v.Name] = true
		case *ast.Call:
			walkExpr(v.Func)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.Lambda:
			for _, p := range v.Params {
				walkPattern(p)
			}
			walkExpr(v.Body)
		case *ast.If:
			walkExpr(v.Cond)
			walkExpr(v.Then)
			walkExpr(v.Else)
		case *ast.Match:
			walkExpr(v.Scrutinee)
			for _, c := range v.Cases {
				walkPattern(c.Pattern)
				walkExpr(c.Guard)
				walkExpr(c.Body)
			}
		case *ast.BinaryOp:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.UnaryOp:
			walkExpr(v.Operand)
		case *ast.FieldAccess:
			walkExpr(v.Target)
		case *ast.IndexExpr:
			walkExpr(v.Target)
			walkExpr(v.Index)
		case *ast.ListLit:
			for _, it := range v.Items {
				walkExpr(it.Value)
			}
		case *ast.TupleLit:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *ast.RecordLit:
			walkExpr(v.Spread)
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *ast.PatchLit:
			for _, ent := range v.Entries {
				walkExpr(ent.Updater)
			}
		case *ast.TextInterp:
			for _, part := range v.Parts {
				walkExpr(part.Expr)
			}
		case *ast.Block:
			for _, it := range v.Items {
				if it.Binder != nil {
					walkPattern(it.Binder)
				}
				walkExpr(it.Value)
				walkExpr(it.OrElse)
				for _, c := range it.OrCases {
					walkPattern(c.Pattern)
					walkExpr(c.Body)
				}
			}
		case *ast.Send:
			walkExpr(v.Channel)
			walkExpr(v.Value)
		}
	}

	for _, item := range mod.Items {
		switch v := item.(type) {
		case *ast.Def:
			for _, p := range v.Params {
				walkPattern(p)
			}
			walkExpr(v.Body)
		case *ast.InstanceDecl:
			for _, d := range v.Defs {
				walkExpr(d.Body)
			}
		case *ast.DomainDecl:
			for _, d := range v.Defs {
				walkExpr(d.Body)
			}
		}
	}
	return names
}
