package mcpmanifest

import "github.com/mendrik/aivi/internal/ast"

// isEffectful determines effectfulness by return type when a signature
// is given, else by a syntactic walk over the def body marking any
// effect/resource/generate block or effectful call site (spec §6.3).
func isEffectful(sig *ast.TypeSig, def *ast.Def) bool {
	if sig != nil {
		return typeIsEffectfulReturn(sig.Type)
	}
	if def == nil {
		return false
	}
	return exprIsEffectful(def.Body)
}

func typeIsEffectfulReturn(t ast.TypeExpr) bool {
	for {
		fn, ok := t.(*ast.FuncTypeExpr)
		if !ok {
			break
		}
		t = fn.Result
	}
	tn, ok := t.(*ast.TypeName)
	if !ok {
		return false
	}
	return tn.Name == "Effect" || tn.Name == "Resource"
}

func exprIsEffectful(e ast.Expr) bool {
	if e == nil {
		return false
	}
	switch v := e.(type) {
	case *ast.Block:
		if v.Kind == ast.BlockEffect || v.Kind == ast.BlockResource || v.Kind == ast.BlockGenerate {
			return true
		}
		for _, item := range v.Items {
			if exprIsEffectful(item.Value) {
				return true
			}
		}
		return false
	case *ast.TextInterp:
		for _, part := range v.Parts {
			if part.Expr != nil && exprIsEffectful(part.Expr) {
				return true
			}
		}
		return false
	case *ast.Call:
		if exprIsEffectful(v.Func) {
			return true
		}
		for _, a := range v.Args {
			if exprIsEffectful(a) {
				return true
			}
		}
		return false
	case *ast.Lambda:
		return exprIsEffectful(v.Body)
	case *ast.Match:
		if exprIsEffectful(v.Scrutinee) {
			return true
		}
		for _, c := range v.Cases {
			if exprIsEffectful(c.Guard) || exprIsEffectful(c.Body) {
				return true
			}
		}
		return false
	case *ast.If:
		return exprIsEffectful(v.Cond) || exprIsEffectful(v.Then) || exprIsEffectful(v.Else)
	case *ast.BinaryOp:
		return exprIsEffectful(v.Left) || exprIsEffectful(v.Right)
	case *ast.UnaryOp:
		return exprIsEffectful(v.Operand)
	case *ast.ListLit:
		for _, it := range v.Items {
			if exprIsEffectful(it.Value) {
				return true
			}
		}
		return false
	case *ast.TupleLit:
		for _, el := range v.Elements {
			if exprIsEffectful(el) {
				return true
			}
		}
		return false
	case *ast.RecordLit:
		for _, f := range v.Fields {
			if exprIsEffectful(f.Value) {
				return true
			}
		}
		return exprIsEffectful(v.Spread)
	case *ast.PatchLit:
		for _, f := range v.Entries {
			if exprIsEffectful(f.Updater) {
				return true
			}
		}
		return false
	case *ast.FieldAccess:
		return exprIsEffectful(v.Target)
	case *ast.IndexExpr:
		return exprIsEffectful(v.Target) || exprIsEffectful(v.Index)
	default:
		return false
	}
}
