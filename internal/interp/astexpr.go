package interp

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

// evalAstExpr evaluates a small subset of the surface grammar directly —
// index and predicate-path expressions are never HIR-lowered (their free
// names depend on which element of a list is currently being tested, a
// decision this tree-walker makes per element rather than once ahead of
// time the way the RustIR codegen path's static classification does).
// An Ident not bound in env resolves against it's record fields instead
// (the implicit predicate parameter); it may be nil when idx is known
// closed (no such fallback needed).
func (rt *Runtime) evalAstExpr(e ast.Expr, env *Environment, it Value) (Value, error) {
	switch v := e.(type) {
	case *ast.Ident:
		if val, ok := env.Get(v.Name); ok {
			return rt.force(val)
		}
		if rec, ok := it.(*RecordValue); ok {
			if fv, ok := rec.Fields[v.Name]; ok {
				return fv, nil
			}
		}
		return nil, fmt.Errorf("unbound name %q in index expression", v.Name)
	case *ast.Literal:
		return rt.evalLit(&hir.Lit{Kind: v.Kind, Value: v.Value, SigilTag: v.SigilTag, SigilBody: v.SigilBody})
	case *ast.BinaryOp:
		l, err := rt.evalAstExpr(v.Left, env, it)
		if err != nil {
			return nil, err
		}
		r, err := rt.evalAstExpr(v.Right, env, it)
		if err != nil {
			return nil, err
		}
		fn, ok := rt.builtins["__binop_"+v.Op]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q in index expression", v.Op)
		}
		return rt.Apply(fn, []Value{l, r})
	case *ast.UnaryOp:
		operand, err := rt.evalAstExpr(v.Operand, env, it)
		if err != nil {
			return nil, err
		}
		fn, ok := rt.builtins["__unary_"+v.Op]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q in index expression", v.Op)
		}
		return rt.Apply(fn, []Value{operand})
	case *ast.FieldAccess:
		base, err := rt.evalAstExpr(v.Target, env, it)
		if err != nil {
			return nil, err
		}
		for _, seg := range v.Path {
			base, err = rt.stepPath(base, seg, env)
			if err != nil {
				return nil, err
			}
		}
		return base, nil
	case *ast.Call:
		fn, err := rt.evalAstExpr(v.Func, env, it)
		if err != nil {
			return nil, err
		}
		args := make([]Value, len(v.Args))
		for i, a := range v.Args {
			args[i], err = rt.evalAstExpr(a, env, it)
			if err != nil {
				return nil, err
			}
		}
		return rt.Apply(fn, args)
	default:
		return nil, fmt.Errorf("unsupported expression in index/predicate position: %T", e)
	}
}
