package interp

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

// evalFieldAccess walks a `.` path: each SegField step descends into a
// record field; each SegIndex/SegAll step descends into a list, using
// evalIndexSelector to decide which elements the (possibly bare-name or
// predicate) index expression selects.
func (rt *Runtime) evalFieldAccess(f *hir.FieldAccess, env *Environment) (Value, error) {
	v, err := rt.Eval(f.Target, env)
	if err != nil {
		return nil, err
	}
	for _, seg := range f.Path {
		v, err = rt.stepPath(v, seg, env)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// evalIndex evaluates a direct `target[expr]` / `target[*]` expression,
// which the surface grammar keeps separate from dotted field-access
// chains even though both ultimately select into a List or Record.
func (rt *Runtime) evalIndex(ix *hir.Index, env *Environment) (Value, error) {
	v, err := rt.Eval(ix.Target, env)
	if err != nil {
		return nil, err
	}
	if ix.All {
		return rt.stepPath(v, ast.PathSegment{Kind: ast.SegAll}, env)
	}
	return rt.stepPathExpr(v, ix.Index, env)
}

func (rt *Runtime) stepPath(v Value, seg ast.PathSegment, env *Environment) (Value, error) {
	switch seg.Kind {
	case ast.SegField:
		rec, ok := v.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("field .%s accessed on non-Record value (got %s)", seg.Name, v.Type())
		}
		fv, ok := rec.Fields[seg.Name]
		if !ok {
			return nil, fmt.Errorf("record has no field %q", seg.Name)
		}
		return fv, nil
	case ast.SegAll:
		lst, ok := v.(*ListValue)
		if !ok {
			return nil, fmt.Errorf("[*] applied to non-List value (got %s)", v.Type())
		}
		return lst, nil
	case ast.SegIndex:
		return rt.stepPathExpr(v, seg.Index, env)
	default:
		return nil, fmt.Errorf("unknown path segment kind %v", seg.Kind)
	}
}

// stepPathExpr implements the three index forms over a raw (never
// HIR-lowered) ast.Expr:
//   - a closed expression with no names unbound by env evaluates once to
//     an Int and selects a single element by position (value index);
//   - a bare identifier not bound in env is a field-boolean test: selects
//     every element whose record field of that name is true;
//   - anything else is a predicate: evaluated once per element, with
//     names unbound by env resolved against that element's own record
//     fields, selecting elements where it evaluates true.
//
// `key`/`value` are never treated as predicate-unbound: they name the
// implicit key/value pair a Map/Set iteration binds, and fall through to
// ordinary env lookup like any other bound name.
func (rt *Runtime) stepPathExpr(v Value, idx ast.Expr, env *Environment) (Value, error) {
	if id, ok := idx.(*ast.Ident); ok {
		if _, bound := env.Get(id.Name); !bound {
			return rt.selectByFieldBool(v, id.Name)
		}
	}
	if closed, val, err := rt.tryClosedIndex(idx, env); closed {
		if err != nil {
			return nil, err
		}
		return rt.selectByValue(v, val)
	}
	return rt.selectByPredicate(v, idx, env)
}

func (rt *Runtime) selectByFieldBool(v Value, field string) (Value, error) {
	lst, ok := v.(*ListValue)
	if !ok {
		return nil, fmt.Errorf("field-boolean index applied to non-List value (got %s)", v.Type())
	}
	var out []Value
	for _, el := range lst.Elements {
		rec, ok := el.(*RecordValue)
		if !ok {
			continue
		}
		if truthy(rec.Fields[field]) {
			out = append(out, el)
		}
	}
	return &ListValue{Elements: out}, nil
}

func (rt *Runtime) selectByValue(v Value, idx Value) (Value, error) {
	lst, ok := v.(*ListValue)
	if !ok {
		return nil, fmt.Errorf("value index applied to non-List value (got %s)", v.Type())
	}
	iv, ok := idx.(*IntValue)
	if !ok {
		return nil, fmt.Errorf("index must be an Int (got %s)", idx.Type())
	}
	i := int(iv.Value)
	if i < 0 || i >= len(lst.Elements) {
		return nil, fmt.Errorf("index %d out of range (len %d)", i, len(lst.Elements))
	}
	return lst.Elements[i], nil
}

func (rt *Runtime) selectByPredicate(v Value, idx ast.Expr, env *Environment) (Value, error) {
	lst, ok := v.(*ListValue)
	if !ok {
		return nil, fmt.Errorf("predicate index applied to non-List value (got %s)", v.Type())
	}
	var out []Value
	for _, el := range lst.Elements {
		rv, err := rt.evalAstExpr(idx, env, el)
		if err != nil {
			return nil, err
		}
		if truthy(rv) {
			out = append(out, el)
		}
	}
	return &ListValue{Elements: out}, nil
}

// tryClosedIndex evaluates idx if it contains no identifier unbound by
// env (a "closed" expression, i.e. a plain value index rather than a
// predicate); closed reports whether that held.
func (rt *Runtime) tryClosedIndex(idx ast.Expr, env *Environment) (closed bool, val Value, err error) {
	if hasUnboundIdent(idx, env) {
		return false, nil, nil
	}
	v, err := rt.evalAstExpr(idx, env, nil)
	return true, v, err
}

func hasUnboundIdent(e ast.Expr, env *Environment) bool {
	switch v := e.(type) {
	case *ast.Ident:
		if v.Name == "key" || v.Name == "value" {
			return false
		}
		_, bound := env.Get(v.Name)
		return !bound
	case *ast.BinaryOp:
		return hasUnboundIdent(v.Left, env) || hasUnboundIdent(v.Right, env)
	case *ast.UnaryOp:
		return hasUnboundIdent(v.Operand, env)
	case *ast.FieldAccess:
		return hasUnboundIdent(v.Target, env)
	case *ast.Call:
		if hasUnboundIdent(v.Func, env) {
			return true
		}
		for _, a := range v.Args {
			if hasUnboundIdent(a, env) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
