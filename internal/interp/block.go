package interp

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

func (rt *Runtime) evalBlock(b *hir.Block, env *Environment) (Value, error) {
	switch b.Kind {
	case ast.BlockPlain:
		return rt.evalPlainBlock(b, env)
	case ast.BlockGenerate:
		return rt.evalGenerateBlock(b, env)
	case ast.BlockEffect, ast.BlockResource:
		blk, cur := b, env
		return &EffectValue{Run: func(rt *Runtime) (Value, error) { return rt.runEffectBlock(blk, cur) }}, nil
	default:
		return nil, fmt.Errorf("unknown block kind %v", b.Kind)
	}
}

// evalPlainBlock sequences let/bind/filter/expr items with no effect
// semantics: a failed bind or filter degrades to ErrNoMatch (or, if the
// binder carries an `or` clause, its fallback body) rather than
// performing any deferred side effect.
func (rt *Runtime) evalPlainBlock(b *hir.Block, env *Environment) (Value, error) {
	cur := env
	var last Value = &UnitValue{}
	for _, item := range b.Items {
		switch item.Kind {
		case hir.ILet, hir.IBind:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			next, ok := rt.matchPattern(item.Binder, v, cur)
			if !ok {
				if item.OrElse != nil {
					return rt.Eval(item.OrElse, cur)
				}
				return nil, ErrNoMatch
			}
			cur = next
		case hir.IFilter:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				return nil, ErrNoMatch
			}
		case hir.IExpr:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			last = v
		case hir.IYield, hir.IRecurse:
			return nil, fmt.Errorf("yield/recurse are only valid inside a generate block")
		}
	}
	return last, nil
}

// runEffectBlock performs the deferred side effects of an effect or
// resource block: binds whose value is an Effect are run immediately;
// binds whose value is a Resource are auto-acquired, with release
// scheduled LIFO and run inside an uncancelable region regardless of how
// the block finished (spec §4.8.6/§4.8.7). Every non-final statement
// expression must evaluate to Unit.
func (rt *Runtime) runEffectBlock(b *hir.Block, env *Environment) (Value, error) {
	cur := env
	type acquired struct {
		res *ResourceValue
		val Value
	}
	var held []acquired
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			a := held[i]
			_ = rt.Uncancelable(func() error { return a.res.Release(rt, a.val) })
		}
	}()

	var last Value = &UnitValue{}
	for i, item := range b.Items {
		if err := rt.checkCancel(); err != nil {
			return nil, err
		}
		switch item.Kind {
		case hir.ILet, hir.IBind:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			if item.Kind == hir.IBind {
				switch ev := v.(type) {
				case *EffectValue:
					v, err = ev.Run(rt)
					if err != nil {
						return nil, err
					}
				case *ResourceValue:
					acq, err := ev.Acquire(rt)
					if err != nil {
						return nil, err
					}
					held = append(held, acquired{res: ev, val: acq})
					v = acq
				}
			}
			next, ok := rt.matchPattern(item.Binder, v, cur)
			if !ok {
				if item.OrElse != nil {
					return rt.Eval(item.OrElse, cur)
				}
				return nil, ErrNoMatch
			}
			cur = next
		case hir.IFilter:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				return nil, ErrNoMatch
			}
		case hir.IExpr:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			if i != len(b.Items)-1 {
				if _, isUnit := v.(*UnitValue); !isUnit {
					return nil, fmt.Errorf("non-final statement in effect block must evaluate to Unit (got %s)", v.Type())
				}
			}
			last = v
		case hir.IYield, hir.IRecurse:
			return nil, fmt.Errorf("yield/recurse are only valid inside a generate block")
		}
	}
	return last, nil
}

// evalGenerateBlock interprets a generate block as an eager loop-recur
// state machine rather than reusing the Church-encoded __gen_* combinators
// the Kernel/RustIR codegen path lowers to (those exist only to give the
// native-codegen pipeline a symbolic representation; this tree-walker has
// no need for lambda-calculus encodings of control flow it can just
// execute directly). Reaching IRecurse jumps back to the block's first
// item with the rebound state; reaching the end, or a failed bind/filter
// with no `or` fallback, finishes the fold and yields the accumulated List.
func (rt *Runtime) evalGenerateBlock(b *hir.Block, env *Environment) (Value, error) {
	const maxIterations = 1 << 20
	var result []Value
	cur := env
	i := 0
	for steps := 0; ; steps++ {
		if steps > maxIterations {
			return nil, fmt.Errorf("generate block exceeded %d iterations without terminating", maxIterations)
		}
		if i >= len(b.Items) {
			return &ListValue{Elements: result}, nil
		}
		item := b.Items[i]
		switch item.Kind {
		case hir.ILet, hir.IBind:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			if item.Kind == hir.IBind {
				if eff, ok := v.(*EffectValue); ok {
					if v, err = eff.Run(rt); err != nil {
						return nil, err
					}
				}
			}
			next, ok := rt.matchPattern(item.Binder, v, cur)
			if !ok {
				if item.OrElse != nil {
					if _, err := rt.Eval(item.OrElse, cur); err != nil {
						return nil, err
					}
				}
				return &ListValue{Elements: result}, nil
			}
			cur = next
		case hir.IFilter:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				return &ListValue{Elements: result}, nil
			}
		case hir.IYield:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			result = append(result, v)
		case hir.IRecurse:
			v, err := rt.Eval(item.Value, cur)
			if err != nil {
				return nil, err
			}
			next, ok := rt.matchPattern(item.Binder, v, cur)
			if !ok {
				return nil, ErrNoMatch
			}
			cur = next
			i = -1
		case hir.IExpr:
			if _, err := rt.Eval(item.Value, cur); err != nil {
				return nil, err
			}
		}
		i++
	}
}
