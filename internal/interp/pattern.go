package interp

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

// evalMatch evaluates a match expression. A nil Scrutinee is the "no
// explicit scrutinee" sugar: such a match is itself a unary function
// whose cases are its arms, so it evaluates to a Closure over a fresh
// parameter (spec: cases become the arms of `\__arg -> match __arg {...}`).
func (rt *Runtime) evalMatch(m *hir.Match, env *Environment) (Value, error) {
	if m.Scrutinee == nil {
		synth := *m
		synth.Scrutinee = &hir.Var{Name: "__arg"}
		return &Closure{Params: []string{"__arg"}, Body: &synth, Env: env}, nil
	}
	scrut, err := rt.Eval(m.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, c := range m.Cases {
		bound, ok := rt.matchPattern(c.Pattern, scrut, env)
		if !ok {
			continue
		}
		if c.Guard != nil {
			gv, err := rt.Eval(c.Guard, bound)
			if err != nil {
				return nil, err
			}
			if !truthy(gv) {
				continue
			}
		}
		return rt.Eval(c.Body, bound)
	}
	return nil, ErrNoMatch
}

// matchPattern tries to match v against pat, returning env extended with
// any bindings the pattern introduces. ok is false (env returned
// unchanged) on any mismatch.
func (rt *Runtime) matchPattern(pat ast.Pattern, v Value, env *Environment) (*Environment, bool) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return env, true

	case *ast.Ident:
		return env.Extend(p.Name, v), true

	case *ast.LiteralPattern:
		lv, err := rt.evalLit(&hir.Lit{Kind: p.Lit.Kind, Value: p.Lit.Value, SigilTag: p.Lit.SigilTag, SigilBody: p.Lit.SigilBody})
		if err != nil {
			return env, false
		}
		if !valuesEqual(lv, v) {
			return env, false
		}
		return env, true

	case *ast.ConstructorPattern:
		cv, ok := v.(*ConstructorValue)
		if !ok || cv.CtorName != p.Name || len(cv.Fields) != len(p.Args) {
			return env, false
		}
		cur := env
		for i, sub := range p.Args {
			var matched bool
			cur, matched = rt.matchPattern(sub, cv.Fields[i], cur)
			if !matched {
				return env, false
			}
		}
		return cur, true

	case *ast.TuplePattern:
		tv, ok := v.(*TupleValue)
		if !ok || len(tv.Elements) != len(p.Elements) {
			return env, false
		}
		cur := env
		for i, sub := range p.Elements {
			var matched bool
			cur, matched = rt.matchPattern(sub, tv.Elements[i], cur)
			if !matched {
				return env, false
			}
		}
		return cur, true

	case *ast.ListPattern:
		lv, ok := v.(*ListValue)
		if !ok {
			return env, false
		}
		if p.Rest == nil {
			if len(lv.Elements) != len(p.Elements) {
				return env, false
			}
		} else if len(lv.Elements) < len(p.Elements) {
			return env, false
		}
		cur := env
		for i, sub := range p.Elements {
			var matched bool
			cur, matched = rt.matchPattern(sub, lv.Elements[i], cur)
			if !matched {
				return env, false
			}
		}
		if p.Rest != nil {
			rest := append([]Value(nil), lv.Elements[len(p.Elements):]...)
			var matched bool
			cur, matched = rt.matchPattern(p.Rest, &ListValue{Elements: rest}, cur)
			if !matched {
				return env, false
			}
		}
		return cur, true

	case *ast.RecordPattern:
		rv, ok := v.(*RecordValue)
		if !ok {
			return env, false
		}
		cur := env
		for _, fp := range p.Fields {
			name := fieldPathName(fp.Path)
			fval, present := rv.Fields[name]
			if !present {
				return env, false
			}
			var matched bool
			cur, matched = rt.matchPattern(fp.Pattern, fval, cur)
			if !matched {
				return env, false
			}
		}
		return cur, true

	default:
		return env, false
	}
}

func fieldPathName(path []ast.PathSegment) string {
	if len(path) == 0 {
		return ""
	}
	return path[0].Name
}
