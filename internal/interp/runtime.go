package interp

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

// ErrNoMatch signals that a Match (or a MultiClause clause standing in
// for one) found no applicable case; callers that dispatch over several
// alternatives (MultiClause application) catch it and try the next one
// rather than treating it as a hard failure (spec §4.8.1/§4.8.3).
var ErrNoMatch = errors.New("no clause matched")

// Runtime tree-walks one module's HIR against a program-wide global
// Environment shared by every loaded module (internal/runtime builds one
// Runtime per module, all pointed at the same Environment, so forward
// and cross-module references resolve through ordinary name lookup).
type Runtime struct {
	prog     *hir.Program
	Globals  *Environment
	builtins map[string]Value
	ctors    map[string]*ConstructorValue
	cancel   *cancelFlag
}

func NewRuntime(prog *hir.Program, globals *Environment, builtins map[string]Value, ctors map[string]*ConstructorValue) *Runtime {
	return &Runtime{prog: prog, Globals: globals, builtins: builtins, ctors: ctors, cancel: &cancelFlag{}}
}

// EvaluateDefs registers prog's top-level defs into Globals: a lone
// non-function def becomes a lazy Thunk (spec §4.8.2); one or more
// function defs sharing a name become a MultiClause (spec §4.8.1). It
// returns just the bindings this module itself contributed.
func (rt *Runtime) EvaluateDefs() (map[string]Value, error) {
	var order []string
	groups := map[string][]*hir.Def{}
	for _, d := range rt.prog.Defs {
		if _, seen := groups[d.Name]; !seen {
			order = append(order, d.Name)
		}
		groups[d.Name] = append(groups[d.Name], d)
	}

	bindings := make(map[string]Value, len(order))
	for _, name := range order {
		defs := groups[name]
		var val Value
		if len(defs) == 1 {
			if lam, ok := defs[0].Body.(*hir.Lambda); ok {
				val = &Closure{Params: lam.Params, Body: lam.Body, Env: rt.Globals}
			} else {
				val = NewThunk(name, defs[0].Body, rt.Globals)
			}
		} else {
			clauses := make([]Value, len(defs))
			for i, d := range defs {
				lam, ok := d.Body.(*hir.Lambda)
				if !ok {
					return nil, fmt.Errorf("def %s: multiple clauses require function bodies", name)
				}
				clauses[i] = &Closure{Params: lam.Params, Body: lam.Body, Env: rt.Globals}
			}
			val = &MultiClause{Name: name, Clauses: clauses}
		}
		bindings[name] = val
		rt.Globals.Set(name, val)
	}
	return bindings, nil
}

// Main forces "main" and, if it evaluates to an Effect, runs it.
func (rt *Runtime) Main() (Value, error) {
	v, ok := rt.Globals.Get("main")
	if !ok {
		return nil, fmt.Errorf("no main def in module %s", rt.prog.ModuleName)
	}
	v, err := rt.force(v)
	if err != nil {
		return nil, err
	}
	if eff, ok := v.(*EffectValue); ok {
		return eff.Run(rt)
	}
	return v, nil
}

func (rt *Runtime) force(v Value) (Value, error) {
	if th, ok := v.(*Thunk); ok {
		return th.Force(rt)
	}
	return v, nil
}

// Eval evaluates a HIR expression against env.
func (rt *Runtime) Eval(e hir.Expr, env *Environment) (Value, error) {
	if err := rt.checkCancel(); err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *hir.Var:
		return rt.evalVar(v.Name, env)
	case *hir.Lit:
		return rt.evalLit(v)
	case *hir.Lambda:
		return &Closure{Params: v.Params, Body: v.Body, Env: env}, nil
	case *hir.Call:
		return rt.evalCall(v, env)
	case *hir.If:
		return rt.evalIf(v, env)
	case *hir.Match:
		return rt.evalMatch(v, env)
	case *hir.Record:
		return rt.evalRecord(v, env)
	case *hir.Patch:
		entries := make([]PatchEntryValue, len(v.Entries))
		for i, ent := range v.Entries {
			entries[i] = PatchEntryValue{Path: ent.Path, Updater: ent.Updater, Env: env}
		}
		return &PatchValue{Entries: entries}, nil
	case *hir.FieldAccess:
		return rt.evalFieldAccess(v, env)
	case *hir.Index:
		return rt.evalIndex(v, env)
	case *hir.Tuple:
		elems := make([]Value, len(v.Elements))
		for i, el := range v.Elements {
			val, err := rt.Eval(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = val
		}
		return &TupleValue{Elements: elems}, nil
	case *hir.List:
		return rt.evalList(v, env)
	case *hir.Block:
		return rt.evalBlock(v, env)
	case *hir.Send:
		return rt.evalSend(v, env)
	case *hir.Raw:
		return nil, fmt.Errorf("cannot evaluate unrecovered construct: %s", v.Text)
	default:
		return nil, fmt.Errorf("interp: unhandled HIR node %T", e)
	}
}

func (rt *Runtime) evalVar(name string, env *Environment) (Value, error) {
	if v, ok := env.Get(name); ok {
		return rt.force(v)
	}
	if v, ok := rt.builtins[name]; ok {
		return v, nil
	}
	if c, ok := rt.ctors[name]; ok {
		if c.Arity == 0 {
			return c, nil
		}
		return &ConstructorValue{TypeName: c.TypeName, CtorName: c.CtorName, Arity: c.Arity}, nil
	}
	return nil, fmt.Errorf("undefined name: %s", name)
}

func (rt *Runtime) evalLit(l *hir.Lit) (Value, error) {
	switch l.Kind {
	case ast.LitNumber:
		if n, err := strconv.ParseInt(l.Value, 10, 64); err == nil {
			return &IntValue{Value: n}, nil
		}
		f, err := strconv.ParseFloat(l.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed numeric literal %q: %w", l.Value, err)
		}
		return &FloatValue{Value: f}, nil
	case ast.LitString:
		return &StringValue{Value: l.Value}, nil
	case ast.LitBool:
		return &BoolValue{Value: l.Value == "true"}, nil
	case ast.LitDateTime:
		return &DateTimeValue{Value: l.Value}, nil
	case ast.LitSigil:
		return &ConstructorValue{TypeName: l.SigilTag, CtorName: "__sigil_" + l.SigilTag, Arity: 1, Fields: []Value{&StringValue{Value: l.SigilBody}}}, nil
	default:
		return nil, fmt.Errorf("unknown literal kind %v", l.Kind)
	}
}

func (rt *Runtime) evalCall(c *hir.Call, env *Environment) (Value, error) {
	fn, err := rt.Eval(c.Func, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		val, err := rt.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return rt.Apply(fn, args)
}

func (rt *Runtime) evalIf(i *hir.If, env *Environment) (Value, error) {
	cv, err := rt.Eval(i.Cond, env)
	if err != nil {
		return nil, err
	}
	b, ok := cv.(*BoolValue)
	if !ok {
		return nil, fmt.Errorf("if condition is not a Bool (got %s)", cv.Type())
	}
	if b.Value {
		return rt.Eval(i.Then, env)
	}
	return rt.Eval(i.Else, env)
}

// Apply applies fn to args. A MultiClause is resolved against the full
// argument list at once (each clause tried in declaration order, the
// first to not raise ErrNoMatch wins) rather than per-argument, since
// committing to a clause on the first of several curried arguments would
// make later fallback impossible — this assumes multi-clause functions
// are invoked fully applied at a single Call site, which is how the
// desugarer emits ordinary function application.
func (rt *Runtime) Apply(fn Value, args []Value) (Value, error) {
	if mc, ok := fn.(*MultiClause); ok {
		var lastErr error = ErrNoMatch
		for _, c := range mc.Clauses {
			v, err := rt.Apply(c, args)
			if err == nil {
				return v, nil
			}
			if errors.Is(err, ErrNoMatch) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return nil, lastErr
	}
	for _, a := range args {
		v, err := rt.applyOne(fn, a)
		if err != nil {
			return nil, err
		}
		fn = v
	}
	return fn, nil
}

func (rt *Runtime) applyOne(fn Value, arg Value) (Value, error) {
	switch f := fn.(type) {
	case *Closure:
		if len(f.Params) == 0 {
			return nil, fmt.Errorf("function takes no more arguments")
		}
		childEnv := f.Env.Extend(f.Params[0], arg)
		if len(f.Params) == 1 {
			return rt.Eval(f.Body, childEnv)
		}
		return &Closure{Params: f.Params[1:], Body: f.Body, Env: childEnv}, nil
	case *Builtin:
		next := f.partial(arg)
		if len(next.args) >= next.Arity {
			return next.Fn(rt, next.args)
		}
		return next, nil
	case *ConstructorValue:
		next := f.apply(arg)
		return next, nil
	default:
		return nil, fmt.Errorf("value of type %s is not callable", fn.Type())
	}
}

func (rt *Runtime) evalRecord(r *hir.Record, env *Environment) (Value, error) {
	var rec *RecordValue
	if r.Spread != nil {
		sv, err := rt.Eval(r.Spread, env)
		if err != nil {
			return nil, err
		}
		base, ok := sv.(*RecordValue)
		if !ok {
			return nil, fmt.Errorf("record spread target is not a Record (got %s)", sv.Type())
		}
		rec = base.Clone()
	} else {
		rec = NewRecord()
	}
	for _, f := range r.Fields {
		v, err := rt.Eval(f.Value, env)
		if err != nil {
			return nil, err
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}

func (rt *Runtime) evalList(l *hir.List, env *Environment) (Value, error) {
	var elems []Value
	for _, it := range l.Items {
		v, err := rt.Eval(it.Value, env)
		if err != nil {
			return nil, err
		}
		if it.Spread {
			lv, ok := v.(*ListValue)
			if !ok {
				return nil, fmt.Errorf("list spread target is not a List (got %s)", v.Type())
			}
			elems = append(elems, lv.Elements...)
			continue
		}
		elems = append(elems, v)
	}
	return &ListValue{Elements: elems}, nil
}

func (rt *Runtime) evalSend(s *hir.Send, env *Environment) (Value, error) {
	cv, err := rt.Eval(s.Channel, env)
	if err != nil {
		return nil, err
	}
	ch, ok := cv.(*ChannelValue)
	if !ok {
		return nil, fmt.Errorf("<- target is not a channel (got %s)", cv.Type())
	}
	val, err := rt.Eval(s.Value, env)
	if err != nil {
		return nil, err
	}
	return ch.Chan.send(val), nil
}

func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case *IntValue:
		bv, ok := b.(*IntValue)
		return ok && av.Value == bv.Value
	case *FloatValue:
		bv, ok := b.(*FloatValue)
		return ok && av.Value == bv.Value
	case *StringValue:
		bv, ok := b.(*StringValue)
		return ok && av.Value == bv.Value
	case *BoolValue:
		bv, ok := b.(*BoolValue)
		return ok && av.Value == bv.Value
	case *DateTimeValue:
		bv, ok := b.(*DateTimeValue)
		return ok && av.Value == bv.Value
	case *UnitValue:
		_, ok := b.(*UnitValue)
		return ok
	case *ConstructorValue:
		bv, ok := b.(*ConstructorValue)
		if !ok || av.CtorName != bv.CtorName || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for i := range av.Fields {
			if !valuesEqual(av.Fields[i], bv.Fields[i]) {
				return false
			}
		}
		return true
	case *ListValue:
		bv, ok := b.(*ListValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *TupleValue:
		bv, ok := b.(*TupleValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func truthy(v Value) bool {
	b, ok := v.(*BoolValue)
	return ok && b.Value
}
