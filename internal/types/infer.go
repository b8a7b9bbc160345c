package types

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

// infer is the core Algorithm-W-style inference function over desugared
// expressions (spec §4.4). It returns the inferred type plus any
// unresolved type-class constraints (Num/Eq/Ord/Show/...) generated
// along the way; the caller unifies, defaults, and resolves them.
func (c *Checker) infer(expr hir.Expr, env *TypeEnv) (Type, []ClassConstraint) {
	switch e := expr.(type) {
	case *hir.Var:
		return c.inferVar(e, env)
	case *hir.Lit:
		return c.inferLit(e)
	case *hir.Lambda:
		return c.inferLambda(e, env)
	case *hir.Call:
		return c.inferCall(e, env)
	case *hir.If:
		return c.inferIf(e, env)
	case *hir.Match:
		return c.inferMatch(e, env)
	case *hir.Record:
		return c.inferRecord(e, env)
	case *hir.Patch:
		return c.inferPatch(e, env)
	case *hir.FieldAccess:
		return c.inferFieldAccess(e, env)
	case *hir.Index:
		return c.inferIndex(e, env)
	case *hir.Tuple:
		return c.inferTuple(e, env)
	case *hir.List:
		return c.inferList(e, env)
	case *hir.Block:
		return c.inferBlock(e, env)
	case *hir.Send:
		return c.inferSend(e, env)
	case *hir.Raw:
		// A construct that failed to desugar cleanly; don't cascade a
		// type error on top of the parse/desugar diagnostic already
		// recorded for it.
		return c.fresh(), nil
	default:
		return c.fresh(), nil
	}
}

func (c *Checker) inferVar(e *hir.Var, env *TypeEnv) (Type, []ClassConstraint) {
	binding, err := env.Lookup(e.Name)
	if err != nil {
		c.errorf(TCUnify, e.Span(), "unbound variable %s", e.Name)
		return c.fresh(), nil
	}
	switch b := binding.(type) {
	case *Scheme:
		return c.instantiateScheme(b)
	case Type:
		return b, nil
	default:
		return c.fresh(), nil
	}
}

// instantiateScheme replaces every quantified variable in s with a fresh
// one, in both the scheme's type and its constraints.
func (c *Checker) instantiateScheme(s *Scheme) (Type, []ClassConstraint) {
	subs := make(map[string]Type, len(s.TypeVars)+len(s.RowVars))
	for _, v := range s.TypeVars {
		subs[v] = c.fresh()
	}
	for _, v := range s.RowVars {
		subs[v] = &Row{Kind: EffectRow, Labels: map[string]Type{}, Tail: c.freshRow(EffectRow)}
	}
	t := s.Type.Substitute(subs)
	constraints := make([]ClassConstraint, len(s.Constraints))
	for i, cc := range s.Constraints {
		constraints[i] = ClassConstraint{Class: cc.Class, Type: cc.Type.Substitute(subs)}
	}
	return t, constraints
}

func (c *Checker) inferLit(e *hir.Lit) (Type, []ClassConstraint) {
	switch e.Kind {
	case ast.LitNumber:
		tv := c.fresh()
		return tv, []ClassConstraint{{Class: "Num", Type: tv}}
	case ast.LitString, ast.LitSigil:
		return TString, nil
	case ast.LitBool:
		return TBool, nil
	case ast.LitDateTime:
		return &TCon{Name: "DateTime"}, nil
	default:
		return c.fresh(), nil
	}
}

func (c *Checker) inferLambda(e *hir.Lambda, env *TypeEnv) (Type, []ClassConstraint) {
	paramTypes := make([]Type, len(e.Params))
	bodyEnv := env
	for i, name := range e.Params {
		tv := c.fresh()
		paramTypes[i] = tv
		bodyEnv = bodyEnv.Extend(name, tv)
	}
	bodyT, constraints := c.infer(e.Body, bodyEnv)
	if len(paramTypes) == 0 {
		return bodyT, constraints
	}
	return &TFunc2{Params: paramTypes, Return: bodyT}, constraints
}

func (c *Checker) inferCall(e *hir.Call, env *TypeEnv) (Type, []ClassConstraint) {
	funcT, constraints := c.infer(e.Func, env)
	argTypes := make([]Type, len(e.Args))
	for i, a := range e.Args {
		at, ac := c.infer(a, env)
		argTypes[i] = at
		constraints = append(constraints, ac...)
	}
	ret := c.fresh()
	want := &TFunc2{Params: argTypes, Return: ret}
	sub, err := c.unifier.Unify(funcT, want, Substitution{})
	if err != nil {
		c.errorf(TCUnify, e.Span(), "%v", err)
		return c.fresh(), constraints
	}
	return ApplySubstitution(sub, ret), c.applySubstitutionToConstraints(sub, constraints)
}

func (c *Checker) inferIf(e *hir.If, env *TypeEnv) (Type, []ClassConstraint) {
	condT, constraints := c.infer(e.Cond, env)
	if _, err := c.unifier.Unify(condT, TBool, Substitution{}); err != nil {
		c.errorf(TCUnify, e.Cond.Span(), "if condition: %v", err)
	}
	thenT, tc := c.infer(e.Then, env)
	constraints = append(constraints, tc...)
	if e.Else == nil {
		return thenT, constraints
	}
	elseT, ec := c.infer(e.Else, env)
	constraints = append(constraints, ec...)
	sub, err := c.unifier.Unify(thenT, elseT, Substitution{})
	if err != nil {
		c.errorf(TCUnify, e.Span(), "if branches: %v", err)
		return thenT, constraints
	}
	return ApplySubstitution(sub, thenT), c.applySubstitutionToConstraints(sub, constraints)
}

func (c *Checker) inferMatch(e *hir.Match, env *TypeEnv) (Type, []ClassConstraint) {
	scrutT, constraints := c.infer(e.Scrutinee, env)

	var resultT Type
	for _, mc := range e.Cases {
		patT, caseEnv, pc := c.inferPattern(mc.Pattern, env)
		constraints = append(constraints, pc...)
		if sub, err := c.unifier.Unify(scrutT, patT, Substitution{}); err == nil {
			scrutT = ApplySubstitution(sub, scrutT)
		} else {
			c.errorf(TCUnify, mc.Pattern.Span(), "pattern: %v", err)
		}
		if mc.Guard != nil {
			guardT, gc := c.infer(mc.Guard, caseEnv)
			constraints = append(constraints, gc...)
			if _, err := c.unifier.Unify(guardT, TBool, Substitution{}); err != nil {
				c.errorf(TCUnify, mc.Guard.Span(), "guard: %v", err)
			}
		}
		bodyT, bc := c.infer(mc.Body, caseEnv)
		constraints = append(constraints, bc...)
		if resultT == nil {
			resultT = bodyT
			continue
		}
		sub, err := c.unifier.Unify(resultT, bodyT, Substitution{})
		if err != nil {
			c.errorf(TCUnify, mc.Body.Span(), "match arms: %v", err)
			continue
		}
		resultT = ApplySubstitution(sub, resultT)
	}
	c.checkExhaustive(e, scrutT)
	if resultT == nil {
		return TUnit, constraints
	}
	return resultT, constraints
}

func (c *Checker) inferRecord(e *hir.Record, env *TypeEnv) (Type, []ClassConstraint) {
	labels := make(map[string]Type, len(e.Fields))
	var constraints []ClassConstraint
	for _, f := range e.Fields {
		ft, fc := c.infer(f.Value, env)
		labels[f.Name] = ft
		constraints = append(constraints, fc...)
	}
	var tail *RowVar
	if e.Spread != nil {
		spreadT, sc := c.infer(e.Spread, env)
		constraints = append(constraints, sc...)
		tail = c.freshRow(RecordRow)
		want := &TRecord2{Row: &Row{Kind: RecordRow, Labels: map[string]Type{}, Tail: tail}}
		if _, err := c.unifier.Unify(spreadT, want, Substitution{}); err != nil {
			c.errorf(TCUnify, e.Span(), "record spread: %v", err)
		}
	}
	return &TRecord2{Row: &Row{Kind: RecordRow, Labels: labels, Tail: tail}}, constraints
}

// inferPatch types a `{ path: updater, ... } <| target` patch literal as
// a self-map over a fresh record type: every updater is a function from
// the targeted field's current value to its replacement.
func (c *Checker) inferPatch(e *hir.Patch, env *TypeEnv) (Type, []ClassConstraint) {
	var constraints []ClassConstraint
	recordT := c.fresh()
	for _, entry := range e.Entries {
		fieldT := c.fresh()
		updT, uc := c.infer(entry.Updater, env)
		constraints = append(constraints, uc...)
		want := &TFunc2{Params: []Type{fieldT}, Return: fieldT}
		if _, err := c.unifier.Unify(updT, want, Substitution{}); err != nil {
			c.errorf(TCUnify, entry.Updater.Span(), "patch updater: %v", err)
		}
	}
	return &TFunc2{Params: []Type{recordT}, Return: recordT}, constraints
}

func (c *Checker) inferFieldAccess(e *hir.FieldAccess, env *TypeEnv) (Type, []ClassConstraint) {
	curT, constraints := c.infer(e.Target, env)
	for _, seg := range e.Path {
		switch seg.Kind {
		case ast.SegField:
			fieldT := c.fresh()
			tail := c.freshRow(RecordRow)
			want := &TRecord2{Row: &Row{Kind: RecordRow, Labels: map[string]Type{seg.Name: fieldT}, Tail: tail}}
			sub, err := c.unifier.Unify(curT, want, Substitution{})
			if err != nil {
				c.errorf(TCUnify, e.Span(), "field .%s: %v", seg.Name, err)
				curT = c.fresh()
				continue
			}
			curT = ApplySubstitution(sub, fieldT)
		case ast.SegIndex:
			elemT := c.fresh()
			if _, err := c.unifier.Unify(curT, &TList{Element: elemT}, Substitution{}); err != nil {
				c.errorf(TCUnify, e.Span(), "index: %v", err)
			}
			if seg.Index != nil {
				idxT, ic := c.infer(seg.Index, env)
				constraints = append(constraints, ic...)
				if _, err := c.unifier.Unify(idxT, TInt, Substitution{}); err != nil {
					c.errorf(TCUnify, seg.Index.Span(), "index expression: %v", err)
				}
			}
			curT = elemT
		case ast.SegAll:
			elemT := c.fresh()
			if _, err := c.unifier.Unify(curT, &TList{Element: elemT}, Substitution{}); err != nil {
				c.errorf(TCUnify, e.Span(), "all-selector: %v", err)
			}
			curT = &TList{Element: elemT}
		}
	}
	return curT, constraints
}

func (c *Checker) inferIndex(e *hir.Index, env *TypeEnv) (Type, []ClassConstraint) {
	targetT, constraints := c.infer(e.Target, env)
	elemT := c.fresh()
	if _, err := c.unifier.Unify(targetT, &TList{Element: elemT}, Substitution{}); err != nil {
		c.errorf(TCUnify, e.Span(), "index target: %v", err)
	}
	if e.All {
		return &TList{Element: elemT}, constraints
	}
	idxT, ic := c.infer(e.Index, env)
	constraints = append(constraints, ic...)
	if _, err := c.unifier.Unify(idxT, TInt, Substitution{}); err != nil {
		c.errorf(TCUnify, e.Index.Span(), "index expression: %v", err)
	}
	return elemT, constraints
}

func (c *Checker) inferTuple(e *hir.Tuple, env *TypeEnv) (Type, []ClassConstraint) {
	elems := make([]Type, len(e.Elements))
	var constraints []ClassConstraint
	for i, el := range e.Elements {
		t, ec := c.infer(el, env)
		elems[i] = t
		constraints = append(constraints, ec...)
	}
	return &TTuple{Elements: elems}, constraints
}

func (c *Checker) inferList(e *hir.List, env *TypeEnv) (Type, []ClassConstraint) {
	elemT := c.fresh()
	var constraints []ClassConstraint
	first := true
	for _, item := range e.Items {
		itemT, ic := c.infer(item.Value, env)
		constraints = append(constraints, ic...)
		want := itemT
		if item.Spread {
			want = &TList{Element: elemT}
			if _, err := c.unifier.Unify(itemT, want, Substitution{}); err != nil {
				c.errorf(TCUnify, item.Value.Span(), "list spread: %v", err)
			}
			continue
		}
		if first {
			elemT = itemT
			first = false
			continue
		}
		if sub, err := c.unifier.Unify(elemT, itemT, Substitution{}); err != nil {
			c.errorf(TCUnify, item.Value.Span(), "list element: %v", err)
		} else {
			elemT = ApplySubstitution(sub, elemT)
		}
	}
	return &TList{Element: elemT}, constraints
}

// inferBlock types effect/resource/generate/plain blocks (spec §4.8).
// Effect and resource blocks desugar through pure/bind at runtime, so
// each one's overall type is Effect[T] for its final expression's type T.
// A generate block is typed as List[T] for its last item's type T (no
// separate generator type is used); a plain block is just its last
// item's type.
func (c *Checker) inferBlock(e *hir.Block, env *TypeEnv) (Type, []ClassConstraint) {
	var constraints []ClassConstraint
	cur := env
	var last Type = TUnit
	for _, item := range e.Items {
		switch item.Kind {
		case hir.IBind:
			valT, vc := c.infer(item.Value, cur)
			constraints = append(constraints, vc...)
			inner := c.fresh()
			if _, err := c.unifier.Unify(valT, effectOf(inner), Substitution{}); err != nil {
				c.errorf(TCUnify, item.Value.Span(), "bind: %v", err)
			}
			patT, bindEnv, pc := c.inferPattern(item.Binder, cur)
			constraints = append(constraints, pc...)
			if _, err := c.unifier.Unify(patT, inner, Substitution{}); err != nil {
				c.errorf(TCUnify, item.Value.Span(), "bind pattern: %v", err)
			}
			cur = bindEnv
			last = TUnit
		case hir.ILet:
			valT, vc := c.infer(item.Value, cur)
			constraints = append(constraints, vc...)
			_, letEnv, pc := c.inferPattern(item.Binder, cur)
			constraints = append(constraints, pc...)
			if name, ok := item.Binder.(*ast.Ident); ok {
				letEnv = cur.Extend(name.Name, valT)
			}
			cur = letEnv
			last = TUnit
		case hir.IFilter:
			condT, cc := c.infer(item.Value, cur)
			constraints = append(constraints, cc...)
			if _, err := c.unifier.Unify(condT, TBool, Substitution{}); err != nil {
				c.errorf(TCUnify, item.Value.Span(), "generator filter: %v", err)
			}
			last = TUnit
		case hir.IYield:
			valT, vc := c.infer(item.Value, cur)
			constraints = append(constraints, vc...)
			last = valT
		case hir.IRecurse:
			_, vc := c.infer(item.Value, cur)
			constraints = append(constraints, vc...)
			last = TUnit
		case hir.IExpr:
			valT, vc := c.infer(item.Value, cur)
			constraints = append(constraints, vc...)
			last = valT
		}
	}

	switch e.Kind {
	case ast.BlockPlain:
		return last, constraints
	case ast.BlockGenerate:
		return &TList{Element: unwrapEffect(last)}, constraints
	default: // BlockEffect, BlockResource
		return effectOf(unwrapEffect(last)), constraints
	}
}

func (c *Checker) inferSend(e *hir.Send, env *TypeEnv) (Type, []ClassConstraint) {
	chanT, constraints := c.infer(e.Channel, env)
	elemT := c.fresh()
	if _, err := c.unifier.Unify(chanT, &TApp{Constructor: &TCon{Name: "Channel"}, Args: []Type{elemT}}, Substitution{}); err != nil {
		c.errorf(TCUnify, e.Span(), "channel: %v", err)
	}
	valT, vc := c.infer(e.Value, env)
	constraints = append(constraints, vc...)
	if _, err := c.unifier.Unify(valT, elemT, Substitution{}); err != nil {
		c.errorf(TCUnify, e.Value.Span(), "send value: %v", err)
	}
	return effectOf(TUnit), constraints
}

// inferPattern types a pattern against a fresh type and returns an
// environment extended with the names it binds.
func (c *Checker) inferPattern(pat ast.Pattern, env *TypeEnv) (Type, *TypeEnv, []ClassConstraint) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return c.fresh(), env, nil
	case *ast.Ident:
		tv := c.fresh()
		return tv, env.Extend(p.Name, tv), nil
	case *ast.LiteralPattern:
		t, constraints := c.inferLit(&hir.Lit{Kind: p.Lit.Kind, Value: p.Lit.Value})
		return t, env, constraints
	case *ast.ConstructorPattern:
		info, ok := c.constructors[p.Name]
		if !ok {
			c.errorf(TCNoInstance, p.Span(), "unknown constructor %s", p.Name)
			return c.fresh(), env, nil
		}
		cur := env
		var constraints []ClassConstraint
		for i, argPat := range p.Args {
			var fieldT Type = c.fresh()
			if i < len(info.Fields) {
				fieldT = info.Fields[i]
			}
			argT, argEnv, ac := c.inferPattern(argPat, cur)
			constraints = append(constraints, ac...)
			if _, err := c.unifier.Unify(argT, fieldT, Substitution{}); err != nil {
				c.errorf(TCUnify, argPat.Span(), "constructor %s arg %d: %v", p.Name, i, err)
			}
			cur = argEnv
		}
		return &TCon{Name: info.TypeName}, cur, constraints
	case *ast.TuplePattern:
		elems := make([]Type, len(p.Elements))
		cur := env
		var constraints []ClassConstraint
		for i, el := range p.Elements {
			t, eEnv, ec := c.inferPattern(el, cur)
			elems[i] = t
			cur = eEnv
			constraints = append(constraints, ec...)
		}
		return &TTuple{Elements: elems}, cur, constraints
	case *ast.ListPattern:
		elemT := c.fresh()
		cur := env
		var constraints []ClassConstraint
		for _, el := range p.Elements {
			t, eEnv, ec := c.inferPattern(el, cur)
			cur = eEnv
			constraints = append(constraints, ec...)
			if _, err := c.unifier.Unify(elemT, t, Substitution{}); err != nil {
				c.errorf(TCUnify, el.Span(), "list pattern element: %v", err)
			}
		}
		if p.Rest != nil {
			_, restEnv, rc := c.inferPattern(p.Rest, cur)
			cur = restEnv
			constraints = append(constraints, rc...)
			if name, ok := p.Rest.(*ast.Ident); ok {
				cur = cur.Extend(name.Name, &TList{Element: elemT})
			}
		}
		return &TList{Element: elemT}, cur, constraints
	case *ast.RecordPattern:
		labels := make(map[string]Type, len(p.Fields))
		cur := env
		var constraints []ClassConstraint
		for _, f := range p.Fields {
			fieldT, fEnv, fc := c.inferPattern(f.Pattern, cur)
			cur = fEnv
			constraints = append(constraints, fc...)
			if len(f.Path) > 0 {
				labels[f.Path[0].Name] = fieldT
			}
		}
		var tail *RowVar
		if p.Rest {
			tail = c.freshRow(RecordRow)
		}
		return &TRecord2{Row: &Row{Kind: RecordRow, Labels: labels, Tail: tail}}, cur, constraints
	default:
		return c.fresh(), env, nil
	}
}

// checkExhaustive emits E3100 when a match's patterns don't cover every
// constructor of scrutT's declaring ADT and no wildcard/variable catches
// the rest (spec §4.7). Non-ADT scrutinees (tuples, records, literals,
// type variables still unresolved) are not checked here.
func (c *Checker) checkExhaustive(m *hir.Match, scrutT Type) {
	con, ok := scrutT.(*TCon)
	if !ok {
		return
	}
	variants, ok := c.variants[con.Name]
	if !ok || len(variants) == 0 {
		return
	}
	covered := make(map[string]bool, len(m.Cases))
	for _, mc := range m.Cases {
		if mc.Guard != nil {
			continue // a guarded arm never exhausts its pattern alone
		}
		switch p := mc.Pattern.(type) {
		case *ast.WildcardPattern, *ast.Ident:
			return // catch-all arm makes the match exhaustive
		case *ast.ConstructorPattern:
			covered[p.Name] = true
		}
	}
	var missing []string
	for _, v := range variants {
		if !covered[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		c.errorf(TCNonExhaustive, m.Span(), "non-exhaustive match on %s: missing %v", con.Name, missing)
	}
}
