package hir

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
)

// idGen is a monotonically increasing node-id counter; Kernel lowering
// continues numbering from the max id it finds here, guaranteeing global
// uniqueness across the HIR/Kernel boundary (spec §4.6).
type idGen struct{ next int }

func (g *idGen) fresh() int {
	g.next++
	return g.next
}

// Desugarer holds the fresh-id counter and the diagnostics produced while
// lowering one module.
type Desugarer struct {
	ids   idGen
	diags []diag.Diagnostic
}

func NewDesugarer() *Desugarer { return &Desugarer{} }

func (d *Desugarer) Diagnostics() []diag.Diagnostic { return d.diags }

// Desugar lowers every top-level Def (including those nested in
// InstanceDecl/DomainDecl bodies) into the HIR Program.
func (d *Desugarer) Desugar(mod *ast.Module) *Program {
	prog := &Program{ModuleName: mod.Name}
	for _, item := range mod.Items {
		switch v := item.(type) {
		case *ast.Def:
			prog.Defs = append(prog.Defs, d.desugarDef(v))
		case *ast.InstanceDecl:
			for _, def := range v.Defs {
				prog.Defs = append(prog.Defs, d.desugarDef(def))
			}
		case *ast.DomainDecl:
			for _, def := range v.Defs {
				prog.Defs = append(prog.Defs, d.desugarDef(def))
			}
		}
	}
	return prog
}

func (d *Desugarer) desugarDef(def *ast.Def) *Def {
	var params []string
	for _, p := range def.Params {
		params = append(params, d.paramName(p))
	}
	body := d.desugarExpr(def.Body)
	if len(params) > 0 {
		// Wrap non-identifier params with a match, matching the lambda
		// desugaring rule (spec §4.5: "lambdas with non-ident patterns
		// become \param -> match param { pat => body }").
		body = d.wrapParamMatches(def.Params, params, body)
		body = &Lambda{base: base{Id: d.ids.fresh(), Sp: def.Span()}, Params: params, Body: body}
	}
	return &Def{Id: d.ids.fresh(), Name: def.Name, NameSpan: def.NameSpan, Body: body}
}

// paramName returns the materialized parameter name for a pattern: an
// Ident's own name, else a synthetic `_p{n}` binder the wrapping match
// destructures.
func (d *Desugarer) paramName(p ast.Pattern) string {
	if id, ok := p.(*ast.Ident); ok {
		return id.Name
	}
	return fmt.Sprintf("_p%d", d.ids.fresh())
}

// wrapParamMatches wraps the desugared body in nested matches for every
// parameter whose pattern is not a bare identifier (or wildcard).
func (d *Desugarer) wrapParamMatches(patterns []ast.Pattern, names []string, body Expr) Expr {
	for i := len(patterns) - 1; i >= 0; i-- {
		pat := patterns[i]
		switch pat.(type) {
		case *ast.Ident, *ast.WildcardPattern:
			continue
		}
		body = &Match{
			base:      base{Id: d.ids.fresh(), Sp: pat.Span()},
			Scrutinee: &Var{base: base{Id: d.ids.fresh(), Sp: pat.Span()}, Name: names[i]},
			Cases:     []MatchCase{{Pattern: pat, Body: body}},
		}
	}
	return body
}

func (d *Desugarer) desugarExpr(e ast.Expr) Expr {
	if e == nil {
		return nil
	}
	// Materialize placeholder lambdas: if this expression subtree
	// contains a bare `_`, number every occurrence left-to-right and
	// wrap the rewritten expression in a lambda over the synthesized
	// params (spec §4.5). Field sections and patch/pipe rewriting run
	// afterward on the already-numbered tree.
	if containsPlaceholder(e) {
		return d.materializePlaceholders(e)
	}
	return d.desugarExprInner(e)
}

// containsPlaceholder reports whether e directly contains a Placeholder
// not already inside a nested Lambda (a nested lambda introduces its own
// scope for `_`).
func containsPlaceholder(e ast.Expr) bool {
	found := false
	var walk func(ast.Expr)
	walk = func(x ast.Expr) {
		if found || x == nil {
			return
		}
		switch v := x.(type) {
		case *ast.Placeholder:
			found = true
		case *ast.Lambda:
			return // new scope
		case *ast.Call:
			walk(v.Func)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryOp:
			walk(v.Operand)
		case *ast.FieldAccess:
			walk(v.Target)
		case *ast.IndexExpr:
			walk(v.Target)
			walk(v.Index)
		case *ast.TupleLit:
			for _, el := range v.Elements {
				walk(el)
			}
		case *ast.ListLit:
			for _, it := range v.Items {
				walk(it.Value)
			}
		case *ast.RecordLit:
			walk(v.Spread)
			for _, f := range v.Fields {
				walk(f.Value)
			}
		}
	}
	walk(e)
	return found
}

// materializePlaceholders numbers each `_` in e left-to-right into fresh
// `_argN` identifiers and wraps the result in a Lambda over those params.
func (d *Desugarer) materializePlaceholders(e ast.Expr) Expr {
	n := 0
	var rewrite func(ast.Expr) ast.Expr
	rewrite = func(x ast.Expr) ast.Expr {
		switch v := x.(type) {
		case *ast.Placeholder:
			name := fmt.Sprintf("_arg%d", n)
			n++
			return &ast.Ident{Spanned: v.Spanned, Name: name}
		case *ast.Call:
			return &ast.Call{Spanned: v.Spanned, Func: rewrite(v.Func), Args: rewriteAll(v.Args, rewrite)}
		case *ast.BinaryOp:
			return &ast.BinaryOp{Spanned: v.Spanned, Op: v.Op, Left: rewrite(v.Left), Right: rewrite(v.Right)}
		case *ast.UnaryOp:
			return &ast.UnaryOp{Spanned: v.Spanned, Op: v.Op, Operand: rewrite(v.Operand)}
		case *ast.FieldAccess:
			return &ast.FieldAccess{Spanned: v.Spanned, Target: rewrite(v.Target), Path: v.Path}
		case *ast.IndexExpr:
			return &ast.IndexExpr{Spanned: v.Spanned, Target: rewrite(v.Target), Index: rewriteMaybe(v.Index, rewrite), All: v.All}
		case *ast.TupleLit:
			return &ast.TupleLit{Spanned: v.Spanned, Elements: rewriteAll(v.Elements, rewrite)}
		case *ast.ListLit:
			items := make([]ast.ListItem, len(v.Items))
			for i, it := range v.Items {
				items[i] = ast.ListItem{Value: rewrite(it.Value), Spread: it.Spread}
			}
			return &ast.ListLit{Spanned: v.Spanned, Items: items}
		case *ast.RecordLit:
			fields := make([]ast.RecordFieldLit, len(v.Fields))
			for i, f := range v.Fields {
				fields[i] = ast.RecordFieldLit{Name: f.Name, Value: rewrite(f.Value), Span: f.Span}
			}
			return &ast.RecordLit{Spanned: v.Spanned, Fields: fields, Spread: rewriteMaybe(v.Spread, rewrite)}
		default:
			return x
		}
	}
	rewritten := rewrite(e)
	body := d.desugarExprInner(rewritten)
	params := make([]string, n)
	for i := range params {
		params[i] = fmt.Sprintf("_arg%d", i)
	}
	return &Lambda{base: base{Id: d.ids.fresh(), Sp: e.Span()}, Params: params, Body: body}
}

func rewriteAll(es []ast.Expr, f func(ast.Expr) ast.Expr) []ast.Expr {
	if es == nil {
		return nil
	}
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = f(e)
	}
	return out
}

func rewriteMaybe(e ast.Expr, f func(ast.Expr) ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	return f(e)
}

// desugarExprInner performs the structural lowering once placeholder
// materialization (if any) has already happened at this level.
func (d *Desugarer) desugarExprInner(e ast.Expr) Expr {
	start := e.Span()
	switch v := e.(type) {
	case *ast.Ident:
		return &Var{base: base{Id: d.ids.fresh(), Sp: start}, Name: v.Name}
	case *ast.Literal:
		return &Lit{base: base{Id: d.ids.fresh(), Sp: start}, Kind: v.Kind, Value: v.Value, SigilTag: v.SigilTag, SigilBody: v.SigilBody}
	case *ast.TextInterp:
		// Concatenation chain over Text.concat(part, rest); kept simple
		// since string formatting detail lives in the runtime's format_value.
		return d.desugarTextInterp(v)
	case *ast.Placeholder:
		// Bare `_` not caught by containsPlaceholder at an outer level
		// (e.g. as a lambda's own body) is left as a fresh unused var so
		// downstream stages still see a well-formed tree.
		return &Var{base: base{Id: d.ids.fresh(), Sp: start}, Name: "_"}
	case *ast.FieldSection:
		// `.name` => `\_arg0 -> _arg0.name` (spec §4.5).
		argSp := diag.Span{Start: start.Start, End: start.End}
		return &Lambda{
			base:   base{Id: d.ids.fresh(), Sp: start},
			Params: []string{"_arg0"},
			Body: &FieldAccess{
				base:   base{Id: d.ids.fresh(), Sp: argSp},
				Target: &Var{base: base{Id: d.ids.fresh(), Sp: argSp}, Name: "_arg0"},
				Path:   []ast.PathSegment{{Kind: ast.SegField, Name: v.Name}},
			},
		}
	case *ast.ListLit:
		items := make([]ListItem, len(v.Items))
		for i, it := range v.Items {
			items[i] = ListItem{Value: d.desugarExpr(it.Value), Spread: it.Spread}
		}
		return &List{base: base{Id: d.ids.fresh(), Sp: start}, Items: items}
	case *ast.TupleLit:
		elems := make([]Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = d.desugarExpr(el)
		}
		return &Tuple{base: base{Id: d.ids.fresh(), Sp: start}, Elements: elems}
	case *ast.RecordLit:
		fields := make([]RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = RecordField{Name: f.Name, Value: d.desugarExpr(f.Value)}
		}
		var spread Expr
		if v.Spread != nil {
			spread = d.desugarExpr(v.Spread)
		}
		return &Record{base: base{Id: d.ids.fresh(), Sp: start}, Fields: fields, Spread: spread}
	case *ast.PatchLit:
		entries := make([]PatchEntry, len(v.Entries))
		for i, ent := range v.Entries {
			entries[i] = PatchEntry{Path: ent.Path, Updater: d.desugarExpr(ent.Updater)}
		}
		return &Patch{base: base{Id: d.ids.fresh(), Sp: start}, Entries: entries}
	case *ast.FieldAccess:
		return &FieldAccess{base: base{Id: d.ids.fresh(), Sp: start}, Target: d.desugarExpr(v.Target), Path: v.Path}
	case *ast.IndexExpr:
		return &Index{base: base{Id: d.ids.fresh(), Sp: start}, Target: d.desugarExpr(v.Target), Index: d.desugarExpr(v.Index), All: v.All}
	case *ast.Call:
		// `f <| patchOrArg` and `x |> f` already normalize to ast.Call at
		// parse time (see parser_expr.go); nothing extra needed here
		// beyond the default recursive lowering.
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = d.desugarExpr(a)
		}
		return &Call{base: base{Id: d.ids.fresh(), Sp: start}, Func: d.desugarExpr(v.Func), Args: args}
	case *ast.Lambda:
		return d.desugarLambda(v)
	case *ast.Match:
		var scrutinee Expr
		if v.Scrutinee != nil {
			scrutinee = d.desugarExpr(v.Scrutinee)
		}
		cases := make([]MatchCase, len(v.Cases))
		for i, c := range v.Cases {
			var guard Expr
			if c.Guard != nil {
				guard = d.desugarExpr(c.Guard)
			}
			cases[i] = MatchCase{Pattern: c.Pattern, Guard: guard, Body: d.desugarExpr(c.Body)}
		}
		return &Match{base: base{Id: d.ids.fresh(), Sp: start}, Scrutinee: scrutinee, Cases: cases}
	case *ast.If:
		return &If{base: base{Id: d.ids.fresh(), Sp: start}, Cond: d.desugarExpr(v.Cond), Then: d.desugarExpr(v.Then), Else: d.desugarExpr(v.Else)}
	case *ast.BinaryOp:
		return d.desugarBinary(v)
	case *ast.UnaryOp:
		return &Call{
			base: base{Id: d.ids.fresh(), Sp: start},
			Func: &Var{base: base{Id: d.ids.fresh(), Sp: start}, Name: "__unary_" + v.Op},
			Args: []Expr{d.desugarExpr(v.Operand)},
		}
	case *ast.Block:
		return d.desugarBlock(v)
	case *ast.Send:
		return &Send{base: base{Id: d.ids.fresh(), Sp: start}, Channel: d.desugarExpr(v.Channel), Value: d.desugarExpr(v.Value)}
	case *ast.Raw:
		return &Raw{base: base{Id: d.ids.fresh(), Sp: start}, Text: v.Text}
	default:
		d.diags = append(d.diags, diag.Errorf("HIR001", start, "unsupported expression shape %T reaching hir desugar", e))
		return &Raw{base: base{Id: d.ids.fresh(), Sp: start}, Text: fmt.Sprintf("%T", e)}
	}
}

// desugarBinary turns `<|` and `|>` into application, matching the
// parser's normalization (already Calls by this point); anything else
// stays a primitive binary op name the RustIR/runtime resolve as a
// builtin.
func (d *Desugarer) desugarBinary(v *ast.BinaryOp) Expr {
	start := v.Span()
	return &Call{
		base: base{Id: d.ids.fresh(), Sp: start},
		Func: &Var{base: base{Id: d.ids.fresh(), Sp: start}, Name: "__binop_" + v.Op},
		Args: []Expr{d.desugarExpr(v.Left), d.desugarExpr(v.Right)},
	}
}

func (d *Desugarer) desugarLambda(v *ast.Lambda) Expr {
	start := v.Span()
	var params []string
	for _, p := range v.Params {
		params = append(params, d.paramName(p))
	}
	body := d.desugarExpr(v.Body)
	body = d.wrapParamMatches(v.Params, params, body)
	return &Lambda{base: base{Id: d.ids.fresh(), Sp: start}, Params: params, Body: body}
}

func (d *Desugarer) desugarBlock(v *ast.Block) Expr {
	start := v.Span()
	items := make([]BlockItem, len(v.Items))
	for i, it := range v.Items {
		bi := BlockItem{Binder: it.Binder, Value: d.desugarExpr(it.Value)}
		switch it.Kind {
		case ast.ItemBind:
			bi.Kind = IBind
		case ast.ItemLet:
			bi.Kind = ILet
		case ast.ItemFilter:
			bi.Kind = IFilter
		case ast.ItemYield:
			bi.Kind = IYield
		case ast.ItemRecurse:
			bi.Kind = IRecurse
		default:
			bi.Kind = IExpr
		}
		if it.OrElse != nil {
			bi.OrElse = d.desugarExpr(it.OrElse)
		}
		for _, oc := range it.OrCases {
			var guard Expr
			if oc.Guard != nil {
				guard = d.desugarExpr(oc.Guard)
			}
			bi.OrCases = append(bi.OrCases, MatchCase{Pattern: oc.Pattern, Guard: guard, Body: d.desugarExpr(oc.Body)})
		}
		items[i] = bi
	}
	return d.desugarEffectOr(&Block{base: base{Id: d.ids.fresh(), Sp: start}, Kind: v.Kind, Items: items})
}

// desugarEffectOr implements the `x <- eff or | Pat => body` /
// `x <- res or fallback` sugar described in spec §4.2: rewrites a bind's
// OrCases into an `attempt` + match-wrapped continuation, or its OrElse
// into a `pure fallback` default, leaving a plain Bind item when no `or`
// clause was present.
func (d *Desugarer) desugarEffectOr(b *Block) Expr {
	for i := range b.Items {
		it := &b.Items[i]
		if it.Kind != IBind {
			continue
		}
		sp := it.Value.Span()
		if len(it.OrCases) > 0 {
			attempted := &Call{
				base: base{Id: d.ids.fresh(), Sp: sp},
				Func: &Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: "attempt"},
				Args: []Expr{it.Value},
			}
			okPat := &ast.ConstructorPattern{Name: "Ok", Args: []ast.Pattern{strPat(it.Binder)}}
			okBody := &Call{
				base: base{Id: d.ids.fresh(), Sp: sp},
				Func: &Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: "pure"},
				Args: []Expr{&Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: patName(it.Binder)}},
			}
			cases := append([]MatchCase{{Pattern: okPat, Body: okBody}}, it.OrCases...)
			// Propagating tail: any Err not matched by the user's patterns
			// re-raises via `fail`.
			cases = append(cases, MatchCase{
				Pattern: &ast.ConstructorPattern{Name: "Err", Args: []ast.Pattern{&ast.Ident{Name: "__e"}}},
				Body: &Call{
					base: base{Id: d.ids.fresh(), Sp: sp},
					Func: &Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: "fail"},
					Args: []Expr{&Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: "__e"}},
				},
			})
			it.Value = &Match{base: base{Id: d.ids.fresh(), Sp: sp}, Scrutinee: attempted, Cases: cases}
			it.OrCases = nil
		} else if it.OrElse != nil {
			it.Value = &Call{
				base: base{Id: d.ids.fresh(), Sp: sp},
				Func: &Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: "__with_default"},
				Args: []Expr{it.Value, &Call{
					base: base{Id: d.ids.fresh(), Sp: sp},
					Func: &Var{base: base{Id: d.ids.fresh(), Sp: sp}, Name: "pure"},
					Args: []Expr{it.OrElse},
				}},
			}
			it.OrElse = nil
		}
	}
	return b
}

func patName(p ast.Pattern) string {
	if id, ok := p.(*ast.Ident); ok {
		return id.Name
	}
	return "_ok"
}

func strPat(p ast.Pattern) ast.Pattern {
	if p == nil {
		return &ast.WildcardPattern{}
	}
	return p
}

// desugarTextInterp lowers `"...${e}..."` into a left fold of
// `__text_concat` calls over literal chunks and desugared sub-expressions.
func (d *Desugarer) desugarTextInterp(v *ast.TextInterp) Expr {
	start := v.Span()
	var acc Expr
	concat := func(a, b Expr) Expr {
		return &Call{
			base: base{Id: d.ids.fresh(), Sp: start},
			Func: &Var{base: base{Id: d.ids.fresh(), Sp: start}, Name: "__text_concat"},
			Args: []Expr{a, b},
		}
	}
	for _, part := range v.Parts {
		var cur Expr
		if part.Expr != nil {
			cur = d.desugarExpr(part.Expr)
		} else {
			cur = &Lit{base: base{Id: d.ids.fresh(), Sp: start}, Kind: ast.LitString, Value: part.Text}
		}
		if acc == nil {
			acc = cur
		} else {
			acc = concat(acc, cur)
		}
	}
	if acc == nil {
		acc = &Lit{base: base{Id: d.ids.fresh(), Sp: start}, Kind: ast.LitString, Value: ""}
	}
	return acc
}
