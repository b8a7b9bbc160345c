package kernel

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/hir"
)

// idGen continues numbering from the maximum id found in the HIR input,
// so ids stay unique across the HIR/Kernel boundary (spec §4.6).
type idGen struct{ next int }

func (g *idGen) fresh() int {
	g.next++
	return g.next
}

type Lowerer struct {
	ids   idGen
	diags []diag.Diagnostic
}

// NewLowerer seeds the id counter one past the highest id appearing
// anywhere in prog.
func NewLowerer(prog *hir.Program) *Lowerer {
	l := &Lowerer{}
	l.ids.next = maxHIRID(prog)
	return l
}

func (l *Lowerer) Diagnostics() []diag.Diagnostic { return l.diags }

func (l *Lowerer) Lower(prog *hir.Program) *Program {
	out := &Program{ModuleName: prog.ModuleName}
	for _, def := range prog.Defs {
		out.Defs = append(out.Defs, &Def{
			Id:       l.ids.fresh(),
			Name:     def.Name,
			NameSpan: def.NameSpan,
			Body:     l.lower(def.Body),
		})
	}
	return out
}

func (l *Lowerer) lower(e hir.Expr) Expr {
	if e == nil {
		return nil
	}
	sp := e.Span()
	switch v := e.(type) {
	case *hir.Var:
		return &Var{base: base{Id: l.ids.fresh(), Sp: sp}, Name: v.Name}
	case *hir.Lit:
		return &Lit{base: base{Id: l.ids.fresh(), Sp: sp}, Kind: v.Kind, Value: v.Value, SigilTag: v.SigilTag, SigilBody: v.SigilBody}
	case *hir.Lambda:
		return l.curryLambda(v.Params, v.Body, sp)
	case *hir.Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = l.lower(a)
		}
		// Builtins/constructors with fixed name shapes keep multi-arg
		// Call; anything else (a plain function value being invoked)
		// curries into nested single-arg App, matching the kernel's dual
		// call forms (spec §3.4).
		if isFixedArityName(v.Func) {
			return &Call{base: base{Id: l.ids.fresh(), Sp: sp}, Func: l.lower(v.Func), Args: args}
		}
		fn := l.lower(v.Func)
		for _, a := range args {
			fn = &App{base: base{Id: l.ids.fresh(), Sp: sp}, Func: fn, Arg: a}
		}
		return fn
	case *hir.If:
		return &If{base: base{Id: l.ids.fresh(), Sp: sp}, Cond: l.lower(v.Cond), Then: l.lower(v.Then), Else: l.lower(v.Else)}
	case *hir.Match:
		cases := make([]MatchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = MatchCase{Pattern: c.Pattern, Guard: l.lower(c.Guard), Body: l.lower(c.Body)}
		}
		return &Match{base: base{Id: l.ids.fresh(), Sp: sp}, Scrutinee: l.lower(v.Scrutinee), Cases: cases}
	case *hir.Record:
		fields := make([]RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = RecordField{Name: f.Name, Value: l.lower(f.Value)}
		}
		return &Record{base: base{Id: l.ids.fresh(), Sp: sp}, Fields: fields, Spread: l.lower(v.Spread)}
	case *hir.Patch:
		entries := make([]PatchEntry, len(v.Entries))
		for i, ent := range v.Entries {
			entries[i] = PatchEntry{Path: ent.Path, Updater: l.lower(ent.Updater)}
		}
		return &Patch{base: base{Id: l.ids.fresh(), Sp: sp}, Entries: entries}
	case *hir.FieldAccess:
		return &FieldAccess{base: base{Id: l.ids.fresh(), Sp: sp}, Target: l.lower(v.Target), Path: v.Path}
	case *hir.Index:
		return &Index{base: base{Id: l.ids.fresh(), Sp: sp}, Target: l.lower(v.Target), Index: l.lower(v.Index), All: v.All}
	case *hir.Tuple:
		elems := make([]Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = l.lower(el)
		}
		return &Tuple{base: base{Id: l.ids.fresh(), Sp: sp}, Elements: elems}
	case *hir.List:
		items := make([]ListItem, len(v.Items))
		for i, it := range v.Items {
			items[i] = ListItem{Value: l.lower(it.Value), Spread: it.Spread}
		}
		return &List{base: base{Id: l.ids.fresh(), Sp: sp}, Items: items}
	case *hir.Block:
		if v.Kind == ast.BlockGenerate {
			return l.lowerGenerate(v.Items, 0, sp)
		}
		items := make([]BlockItem, len(v.Items))
		for i, it := range v.Items {
			items[i] = BlockItem{Kind: blockItemKind(it.Kind), Binder: it.Binder, Value: l.lower(it.Value)}
		}
		return &Block{base: base{Id: l.ids.fresh(), Sp: sp}, Kind: v.Kind, Items: items}
	case *hir.Send:
		return &Send{base: base{Id: l.ids.fresh(), Sp: sp}, Channel: l.lower(v.Channel), Value: l.lower(v.Value)}
	case *hir.Raw:
		return &Raw{base: base{Id: l.ids.fresh(), Sp: sp}, Text: v.Text}
	default:
		l.diags = append(l.diags, diag.Errorf("KER001", sp, "unsupported HIR node reaching kernel lowering"))
		return &Raw{base: base{Id: l.ids.fresh(), Sp: sp}, Text: "unsupported"}
	}
}

func blockItemKind(k hir.BlockItemKind) BlockItemKind {
	switch k {
	case hir.IBind:
		return IBind
	case hir.ILet:
		return ILet
	default:
		return IExpr
	}
}

func (l *Lowerer) curryLambda(params []string, body hir.Expr, sp diag.Span) Expr {
	if len(params) == 0 {
		return &Lambda{base: base{Id: l.ids.fresh(), Sp: sp}, Param: "_", Body: l.lower(body)}
	}
	inner := l.lower(body)
	for i := len(params) - 1; i >= 0; i-- {
		inner = &Lambda{base: base{Id: l.ids.fresh(), Sp: sp}, Param: params[i], Body: inner}
	}
	return inner
}

// isFixedArityName keeps the spec's named combinators/desugar helpers
// (__binop_*, __unary_*, __text_concat, __patch_apply, pure/fail/...) as
// multi-arg Call rather than curried App, matching their builtin
// contracts one for one.
func isFixedArityName(f hir.Expr) bool {
	v, ok := f.(*hir.Var)
	if !ok {
		return false
	}
	switch v.Name {
	case "__binop_+", "__binop_-", "__binop_*", "__binop_/", "__binop_%",
		"__binop_==", "__binop_!=", "__binop_<", "__binop_>", "__binop_<=", "__binop_>=",
		"__binop_..", "__binop_||", "__binop_&&",
		"__unary_-", "__unary_!",
		"__text_concat", "__patch_apply", "__with_default":
		return true
	}
	return len(v.Name) > 1 && v.Name[0] == '_' && v.Name[1] == '_'
}

// --- Church encoding of generate blocks (spec §4.6) ---
//
//   empty      = \k z . z
//   yield x    = \k z . k z x
//   append g1 g2 = \k z . g2 k (g1 k z)
//   if c next  = \k z . if c then next k z else z
//   bind g f   = \k z . g (\acc x . f(x) k acc) z
//
// Rather than re-deriving these lambda terms at every call site, the
// lowering emits calls to runtime-provided combinators named
// __gen_empty/__gen_yield/__gen_append/__gen_if/__gen_bind, which the
// runtime implements with exactly the above Church encodings — this
// keeps the Kernel tree small while preserving the fold semantics
// node-for-node.
func (l *Lowerer) lowerGenerate(items []hir.BlockItem, i int, sp diag.Span) Expr {
	if i >= len(items) {
		return genCall(l, "__gen_empty", sp)
	}
	item := items[i]
	switch item.Kind {
	case hir.IYield:
		val := l.lower(item.Value)
		rest := l.lowerGenerate(items, i+1, sp)
		return genCall(l, "__gen_append", sp, genCall(l, "__gen_yield", sp, val), rest)
	case hir.IBind:
		gen := l.lower(item.Value)
		restBody := l.lowerGenerate(items, i+1, sp)
		lam := &Lambda{base: base{Id: l.ids.fresh(), Sp: sp}, Param: binderName(item.Binder), Body: restBody}
		return genCall(l, "__gen_bind", sp, gen, lam)
	case hir.ILet:
		val := l.lower(item.Value)
		restBody := l.lowerGenerate(items, i+1, sp)
		lam := &Lambda{base: base{Id: l.ids.fresh(), Sp: sp}, Param: binderName(item.Binder), Body: restBody}
		return &App{base: base{Id: l.ids.fresh(), Sp: sp}, Func: lam, Arg: val}
	case hir.IFilter:
		cond := l.lower(item.Value)
		var cont Expr
		if item.OrElse != nil {
			cont = l.lower(item.OrElse)
		} else {
			cont = l.lowerGenerate(items, i+1, sp)
		}
		return genCall(l, "__gen_if", sp, cond, cont)
	case hir.IRecurse:
		l.diags = append(l.diags, diag.Errorf("KER001", sp, "recurse is unsupported in generate blocks"))
		return genCall(l, "__gen_empty", sp)
	default:
		val := l.lower(item.Value)
		restBody := l.lowerGenerate(items, i+1, sp)
		lam := &Lambda{base: base{Id: l.ids.fresh(), Sp: sp}, Param: "_", Body: restBody}
		return &App{base: base{Id: l.ids.fresh(), Sp: sp}, Func: lam, Arg: val}
	}
}

func genCall(l *Lowerer, name string, sp diag.Span, args ...Expr) Expr {
	return &Call{
		base: base{Id: l.ids.fresh(), Sp: sp},
		Func: &Var{base: base{Id: l.ids.fresh(), Sp: sp}, Name: name},
		Args: args,
	}
}

func binderName(p ast.Pattern) string {
	if id, ok := p.(*ast.Ident); ok {
		return id.Name
	}
	return "_"
}

func maxHIRID(prog *hir.Program) int {
	max := 0
	upd := func(id int) {
		if id > max {
			max = id
		}
	}
	var walk func(e hir.Expr)
	walk = func(e hir.Expr) {
		if e == nil {
			return
		}
		upd(e.ID())
		switch v := e.(type) {
		case *hir.Lambda:
			walk(v.Body)
		case *hir.Call:
			walk(v.Func)
			for _, a := range v.Args {
				walk(a)
			}
		case *hir.If:
			walk(v.Cond)
			walk(v.Then)
			walk(v.Else)
		case *hir.Match:
			walk(v.Scrutinee)
			for _, c := range v.Cases {
				walk(c.Guard)
				walk(c.Body)
			}
		case *hir.Record:
			walk(v.Spread)
			for _, f := range v.Fields {
				walk(f.Value)
			}
		case *hir.Patch:
			for _, ent := range v.Entries {
				walk(ent.Updater)
			}
		case *hir.FieldAccess:
			walk(v.Target)
		case *hir.Index:
			walk(v.Target)
			walk(v.Index)
		case *hir.Tuple:
			for _, el := range v.Elements {
				walk(el)
			}
		case *hir.List:
			for _, it := range v.Items {
				walk(it.Value)
			}
		case *hir.Block:
			for _, it := range v.Items {
				walk(it.Value)
				walk(it.OrElse)
				for _, oc := range it.OrCases {
					walk(oc.Guard)
					walk(oc.Body)
				}
			}
		case *hir.Send:
			walk(v.Channel)
			walk(v.Value)
		}
	}
	for _, def := range prog.Defs {
		upd(def.Id)
		walk(def.Body)
	}
	return max
}
