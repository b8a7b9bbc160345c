package rustir

import (
	"unicode"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/kernel"
)

// builtins is the fixed allowlist of names the runtime provides natively
// (spec §4.7): effect primitives, collection/channel/concurrency/database
// namespaces, and the desugar-introduced __-prefixed helpers.
var builtins = map[string]bool{
	"pure": true, "fail": true, "attempt": true, "bind": true, "print": true,
	"map": true, "filter": true, "fold": true, "channel": true, "concurrent": true,
	"database": true, "collections": true, "Map": true, "Set": true, "Queue": true,
	"clock": true, "random": true, "file": true,
	"__gen_empty": true, "__gen_yield": true, "__gen_append": true, "__gen_if": true, "__gen_bind": true,
	"__text_concat": true, "__patch_apply": true, "__with_default": true,
}

func init() {
	for _, op := range []string{"+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "..", "||", "&&"} {
		builtins["__binop_"+op] = true
	}
	for _, op := range []string{"-", "!"} {
		builtins["__unary_"+op] = true
	}
}

type Lowerer struct {
	globals map[string]bool
	locals  []string
	diags   []diag.Diagnostic
}

// NewLowerer takes the set of module-level def names visible as Globals.
func NewLowerer(globalNames []string) *Lowerer {
	g := make(map[string]bool, len(globalNames))
	for _, n := range globalNames {
		g[n] = true
	}
	return &Lowerer{globals: g}
}

func (l *Lowerer) Diagnostics() []diag.Diagnostic { return l.diags }

func (l *Lowerer) Lower(prog *kernel.Program) *Program {
	out := &Program{ModuleName: prog.ModuleName}
	for _, def := range prog.Defs {
		out.Defs = append(out.Defs, &Def{
			Id:       def.Id,
			Name:     def.Name,
			NameSpan: def.NameSpan,
			Body:     l.lower(def.Body),
		})
	}
	return out
}

func (l *Lowerer) pushLocal(name string) { l.locals = append(l.locals, name) }
func (l *Lowerer) popLocal()             { l.locals = l.locals[:len(l.locals)-1] }
func (l *Lowerer) isLocal(name string) bool {
	for _, n := range l.locals {
		if n == name {
			return true
		}
	}
	return false
}

func (l *Lowerer) classify(name string, sp diag.Span) VarKind {
	switch {
	case l.isLocal(name):
		return Local
	case builtins[name]:
		return Builtin
	case l.globals[name]:
		return Global
	case len(name) > 0 && unicode.IsUpper(rune(name[0])):
		return ConstructorValue
	default:
		l.diags = append(l.diags, diag.Errorf("RIR001", sp, "unbound variable %q", name))
		return Builtin // degrade gracefully rather than poison the tree
	}
}

func (l *Lowerer) lower(e kernel.Expr) Expr {
	if e == nil {
		return nil
	}
	sp := e.Span()
	switch v := e.(type) {
	case *kernel.Var:
		return &Var{base: base{Id: v.ID(), Sp: sp}, Name: v.Name, Kind: l.classify(v.Name, sp)}
	case *kernel.Lit:
		return &Lit{base: base{Id: v.ID(), Sp: sp}, Kind: v.Kind, Value: v.Value, SigilTag: v.SigilTag, SigilBody: v.SigilBody}
	case *kernel.Lambda:
		l.pushLocal(v.Param)
		body := l.lower(v.Body)
		l.popLocal()
		return &Lambda{base: base{Id: v.ID(), Sp: sp}, Param: v.Param, Body: body}
	case *kernel.App:
		return &App{base: base{Id: v.ID(), Sp: sp}, Func: l.lower(v.Func), Arg: l.lower(v.Arg)}
	case *kernel.Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = l.lower(a)
		}
		return &Call{base: base{Id: v.ID(), Sp: sp}, Func: l.lower(v.Func), Args: args}
	case *kernel.If:
		return &If{base: base{Id: v.ID(), Sp: sp}, Cond: l.lower(v.Cond), Then: l.lower(v.Then), Else: l.lower(v.Else)}
	case *kernel.Match:
		scrutinee := l.lower(v.Scrutinee)
		cases := make([]MatchCase, len(v.Cases))
		for i, c := range v.Cases {
			binders := patternBinders(c.Pattern)
			for _, b := range binders {
				l.pushLocal(b)
			}
			cases[i] = MatchCase{Id: i, Pattern: c.Pattern, Guard: l.lower(c.Guard), Body: l.lower(c.Body)}
			for range binders {
				l.popLocal()
			}
		}
		return &Match{base: base{Id: v.ID(), Sp: sp}, Scrutinee: scrutinee, Cases: cases}
	case *kernel.Record:
		fields := make([]RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = RecordField{Id: i, Name: f.Name, Value: l.lower(f.Value)}
		}
		return &Record{base: base{Id: v.ID(), Sp: sp}, Fields: fields, Spread: l.lower(v.Spread)}
	case *kernel.Patch:
		entries := make([]PatchEntry, len(v.Entries))
		for i, ent := range v.Entries {
			entries[i] = PatchEntry{Id: i, Path: l.lowerPath(ent.Path), Updater: l.lower(ent.Updater)}
		}
		return &Patch{base: base{Id: v.ID(), Sp: sp}, Entries: entries}
	case *kernel.FieldAccess:
		return &FieldAccess{base: base{Id: v.ID(), Sp: sp}, Target: l.lower(v.Target), Path: l.lowerPath(v.Path)}
	case *kernel.Index:
		return &Index{base: base{Id: v.ID(), Sp: sp}, Target: l.lower(v.Target), Seg: l.lowerIndexSegment(v.Index, v.All, sp)}
	case *kernel.Tuple:
		elems := make([]Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = l.lower(el)
		}
		return &Tuple{base: base{Id: v.ID(), Sp: sp}, Elements: elems}
	case *kernel.List:
		items := make([]ListItem, len(v.Items))
		for i, it := range v.Items {
			items[i] = ListItem{Value: l.lower(it.Value), Spread: it.Spread}
		}
		return &List{base: base{Id: v.ID(), Sp: sp}, Items: items}
	case *kernel.Block:
		items := make([]BlockItem, len(v.Items))
		pushed := 0
		for i, it := range v.Items {
			val := l.lower(it.Value)
			items[i] = BlockItem{Id: i, Kind: blockItemKind(it.Kind), Binder: it.Binder, Value: val}
			for _, b := range patternBinders(it.Binder) {
				l.pushLocal(b)
				pushed++
			}
		}
		for i := 0; i < pushed; i++ {
			l.popLocal()
		}
		return &Block{base: base{Id: v.ID(), Sp: sp}, Kind: v.Kind, Items: items}
	case *kernel.Send:
		return &Send{base: base{Id: v.ID(), Sp: sp}, Channel: l.lower(v.Channel), Value: l.lower(v.Value)}
	case *kernel.Raw:
		return &Raw{base: base{Id: v.ID(), Sp: sp}, Text: v.Text}
	default:
		l.diags = append(l.diags, diag.Errorf("RIR002", sp, "unsupported kernel node reaching rustir lowering"))
		return &Raw{base: base{Id: v.ID(), Sp: sp}, Text: "unsupported"}
	}
}

func blockItemKind(k kernel.BlockItemKind) BlockItemKind {
	switch k {
	case kernel.IBind:
		return IBind
	case kernel.ILet:
		return ILet
	default:
		return IExpr
	}
}

func patternBinders(p ast.Pattern) []string {
	var out []string
	var walk func(ast.Pattern)
	walk = func(p ast.Pattern) {
		switch v := p.(type) {
		case nil:
			return
		case *ast.Ident:
			out = append(out, v.Name)
		case *ast.ConstructorPattern:
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.TuplePattern:
			for _, el := range v.Elements {
				walk(el)
			}
		case *ast.ListPattern:
			for _, el := range v.Elements {
				walk(el)
			}
			if v.Rest != nil {
				walk(v.Rest)
			}
		case *ast.RecordPattern:
			for _, f := range v.Fields {
				walk(f.Pattern)
			}
		}
	}
	walk(p)
	return out
}

func (l *Lowerer) lowerPath(segs []ast.PathSegment) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		switch s.Kind {
		case ast.SegField:
			out[i] = Segment{Id: i, Kind: SegField, Name: s.Name, Span: s.Span}
		case ast.SegAll:
			out[i] = Segment{Id: i, Kind: SegIndexAll, Span: s.Span}
		default:
			out[i] = l.lowerIndexSegmentFromExpr(s.Index, s.Span)
		}
	}
	return out
}

func (l *Lowerer) lowerIndexSegment(index kernel.Expr, all bool, sp diag.Span) Segment {
	if all {
		return Segment{Kind: SegIndexAll, Span: sp}
	}
	return l.lowerIndexKernelExpr(index, sp)
}

// lowerIndexSegmentFromExpr handles the path-segment form (used by
// FieldAccess/Patch paths), which still carries raw ast.Expr at this
// point since path segments are never re-walked by the HIR/Kernel
// lowering passes (they're preserved verbatim, per spec §4.6/§4.7).
func (l *Lowerer) lowerIndexSegmentFromExpr(idx ast.Expr, sp diag.Span) Segment {
	free := freeNamesExcluding(idx, l.locals, l.globals, builtins)
	if len(free) == 0 {
		return Segment{Kind: SegIndexValue, Value: l.lowerBareAstExpr(idx), Span: sp}
	}
	if bareIdent, ok := idx.(*ast.Ident); ok && len(free) == 1 && free[0] == bareIdent.Name && bareIdent.Name != "key" && bareIdent.Name != "value" {
		return Segment{Kind: SegIndexFieldBool, Name: bareIdent.Name, Span: sp}
	}
	return Segment{Kind: SegIndexPredicate, Predicate: l.predicateClosure(idx, sp), Span: sp}
}

// lowerIndexKernelExpr mirrors lowerIndexSegmentFromExpr but starting
// from an already-lowered Kernel expression's original ast.Expr shape is
// unavailable; predicate rewriting on Kernel-stage Index nodes instead
// inspects the Kernel Expr tree directly for unbound Var names.
func (l *Lowerer) lowerIndexKernelExpr(index kernel.Expr, sp diag.Span) Segment {
	free := freeKernelVars(index, l.locals, l.globals, builtins)
	if len(free) == 0 {
		return Segment{Kind: SegIndexValue, Value: l.lower(index), Span: sp}
	}
	if v, ok := index.(*kernel.Var); ok && len(free) == 1 && free[0] == v.Name && v.Name != "key" && v.Name != "value" {
		return Segment{Kind: SegIndexFieldBool, Name: v.Name, Span: sp}
	}
	return Segment{Kind: SegIndexPredicate, Predicate: l.predicateClosureFromKernel(index, sp), Span: sp}
}

// predicateClosure rewrites every unbound name in idx to `__it.name` and
// wraps the result in a λ__it lambda, per spec §4.7.
func (l *Lowerer) predicateClosure(idx ast.Expr, sp diag.Span) *Lambda {
	rewritten := rewriteUnboundToField(idx, l.locals, l.globals, builtins)
	l.pushLocal("__it")
	body := l.lowerBareAstExpr(rewritten)
	l.popLocal()
	return &Lambda{base: base{Sp: sp}, Param: "__it", Body: body}
}

func (l *Lowerer) predicateClosureFromKernel(index kernel.Expr, sp diag.Span) *Lambda {
	l.pushLocal("__it")
	body := l.rewriteKernelUnboundToField(index)
	l.popLocal()
	return &Lambda{base: base{Sp: sp}, Param: "__it", Body: body}
}

// lowerBareAstExpr lowers an ast.Expr that never passed through HIR/Kernel
// (a predicate rewrite target) directly into RustIR, for the narrow set
// of shapes index predicates can contain.
func (l *Lowerer) lowerBareAstExpr(e ast.Expr) Expr {
	if e == nil {
		return nil
	}
	sp := e.Span()
	switch v := e.(type) {
	case *ast.Ident:
		return &Var{base: base{Sp: sp}, Name: v.Name, Kind: l.classify(v.Name, sp)}
	case *ast.Literal:
		return &Lit{base: base{Sp: sp}, Kind: v.Kind, Value: v.Value, SigilTag: v.SigilTag, SigilBody: v.SigilBody}
	case *ast.FieldAccess:
		return &FieldAccess{base: base{Sp: sp}, Target: l.lowerBareAstExpr(v.Target), Path: l.lowerPath(v.Path)}
	case *ast.BinaryOp:
		return &Call{base: base{Sp: sp}, Func: &Var{Name: "__binop_" + v.Op, Kind: Builtin}, Args: []Expr{l.lowerBareAstExpr(v.Left), l.lowerBareAstExpr(v.Right)}}
	case *ast.UnaryOp:
		return &Call{base: base{Sp: sp}, Func: &Var{Name: "__unary_" + v.Op, Kind: Builtin}, Args: []Expr{l.lowerBareAstExpr(v.Operand)}}
	case *ast.Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = l.lowerBareAstExpr(a)
		}
		return &Call{base: base{Sp: sp}, Func: l.lowerBareAstExpr(v.Func), Args: args}
	default:
		return &Raw{base: base{Sp: sp}, Text: "predicate-expr"}
	}
}

func (l *Lowerer) rewriteKernelUnboundToField(e kernel.Expr) Expr {
	switch v := e.(type) {
	case *kernel.Var:
		if !l.isLocal(v.Name) && !l.globals[v.Name] && !builtins[v.Name] {
			return &FieldAccess{base: base{Sp: v.Span()}, Target: &Var{Name: "__it", Kind: Local}, Path: []Segment{{Kind: SegField, Name: v.Name}}}
		}
		return l.lower(v)
	case *kernel.Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = l.rewriteKernelUnboundToField(a)
		}
		return &Call{base: base{Sp: v.Span()}, Func: l.rewriteKernelUnboundToField(v.Func), Args: args}
	default:
		return l.lower(e)
	}
}

// freeNamesExcluding collects identifier names in e that are neither
// locals, globals, nor builtins (the set RustIR lowering treats as
// "unbound" for predicate-path rewriting).
func freeNamesExcluding(e ast.Expr, locals []string, globals, builtinSet map[string]bool) []string {
	bound := func(name string) bool {
		for _, l := range locals {
			if l == name {
				return true
			}
		}
		return globals[name] || builtinSet[name]
	}
	seen := map[string]bool{}
	var out []string
	var walk func(ast.Expr)
	walk = func(x ast.Expr) {
		if x == nil {
			return
		}
		switch v := x.(type) {
		case *ast.Ident:
			if !bound(v.Name) && !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *ast.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryOp:
			walk(v.Operand)
		case *ast.FieldAccess:
			walk(v.Target)
		case *ast.Call:
			walk(v.Func)
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}

func freeKernelVars(e kernel.Expr, locals []string, globals, builtinSet map[string]bool) []string {
	bound := func(name string) bool {
		for _, l := range locals {
			if l == name {
				return true
			}
		}
		return globals[name] || builtinSet[name]
	}
	seen := map[string]bool{}
	var out []string
	var walk func(kernel.Expr)
	walk = func(x kernel.Expr) {
		switch v := x.(type) {
		case nil:
			return
		case *kernel.Var:
			if !bound(v.Name) && !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *kernel.Call:
			walk(v.Func)
			for _, a := range v.Args {
				walk(a)
			}
		case *kernel.FieldAccess:
			walk(v.Target)
		}
	}
	walk(e)
	return out
}

// rewriteUnboundToField rewrites every free (unbound) identifier in e to
// a `__it.name` field access, used only to build the source tree that
// predicateClosure then lowers under the λ__it scope.
func rewriteUnboundToField(e ast.Expr, locals []string, globals, builtinSet map[string]bool) ast.Expr {
	bound := func(name string) bool {
		for _, l := range locals {
			if l == name {
				return true
			}
		}
		return globals[name] || builtinSet[name]
	}
	var rewrite func(ast.Expr) ast.Expr
	rewrite = func(x ast.Expr) ast.Expr {
		switch v := x.(type) {
		case *ast.Ident:
			if bound(v.Name) {
				return v
			}
			return &ast.FieldAccess{Spanned: v.Spanned, Target: &ast.Ident{Name: "__it"}, Path: []ast.PathSegment{{Kind: ast.SegField, Name: v.Name}}}
		case *ast.BinaryOp:
			return &ast.BinaryOp{Spanned: v.Spanned, Op: v.Op, Left: rewrite(v.Left), Right: rewrite(v.Right)}
		case *ast.UnaryOp:
			return &ast.UnaryOp{Spanned: v.Spanned, Op: v.Op, Operand: rewrite(v.Operand)}
		case *ast.Call:
			args := make([]ast.Expr, len(v.Args))
			for i, a := range v.Args {
				args[i] = rewrite(a)
			}
			return &ast.Call{Spanned: v.Spanned, Func: rewrite(v.Func), Args: args}
		default:
			return x
		}
	}
	return rewrite(e)
}
