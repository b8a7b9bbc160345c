// Package ast defines the surface syntax tree produced by the parser:
// modules, uses, exports, type signatures/decls/aliases, classes,
// instances, domains, defs, patterns, and expressions (spec §3.2).
//
// Every node carries a Span; the span-containment invariant (a node's
// span contains every child's span) is the parser's responsibility to
// maintain, not this package's — nodes here are plain data.
package ast

import (
	"fmt"
	"strings"

	"github.com/mendrik/aivi/internal/diag"
)

// Node is the base interface every AST node implements.
type Node interface {
	Span() diag.Span
	String() string
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Pattern is any pattern node.
type Pattern interface {
	Node
	patternNode()
}

// TypeExpr is a surface type annotation.
type TypeExpr interface {
	Node
	typeNode()
}

// ModuleItem is a top-level declaration inside a module.
type ModuleItem interface {
	Node
	moduleItemNode()
}

// Spanned is embedded by every concrete node to supply Span().
type Spanned struct {
	Sp diag.Span
}

func (s Spanned) Span() diag.Span { return s.Sp }

// ---------------------------------------------------------------------
// Module-level structure
// ---------------------------------------------------------------------

// Module is the root of a parsed source file.
type Module struct {
	Spanned
	Name        string
	NameSpan    diag.Span
	Exports     []ExportedName
	Uses        []*UseDecl
	Items       []ModuleItem
	Annotations []string
	Path        string
}

type ExportedName struct {
	Name string
	Span diag.Span
}

func (m *Module) String() string { return fmt.Sprintf("module %s", m.Name) }

// UseItemKind distinguishes value imports from domain imports (spec §3.2,
// §4.3: domain imports bring operator/literal-template names into scope).
type UseItemKind int

const (
	UseValue UseItemKind = iota
	UseDomain
)

type UseItem struct {
	Name string
	Kind UseItemKind
}

// UseDecl is a `use` declaration.
type UseDecl struct {
	Spanned
	Target   string
	Alias    string
	Wildcard bool
	Items    []UseItem
}

func (u *UseDecl) String() string {
	if u.Wildcard {
		return fmt.Sprintf("use %s.*", u.Target)
	}
	return fmt.Sprintf("use %s", u.Target)
}

// Def is a value/function definition. Decorators carry things like
// `@deprecated("msg")`, `@mcp_tool`, `@mcp_resource` verbatim (name plus
// raw argument text); later passes (resolver, mcpmanifest) interpret them.
type Def struct {
	Spanned
	Decorators []Decorator
	Name       string
	NameSpan   diag.Span
	Params     []Pattern
	Body       Expr
}

type Decorator struct {
	Name string
	Args []string
	Span diag.Span
}

func (d *Def) moduleItemNode() {}
func (d *Def) String() string  { return fmt.Sprintf("def %s", d.Name) }

// TypeSig is a standalone `name : Type` signature line.
type TypeSig struct {
	Spanned
	Name string
	Type TypeExpr
}

func (t *TypeSig) moduleItemNode() {}
func (t *TypeSig) String() string  { return fmt.Sprintf("%s : %s", t.Name, t.Type) }

// TypeDecl declares an algebraic or record type.
type TypeDecl struct {
	Spanned
	Name       string
	TypeParams []string
	Variants   []Constructor // non-empty => algebraic type
	Record     *RecordTypeExpr
}

type Constructor struct {
	Name   string
	Fields []TypeExpr
	Span   diag.Span
}

func (t *TypeDecl) moduleItemNode() {}
func (t *TypeDecl) String() string  { return fmt.Sprintf("type %s", t.Name) }

// TypeAlias declares `type Name = Type`.
type TypeAlias struct {
	Spanned
	Name string
	Type TypeExpr
}

func (t *TypeAlias) moduleItemNode() {}
func (t *TypeAlias) String() string  { return fmt.Sprintf("type %s = %s", t.Name, t.Type) }

// ClassDecl declares a type class.
type ClassDecl struct {
	Spanned
	Name    string
	Param   string
	Members []ClassMember
}

type ClassMember struct {
	Name string
	Type TypeExpr
	Span diag.Span
}

func (c *ClassDecl) moduleItemNode() {}
func (c *ClassDecl) String() string  { return fmt.Sprintf("class %s[%s]", c.Name, c.Param) }

// InstanceDecl declares an instance of a class for a concrete parameter.
type InstanceDecl struct {
	Spanned
	ClassName string
	Param     TypeExpr
	Defs      []*Def
}

func (i *InstanceDecl) moduleItemNode() {}
func (i *InstanceDecl) String() string  { return fmt.Sprintf("instance %s[%s]", i.ClassName, i.Param) }

// DomainDecl declares a domain: a bundle of operator overloads and
// literal templates brought into scope by a domain-kind use.
type DomainDecl struct {
	Spanned
	Name string
	Defs []*Def
}

func (d *DomainDecl) moduleItemNode() {}
func (d *DomainDecl) String() string  { return fmt.Sprintf("domain %s", d.Name) }

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

type Ident struct {
	Spanned
	Name string
}

func (i *Ident) exprNode()      {}
func (i *Ident) patternNode()   {}
func (i *Ident) String() string { return i.Name }

// Placeholder is a bare `_` used inside an expression; HIR desugar
// materializes it into a numbered lambda parameter (spec §4.5).
type Placeholder struct {
	Spanned
}

func (p *Placeholder) exprNode()      {}
func (p *Placeholder) String() string { return "_" }

type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitSigil
	LitBool
	LitDateTime
)

type Literal struct {
	Spanned
	Kind  LiteralKind
	Value string // raw textual form; int/float distinction resolved by the checker
	// Sigil-only fields
	SigilTag  string
	SigilBody string
}

func (l *Literal) exprNode()      {}
func (l *Literal) String() string { return l.Value }

// TextPart is one chunk of a string-interpolation template.
type TextPart struct {
	Text string // when Expr == nil
	Expr Expr   // when this part is an embedded expression
}

// TextInterp is a string literal containing `${...}` interpolations.
type TextInterp struct {
	Spanned
	Parts []TextPart
}

func (t *TextInterp) exprNode() {}
func (t *TextInterp) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, p := range t.Parts {
		if p.Expr != nil {
			sb.WriteString("${" + p.Expr.String() + "}")
		} else {
			sb.WriteString(p.Text)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

type ListItem struct {
	Value  Expr
	Spread bool // `...expr` spread item
}

type ListLit struct {
	Spanned
	Items []ListItem
}

func (l *ListLit) exprNode() {}
func (l *ListLit) String() string {
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		if it.Spread {
			parts[i] = "..." + it.Value.String()
		} else {
			parts[i] = it.Value.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type TupleLit struct {
	Spanned
	Elements []Expr
}

func (t *TupleLit) exprNode() {}
func (t *TupleLit) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type RecordFieldLit struct {
	Name  string
	Value Expr
	Span  diag.Span
}

// RecordLit is a closed record literal `{ a: 1, b: 2 }` unless Spread is
// set, in which case it is open (width-subtypes against the spread base).
type RecordLit struct {
	Spanned
	Fields []RecordFieldLit
	Spread Expr // optional `{ ...base, a: 1 }` base expression
}

func (r *RecordLit) exprNode() {}
func (r *RecordLit) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// PathSegment is one step of a patch/field-access path: `.name`, `[expr]`,
// or the bare `[*]` all-selector (spec §3.2).
type PathSegmentKind int

const (
	SegField PathSegmentKind = iota
	SegIndex
	SegAll
)

type PathSegment struct {
	Kind  PathSegmentKind
	Name  string // SegField
	Index Expr   // SegIndex (may itself be a predicate expression)
	Span  diag.Span
}

// PatchEntry is one `path: updater` pair inside a patch literal.
type PatchEntry struct {
	Path    []PathSegment
	Updater Expr
	Span    diag.Span
}

// PatchLit is a `{ path: updater, ... }` patch, applied via `<|`.
type PatchLit struct {
	Spanned
	Entries []PatchEntry
}

func (p *PatchLit) exprNode()      {}
func (p *PatchLit) String() string { return "<patch>" }

// FieldAccess is `expr.path...`.
type FieldAccess struct {
	Spanned
	Target Expr
	Path   []PathSegment
}

func (f *FieldAccess) exprNode()      {}
func (f *FieldAccess) String() string { return fmt.Sprintf("%s.<path>", f.Target) }

// FieldSection is the bare `.name` section, which desugars to
// `\_arg0 -> _arg0.name` (spec §4.5).
type FieldSection struct {
	Spanned
	Name string
}

func (f *FieldSection) exprNode()      {}
func (f *FieldSection) String() string { return "." + f.Name }

// IndexExpr is `target[index]` — index may contain unbound names that
// RustIR lowering rewrites into a predicate closure (spec §4.7).
type IndexExpr struct {
	Spanned
	Target Expr
	Index  Expr
	All    bool // target[*]
}

func (i *IndexExpr) exprNode()      {}
func (i *IndexExpr) String() string { return fmt.Sprintf("%s[%s]", i.Target, i.Index) }

type Call struct {
	Spanned
	Func Expr
	Args []Expr
}

func (c *Call) exprNode() {}
func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", c.Func, strings.Join(args, " "))
}

type Lambda struct {
	Spanned
	Params []Pattern
	Body   Expr
}

func (l *Lambda) exprNode() {}
func (l *Lambda) String() string {
	ps := make([]string, len(l.Params))
	for i, p := range l.Params {
		ps[i] = p.String()
	}
	return fmt.Sprintf("\\%s -> %s", strings.Join(ps, " "), l.Body)
}

type MatchCase struct {
	Pattern Pattern
	Guard   Expr // optional
	Body    Expr
	Span    diag.Span
}

// Match is a pattern match. When Scrutinee is nil, it encodes multi-clause
// sugar: a `match` with no explicit scrutinee is a unary function whose
// cases are the arms (spec §4.2).
type Match struct {
	Spanned
	Scrutinee Expr // nil for multi-clause sugar
	Cases     []MatchCase
}

func (m *Match) exprNode()      {}
func (m *Match) String() string { return "match" }

type If struct {
	Spanned
	Cond Expr
	Then Expr
	Else Expr
}

func (i *If) exprNode()      {}
func (i *If) String() string { return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else) }

type BinaryOp struct {
	Spanned
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryOp) exprNode()      {}
func (b *BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

type UnaryOp struct {
	Spanned
	Op      string
	Operand Expr
}

func (u *UnaryOp) exprNode()      {}
func (u *UnaryOp) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

// BlockKind distinguishes plain sequencing blocks from the three
// effectful block forms (spec §3.2, §3.3).
type BlockKind int

const (
	BlockPlain BlockKind = iota
	BlockEffect
	BlockGenerate
	BlockResource
)

func (k BlockKind) String() string {
	switch k {
	case BlockEffect:
		return "effect"
	case BlockGenerate:
		return "generate"
	case BlockResource:
		return "resource"
	default:
		return "plain"
	}
}

// BlockItemKind enumerates the statement forms inside a block.
type BlockItemKind int

const (
	ItemBind BlockItemKind = iota // x <- expr
	ItemLet                       // x = expr
	ItemFilter                    // expr -> (guard, generate-only)
	ItemYield                     // yield expr
	ItemRecurse                   // recurse expr...
	ItemExpr                      // bare expr
)

type BlockItem struct {
	Kind    BlockItemKind
	Binder  Pattern // ItemBind, ItemLet
	Value   Expr
	OrCases []MatchCase // ItemBind `or` fallback arms (spec §4.2)
	OrElse  Expr        // ItemBind `or fallback` result-fallback form
	Span    diag.Span
}

// Block is a `{ ... }` block of a given kind.
type Block struct {
	Spanned
	Kind  BlockKind
	Items []BlockItem
}

func (b *Block) exprNode()      {}
func (b *Block) String() string { return fmt.Sprintf("%s { ... }", b.Kind) }

// Send/Recv model the channel `<-` sugar used outside of effect blocks
// (e.g. formatter alignment, LSP) — the same textual operator as Bind,
// disambiguated by context during HIR desugar.
type Send struct {
	Spanned
	Channel Expr
	Value   Expr
}

func (s *Send) exprNode()      {}
func (s *Send) String() string { return fmt.Sprintf("%s <- %s", s.Channel, s.Value) }

// Raw preserves a construct the parser recognized but does not fully
// model (error recovery placeholder, spec §4.2 "continues past failures").
type Raw struct {
	Spanned
	Text string
}

func (r *Raw) exprNode()      {}
func (r *Raw) String() string { return fmt.Sprintf("<raw:%s>", r.Text) }

// ---------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------

type WildcardPattern struct{ Spanned }

func (w *WildcardPattern) patternNode()   {}
func (w *WildcardPattern) String() string { return "_" }

type LiteralPattern struct {
	Spanned
	Lit *Literal
}

func (l *LiteralPattern) patternNode()   {}
func (l *LiteralPattern) String() string { return l.Lit.String() }

type ConstructorPattern struct {
	Spanned
	Name string
	Args []Pattern
}

func (c *ConstructorPattern) patternNode() {}
func (c *ConstructorPattern) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

type TuplePattern struct {
	Spanned
	Elements []Pattern
}

func (t *TuplePattern) patternNode() {}
func (t *TuplePattern) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type ListPattern struct {
	Spanned
	Elements []Pattern
	Rest     Pattern // optional `...rest`
}

func (l *ListPattern) patternNode() {}
func (l *ListPattern) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	if l.Rest != nil {
		parts = append(parts, "..."+l.Rest.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type FieldPattern struct {
	Path    []PathSegment
	Pattern Pattern
	Span    diag.Span
}

type RecordPattern struct {
	Spanned
	Fields []FieldPattern
	Rest   bool
}

func (r *RecordPattern) patternNode()   {}
func (r *RecordPattern) String() string { return "{ ...record pattern }" }

// ---------------------------------------------------------------------
// Surface type expressions
// ---------------------------------------------------------------------

type TypeName struct {
	Spanned
	Name string
	Args []TypeExpr
}

func (t *TypeName) typeNode() {}
func (t *TypeName) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s %s", t.Name, strings.Join(parts, " "))
}

type FuncTypeExpr struct {
	Spanned
	Param  TypeExpr
	Result TypeExpr
}

func (f *FuncTypeExpr) typeNode()      {}
func (f *FuncTypeExpr) String() string { return fmt.Sprintf("%s -> %s", f.Param, f.Result) }

type TupleTypeExpr struct {
	Spanned
	Elements []TypeExpr
}

func (t *TupleTypeExpr) typeNode() {}
func (t *TupleTypeExpr) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type RecordTypeExpr struct {
	Spanned
	Fields []RecordFieldType
	Open   bool
}

type RecordFieldType struct {
	Name string
	Type TypeExpr
	Span diag.Span
}

func (r *RecordTypeExpr) typeNode() {}
func (r *RecordTypeExpr) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	tail := ""
	if r.Open {
		tail = ", ..."
	}
	return "{ " + strings.Join(parts, ", ") + tail + " }"
}

// Program is the root of one parsed compilation unit.
type Program struct {
	Module *Module
}
