// Package hir lowers the surface AST into a simplified tree with fresh
// integer node ids: placeholder lambdas are materialized, patch-vs-apply
// is disambiguated, field sections become lambdas, and lambdas over
// non-identifier patterns become match-wrapped identity lambdas (spec
// §3.3, §4.5).
package hir

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
)

// Node is the base of every HIR node: every node carries the id it was
// assigned during desugar, which later stages (Kernel, RustIR) must keep
// unique.
type Node interface {
	ID() int
	Span() diag.Span
}

type base struct {
	Id int
	Sp diag.Span
}

func (b base) ID() int          { return b.Id }
func (b base) Span() diag.Span  { return b.Sp }

type Expr interface {
	Node
	hirExprNode()
}

type Kind int

const (
	KVar Kind = iota
	KLit
	KLambda
	KCall
	KApp // single-arg application (introduced fully at Kernel stage, but HIR keeps it for |> desugar)
	KIf
	KMatch
	KRecord
	KPatch
	KFieldAccess
	KIndex
	KTuple
	KList
	KBlock
	KSend
	KRaw
)

// Var references a name; which namespace it resolves into (local,
// global, builtin, constructor) isn't decided until RustIR lowering.
type Var struct {
	base
	Name string
}

func (*Var) hirExprNode() {}

// Lit carries the same literal payload shape as the surface AST.
type Lit struct {
	base
	Kind      ast.LiteralKind
	Value     string
	SigilTag  string
	SigilBody string
}

func (*Lit) hirExprNode() {}

type Param struct {
	Name string // materialized identifier; non-ident patterns become MatchParam
}

// Lambda. Params are always plain names in HIR — the desugarer rewrites
// non-identifier lambda patterns into `\p -> match p { pat => body }`.
type Lambda struct {
	base
	Params []string
	Body   Expr
}

func (*Lambda) hirExprNode() {}

type Call struct {
	base
	Func Expr
	Args []Expr
}

func (*Call) hirExprNode() {}

type If struct {
	base
	Cond, Then, Else Expr
}

func (*If) hirExprNode() {}

type MatchCase struct {
	Pattern ast.Pattern // patterns are kept verbatim per spec §4.7
	Guard   Expr
	Body    Expr
}

type Match struct {
	base
	Scrutinee Expr
	Cases     []MatchCase
}

func (*Match) hirExprNode() {}

type RecordField struct {
	Name  string
	Value Expr
}

type Record struct {
	base
	Fields []RecordField
	Spread Expr
}

func (*Record) hirExprNode() {}

type PatchEntry struct {
	Path    []ast.PathSegment
	Updater Expr
}

type Patch struct {
	base
	Entries []PatchEntry
}

func (*Patch) hirExprNode() {}

type FieldAccess struct {
	base
	Target Expr
	Path   []ast.PathSegment
}

func (*FieldAccess) hirExprNode() {}

type Index struct {
	base
	Target Expr
	Index  Expr
	All    bool
}

func (*Index) hirExprNode() {}

type Tuple struct {
	base
	Elements []Expr
}

func (*Tuple) hirExprNode() {}

type ListItem struct {
	Value  Expr
	Spread bool
}

type List struct {
	base
	Items []ListItem
}

func (*List) hirExprNode() {}

type BlockItemKind int

const (
	IBind BlockItemKind = iota
	ILet
	IFilter
	IYield
	IRecurse
	IExpr
)

type BlockItem struct {
	Kind    BlockItemKind
	Binder  ast.Pattern
	Value   Expr
	OrCases []MatchCase
	OrElse  Expr
}

type Block struct {
	base
	Kind  ast.BlockKind
	Items []BlockItem
}

func (*Block) hirExprNode() {}

type Send struct {
	base
	Channel, Value Expr
}

func (*Send) hirExprNode() {}

// Raw preserves a construct that failed to desugar cleanly; it keeps the
// pipeline moving past errors (spec §4.2/§4.5 "continues past failures").
type Raw struct {
	base
	Text string
}

func (*Raw) hirExprNode() {}

// Def is a top-level HIR definition: a def with parameters becomes a
// Lambda with the same parameters (spec §4.5).
type Def struct {
	Id       int
	Name     string
	NameSpan diag.Span
	Body     Expr
}

// Program is a full desugared module: a def becomes a lambda with its
// params; top-level defs (including from instance/domain decls) are
// flattened into Defs.
type Program struct {
	ModuleName string
	Defs       []*Def
}

func (p *Program) String() string { return fmt.Sprintf("hir.Program(%s, %d defs)", p.ModuleName, len(p.Defs)) }
