// Package kernel lowers HIR into the Kernel IR: sugar is gone, Call
// becomes either multi-arg Call or single-arg App, and generator blocks
// are Church-encoded into higher-order functions over a (step, seed)
// continuation pair (spec §3.4, §4.6).
package kernel

import (
	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
)

type Node interface {
	ID() int
	Span() diag.Span
}

type base struct {
	Id int
	Sp diag.Span
}

func (b base) ID() int         { return b.Id }
func (b base) Span() diag.Span { return b.Sp }

type Expr interface {
	Node
	kernelExprNode()
}

type Var struct {
	base
	Name string
}

func (*Var) kernelExprNode() {}

type Lit struct {
	base
	Kind      ast.LiteralKind
	Value     string
	SigilTag  string
	SigilBody string
}

func (*Lit) kernelExprNode() {}

// Lambda is always single-parameter in Kernel; multi-param HIR lambdas
// curry into nested Lambdas.
type Lambda struct {
	base
	Param string
	Body  Expr
}

func (*Lambda) kernelExprNode() {}

// App is single-argument application, the Kernel-native call form.
type App struct {
	base
	Func Expr
	Arg  Expr
}

func (*App) kernelExprNode() {}

// Call is kept alongside App for builtins/constructors whose arity is
// known and fixed; Kernel lower emits Call for these to avoid an
// artificially deep curry chain, per spec §3.4 ("Adds App (single-arg)
// alongside multi-arg Call").
type Call struct {
	base
	Func Expr
	Args []Expr
}

func (*Call) kernelExprNode() {}

type If struct {
	base
	Cond, Then, Else Expr
}

func (*If) kernelExprNode() {}

type MatchCase struct {
	Pattern ast.Pattern
	Guard   Expr
	Body    Expr
}

type Match struct {
	base
	Scrutinee Expr
	Cases     []MatchCase
}

func (*Match) kernelExprNode() {}

type RecordField struct {
	Name  string
	Value Expr
}

type Record struct {
	base
	Fields []RecordField
	Spread Expr
}

func (*Record) kernelExprNode() {}

type PatchEntry struct {
	Path    []ast.PathSegment
	Updater Expr
}

type Patch struct {
	base
	Entries []PatchEntry
}

func (*Patch) kernelExprNode() {}

type FieldAccess struct {
	base
	Target Expr
	Path   []ast.PathSegment
}

func (*FieldAccess) kernelExprNode() {}

type Index struct {
	base
	Target Expr
	Index  Expr
	All    bool
}

func (*Index) kernelExprNode() {}

type Tuple struct {
	base
	Elements []Expr
}

func (*Tuple) kernelExprNode() {}

type ListItem struct {
	Value  Expr
	Spread bool
}

type List struct {
	base
	Items []ListItem
}

func (*List) kernelExprNode() {}

// Block survives structurally for Effect and Resource kinds (spec §4.6
// "Other blocks are lowered structurally"); Generate blocks never reach
// this node — they fold into combinator App/Call chains instead.
type BlockItemKind int

const (
	IBind BlockItemKind = iota
	ILet
	IExpr
)

type BlockItem struct {
	Kind   BlockItemKind
	Binder ast.Pattern
	Value  Expr
}

type Block struct {
	base
	Kind  ast.BlockKind
	Items []BlockItem
}

func (*Block) kernelExprNode() {}

type Send struct {
	base
	Channel, Value Expr
}

func (*Send) kernelExprNode() {}

type Raw struct {
	base
	Text string
}

func (*Raw) kernelExprNode() {}

type Def struct {
	Id       int
	Name     string
	NameSpan diag.Span
	Body     Expr
}

type Program struct {
	ModuleName string
	Defs       []*Def
}
