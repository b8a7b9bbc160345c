// Package rustir lowers Kernel IR into RustIR: variables are classified
// at lowering time as Local|Global|Builtin|ConstructorValue, and index
// path segments are rewritten into Field|IndexValue|IndexFieldBool|
// IndexPredicate|IndexAll (spec §3.5, §4.7). Despite the name (inherited
// from the original Rust-targeting backend this spec distills), this
// package only produces a typed IR tree — no Rust/rustc output is
// generated here.
package rustir

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
	rustirExprNode()
}

// VarKind classifies where a Var resolves, decided once at lowering time
// so the runtime never has to re-derive it.
type VarKind int

const (
	Local VarKind = iota
	Global
	Builtin
	ConstructorValue
)

func (k VarKind) String() string {
	switch k {
	case Local:
		return "Local"
	case Global:
		return "Global"
	case Builtin:
		return "Builtin"
	default:
		return "ConstructorValue"
	}
}

type Var struct {
	base
	Name string
	Kind VarKind
}

func (*Var) rustirExprNode() {}

type Lit struct {
	base
	Kind      ast.LiteralKind
	Value     string
	SigilTag  string
	SigilBody string
}

func (*Lit) rustirExprNode() {}

type Lambda struct {
	base
	Param string
	Body  Expr
}

func (*Lambda) rustirExprNode() {}

type App struct {
	base
	Func Expr
	Arg  Expr
}

func (*App) rustirExprNode() {}

type Call struct {
	base
	Func Expr
	Args []Expr
}

func (*Call) rustirExprNode() {}

type If struct {
	base
	Cond, Then, Else Expr
}

func (*If) rustirExprNode() {}

type MatchCase struct {
	Id      int
	Pattern ast.Pattern
	Guard   Expr
	Body    Expr
}

type Match struct {
	base
	Scrutinee Expr
	Cases     []MatchCase
}

func (*Match) rustirExprNode() {}

type RecordField struct {
	Id    int
	Name  string
	Value Expr
}

type Record struct {
	base
	Fields []RecordField
	Spread Expr
}

func (*Record) rustirExprNode() {}

// SegmentKind enumerates the RustIR-native path segment forms. A plain
// surface `[expr]` index becomes one of IndexValue (closed expression, no
// free names), IndexFieldBool (bare unbound identifier, shorthand for
// "element.name is true"), or IndexPredicate (an unbound-name expression,
// rewritten into a one-argument closure over the element) — see
// predicate-path rewriting in lower.go (spec §4.7).
type SegmentKind int

const (
	SegField SegmentKind = iota
	SegIndexValue
	SegIndexFieldBool
	SegIndexPredicate
	SegIndexAll
)

type Segment struct {
	Id        int
	Kind      SegmentKind
	Name      string // SegField, SegIndexFieldBool
	Value     Expr   // SegIndexValue
	Predicate *Lambda // SegIndexPredicate: λ__it . rewritten
	Span      diag.Span
}

type PatchEntry struct {
	Id      int
	Path    []Segment
	Updater Expr
}

type Patch struct {
	base
	Entries []PatchEntry
}

func (*Patch) rustirExprNode() {}

type FieldAccess struct {
	base
	Target Expr
	Path   []Segment
}

func (*FieldAccess) rustirExprNode() {}

type Index struct {
	base
	Target Expr
	Seg    Segment
}

func (*Index) rustirExprNode() {}

type Tuple struct {
	base
	Elements []Expr
}

func (*Tuple) rustirExprNode() {}

type ListItem struct {
	Value  Expr
	Spread bool
}

type List struct {
	base
	Items []ListItem
}

func (*List) rustirExprNode() {}

type BlockItemKind int

const (
	IBind BlockItemKind = iota
	ILet
	IExpr
)

type BlockItem struct {
	Id     int
	Kind   BlockItemKind
	Binder ast.Pattern
	Value  Expr
}

type Block struct {
	base
	Kind  ast.BlockKind
	Items []BlockItem
}

func (*Block) rustirExprNode() {}

type Send struct {
	base
	Channel, Value Expr
}

func (*Send) rustirExprNode() {}

type Raw struct {
	base
	Text string
}

func (*Raw) rustirExprNode() {}

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
