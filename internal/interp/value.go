// Package interp tree-walks a desugared HIR program whose `main` def
// evaluates to an Effect: thunks, multi-clause dispatch, pattern
// matching, record patches, effect/resource blocks, channels, and the
// concurrency primitives (spec §4.8, §5).
package interp

import (
	"fmt"
	"strings"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/hir"
)

// Value is any runtime value. Values are refcounted informally by Go's
// GC; there is no incremental cache or custom collector (non-goal).
type Value interface {
	Type() string
	String() string
}

type IntValue struct{ Value int64 }

func (v *IntValue) Type() string   { return "Int" }
func (v *IntValue) String() string { return fmt.Sprintf("%d", v.Value) }

type FloatValue struct{ Value float64 }

func (v *FloatValue) Type() string   { return "Float" }
func (v *FloatValue) String() string { return fmt.Sprintf("%g", v.Value) }

type StringValue struct{ Value string }

func (v *StringValue) Type() string   { return "Text" }
func (v *StringValue) String() string { return v.Value }

type BoolValue struct{ Value bool }

func (v *BoolValue) Type() string { return "Bool" }
func (v *BoolValue) String() string {
	if v.Value {
		return "True"
	}
	return "False"
}

type UnitValue struct{}

func (v *UnitValue) Type() string   { return "Unit" }
func (v *UnitValue) String() string { return "()" }

type DateTimeValue struct{ Value string }

func (v *DateTimeValue) Type() string   { return "DateTime" }
func (v *DateTimeValue) String() string { return v.Value }

type ListValue struct{ Elements []Value }

func (v *ListValue) Type() string { return "List" }
func (v *ListValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type TupleValue struct{ Elements []Value }

func (v *TupleValue) Type() string { return "Tuple" }
func (v *TupleValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RecordValue is an ordered field map: order is preserved so String()
// output and patch traversal are deterministic.
type RecordValue struct {
	Names  []string
	Fields map[string]Value
}

func NewRecord() *RecordValue { return &RecordValue{Fields: map[string]Value{}} }

func (r *RecordValue) Set(name string, v Value) {
	if _, ok := r.Fields[name]; !ok {
		r.Names = append(r.Names, name)
	}
	r.Fields[name] = v
}

// Clone returns a shallow copy whose Fields map is independent, so a
// patch on the clone never mutates the original record (spec §4.8.5).
func (r *RecordValue) Clone() *RecordValue {
	clone := &RecordValue{Names: append([]string(nil), r.Names...), Fields: make(map[string]Value, len(r.Fields))}
	for k, v := range r.Fields {
		clone.Fields[k] = v
	}
	return clone
}

func (r *RecordValue) Type() string { return "Record" }
func (r *RecordValue) String() string {
	parts := make([]string, len(r.Names))
	for i, n := range r.Names {
		parts[i] = fmt.Sprintf("%s: %s", n, r.Fields[n])
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Closure is a user-defined function value: env holds the lexical
// environment captured at the lambda's definition site. Params holds the
// remaining (not-yet-applied) parameter names — applying one argument
// extends Env and shrinks Params by one (spec §4.8.3 currying).
type Closure struct {
	Params []string
	Body   hir.Expr
	Env    *Environment
}

func (c *Closure) Type() string   { return "Function" }
func (c *Closure) String() string { return "<function>" }

// Builtin is a native function, applied via partial application until
// its declared arity is reached (spec §4.8.3).
type Builtin struct {
	Name  string
	Arity int
	Fn    func(rt *Runtime, args []Value) (Value, error)
	args  []Value
}

func (b *Builtin) Type() string   { return "Builtin" }
func (b *Builtin) String() string { return fmt.Sprintf("<builtin:%s>", b.Name) }

// partial returns a copy of b with one more argument accumulated.
func (b *Builtin) partial(arg Value) *Builtin {
	next := &Builtin{Name: b.Name, Arity: b.Arity, Fn: b.Fn, args: make([]Value, len(b.args), len(b.args)+1)}
	copy(next.args, b.args)
	next.args = append(next.args, arg)
	return next
}

// MultiClause bundles every def sharing a name into one callable value;
// apply tries each clause in declaration order (spec §4.8.1/§4.8.3).
type MultiClause struct {
	Name    string
	Clauses []Value
}

func (m *MultiClause) Type() string   { return "MultiClause" }
func (m *MultiClause) String() string { return fmt.Sprintf("<multi:%s>", m.Name) }

// ConstructorValue is a partially- or fully-applied ADT constructor.
type ConstructorValue struct {
	TypeName string
	CtorName string
	Arity    int
	Fields   []Value
}

func (c *ConstructorValue) Type() string { return c.TypeName }
func (c *ConstructorValue) String() string {
	if len(c.Fields) == 0 {
		return c.CtorName
	}
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s(%s)", c.CtorName, strings.Join(parts, ", "))
}

func (c *ConstructorValue) apply(arg Value) *ConstructorValue {
	next := &ConstructorValue{TypeName: c.TypeName, CtorName: c.CtorName, Arity: c.Arity, Fields: make([]Value, len(c.Fields), len(c.Fields)+1)}
	copy(next.Fields, c.Fields)
	next.Fields = append(next.Fields, arg)
	return next
}

func (c *ConstructorValue) saturated() bool { return len(c.Fields) >= c.Arity }

// Ok/Err helpers build the Result constructor values attempt/withDefault
// rely on.
func Ok(v Value) *ConstructorValue {
	return &ConstructorValue{TypeName: "Result", CtorName: "Ok", Arity: 1, Fields: []Value{v}}
}

func Err(v Value) *ConstructorValue {
	return &ConstructorValue{TypeName: "Result", CtorName: "Err", Arity: 1, Fields: []Value{v}}
}

// EffectValue wraps an un-run effectful computation: calling its Run
// field performs the actual side effect exactly once per run call
// (effects are not memoized the way thunks are).
type EffectValue struct {
	Run func(rt *Runtime) (Value, error)
}

func (e *EffectValue) Type() string   { return "Effect" }
func (e *EffectValue) String() string { return "<effect>" }

// ResourceValue models an acquire/release pair; the runtime's effect
// block evaluator acquires it automatically and schedules release as a
// LIFO cleanup (spec §4.8.6).
type ResourceValue struct {
	Acquire func(rt *Runtime) (Value, error)
	Release func(rt *Runtime, acquired Value) error
}

func (r *ResourceValue) Type() string   { return "Resource" }
func (r *ResourceValue) String() string { return "<resource>" }

type ChannelEndKind int

const (
	ChanSend ChannelEndKind = iota
	ChanRecv
)

type ChannelValue struct {
	Kind ChannelEndKind
	Chan *channelState
}

func (c *ChannelValue) Type() string {
	if c.Kind == ChanSend {
		return "Sender"
	}
	return "Receiver"
}
func (c *ChannelValue) String() string { return "<channel>" }

// PatchEntryValue is one `path: updater` pair captured at the point a
// patch literal is evaluated: Updater is deferred (run once per target
// record by __patch_apply, against the env the literal closed over).
type PatchEntryValue struct {
	Path    []ast.PathSegment
	Updater hir.Expr
	Env     *Environment
}

// PatchValue is the value a `{ path: updater, ... }` patch literal
// evaluates to; applying it to a record is the separate __patch_apply
// builtin (spec §4.8.5), matching how `x <| patch` desugars to an
// ordinary call rather than a dedicated HIR node.
type PatchValue struct {
	Entries []PatchEntryValue
}

func (p *PatchValue) Type() string   { return "Patch" }
func (p *PatchValue) String() string { return "<patch>" }
