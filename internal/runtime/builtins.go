package runtime

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mendrik/aivi/internal/interp"
	"github.com/mendrik/aivi/internal/pool"
)

// BuiltinRegistry holds every name the desugarer may emit a bare Var
// reference to that isn't a module-level def or ADT constructor: the
// binop/unop operators, the effect primitives, and the namespace
// records (channel, concurrent, database, collections, Map, Set,
// Queue, clock, random, file) a program accesses via FieldAccess.
type BuiltinRegistry struct {
	builtins map[string]interp.Value
}

func NewBuiltinRegistry() *BuiltinRegistry {
	r := &BuiltinRegistry{builtins: make(map[string]interp.Value)}
	r.registerOperators()
	r.registerCore()
	r.registerNamespaces()
	return r
}

func (r *BuiltinRegistry) Get(name string) (interp.Value, bool) {
	v, ok := r.builtins[name]
	return v, ok
}

// Values returns the registry's backing map directly; interp.NewRuntime
// treats it as read-only so no copy is needed.
func (r *BuiltinRegistry) Values() map[string]interp.Value {
	return r.builtins
}

func (r *BuiltinRegistry) set(name string, arity int, fn func(rt *interp.Runtime, args []interp.Value) (interp.Value, error)) {
	r.builtins[name] = &interp.Builtin{Name: name, Arity: arity, Fn: fn}
}

// registerOperators wires __binop_*/__unary_* — the names the HIR
// desugarer (desugarBinary, and desugarExpr for UnaryOp) rewrites
// BinaryOp/UnaryOp expressions to.
func (r *BuiltinRegistry) registerOperators() {
	for _, op := range []string{"+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "..", "||", "&&"} {
		op := op
		r.set("__binop_"+op, 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
			return evalBinop(op, args[0], args[1])
		})
	}
	for _, op := range []string{"-", "!"} {
		op := op
		r.set("__unary_"+op, 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
			return evalUnop(op, args[0])
		})
	}
}

func (r *BuiltinRegistry) registerCore() {
	r.set("pure", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		v := args[0]
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) { return v, nil }}, nil
	})
	r.set("fail", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		v := args[0]
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			return nil, fmt.Errorf("%s", v.String())
		}}, nil
	})
	r.set("bind", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		e, f := args[0], args[1]
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			eff, ok := e.(*interp.EffectValue)
			if !ok {
				return nil, fmt.Errorf("bind: first argument is not an Effect (got %s)", e.Type())
			}
			v, err := eff.Run(rt)
			if err != nil {
				return nil, err
			}
			next, err := rt.Apply(f, []interp.Value{v})
			if err != nil {
				return nil, err
			}
			if nextEff, ok := next.(*interp.EffectValue); ok {
				return nextEff.Run(rt)
			}
			return next, nil
		}}, nil
	})
	r.set("attempt", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		e := args[0]
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			eff, ok := e.(*interp.EffectValue)
			if !ok {
				return nil, fmt.Errorf("attempt: argument is not an Effect (got %s)", e.Type())
			}
			v, err := eff.Run(rt)
			if err != nil {
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			return interp.Ok(v), nil
		}}, nil
	})
	r.set("print", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		v := args[0]
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			fmt.Println(formatValue(v))
			return &interp.UnitValue{}, nil
		}}, nil
	})

	r.set("__text_concat", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		a, ok := args[0].(*interp.StringValue)
		if !ok {
			return nil, fmt.Errorf("__text_concat: left operand is not Text (got %s)", args[0].Type())
		}
		b, ok := args[1].(*interp.StringValue)
		if !ok {
			return nil, fmt.Errorf("__text_concat: right operand is not Text (got %s)", args[1].Type())
		}
		return &interp.StringValue{Value: a.Value + b.Value}, nil
	})

	r.set("__with_default", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		primary, fallback := args[0], args[1]
		switch p := primary.(type) {
		case *interp.EffectValue:
			v, err := p.Run(rt)
			if err != nil {
				return fallback, nil
			}
			return v, nil
		case *interp.ConstructorValue:
			if p.CtorName == "Err" || p.CtorName == "None" {
				return fallback, nil
			}
			if p.CtorName == "Ok" || p.CtorName == "Some" {
				return p.Fields[0], nil
			}
			return primary, nil
		default:
			return primary, nil
		}
	})

	r.set("__patch_apply", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		rec, ok := args[0].(*interp.RecordValue)
		if !ok {
			return nil, fmt.Errorf("<| target is not a Record (got %s)", args[0].Type())
		}
		patch, ok := args[1].(*interp.PatchValue)
		if !ok {
			return nil, fmt.Errorf("<| right-hand side is not a Patch (got %s)", args[1].Type())
		}
		return applyPatch(rt, rec, patch)
	})

	r.set("map", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		fn, lst := args[0], args[1]
		lv, ok := lst.(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("map: second argument is not a List (got %s)", lst.Type())
		}
		out := make([]interp.Value, len(lv.Elements))
		for i, el := range lv.Elements {
			v, err := rt.Apply(fn, []interp.Value{el})
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return &interp.ListValue{Elements: out}, nil
	})
	r.set("filter", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		pred, lst := args[0], args[1]
		lv, ok := lst.(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("filter: second argument is not a List (got %s)", lst.Type())
		}
		var out []interp.Value
		for _, el := range lv.Elements {
			v, err := rt.Apply(pred, []interp.Value{el})
			if err != nil {
				return nil, err
			}
			if b, ok := v.(*interp.BoolValue); ok && b.Value {
				out = append(out, el)
			}
		}
		return &interp.ListValue{Elements: out}, nil
	})
	r.set("fold", 3, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		fn, acc, lst := args[0], args[1], args[2]
		lv, ok := lst.(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("fold: third argument is not a List (got %s)", lst.Type())
		}
		for _, el := range lv.Elements {
			v, err := rt.Apply(fn, []interp.Value{acc, el})
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})
}

// registerNamespaces wires the dotted-access builtin "modules" (channel,
// concurrent, database, collections, Map, Set, Queue, clock, random,
// file): each is a Record of Builtin fields, since FieldAccess on a
// bare Var is ordinary record field lookup at the HIR level.
func (r *BuiltinRegistry) registerNamespaces() {
	r.builtins["channel"] = namespaceChannel()
	r.builtins["concurrent"] = namespaceConcurrent()
	r.builtins["database"] = namespaceDatabase()
	r.builtins["collections"] = namespaceCollections()
	r.builtins["Map"] = namespaceMap()
	r.builtins["Set"] = namespaceSet()
	r.builtins["Queue"] = namespaceQueue()
	r.builtins["clock"] = namespaceClock()
	r.builtins["random"] = namespaceRandom(rand.New(rand.NewSource(time.Now().UnixNano())))
	r.builtins["file"] = namespaceFile()
}

func namespaceBuiltin(name string, arity int, fn func(rt *interp.Runtime, args []interp.Value) (interp.Value, error)) *interp.Builtin {
	return &interp.Builtin{Name: name, Arity: arity, Fn: fn}
}

func namespaceChannel() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("make", namespaceBuiltin("channel.make", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		send, recv := interp.MakeChannelPair()
		return &interp.TupleValue{Elements: []interp.Value{send, recv}}, nil
	}))
	ns.Set("send", namespaceBuiltin("channel.send", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		ch, ok := args[0].(*interp.ChannelValue)
		if !ok || ch.Kind != interp.ChanSend {
			return nil, fmt.Errorf("channel.send: first argument is not a sender")
		}
		return ch.Send(args[1]), nil
	}))
	ns.Set("recv", namespaceBuiltin("channel.recv", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		ch, ok := args[0].(*interp.ChannelValue)
		if !ok || ch.Kind != interp.ChanRecv {
			return nil, fmt.Errorf("channel.recv: argument is not a receiver")
		}
		return ch.Recv(), nil
	}))
	ns.Set("close", namespaceBuiltin("channel.close", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		ch, ok := args[0].(*interp.ChannelValue)
		if !ok {
			return nil, fmt.Errorf("channel.close: argument is not a channel end")
		}
		ch.Close()
		return &interp.UnitValue{}, nil
	}))
	return ns
}

// runEffectArg runs e (an Effect value) against child, its own Runtime
// so concurrent siblings each observe cancellation independently (spec
// §4.8.7, §5).
func runEffectArg(e interp.Value, child *interp.Runtime) (interp.Value, error) {
	eff, ok := e.(*interp.EffectValue)
	if !ok {
		return nil, fmt.Errorf("concurrent: argument is not an Effect (got %s)", e.Type())
	}
	return eff.Run(child)
}

func namespaceConcurrent() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("par", namespaceBuiltin("concurrent.par", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		l, r := args[0], args[1]
		type result struct {
			v   interp.Value
			err error
		}
		lc, rc := make(chan result, 1), make(chan result, 1)
		lchild, rchild := rt.Child(), rt.Child()
		go func() { v, err := runEffectArg(l, lchild); lc <- result{v, err} }()
		go func() { v, err := runEffectArg(r, rchild); rc <- result{v, err} }()
		lr, rr := <-lc, <-rc
		if lr.err != nil {
			rchild.Cancel()
			return nil, lr.err
		}
		if rr.err != nil {
			lchild.Cancel()
			return nil, rr.err
		}
		return &interp.TupleValue{Elements: []interp.Value{lr.v, rr.v}}, nil
	}))
	ns.Set("race", namespaceBuiltin("concurrent.race", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		l, r := args[0], args[1]
		type result struct {
			v   interp.Value
			err error
		}
		out := make(chan result, 2)
		lchild, rchild := rt.Child(), rt.Child()
		go func() { v, err := runEffectArg(l, lchild); out <- result{v, err} }()
		go func() { v, err := runEffectArg(r, rchild); out <- result{v, err} }()
		winner := <-out
		lchild.Cancel()
		rchild.Cancel()
		if winner.err != nil {
			return nil, winner.err
		}
		return winner.v, nil
	}))
	ns.Set("spawnDetached", namespaceBuiltin("concurrent.spawnDetached", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		eff, ok := args[0].(*interp.EffectValue)
		if !ok {
			return nil, fmt.Errorf("concurrent.spawnDetached: argument is not an Effect")
		}
		child := rt.Child()
		go func() { _, _ = eff.Run(child) }()
		return &interp.UnitValue{}, nil
	}))
	ns.Set("scope", namespaceBuiltin("concurrent.scope", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		eff, ok := args[0].(*interp.EffectValue)
		if !ok {
			return nil, fmt.Errorf("concurrent.scope: argument is not an Effect")
		}
		return eff.Run(rt.Child())
	}))
	return ns
}

func namespaceDatabase() *interp.RecordValue {
	ns := interp.NewRecord()
	poolNS := interp.NewRecord()
	poolNS.Set("create", namespaceBuiltin("database.pool.create", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		cfg, ok := args[0].(*interp.RecordValue)
		if !ok {
			return nil, fmt.Errorf("database.pool.create: config is not a Record")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			return pool.Create(rt, cfg)
		}}, nil
	}))
	poolNS.Set("withConn", namespaceBuiltin("database.pool.withConn", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		p, ok := args[0].(*pool.PoolValue)
		if !ok {
			return nil, fmt.Errorf("database.pool.withConn: first argument is not a Pool")
		}
		f := args[1]
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			return pool.WithConn(rt, p, f)
		}}, nil
	}))
	poolNS.Set("drain", namespaceBuiltin("database.pool.drain", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		p, ok := args[0].(*pool.PoolValue)
		if !ok {
			return nil, fmt.Errorf("database.pool.drain: argument is not a Pool")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) { return &interp.UnitValue{}, pool.Drain(rt, p) }}, nil
	}))
	poolNS.Set("close", namespaceBuiltin("database.pool.close", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		p, ok := args[0].(*pool.PoolValue)
		if !ok {
			return nil, fmt.Errorf("database.pool.close: argument is not a Pool")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) { return &interp.UnitValue{}, pool.Close(rt, p) }}, nil
	}))
	poolNS.Set("stats", namespaceBuiltin("database.pool.stats", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		p, ok := args[0].(*pool.PoolValue)
		if !ok {
			return nil, fmt.Errorf("database.pool.stats: argument is not a Pool")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			s := p.Stats()
			rec := interp.NewRecord()
			rec.Set("id", &interp.StringValue{Value: s.ID})
			rec.Set("size", &interp.IntValue{Value: int64(s.Size)})
			rec.Set("idle", &interp.IntValue{Value: int64(s.Idle)})
			rec.Set("inUse", &interp.IntValue{Value: int64(s.InUse)})
			rec.Set("waiters", &interp.IntValue{Value: int64(s.Waiters)})
			rec.Set("closed", &interp.BoolValue{Value: s.Closed})
			return rec, nil
		}}, nil
	}))
	ns.Set("pool", poolNS)
	return ns
}

func namespaceClock() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("now", namespaceBuiltin("clock.now", 0, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			now := time.Now()
			return &interp.DateTimeValue{Value: fmt.Sprintf("%d.%09dZ", now.Unix(), now.Nanosecond())}, nil
		}}, nil
	}))
	ns.Set("sleep", namespaceBuiltin("clock.sleep", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		ms, ok := args[0].(*interp.IntValue)
		if !ok {
			return nil, fmt.Errorf("clock.sleep: argument is not an Int")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			time.Sleep(time.Duration(ms.Value) * time.Millisecond)
			return &interp.UnitValue{}, nil
		}}, nil
	}))
	return ns
}

// namespaceRandom closes over a single generator (spec §4.8: "inclusive
// uniform integer using an LCG seeded from SystemTime"); math/rand's
// default source is itself an LCG-family generator seeded here from
// wall-clock time, matching that contract without hand-rolling the
// recurrence.
func namespaceRandom(src *rand.Rand) *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("int", namespaceBuiltin("random.int", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		lo, ok := args[0].(*interp.IntValue)
		if !ok {
			return nil, fmt.Errorf("random.int: min is not an Int")
		}
		hi, ok := args[1].(*interp.IntValue)
		if !ok {
			return nil, fmt.Errorf("random.int: max is not an Int")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			if hi.Value < lo.Value {
				return nil, fmt.Errorf("random.int: max %d < min %d", hi.Value, lo.Value)
			}
			span := hi.Value - lo.Value + 1
			return &interp.IntValue{Value: lo.Value + src.Int63n(span)}, nil
		}}, nil
	}))
	return ns
}

func namespaceFile() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("open", namespaceBuiltin("file.open", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		path, ok := args[0].(*interp.StringValue)
		if !ok {
			return nil, fmt.Errorf("file.open: argument is not Text")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			f, err := os.OpenFile(path.Value, os.O_RDWR|os.O_CREATE, 0o644)
			if err != nil {
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			return interp.Ok(&fileHandle{f: f}), nil
		}}, nil
	}))
	ns.Set("close", namespaceBuiltin("file.close", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		h, ok := args[0].(*fileHandle)
		if !ok {
			return nil, fmt.Errorf("file.close: argument is not a file handle")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			if err := h.f.Close(); err != nil {
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			return interp.Ok(&interp.UnitValue{}), nil
		}}, nil
	}))
	ns.Set("read", namespaceBuiltin("file.read", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		h, ok := args[0].(*fileHandle)
		if !ok {
			return nil, fmt.Errorf("file.read: first argument is not a file handle")
		}
		n, ok := args[1].(*interp.IntValue)
		if !ok {
			return nil, fmt.Errorf("file.read: second argument is not an Int")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			buf := make([]byte, n.Value)
			read, err := h.f.Read(buf)
			if err != nil && read == 0 {
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			return interp.Ok(&interp.StringValue{Value: string(buf[:read])}), nil
		}}, nil
	}))
	ns.Set("readAll", namespaceBuiltin("file.readAll", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		h, ok := args[0].(*fileHandle)
		if !ok {
			return nil, fmt.Errorf("file.readAll: argument is not a file handle")
		}
		return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
			if _, err := h.f.Seek(0, 0); err != nil {
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			data, err := readAllFile(h.f)
			if err != nil {
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			return interp.Ok(&interp.StringValue{Value: string(data)}), nil
		}}, nil
	}))
	return ns
}

type fileHandle struct{ f *os.File }

func (h *fileHandle) Type() string   { return "FileHandle" }
func (h *fileHandle) String() string { return "<file>" }

func readAllFile(f *os.File) ([]byte, error) {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out, nil
		}
		if n == 0 {
			return out, nil
		}
	}
}
