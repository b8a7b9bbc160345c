package runtime

import (
	"fmt"
	"strings"

	"github.com/mendrik/aivi/internal/interp"
)

// MapValue/SetValue/QueueValue back the Map/Set/Queue builtin
// namespaces: ordered association lists and slices rather than Go maps,
// since aivi values are compared structurally (valuesEqualPublic) and
// are not necessarily Go-hashable.

type MapValue struct {
	Keys []interp.Value
	Vals []interp.Value
}

func (m *MapValue) Type() string { return "Map" }
func (m *MapValue) String() string {
	parts := make([]string, len(m.Keys))
	for i := range m.Keys {
		parts[i] = fmt.Sprintf("%s: %s", m.Keys[i].String(), m.Vals[i].String())
	}
	return "Map{" + strings.Join(parts, ", ") + "}"
}

func (m *MapValue) indexOf(k interp.Value) int {
	for i, existing := range m.Keys {
		if valuesEqualPublic(existing, k) {
			return i
		}
	}
	return -1
}

type SetValue struct{ Elements []interp.Value }

func (s *SetValue) Type() string { return "Set" }
func (s *SetValue) String() string {
	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		parts[i] = e.String()
	}
	return "Set{" + strings.Join(parts, ", ") + "}"
}

type QueueValue struct{ Elements []interp.Value }

func (q *QueueValue) Type() string { return "Queue" }
func (q *QueueValue) String() string {
	parts := make([]string, len(q.Elements))
	for i, e := range q.Elements {
		parts[i] = e.String()
	}
	return "Queue[" + strings.Join(parts, ", ") + "]"
}

func namespaceMap() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("empty", &MapValue{})
	ns.Set("insert", namespaceBuiltin("Map.insert", 3, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		m, ok := args[0].(*MapValue)
		if !ok {
			return nil, fmt.Errorf("Map.insert: first argument is not a Map")
		}
		keys := append([]interp.Value(nil), m.Keys...)
		vals := append([]interp.Value(nil), m.Vals...)
		if i := (&MapValue{Keys: keys}).indexOf(args[1]); i >= 0 {
			vals[i] = args[2]
		} else {
			keys = append(keys, args[1])
			vals = append(vals, args[2])
		}
		return &MapValue{Keys: keys, Vals: vals}, nil
	}))
	ns.Set("get", namespaceBuiltin("Map.get", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		m, ok := args[0].(*MapValue)
		if !ok {
			return nil, fmt.Errorf("Map.get: first argument is not a Map")
		}
		if i := m.indexOf(args[1]); i >= 0 {
			return interp.Ok(m.Vals[i]), nil
		}
		return interp.Err(&interp.StringValue{Value: "NotFound"}), nil
	}))
	ns.Set("remove", namespaceBuiltin("Map.remove", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		m, ok := args[0].(*MapValue)
		if !ok {
			return nil, fmt.Errorf("Map.remove: first argument is not a Map")
		}
		i := m.indexOf(args[1])
		if i < 0 {
			return m, nil
		}
		keys := append(append([]interp.Value(nil), m.Keys[:i]...), m.Keys[i+1:]...)
		vals := append(append([]interp.Value(nil), m.Vals[:i]...), m.Vals[i+1:]...)
		return &MapValue{Keys: keys, Vals: vals}, nil
	}))
	ns.Set("size", namespaceBuiltin("Map.size", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		m, ok := args[0].(*MapValue)
		if !ok {
			return nil, fmt.Errorf("Map.size: argument is not a Map")
		}
		return &interp.IntValue{Value: int64(len(m.Keys))}, nil
	}))
	ns.Set("toList", namespaceBuiltin("Map.toList", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		m, ok := args[0].(*MapValue)
		if !ok {
			return nil, fmt.Errorf("Map.toList: argument is not a Map")
		}
		out := make([]interp.Value, len(m.Keys))
		for i := range m.Keys {
			out[i] = &interp.TupleValue{Elements: []interp.Value{m.Keys[i], m.Vals[i]}}
		}
		return &interp.ListValue{Elements: out}, nil
	}))
	return ns
}

func namespaceSet() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("empty", &SetValue{})
	ns.Set("insert", namespaceBuiltin("Set.insert", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		s, ok := args[0].(*SetValue)
		if !ok {
			return nil, fmt.Errorf("Set.insert: first argument is not a Set")
		}
		for _, e := range s.Elements {
			if valuesEqualPublic(e, args[1]) {
				return s, nil
			}
		}
		return &SetValue{Elements: append(append([]interp.Value(nil), s.Elements...), args[1])}, nil
	}))
	ns.Set("remove", namespaceBuiltin("Set.remove", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		s, ok := args[0].(*SetValue)
		if !ok {
			return nil, fmt.Errorf("Set.remove: first argument is not a Set")
		}
		var out []interp.Value
		for _, e := range s.Elements {
			if !valuesEqualPublic(e, args[1]) {
				out = append(out, e)
			}
		}
		return &SetValue{Elements: out}, nil
	}))
	ns.Set("contains", namespaceBuiltin("Set.contains", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		s, ok := args[0].(*SetValue)
		if !ok {
			return nil, fmt.Errorf("Set.contains: first argument is not a Set")
		}
		for _, e := range s.Elements {
			if valuesEqualPublic(e, args[1]) {
				return &interp.BoolValue{Value: true}, nil
			}
		}
		return &interp.BoolValue{Value: false}, nil
	}))
	ns.Set("size", namespaceBuiltin("Set.size", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		s, ok := args[0].(*SetValue)
		if !ok {
			return nil, fmt.Errorf("Set.size: argument is not a Set")
		}
		return &interp.IntValue{Value: int64(len(s.Elements))}, nil
	}))
	ns.Set("toList", namespaceBuiltin("Set.toList", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		s, ok := args[0].(*SetValue)
		if !ok {
			return nil, fmt.Errorf("Set.toList: argument is not a Set")
		}
		return &interp.ListValue{Elements: append([]interp.Value(nil), s.Elements...)}, nil
	}))
	return ns
}

func namespaceQueue() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("empty", &QueueValue{})
	ns.Set("push", namespaceBuiltin("Queue.push", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		q, ok := args[0].(*QueueValue)
		if !ok {
			return nil, fmt.Errorf("Queue.push: first argument is not a Queue")
		}
		return &QueueValue{Elements: append(append([]interp.Value(nil), q.Elements...), args[1])}, nil
	}))
	ns.Set("pop", namespaceBuiltin("Queue.pop", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		q, ok := args[0].(*QueueValue)
		if !ok {
			return nil, fmt.Errorf("Queue.pop: argument is not a Queue")
		}
		if len(q.Elements) == 0 {
			return interp.Err(&interp.StringValue{Value: "Empty"}), nil
		}
		head := q.Elements[0]
		rest := &QueueValue{Elements: append([]interp.Value(nil), q.Elements[1:]...)}
		return interp.Ok(&interp.TupleValue{Elements: []interp.Value{head, rest}}), nil
	}))
	ns.Set("isEmpty", namespaceBuiltin("Queue.isEmpty", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		q, ok := args[0].(*QueueValue)
		if !ok {
			return nil, fmt.Errorf("Queue.isEmpty: argument is not a Queue")
		}
		return &interp.BoolValue{Value: len(q.Elements) == 0}, nil
	}))
	ns.Set("size", namespaceBuiltin("Queue.size", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		q, ok := args[0].(*QueueValue)
		if !ok {
			return nil, fmt.Errorf("Queue.size: argument is not a Queue")
		}
		return &interp.IntValue{Value: int64(len(q.Elements))}, nil
	}))
	ns.Set("toList", namespaceBuiltin("Queue.toList", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		q, ok := args[0].(*QueueValue)
		if !ok {
			return nil, fmt.Errorf("Queue.toList: argument is not a Queue")
		}
		return &interp.ListValue{Elements: append([]interp.Value(nil), q.Elements...)}, nil
	}))
	return ns
}

// namespaceCollections holds List-oriented helpers too generic to live
// on any single ADT namespace.
func namespaceCollections() *interp.RecordValue {
	ns := interp.NewRecord()
	ns.Set("length", namespaceBuiltin("collections.length", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		l, ok := args[0].(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("collections.length: argument is not a List")
		}
		return &interp.IntValue{Value: int64(len(l.Elements))}, nil
	}))
	ns.Set("reverse", namespaceBuiltin("collections.reverse", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		l, ok := args[0].(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("collections.reverse: argument is not a List")
		}
		out := make([]interp.Value, len(l.Elements))
		for i, e := range l.Elements {
			out[len(out)-1-i] = e
		}
		return &interp.ListValue{Elements: out}, nil
	}))
	ns.Set("concat", namespaceBuiltin("collections.concat", 2, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		a, ok := args[0].(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("collections.concat: first argument is not a List")
		}
		b, ok := args[1].(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("collections.concat: second argument is not a List")
		}
		out := append(append([]interp.Value(nil), a.Elements...), b.Elements...)
		return &interp.ListValue{Elements: out}, nil
	}))
	ns.Set("isEmpty", namespaceBuiltin("collections.isEmpty", 1, func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		l, ok := args[0].(*interp.ListValue)
		if !ok {
			return nil, fmt.Errorf("collections.isEmpty: argument is not a List")
		}
		return &interp.BoolValue{Value: len(l.Elements) == 0}, nil
	}))
	return ns
}
