package runtime

import (
	"fmt"

	"github.com/mendrik/aivi/internal/interp"
)

// numeric unwraps an Int or Float value to a float64 plus whether the
// original was an Int, so arithmetic can stay Int when both operands are.
func numeric(v interp.Value) (f float64, isInt bool, ok bool) {
	switch n := v.(type) {
	case *interp.IntValue:
		return float64(n.Value), true, true
	case *interp.FloatValue:
		return n.Value, false, true
	default:
		return 0, false, false
	}
}

func evalBinop(op string, l, r interp.Value) (interp.Value, error) {
	switch op {
	case "==":
		return &interp.BoolValue{Value: valuesEqualPublic(l, r)}, nil
	case "!=":
		return &interp.BoolValue{Value: !valuesEqualPublic(l, r)}, nil
	case "||":
		lb, lok := l.(*interp.BoolValue)
		rb, rok := r.(*interp.BoolValue)
		if !lok || !rok {
			return nil, fmt.Errorf("|| requires Bool operands (got %s, %s)", l.Type(), r.Type())
		}
		return &interp.BoolValue{Value: lb.Value || rb.Value}, nil
	case "&&":
		lb, lok := l.(*interp.BoolValue)
		rb, rok := r.(*interp.BoolValue)
		if !lok || !rok {
			return nil, fmt.Errorf("&& requires Bool operands (got %s, %s)", l.Type(), r.Type())
		}
		return &interp.BoolValue{Value: lb.Value && rb.Value}, nil
	case "..":
		li, lok := l.(*interp.IntValue)
		ri, rok := r.(*interp.IntValue)
		if !lok || !rok {
			return nil, fmt.Errorf(".. requires Int operands (got %s, %s)", l.Type(), r.Type())
		}
		var elems []interp.Value
		if li.Value <= ri.Value {
			for i := li.Value; i <= ri.Value; i++ {
				elems = append(elems, &interp.IntValue{Value: i})
			}
		} else {
			for i := li.Value; i >= ri.Value; i-- {
				elems = append(elems, &interp.IntValue{Value: i})
			}
		}
		return &interp.ListValue{Elements: elems}, nil
	}

	if ls, lok := l.(*interp.StringValue); lok {
		rs, rok := r.(*interp.StringValue)
		if !rok {
			return nil, fmt.Errorf("%s requires matching Text operands (got %s, %s)", op, l.Type(), r.Type())
		}
		switch op {
		case "<":
			return &interp.BoolValue{Value: ls.Value < rs.Value}, nil
		case ">":
			return &interp.BoolValue{Value: ls.Value > rs.Value}, nil
		case "<=":
			return &interp.BoolValue{Value: ls.Value <= rs.Value}, nil
		case ">=":
			return &interp.BoolValue{Value: ls.Value >= rs.Value}, nil
		case "+":
			return &interp.StringValue{Value: ls.Value + rs.Value}, nil
		default:
			return nil, fmt.Errorf("operator %q not defined on Text", op)
		}
	}

	lf, lIsInt, lok := numeric(l)
	rf, rIsInt, rok := numeric(r)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %q requires numeric operands (got %s, %s)", op, l.Type(), r.Type())
	}
	bothInt := lIsInt && rIsInt

	switch op {
	case "<":
		return &interp.BoolValue{Value: lf < rf}, nil
	case ">":
		return &interp.BoolValue{Value: lf > rf}, nil
	case "<=":
		return &interp.BoolValue{Value: lf <= rf}, nil
	case ">=":
		return &interp.BoolValue{Value: lf >= rf}, nil
	}

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if bothInt {
			return &interp.IntValue{Value: int64(lf) / int64(rf)}, nil
		}
		result = lf / rf
	case "%":
		if int64(rf) == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return &interp.IntValue{Value: int64(lf) % int64(rf)}, nil
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
	if bothInt {
		return &interp.IntValue{Value: int64(result)}, nil
	}
	return &interp.FloatValue{Value: result}, nil
}

func evalUnop(op string, v interp.Value) (interp.Value, error) {
	switch op {
	case "-":
		switch n := v.(type) {
		case *interp.IntValue:
			return &interp.IntValue{Value: -n.Value}, nil
		case *interp.FloatValue:
			return &interp.FloatValue{Value: -n.Value}, nil
		default:
			return nil, fmt.Errorf("unary - requires a numeric operand (got %s)", v.Type())
		}
	case "!":
		b, ok := v.(*interp.BoolValue)
		if !ok {
			return nil, fmt.Errorf("unary ! requires a Bool operand (got %s)", v.Type())
		}
		return &interp.BoolValue{Value: !b.Value}, nil
	default:
		return nil, fmt.Errorf("unknown unary operator %q", op)
	}
}

// valuesEqualPublic mirrors interp's internal structural equality for
// values reachable from builtins (no Closure/Builtin/Thunk case: those
// are never meaningfully comparable and fall through to false).
func valuesEqualPublic(a, b interp.Value) bool {
	switch av := a.(type) {
	case *interp.IntValue:
		bv, ok := b.(*interp.IntValue)
		return ok && av.Value == bv.Value
	case *interp.FloatValue:
		bv, ok := b.(*interp.FloatValue)
		return ok && av.Value == bv.Value
	case *interp.StringValue:
		bv, ok := b.(*interp.StringValue)
		return ok && av.Value == bv.Value
	case *interp.BoolValue:
		bv, ok := b.(*interp.BoolValue)
		return ok && av.Value == bv.Value
	case *interp.DateTimeValue:
		bv, ok := b.(*interp.DateTimeValue)
		return ok && av.Value == bv.Value
	case *interp.UnitValue:
		_, ok := b.(*interp.UnitValue)
		return ok
	case *interp.ConstructorValue:
		bv, ok := b.(*interp.ConstructorValue)
		if !ok || av.CtorName != bv.CtorName || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for i := range av.Fields {
			if !valuesEqualPublic(av.Fields[i], bv.Fields[i]) {
				return false
			}
		}
		return true
	case *interp.ListValue:
		bv, ok := b.(*interp.ListValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqualPublic(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *interp.TupleValue:
		bv, ok := b.(*interp.TupleValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqualPublic(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *interp.RecordValue:
		bv, ok := b.(*interp.RecordValue)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, fv := range av.Fields {
			ov, ok := bv.Fields[k]
			if !ok || !valuesEqualPublic(fv, ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// formatValue renders v the way print does: Text values print bare
// (no surrounding quotes), everything else uses its own String form.
func formatValue(v interp.Value) string {
	if s, ok := v.(*interp.StringValue); ok {
		return s.Value
	}
	return v.String()
}

// applyPatch applies a record patch literal (spec §4.8.5): for each
// entry, walks base's copy to the path's final field and either
// replaces it outright, or — if the updater itself is callable —
// applies it as a transform (updater receives the old value and the
// result becomes the new field value).
func applyPatch(rt *interp.Runtime, base *interp.RecordValue, patch *interp.PatchValue) (interp.Value, error) {
	result := base.Clone()
	for _, entry := range patch.Entries {
		if len(entry.Path) == 0 {
			continue
		}
		if err := applyPatchEntry(rt, result, entry); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func applyPatchEntry(rt *interp.Runtime, rec *interp.RecordValue, entry interp.PatchEntryValue) error {
	head := entry.Path[0]
	if len(entry.Path) > 1 {
		child, ok := rec.Fields[head.Name]
		if !ok {
			return fmt.Errorf("patch: record has no field %q", head.Name)
		}
		childRec, ok := child.(*interp.RecordValue)
		if !ok {
			return fmt.Errorf("patch: field %q is not a Record, cannot descend further", head.Name)
		}
		nested := childRec.Clone()
		if err := applyPatchEntry(rt, nested, interp.PatchEntryValue{Path: entry.Path[1:], Updater: entry.Updater, Env: entry.Env}); err != nil {
			return err
		}
		rec.Set(head.Name, nested)
		return nil
	}

	updater, err := rt.Eval(entry.Updater, entry.Env)
	if err != nil {
		return err
	}
	switch updater.(type) {
	case *interp.Closure, *interp.Builtin, *interp.MultiClause:
		old, ok := rec.Fields[head.Name]
		if !ok {
			return fmt.Errorf("patch: record has no field %q", head.Name)
		}
		next, err := rt.Apply(updater, []interp.Value{old})
		if err != nil {
			return err
		}
		rec.Set(head.Name, next)
	default:
		rec.Set(head.Name, updater)
	}
	return nil
}
