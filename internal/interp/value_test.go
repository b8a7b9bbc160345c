package interp

import "testing"

func TestRecordValue_SetPreservesInsertionOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("b", &IntValue{Value: 2})
	rec.Set("a", &IntValue{Value: 1})
	rec.Set("b", &IntValue{Value: 20}) // re-set must not move b to the end

	if got := rec.Names; len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("expected insertion order [b a], got %v", got)
	}
	if iv := rec.Fields["b"].(*IntValue); iv.Value != 20 {
		t.Fatalf("expected re-Set to overwrite the value, got %v", iv.Value)
	}
}

func TestRecordValue_CloneIsIndependent(t *testing.T) {
	rec := NewRecord()
	rec.Set("x", &IntValue{Value: 1})
	clone := rec.Clone()
	clone.Set("x", &IntValue{Value: 2})
	clone.Set("y", &IntValue{Value: 3})

	if iv := rec.Fields["x"].(*IntValue); iv.Value != 1 {
		t.Fatalf("expected original record untouched by clone mutation, got %v", iv.Value)
	}
	if _, ok := rec.Fields["y"]; ok {
		t.Fatal("expected original record not to gain fields added to the clone")
	}
}

func TestOkErr_WrapResultConstructor(t *testing.T) {
	ok := Ok(&IntValue{Value: 1})
	if ok.TypeName != "Result" || ok.CtorName != "Ok" || len(ok.Fields) != 1 {
		t.Fatalf("unexpected Ok shape: %+v", ok)
	}
	err := Err(&StringValue{Value: "boom"})
	if err.TypeName != "Result" || err.CtorName != "Err" || len(err.Fields) != 1 {
		t.Fatalf("unexpected Err shape: %+v", err)
	}
}

func TestConstructorValue_ApplyAccumulatesFieldsWithoutAliasing(t *testing.T) {
	base := &ConstructorValue{TypeName: "Pair", CtorName: "Pair", Arity: 2}
	withFirst := base.apply(&IntValue{Value: 1})
	withBoth := withFirst.apply(&IntValue{Value: 2})

	if len(base.Fields) != 0 {
		t.Fatalf("expected apply not to mutate the receiver, got %d fields", len(base.Fields))
	}
	if withFirst.saturated() {
		t.Fatal("expected a 1-of-2-field constructor not to be saturated")
	}
	if !withBoth.saturated() {
		t.Fatal("expected a 2-of-2-field constructor to be saturated")
	}
	if len(withFirst.Fields) != 1 {
		t.Fatalf("expected apply to leave withFirst with exactly 1 field, got %d", len(withFirst.Fields))
	}
}

func TestBuiltin_PartialApplicationAccumulatesArgsIndependently(t *testing.T) {
	b := &Builtin{Name: "add3", Arity: 3, Fn: func(rt *Runtime, args []Value) (Value, error) {
		sum := int64(0)
		for _, a := range args {
			sum += a.(*IntValue).Value
		}
		return &IntValue{Value: sum}, nil
	}}
	p1 := b.partial(&IntValue{Value: 1})
	p2 := p1.partial(&IntValue{Value: 2})
	p3 := p2.partial(&IntValue{Value: 3})

	if len(p1.args) != 1 || len(b.args) != 0 {
		t.Fatalf("expected partial to not mutate the receiver's args, got b=%d p1=%d", len(b.args), len(p1.args))
	}
	v, err := p3.Fn(nil, p3.args)
	if err != nil {
		t.Fatalf("Fn returned error: %v", err)
	}
	if iv := v.(*IntValue); iv.Value != 6 {
		t.Fatalf("expected sum 6, got %d", iv.Value)
	}
}

func TestValuesEqual(t *testing.T) {
	cases := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"equal ints", &IntValue{Value: 1}, &IntValue{Value: 1}, true},
		{"unequal ints", &IntValue{Value: 1}, &IntValue{Value: 2}, false},
		{"equal strings", &StringValue{Value: "a"}, &StringValue{Value: "a"}, true},
		{"different types", &IntValue{Value: 1}, &StringValue{Value: "1"}, false},
		{"equal lists", &ListValue{Elements: []Value{&IntValue{Value: 1}}}, &ListValue{Elements: []Value{&IntValue{Value: 1}}}, true},
		{"unequal-length lists", &ListValue{Elements: []Value{&IntValue{Value: 1}}}, &ListValue{}, false},
		{
			"equal constructors",
			&ConstructorValue{CtorName: "Some", Fields: []Value{&IntValue{Value: 1}}},
			&ConstructorValue{CtorName: "Some", Fields: []Value{&IntValue{Value: 1}}},
			true,
		},
		{
			"different constructor names",
			&ConstructorValue{CtorName: "Some", Fields: []Value{&IntValue{Value: 1}}},
			&ConstructorValue{CtorName: "None"},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := valuesEqual(tc.a, tc.b); got != tc.equal {
				t.Errorf("valuesEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.equal)
			}
		})
	}
}
