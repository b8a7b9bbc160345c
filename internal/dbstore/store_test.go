package dbstore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mendrik/aivi/internal/interp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect(":memory:", false)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return New(db)
}

func TestCompareAndSwapRows_CreatesNewTable(t *testing.T) {
	s := openTestStore(t)
	rev, err := s.CompareAndSwapRows("users", 0, json.RawMessage(`["id","name"]`), json.RawMessage(`[[1,"a"]]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev != 1 {
		t.Errorf("expected rev 1 after first write, got %d", rev)
	}

	loadedRev, columns, rows, err := s.Load("users")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loadedRev != 1 {
		t.Errorf("expected loaded rev 1, got %d", loadedRev)
	}
	if string(columns) != `["id","name"]` {
		t.Errorf("unexpected columns: %s", columns)
	}
	if string(rows) != `[[1,"a"]]` {
		t.Errorf("unexpected rows: %s", rows)
	}
}

func TestCompareAndSwapRows_RejectsStaleRev(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CompareAndSwapRows("users", 0, json.RawMessage(`[]`), json.RawMessage(`[]`)); err != nil {
		t.Fatalf("initial write: %v", err)
	}
	if _, err := s.CompareAndSwapRows("users", 0, json.RawMessage(`[]`), json.RawMessage(`[["x"]]`)); !errors.Is(err, ErrConcurrentWrite) {
		t.Errorf("expected ErrConcurrentWrite for stale rev, got %v", err)
	}
}

func TestApplyDelta_SucceedsOnFirstTry(t *testing.T) {
	s := openTestStore(t)
	rev, err := s.ApplyDelta("counters", func(columns, rows json.RawMessage) (json.RawMessage, json.RawMessage, error) {
		return json.RawMessage(`["n"]`), json.RawMessage(`[[1]]`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev != 1 {
		t.Errorf("expected rev 1, got %d", rev)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	rec := interp.NewRecord()
	rec.Set("id", &interp.IntValue{Value: 42})
	rec.Set("name", &interp.StringValue{Value: "ada"})

	original := &interp.ListValue{Elements: []interp.Value{
		rec,
		&interp.ConstructorValue{TypeName: "Option", CtorName: "Some", Arity: 1, Fields: []interp.Value{&interp.BoolValue{Value: true}}},
	}}

	enc, err := Encode(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := json.Marshal(enc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var roundTripped Encoded
	if err := json.Unmarshal(raw, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	decoded, err := Decode(roundTripped)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	list, ok := decoded.(*interp.ListValue)
	if !ok || len(list.Elements) != 2 {
		t.Fatalf("expected a 2-element list, got %T", decoded)
	}
	gotRec, ok := list.Elements[0].(*interp.RecordValue)
	if !ok {
		t.Fatalf("expected first element to decode as a record, got %T", list.Elements[0])
	}
	if iv, ok := gotRec.Fields["id"].(*interp.IntValue); !ok || iv.Value != 42 {
		t.Errorf("expected id=42 to survive round trip, got %+v", gotRec.Fields["id"])
	}
	ctor, ok := list.Elements[1].(*interp.ConstructorValue)
	if !ok || ctor.CtorName != "Some" {
		t.Fatalf("expected second element to decode as Some(...), got %+v", list.Elements[1])
	}
}

func TestDecode_RejectsUnsupportedTag(t *testing.T) {
	if _, err := Decode(Encoded{T: TagBigInt, V: "123"}); err == nil {
		t.Error("expected an error decoding a BigInt tag with no runtime representation")
	}
}
