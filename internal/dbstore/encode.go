package dbstore

import (
	"encoding/base64"
	"fmt"

	"github.com/mendrik/aivi/internal/interp"
)

// Tag is the `t` discriminant of an encoded value (spec §6.5). BigInt,
// Rational, Decimal and Bytes are accepted tags for forward
// compatibility with encoded rows written by other aivi tooling; the
// runtime has no corresponding interp.Value yet, so Decode rejects them
// rather than guessing a representation (see DESIGN.md).
type Tag string

const (
	TagUnit        Tag = "Unit"
	TagBool        Tag = "Bool"
	TagInt         Tag = "Int"
	TagFloat       Tag = "Float"
	TagText        Tag = "Text"
	TagDateTime    Tag = "DateTime"
	TagBigInt      Tag = "BigInt"
	TagRational    Tag = "Rational"
	TagDecimal     Tag = "Decimal"
	TagBytes       Tag = "Bytes"
	TagList        Tag = "List"
	TagTuple       Tag = "Tuple"
	TagRecord      Tag = "Record"
	TagConstructor Tag = "Constructor"
)

// Encoded is the tagged-JSON envelope `{t, v}` a single value marshals
// to/from.
type Encoded struct {
	T Tag `json:"t"`
	V any `json:"v"`
}

type recordPayload struct {
	Names  []string           `json:"names"`
	Fields map[string]Encoded `json:"fields"`
}

type constructorPayload struct {
	TypeName string    `json:"typeName"`
	CtorName string    `json:"ctorName"`
	Arity    int       `json:"arity"`
	Fields   []Encoded `json:"fields"`
}

// Encode converts a runtime value into its tagged-JSON envelope.
func Encode(v interp.Value) (Encoded, error) {
	switch val := v.(type) {
	case *interp.UnitValue, nil:
		return Encoded{T: TagUnit, V: nil}, nil
	case *interp.BoolValue:
		return Encoded{T: TagBool, V: val.Value}, nil
	case *interp.IntValue:
		return Encoded{T: TagInt, V: val.Value}, nil
	case *interp.FloatValue:
		return Encoded{T: TagFloat, V: val.Value}, nil
	case *interp.StringValue:
		return Encoded{T: TagText, V: val.Value}, nil
	case *interp.DateTimeValue:
		return Encoded{T: TagDateTime, V: val.Value}, nil
	case *interp.ListValue:
		elems := make([]Encoded, len(val.Elements))
		for i, e := range val.Elements {
			enc, err := Encode(e)
			if err != nil {
				return Encoded{}, err
			}
			elems[i] = enc
		}
		return Encoded{T: TagList, V: elems}, nil
	case *interp.TupleValue:
		elems := make([]Encoded, len(val.Elements))
		for i, e := range val.Elements {
			enc, err := Encode(e)
			if err != nil {
				return Encoded{}, err
			}
			elems[i] = enc
		}
		return Encoded{T: TagTuple, V: elems}, nil
	case *interp.RecordValue:
		fields := make(map[string]Encoded, len(val.Fields))
		for name, fv := range val.Fields {
			enc, err := Encode(fv)
			if err != nil {
				return Encoded{}, err
			}
			fields[name] = enc
		}
		return Encoded{T: TagRecord, V: recordPayload{Names: append([]string(nil), val.Names...), Fields: fields}}, nil
	case *interp.ConstructorValue:
		fields := make([]Encoded, len(val.Fields))
		for i, f := range val.Fields {
			enc, err := Encode(f)
			if err != nil {
				return Encoded{}, err
			}
			fields[i] = enc
		}
		return Encoded{T: TagConstructor, V: constructorPayload{
			TypeName: val.TypeName, CtorName: val.CtorName, Arity: val.Arity, Fields: fields,
		}}, nil
	default:
		return Encoded{}, fmt.Errorf("dbstore: value of type %s has no persisted encoding", v.Type())
	}
}

// Decode converts a tagged-JSON envelope back into a runtime value.
func Decode(enc Encoded) (interp.Value, error) {
	switch enc.T {
	case TagUnit:
		return &interp.UnitValue{}, nil
	case TagBool:
		return &interp.BoolValue{Value: asBool(enc.V)}, nil
	case TagInt:
		n, err := asInt64(enc.V)
		if err != nil {
			return nil, err
		}
		return &interp.IntValue{Value: n}, nil
	case TagFloat:
		f, err := asFloat64(enc.V)
		if err != nil {
			return nil, err
		}
		return &interp.FloatValue{Value: f}, nil
	case TagText:
		return &interp.StringValue{Value: asString(enc.V)}, nil
	case TagDateTime:
		return &interp.DateTimeValue{Value: asString(enc.V)}, nil
	case TagList:
		items, err := asEncodedSlice(enc.V)
		if err != nil {
			return nil, err
		}
		elems := make([]interp.Value, len(items))
		for i, it := range items {
			dv, err := Decode(it)
			if err != nil {
				return nil, err
			}
			elems[i] = dv
		}
		return &interp.ListValue{Elements: elems}, nil
	case TagTuple:
		items, err := asEncodedSlice(enc.V)
		if err != nil {
			return nil, err
		}
		elems := make([]interp.Value, len(items))
		for i, it := range items {
			dv, err := Decode(it)
			if err != nil {
				return nil, err
			}
			elems[i] = dv
		}
		return &interp.TupleValue{Elements: elems}, nil
	case TagRecord:
		rp, err := asRecordPayload(enc.V)
		if err != nil {
			return nil, err
		}
		rec := interp.NewRecord()
		for _, name := range rp.Names {
			dv, err := Decode(rp.Fields[name])
			if err != nil {
				return nil, err
			}
			rec.Set(name, dv)
		}
		return rec, nil
	case TagConstructor:
		cp, err := asConstructorPayload(enc.V)
		if err != nil {
			return nil, err
		}
		fields := make([]interp.Value, len(cp.Fields))
		for i, f := range cp.Fields {
			dv, err := Decode(f)
			if err != nil {
				return nil, err
			}
			fields[i] = dv
		}
		return &interp.ConstructorValue{TypeName: cp.TypeName, CtorName: cp.CtorName, Arity: cp.Arity, Fields: fields}, nil
	case TagBigInt, TagRational, TagDecimal, TagBytes:
		return nil, fmt.Errorf("dbstore: tag %q has no runtime value representation yet", enc.T)
	default:
		return nil, fmt.Errorf("dbstore: unknown tag %q", enc.T)
	}
}

// encodeBytes is kept for callers that need the Bytes tag's base64
// convention even though Decode cannot yet turn it back into a Value.
func encodeBytes(b []byte) Encoded {
	return Encoded{T: TagBytes, V: base64.StdEncoding.EncodeToString(b)}
}
