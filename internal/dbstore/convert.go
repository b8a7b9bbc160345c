package dbstore

import "fmt"

// The as* helpers accept both the typed Go values Encode produces
// directly and the generic map[string]any/[]any/float64 shapes that
// come back out of encoding/json after a round trip through the
// datatypes.JSON column — Decode must work for either caller.

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("dbstore: expected Int payload, got %T", v)
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("dbstore: expected Float payload, got %T", v)
	}
}

func asEncoded(v any) (Encoded, error) {
	switch e := v.(type) {
	case Encoded:
		return e, nil
	case map[string]any:
		tag, _ := e["t"].(string)
		return Encoded{T: Tag(tag), V: e["v"]}, nil
	default:
		return Encoded{}, fmt.Errorf("dbstore: expected encoded value, got %T", v)
	}
}

func asEncodedSlice(v any) ([]Encoded, error) {
	switch items := v.(type) {
	case []Encoded:
		return items, nil
	case []any:
		out := make([]Encoded, len(items))
		for i, it := range items {
			enc, err := asEncoded(it)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	default:
		return nil, fmt.Errorf("dbstore: expected array payload, got %T", v)
	}
}

func asRecordPayload(v any) (recordPayload, error) {
	switch rp := v.(type) {
	case recordPayload:
		return rp, nil
	case map[string]any:
		var out recordPayload
		if names, ok := rp["names"].([]any); ok {
			for _, n := range names {
				out.Names = append(out.Names, asString(n))
			}
		}
		out.Fields = map[string]Encoded{}
		if fields, ok := rp["fields"].(map[string]any); ok {
			for name, raw := range fields {
				enc, err := asEncoded(raw)
				if err != nil {
					return recordPayload{}, err
				}
				out.Fields[name] = enc
			}
		}
		return out, nil
	default:
		return recordPayload{}, fmt.Errorf("dbstore: expected record payload, got %T", v)
	}
}

func asConstructorPayload(v any) (constructorPayload, error) {
	switch cp := v.(type) {
	case constructorPayload:
		return cp, nil
	case map[string]any:
		out := constructorPayload{
			TypeName: asString(cp["typeName"]),
			CtorName: asString(cp["ctorName"]),
		}
		if arity, err := asInt64(cp["arity"]); err == nil {
			out.Arity = int(arity)
		}
		if fields, ok := cp["fields"].([]any); ok {
			for _, raw := range fields {
				enc, err := asEncoded(raw)
				if err != nil {
					return constructorPayload{}, err
				}
				out.Fields = append(out.Fields, enc)
			}
		}
		return out, nil
	default:
		return constructorPayload{}, fmt.Errorf("dbstore: expected constructor payload, got %T", v)
	}
}
