// Package argdecode converts JSON-RPC tool-call arguments to aivi
// runtime values, typed against the curried signatures the MCP
// manifest derives (spec: JSON Schema generated from a def's type).
package argdecode

import (
	"encoding/json"
	"fmt"

	"github.com/mendrik/aivi/internal/interp"
	"github.com/mendrik/aivi/internal/types"
)

// DecodeError represents an argument decoding error.
type DecodeError struct {
	Expected string // Expected type (pretty-printed)
	Got      string // JSON value received
	Reason   string // Human-readable reason
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ARG_DECODE_MISMATCH: expected %s, got %s\n  %s", e.Expected, e.Got, e.Reason)
}

// DecodeJSON converts a JSON string to an interp.Value based on the
// expected type. Supports: null→Unit, number→Int/Float, string→Text,
// bool→Bool, array→List, object→Record.
func DecodeJSON(jsonStr string, expectedType types.Type) (interp.Value, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return decodeValue(raw, expectedType)
}

func decodeValue(raw interface{}, expectedType types.Type) (interp.Value, error) {
	switch typ := expectedType.(type) {
	case *types.TCon:
		switch typ.Name {
		case "()", "Unit", "unit":
			if raw == nil {
				return &interp.UnitValue{}, nil
			}
			return nil, &DecodeError{Expected: "()", Got: fmt.Sprintf("%v", raw), Reason: "expected null for Unit"}
		case "int", "Int":
			return decodeInt(raw)
		case "float", "Float":
			return decodeFloat(raw)
		case "string", "String", "Text":
			return decodeString(raw)
		case "bool", "Bool":
			return decodeBool(raw)
		default:
			return nil, fmt.Errorf("unsupported type constructor: %s", typ.Name)
		}

	case *types.TList:
		return decodeList(raw, typ.Element)

	case *types.TRecord:
		return decodeRecord(raw, typ)

	case *types.TVar:
		switch v := raw.(type) {
		case nil:
			return &interp.UnitValue{}, nil
		case float64:
			return &interp.IntValue{Value: int64(v)}, nil
		case string:
			return &interp.StringValue{Value: v}, nil
		case bool:
			return &interp.BoolValue{Value: v}, nil
		case []interface{}:
			return decodeList(raw, types.TInt)
		case map[string]interface{}:
			return nil, fmt.Errorf("cannot infer record type from JSON object with polymorphic type %s", typ.Name)
		default:
			return nil, fmt.Errorf("cannot infer type from JSON value: %v", raw)
		}

	default:
		return nil, fmt.Errorf("unsupported type for argument decoding: %T", expectedType)
	}
}

func decodeInt(raw interface{}) (interp.Value, error) {
	v, ok := raw.(float64)
	if !ok {
		return nil, &DecodeError{Expected: "Int", Got: fmt.Sprintf("%v (%T)", raw, raw), Reason: "expected JSON number for Int"}
	}
	return &interp.IntValue{Value: int64(v)}, nil
}

func decodeFloat(raw interface{}) (interp.Value, error) {
	v, ok := raw.(float64)
	if !ok {
		return nil, &DecodeError{Expected: "Float", Got: fmt.Sprintf("%v (%T)", raw, raw), Reason: "expected JSON number for Float"}
	}
	return &interp.FloatValue{Value: v}, nil
}

func decodeString(raw interface{}) (interp.Value, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, &DecodeError{Expected: "Text", Got: fmt.Sprintf("%v (%T)", raw, raw), Reason: "expected JSON string"}
	}
	return &interp.StringValue{Value: v}, nil
}

func decodeBool(raw interface{}) (interp.Value, error) {
	v, ok := raw.(bool)
	if !ok {
		return nil, &DecodeError{Expected: "Bool", Got: fmt.Sprintf("%v (%T)", raw, raw), Reason: "expected JSON boolean"}
	}
	return &interp.BoolValue{Value: v}, nil
}

func decodeList(raw interface{}, elemType types.Type) (interp.Value, error) {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, &DecodeError{Expected: fmt.Sprintf("[%s]", elemType), Got: fmt.Sprintf("%v (%T)", raw, raw), Reason: "expected JSON array for List"}
	}
	elements := make([]interp.Value, len(arr))
	for i, elem := range arr {
		val, err := decodeValue(elem, elemType)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		elements[i] = val
	}
	return &interp.ListValue{Elements: elements}, nil
}

func decodeRecord(raw interface{}, recordType *types.TRecord) (interp.Value, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &DecodeError{Expected: "record {...}", Got: fmt.Sprintf("%v (%T)", raw, raw), Reason: "expected JSON object for Record"}
	}
	rec := interp.NewRecord()
	for fieldName, fieldType := range recordType.Fields {
		jsonVal, exists := obj[fieldName]
		if !exists {
			return nil, &DecodeError{
				Expected: fmt.Sprintf("record with field %q", fieldName),
				Got:      fmt.Sprintf("object missing field %q", fieldName),
				Reason:   fmt.Sprintf("required field %q not found in JSON", fieldName),
			}
		}
		val, err := decodeValue(jsonVal, fieldType)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fieldName, err)
		}
		rec.Set(fieldName, val)
	}
	return rec, nil
}
