package mcpmanifest

import "github.com/mendrik/aivi/internal/ast"

func schemaUnknown() map[string]any { return map[string]any{} }

func schemaForName(name string) map[string]any {
	switch name {
	case "Int":
		return map[string]any{"type": "integer"}
	case "Float":
		return map[string]any{"type": "number"}
	case "Bool":
		return map[string]any{"type": "boolean"}
	case "Text":
		return map[string]any{"type": "string"}
	case "Unit":
		return map[string]any{"type": "null"}
	default:
		return schemaUnknown()
	}
}

func isRowOp(name string) bool {
	switch name {
	case "Pick", "Omit", "Optional", "Required", "Rename", "Defaulted":
		return true
	default:
		return false
	}
}

func isOptionType(t ast.TypeExpr) (ast.TypeExpr, bool) {
	if tn, ok := t.(*ast.TypeName); ok && tn.Name == "Option" && len(tn.Args) == 1 {
		return tn.Args[0], true
	}
	return nil, false
}

func wrapOption(t ast.TypeExpr) ast.TypeExpr {
	if _, ok := isOptionType(t); ok {
		return t
	}
	return &ast.TypeName{Name: "Option", Args: []ast.TypeExpr{t}}
}

func unwrapOption(t ast.TypeExpr) ast.TypeExpr {
	if inner, ok := isOptionType(t); ok {
		return inner
	}
	return t
}

// rowFields extracts the field-name selector list from a tuple of bare
// names or a single bare name (the selector shape row operators take).
func rowFields(t ast.TypeExpr) []string {
	switch v := t.(type) {
	case *ast.TupleTypeExpr:
		var out []string
		for _, e := range v.Elements {
			if tn, ok := e.(*ast.TypeName); ok && len(tn.Args) == 0 {
				out = append(out, tn.Name)
			}
		}
		return out
	case *ast.TypeName:
		if len(v.Args) == 0 {
			return []string{v.Name}
		}
	}
	return nil
}

func rowFieldsFromRecord(t ast.TypeExpr) []string {
	rt, ok := t.(*ast.RecordTypeExpr)
	if !ok {
		return nil
	}
	out := make([]string, len(rt.Fields))
	for i, f := range rt.Fields {
		out[i] = f.Name
	}
	return out
}

func rowRenameMap(t ast.TypeExpr) map[string]string {
	out := map[string]string{}
	rt, ok := t.(*ast.RecordTypeExpr)
	if !ok {
		return out
	}
	for _, f := range rt.Fields {
		if tn, ok := f.Type.(*ast.TypeName); ok && len(tn.Args) == 0 {
			out[f.Name] = tn.Name
		}
	}
	return out
}

type recordMap struct {
	order  []string
	fields map[string]ast.TypeExpr
}

func newRecordMap() *recordMap { return &recordMap{fields: map[string]ast.TypeExpr{}} }

func (r *recordMap) set(name string, t ast.TypeExpr) {
	if _, exists := r.fields[name]; !exists {
		r.order = append(r.order, name)
	}
	r.fields[name] = t
}

// recordMapFromType resolves a record type expression or a row-operator
// application down to its concrete field map (spec §6.3: "row operators
// rewrite the record type prior to schema emission").
func recordMapFromType(t ast.TypeExpr) (*recordMap, bool) {
	switch v := t.(type) {
	case *ast.RecordTypeExpr:
		rm := newRecordMap()
		for _, f := range v.Fields {
			rm.set(f.Name, f.Type)
		}
		return rm, true
	case *ast.TypeName:
		if !isRowOp(v.Name) || len(v.Args) != 2 {
			return nil, false
		}
		return rowOpRecordMap(v.Name, v.Args[0], v.Args[1])
	}
	return nil, false
}

func rowOpRecordMap(op string, selector, source ast.TypeExpr) (*recordMap, bool) {
	src, ok := recordMapFromType(source)
	if !ok {
		return nil, false
	}
	switch op {
	case "Pick":
		out := newRecordMap()
		for _, f := range rowFields(selector) {
			if t, ok := src.fields[f]; ok {
				out.set(f, t)
			}
		}
		return out, true
	case "Omit":
		omit := map[string]bool{}
		for _, f := range rowFields(selector) {
			omit[f] = true
		}
		out := newRecordMap()
		for _, name := range src.order {
			if !omit[name] {
				out.set(name, src.fields[name])
			}
		}
		return out, true
	case "Optional":
		for _, f := range rowFields(selector) {
			if t, ok := src.fields[f]; ok {
				src.fields[f] = wrapOption(t)
			}
		}
		return src, true
	case "Required":
		for _, f := range rowFields(selector) {
			if t, ok := src.fields[f]; ok {
				src.fields[f] = unwrapOption(t)
			}
		}
		return src, true
	case "Rename":
		renames := rowRenameMap(selector)
		out := newRecordMap()
		for _, name := range src.order {
			newName := name
			if alias, ok := renames[name]; ok {
				newName = alias
			}
			if _, exists := out.fields[newName]; exists {
				continue
			}
			out.set(newName, src.fields[name])
		}
		return out, true
	case "Defaulted":
		fields := rowFields(selector)
		if len(fields) == 0 {
			fields = rowFieldsFromRecord(selector)
		}
		for _, f := range fields {
			if t, ok := src.fields[f]; ok {
				src.fields[f] = wrapOption(t)
			}
		}
		return src, true
	default:
		return nil, false
	}
}

func schemaForRecordMap(rm *recordMap) map[string]any {
	props := map[string]any{}
	var required []any
	for _, name := range rm.order {
		ty := rm.fields[name]
		props[name] = schemaForType(ty)
		if _, isOpt := isOptionType(ty); !isOpt {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func schemaForType(t ast.TypeExpr) map[string]any {
	switch v := t.(type) {
	case *ast.TypeName:
		if len(v.Args) == 0 {
			return schemaForName(v.Name)
		}
		if isRowOp(v.Name) && len(v.Args) == 2 {
			if rm, ok := rowOpRecordMap(v.Name, v.Args[0], v.Args[1]); ok {
				return schemaForRecordMap(rm)
			}
			return schemaUnknown()
		}
		switch v.Name {
		case "List":
			if len(v.Args) == 1 {
				return map[string]any{"type": "array", "items": schemaForType(v.Args[0])}
			}
		case "Option":
			if len(v.Args) == 1 {
				return map[string]any{"anyOf": []any{schemaForType(v.Args[0]), map[string]any{"type": "null"}}}
			}
		case "Effect":
			if len(v.Args) == 2 {
				return schemaForType(v.Args[1])
			}
		case "Resource":
			if len(v.Args) == 1 {
				return schemaForType(v.Args[0])
			}
		}
		return schemaUnknown()
	case *ast.RecordTypeExpr:
		rm := newRecordMap()
		for _, f := range v.Fields {
			rm.set(f.Name, f.Type)
		}
		return schemaForRecordMap(rm)
	case *ast.TupleTypeExpr:
		prefix := make([]any, len(v.Elements))
		for i, e := range v.Elements {
			prefix[i] = schemaForType(e)
		}
		return map[string]any{"type": "array", "prefixItems": prefix, "items": false}
	case *ast.FuncTypeExpr:
		return map[string]any{"type": "object"}
	default:
		return schemaUnknown()
	}
}

func paramName(p ast.Pattern, index int) string {
	if id, ok := p.(*ast.Ident); ok {
		return id.Name
	}
	return argN(index)
}

func argN(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "arg" + string(digits[i])
	}
	// Params beyond 9 are vanishingly rare in curried signatures; fall
	// back to a simple decimal expansion.
	var buf []byte
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	return "arg" + string(buf)
}

// flattenParams walks a right-nested FuncTypeExpr chain into its
// ordered parameter types (spec §6.3: "parameters flatten into an
// object").
func flattenParams(t ast.TypeExpr) []ast.TypeExpr {
	var out []ast.TypeExpr
	for {
		fn, ok := t.(*ast.FuncTypeExpr)
		if !ok {
			return out
		}
		out = append(out, fn.Param)
		t = fn.Result
	}
}

func toolInputSchema(sig *ast.TypeSig, def *ast.Def) map[string]any {
	if sig == nil {
		return map[string]any{"type": "object"}
	}
	paramTypes := flattenParams(sig.Type)
	if len(paramTypes) == 0 {
		return map[string]any{"type": "object"}
	}

	props := map[string]any{}
	var required []any
	for i, ty := range paramTypes {
		name := argN(i)
		if def != nil && i < len(def.Params) {
			name = paramName(def.Params[i], i)
		}
		props[name] = schemaForType(ty)
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
