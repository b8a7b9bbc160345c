package types

import (
	"unicode"

	"github.com/mendrik/aivi/internal/ast"
)

// surfaceType converts a surface type annotation into the internal,
// row-polymorphic representation (spec §3.2/§4.4), collecting the names
// of any lowercase type variables it introduces so the caller can
// quantify a Scheme over them. Alias names are resolved (one level of
// indirection is enough: aivi does not permit recursive aliases).
func (c *Checker) surfaceType(te ast.TypeExpr) (Type, []string) {
	vars := make(map[string]*TVar2)
	t := c.surfaceTypeRec(te, vars)
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	return t, names
}

func (c *Checker) surfaceTypeRec(te ast.TypeExpr, vars map[string]*TVar2) Type {
	switch t := te.(type) {
	case *ast.TypeName:
		return c.surfaceTypeName(t, vars)
	case *ast.FuncTypeExpr:
		params, result := flattenFuncType(t)
		ps := make([]Type, len(params))
		for i, p := range params {
			ps[i] = c.surfaceTypeRec(p, vars)
		}
		return &TFunc2{Params: ps, Return: c.surfaceTypeRec(result, vars)}
	case *ast.TupleTypeExpr:
		elems := make([]Type, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = c.surfaceTypeRec(e, vars)
		}
		return &TTuple{Elements: elems}
	case *ast.RecordTypeExpr:
		labels := make(map[string]Type, len(t.Fields))
		for _, f := range t.Fields {
			labels[f.Name] = c.surfaceTypeRec(f.Type, vars)
		}
		var tail *RowVar
		if t.Open {
			c.freshCounter++
			tail = &RowVar{Name: freshRowName(c), Kind: RecordRow}
		}
		return &TRecord2{Row: &Row{Kind: RecordRow, Labels: labels, Tail: tail}}
	default:
		return c.fresh()
	}
}

func freshRowName(c *Checker) string {
	return "row" + itoa(c.freshCounter)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (c *Checker) surfaceTypeName(t *ast.TypeName, vars map[string]*TVar2) Type {
	if len(t.Args) == 0 && isLowerIdent(t.Name) {
		if tv, ok := vars[t.Name]; ok {
			return tv
		}
		tv := &TVar2{Name: t.Name, Kind: Star}
		vars[t.Name] = tv
		return tv
	}

	switch t.Name {
	case "Int", "int":
		return TInt
	case "Float", "float":
		return TFloat
	case "String", "string":
		return TString
	case "Bool", "bool":
		return TBool
	case "Unit", "()":
		return TUnit
	case "Bytes", "bytes":
		return TBytes
	case "List":
		if len(t.Args) == 1 {
			return &TList{Element: c.surfaceTypeRec(t.Args[0], vars)}
		}
	}

	if alias, ok := c.aliases[t.Name]; ok {
		return c.surfaceTypeRec(alias, vars)
	}

	if len(t.Args) == 0 {
		return &TCon{Name: t.Name}
	}
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = c.surfaceTypeRec(a, vars)
	}
	return &TApp{Constructor: &TCon{Name: t.Name}, Args: args}
}

// flattenFuncType uncurries a chain of `A -> B -> C` into its parameter
// list and final result, matching hir.Lambda/Call's multi-arg shape.
func flattenFuncType(te ast.TypeExpr) ([]ast.TypeExpr, ast.TypeExpr) {
	var params []ast.TypeExpr
	cur := te
	for {
		f, ok := cur.(*ast.FuncTypeExpr)
		if !ok {
			return params, cur
		}
		params = append(params, f.Param)
		cur = f.Result
	}
}

func isLowerIdent(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsLower(rune(s[0]))
}
