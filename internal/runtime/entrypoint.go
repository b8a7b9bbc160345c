package runtime

import (
	"fmt"

	"github.com/mendrik/aivi/internal/interp"
)

// GetArity returns the parameter count of a callable value: a Closure's
// remaining Params, a Builtin's declared Arity (arguments already
// accumulated by partial application are not subtracted), or a
// MultiClause's first clause's arity (every clause of one MultiClause
// is required to share arity, spec §4.8.1).
func GetArity(val interp.Value) (int, error) {
	switch fn := val.(type) {
	case *interp.Closure:
		return len(fn.Params), nil
	case *interp.Builtin:
		return fn.Arity, nil
	case *interp.MultiClause:
		if len(fn.Clauses) == 0 {
			return 0, fmt.Errorf("multi-clause function %s has no clauses", fn.Name)
		}
		return GetArity(fn.Clauses[0])
	default:
		return 0, fmt.Errorf("value is not a function (got %T)", val)
	}
}

// GetExportNames returns the export names of a module instance, in no
// particular order (map iteration order)
//
// This is a helper function for error messages.
//
// Parameters:
//   - inst: The module instance
//
// Returns:
//   - A slice of export names
func GetExportNames(inst *ModuleInstance) []string {
	return inst.ListExports()
}
