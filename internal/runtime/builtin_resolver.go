package runtime

import "sort"

// BuiltinNames returns every registered builtin/namespace name in
// sorted order. cmd/aivi's build and rustir commands pass this list to
// rustir.NewLowerer, so these names classify as known during Var
// classification (spec §4.7: Local/Builtin/Global/Constructor).
func (r *BuiltinRegistry) BuiltinNames() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is a registered builtin or namespace,
// without forcing the caller to hold onto the looked-up Value.
func (r *BuiltinRegistry) IsBuiltin(name string) bool {
	_, ok := r.builtins[name]
	return ok
}
