package types

import "fmt"

// TypeEnv represents a type environment mapping names to types or schemes
type TypeEnv struct {
	bindings map[string]interface{} // Can be Type or *Scheme
	parent   *TypeEnv
}

// NewTypeEnv creates a new empty type environment
func NewTypeEnv() *TypeEnv {
	return &TypeEnv{
		bindings: make(map[string]interface{}),
		parent:   nil,
	}
}

// NewTypeEnvWithBuiltins seeds an environment with the schemes of every
// builtin the runtime's BuiltinRegistry registers (spec §4.8): the
// operator primitives the desugarer emits Var references to, the
// effect-monad primitives (pure/fail/bind/attempt), the list combinators,
// and a representative slice of the dotted namespace records. Namespace
// members not listed here type-check structurally through FieldAccess's
// row-extension rule rather than a named scheme.
func NewTypeEnvWithBuiltins() *TypeEnv {
	env := NewTypeEnv()

	num := func() *TVar2 { return &TVar2{Name: "a", Kind: Star} }

	for _, op := range []string{"+", "-", "*", "/", "%"} {
		a := num()
		env.bindBuiltin("__binop_"+op, &Scheme{
			TypeVars:    []string{a.Name},
			Constraints: []Constraint{{Class: "Num", Type: a}},
			Type:        &TFunc2{Params: []Type{a, a}, Return: a},
		})
	}
	for _, op := range []string{"<", ">", "<=", ">="} {
		a := num()
		env.bindBuiltin("__binop_"+op, &Scheme{
			TypeVars:    []string{a.Name},
			Constraints: []Constraint{{Class: "Ord", Type: a}},
			Type:        &TFunc2{Params: []Type{a, a}, Return: TBool},
		})
	}
	for _, op := range []string{"==", "!="} {
		a := num()
		env.bindBuiltin("__binop_"+op, &Scheme{
			TypeVars:    []string{a.Name},
			Constraints: []Constraint{{Class: "Eq", Type: a}},
			Type:        &TFunc2{Params: []Type{a, a}, Return: TBool},
		})
	}
	for _, op := range []string{"||", "&&"} {
		env.bindBuiltin("__binop_"+op, &Scheme{
			Type: &TFunc2{Params: []Type{TBool, TBool}, Return: TBool},
		})
	}
	env.bindBuiltin("__binop_..", &Scheme{
		Type: &TFunc2{Params: []Type{TInt, TInt}, Return: &TList{Element: TInt}},
	})
	env.bindBuiltin("__unary_-", &Scheme{
		TypeVars:    []string{"a"},
		Constraints: []Constraint{{Class: "Num", Type: &TVar2{Name: "a", Kind: Star}}},
		Type:        &TFunc2{Params: []Type{&TVar2{Name: "a", Kind: Star}}, Return: &TVar2{Name: "a", Kind: Star}},
	})
	env.bindBuiltin("__unary_!", &Scheme{Type: &TFunc2{Params: []Type{TBool}, Return: TBool}})

	// pure : a -> Effect a
	env.bindBuiltin("pure", &Scheme{
		TypeVars: []string{"a"},
		Type: &TFunc2{
			Params: []Type{&TVar2{Name: "a", Kind: Star}},
			Return: effectOf(&TVar2{Name: "a", Kind: Star}),
		},
	})
	// fail : string -> Effect a
	env.bindBuiltin("fail", &Scheme{
		TypeVars: []string{"a"},
		Type: &TFunc2{
			Params: []Type{TString},
			Return: effectOf(&TVar2{Name: "a", Kind: Star}),
		},
	})
	// bind : Effect a -> (a -> Effect b) -> Effect b
	env.bindBuiltin("bind", &Scheme{
		TypeVars: []string{"a", "b"},
		Type: &TFunc2{
			Params: []Type{
				effectOf(&TVar2{Name: "a", Kind: Star}),
				&TFunc2{Params: []Type{&TVar2{Name: "a", Kind: Star}}, Return: effectOf(&TVar2{Name: "b", Kind: Star})},
			},
			Return: effectOf(&TVar2{Name: "b", Kind: Star}),
		},
	})
	// attempt : Effect a -> Effect (Result a)
	env.bindBuiltin("attempt", &Scheme{
		TypeVars: []string{"a"},
		Type: &TFunc2{
			Params: []Type{effectOf(&TVar2{Name: "a", Kind: Star})},
			Return: effectOf(&TApp{Constructor: &TCon{Name: "Result"}, Args: []Type{&TVar2{Name: "a", Kind: Star}}}),
		},
	})
	// print : a -> Effect ()
	env.bindBuiltin("print", &Scheme{
		TypeVars: []string{"a"},
		Type: &TFunc2{
			Params:    []Type{&TVar2{Name: "a", Kind: Star}},
			EffectRow: &Row{Kind: EffectRow, Labels: map[string]Type{"IO": TUnit}},
			Return:    effectOf(TUnit),
		},
	})

	env.bindBuiltin("map", &Scheme{
		TypeVars: []string{"a", "b"},
		Type: &TFunc2{
			Params: []Type{
				&TFunc2{Params: []Type{&TVar2{Name: "a", Kind: Star}}, Return: &TVar2{Name: "b", Kind: Star}},
				&TList{Element: &TVar2{Name: "a", Kind: Star}},
			},
			Return: &TList{Element: &TVar2{Name: "b", Kind: Star}},
		},
	})
	env.bindBuiltin("filter", &Scheme{
		TypeVars: []string{"a"},
		Type: &TFunc2{
			Params: []Type{
				&TFunc2{Params: []Type{&TVar2{Name: "a", Kind: Star}}, Return: TBool},
				&TList{Element: &TVar2{Name: "a", Kind: Star}},
			},
			Return: &TList{Element: &TVar2{Name: "a", Kind: Star}},
		},
	})
	env.bindBuiltin("fold", &Scheme{
		TypeVars: []string{"a", "b"},
		Type: &TFunc2{
			Params: []Type{
				&TFunc2{Params: []Type{&TVar2{Name: "b", Kind: Star}, &TVar2{Name: "a", Kind: Star}}, Return: &TVar2{Name: "b", Kind: Star}},
				&TVar2{Name: "b", Kind: Star},
				&TList{Element: &TVar2{Name: "a", Kind: Star}},
			},
			Return: &TVar2{Name: "b", Kind: Star},
		},
	})

	env.bindBuiltin("__text_concat", &Scheme{Type: &TFunc2{Params: []Type{TString, TString}, Return: TString}})

	return env
}

// effectOf models the do-notation wrapper `pure`/`bind` operate over
// (spec §4.8's effect blocks): Effect[T] is an opaque type application,
// unwrapped by inferBlock during block inference.
func effectOf(t Type) Type {
	return &TApp{Constructor: &TCon{Name: "Effect"}, Args: []Type{t}}
}

// unwrapEffect peels Effect[T] to T if present, else returns t unchanged
// (a plain value used directly inside an effect block without pure/bind).
func unwrapEffect(t Type) Type {
	if app, ok := t.(*TApp); ok {
		if con, ok := app.Constructor.(*TCon); ok && con.Name == "Effect" && len(app.Args) == 1 {
			return app.Args[0]
		}
	}
	return t
}

// Extend creates a new environment with an additional binding
func (env *TypeEnv) Extend(name string, typ Type) *TypeEnv {
	newEnv := &TypeEnv{
		bindings: make(map[string]interface{}),
		parent:   env,
	}
	newEnv.bindings[name] = typ
	return newEnv
}

// ExtendScheme creates a new environment with a scheme binding
func (env *TypeEnv) ExtendScheme(name string, scheme *Scheme) *TypeEnv {
	newEnv := &TypeEnv{
		bindings: make(map[string]interface{}),
		parent:   env,
	}
	newEnv.bindings[name] = scheme
	return newEnv
}

// Lookup finds a type or scheme in the environment
func (env *TypeEnv) Lookup(name string) (interface{}, error) {
	if binding, ok := env.bindings[name]; ok {
		return binding, nil
	}
	if env.parent != nil {
		return env.parent.Lookup(name)
	}
	return nil, fmt.Errorf("unbound variable: %s", name)
}

// bindBuiltin adds a builtin to the environment (internal use)
func (env *TypeEnv) bindBuiltin(name string, scheme *Scheme) {
	env.bindings[name] = scheme
}

// FreeTypeVars returns all free type variables in the environment
func (env *TypeEnv) FreeTypeVars() map[string]bool {
	free := make(map[string]bool)
	env.collectFreeTypeVars(free)
	return free
}

func (env *TypeEnv) collectFreeTypeVars(free map[string]bool) {
	for _, binding := range env.bindings {
		switch b := binding.(type) {
		case Type:
			collectFreeTypeVars(b, free)
		case *Scheme:
			schemeVars := make(map[string]bool)
			for _, v := range b.TypeVars {
				schemeVars[v] = true
			}
			typeFree := freeTypeVars(b.Type)
			for v := range typeFree {
				if !schemeVars[v] {
					free[v] = true
				}
			}
		}
	}
	if env.parent != nil {
		env.parent.collectFreeTypeVars(free)
	}
}
