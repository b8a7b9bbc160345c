package interp

import (
	"fmt"
	"sync"

	"github.com/mendrik/aivi/internal/hir"
)

// Thunk defers evaluation of a top-level def until first use, caching
// the result. Recursive forcing of the same thunk (the in_progress
// flag) is rejected — spec §4.8.2: "Recursive forcing on the same
// thunk raises `recursive definition detected`".
type Thunk struct {
	mu         sync.Mutex
	name       string
	expr       hir.Expr
	env        *Environment
	inProgress bool
	forced     bool
	value      Value
	err        error
}

func NewThunk(name string, expr hir.Expr, env *Environment) *Thunk {
	return &Thunk{name: name, expr: expr, env: env}
}

func (t *Thunk) Type() string   { return "Thunk" }
func (t *Thunk) String() string { return fmt.Sprintf("<thunk:%s>", t.name) }

func (t *Thunk) Force(rt *Runtime) (Value, error) {
	t.mu.Lock()
	if t.forced {
		v, err := t.value, t.err
		t.mu.Unlock()
		return v, err
	}
	if t.inProgress {
		t.mu.Unlock()
		return nil, fmt.Errorf("recursive definition detected: %s", t.name)
	}
	t.inProgress = true
	t.mu.Unlock()

	value, err := rt.Eval(t.expr, t.env)

	t.mu.Lock()
	t.inProgress = false
	t.forced = true
	t.value, t.err = value, err
	t.mu.Unlock()
	return value, err
}
