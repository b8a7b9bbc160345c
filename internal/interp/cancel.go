package interp

import (
	"errors"
	"sync/atomic"
)

// ErrCancelled is returned (wrapped in an EffectValue's Run result, or
// directly from Eval) the moment a step observes the cancel flag set
// (spec §4.8.7, §5).
var ErrCancelled = errors.New("Cancelled")

// cancelFlag is an atomic per-Runtime cancellation switch; child
// Runtimes spawned by concurrent builtins get their own flag (spec §5:
// "each spawned task constructs a child Runtime ... with its own cancel
// flag").
type cancelFlag struct {
	flag    atomic.Bool
	uncancl atomic.Int32 // >0 while inside an uncancelable region
}

func (c *cancelFlag) set()    { c.flag.Store(true) }
func (c *cancelFlag) clear()  { c.flag.Store(false) }
func (c *cancelFlag) isSet() bool {
	return c.flag.Load() && c.uncancl.Load() == 0
}

// checkCancel is called at every evaluation step per spec §4.8.7.
func (rt *Runtime) checkCancel() error {
	if rt.cancel.isSet() {
		return ErrCancelled
	}
	return nil
}

// Uncancelable runs fn with cancellation checks suppressed, guaranteeing
// release/cleanup code executes even mid-cancellation (spec §4.8.7,
// §4.9 withConn, §5).
func (rt *Runtime) Uncancelable(fn func() error) error {
	rt.cancel.uncancl.Add(1)
	defer rt.cancel.uncancl.Add(-1)
	return fn()
}

// Cancel marks rt's own flag, observed by the next checkCancel in this
// Runtime or any Runtime sharing it (spec §4.8.7: race cancels losers).
func (rt *Runtime) Cancel() { rt.cancel.set() }

// Child returns a new Runtime over the same program, globals, builtins
// and constructors but with its own independent cancel flag, the shape
// concurrent.par/race/spawnDetached give each spawned task (spec §5).
func (rt *Runtime) Child() *Runtime {
	return &Runtime{prog: rt.prog, Globals: rt.Globals, builtins: rt.builtins, ctors: rt.ctors, cancel: &cancelFlag{}}
}
