// Package pool implements the database connection pool described in
// spec §4.9: a bounded, health-checked, FIFO/LIFO idle list guarded by a
// mutex and condition variable, with acquire/release/healthCheck
// supplied by the program as aivi effect values.
package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mendrik/aivi/internal/interp"
)

type queuePolicy int

const (
	fifo queuePolicy = iota
	lifo
)

type backoffKind int

const (
	backoffFixed backoffKind = iota
	backoffExponential
)

type backoffPolicy struct {
	kind    backoffKind
	base    time.Duration
	maxWait time.Duration
}

func (b backoffPolicy) wait(attempt int) time.Duration {
	if b.kind == backoffFixed {
		return b.base
	}
	shift := attempt
	if shift > 16 {
		shift = 16
	}
	d := b.base * time.Duration(int64(1)<<uint(shift))
	if d > b.maxWait || d <= 0 {
		return b.maxWait
	}
	return d
}

type config struct {
	maxSize             int
	minIdle             int
	acquireTimeout      time.Duration
	idleTimeout         *time.Duration
	healthCheckInterval *time.Duration
	backoff             backoffPolicy
	policy              queuePolicy
	acquire             interp.Value
	release             interp.Value
	healthCheck         interp.Value
}

type idleEntry struct {
	conn         interp.Value
	lastUsedAt   time.Time
	lastCheckedAt time.Time
}

// PoolValue is the Value a successful database.pool.create resolves to;
// it satisfies interp.Value so programs can pass it around like any
// other record-ish handle.
type PoolValue struct {
	id       string
	mu       sync.Mutex
	cond     *sync.Cond
	cfg      config
	idle     []idleEntry
	inUse    int
	creating int
	waiters  int
	closed   bool
}

func (p *PoolValue) Type() string   { return "Pool" }
func (p *PoolValue) String() string { return "<pool " + p.id + ">" }

// ID returns the pool's unique identity, minted once at Create and
// stable for the pool's lifetime — used to correlate stats snapshots
// and log lines across pools when a program runs more than one.
func (p *PoolValue) ID() string { return p.id }

// Stats is the Value database.pool.stats resolves to (spec §4.9):
// size/idle/inUse/waiters/closed mirror the original implementation's
// stats record, with id added so a caller juggling multiple pools can
// tell snapshots apart.
type Stats struct {
	ID      string
	Size    int
	Idle    int
	InUse   int
	Waiters int
	Closed  bool
}

// Stats returns a point-in-time snapshot of the pool's counters.
func (p *PoolValue) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		ID:      p.id,
		Size:    p.size(),
		Idle:    len(p.idle),
		InUse:   p.inUse,
		Waiters: p.waiters,
		Closed:  p.closed,
	}
}

// Create validates cfg, builds a Pool, and eagerly creates minIdle
// connections (spec §4.9 "Configuration validation"). A failure during
// prefill is surfaced to the caller as the Err branch of the Effect.
func Create(rt *interp.Runtime, cfgRec *interp.RecordValue) (interp.Value, error) {
	cfg, err := decodeConfig(cfgRec)
	if err != nil {
		return interp.Err(&interp.StringValue{Value: "InvalidConfig " + err.Error()}), nil
	}
	p := &PoolValue{id: uuid.NewString(), cfg: cfg}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < cfg.minIdle; i++ {
		conn, err := runEffect(rt, cfg.acquire)
		if err != nil {
			return interp.Err(&interp.StringValue{Value: err.Error()}), nil
		}
		now := time.Now()
		p.idle = append(p.idle, idleEntry{conn: conn, lastUsedAt: now, lastCheckedAt: now})
	}
	return interp.Ok(p), nil
}

func decodeConfig(rec *interp.RecordValue) (config, error) {
	var cfg config
	maxSize, err := intField(rec, "maxSize")
	if err != nil {
		return cfg, err
	}
	if maxSize <= 0 {
		return cfg, fmt.Errorf("maxSize must be > 0")
	}
	minIdle, err := intField(rec, "minIdle")
	if err != nil {
		return cfg, err
	}
	if minIdle < 0 || minIdle > maxSize {
		return cfg, fmt.Errorf("minIdle must be within [0, maxSize]")
	}
	acquireTimeoutMs, err := intField(rec, "acquireTimeout")
	if err != nil {
		return cfg, err
	}
	if acquireTimeoutMs < 0 {
		return cfg, fmt.Errorf("acquireTimeout must be >= 0")
	}
	cfg.maxSize = int(maxSize)
	cfg.minIdle = int(minIdle)
	cfg.acquireTimeout = time.Duration(acquireTimeoutMs) * time.Millisecond
	cfg.idleTimeout = optionSpanField(rec, "idleTimeout")
	cfg.healthCheckInterval = optionSpanField(rec, "healthCheckInterval")

	backoff, err := decodeBackoff(rec)
	if err != nil {
		return cfg, err
	}
	cfg.backoff = backoff

	policy, ok := rec.Fields["queuePolicy"]
	if !ok {
		return cfg, fmt.Errorf("queuePolicy is required")
	}
	if ctor, ok := policy.(*interp.ConstructorValue); ok && ctor.CtorName == "Lifo" {
		cfg.policy = lifo
	} else {
		cfg.policy = fifo
	}

	for _, name := range []string{"acquire", "release", "healthCheck"} {
		v, ok := rec.Fields[name]
		if !ok {
			return cfg, fmt.Errorf("%s is required", name)
		}
		switch name {
		case "acquire":
			cfg.acquire = v
		case "release":
			cfg.release = v
		case "healthCheck":
			cfg.healthCheck = v
		}
	}
	return cfg, nil
}

func decodeBackoff(rec *interp.RecordValue) (backoffPolicy, error) {
	v, ok := rec.Fields["backoffPolicy"]
	if !ok {
		return backoffPolicy{}, fmt.Errorf("backoffPolicy is required")
	}
	ctor, ok := v.(*interp.ConstructorValue)
	if !ok {
		return backoffPolicy{}, fmt.Errorf("backoffPolicy must be Fixed or Exponential")
	}
	switch ctor.CtorName {
	case "Fixed":
		if len(ctor.Fields) != 1 {
			return backoffPolicy{}, fmt.Errorf("Fixed backoffPolicy takes one Span argument")
		}
		d, err := spanValue(ctor.Fields[0])
		if err != nil {
			return backoffPolicy{}, err
		}
		return backoffPolicy{kind: backoffFixed, base: d}, nil
	case "Exponential":
		rv, ok := ctor.Fields[0].(*interp.RecordValue)
		if !ok || len(ctor.Fields) != 1 {
			return backoffPolicy{}, fmt.Errorf("Exponential backoffPolicy takes a {base, max} record")
		}
		base, err := spanField(rv, "base")
		if err != nil {
			return backoffPolicy{}, err
		}
		max, err := spanField(rv, "max")
		if err != nil {
			return backoffPolicy{}, err
		}
		return backoffPolicy{kind: backoffExponential, base: base, maxWait: max}, nil
	default:
		return backoffPolicy{}, fmt.Errorf("unknown backoffPolicy constructor %q", ctor.CtorName)
	}
}

func intField(rec *interp.RecordValue, name string) (int64, error) {
	v, ok := rec.Fields[name]
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	iv, ok := v.(*interp.IntValue)
	if !ok {
		return 0, fmt.Errorf("%s must be an Int", name)
	}
	return iv.Value, nil
}

// spanValue treats a Span as a millisecond Int — aivi's surface syntax
// for durations is not otherwise constrained by the spec, and Int
// milliseconds is the simplest representation the pool's own timing
// arithmetic (time.Duration) can consume directly.
func spanValue(v interp.Value) (time.Duration, error) {
	iv, ok := v.(*interp.IntValue)
	if !ok {
		return 0, fmt.Errorf("Span must be an Int (milliseconds)")
	}
	return time.Duration(iv.Value) * time.Millisecond, nil
}

func spanField(rec *interp.RecordValue, name string) (time.Duration, error) {
	v, ok := rec.Fields[name]
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	return spanValue(v)
}

// optionSpanField decodes an `Option Span`: Some(v) or a bare Int both
// produce a set duration; None, Unit, or an absent field mean unset.
func optionSpanField(rec *interp.RecordValue, name string) *time.Duration {
	v, ok := rec.Fields[name]
	if !ok {
		return nil
	}
	if ctor, ok := v.(*interp.ConstructorValue); ok {
		if ctor.CtorName == "None" || len(ctor.Fields) == 0 {
			return nil
		}
		if d, err := spanValue(ctor.Fields[0]); err == nil {
			return &d
		}
		return nil
	}
	if d, err := spanValue(v); err == nil {
		return &d
	}
	return nil
}

// runEffect runs acquire/release-shaped values: acquire/release are
// typed `Unit -> Effect Conn`/`Conn -> Effect Unit`, but a zero-arg
// function desugars to a bare Effect value with no Closure wrapper, so
// both shapes are accepted directly.
func runEffect(rt *interp.Runtime, v interp.Value) (interp.Value, error) {
	if eff, ok := v.(*interp.EffectValue); ok {
		return eff.Run(rt)
	}
	return applyEffect(rt, v, []interp.Value{&interp.UnitValue{}})
}

func applyEffect(rt *interp.Runtime, fn interp.Value, args []interp.Value) (interp.Value, error) {
	v, err := rt.Apply(fn, args)
	if err != nil {
		return nil, err
	}
	if eff, ok := v.(*interp.EffectValue); ok {
		return eff.Run(rt)
	}
	return v, nil
}

func truthyBool(v interp.Value) bool {
	b, ok := v.(*interp.BoolValue)
	return ok && b.Value
}

// Acquire runs the acquire algorithm in spec §4.9 to completion. It
// returns Ok(conn) on success, or Err(reason) on timeout/health/closed
// failure — mirroring the spec's described Result outcomes rather than
// a Go error, since every failure here is an ordinary program-visible
// Result, not an interpreter fault.
func Acquire(rt *interp.Runtime, p *PoolValue) (interp.Value, error) {
	start := time.Now()
	attempt := 0
	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return interp.Err(&interp.StringValue{Value: "Closed"}), nil
		}
		p.retireIdleLocked(rt)

		if len(p.idle) > 0 {
			entry := p.popIdleLocked()
			needsCheck := p.cfg.healthCheckInterval != nil && time.Since(entry.lastCheckedAt) >= *p.cfg.healthCheckInterval
			p.inUse++
			p.mu.Unlock()
			if needsCheck {
				ok, err := applyEffect(rt, p.cfg.healthCheck, []interp.Value{entry.conn})
				if err != nil {
					p.releaseUnhealthy(rt, entry.conn)
					if time.Since(start) >= p.cfg.acquireTimeout {
						return interp.Err(&interp.StringValue{Value: "HealthFailed"}), nil
					}
					p.mu.Lock()
					continue
				}
				if !truthyBool(ok) {
					p.releaseUnhealthy(rt, entry.conn)
					if time.Since(start) >= p.cfg.acquireTimeout {
						return interp.Err(&interp.StringValue{Value: "HealthFailed"}), nil
					}
					p.mu.Lock()
					continue
				}
			}
			return interp.Ok(entry.conn), nil
		}

		if p.size() < p.cfg.maxSize {
			p.creating++
			p.mu.Unlock()
			conn, err := runEffect(rt, p.cfg.acquire)
			if err != nil {
				p.mu.Lock()
				p.creating--
				p.mu.Unlock()
				return interp.Err(&interp.StringValue{Value: err.Error()}), nil
			}
			ok, err := applyEffect(rt, p.cfg.healthCheck, []interp.Value{conn})
			p.mu.Lock()
			p.creating--
			p.inUse++
			p.mu.Unlock()
			if err != nil || !truthyBool(ok) {
				p.releaseUnhealthy(rt, conn)
				if time.Since(start) >= p.cfg.acquireTimeout {
					return interp.Err(&interp.StringValue{Value: "HealthFailed"}), nil
				}
				p.mu.Lock()
				continue
			}
			return interp.Ok(conn), nil
		}

		remaining := p.cfg.acquireTimeout - time.Since(start)
		if remaining <= 0 {
			p.mu.Unlock()
			return interp.Err(&interp.StringValue{Value: "Timeout"}), nil
		}
		wait := p.cfg.backoff.wait(attempt)
		if wait < 10*time.Millisecond {
			wait = 10 * time.Millisecond
		}
		if wait > remaining {
			wait = remaining
		}
		attempt++
		p.waiters++
		waitOnCond(p.cond, wait)
		p.waiters--
	}
}

// waitOnCond blocks on cond for at most d; sync.Cond has no built-in
// timeout, so a helper goroutine wakes it if nothing else does first.
func waitOnCond(cond *sync.Cond, d time.Duration) {
	done := make(chan struct{})
	timer := time.AfterFunc(d, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	go func() { cond.Wait(); close(done) }()
	<-done
	timer.Stop()
}

func (p *PoolValue) size() int { return len(p.idle) + p.inUse + p.creating }

func (p *PoolValue) popIdleLocked() idleEntry {
	var e idleEntry
	if p.cfg.policy == lifo {
		e = p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
	} else {
		e = p.idle[0]
		p.idle = p.idle[1:]
	}
	return e
}

// retireIdleLocked releases idle connections past idleTimeout, calling
// release outside the lock (spec §4.9 step 1).
func (p *PoolValue) retireIdleLocked(rt *interp.Runtime) {
	if p.cfg.idleTimeout == nil {
		return
	}
	now := time.Now()
	var kept []idleEntry
	var stale []interp.Value
	for _, e := range p.idle {
		if now.Sub(e.lastUsedAt) >= *p.cfg.idleTimeout {
			stale = append(stale, e.conn)
		} else {
			kept = append(kept, e)
		}
	}
	if len(stale) == 0 {
		return
	}
	p.idle = kept
	p.mu.Unlock()
	for _, conn := range stale {
		_, _ = applyEffect(rt, p.cfg.release, []interp.Value{conn})
	}
	p.mu.Lock()
}

// releaseUnhealthy drops a connection that failed its health check,
// invoking release outside the lock and notifying one waiter.
func (p *PoolValue) releaseUnhealthy(rt *interp.Runtime, conn interp.Value) {
	_, _ = applyEffect(rt, p.cfg.release, []interp.Value{conn})
	p.mu.Lock()
	p.inUse--
	p.cond.Signal()
	p.mu.Unlock()
}

// Release returns conn to the pool (spec §4.9 "Release"): if the pool
// is closed the connection is released immediately instead of rejoining
// the idle list.
func Release(rt *interp.Runtime, p *PoolValue, conn interp.Value) error {
	p.mu.Lock()
	p.inUse--
	closed := p.closed
	if !closed {
		now := time.Now()
		p.idle = append(p.idle, idleEntry{conn: conn, lastUsedAt: now, lastCheckedAt: now})
	}
	p.cond.Signal()
	p.mu.Unlock()
	if closed {
		_, err := applyEffect(rt, p.cfg.release, []interp.Value{conn})
		return err
	}
	return nil
}

// WithConn acquires a connection, runs f against it, and releases the
// connection uncancelably regardless of outcome (spec §4.9 "withConn").
func WithConn(rt *interp.Runtime, p *PoolValue, f interp.Value) (interp.Value, error) {
	acquired, err := Acquire(rt, p)
	if err != nil {
		return nil, err
	}
	result, ok := acquired.(*interp.ConstructorValue)
	if !ok || result.CtorName == "Err" {
		return acquired, nil
	}
	conn := result.Fields[0]

	v, callErr := applyEffect(rt, f, []interp.Value{conn})
	releaseErr := rt.Uncancelable(func() error { return Release(rt, p, conn) })
	if callErr != nil {
		return nil, callErr
	}
	if releaseErr != nil {
		return nil, releaseErr
	}
	return interp.Ok(v), nil
}

// Drain waits until the pool is fully idle (no in-use or in-creation
// connections) then releases every idle connection (spec §4.9
// "Drain"), polling every 25ms as the spec specifies.
func Drain(rt *interp.Runtime, p *PoolValue) error {
	for {
		p.mu.Lock()
		if p.inUse == 0 && p.creating == 0 {
			idle := p.idle
			p.idle = nil
			p.mu.Unlock()
			for _, e := range idle {
				if _, err := applyEffect(rt, p.cfg.release, []interp.Value{e.conn}); err != nil {
					return err
				}
			}
			return nil
		}
		p.mu.Unlock()
		time.Sleep(25 * time.Millisecond)
	}
}

// Close marks the pool closed, drains idle connections (releasing each
// outside the lock), and wakes every waiter (spec §4.9 "Close").
func Close(rt *interp.Runtime, p *PoolValue) error {
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.cond.Broadcast()
	p.mu.Unlock()
	for _, e := range idle {
		if _, err := applyEffect(rt, p.cfg.release, []interp.Value{e.conn}); err != nil {
			return err
		}
	}
	return nil
}
