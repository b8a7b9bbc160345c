package pool

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mendrik/aivi/internal/interp"
)

func newTestRuntime() *interp.Runtime {
	return interp.NewRuntime(nil, interp.NewEnvironment(), map[string]interp.Value{}, map[string]*interp.ConstructorValue{})
}

// fifoPolicy/lifoPolicy build the `queuePolicy` field's constructor value.
func fifoPolicy() *interp.ConstructorValue {
	return &interp.ConstructorValue{TypeName: "QueuePolicy", CtorName: "Fifo", Arity: 0}
}

func lifoPolicy() *interp.ConstructorValue {
	return &interp.ConstructorValue{TypeName: "QueuePolicy", CtorName: "Lifo", Arity: 0}
}

func fixedBackoff(ms int64) *interp.ConstructorValue {
	return &interp.ConstructorValue{
		TypeName: "BackoffPolicy", CtorName: "Fixed", Arity: 1,
		Fields: []interp.Value{&interp.IntValue{Value: ms}},
	}
}

// countingAcquire returns a fresh EffectValue every call that produces a
// uniquely numbered connection, so tests can tell distinct connections
// apart without a real database driver.
func countingAcquire(counter *int64) interp.Value {
	return &interp.EffectValue{Run: func(rt *interp.Runtime) (interp.Value, error) {
		n := atomic.AddInt64(counter, 1)
		return &interp.StringValue{Value: fmt.Sprintf("conn-%d", n)}, nil
	}}
}

// noopRelease/alwaysHealthy are Builtins: applyEffect runs a Closure/
// Builtin through rt.Apply and only treats the *result* as an Effect if
// it happens to be one, so a plain Builtin returning its value directly
// is sufficient here.
func noopRelease() *interp.Builtin {
	return &interp.Builtin{Name: "release", Arity: 1, Fn: func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		return &interp.UnitValue{}, nil
	}}
}

func alwaysHealthy() *interp.Builtin {
	return &interp.Builtin{Name: "healthCheck", Arity: 1, Fn: func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		return &interp.BoolValue{Value: true}, nil
	}}
}

func baseConfig(maxSize, minIdle, acquireTimeoutMs int64, acquire, release, healthCheck interp.Value, policy *interp.ConstructorValue) *interp.RecordValue {
	rec := interp.NewRecord()
	rec.Set("maxSize", &interp.IntValue{Value: maxSize})
	rec.Set("minIdle", &interp.IntValue{Value: minIdle})
	rec.Set("acquireTimeout", &interp.IntValue{Value: acquireTimeoutMs})
	rec.Set("backoffPolicy", fixedBackoff(10))
	rec.Set("queuePolicy", policy)
	rec.Set("acquire", acquire)
	rec.Set("release", release)
	rec.Set("healthCheck", healthCheck)
	return rec
}

func okResult(t *testing.T, v interp.Value) interp.Value {
	t.Helper()
	ctor, ok := v.(*interp.ConstructorValue)
	if !ok || ctor.CtorName != "Ok" {
		t.Fatalf("expected Ok(...), got %v", v)
	}
	return ctor.Fields[0]
}

func errReason(t *testing.T, v interp.Value) string {
	t.Helper()
	ctor, ok := v.(*interp.ConstructorValue)
	if !ok || ctor.CtorName != "Err" {
		t.Fatalf("expected Err(...), got %v", v)
	}
	s, ok := ctor.Fields[0].(*interp.StringValue)
	if !ok {
		t.Fatalf("expected Err reason to be a string, got %T", ctor.Fields[0])
	}
	return s.Value
}

func TestCreate_RejectsInvalidMaxSize(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(0, 0, 1000, countingAcquire(&n), noopRelease(), alwaysHealthy(), fifoPolicy())
	result, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	reason := errReason(t, result)
	if reason == "" {
		t.Fatal("expected a non-empty InvalidConfig reason")
	}
}

func TestCreate_RejectsMinIdleOutOfRange(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(2, 5, 1000, countingAcquire(&n), noopRelease(), alwaysHealthy(), fifoPolicy())
	result, _ := Create(rt, cfg)
	errReason(t, result)
}

func TestCreate_PrefillsMinIdleAndReportsStats(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(5, 3, 1000, countingAcquire(&n), noopRelease(), alwaysHealthy(), fifoPolicy())
	result, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	p, ok := okResult(t, result).(*PoolValue)
	if !ok {
		t.Fatalf("expected Ok(*PoolValue), got %T", okResult(t, result))
	}
	if p.ID() == "" {
		t.Fatal("expected Create to mint a non-empty pool id")
	}

	stats := p.Stats()
	if stats.Size != 3 || stats.Idle != 3 || stats.InUse != 0 {
		t.Fatalf("expected size=3 idle=3 inUse=0 after prefill, got %+v", stats)
	}
	if stats.ID != p.ID() {
		t.Fatalf("Stats().ID = %q, want %q", stats.ID, p.ID())
	}
}

func TestAcquireRelease_RoundTrip(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(2, 0, 1000, countingAcquire(&n), noopRelease(), alwaysHealthy(), fifoPolicy())
	created, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	p := okResult(t, created).(*PoolValue)

	acquired, err := Acquire(rt, p)
	if err != nil {
		t.Fatalf("Acquire returned Go error: %v", err)
	}
	conn := okResult(t, acquired)

	if stats := p.Stats(); stats.InUse != 1 || stats.Idle != 0 {
		t.Fatalf("expected inUse=1 idle=0 after acquire, got %+v", stats)
	}

	if err := Release(rt, p, conn); err != nil {
		t.Fatalf("Release returned Go error: %v", err)
	}
	if stats := p.Stats(); stats.InUse != 0 || stats.Idle != 1 {
		t.Fatalf("expected inUse=0 idle=1 after release, got %+v", stats)
	}
}

func TestAcquire_TimesOutWhenExhausted(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(1, 0, 30, countingAcquire(&n), noopRelease(), alwaysHealthy(), fifoPolicy())
	created, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	p := okResult(t, created).(*PoolValue)

	first, err := Acquire(rt, p)
	if err != nil {
		t.Fatalf("Acquire returned Go error: %v", err)
	}
	okResult(t, first) // holds the only connection, never released

	second, err := Acquire(rt, p)
	if err != nil {
		t.Fatalf("Acquire returned Go error: %v", err)
	}
	if reason := errReason(t, second); reason != "Timeout" {
		t.Fatalf("expected Err(Timeout), got Err(%q)", reason)
	}
}

func TestAcquire_ReturnsClosedAfterClose(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(2, 1, 1000, countingAcquire(&n), noopRelease(), alwaysHealthy(), fifoPolicy())
	created, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	p := okResult(t, created).(*PoolValue)

	if err := Close(rt, p); err != nil {
		t.Fatalf("Close returned Go error: %v", err)
	}
	result, err := Acquire(rt, p)
	if err != nil {
		t.Fatalf("Acquire returned Go error: %v", err)
	}
	if reason := errReason(t, result); reason != "Closed" {
		t.Fatalf("expected Err(Closed), got Err(%q)", reason)
	}
	if stats := p.Stats(); !stats.Closed || stats.Idle != 0 {
		t.Fatalf("expected closed=true idle=0 after Close, got %+v", stats)
	}
}

func TestWithConn_ReleasesOnSuccessAndError(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	cfg := baseConfig(1, 0, 1000, countingAcquire(&n), noopRelease(), alwaysHealthy(), lifoPolicy())
	created, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	p := okResult(t, created).(*PoolValue)

	ok := &interp.Builtin{Name: "f", Arity: 1, Fn: func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		return &interp.UnitValue{}, nil
	}}
	result, err := WithConn(rt, p, ok)
	if err != nil {
		t.Fatalf("WithConn returned Go error: %v", err)
	}
	okResult(t, result)
	if stats := p.Stats(); stats.InUse != 0 || stats.Idle != 1 {
		t.Fatalf("expected the connection back in the idle list after success, got %+v", stats)
	}

	failing := &interp.Builtin{Name: "f", Arity: 1, Fn: func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		return nil, fmt.Errorf("boom")
	}}
	if _, err := WithConn(rt, p, failing); err == nil {
		t.Fatal("expected WithConn to propagate the callback's error")
	}
	if stats := p.Stats(); stats.InUse != 0 || stats.Idle != 1 {
		t.Fatalf("expected the connection released even after callback failure, got %+v", stats)
	}
}

func TestDrain_ReleasesAllIdleConnections(t *testing.T) {
	rt := newTestRuntime()
	var n int64
	var released int64
	release := &interp.Builtin{Name: "release", Arity: 1, Fn: func(rt *interp.Runtime, args []interp.Value) (interp.Value, error) {
		atomic.AddInt64(&released, 1)
		return &interp.UnitValue{}, nil
	}}
	cfg := baseConfig(5, 3, 1000, countingAcquire(&n), release, alwaysHealthy(), fifoPolicy())
	created, err := Create(rt, cfg)
	if err != nil {
		t.Fatalf("Create returned Go error: %v", err)
	}
	p := okResult(t, created).(*PoolValue)

	if err := Drain(rt, p); err != nil {
		t.Fatalf("Drain returned Go error: %v", err)
	}
	if atomic.LoadInt64(&released) != 3 {
		t.Fatalf("expected 3 connections released by Drain, got %d", released)
	}
	if stats := p.Stats(); stats.Idle != 0 {
		t.Fatalf("expected idle=0 after Drain, got %+v", stats)
	}
}
