// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package heartbeat

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errProbe = errors.New("connection refused")

// scriptedProber returns errors from its script, then succeeds.
type scriptedProber struct {
	mu     sync.Mutex
	script []error
	calls  int
	delay  time.Duration
}

func (p *scriptedProber) Probe(ctx context.Context) error {
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay):
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.script) > 0 {
		err := p.script[0]
		p.script = p.script[1:]
		return err
	}
	return nil
}

func (p *scriptedProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// stateRecorder collects emitted state transitions.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestMonitor_ThreeMissesReachDisconnectedThroughDegraded(t *testing.T) {
	rec := &stateRecorder{}
	m := NewMonitor(Config{}, &scriptedProber{}, rec.record)
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	if got := m.observeFailure(now, errProbe); got != StateDegraded {
		t.Fatalf("state after miss 1 = %s, expected degraded", got)
	}
	if got := m.observeFailure(now.Add(30*time.Second), errProbe); got != StateDegraded {
		t.Fatalf("state after miss 2 = %s, expected degraded", got)
	}
	if got := m.observeFailure(now.Add(60*time.Second), errProbe); got != StateDisconnected {
		t.Fatalf("state after miss 3 = %s, expected disconnected", got)
	}

	want := []State{StateDegraded, StateDisconnected}
	if got := rec.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("emitted states = %v, expected %v", got, want)
	}
}

func TestMonitor_SuccessResetsMisses(t *testing.T) {
	rec := &stateRecorder{}
	m := NewMonitor(Config{}, &scriptedProber{}, rec.record)
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	m.observeFailure(now, errProbe)
	m.observeFailure(now, errProbe)
	m.observeFailure(now, errProbe)

	if got := m.observeSuccess(now.Add(5 * time.Minute)); got != StateHealthy {
		t.Fatalf("state after success = %s, expected healthy", got)
	}

	status := m.Status()
	if status.ConsecutiveMisses != 0 {
		t.Errorf("ConsecutiveMisses = %d, expected 0 after success", status.ConsecutiveMisses)
	}
	if !status.LastSuccessAt.Equal(now.Add(5 * time.Minute)) {
		t.Errorf("LastSuccessAt = %v, expected probe time", status.LastSuccessAt)
	}

	want := []State{StateDegraded, StateDisconnected, StateHealthy}
	if got := rec.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("emitted states = %v, expected %v", got, want)
	}
}

func TestMonitor_MissJumpEmitsDegradedBeforeDisconnected(t *testing.T) {
	// System sleep can make misses jump straight past the threshold; the
	// event stream must still pass through Degraded.
	rec := &stateRecorder{}
	m := NewMonitor(Config{MissThreshold: 1}, &scriptedProber{}, rec.record)

	m.observeFailure(time.Now(), errProbe)

	want := []State{StateDegraded, StateDisconnected}
	if got := rec.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("emitted states = %v, expected %v", got, want)
	}
}

func TestMonitor_HealthyEmitsNothingOnRepeatSuccess(t *testing.T) {
	rec := &stateRecorder{}
	m := NewMonitor(Config{}, &scriptedProber{}, rec.record)

	m.observeSuccess(time.Now())
	m.observeSuccess(time.Now())

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("emitted states = %v, expected none while staying healthy", got)
	}
}

func TestMonitor_ProbeTimeoutCountsAsMiss(t *testing.T) {
	prober := &scriptedProber{delay: 200 * time.Millisecond}
	m := NewMonitor(Config{
		Interval:     20 * time.Millisecond,
		ProbeTimeout: 10 * time.Millisecond,
	}, prober, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if got := m.probeOnce(ctx); got != StateDegraded {
		t.Errorf("state after timed-out probe = %s, expected degraded", got)
	}
	if m.Status().ConsecutiveMisses != 1 {
		t.Errorf("ConsecutiveMisses = %d, expected 1", m.Status().ConsecutiveMisses)
	}
}

func TestMonitor_GateHoldsProbesUntilAuthenticated(t *testing.T) {
	// Before the app holds a desktop token every probe would fail locally;
	// gated-off ticks must not count as misses, and the first probes after
	// the gate opens must go out on the fast loop.
	prober := &scriptedProber{}
	rec := &stateRecorder{}

	var authenticated atomic.Bool
	m := NewMonitor(Config{
		Interval:     10 * time.Millisecond,
		ProbeTimeout: 50 * time.Millisecond,
		Gate:         authenticated.Load,
	}, prober, rec.record)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	if got := prober.callCount(); got != 0 {
		t.Errorf("probes before authentication = %d, expected 0", got)
	}
	if got := m.Status(); got.State != "healthy" || got.ConsecutiveMisses != 0 {
		t.Errorf("status before authentication = %+v, expected untouched healthy", got)
	}
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("emitted states before authentication = %v, expected none", got)
	}

	authenticated.Store(true)

	deadline := time.After(1500 * time.Millisecond)
	for m.Status().LastSuccessAt.IsZero() {
		select {
		case <-deadline:
			t.Fatalf("no probe succeeded after authentication, status = %+v", m.Status())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("emitted states = %v, expected none while staying healthy", got)
	}
}

func TestMonitor_RunRecoversThroughSlowRetry(t *testing.T) {
	// Three misses disconnect; the slow retry loop then restores healthy
	// on the first success and the fast loop resumes.
	prober := &scriptedProber{script: []error{errProbe, errProbe, errProbe}}
	rec := &stateRecorder{}
	m := NewMonitor(Config{
		Interval:     10 * time.Millisecond,
		ProbeTimeout: 50 * time.Millisecond,
		RetryInitial: 10 * time.Millisecond,
		RetryMax:     40 * time.Millisecond,
	}, prober, rec.record)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.After(1500 * time.Millisecond)
	for m.Status().State != "healthy" || m.Status().LastSuccessAt.IsZero() {
		select {
		case <-deadline:
			t.Fatalf("monitor never recovered, status = %+v, events = %v", m.Status(), rec.snapshot())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	states := rec.snapshot()
	want := []State{StateDegraded, StateDisconnected, StateHealthy}
	if len(states) < 3 || !reflect.DeepEqual(states[:3], want) {
		t.Errorf("emitted states = %v, expected prefix %v", states, want)
	}
}
