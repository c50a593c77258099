// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package heartbeat runs the session-independent liveness loop: a fixed
// fast probe cadence while healthy, a slow exponential retry once the
// endpoint is considered down, and state-change events for the
// connection-status indicator.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// State is the liveness classification of the remote endpoint.
type State int

const (
	// StateHealthy means the last probe succeeded.
	StateHealthy State = iota
	// StateDegraded means one or two consecutive probes missed.
	StateDegraded
	// StateDisconnected means the miss threshold was reached; probing has
	// handed off to the slow retry loop.
	StateDisconnected
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Prober performs one liveness probe. A nil return means the remote
// endpoint acknowledged; any error (network, timeout, non-2xx) is a miss.
type Prober interface {
	Probe(ctx context.Context) error
}

// Config holds the monitor's timing parameters.
type Config struct {
	// Interval is the fast probe cadence (default 30s).
	Interval time.Duration
	// ProbeTimeout bounds each individual probe (default 5s) independent
	// of the interval, so one slow request cannot stall the loop. A probe
	// exceeding it counts as a miss immediately; a late response is
	// discarded via context cancellation.
	ProbeTimeout time.Duration
	// MissThreshold is the consecutive-miss count that disconnects
	// (default 3).
	MissThreshold int
	// RetryInitial is the slow loop's starting interval (default 60s).
	RetryInitial time.Duration
	// RetryMax is the slow loop's ceiling (default 10m).
	RetryMax time.Duration
	// Gate reports whether probing may run right now; nil means always.
	// A gated-off tick is skipped entirely, it is not a miss: before the
	// app holds a desktop token every probe would fail locally and a
	// logged-out user must not see a connection-loss indicator.
	Gate func() bool
}

func (c *Config) applyDefaults() {
	if c.Interval == 0 {
		c.Interval = 30 * time.Second
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.MissThreshold == 0 {
		c.MissThreshold = 3
	}
	if c.RetryInitial == 0 {
		c.RetryInitial = 60 * time.Second
	}
	if c.RetryMax == 0 {
		c.RetryMax = 10 * time.Minute
	}
}

// Status is a read-only snapshot of the liveness state.
type Status struct {
	State             string    `json:"state"`
	LastSuccessAt     time.Time `json:"lastSuccessAt"`
	ConsecutiveMisses int       `json:"consecutiveMisses"`
}

// Monitor is the liveness state machine. It is the sole mutator of its
// state; transitions happen on probe outcomes only, with the outcome clock
// passed in so transitions are unit-testable without wall-clock waits.
type Monitor struct {
	cfg      Config
	prober   Prober
	onChange func(State)

	mu                sync.Mutex
	state             State
	lastSuccessAt     time.Time
	consecutiveMisses int
}

// NewMonitor creates a monitor. onChange may be nil; when set it is invoked
// on every state transition, in emission order (Healthy -> Degraded ->
// Disconnected is never skipped even if misses jump).
func NewMonitor(cfg Config, prober Prober, onChange func(State)) *Monitor {
	cfg.applyDefaults()
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Monitor{
		cfg:      cfg,
		prober:   prober,
		onChange: onChange,
		state:    StateHealthy,
	}
}

// Run drives the probe loops until ctx is cancelled. While healthy or
// degraded it probes on the fast interval; on disconnect it stops hammering
// the dead endpoint and switches to the slow exponential retry, resuming
// the fast loop after the first success.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.gateOpen() {
				continue
			}
			if m.probeOnce(ctx) == StateDisconnected {
				if !m.slowRetry(ctx) {
					return
				}
				ticker.Reset(m.cfg.Interval)
			}
		}
	}
}

// slowRetry probes with exponential backoff (RetryInitial doubling up to
// RetryMax, no elapsed-time cap) until one success restores Healthy.
// Returns false when ctx was cancelled.
func (m *Monitor) slowRetry(ctx context.Context) bool {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.RetryInitial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = m.cfg.RetryMax
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		wait := b.NextBackOff()
		logrus.Infof("heartbeat disconnected, next probe in %v", wait)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}

		if !m.gateOpen() {
			continue
		}
		if m.probeOnce(ctx) == StateHealthy {
			return true
		}
	}
}

func (m *Monitor) gateOpen() bool {
	return m.cfg.Gate == nil || m.cfg.Gate()
}

// probeOnce runs a single bounded probe and applies its outcome.
func (m *Monitor) probeOnce(ctx context.Context) State {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	err := m.prober.Probe(probeCtx)
	cancel()

	if err != nil {
		return m.observeFailure(time.Now(), err)
	}
	return m.observeSuccess(time.Now())
}

// observeSuccess applies a successful probe outcome.
func (m *Monitor) observeSuccess(now time.Time) State {
	m.mu.Lock()
	prev := m.state
	m.state = StateHealthy
	m.lastSuccessAt = now
	m.consecutiveMisses = 0
	m.mu.Unlock()

	if prev != StateHealthy {
		logrus.Infof("heartbeat restored to healthy")
		m.onChange(StateHealthy)
	}
	return StateHealthy
}

// observeFailure applies a missed probe outcome. The emitted event stream
// stays monotonic: a fresh failure run always surfaces Degraded before
// Disconnected, both within one evaluation when misses jump (system sleep).
func (m *Monitor) observeFailure(now time.Time, err error) State {
	m.mu.Lock()
	prev := m.state
	m.consecutiveMisses++
	misses := m.consecutiveMisses

	next := StateDegraded
	if misses >= m.cfg.MissThreshold {
		next = StateDisconnected
	}
	m.state = next
	m.mu.Unlock()

	logrus.Warnf("heartbeat probe missed (%d consecutive): %v", misses, err)

	if next == StateDisconnected && prev == StateHealthy {
		m.onChange(StateDegraded)
	}
	if next != prev {
		m.onChange(next)
	}
	return next
}

// Status returns a read-only snapshot for the IPC surface.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		State:             m.state.String(),
		LastSuccessAt:     m.lastSuccessAt,
		ConsecutiveMisses: m.consecutiveMisses,
	}
}
