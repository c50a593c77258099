// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package observer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sample is one point-in-time observation of the user's desktop.
// A sample with OK == false means the OS query failed; the observer never
// propagates sensor errors to its caller, so a transient OS hiccup can
// never abort a session.
type Sample struct {
	Timestamp         time.Time
	ForegroundProcess string
	Processes         ProcessSnapshot
	OK                bool
}

// ProcessSnapshot is the set of process names visible at sampling time.
// It is passed read-only to the tamper rules so detection stays
// platform-neutral and unit-testable against a fake snapshot.
type ProcessSnapshot []string

// Contains reports whether any process name in the snapshot contains the
// given substring (case-sensitive).
func (p ProcessSnapshot) Contains(substr string) bool {
	for _, name := range p {
		if containsSubstring(name, substr) {
			return true
		}
	}
	return false
}

// Enumerator queries the OS for the foreground window and the process list.
// Implementations are per-platform; tests use a fake.
type Enumerator interface {
	// ForegroundProcess returns the process name of the foreground window.
	ForegroundProcess(ctx context.Context) (string, error)

	// ListProcesses returns the names of all running processes.
	ListProcesses(ctx context.Context) ([]string, error)
}

// Observer samples the desktop on behalf of the session tracker.
// It is a pure sensor: no state beyond its enumerator, and Observe never
// returns an error.
type Observer struct {
	enum Enumerator
}

// New creates an observer backed by the given enumerator.
func New(enum Enumerator) *Observer {
	return &Observer{enum: enum}
}

// Observe takes one sample. OS query failures are logged and reported as an
// unknown sample (OK == false) rather than returned as errors.
func (o *Observer) Observe(ctx context.Context, now time.Time) Sample {
	sample := Sample{Timestamp: now}

	foreground, err := o.enum.ForegroundProcess(ctx)
	if err != nil {
		logrus.Warnf("foreground window query failed: %v", err)
		return sample
	}

	processes, err := o.enum.ListProcesses(ctx)
	if err != nil {
		logrus.Warnf("process list query failed: %v", err)
		return sample
	}

	sample.ForegroundProcess = foreground
	sample.Processes = processes
	sample.OK = true
	return sample
}
