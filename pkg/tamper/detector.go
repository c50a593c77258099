// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package tamper

import "time"

// Default thresholds. All of them are deployment configuration, not product
// truths; they are tuned server-side and pushed through the env config.
const (
	DefaultMaxSessionDuration      = 6 * time.Hour
	DefaultMaxSessionsPerDay       = 10
	DefaultIdleVarianceMinDuration = 2 * time.Hour
	DefaultFatalScoreDelta         = 3
	DefaultBehavioralScoreDelta    = 1
	DefaultSuspicionThreshold      = 5
)

// Config holds the detector's rule thresholds and deny-lists.
type Config struct {
	// DebuggerTools is the deny-list of debugger executable names.
	DebuggerTools []string
	// AutomationTools is the deny-list of input-automation executable names.
	AutomationTools []string
	// MaxSessionDuration is the behavioral ceiling on session length.
	MaxSessionDuration time.Duration
	// MaxSessionsPerDay is the behavioral ceiling on finalized sessions per
	// trailing 24h window.
	MaxSessionsPerDay int
	// IdleVarianceMinDuration is the session length above which zero idle
	// warnings becomes suspicious.
	IdleVarianceMinDuration time.Duration
	// FatalScoreDelta is the suspicion contribution of a flagged assessment.
	FatalScoreDelta int
	// BehavioralScoreDelta is the suspicion contribution per distinct
	// behavioral reason.
	BehavioralScoreDelta int
	// SuspicionThreshold is the rolling counter value at which the
	// account-under-review advisory fires.
	SuspicionThreshold int
}

func (c *Config) applyDefaults() {
	if c.MaxSessionDuration == 0 {
		c.MaxSessionDuration = DefaultMaxSessionDuration
	}
	if c.MaxSessionsPerDay == 0 {
		c.MaxSessionsPerDay = DefaultMaxSessionsPerDay
	}
	if c.IdleVarianceMinDuration == 0 {
		c.IdleVarianceMinDuration = DefaultIdleVarianceMinDuration
	}
	if c.FatalScoreDelta == 0 {
		c.FatalScoreDelta = DefaultFatalScoreDelta
	}
	if c.BehavioralScoreDelta == 0 {
		c.BehavioralScoreDelta = DefaultBehavioralScoreDelta
	}
	if c.SuspicionThreshold == 0 {
		c.SuspicionThreshold = DefaultSuspicionThreshold
	}
}

// Detector evaluates sessions against a fixed, ordered rule list. The order
// is fatal rules first, then behavioral rules, so the emitted reasons set is
// stable and fixtures can assert it exactly.
type Detector struct {
	cfg   Config
	rules []Rule
}

// NewDetector builds a detector from config.
func NewDetector(cfg Config) *Detector {
	cfg.applyDefaults()

	return &Detector{
		cfg: cfg,
		rules: []Rule{
			&denyListRule{code: ReasonDebuggerDetected, denyList: cfg.DebuggerTools},
			&denyListRule{code: ReasonAutomationDetected, denyList: cfg.AutomationTools},
			&sessionDurationRule{max: cfg.MaxSessionDuration},
			&sessionCountRule{maxPerDay: cfg.MaxSessionsPerDay},
			&idleVarianceRule{minDuration: cfg.IdleVarianceMinDuration},
		},
	}
}

// Assess computes a risk verdict for the given input. It is a pure function:
// identical inputs always yield an identical assessment.
//
// Classification policy: any fatal rule firing flags the session regardless
// of behavioral rules; behavioral-only firings mark it suspicious with one
// score point per distinct reason; nothing firing is clean.
func (d *Detector) Assess(in Input) Assessment {
	var reasons []Reason
	fatal := false
	behavioral := 0

	for _, rule := range d.rules {
		if !rule.Evaluate(in) {
			continue
		}
		reasons = append(reasons, rule.Code())
		if rule.Severity() == SeverityFatal {
			fatal = true
		} else {
			behavioral++
		}
	}

	a := Assessment{Classification: Clean, Reasons: reasons}
	switch {
	case fatal:
		a.Classification = Flagged
		a.ScoreDelta = d.cfg.FatalScoreDelta
	case behavioral > 0:
		a.Classification = Suspicious
		a.ScoreDelta = behavioral * d.cfg.BehavioralScoreDelta
	}

	// The counter is advisory input only: the detector never enforces,
	// it signals the ledger/admin side that the account needs human review.
	if in.SuspicionCount+a.ScoreDelta >= d.cfg.SuspicionThreshold {
		a.AccountUnderReview = true
	}

	return a
}

// ScanFatal checks only the fatal deny-list rules against a process
// snapshot. The session tracker runs this on every sampling tick so a
// debugger or automation tool appearing mid-session ends the session within
// one tick.
func (d *Detector) ScanFatal(processes []string) []Reason {
	in := Input{Processes: processes}
	var reasons []Reason
	for _, rule := range d.rules {
		if rule.Severity() != SeverityFatal {
			continue
		}
		if rule.Evaluate(in) {
			reasons = append(reasons, rule.Code())
		}
	}
	return reasons
}

// SuspicionThreshold exposes the configured escalation threshold.
func (d *Detector) SuspicionThreshold() int {
	return d.cfg.SuspicionThreshold
}
