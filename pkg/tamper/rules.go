// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package tamper

import (
	"strings"
	"time"
)

// Rule is one independently evaluable detection check. Rules are pure:
// Evaluate reads only its Input and the rule's own configuration.
type Rule interface {
	// Code returns the detection code emitted when the rule fires.
	Code() Reason

	// Severity returns whether the rule is fatal or behavioral.
	Severity() Severity

	// Evaluate reports whether the rule fires for the given input.
	Evaluate(in Input) bool
}

// denyListRule fires when the process snapshot contains any entry of a
// configured deny-list. Matching is substring-based and case-insensitive so
// renamed-but-recognizable tool binaries still match.
type denyListRule struct {
	code     Reason
	denyList []string
}

func (r *denyListRule) Code() Reason       { return r.code }
func (r *denyListRule) Severity() Severity { return SeverityFatal }

func (r *denyListRule) Evaluate(in Input) bool {
	for _, process := range in.Processes {
		lower := strings.ToLower(process)
		for _, denied := range r.denyList {
			if denied == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(denied)) {
				return true
			}
		}
	}
	return false
}

// sessionDurationRule fires when a session runs longer than a human
// plausibly plays in one sitting.
type sessionDurationRule struct {
	max time.Duration
}

func (r *sessionDurationRule) Code() Reason       { return ReasonSessionTooLong }
func (r *sessionDurationRule) Severity() Severity { return SeverityBehavioral }

func (r *sessionDurationRule) Evaluate(in Input) bool {
	return in.Duration > r.max
}

// sessionCountRule fires when the account finalized more sessions in the
// trailing 24h window than the configured ceiling.
type sessionCountRule struct {
	maxPerDay int
}

func (r *sessionCountRule) Code() Reason       { return ReasonTooManySessions }
func (r *sessionCountRule) Severity() Severity { return SeverityBehavioral }

func (r *sessionCountRule) Evaluate(in Input) bool {
	return in.SessionsInWindow > r.maxPerDay
}

// idleVarianceRule fires when a long session shows zero idle signal. Real
// humans alt-tab, take breaks, or lose foreground occasionally; total
// absence of idle variance over hours is a bot indicator.
type idleVarianceRule struct {
	minDuration time.Duration
}

func (r *idleVarianceRule) Code() Reason       { return ReasonNoIdleVariance }
func (r *idleVarianceRule) Severity() Severity { return SeverityBehavioral }

func (r *idleVarianceRule) Evaluate(in Input) bool {
	return in.Duration > r.minDuration && in.IdleWarnings == 0
}
