// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package tamper

import "time"

// Classification is the risk verdict for a session.
type Classification string

const (
	// Clean means no detection rule fired.
	Clean Classification = "clean"
	// Suspicious means at least one behavioral rule fired with no fatal rule.
	Suspicious Classification = "suspicious"
	// Flagged means at least one fatal rule fired.
	Flagged Classification = "flagged"
)

// Reason is a named detection code. Codes are part of the wire contract with
// the ledger service and must stay stable.
type Reason string

const (
	ReasonDebuggerDetected   Reason = "debugger_detected"
	ReasonAutomationDetected Reason = "automation_tool_detected"
	ReasonSessionTooLong     Reason = "session_too_long"
	ReasonTooManySessions    Reason = "too_many_sessions_today"
	ReasonNoIdleVariance     Reason = "no_idle_variance"
)

// Severity splits rules into fatal (always flags the session) and
// behavioral (pattern evidence, escalates to suspicious).
type Severity int

const (
	SeverityBehavioral Severity = iota
	SeverityFatal
)

// Assessment is a point-in-time risk verdict. It is computed fresh at each
// evaluation point and attached to the session report; it is never persisted
// on its own.
type Assessment struct {
	Classification     Classification `json:"classification" toml:"classification"`
	Reasons            []Reason       `json:"reasons" toml:"reasons"`
	ScoreDelta         int            `json:"suspicionScoreDelta" toml:"suspicion_score_delta"`
	AccountUnderReview bool           `json:"accountUnderReview" toml:"account_under_review"`
}

// Input carries every signal a detection rule may consult. The evaluation
// clock is passed in, never read from the system, so assessments are
// deterministic and unit-testable.
type Input struct {
	// Duration is the finalized session duration.
	Duration time.Duration
	// IdleWarnings is the session's idle-warning count.
	IdleWarnings int
	// SessionsInWindow is the number of sessions finalized for the account
	// in the trailing 24h window, including the one under assessment.
	SessionsInWindow int
	// Processes is the process snapshot at evaluation time.
	Processes []string
	// SuspicionCount is the account's rolling suspicion counter before this
	// assessment is applied.
	SuspicionCount int
	// Now is the evaluation time.
	Now time.Time
}
