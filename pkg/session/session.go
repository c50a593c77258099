// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package session owns the lifecycle of a verified play session: creation on
// game detection, per-tick sample aggregation, and finalization into a
// tamper-assessed report for the remote points ledger.
package session

import (
	"time"

	"github.com/ggloop/playguard/pkg/tamper"
)

// State is the session lifecycle state.
type State int

const (
	// StateIdle means no session is open.
	StateIdle State = iota
	// StateActive means the session is sampling and accumulating.
	StateActive
	// StateEnding means finalization is in flight, awaiting remote ack.
	StateEnding
	// StateEnded is the terminal success state.
	StateEnded
	// StateAborted is the terminal failure/cancellation state.
	StateAborted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// WindowSample is one aggregated observer sample.
type WindowSample struct {
	Timestamp     time.Time `json:"timestamp"`
	ProcessName   string    `json:"processName"`
	IsTrackedGame bool      `json:"isTrackedGame"`
}

// Session is one continuous attempt at verified play. It is mutated only by
// the Tracker's tick handler and becomes immutable once it reaches a
// terminal state; a new Session is created for further tracking, sessions
// are never reopened.
type Session struct {
	// ID is the opaque handle issued by the remote ledger at start.
	ID string
	// Game is the allow-list entry that matched at detection time.
	Game string

	StartedAt time.Time
	// EndedAt is nil exactly while the session is Active.
	EndedAt *time.Time
	State   State

	Samples            []WindowSample
	GameProcessSamples int
	TotalSamples       int
	IdleWarnings       int
}

// Duration returns the finalized session duration, or the elapsed time
// against now for an active session.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// VerifiedRatio is the fraction of samples with the tracked game in
// foreground. Zero samples yields zero.
func (s *Session) VerifiedRatio() float64 {
	if s.TotalSamples == 0 {
		return 0
	}
	return float64(s.GameProcessSamples) / float64(s.TotalSamples)
}

// Summary is the read-only session snapshot exposed over IPC.
type Summary struct {
	SessionID          string     `json:"sessionId,omitempty"`
	Game               string     `json:"game,omitempty"`
	State              string     `json:"state"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	DurationSeconds    float64    `json:"durationSeconds"`
	TotalSamples       int        `json:"totalSamples"`
	GameProcessSamples int        `json:"gameProcessSamples"`
	IdleWarnings       int        `json:"idleWarnings"`
	VerifiedRatio      float64    `json:"verifiedRatio"`
}

// Report is the full final aggregate sent to the ledger when a session
// ends. Retries always resend the complete report keyed by SessionID, never
// a delta, so duplicate delivery is safe to deduplicate server-side.
type Report struct {
	SessionID          string            `json:"sessionId" toml:"session_id"`
	Game               string            `json:"game" toml:"game"`
	StartedAt          time.Time         `json:"startedAt" toml:"started_at"`
	EndedAt            time.Time         `json:"endedAt" toml:"ended_at"`
	DurationSeconds    float64           `json:"duration" toml:"duration_seconds"`
	WindowCount        int               `json:"windowCount" toml:"window_count"`
	GameProcessCount   int               `json:"gameProcessCount" toml:"game_process_count"`
	IdleWarnings       int               `json:"idleWarnings" toml:"idle_warnings"`
	VerifiedRatio      float64           `json:"verifiedRatio" toml:"verified_ratio"`
	LowConfidence      bool              `json:"lowConfidence" toml:"low_confidence"`
	Assessment         tamper.Assessment `json:"tamperAssessment" toml:"assessment"`
	Timestamp          time.Time         `json:"timestamp" toml:"timestamp"`
}
