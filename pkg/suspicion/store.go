// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package suspicion tracks per-account fraud-signal accumulation: a rolling
// suspicion counter and the trailing window of finalized sessions consumed
// by the session-count tamper rule.
package suspicion

import (
	"context"
	"time"
)

// SessionWindow is the trailing window used for the session-count rule.
const SessionWindow = 24 * time.Hour

// Store is the per-account suspicion state. The counter only ever
// increases; Reset exists for the human-review flow and is never called
// automatically.
type Store interface {
	// Add increases the account's rolling counter by delta and returns the
	// new value. A delta of zero returns the current value unchanged.
	Add(ctx context.Context, accountID string, delta int) (int, error)

	// Count returns the account's current rolling counter.
	Count(ctx context.Context, accountID string) (int, error)

	// RecordSession records a finalized session at the given time and
	// returns the number of sessions inside the trailing window, including
	// the one just recorded.
	RecordSession(ctx context.Context, accountID string, finishedAt time.Time) (int, error)

	// SessionsInWindow returns the number of sessions finalized in the
	// trailing window ending at now.
	SessionsInWindow(ctx context.Context, accountID string, now time.Time) (int, error)

	// Reset clears the rolling counter for an account. Reserved for an
	// authorized human-review action.
	Reset(ctx context.Context, accountID string) error
}
