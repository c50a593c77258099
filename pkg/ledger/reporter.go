// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/ggloop/playguard/pkg/session"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// RetryConfig tunes report delivery retries.
type RetryConfig struct {
	// InitialInterval is the first retry wait (default 1s).
	InitialInterval time.Duration
	// MaxAttempts bounds total delivery attempts (default 3).
	MaxAttempts int
}

func (c *RetryConfig) applyDefaults() {
	if c.InitialInterval == 0 {
		c.InitialInterval = time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}

// RetryingReporter delivers session reports with exponential backoff. A
// ProtocolError aborts the retry loop immediately and is surfaced as-is so
// the tracker can tell a rejection from an outage.
type RetryingReporter struct {
	client *Client
	cfg    RetryConfig
}

// NewRetryingReporter wraps the client with the delivery retry policy.
// Implements session.Reporter.
func NewRetryingReporter(client *Client, cfg RetryConfig) *RetryingReporter {
	cfg.applyDefaults()
	return &RetryingReporter{client: client, cfg: cfg}
}

// ReportEnd delivers the report, retrying transient failures up to
// MaxAttempts before giving up.
func (r *RetryingReporter) ReportEnd(ctx context.Context, report session.Report) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := r.client.EndSession(ctx, report)
		if err == nil {
			return nil
		}

		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			logrus.Warnf("ledger rejected report for session %s: %v", report.SessionID, err)
			return backoff.Permanent(err)
		}

		logrus.Warnf("report delivery attempt %d for session %s failed: %v", attempt, report.SessionID, err)
		return err
	}

	policy := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(r.cfg.MaxAttempts-1))
	return backoff.Retry(operation, policy)
}
