// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package ledger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ggloop/playguard/pkg/session"
)

func fastRetry() RetryConfig {
	return RetryConfig{InitialInterval: time.Millisecond, MaxAttempts: 3}
}

func TestReportEnd_SucceedsAfterTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reporter := NewRetryingReporter(NewClient(srv.URL, 0, testCreds()), fastRetry())
	err := reporter.ReportEnd(context.Background(), session.Report{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("ReportEnd() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("delivery attempts = %d, expected 3", got)
	}
}

func TestReportEnd_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	reporter := NewRetryingReporter(NewClient(srv.URL, 0, testCreds()), fastRetry())
	err := reporter.ReportEnd(context.Background(), session.Report{SessionID: "sess-1"})
	if err == nil {
		t.Fatal("ReportEnd() error = nil, expected failure after retries")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("delivery attempts = %d, expected 3", got)
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		t.Errorf("transient failure surfaced as ProtocolError %v", err)
	}
}

func TestReportEnd_ProtocolErrorAbortsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "duplicate session", http.StatusConflict)
	}))
	defer srv.Close()

	reporter := NewRetryingReporter(NewClient(srv.URL, 0, testCreds()), fastRetry())
	err := reporter.ReportEnd(context.Background(), session.Report{SessionID: "sess-1"})
	if err == nil {
		t.Fatal("ReportEnd() error = nil, expected rejection")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("delivery attempts = %d, expected 1 for a rejection", got)
	}

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, expected ProtocolError to survive the retry wrapper", err)
	}
}
