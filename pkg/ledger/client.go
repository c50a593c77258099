// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package ledger is the HTTP client for the remote points ledger: session
// start/end, heartbeat probes, and report delivery with bounded retries.
// All award decisions live on the ledger side; this client only transports
// verified-session evidence.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ggloop/playguard/pkg/session"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ggloop/playguard/pkg/ledger"

// Credentials decorates outbound requests with the desktop token and device
// identity. Implemented by the auth bridge.
type Credentials interface {
	Decorate(req *http.Request) error
	DeviceHash() string
}

// ProtocolError is a definitive ledger rejection (HTTP 4xx). Resending the
// same payload can never succeed, so callers must not retry or queue it.
type ProtocolError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ledger rejected request with status %d: %s", e.StatusCode, e.Body)
}

// Permanent marks the error as non-retriable for delivery policy.
func (e *ProtocolError) Permanent() bool {
	return true
}

// HeartbeatInfo is the liveness context attached to each heartbeat probe.
type HeartbeatInfo struct {
	// SessionID is the active session, empty when idle.
	SessionID string
	// Status is the connection state as seen locally at probe time.
	Status string
}

// Client talks to the ledger service.
type Client struct {
	baseURL     string
	http        *http.Client
	creds       Credentials
	tracer      trace.Tracer
	heartbeatFn func() HeartbeatInfo
}

// NewClient creates a ledger client. creds is required; every endpoint is
// authenticated.
func NewClient(baseURL string, timeout time.Duration, creds Credentials) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		tracer:  otel.Tracer(tracerName),
	}
}

// StartSession asks the ledger to open a session and returns its id.
func (c *Client) StartSession(ctx context.Context, startedAt time.Time) (string, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.StartSession")
	defer span.End()

	payload := map[string]interface{}{
		"deviceHash": c.creds.DeviceHash(),
		"timestamp":  startedAt.UTC().Format(time.RFC3339),
	}

	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, "/session/start", payload, &body); err != nil {
		return "", err
	}
	if body.SessionID == "" {
		return "", fmt.Errorf("ledger returned an empty session id")
	}

	span.SetAttributes(attribute.String("session.id", body.SessionID))
	logrus.Infof("ledger opened session %s", body.SessionID)
	return body.SessionID, nil
}

// EndSession delivers the final session report. The full report is resent
// on every attempt; the ledger deduplicates by session id.
func (c *Client) EndSession(ctx context.Context, report session.Report) error {
	ctx, span := c.tracer.Start(ctx, "ledger.EndSession",
		trace.WithAttributes(attribute.String("session.id", report.SessionID)))
	defer span.End()

	return c.post(ctx, "/session/end", report, nil)
}

// SetHeartbeatInfo installs the supplier consulted on every probe. Without
// one, probes report a bare "alive" status and no session id.
func (c *Client) SetHeartbeatInfo(fn func() HeartbeatInfo) {
	c.heartbeatFn = fn
}

// Probe performs one liveness check against the ledger. Implements
// heartbeat.Prober.
func (c *Client) Probe(ctx context.Context) error {
	info := HeartbeatInfo{Status: "alive"}
	if c.heartbeatFn != nil {
		info = c.heartbeatFn()
	}

	payload := struct {
		DeviceHash string `json:"deviceHash"`
		SessionID  string `json:"sessionId,omitempty"`
		Timestamp  string `json:"timestamp"`
		Status     string `json:"status"`
	}{
		DeviceHash: c.creds.DeviceHash(),
		SessionID:  info.SessionID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Status:     info.Status,
	}
	return c.post(ctx, "/heartbeat", payload, nil)
}

// post sends a JSON body and optionally decodes a JSON response. Non-2xx
// responses map to ProtocolError for 4xx and a plain error otherwise, so
// retry policy can tell rejection from outage.
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.creds.Decorate(req); err != nil {
		return fmt.Errorf("failed to decorate request for %s: %w", path, err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ProtocolError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ledger request %s returned status %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
