// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ggloop/playguard/pkg/heartbeat"
	"github.com/ggloop/playguard/pkg/session"
)

type fakeController struct {
	authenticated bool
	startErr      error
	verifyErr     error
	started       int
	stopped       int
	summary       session.Summary
	hb            heartbeat.Status
}

func (c *fakeController) StartTracking() error {
	c.started++
	return c.startErr
}

func (c *fakeController) StopTracking(context.Context) {
	c.stopped++
}

func (c *fakeController) SessionStatus() session.Summary {
	return c.summary
}

func (c *fakeController) HeartbeatStatus() heartbeat.Status {
	return c.hb
}

func (c *fakeController) VerifyWebToken(_ context.Context, webToken string) error {
	if c.verifyErr != nil {
		return c.verifyErr
	}
	c.authenticated = true
	return nil
}

func (c *fakeController) Authenticated() bool {
	return c.authenticated
}

func setupIPC(t *testing.T, ctrl *fakeController) http.Handler {
	t.Helper()

	srv := NewIPCServer(0, ctrl)
	if err := srv.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return srv.Handler()
}

func TestIPC_Healthz(t *testing.T) {
	handler := setupIPC(t, &fakeController{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", rec.Code)
	}
}

func TestIPC_AuthVerify(t *testing.T) {
	ctrl := &fakeController{}
	handler := setupIPC(t, ctrl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify", strings.NewReader(`{"webToken":"tok"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", rec.Code)
	}
	if !ctrl.authenticated {
		t.Error("controller not authenticated after verify")
	}
}

func TestIPC_AuthVerifyRejectsEmptyToken(t *testing.T) {
	handler := setupIPC(t, &fakeController{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify", strings.NewReader(`{}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", rec.Code)
	}
}

func TestIPC_AuthVerifyFailure(t *testing.T) {
	handler := setupIPC(t, &fakeController{verifyErr: errors.New("bad token")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify", strings.NewReader(`{"webToken":"tok"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", rec.Code)
	}
}

func TestIPC_TrackingStart(t *testing.T) {
	ctrl := &fakeController{authenticated: true}
	handler := setupIPC(t, ctrl)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tracking/start", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, expected 202", rec.Code)
	}
	if ctrl.started != 1 {
		t.Errorf("StartTracking calls = %d, expected 1", ctrl.started)
	}
}

func TestIPC_TrackingStartRequiresAuth(t *testing.T) {
	ctrl := &fakeController{}
	handler := setupIPC(t, ctrl)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tracking/start", nil))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, expected 409 before authentication", rec.Code)
	}
	if ctrl.started != 0 {
		t.Errorf("StartTracking calls = %d, expected 0", ctrl.started)
	}
}

func TestIPC_TrackingStop(t *testing.T) {
	ctrl := &fakeController{}
	handler := setupIPC(t, ctrl)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tracking/stop", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, expected 202", rec.Code)
	}
	if ctrl.stopped != 1 {
		t.Errorf("StopTracking calls = %d, expected 1", ctrl.stopped)
	}
}

func TestIPC_SessionStatus(t *testing.T) {
	ctrl := &fakeController{summary: session.Summary{
		SessionID: "sess-1",
		Game:      "LeagueClient",
		State:     "active",
	}}
	handler := setupIPC(t, ctrl)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	var got session.Summary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if got.SessionID != "sess-1" || got.State != "active" {
		t.Errorf("summary = %+v, expected the controller snapshot", got)
	}
}

func TestIPC_HeartbeatStatus(t *testing.T) {
	ctrl := &fakeController{hb: heartbeat.Status{State: "degraded", ConsecutiveMisses: 2}}
	handler := setupIPC(t, ctrl)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/heartbeat", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	var got heartbeat.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if got.State != "degraded" || got.ConsecutiveMisses != 2 {
		t.Errorf("status = %+v, expected the controller snapshot", got)
	}
}
