// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package server hosts the daemon's HTTP surfaces: the loopback IPC API the
// desktop UI talks to, the Prometheus metrics endpoint, and telemetry setup.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ggloop/playguard/pkg/heartbeat"
	"github.com/ggloop/playguard/pkg/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Controller is the application surface the IPC API drives. Implemented by
// the app wiring layer.
type Controller interface {
	StartTracking() error
	StopTracking(ctx context.Context)
	SessionStatus() session.Summary
	HeartbeatStatus() heartbeat.Status
	VerifyWebToken(ctx context.Context, webToken string) error
	Authenticated() bool
}

// IPCServer is the loopback HTTP API for the desktop UI. It binds to
// 127.0.0.1 only; nothing here is reachable off the machine.
type IPCServer struct {
	server *http.Server
	port   int
	ctrl   Controller
}

// NewIPCServer creates the IPC server.
func NewIPCServer(port int, ctrl Controller) *IPCServer {
	return &IPCServer{port: port, ctrl: ctrl}
}

// Setup builds the router.
func (s *IPCServer) Setup() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/verify", s.handleAuthVerify)
		r.Post("/tracking/start", s.handleTrackingStart)
		r.Post("/tracking/stop", s.handleTrackingStop)
		r.Get("/session", s.handleSession)
		r.Get("/heartbeat", s.handleHeartbeat)
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: r,
	}

	return nil
}

// Start begins serving the IPC API.
func (s *IPCServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("ipc server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("ipc server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the IPC server.
func (s *IPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down ipc server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("ipc server stopped")
	return nil
}

// Handler exposes the router for tests.
func (s *IPCServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *IPCServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *IPCServer) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WebToken string `json:"webToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.WebToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "webToken is required"})
		return
	}

	if err := s.ctrl.VerifyWebToken(r.Context(), body.WebToken); err != nil {
		logrus.Warnf("web token verification over ipc failed: %v", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "authenticated"})
}

func (s *IPCServer) handleTrackingStart(w http.ResponseWriter, r *http.Request) {
	if !s.ctrl.Authenticated() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "not authenticated, verify a web token first"})
		return
	}
	if err := s.ctrl.StartTracking(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "tracking"})
}

func (s *IPCServer) handleTrackingStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopTracking(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopped"})
}

func (s *IPCServer) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.SessionStatus())
}

func (s *IPCServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.HeartbeatStatus())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("failed to encode ipc response: %v", err)
	}
}
