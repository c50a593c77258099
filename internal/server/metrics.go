// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	SamplesTotal      prometheus.Counter
	SessionsFinalized *prometheus.CounterVec
	TamperReasons     *prometheus.CounterVec
	IdleWarnings      prometheus.Counter
	HeartbeatState    prometheus.Gauge
	QueueDepth        prometheus.Gauge
}

// NewMetrics creates the collector set.
func NewMetrics() *Metrics {
	return &Metrics{
		SamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playguard_observer_samples_total",
			Help: "Total number of observer samples taken.",
		}),
		SessionsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playguard_sessions_finalized_total",
			Help: "Total number of finalized sessions by tamper classification.",
		}, []string{"classification"}),
		TamperReasons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playguard_tamper_reasons_total",
			Help: "Total number of tamper reasons recorded at finalization.",
		}, []string{"reason"}),
		IdleWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playguard_idle_warnings_total",
			Help: "Total number of idle warnings recorded.",
		}),
		HeartbeatState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playguard_heartbeat_state",
			Help: "Current heartbeat state (0 healthy, 1 degraded, 2 disconnected).",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playguard_pending_reports",
			Help: "Number of reports waiting in the durable pending queue.",
		}),
	}
}

func (m *Metrics) register(registry *prometheus.Registry) {
	registry.MustRegister(
		m.SamplesTotal,
		m.SessionsFinalized,
		m.TamperReasons,
		m.IdleWarnings,
		m.HeartbeatState,
		m.QueueDepth,
	)
}

// MetricsServer manages the Prometheus metrics HTTP server.
type MetricsServer struct {
	server   *http.Server
	port     int
	endpoint string
	metrics  *Metrics
}

// NewMetricsServer creates a new metrics server instance.
func NewMetricsServer(port int, endpoint string, metrics *Metrics) *MetricsServer {
	return &MetricsServer{
		port:     port,
		endpoint: endpoint,
		metrics:  metrics,
	}
}

// Setup configures the metrics server and registers collectors.
func (m *MetricsServer) Setup() error {
	registry := prometheus.NewRegistry()

	// Register default collectors
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if m.metrics != nil {
		m.metrics.register(registry)
	}

	mux := http.NewServeMux()
	mux.Handle(m.endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", m.port),
		Handler: mux,
	}

	return nil
}

// Start begins serving metrics on the configured port.
func (m *MetricsServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("metrics server listening on port %d%s", m.port, m.endpoint)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("metrics server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down metrics server...")
	if err := m.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("metrics server stopped")
	return nil
}
