// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	if err := a.ipcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.monitor.Run(ctx)
	go a.drainStartupQueue(ctx)
	go a.trackLoop(ctx)

	logrus.Info("application started successfully")

	<-ctx.Done()

	logrus.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// drainStartupQueue resends reports left over from earlier runs. Failures
// keep the reports queued; the next launch tries again.
func (a *App) drainStartupQueue(ctx context.Context) {
	res, err := a.drainer.Drain(ctx)
	if err != nil {
		logrus.Warnf("startup queue drain interrupted: %v", err)
	}
	if res.Delivered > 0 || res.Dropped > 0 || res.Remaining > 0 {
		logrus.Infof("startup queue drain: delivered=%d dropped=%d remaining=%d",
			res.Delivered, res.Dropped, res.Remaining)
	}
	a.refreshQueueDepth()
}

// trackLoop is the sampling heartbeat of the daemon: one observer sample per
// interval, fed into the tracker while tracking is enabled.
func (a *App) trackLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.tracking.Load() || !a.bridge.Authenticated() {
				continue
			}

			now := time.Now()
			sample := a.obs.Observe(ctx, now)
			a.metrics.SamplesTotal.Inc()

			before := a.tracker.Status().IdleWarnings
			a.tracker.HandleTick(ctx, sample, now)
			if after := a.tracker.Status().IdleWarnings; after > before {
				a.metrics.IdleWarnings.Inc()
			}

			a.refreshQueueDepth()
		}
	}
}

func (a *App) refreshQueueDepth() {
	if n, err := a.queue.Len(); err == nil {
		a.metrics.QueueDepth.Set(float64(n))
	}
}

// Shutdown gracefully shuts down all application components. Any active
// session is finalized first under the flush timeout so its report is
// delivered or queued, then servers stop accepting requests, external
// connections close, and telemetry flushes last.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	flushCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownFlushTimeout)
	a.tracker.Stop(flushCtx, time.Now())
	cancel()
	a.refreshQueueDepth()

	if err := a.ipcServer.Shutdown(ctx); err != nil {
		logrus.Errorf("ipc server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("redis close error: %v", err)
		}
	}

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
