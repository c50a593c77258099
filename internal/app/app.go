// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package app wires the daemon together: watchlist, auth bridge, suspicion
// store, durable queue, ledger client, session tracker, heartbeat monitor
// and the HTTP surfaces, plus the sampling loop that drives everything.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ggloop/playguard/internal/config"
	"github.com/ggloop/playguard/internal/server"
	"github.com/ggloop/playguard/pkg/authbridge"
	"github.com/ggloop/playguard/pkg/heartbeat"
	"github.com/ggloop/playguard/pkg/ledger"
	"github.com/ggloop/playguard/pkg/observer"
	"github.com/ggloop/playguard/pkg/queue"
	"github.com/ggloop/playguard/pkg/session"
	"github.com/ggloop/playguard/pkg/suspicion"
	"github.com/ggloop/playguard/pkg/tamper"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// App holds all application dependencies and manages the application
// lifecycle.
type App struct {
	cfg       *config.Config
	watchlist *config.Watchlist

	bridge      *authbridge.Bridge
	redisClient *redis.Client
	store       suspicion.Store
	queue       *queue.FileQueue
	drainer     *queue.Drainer
	detector    *tamper.Detector
	obs         *observer.Observer
	tracker     *session.Tracker
	monitor     *heartbeat.Monitor

	metrics           *server.Metrics
	ipcServer         *server.IPCServer
	metricsServer     *server.MetricsServer
	shutdownTelemetry func(context.Context) error

	tracking atomic.Bool
}

// New creates and initializes a new application instance. Components are
// initialized in dependency order: watchlist and auth first, then state
// stores, then the tracker and monitor, and finally servers and telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	wl, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist from %s: %w", cfg.WatchlistPath, err)
	}
	app.watchlist = wl
	logrus.Infof("loaded watchlist version %d with %d tracked games", wl.Version, len(wl.TrackedGames))

	app.bridge = authbridge.New(cfg.AuthURL(), cfg.RequestTimeout)
	if cfg.WebSessionToken != "" {
		if err := app.verifyWebToken(ctx, cfg.WebSessionToken); err != nil {
			return nil, fmt.Errorf("failed to exchange web session token: %w", err)
		}
	} else {
		logrus.Info("no web session token configured, waiting for handover over ipc")
	}

	if err := app.initSuspicionStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to init suspicion store: %w", err)
	}

	app.queue, err = queue.NewFileQueue(cfg.QueuePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pending queue at %s: %w", cfg.QueuePath, err)
	}

	client := ledger.NewClient(cfg.LedgerBaseURL, cfg.RequestTimeout, app.bridge)
	reporter := ledger.NewRetryingReporter(client, ledger.RetryConfig{
		InitialInterval: cfg.ReportRetryInitial,
		MaxAttempts:     cfg.ReportRetryAttempts,
	})
	app.drainer = queue.NewDrainer(app.queue, reporter)

	app.detector = tamper.NewDetector(tamper.Config{
		DebuggerTools:           wl.DebuggerTools,
		AutomationTools:         wl.AutomationTools,
		MaxSessionDuration:      cfg.MaxSessionDuration,
		MaxSessionsPerDay:       cfg.MaxSessionsPerDay,
		IdleVarianceMinDuration: cfg.IdleVarianceMinDuration,
		SuspicionThreshold:      cfg.SuspicionThreshold,
	})

	app.metrics = server.NewMetrics()
	app.obs = observer.New(observer.NewShellEnumerator())

	app.tracker = session.NewTracker(session.Config{
		TrackedGames:       wl.TrackedGames,
		GracePeriod:        cfg.GracePeriod,
		VerifiedRatioFloor: cfg.VerifiedRatioFloor,
	}, client, reporter, app.queue, app.detector, app.assess, app)

	// Probes are gated on authentication: before the desktop token exists
	// every probe would fail locally and a logged-out user would see a false
	// connection-loss indicator.
	app.monitor = heartbeat.NewMonitor(heartbeat.Config{
		Interval:      cfg.HeartbeatInterval,
		ProbeTimeout:  cfg.RequestTimeout,
		MissThreshold: cfg.HeartbeatMissThreshold,
		RetryInitial:  cfg.HeartbeatRetryInitial,
		RetryMax:      cfg.HeartbeatRetryMax,
		Gate:          app.bridge.Authenticated,
	}, client, func(state heartbeat.State) {
		app.metrics.HeartbeatState.Set(float64(state))
	})
	client.SetHeartbeatInfo(func() ledger.HeartbeatInfo {
		return ledger.HeartbeatInfo{
			SessionID: app.tracker.Status().SessionID,
			Status:    app.monitor.Status().State,
		}
	})

	app.ipcServer = server.NewIPCServer(cfg.IPCPort, app)
	if err := app.ipcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup ipc server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", app.metrics)
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	app.tracking.Store(cfg.AutoStartTracking)

	logrus.Info("application initialized successfully")
	return app, nil
}

// verifyWebToken exchanges the web session token with bounded retries; the
// backend may not be reachable yet right after boot.
func (a *App) verifyWebToken(ctx context.Context, webToken string) error {
	b := backoff.NewExponentialBackOff()
	policy := backoff.WithContext(backoff.WithMaxRetries(b, 5), ctx)

	return backoff.Retry(func() error {
		if err := a.bridge.VerifyWeb(ctx, webToken); err != nil {
			logrus.Warnf("web token exchange failed: %v, retrying...", err)
			return err
		}
		return nil
	}, policy)
}

// initSuspicionStore selects the suspicion store backend. Single-seat
// installs run fully in-process; shared-seat deployments (cafes, tournament
// venues) point REDIS_ENABLED at a common instance so per-account counters
// survive machine hops.
func (a *App) initSuspicionStore(ctx context.Context) error {
	if !a.cfg.RedisEnabled {
		a.store = suspicion.NewMemoryStore()
		logrus.Info("using in-memory suspicion store")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)
	if err != nil {
		return err
	}

	a.redisClient = client
	a.store = suspicion.NewRedisStore(client)
	logrus.Info("using redis suspicion store")
	return nil
}

// accountID identifies the suspicion bucket. The authenticated user id when
// known, the device hash otherwise, so pre-auth sessions still accumulate.
func (a *App) accountID() string {
	if id := a.bridge.UserID(); id != "" {
		return id
	}
	return a.bridge.DeviceHash()
}

// assess is the tracker's finalization assessment. Store errors degrade to
// zero-signal inputs; a broken store must never block ending a session.
func (a *App) assess(ctx context.Context, sess *session.Session, processes []string, now time.Time) tamper.Assessment {
	accountID := a.accountID()

	sessionsInWindow, err := a.store.RecordSession(ctx, accountID, now)
	if err != nil {
		logrus.Warnf("failed to record session for %s, assessing without session count: %v", accountID, err)
	}
	count, err := a.store.Count(ctx, accountID)
	if err != nil {
		logrus.Warnf("failed to read suspicion counter for %s, assessing from zero: %v", accountID, err)
	}

	assessment := a.detector.Assess(tamper.Input{
		Duration:         sess.Duration(now),
		IdleWarnings:     sess.IdleWarnings,
		SessionsInWindow: sessionsInWindow,
		Processes:        processes,
		SuspicionCount:   count,
		Now:              now,
	})

	if assessment.ScoreDelta > 0 {
		if total, err := a.store.Add(ctx, accountID, assessment.ScoreDelta); err != nil {
			logrus.Warnf("failed to persist suspicion delta %d for %s: %v", assessment.ScoreDelta, accountID, err)
		} else if assessment.AccountUnderReview {
			logrus.Warnf("account %s crossed the review threshold (counter %d of %d)",
				accountID, total, a.detector.SuspicionThreshold())
		}
	}

	a.metrics.SessionsFinalized.WithLabelValues(string(assessment.Classification)).Inc()
	for _, reason := range assessment.Reasons {
		a.metrics.TamperReasons.WithLabelValues(string(reason)).Inc()
	}

	return assessment
}

// OnGameDetected implements session.Events.
func (a *App) OnGameDetected(game string) {
	logrus.Infof("tracked game detected: %s", game)
}

// OnGameClosed implements session.Events.
func (a *App) OnGameClosed(game string) {
	logrus.Infof("tracked game session closed: %s", game)
}

// OnTamperFlag implements session.Events.
func (a *App) OnTamperFlag(assessment tamper.Assessment) {
	logrus.Warnf("session flagged: reasons=%v scoreDelta=%d underReview=%v",
		assessment.Reasons, assessment.ScoreDelta, assessment.AccountUnderReview)
}

// StartTracking enables the sampling loop. Implements server.Controller.
func (a *App) StartTracking() error {
	if a.tracking.Swap(true) {
		return fmt.Errorf("tracking is already running")
	}
	logrus.Info("tracking started")
	return nil
}

// StopTracking disables the sampling loop and ends any active session.
// Implements server.Controller.
func (a *App) StopTracking(ctx context.Context) {
	a.tracking.Store(false)
	a.tracker.Stop(ctx, time.Now())
	logrus.Info("tracking stopped")
}

// SessionStatus implements server.Controller.
func (a *App) SessionStatus() session.Summary {
	return a.tracker.Status()
}

// HeartbeatStatus implements server.Controller.
func (a *App) HeartbeatStatus() heartbeat.Status {
	return a.monitor.Status()
}

// VerifyWebToken implements server.Controller.
func (a *App) VerifyWebToken(ctx context.Context, webToken string) error {
	return a.bridge.VerifyWeb(ctx, webToken)
}

// Authenticated implements server.Controller.
func (a *App) Authenticated() bool {
	return a.bridge.Authenticated()
}
