// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment
// variables, parsed with github.com/caarlos0/env.
type Config struct {
	// Server configuration
	IPCPort     int    `env:"IPC_PORT" envDefault:"47810"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"playguard"`

	// GG Loop backend configuration (REQUIRED)
	LedgerBaseURL string `env:"LEDGER_BASE_URL,required"`
	AuthBaseURL   string `env:"AUTH_BASE_URL"`
	// WebSessionToken is handed over by the web app at launch; when empty
	// the daemon waits for it over IPC before tracking can start.
	WebSessionToken string        `env:"WEB_SESSION_TOKEN"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Watchlist configuration
	WatchlistPath string `env:"WATCHLIST_PATH" envDefault:"config/watchlist.yaml"`

	// Sampling configuration
	SampleInterval     time.Duration `env:"SAMPLE_INTERVAL" envDefault:"5s"`
	GracePeriod        time.Duration `env:"GRACE_PERIOD" envDefault:"60s"`
	VerifiedRatioFloor float64       `env:"VERIFIED_RATIO_FLOOR" envDefault:"0.5"`
	AutoStartTracking  bool          `env:"AUTO_START_TRACKING" envDefault:"true"`

	// Tamper thresholds
	MaxSessionDuration      time.Duration `env:"MAX_SESSION_DURATION" envDefault:"6h"`
	MaxSessionsPerDay       int           `env:"MAX_SESSIONS_PER_DAY" envDefault:"10"`
	IdleVarianceMinDuration time.Duration `env:"IDLE_VARIANCE_MIN_DURATION" envDefault:"2h"`
	SuspicionThreshold      int           `env:"SUSPICION_THRESHOLD" envDefault:"5"`

	// Heartbeat configuration
	HeartbeatInterval      time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"30s"`
	HeartbeatMissThreshold int           `env:"HEARTBEAT_MISS_THRESHOLD" envDefault:"3"`
	HeartbeatRetryInitial  time.Duration `env:"HEARTBEAT_RETRY_INITIAL" envDefault:"60s"`
	HeartbeatRetryMax      time.Duration `env:"HEARTBEAT_RETRY_MAX" envDefault:"10m"`

	// Report delivery configuration
	ReportRetryInitial  time.Duration `env:"REPORT_RETRY_INITIAL" envDefault:"1s"`
	ReportRetryAttempts int           `env:"REPORT_RETRY_ATTEMPTS" envDefault:"3"`
	QueuePath           string        `env:"QUEUE_PATH" envDefault:"state/pending.toml"`
	// ShutdownFlushTimeout bounds the final report delivery attempt during
	// graceful shutdown before the report falls through to the queue.
	ShutdownFlushTimeout time.Duration `env:"SHUTDOWN_FLUSH_TIMEOUT" envDefault:"3s"`

	// Redis configuration. RedisEnabled switches the suspicion store from
	// the in-process one to Redis for shared-seat deployments.
	RedisEnabled      bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// Telemetry configuration
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ZipkinEndpoint  string `env:"ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"playguard"`
}
