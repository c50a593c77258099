// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables. It attempts to load
// from a .env file first (for local development), then parses environment
// variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file found or error loading it: %v (this is normal outside development)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.IPCPort < 1 || c.IPCPort > 65535 {
		return fmt.Errorf("invalid IPC_PORT: %d (must be 1-65535)", c.IPCPort)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.LedgerBaseURL == "" {
		return fmt.Errorf("LEDGER_BASE_URL is required")
	}

	if c.SampleInterval <= 0 {
		return fmt.Errorf("invalid SAMPLE_INTERVAL: %v (must be positive)", c.SampleInterval)
	}
	if c.GracePeriod < c.SampleInterval {
		return fmt.Errorf("GRACE_PERIOD %v must not be shorter than SAMPLE_INTERVAL %v", c.GracePeriod, c.SampleInterval)
	}
	if c.VerifiedRatioFloor < 0 || c.VerifiedRatioFloor > 1 {
		return fmt.Errorf("invalid VERIFIED_RATIO_FLOOR: %v (must be within [0,1])", c.VerifiedRatioFloor)
	}

	if c.MaxSessionDuration <= 0 {
		return fmt.Errorf("invalid MAX_SESSION_DURATION: %v (must be positive)", c.MaxSessionDuration)
	}
	if c.IdleVarianceMinDuration <= 0 {
		return fmt.Errorf("invalid IDLE_VARIANCE_MIN_DURATION: %v (must be positive)", c.IdleVarianceMinDuration)
	}

	if c.HeartbeatMissThreshold < 1 {
		return fmt.Errorf("invalid HEARTBEAT_MISS_THRESHOLD: %d (must be at least 1)", c.HeartbeatMissThreshold)
	}
	if c.ReportRetryAttempts < 1 {
		return fmt.Errorf("invalid REPORT_RETRY_ATTEMPTS: %d (must be at least 1)", c.ReportRetryAttempts)
	}

	return nil
}

// AuthURL returns the auth service base URL, falling back to the ledger URL
// when no separate auth endpoint is configured.
func (c *Config) AuthURL() string {
	if c.AuthBaseURL != "" {
		return c.AuthBaseURL
	}
	return c.LedgerBaseURL
}

// RedisAddr returns the host:port address for the Redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
