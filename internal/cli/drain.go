// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package cli

import (
	"fmt"

	"github.com/ggloop/playguard/internal/config"
	"github.com/ggloop/playguard/pkg/authbridge"
	"github.com/ggloop/playguard/pkg/ledger"
	"github.com/ggloop/playguard/pkg/queue"

	"github.com/spf13/cobra"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Resend pending session reports without starting the daemon",
	Long:  "drain authenticates with the configured web session token and attempts delivery of every report in the durable pending queue, then exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if cfg.WebSessionToken == "" {
			return fmt.Errorf("WEB_SESSION_TOKEN is required to drain the queue")
		}

		bridge := authbridge.New(cfg.AuthURL(), cfg.RequestTimeout)
		if err := bridge.VerifyWeb(cmd.Context(), cfg.WebSessionToken); err != nil {
			return fmt.Errorf("failed to exchange web session token: %w", err)
		}

		pending, err := queue.NewFileQueue(cfg.QueuePath)
		if err != nil {
			return fmt.Errorf("failed to open pending queue at %s: %w", cfg.QueuePath, err)
		}

		client := ledger.NewClient(cfg.LedgerBaseURL, cfg.RequestTimeout, bridge)
		reporter := ledger.NewRetryingReporter(client, ledger.RetryConfig{
			InitialInterval: cfg.ReportRetryInitial,
			MaxAttempts:     cfg.ReportRetryAttempts,
		})

		res, err := queue.NewDrainer(pending, reporter).Drain(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "delivered=%d dropped=%d remaining=%d\n",
			res.Delivered, res.Dropped, res.Remaining)
		return nil
	},
}
