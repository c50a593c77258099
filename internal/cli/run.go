// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package cli

import (
	"fmt"

	"github.com/ggloop/playguard/internal/app"
	"github.com/ggloop/playguard/internal/config"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the verification daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		application, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		return application.Run(cmd.Context())
	},
}
