// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package cli defines the command-line surface of the daemon.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "playguard",
	Short:         "GG Loop play-session verification daemon",
	Long:          "playguard observes tracked game clients, verifies play sessions and reports them to the GG Loop points ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(drainCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
