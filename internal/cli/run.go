// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/logging"
)

func newRunCommand(flags *globalFlags, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the agent",
		Long: `Start the agent in the foreground. An unexpired lock left by a previous
run is resumed before key events are read. Stop with SIGINT or SIGTERM;
the lock stays persisted across restarts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Run == nil {
				return errors.New("run is not available in this build")
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logging.Init(logging.Config{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				Caller:    cfg.Logging.Caller,
				Timestamp: true,
			})
			return opts.Run(cmd.Context(), cfg, opts.Version)
		},
	}
}

func newVersionCommand(flags *globalFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "vigil", version)
			return err
		},
	}
}
