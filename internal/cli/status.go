// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vigil/internal/api"
)

func newStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the lock status of a running agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := flags.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return printJSON(cmd.OutOrStdout(), status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newHealthCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the agent is running and enforcing",
		Long:  "Exits non-zero when the agent is unreachable or holds a lock without a running enforcement loop.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := flags.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), health); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Agent: %s\n", health.Status)
				if health.Version != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  Version: %s\n", health.Version)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  Locked: %s\n", yesNo(health.Locked))
				fmt.Fprintf(cmd.OutOrStdout(), "  Enforcement loop: %s\n", running(health.LoopAlive))
				fmt.Fprintf(cmd.OutOrStdout(), "  Journal: %s\n", enabled(health.Journal))
			}
			if health.Status != "healthy" {
				return fmt.Errorf("agent is %s", health.Status)
			}
			return nil
		},
	}
}

func printStatus(w io.Writer, s *api.StatusResponse) {
	if !s.Locked {
		fmt.Fprintln(w, "Unlocked")
	} else {
		kind := "violation"
		if s.Bypass {
			kind = "bypass penalty"
		}
		fmt.Fprintf(w, "Locked (%s)\n", kind)
		if s.LockEnd != nil {
			fmt.Fprintf(w, "  Until: %s\n", s.LockEnd.Local().Format(time.RFC1123))
		}
		fmt.Fprintf(w, "  Remaining: %s\n", s.Remaining().Round(time.Second))
		fmt.Fprintf(w, "  Enforcement loop: %s\n", running(s.LoopAlive))
		if s.EpisodeID != "" {
			fmt.Fprintf(w, "  Episode: %s\n", s.EpisodeID)
		}
	}
	fmt.Fprintf(w, "Violation count: %d\n", s.ViolationCount)
	if s.LastViolation != nil {
		fmt.Fprintf(w, "Last violation: %s\n", s.LastViolation.Local().Format(time.RFC1123))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func running(b bool) string {
	if b {
		return "running"
	}
	return "stopped"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
