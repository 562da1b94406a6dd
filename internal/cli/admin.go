// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnlockCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Lift the current lock",
		Long:  "Lift the current lock and restore network access. Requires the admin token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := flags.client().Unlock(cmd.Context())
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if resp.WasLocked {
				fmt.Fprintln(cmd.OutOrStdout(), "Lock lifted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not locked, nothing to do")
			}
			printStatus(cmd.OutOrStdout(), &resp.Status)
			return nil
		},
	}
}

func newBypassCommand(flags *globalFlags) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "bypass",
		Short: "Report a bypass attempt",
		Long: `Report a bypass attempt. The agent applies the fixed bypass penalty lock
without changing the escalation counter. Requires the admin token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := flags.client().Bypass(cmd.Context(), source)
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return printJSON(cmd.OutOrStdout(), status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bypass penalty applied")
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "who detected the bypass, recorded in the journal")
	return cmd
}

func newResetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the escalation counter",
		Long:  "Reset the violation count so the next lock uses the first escalation step. Requires the admin token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := flags.client().ResetViolations(cmd.Context())
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return printJSON(cmd.OutOrStdout(), status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Violation count reset")
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}
