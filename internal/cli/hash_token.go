// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tomtom215/vigil/internal/auth"
)

func newHashTokenCommand(flags *globalFlags) *cobra.Command {
	var generate bool
	cmd := &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the bcrypt hash of an admin token",
		Long: `Hash an admin token for admin.token_hash (or VIGIL_ADMIN_TOKEN_HASH).
The token is read from the first line of standard input when not given as
an argument. With --generate a random token is created and printed too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			switch {
			case generate && len(args) > 0:
				return errors.New("--generate does not take a token argument")
			case generate:
				token = uuid.NewString()
			case len(args) == 1:
				token = args[0]
			default:
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no token given on the command line or standard input")
				}
				token = strings.TrimSpace(line)
			}

			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				result := map[string]string{"hash": hash}
				if generate {
					result["token"] = token
				}
				return printJSON(out, result)
			}
			if generate {
				fmt.Fprintf(out, "token: %s\n", token)
				fmt.Fprintf(out, "hash:  %s\n", hash)
				return nil
			}
			fmt.Fprintln(out, hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random token")
	return cmd
}
