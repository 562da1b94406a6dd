// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/vigil/internal/config"
)

// TokenEnvVar supplies the admin token to client commands.
const TokenEnvVar = "VIGIL_ADMIN_TOKEN"

const defaultAdminAddr = "127.0.0.1:7391"

// RunFunc starts the agent and blocks until ctx is canceled.
type RunFunc func(ctx context.Context, cfg *config.Config, version string) error

// Options configures the command tree.
type Options struct {
	Version string
	Run     RunFunc
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	jsonOutput bool
	addr       string
	token      string
	timeout    time.Duration
}

// NewRootCommand builds the vigil command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "vigil",
		Short: "Vigil - keystroke keyword lockdown agent",
		Long: `Vigil watches typed words for blocklisted keywords and locks the machine
down when one appears: browsers are killed and the network is cut off for an
escalating period. A local admin API reports status and lets a guardian
lift the lock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default: $"+config.ConfigPathEnvVar+" or ./vigil.yaml)")
	pf.BoolVar(&flags.jsonOutput, "json", false, "output in JSON format")
	pf.StringVar(&flags.addr, "addr", "", "admin API address (default: admin.listen from config)")
	pf.StringVar(&flags.token, "token", "", "admin token (default: $"+TokenEnvVar+")")
	pf.DurationVar(&flags.timeout, "timeout", 10*time.Second, "admin API request timeout")

	root.AddCommand(
		newRunCommand(flags, opts),
		newStatusCommand(flags),
		newHealthCommand(flags),
		newUnlockCommand(flags),
		newBypassCommand(flags),
		newResetCommand(flags),
		newEventsCommand(flags),
		newReplayCommand(flags),
		newHashTokenCommand(flags),
		newVersionCommand(flags, opts.Version),
	)
	return root
}

// Execute runs the command tree with SIGINT and SIGTERM canceling the
// context, and returns the process exit code.
func Execute(opts Options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(opts).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return 1
	}
	return 0
}

// client resolves the admin API address and token.
func (f *globalFlags) client() *Client {
	addr := f.addr
	if addr == "" {
		addr = defaultAdminAddr
		if cfg, err := config.Load(f.configPath); err == nil && cfg.Admin.Listen != "" {
			addr = cfg.Admin.Listen
		}
	}
	token := f.token
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}
	return NewClient(addr, token, f.timeout)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
