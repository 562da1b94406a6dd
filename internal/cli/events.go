// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomtom215/vigil/internal/audit"
)

func newEventsCommand(flags *globalFlags) *cobra.Command {
	var (
		q     EventsQuery
		since string
		until string
	)
	cmd := &cobra.Command{
		Use:   "events [id]",
		Short: "Query the event journal",
		Long: `List journal events, newest first, or show a single event by ID.

Event types: lock.violation, lock.bypass, lock.reapplied, lock.unlocked,
escalation.decay_reset, escalation.manual_reset, admin.action,
admin.auth_failure.`,
		Example: `  vigil events --type lock.violation,lock.bypass --since 24h
  vigil events 3f0c5a0e-8d7b-4d36-9a55-2b1f3c6f0f7e`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := flags.client()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				event, err := client.Event(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return printJSON(out, event)
				}
				printEvent(out, event)
				return nil
			}

			now := time.Now()
			var err error
			if q.Since, err = parseTimeFlag(since, now); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if q.Until, err = parseTimeFlag(until, now); err != nil {
				return fmt.Errorf("--until: %w", err)
			}

			resp, err := client.Events(cmd.Context(), q)
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return printJSON(out, resp)
			}
			if len(resp.Events) == 0 {
				fmt.Fprintln(out, "No events")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tTYPE\tSEVERITY\tCOUNT\tDESCRIPTION")
			for i := range resp.Events {
				e := &resp.Events[i]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					humanize.Time(e.Timestamp), e.Type, e.Severity, e.ViolationCount, e.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nShowing %d of %d events\n", len(resp.Events), resp.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&q.Types, "type", nil, "event types to include (comma separated)")
	f.StringVar(&q.EpisodeID, "episode", "", "only events of this lock episode")
	f.StringVar(&since, "since", "", "RFC 3339 time or a duration back from now, e.g. 24h")
	f.StringVar(&until, "until", "", "RFC 3339 time or a duration back from now")
	f.IntVar(&q.Limit, "limit", 50, "maximum number of events")
	f.IntVar(&q.Offset, "offset", 0, "number of events to skip")
	return cmd
}

// parseTimeFlag accepts an RFC 3339 timestamp or a duration meaning that
// long before now.
func parseTimeFlag(value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("%q is neither an RFC 3339 time nor a positive duration", value)
	}
	t := now.Add(-d)
	return &t, nil
}

func printEvent(w io.Writer, e *audit.Event) {
	fmt.Fprintf(w, "Event %s\n", e.ID)
	fmt.Fprintf(w, "  Time: %s (%s)\n", e.Timestamp.Local().Format(time.RFC1123), humanize.Time(e.Timestamp))
	fmt.Fprintf(w, "  Type: %s\n", e.Type)
	fmt.Fprintf(w, "  Severity: %s\n", e.Severity)
	fmt.Fprintf(w, "  Description: %s\n", e.Description)
	if e.EpisodeID != "" {
		fmt.Fprintf(w, "  Episode: %s\n", e.EpisodeID)
	}
	fmt.Fprintf(w, "  Violation count: %d\n", e.ViolationCount)
	if e.DurationSeconds > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", time.Duration(e.DurationSeconds*float64(time.Second)))
	}
	if e.Until != nil {
		fmt.Fprintf(w, "  Until: %s\n", e.Until.Local().Format(time.RFC1123))
	}
	if e.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", e.Reason)
	}
	if e.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", e.RemoteAddr)
	}
	if len(e.Metadata) > 0 {
		fmt.Fprintf(w, "  Metadata: %s\n", string(e.Metadata))
	}
}
