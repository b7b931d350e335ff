package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/ledger"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After int64
	Limit int
	RunID string
}

// EventEntry is one event-log row.
type EventEntry struct {
	Seq   int64           `json:"seq"`
	RunID string          `json:"run_id"`
	Event json.RawMessage `json:"event"`
}

// EventsResult holds the events command output.
type EventsResult struct {
	Events []EventEntry `json:"events"`
}

// String renders NEP-297 log lines, one per event.
func (r EventsResult) String() string {
	if len(r.Events) == 0 {
		return "No events."
	}
	lines := make([]string, len(r.Events))
	for i, e := range r.Events {
		lines[i] = fmt.Sprintf("%d %s%s", e.Seq, ledger.EventLogPrefix, e.Event)
	}
	return strings.Join(lines, "\n")
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read the commitment event log",
		Long: `Read the durable commitment event log in commit order.

Every committed run has exactly one payroll_committed event, recorded in
the same transaction as the commitment itself.

Examples:
  runledger events
  runledger events --after 41 --limit 100
  runledger events --run 2024-05 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events to return (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only the event of this run")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	return withSession(opts.RootOptions, cmd, func(s *session) error {
		var (
			stored []ledger.StoredEvent
			err    error
		)
		if opts.RunID != "" {
			stored, err = s.store.ReadEventsForRun(s.ctx, ledger.NormalizeID(opts.RunID))
		} else {
			stored, err = s.store.ReadEvents(s.ctx, opts.After, opts.Limit)
		}
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "failed to read events", err))
		}

		result := EventsResult{Events: make([]EventEntry, 0, len(stored))}
		for _, ev := range stored {
			result.Events = append(result.Events, EventEntry{
				Seq:   ev.Seq,
				RunID: ev.RunID,
				Event: json.RawMessage(ev.Payload),
			})
		}
		return out.Success(result)
	})
}
