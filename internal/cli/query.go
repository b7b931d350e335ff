package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/engine"
	"github.com/roach88/runledger/internal/ledger"
)

// RunResult is the output of get.
type RunResult struct {
	RunID       string      `json:"run_id"`
	Found       bool        `json:"found"`
	PayrollRoot string      `json:"payroll_root,omitempty"`
	TotalAmount string      `json:"total_amount,omitempty"`
	Mode        ledger.Mode `json:"mode,omitempty"`
	Seq         int64       `json:"seq,omitempty"`
	Timestamp   *time.Time  `json:"timestamp,omitempty"`
}

func (r RunResult) String() string {
	if !r.Found {
		return fmt.Sprintf("Run %s: not committed", r.RunID)
	}
	return fmt.Sprintf("Run %s\n  root:   %s\n  total:  %s\n  mode:   %s\n  seq:    %d\n  time:   %s",
		r.RunID, r.PayrollRoot, r.TotalAmount, r.Mode, r.Seq, r.Timestamp.Format(time.RFC3339Nano))
}

// ProcessedResult is the output of processed.
type ProcessedResult struct {
	RunID     string `json:"run_id"`
	Processed bool   `json:"processed"`
}

func (r ProcessedResult) String() string {
	return fmt.Sprintf("%s: %t", r.RunID, r.Processed)
}

// ListResult is the output of list.
type ListResult struct {
	From uint64            `json:"from"`
	Runs []ledger.RunEntry `json:"runs"`
}

func (r ListResult) String() string {
	if len(r.Runs) == 0 {
		return "No runs."
	}
	var b strings.Builder
	for i, e := range r.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d  %s  %s  %s", r.From+uint64(i), e.RunID, e.PayrollRoot, e.Timestamp.Format(time.RFC3339Nano))
	}
	return b.String()
}

// SettingsResult is the output of config.
type SettingsResult struct {
	ledger.Settings
	Mode string `json:"mode"` // "trusted" or "verified"
}

func (r SettingsResult) String() string {
	verifier := "(none)"
	if r.Verifier != "" {
		verifier = r.Verifier
	}
	return fmt.Sprintf("orchestrator: %s\nverifier:     %s\nmode:         %s", r.Orchestrator, verifier, r.Mode)
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show the commitment of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				runID := ledger.NormalizeID(args[0])
				c, ok, err := s.engine.GetCommitment(s.ctx, runID)
				if err != nil {
					return out.Fail(WrapExitError(ExitCommandError, "get failed", err))
				}
				if !ok {
					return out.Success(RunResult{RunID: runID})
				}
				return out.Success(RunResult{
					RunID:       c.RunID,
					Found:       true,
					PayrollRoot: c.PayrollRoot,
					TotalAmount: c.TotalAmount,
					Mode:        c.Mode,
					Seq:         c.Seq,
					Timestamp:   &c.CommittedAt,
				})
			})
		},
	}
}

// NewProcessedCommand creates the processed command.
func NewProcessedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "processed <run-id>",
		Short: "Report whether a run has been committed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				runID := ledger.NormalizeID(args[0])
				processed, err := s.engine.IsRunProcessed(s.ctx, runID)
				if err != nil {
					return out.Fail(WrapExitError(ExitCommandError, "processed failed", err))
				}
				return out.Success(ProcessedResult{RunID: runID, Processed: processed})
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var from, limit uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List committed runs in commit order",
		Long: `List committed runs in commit order.

Examples:
  runledger list
  runledger list --from 10 --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				runs, err := s.engine.ListRuns(s.ctx, engine.WithFrom(from), engine.WithLimit(limit))
				if err != nil {
					return out.Fail(WrapExitError(ExitCommandError, "list failed", err))
				}
				return out.Success(ListResult{From: from, Runs: runs})
			})
		},
	}

	cmd.Flags().Uint64Var(&from, "from", 0, "history offset to start from")
	cmd.Flags().Uint64Var(&limit, "limit", engine.DefaultListLimit, "maximum runs to return")

	return cmd
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the ledger orchestrator and verifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				settings, err := s.engine.Settings(s.ctx)
				if err != nil {
					return out.Fail(ledgerExit("config failed", err))
				}
				mode := string(ledger.ModeTrusted)
				if settings.HasVerifier() {
					mode = string(ledger.ModeVerified)
				}
				return out.Success(SettingsResult{Settings: settings, Mode: mode})
			})
		},
	}
}
