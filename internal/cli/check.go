package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/store"
)

// CheckResult wraps the integrity report for output.
type CheckResult struct {
	store.IntegrityReport
	Healthy bool `json:"ok"`
}

func (r CheckResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "commitments: %d  markers: %d  history: %d  events: %d  last seq: %d\n",
		r.Commitments, r.Markers, r.History, r.Events, r.LastSeq)
	if r.Healthy {
		b.WriteString("✓ ledger is consistent")
		return b.String()
	}
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "✗ %s\n", v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ledger integrity",
		Long: `Verify that commitments, processed markers, run history and the event
log mirror each other exactly.

Exit codes:
  0 - Ledger is consistent
  1 - One or more violations found
  2 - Command error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				report, err := s.store.CheckIntegrity(s.ctx)
				if err != nil {
					return out.Fail(WrapExitError(ExitCommandError, "integrity check failed", err))
				}

				result := CheckResult{IntegrityReport: report, Healthy: report.OK()}
				if err := out.Success(result); err != nil {
					return err
				}
				if !result.Healthy {
					return NewExitError(ExitFailure, fmt.Sprintf("%d integrity violation(s)", len(report.Violations)))
				}
				return nil
			})
		},
	}
}
