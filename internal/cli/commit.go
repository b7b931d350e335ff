package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/ledger"
)

// DefaultCommitTimeout bounds how long commit waits for a verification.
const DefaultCommitTimeout = time.Minute

// CommitOptions holds flags for the commit command.
type CommitOptions struct {
	*RootOptions
	RunID       string
	Root        string
	Total       string
	Proof       string
	Signals     []string
	Attestation string
	Timeout     time.Duration
}

// CommitResult is the output of a successful commit.
type CommitResult struct {
	ledger.Receipt
	Ticket string `json:"ticket,omitempty"` // set when the commit was verified
}

func (r CommitResult) String() string {
	s := fmt.Sprintf("%s: run %s (seq %d)", r.Message, r.RunID, r.Seq)
	if r.Ticket != "" {
		s += fmt.Sprintf(" [ticket %s]", r.Ticket)
	}
	return s
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit a payroll run",
		Long: `Commit the payroll root of a run.

With a verifier configured, a commit carrying both --proof and --signals
is verified first and waits (up to --timeout) for the verifier's answer.
Otherwise it is committed immediately in trusted mode.

Examples:
  runledger commit --run-id 2024-05 --root 0xabc --total 125000.00
  runledger commit --run-id 2024-06 --root 0xdef --total 99 --proof 0xp --signals 1,2
  runledger commit --run-id 2024-07 --root 0x01 --total 0 --proof 0xp --signals ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run identifier (required)")
	_ = cmd.MarkFlagRequired("run-id")
	cmd.Flags().StringVar(&opts.Root, "root", "", "payroll root hash (required)")
	_ = cmd.MarkFlagRequired("root")
	cmd.Flags().StringVar(&opts.Total, "total", "", "total amount (required)")
	_ = cmd.MarkFlagRequired("total")
	cmd.Flags().StringVar(&opts.Proof, "proof", "", "proof for the verifier")
	cmd.Flags().StringSliceVar(&opts.Signals, "signals", nil, "comma-separated public signals (empty string for none)")
	cmd.Flags().StringVar(&opts.Attestation, "attestation", "", "attestation (recorded, no effect)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", DefaultCommitTimeout, "how long to wait for verification")

	return cmd
}

// commitRequest builds the request. Flags that were not given are
// "not supplied"; --signals "" supplies an empty list.
func commitRequest(opts *CommitOptions, cmd *cobra.Command) ledger.CommitRequest {
	req := ledger.CommitRequest{
		RunID:       opts.RunID,
		PayrollRoot: opts.Root,
		TotalAmount: opts.Total,
	}
	if cmd.Flags().Changed("proof") {
		proof := opts.Proof
		req.Proof = &proof
	}
	if cmd.Flags().Changed("signals") {
		req.PublicSignals = append([]string{}, opts.Signals...)
	}
	if cmd.Flags().Changed("attestation") {
		attestation := opts.Attestation
		req.Attestation = &attestation
	}
	return req
}

func runCommit(opts *CommitOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	return withSession(opts.RootOptions, cmd, func(s *session) error {
		caller, err := s.requireCaller()
		if err != nil {
			return out.Fail(err)
		}

		outcome, err := s.engine.CommitPayroll(s.ctx, caller, commitRequest(opts, cmd))
		if err != nil {
			return out.Fail(ledgerExit("commit failed", err))
		}

		var result CommitResult
		if outcome.IsPending() {
			result.Ticket = outcome.Pending.Ticket
			out.VerboseLog("verification dispatched: ticket %s", result.Ticket)
		}

		ctx, cancel := context.WithTimeout(s.ctx, opts.Timeout)
		defer cancel()

		receipt, err := outcome.Await(ctx)
		if err != nil {
			return out.Fail(ledgerExit("commit failed", err))
		}
		result.Receipt = receipt
		return out.Success(result)
	})
}
