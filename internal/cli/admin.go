package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/ledger"
)

// AdminResult is the output of the configuration-changing commands.
type AdminResult struct {
	Action       string `json:"action"`
	Orchestrator string `json:"orchestrator,omitempty"`
	Verifier     string `json:"verifier,omitempty"`
}

func (r AdminResult) String() string {
	switch r.Action {
	case "init":
		return fmt.Sprintf("Ledger initialized (orchestrator: %s)", r.Orchestrator)
	case "set_orchestrator":
		return fmt.Sprintf("Orchestrator set to %s", r.Orchestrator)
	case "set_verifier":
		return fmt.Sprintf("Verifier set to %s", r.Verifier)
	default:
		return "Verifier removed (trusted mode)"
	}
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [orchestrator]",
		Short: "Initialize the ledger",
		Long: `Record the orchestrator identity of a new ledger.

Succeeds exactly once per database. Without an argument the caller
identity (--as or config identity) becomes the orchestrator.

Examples:
  runledger init payroll.testnet
  runledger init --as payroll.testnet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				var orchestrator string
				if len(args) == 1 {
					orchestrator = args[0]
				} else {
					caller, err := s.requireCaller()
					if err != nil {
						return out.Fail(err)
					}
					orchestrator = caller
				}

				if err := s.engine.Initialize(s.ctx, orchestrator); err != nil {
					return out.Fail(ledgerExit("init failed", err))
				}
				return out.Success(AdminResult{Action: "init", Orchestrator: ledger.NormalizeID(orchestrator)})
			})
		},
	}
}

// NewSetOrchestratorCommand creates the set-orchestrator command.
func NewSetOrchestratorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-orchestrator <id>",
		Short: "Hand write authority to a new orchestrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				caller, err := s.requireCaller()
				if err != nil {
					return out.Fail(err)
				}
				if err := s.engine.SetOrchestrator(s.ctx, caller, args[0]); err != nil {
					return out.Fail(ledgerExit("set-orchestrator failed", err))
				}
				return out.Success(AdminResult{Action: "set_orchestrator", Orchestrator: ledger.NormalizeID(args[0])})
			})
		},
	}
}

// NewSetVerifierCommand creates the set-verifier command.
func NewSetVerifierCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-verifier <id>",
		Short: "Require proof verification by a verifier",
		Long: `Configure the verifier identity.

Commits carrying both a proof and public signals are verified by the
verifier client registered under this id (see "verifiers" in the config).
An id without a configured client makes every such commit fail with
VERIFIER_CALL_FAILED.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				caller, err := s.requireCaller()
				if err != nil {
					return out.Fail(err)
				}
				if err := s.engine.SetVerifier(s.ctx, caller, args[0]); err != nil {
					return out.Fail(ledgerExit("set-verifier failed", err))
				}
				return out.Success(AdminResult{Action: "set_verifier", Verifier: ledger.NormalizeID(args[0])})
			})
		},
	}
}

// NewRemoveVerifierCommand creates the remove-verifier command.
func NewRemoveVerifierCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-verifier",
		Short: "Return to trusted mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withSession(rootOpts, cmd, func(s *session) error {
				caller, err := s.requireCaller()
				if err != nil {
					return out.Fail(err)
				}
				if err := s.engine.RemoveVerifier(s.ctx, caller); err != nil {
					return out.Fail(ledgerExit("remove-verifier failed", err))
				}
				return out.Success(AdminResult{Action: "remove_verifier"})
			})
		},
	}
}
