package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/ledger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string // explicit config file; empty searches the defaults
	Database   string // overrides database.path (sqlite) or database.dsn (postgres)
	Caller     string // overrides the configured identity
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the runledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "runledger",
		Short:   "runledger - payroll commitment ledger",
		Version: ledger.EngineVersion,
		Long: `A ledger of payroll run commitments.

Each payroll run is committed exactly once by the orchestrator, either
directly (trusted mode) or after an external verifier accepts its proof.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ./runledger.yaml over the user config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path or DSN (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Caller, "as", "", "caller identity (overrides config identity)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewCommitCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewProcessedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewSetOrchestratorCommand(opts))
	cmd.AddCommand(NewSetVerifierCommand(opts))
	cmd.AddCommand(NewRemoveVerifierCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the CLI with args and returns the process exit code.
// Errors not already reported by a command are written to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	if !IsReported(err) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Flag and argument errors raised by cobra itself.
	return ExitCommandError
}
