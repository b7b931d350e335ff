package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/runledger/internal/ledger"
)

// processVerification resolves a finished verifier call and delivers the
// outcome to its pending handle. Run goroutine only.
func (e *Engine) processVerification(ctx context.Context, v *verification) {
	p, ok := e.pending[v.ticket]
	delete(e.pending, v.ticket)

	receipt, err := e.resolveCommit(ctx, v)
	if err != nil {
		slog.Info("verification rejected",
			"ticket", v.ticket,
			"run_id", v.commit.runID,
			"code", string(ledger.CodeOf(err)),
			"error", err,
		)
	} else {
		slog.Info("verification accepted",
			"ticket", v.ticket,
			"run_id", receipt.RunID,
			"seq", receipt.Seq,
		)
	}

	if !ok {
		slog.Warn("verification for unknown ticket", "ticket", v.ticket)
		return
	}
	if err != nil {
		p.resolve(nil, err)
		return
	}
	p.resolve(&receipt, nil)
}

// resolveCommit is the continuation of a verify-then-commit flow.
//
//   - call failed: VerifierCallFailed, no mutation
//   - proof rejected: ProofRejected, no mutation
//   - proof accepted but run processed meanwhile: DuplicateRun, no mutation
//   - proof accepted: commit applied in verified mode
func (e *Engine) resolveCommit(ctx context.Context, v *verification) (ledger.Receipt, error) {
	runID := v.commit.runID

	if v.err != nil {
		return ledger.Receipt{}, ledger.VerifierCallFailed(runID, v.err)
	}
	if !v.verified {
		return ledger.Receipt{}, ledger.ProofRejected(runID)
	}

	processed, err := e.store.IsProcessed(ctx, runID)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("resolve %s: %w", runID, err)
	}
	if processed {
		return ledger.Receipt{}, ledger.DuplicateRun(runID)
	}

	return e.applyCommit(ctx, v.commit, ledger.ModeVerified)
}
