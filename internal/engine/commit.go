package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/runledger/internal/ledger"
)

// CommitPayroll submits a payroll commitment on behalf of caller.
//
// Verification is required iff a verifier is configured and the request
// carries both a proof and public signals. Without verification the commit
// is applied before CommitPayroll returns and Outcome.Receipt is set. With
// verification, Outcome.Pending is set and resolves once the verifier
// answers; the run is not processed until then.
//
// Fails with Unauthorized, DuplicateRun, NotInitialized or, in strict amount
// mode, InvalidArgument. A DuplicateRun here means the run was already
// processed when the request reached the loop.
func (e *Engine) CommitPayroll(ctx context.Context, caller string, req ledger.CommitRequest) (Outcome, error) {
	req.PublicSignals = slices.Clone(req.PublicSignals)
	return submit(ctx, e, "commit_payroll", func(ctx context.Context) (Outcome, error) {
		return e.handleCommit(ctx, caller, req)
	})
}

// handleCommit runs on the loop.
func (e *Engine) handleCommit(ctx context.Context, caller string, req ledger.CommitRequest) (Outcome, error) {
	settings, err := e.assertOrchestrator(ctx, caller)
	if err != nil {
		return Outcome{}, err
	}

	if e.strictAmounts {
		if err := ledger.ValidateAmount(req.TotalAmount); err != nil {
			return Outcome{}, err
		}
	}

	pc := pendingCommit{
		runID:       ledger.NormalizeID(req.RunID),
		payrollRoot: req.PayrollRoot,
		totalAmount: req.TotalAmount,
	}

	processed, err := e.store.IsProcessed(ctx, pc.runID)
	if err != nil {
		return Outcome{}, fmt.Errorf("commit %s: %w", pc.runID, err)
	}
	if processed {
		return Outcome{}, ledger.DuplicateRun(pc.runID)
	}

	if !settings.HasVerifier() || !req.HasProof() {
		receipt, err := e.applyCommit(ctx, pc, ledger.ModeTrusted)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Receipt: &receipt}, nil
	}

	p := e.dispatch(ctx, settings.Verifier, pc, *req.Proof, req.PublicSignals)
	return Outcome{Pending: p}, nil
}

// dispatch starts a verifier call and registers its pending handle.
// The call runs on its own goroutine and reports back through the queue.
// Run goroutine only.
func (e *Engine) dispatch(ctx context.Context, verifierID string, pc pendingCommit, proof string, signals []string) *Pending {
	ticket := e.tickets.Generate()
	p := newPending(ticket, pc.runID)
	e.pending[ticket] = p

	slog.Info("verification dispatched",
		"ticket", ticket,
		"run_id", pc.runID,
		"verifier", verifierID,
	)

	e.dispatches.Add(1)
	go func() {
		defer e.dispatches.Done()

		verified, err := e.callVerifier(ctx, verifierID, proof, signals)
		result := &verification{
			ticket:   ticket,
			commit:   pc,
			verified: verified,
			err:      err,
		}
		if !e.queue.Enqueue(event{typ: eventTypeVerification, verification: result}) {
			slog.Debug("verification result dropped: engine stopped", "ticket", ticket)
		}
	}()

	return p
}

// callVerifier resolves and calls the verifier. Resolution failures are
// call failures, exactly like transport errors.
func (e *Engine) callVerifier(ctx context.Context, verifierID, proof string, signals []string) (bool, error) {
	if e.verifiers == nil {
		return false, fmt.Errorf("no verifier clients configured for %q", verifierID)
	}
	v, err := e.verifiers.Resolve(verifierID)
	if err != nil {
		return false, err
	}
	return v.Verify(ctx, proof, signals)
}

// applyCommit persists a commitment and publishes its event.
//
// The store insert assigns the seq and writes the record, processed
// marker, history entry and event-log row in one transaction; a
// primary-key conflict there means another commit won, reported as
// DuplicateRun.
// Run goroutine only.
func (e *Engine) applyCommit(ctx context.Context, pc pendingCommit, mode ledger.Mode) (ledger.Receipt, error) {
	c := pc.commitment(mode)
	c.CommittedAt = e.now().UTC()

	ev := ledger.NewCommitmentEvent(c)
	seq, inserted, err := e.store.InsertCommitment(ctx, c, ev)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("commit %s: %w", c.RunID, err)
	}
	if !inserted {
		return ledger.Receipt{}, ledger.DuplicateRun(c.RunID)
	}
	c.Seq = seq

	slog.Info("commitment applied",
		"run_id", c.RunID,
		"mode", string(c.Mode),
		"seq", c.Seq,
	)

	if err := e.sink.Publish(ctx, ev); err != nil {
		// The event is durable in the store; sink delivery is best effort.
		slog.Warn("event publish failed",
			"run_id", c.RunID,
			"seq", c.Seq,
			"error", err,
		)
	}

	return ledger.NewReceipt(c), nil
}
