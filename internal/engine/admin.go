package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/runledger/internal/ledger"
)

// Initialize records the first orchestrator. Succeeds exactly once per
// ledger; later calls fail with AlreadyInitialized.
func (e *Engine) Initialize(ctx context.Context, orchestrator string) error {
	_, err := submit(ctx, e, "initialize", func(ctx context.Context) (struct{}, error) {
		id, err := ledger.ValidateAccount(orchestrator)
		if err != nil {
			return struct{}{}, err
		}
		if err := e.store.Initialize(ctx, id); err != nil {
			return struct{}{}, err
		}
		slog.Info("ledger initialized", "orchestrator", id)
		return struct{}{}, nil
	})
	return err
}

// SetOrchestrator hands write authority to newID. Only the current
// orchestrator may call it.
func (e *Engine) SetOrchestrator(ctx context.Context, caller, newID string) error {
	_, err := submit(ctx, e, "set_orchestrator", func(ctx context.Context) (struct{}, error) {
		if _, err := e.assertOrchestrator(ctx, caller); err != nil {
			return struct{}{}, err
		}
		id, err := ledger.ValidateAccount(newID)
		if err != nil {
			return struct{}{}, err
		}
		if err := e.store.SetOrchestrator(ctx, id); err != nil {
			return struct{}{}, err
		}
		slog.Info("orchestrator changed", "orchestrator", id)
		return struct{}{}, nil
	})
	return err
}

// SetVerifier configures the verifier identity. Commits carrying a proof
// are verified from the next request on; verifications already dispatched
// keep the verifier they were sent to.
func (e *Engine) SetVerifier(ctx context.Context, caller, id string) error {
	_, err := submit(ctx, e, "set_verifier", func(ctx context.Context) (struct{}, error) {
		if _, err := e.assertOrchestrator(ctx, caller); err != nil {
			return struct{}{}, err
		}
		vid, err := ledger.ValidateAccount(id)
		if err != nil {
			return struct{}{}, err
		}
		if err := e.store.SetVerifier(ctx, vid); err != nil {
			return struct{}{}, err
		}
		slog.Info("verifier set", "verifier", vid)
		return struct{}{}, nil
	})
	return err
}

// RemoveVerifier returns the ledger to trusted mode.
func (e *Engine) RemoveVerifier(ctx context.Context, caller string) error {
	_, err := submit(ctx, e, "remove_verifier", func(ctx context.Context) (struct{}, error) {
		if _, err := e.assertOrchestrator(ctx, caller); err != nil {
			return struct{}{}, err
		}
		if err := e.store.ClearVerifier(ctx); err != nil {
			return struct{}{}, err
		}
		slog.Info("verifier removed")
		return struct{}{}, nil
	})
	return err
}
