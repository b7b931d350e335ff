package engine

import (
	"context"
	"errors"

	"github.com/roach88/runledger/internal/ledger"
)

// DefaultListLimit is the page size of ListRuns when no limit is given.
const DefaultListLimit = 10

// Queries read the store directly and never mutate, so they do not need
// the loop and work while Run is not running.

// GetRunRoot returns the committed payroll root of runID.
func (e *Engine) GetRunRoot(ctx context.Context, runID string) (string, bool, error) {
	return e.store.GetRoot(ctx, ledger.NormalizeID(runID))
}

// GetCommitment returns the full commitment record of runID; ok is false
// if the run has not been committed.
func (e *Engine) GetCommitment(ctx context.Context, runID string) (c ledger.Commitment, ok bool, err error) {
	return e.store.GetCommitment(ctx, ledger.NormalizeID(runID))
}

// IsRunProcessed reports whether runID has been committed.
func (e *Engine) IsRunProcessed(ctx context.Context, runID string) (bool, error) {
	return e.store.IsProcessed(ctx, ledger.NormalizeID(runID))
}

// GetOrchestrator returns the orchestrator identity.
func (e *Engine) GetOrchestrator(ctx context.Context) (string, error) {
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return "", err
	}
	return settings.Orchestrator, nil
}

// GetVerifier returns the verifier identity; ok is false in trusted mode.
// An uninitialized ledger has no verifier.
func (e *Engine) GetVerifier(ctx context.Context) (id string, ok bool, err error) {
	settings, err := e.store.Settings(ctx)
	if errors.Is(err, ledger.ErrNotInitialized) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return settings.Verifier, settings.HasVerifier(), nil
}

// Settings returns the full configuration state.
func (e *Engine) Settings(ctx context.Context) (ledger.Settings, error) {
	return e.store.Settings(ctx)
}

// listOptions holds ListRuns pagination.
type listOptions struct {
	from  uint64
	limit uint64
}

// ListOption configures ListRuns.
type ListOption func(*listOptions)

// WithFrom sets the history offset to start from. Default: 0.
func WithFrom(from uint64) ListOption {
	return func(o *listOptions) {
		o.from = from
	}
}

// WithLimit sets the maximum entries to return. Default: DefaultListLimit.
// No upper bound is enforced.
func WithLimit(limit uint64) ListOption {
	return func(o *listOptions) {
		o.limit = limit
	}
}

// ListRuns returns committed runs in commit order. Past the end it returns
// an empty slice.
func (e *Engine) ListRuns(ctx context.Context, opts ...ListOption) ([]ledger.RunEntry, error) {
	o := listOptions{from: 0, limit: DefaultListLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return e.store.ListRange(ctx, o.from, o.limit)
}
