package engine

import (
	"context"

	"github.com/roach88/runledger/internal/ledger"
)

// assertOrchestrator fails with Unauthorized unless caller is the recorded
// orchestrator. Returns the settings it read so callers need not read again.
// Run goroutine only.
func (e *Engine) assertOrchestrator(ctx context.Context, caller string) (ledger.Settings, error) {
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return ledger.Settings{}, err
	}
	if ledger.NormalizeID(caller) != settings.Orchestrator {
		return ledger.Settings{}, ledger.Unauthorized(caller)
	}
	return settings, nil
}
