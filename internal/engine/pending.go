package engine

import (
	"context"

	"github.com/roach88/runledger/internal/ledger"
)

// Outcome is the result of an accepted CommitPayroll call: exactly one of
// Receipt (trusted path, already committed) or Pending (verification
// dispatched) is set.
type Outcome struct {
	Receipt *ledger.Receipt
	Pending *Pending
}

// IsPending reports whether the commit awaits verification.
func (o Outcome) IsPending() bool {
	return o.Pending != nil
}

// Await returns the final receipt, waiting for verification if needed.
func (o Outcome) Await(ctx context.Context) (ledger.Receipt, error) {
	if o.Pending != nil {
		return o.Pending.Wait(ctx)
	}
	if o.Receipt == nil {
		return ledger.Receipt{}, ErrEngineStopped
	}
	return *o.Receipt, nil
}

// Pending is the handle of a dispatched verification. It resolves exactly
// once, with a verified receipt or a rejection.
type Pending struct {
	Ticket string
	RunID  string

	done    chan struct{}
	receipt *ledger.Receipt
	err     error
}

func newPending(ticket, runID string) *Pending {
	return &Pending{
		Ticket: ticket,
		RunID:  runID,
		done:   make(chan struct{}),
	}
}

// Done returns a channel closed when the verification has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the verification resolves or ctx is done. A cancelled
// wait does not cancel the verification.
func (p *Pending) Wait(ctx context.Context) (ledger.Receipt, error) {
	select {
	case <-ctx.Done():
		return ledger.Receipt{}, ctx.Err()
	case <-p.done:
	}
	if p.err != nil {
		return ledger.Receipt{}, p.err
	}
	return *p.receipt, nil
}

// resolve records the terminal outcome. Run goroutine only, at most once.
func (p *Pending) resolve(receipt *ledger.Receipt, err error) {
	p.receipt = receipt
	p.err = err
	close(p.done)
}
