package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/runledger/internal/verifier"
)

// ErrVerifierUnreachable is the call failure returned by Unreachable.
var ErrVerifierUnreachable = errors.New("verifier unreachable")

// Accepting returns a verifier that accepts every proof.
func Accepting() verifier.Func {
	return Static(true, nil)
}

// Rejecting returns a verifier that rejects every proof.
func Rejecting() verifier.Func {
	return Static(false, nil)
}

// Unreachable returns a verifier whose calls always fail.
func Unreachable() verifier.Func {
	return Static(false, ErrVerifierUnreachable)
}

// Static returns a verifier with a fixed answer.
func Static(result bool, err error) verifier.Func {
	return func(context.Context, string, []string) (bool, error) {
		return result, err
	}
}

// Call records one verifier invocation.
type Call struct {
	Proof         string
	PublicSignals []string
}

// GatedVerifier blocks every call until the test releases it, so tests can
// interleave commits while verifications are in flight.
//
// Calls are released in arrival order.
type GatedVerifier struct {
	mu      sync.Mutex
	calls   []Call
	gates   []chan gateResult
	arrived chan struct{}
}

type gateResult struct {
	verified bool
	err      error
}

// NewGatedVerifier creates a gated verifier.
func NewGatedVerifier() *GatedVerifier {
	return &GatedVerifier{arrived: make(chan struct{}, 1024)}
}

// Verify implements verifier.Verifier. Blocks until released or ctx is done.
func (g *GatedVerifier) Verify(ctx context.Context, proof string, publicSignals []string) (bool, error) {
	gate := make(chan gateResult, 1)

	g.mu.Lock()
	g.calls = append(g.calls, Call{Proof: proof, PublicSignals: publicSignals})
	g.gates = append(g.gates, gate)
	g.mu.Unlock()

	g.arrived <- struct{}{}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-gate:
		return r.verified, r.err
	}
}

// AwaitCalls blocks until n calls (in total since the last AwaitCalls) have
// arrived or ctx is done.
func (g *GatedVerifier) AwaitCalls(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.arrived:
		}
	}
	return nil
}

// Release answers the oldest unreleased call. Returns false if no call is
// waiting.
func (g *GatedVerifier) Release(verified bool, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.gates) == 0 {
		return false
	}
	gate := g.gates[0]
	g.gates = g.gates[1:]
	gate <- gateResult{verified: verified, err: err}
	return true
}

// Calls returns every call received so far.
func (g *GatedVerifier) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}
