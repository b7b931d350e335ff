// Package verifier provides the clients the commit engine uses to check a
// proof against its public signals.
//
// A verifier call has two failure channels: a false result means the proof
// was evaluated and rejected, while a non-nil error means the call itself did
// not complete (transport failure, unknown verifier, rate-limit wait aborted).
// The engine maps these to ProofRejected and VerifierCallFailed respectively.
package verifier

import "context"

// Verifier checks a proof against public signals.
type Verifier interface {
	Verify(ctx context.Context, proof string, publicSignals []string) (bool, error)
}

// Func adapts an ordinary function to the Verifier interface.
type Func func(ctx context.Context, proof string, publicSignals []string) (bool, error)

// Verify calls f.
func (f Func) Verify(ctx context.Context, proof string, publicSignals []string) (bool, error) {
	return f(ctx, proof, publicSignals)
}

// Resolver maps a verifier identity, as recorded in the ledger settings, to
// a callable Verifier.
type Resolver interface {
	Resolve(id string) (Verifier, error)
}
