package verifier

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited wraps a Verifier so every call first waits on a shared limiter.
type Limited struct {
	next    Verifier
	limiter *rate.Limiter
}

// NewLimited wraps v with limiter. A nil limiter returns v unchanged.
func NewLimited(v Verifier, limiter *rate.Limiter) Verifier {
	if limiter == nil {
		return v
	}
	return &Limited{next: v, limiter: limiter}
}

// Verify waits for a dispatch token, then calls the wrapped verifier.
// An aborted wait is a call failure.
func (l *Limited) Verify(ctx context.Context, proof string, publicSignals []string) (bool, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.next.Verify(ctx, proof, publicSignals)
}

// NewLimiter builds a limiter for perSecond dispatches with the given burst.
// perSecond <= 0 means unlimited and returns nil.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// limitedResolver applies one limiter to every verifier it resolves.
type limitedResolver struct {
	next    Resolver
	limiter *rate.Limiter
}

// LimitResolver returns a Resolver whose verifiers share limiter, so the
// limit bounds total dispatch rate across all verifier identities.
func LimitResolver(r Resolver, limiter *rate.Limiter) Resolver {
	if limiter == nil {
		return r
	}
	return &limitedResolver{next: r, limiter: limiter}
}

func (l *limitedResolver) Resolve(id string) (Verifier, error) {
	v, err := l.next.Resolve(id)
	if err != nil {
		return nil, err
	}
	return NewLimited(v, l.limiter), nil
}
