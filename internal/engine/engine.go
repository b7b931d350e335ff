package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/runledger/internal/events"
	"github.com/roach88/runledger/internal/store"
	"github.com/roach88/runledger/internal/verifier"
)

// Engine is the single-writer commitment engine.
//
// Thread-safety model:
//   - public operations (CommitPayroll, SetVerifier, ...): safe from any goroutine
//   - queries (GetRunRoot, ListRuns, ...): safe from any goroutine, read the store directly
//   - Run(): must be called from exactly one goroutine
//
// INVARIANTS:
//   - Only the Run goroutine writes to the store
//   - pending is owned by the Run goroutine
//   - A run id has at most one commitment, whichever path applied it
type Engine struct {
	store     *store.Store
	verifiers verifier.Resolver
	sink      events.Sink
	tickets   TicketGenerator
	now       func() time.Time
	queue     *eventQueue

	strictAmounts bool

	// pending maps ticket -> handle of an outstanding verification.
	// Run goroutine only.
	pending map[string]*Pending

	// dispatches tracks verifier goroutines so Run can wait for them on exit.
	dispatches sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets where committed events are published after the store
// transaction commits. Default: events.Nop.
func WithSink(s events.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithTicketGenerator sets the verification ticket generator.
// Default: UUIDv7Generator.
func WithTicketGenerator(g TicketGenerator) Option {
	return func(e *Engine) {
		e.tickets = g
	}
}

// WithNow sets the wall-clock source for commitment timestamps.
// Default: time.Now.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithStrictAmounts rejects total amounts that are not well-formed
// non-negative decimals. Default: off; amounts are stored verbatim.
func WithStrictAmounts(strict bool) Option {
	return func(e *Engine) {
		e.strictAmounts = strict
	}
}

// New creates an Engine over s. verifiers resolves the configured verifier
// identity; it may be nil, in which case every verification fails with
// VerifierCallFailed.
func New(s *store.Store, verifiers verifier.Resolver, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		verifiers: verifiers,
		sink:      events.Nop{},
		tickets:   UUIDv7Generator{},
		now:       time.Now,
		queue:     newEventQueue(),
		pending:   make(map[string]*Pending),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run starts the single-writer event loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// The store is read once before any event is processed, so an
// unreachable database fails Run instead of the first commit.
//
// On exit, requests still queued fail with ErrEngineStopped, the context
// passed to in-flight verifier calls is cancelled, and every outstanding
// Pending resolves with ErrEngineStopped.
func (e *Engine) Run(ctx context.Context) error {
	lastSeq, err := e.store.LastSeq(ctx)
	if err != nil {
		e.queue.Close()
		e.shutdown()
		return fmt.Errorf("read last seq: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		e.dispatches.Wait()
		e.shutdown()
	}()

	slog.Info("engine starting", "last_seq", lastSeq)

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			e.processEvent(loopCtx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case _, open := <-e.queue.Wait():
			if !open && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// processEvent routes an event to its handler.
// Called only from the Run goroutine.
func (e *Engine) processEvent(ctx context.Context, ev event) {
	switch ev.typ {
	case eventTypeRequest:
		value, err := ev.request.apply(ctx)
		if err != nil {
			slog.Debug("request rejected", "op", ev.request.op, "error", err)
		}
		ev.request.reply <- reply{value: value, err: err}

	case eventTypeVerification:
		e.processVerification(ctx, ev.verification)

	default:
		slog.Error("unknown event type", "type", int(ev.typ))
	}
}

// shutdown fails everything still waiting on the loop. The queue must
// already be closed and every dispatch finished.
func (e *Engine) shutdown() {
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			break
		}
		if ev.typ == eventTypeRequest {
			ev.request.reply <- reply{err: ErrEngineStopped}
		}
	}

	for ticket, p := range e.pending {
		slog.Warn("verification abandoned",
			"ticket", ticket,
			"run_id", p.RunID,
		)
		p.resolve(nil, ErrEngineStopped)
		delete(e.pending, ticket)
	}
}

// submit runs fn on the loop and waits for its result.
//
// A cancelled ctx stops the wait, not the operation: a request that was
// already enqueued still runs.
func submit[T any](ctx context.Context, e *Engine, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	req := &request{
		op: op,
		apply: func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
		reply: make(chan reply, 1),
	}

	if !e.queue.Enqueue(event{typ: eventTypeRequest, request: req}) {
		return zero, ErrEngineStopped
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-req.reply:
		if r.err != nil {
			return zero, r.err
		}
		value, _ := r.value.(T)
		return value, nil
	}
}
