package engine

import (
	"context"
	"sync"

	"github.com/roach88/runledger/internal/ledger"
)

// eventType distinguishes between event kinds.
type eventType int

const (
	// eventTypeRequest carries a public operation to run on the loop.
	eventTypeRequest eventType = iota + 1
	// eventTypeVerification carries a finished verifier call.
	eventTypeVerification
)

// event wraps requests and verification results for the event queue.
type event struct {
	typ          eventType
	request      *request
	verification *verification
}

// request is a public operation waiting to run on the loop.
// reply is buffered so the loop never blocks on an abandoned caller.
type request struct {
	op    string
	apply func(ctx context.Context) (any, error)
	reply chan reply
}

type reply struct {
	value any
	err   error
}

// verification is the outcome of one dispatched verifier call, together
// with the commit it gates.
type verification struct {
	ticket   string
	commit   pendingCommit
	verified bool
	err      error
}

// pendingCommit is the state carried from dispatch to resolution.
type pendingCommit struct {
	runID       string
	payrollRoot string
	totalAmount string
}

func (c pendingCommit) commitment(mode ledger.Mode) ledger.Commitment {
	return ledger.Commitment{
		RunID:       c.runID,
		PayrollRoot: c.payrollRoot,
		TotalAmount: c.totalAmount,
		Mode:        mode,
	}
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so verifier goroutines never block when they
// report back.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}

	e := q.events[0]

	// Nil out the slot so the backing array does not retain the request
	q.events[0] = event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed once the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return // Already closed
	}

	q.closed = true
	close(q.signal)
}
