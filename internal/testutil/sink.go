package testutil

import (
	"context"
	"sync"

	"github.com/roach88/runledger/internal/ledger"
)

// RecordingSink collects published events in order. Set Err to make every
// publish fail after recording.
type RecordingSink struct {
	mu     sync.Mutex
	events []ledger.CommitmentEvent
	Err    error
}

// Publish implements events.Sink.
func (s *RecordingSink) Publish(_ context.Context, ev ledger.CommitmentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.Err
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []ledger.CommitmentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.CommitmentEvent, len(s.events))
	copy(out, s.events)
	return out
}

// RunIDs returns the run id of every recorded event.
func (s *RecordingSink) RunIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.events))
	for i, ev := range s.events {
		ids[i] = ev.RunID()
	}
	return ids
}
