// Package events publishes commitment events to external sinks.
//
// The durable event log is written by the store inside the commit
// transaction. Sinks receive the same event after the transaction commits;
// a sink failure is reported to the caller but never undoes a commit.
package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/roach88/runledger/internal/ledger"
)

// Sink receives committed events.
type Sink interface {
	Publish(ctx context.Context, ev ledger.CommitmentEvent) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Sink.
func (Nop) Publish(context.Context, ledger.CommitmentEvent) error { return nil }

// LogSink writes each event as one NEP-297 "EVENT_JSON:" line.
type LogSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogSink creates a sink writing to w.
func NewLogSink(w io.Writer) *LogSink {
	return &LogSink{w: w}
}

// Publish implements Sink.
func (s *LogSink) Publish(_ context.Context, ev ledger.CommitmentEvent) error {
	line, err := ev.LogLine()
	if err != nil {
		return fmt.Errorf("log sink: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		return fmt.Errorf("log sink: write: %w", err)
	}
	return nil
}

// multi fans out to several sinks.
type multi []Sink

// Multi returns a Sink publishing to every non-nil sink in order. Every
// sink is attempted; the errors are joined.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

func (m multi) Publish(ctx context.Context, ev ledger.CommitmentEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
