package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TicketGenerator issues the identifiers of dispatched verifications.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TicketGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tickets.
//
// UUIDv7 embeds a timestamp in the most significant bits, so tickets sort
// by dispatch time in logs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tickets for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
// Example:
//
//	gen := NewFixedGenerator("ticket-1", "ticket-2")
//	gen.Generate() // "ticket-1"
//	gen.Generate() // "ticket-2"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
//
// Panics if all tokens have been consumed, to catch a test that dispatched
// more verifications than it expected.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
