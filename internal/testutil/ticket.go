package testutil

import (
	"fmt"
	"sync"
)

// SequentialTickets generates "<prefix>-1", "<prefix>-2", ...
//
// Unlike engine.FixedGenerator it never runs out, so a scenario can dispatch
// any number of verifications and still produce byte-identical logs.
type SequentialTickets struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTickets creates a generator. An empty prefix selects "ticket".
func NewSequentialTickets(prefix string) *SequentialTickets {
	if prefix == "" {
		prefix = "ticket"
	}
	return &SequentialTickets{prefix: prefix}
}

// Generate implements engine.TicketGenerator.
func (g *SequentialTickets) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
