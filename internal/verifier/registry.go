package verifier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/runledger/internal/ledger"
)

// ErrUnknownVerifier is returned by Resolve for an identity with no client.
var ErrUnknownVerifier = errors.New("unknown verifier")

// Registry is a concurrency-safe Resolver backed by a map.
//
// Identities are NFC-normalized on both Register and Resolve.
type Registry struct {
	mu        sync.RWMutex
	verifiers map[string]Verifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[string]Verifier)}
}

// Register binds id to v, replacing any earlier binding.
func (r *Registry) Register(id string, v Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifiers[ledger.NormalizeID(id)] = v
}

// Resolve returns the verifier bound to id.
func (r *Registry) Resolve(id string) (Verifier, error) {
	key := ledger.NormalizeID(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.verifiers[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVerifier, id)
}

// IDs returns the registered identities in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.verifiers))
	for id := range r.verifiers {
		ids = append(ids, id)
	}
	return ids
}
