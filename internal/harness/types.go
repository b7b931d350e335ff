package harness

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// TraceEvent records the outcome of one flow step.
type TraceEvent struct {
	Step   int    `json:"step"` // 1-based flow index
	Op     string `json:"op"`
	Caller string `json:"caller,omitempty"`
	Target string `json:"target,omitempty"` // identity argument
	RunID  string `json:"run_id,omitempty"`
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Seq    int64  `json:"seq,omitempty"`
	Ticket string `json:"ticket,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step.
	Trace []TraceEvent `json:"trace"`

	// Events holds the persisted event-log payloads, in commit order.
	Events []json.RawMessage `json:"events"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Events: []json.RawMessage{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot is the golden form of a scenario run.
type Snapshot struct {
	Scenario string            `json:"scenario"`
	Trace    []TraceEvent      `json:"trace"`
	Events   []json.RawMessage `json:"events"`
}

// Snapshot returns the RFC 8785 canonical encoding of the trace and event
// log, suitable for byte comparison against a golden file.
func (r *Result) Snapshot(name string) ([]byte, error) {
	raw, err := json.Marshal(Snapshot{
		Scenario: name,
		Trace:    r.Trace,
		Events:   r.Events,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize snapshot: %w", err)
	}
	return canonical, nil
}
