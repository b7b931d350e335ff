package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NEP-297 envelope constants for the commitment event.
const (
	EventStandard = "nep297"
	EventVersion  = "1.0.0"
	EventName     = "payroll_committed"

	// EventLogPrefix precedes the JSON payload on a log line.
	EventLogPrefix = "EVENT_JSON:"
)

// CommitmentEvent is the structured record emitted on every successful commit.
// Fields are declared in lexicographic key order so encoding/json emits
// sorted keys.
type CommitmentEvent struct {
	Data     []CommitmentEventData `json:"data"`
	Event    string                `json:"event"`
	Standard string                `json:"standard"`
	Version  string                `json:"version"`
}

// CommitmentEventData is the single payload entry of a CommitmentEvent.
type CommitmentEventData struct {
	PayrollRoot string `json:"payroll_root"`
	RunID       string `json:"run_id"`
	Timestamp   int64  `json:"timestamp"` // Unix nanoseconds
	TotalAmount string `json:"total_amount"`
}

// NewCommitmentEvent builds the event for a commitment.
func NewCommitmentEvent(c Commitment) CommitmentEvent {
	return CommitmentEvent{
		Standard: EventStandard,
		Version:  EventVersion,
		Event:    EventName,
		Data: []CommitmentEventData{{
			RunID:       c.RunID,
			PayrollRoot: c.PayrollRoot,
			TotalAmount: c.TotalAmount,
			Timestamp:   c.CommittedAt.UnixNano(),
		}},
	}
}

// RunID returns the run id of the event's payload entry.
func (e CommitmentEvent) RunID() string {
	if len(e.Data) == 0 {
		return ""
	}
	return e.Data[0].RunID
}

// MarshalPayload encodes the event as compact JSON with sorted keys and
// without HTML escaping. This is the byte form persisted and published.
func (e CommitmentEvent) MarshalPayload() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("marshal commitment event: %w", err)
	}
	// Encoder adds a trailing newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// LogLine returns the NEP-297 log line for the event.
func (e CommitmentEvent) LogLine() (string, error) {
	payload, err := e.MarshalPayload()
	if err != nil {
		return "", err
	}
	return EventLogPrefix + string(payload), nil
}

// ParseCommitmentEvent decodes a persisted payload.
func ParseCommitmentEvent(payload []byte) (CommitmentEvent, error) {
	var ev CommitmentEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return CommitmentEvent{}, fmt.Errorf("parse commitment event: %w", err)
	}
	return ev, nil
}

// StoredEvent is an event-log row.
type StoredEvent struct {
	Seq     int64
	RunID   string
	Payload []byte
}
