package ledger

import "time"

// Mode records which commit path accepted a commitment.
type Mode string

const (
	// ModeTrusted marks commits applied without proof verification.
	ModeTrusted Mode = "trusted"

	// ModeVerified marks commits applied after the verifier accepted the proof.
	ModeVerified Mode = "verified"
)

// Confirmation messages returned to the orchestrator.
const (
	MessageTrusted  = "Committed (Trusted Mode)"
	MessageVerified = "Committed (Verified)"
)

// Message returns the confirmation text for the mode.
func (m Mode) Message() string {
	switch m {
	case ModeVerified:
		return MessageVerified
	default:
		return MessageTrusted
	}
}

// CommitRequest is the input of a payroll commit.
//
// Proof and PublicSignals are optional: a nil Proof or a nil PublicSignals
// slice means "not supplied". An empty, non-nil PublicSignals slice counts
// as supplied. Attestation is accepted and currently has no effect.
type CommitRequest struct {
	RunID         string
	PayrollRoot   string
	TotalAmount   string
	Proof         *string
	PublicSignals []string
	Attestation   *string
}

// HasProof reports whether both a proof and public signals were supplied.
func (r CommitRequest) HasProof() bool {
	return r.Proof != nil && r.PublicSignals != nil
}

// Commitment is a persisted commitment record.
type Commitment struct {
	RunID       string
	PayrollRoot string
	TotalAmount string
	Mode        Mode
	Seq         int64     // position in the run history
	CommittedAt time.Time // timestamp emitted in the commitment event
}

// RunEntry is one row of the paginated run listing.
type RunEntry struct {
	RunID       string    `json:"run_id"`
	PayrollRoot string    `json:"payroll_root"`
	Timestamp   time.Time `json:"timestamp"`
}

// Settings is the ledger configuration state.
// An empty Verifier means trusted mode.
type Settings struct {
	Orchestrator string `json:"orchestrator"`
	Verifier     string `json:"verifier,omitempty"`
}

// HasVerifier reports whether a verifier is configured.
func (s Settings) HasVerifier() bool {
	return s.Verifier != ""
}

// Receipt confirms an applied commit.
type Receipt struct {
	RunID       string    `json:"run_id"`
	PayrollRoot string    `json:"payroll_root"`
	TotalAmount string    `json:"total_amount"`
	Mode        Mode      `json:"mode"`
	Seq         int64     `json:"seq"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
}

// NewReceipt builds the receipt for a persisted commitment.
func NewReceipt(c Commitment) Receipt {
	return Receipt{
		RunID:       c.RunID,
		PayrollRoot: c.PayrollRoot,
		TotalAmount: c.TotalAmount,
		Mode:        c.Mode,
		Seq:         c.Seq,
		Timestamp:   c.CommittedAt,
		Message:     c.Mode.Message(),
	}
}
