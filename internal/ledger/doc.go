// Package ledger defines the domain types of the run commitment ledger.
//
// A commitment binds a run identifier to a payroll root and a total amount.
// Each run identifier is committed at most once; records are immutable
// after the write.
//
// # Identity
//
// Run identifiers and account identities are opaque strings. They are
// NFC-normalized by NormalizeID before comparison or storage, so two
// canonically equivalent spellings address the same run.
//
// # Errors
//
// Every rejection is an *Error carrying a Code. Use errors.Is against the
// package sentinels (ErrUnauthorized, ErrDuplicateRun, ...) or the IsX
// helpers to classify them.
//
// # Events
//
// A successful commit produces exactly one CommitmentEvent in the NEP-297
// envelope: standard "nep297", version "1.0.0", event "payroll_committed".
package ledger
