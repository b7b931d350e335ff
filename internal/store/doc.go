// Package store provides durable storage for the run commitment ledger.
//
// The store keeps four append-only structures and one settings table:
//   - commitments: run_id -> payroll root, total amount, timestamp, mode
//   - processed_runs: replay-protection markers, one per committed run
//   - run_history: insertion-ordered run index for pagination (seq)
//   - events: the durable commitment event log (one row per commit)
//   - ledger_settings: orchestrator and optional verifier identity
//
// # Invariants
//
// A run has a marker iff it has a record iff it has a history entry iff it
// has an event. InsertCommitment writes all four in one transaction and
// relies on the commitments primary key as the last replay guard: a
// conflicting insert writes nothing and reports inserted=false.
//
// Pagination orders by seq only. InsertCommitment allocates each seq
// inside its own transaction, so seq values are gapless, strictly
// increasing and never reused, even with several processes writing to the
// same database.
//
// # Backends
//
//   - SQLite (Open): WAL mode, synchronous=NORMAL, busy_timeout=5000,
//     foreign_keys=ON, a single writer connection, PRAGMA user_version
//     migrations.
//   - PostgreSQL (OpenPostgres): same schema, placeholders rebound from
//     ? to $n.
package store
