package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/runledger/internal/ledger"
)

// Settings keys in ledger_settings.
const (
	settingOrchestrator = "orchestrator"
	settingVerifier     = "verifier"
)

// Initialize records the initial orchestrator. It succeeds exactly once per
// database; later calls return ledger.ErrAlreadyInitialized.
func (s *Store) Initialize(ctx context.Context, orchestrator string) error {
	result, err := s.exec(ctx, s.db, `
		INSERT INTO ledger_settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, settingOrchestrator, orchestrator)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("initialize: rows affected: %w", err)
	}
	if rows == 0 {
		return ledger.ErrAlreadyInitialized
	}
	return nil
}

// SetOrchestrator replaces the orchestrator identity.
func (s *Store) SetOrchestrator(ctx context.Context, id string) error {
	if err := s.upsertSetting(ctx, settingOrchestrator, id); err != nil {
		return fmt.Errorf("set orchestrator: %w", err)
	}
	return nil
}

// SetVerifier configures the verifier identity.
func (s *Store) SetVerifier(ctx context.Context, id string) error {
	if err := s.upsertSetting(ctx, settingVerifier, id); err != nil {
		return fmt.Errorf("set verifier: %w", err)
	}
	return nil
}

// ClearVerifier removes the verifier identity, returning the ledger to
// trusted mode. Clearing an absent verifier is not an error.
func (s *Store) ClearVerifier(ctx context.Context) error {
	if _, err := s.exec(ctx, s.db, `DELETE FROM ledger_settings WHERE key = ?`, settingVerifier); err != nil {
		return fmt.Errorf("clear verifier: %w", err)
	}
	return nil
}

func (s *Store) upsertSetting(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO ledger_settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// InsertCommitment atomically writes the commitment record, its processed
// marker, its run history entry and its event-log row, and returns the
// history seq it assigned.
//
// The seq is allocated inside the transaction as one past the current
// maximum, so engines in separate processes sharing a database never
// collide; c.Seq is ignored. Returns inserted=false, and writes nothing,
// when the run is already committed. The caller is expected to have
// checked IsProcessed first; the primary-key conflict catches any commit
// that raced past that check.
func (s *Store) InsertCommitment(ctx context.Context, c ledger.Commitment, ev ledger.CommitmentEvent) (seq int64, inserted bool, err error) {
	payload, err := ev.MarshalPayload()
	if err != nil {
		return 0, false, fmt.Errorf("insert commitment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("insert commitment: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: claim the run id (the replay guard). On SQLite this also
	// takes the database write lock for the rest of the transaction.
	result, err := s.exec(ctx, tx, `
		INSERT INTO commitments
		(run_id, payroll_root, total_amount, mode, committed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		c.RunID,
		c.PayrollRoot,
		c.TotalAmount,
		string(c.Mode),
		c.CommittedAt.UnixNano(),
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert commitment: insert record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert commitment: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, false, nil
	}

	// Step 2: processed marker
	if _, err := s.exec(ctx, tx, `INSERT INTO processed_runs (run_id) VALUES (?)`, c.RunID); err != nil {
		return 0, false, fmt.Errorf("insert commitment: insert marker: %w", err)
	}

	// Step 3: allocate the seq and append the history entry
	seq, err = s.nextSeq(ctx, tx)
	if err != nil {
		return 0, false, fmt.Errorf("insert commitment: %w", err)
	}
	if _, err := s.exec(ctx, tx, `INSERT INTO run_history (seq, run_id) VALUES (?, ?)`, seq, c.RunID); err != nil {
		return 0, false, fmt.Errorf("insert commitment: append history: %w", err)
	}

	// Step 4: event log
	if _, err := s.exec(ctx, tx, `INSERT INTO events (seq, run_id, payload) VALUES (?, ?, ?)`, seq, c.RunID, string(payload)); err != nil {
		return 0, false, fmt.Errorf("insert commitment: append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("insert commitment: commit: %w", err)
	}

	return seq, true, nil
}

// nextSeq returns one past the highest history seq, as seen by tx.
// PostgreSQL first locks run_history against other allocating writers;
// SQLite already serializes writers on the database lock.
func (s *Store) nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	if s.dialect == DialectPostgres {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE run_history IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return 0, fmt.Errorf("lock history: %w", err)
		}
	}

	var seq int64
	if err := s.queryRow(ctx, tx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM run_history`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("allocate seq: %w", err)
	}
	return seq, nil
}
