package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roach88/runledger/internal/ledger"
)

// Settings returns the ledger configuration state.
// Returns ledger.ErrNotInitialized if no orchestrator has been recorded.
func (s *Store) Settings(ctx context.Context) (ledger.Settings, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT key, value FROM ledger_settings
		WHERE key IN (?, ?)
	`, settingOrchestrator, settingVerifier)
	if err != nil {
		return ledger.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	defer rows.Close()

	var settings ledger.Settings
	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return ledger.Settings{}, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case settingOrchestrator:
			settings.Orchestrator = value
			found = true
		case settingVerifier:
			settings.Verifier = value
		}
	}
	if err := rows.Err(); err != nil {
		return ledger.Settings{}, fmt.Errorf("iterate settings: %w", err)
	}

	if !found {
		return ledger.Settings{}, ledger.ErrNotInitialized
	}
	return settings, nil
}

// GetRoot returns the payroll root committed for runID.
// ok is false if the run has not been committed.
func (s *Store) GetRoot(ctx context.Context, runID string) (root string, ok bool, err error) {
	err = s.queryRow(ctx, s.db, `SELECT payroll_root FROM commitments WHERE run_id = ?`, runID).Scan(&root)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get root: %w", err)
	}
	return root, true, nil
}

// GetCommitment returns the full commitment record for runID; ok is false
// if the run has not been committed.
func (s *Store) GetCommitment(ctx context.Context, runID string) (ledger.Commitment, bool, error) {
	row := s.queryRow(ctx, s.db, `
		SELECT c.run_id, c.payroll_root, c.total_amount, c.mode, c.committed_at, h.seq
		FROM commitments c
		JOIN run_history h ON h.run_id = c.run_id
		WHERE c.run_id = ?
	`, runID)

	var (
		c     ledger.Commitment
		mode  string
		nanos int64
	)
	err := row.Scan(&c.RunID, &c.PayrollRoot, &c.TotalAmount, &mode, &nanos, &c.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Commitment{}, false, nil
	}
	if err != nil {
		return ledger.Commitment{}, false, fmt.Errorf("get commitment: %w", err)
	}
	c.Mode = ledger.Mode(mode)
	c.CommittedAt = time.Unix(0, nanos).UTC()
	return c, true, nil
}

// IsProcessed reports whether runID has a processed marker.
// Unknown ids return false.
func (s *Store) IsProcessed(ctx context.Context, runID string) (bool, error) {
	var count int
	err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM processed_runs WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return count > 0, nil
}

// ListRange returns up to limit history entries starting at offset, in
// commit order. Returns an empty slice (not nil) past the end.
//
// Values beyond the signed 64-bit range are clamped; no other bound applies.
func (s *Store) ListRange(ctx context.Context, offset, limit uint64) ([]ledger.RunEntry, error) {
	if limit == 0 {
		return []ledger.RunEntry{}, nil
	}

	rows, err := s.query(ctx, s.db, `
		SELECT h.run_id, c.payroll_root, c.committed_at
		FROM run_history h
		JOIN commitments c ON c.run_id = h.run_id
		ORDER BY h.seq ASC
		LIMIT ? OFFSET ?
	`, clampInt64(limit), clampInt64(offset))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	entries := []ledger.RunEntry{}
	for rows.Next() {
		var (
			e     ledger.RunEntry
			nanos int64
		)
		if err := rows.Scan(&e.RunID, &e.PayrollRoot, &nanos); err != nil {
			return nil, fmt.Errorf("scan run entry: %w", err)
		}
		e.Timestamp = time.Unix(0, nanos).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return entries, nil
}

// LastSeq returns the highest history sequence number, or 0 when empty.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.queryRow(ctx, s.db, `SELECT COALESCE(MAX(seq), 0) FROM run_history`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ReadEvents returns event-log rows with seq > afterSeq, oldest first.
// A limit of 0 returns all remaining rows.
func (s *Store) ReadEvents(ctx context.Context, afterSeq int64, limit int) ([]ledger.StoredEvent, error) {
	query := `
		SELECT seq, run_id, payload FROM events
		WHERE seq > ?
		ORDER BY seq ASC
	`
	args := []any{afterSeq}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return scanEvents(rows)
}

// ReadEventsForRun returns the event-log rows for one run.
// A committed run has exactly one.
func (s *Store) ReadEventsForRun(ctx context.Context, runID string) ([]ledger.StoredEvent, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT seq, run_id, payload FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read events for run: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]ledger.StoredEvent, error) {
	defer rows.Close()

	events := []ledger.StoredEvent{}
	for rows.Next() {
		var (
			ev      ledger.StoredEvent
			payload string
		)
		if err := rows.Scan(&ev.Seq, &ev.RunID, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Payload = []byte(payload)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
