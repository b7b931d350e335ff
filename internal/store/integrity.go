package store

import (
	"context"
	"fmt"
)

// IntegrityReport summarizes the mirror invariants between the ledger tables.
type IntegrityReport struct {
	Commitments int64 `json:"commitments"`
	Markers     int64 `json:"markers"`
	History     int64 `json:"history"`
	Events      int64 `json:"events"`
	LastSeq     int64 `json:"last_seq"`

	// Violations lists every broken invariant. Empty means healthy.
	Violations []string `json:"violations"`
}

// OK reports whether no invariant is violated.
func (r IntegrityReport) OK() bool {
	return len(r.Violations) == 0
}

// orphanCheck is a query counting rows of one table with no partner in another.
type orphanCheck struct {
	name  string
	query string
}

var orphanChecks = []orphanCheck{
	{
		name: "commitments without processed marker",
		query: `SELECT COUNT(*) FROM commitments c
			LEFT JOIN processed_runs p ON p.run_id = c.run_id
			WHERE p.run_id IS NULL`,
	},
	{
		name: "processed markers without commitment",
		query: `SELECT COUNT(*) FROM processed_runs p
			LEFT JOIN commitments c ON c.run_id = p.run_id
			WHERE c.run_id IS NULL`,
	},
	{
		name: "processed runs missing from history",
		query: `SELECT COUNT(*) FROM processed_runs p
			LEFT JOIN run_history h ON h.run_id = p.run_id
			WHERE h.run_id IS NULL`,
	},
	{
		name: "history entries without processed marker",
		query: `SELECT COUNT(*) FROM run_history h
			LEFT JOIN processed_runs p ON p.run_id = h.run_id
			WHERE p.run_id IS NULL`,
	},
	{
		name: "commitments without event",
		query: `SELECT COUNT(*) FROM commitments c
			LEFT JOIN events e ON e.run_id = c.run_id
			WHERE e.run_id IS NULL`,
	},
	{
		name: "events whose seq differs from history",
		query: `SELECT COUNT(*) FROM events e
			LEFT JOIN run_history h ON h.run_id = e.run_id AND h.seq = e.seq
			WHERE h.run_id IS NULL`,
	},
}

// CheckIntegrity verifies that records, markers, history and events mirror
// each other exactly. Foreign keys and unique constraints prevent most
// violations; this catches anything written around the store.
func (s *Store) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	report := IntegrityReport{Violations: []string{}}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"commitments", &report.Commitments},
		{"processed_runs", &report.Markers},
		{"run_history", &report.History},
		{"events", &report.Events},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return report, fmt.Errorf("check integrity: count %s: %w", c.table, err)
		}
	}

	lastSeq, err := s.LastSeq(ctx)
	if err != nil {
		return report, fmt.Errorf("check integrity: %w", err)
	}
	report.LastSeq = lastSeq

	for _, check := range orphanChecks {
		var n int64
		if err := s.db.QueryRowContext(ctx, check.query).Scan(&n); err != nil {
			return report, fmt.Errorf("check integrity: %s: %w", check.name, err)
		}
		if n > 0 {
			report.Violations = append(report.Violations, fmt.Sprintf("%s: %d", check.name, n))
		}
	}

	return report, nil
}
