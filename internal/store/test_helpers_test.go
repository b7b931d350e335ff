package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/runledger/internal/ledger"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCommitment creates a trusted-mode commitment whose timestamp
// is offset by n nanoseconds from a fixed epoch.
func createTestCommitment(runID, root string, n int64) ledger.Commitment {
	return ledger.Commitment{
		RunID:       runID,
		PayrollRoot: root,
		TotalAmount: "1000",
		Mode:        ledger.ModeTrusted,
		CommittedAt: time.Unix(0, 1700000000000000000+n).UTC(),
	}
}

// mustInsert inserts a commitment, fails the test unless it was new, and
// returns the assigned seq.
func mustInsert(t *testing.T, s *Store, c ledger.Commitment) int64 {
	t.Helper()
	seq, inserted, err := s.InsertCommitment(context.Background(), c, ledger.NewCommitmentEvent(c))
	if err != nil {
		t.Fatalf("InsertCommitment(%s) failed: %v", c.RunID, err)
	}
	if !inserted {
		t.Fatalf("InsertCommitment(%s) inserted = false, want true", c.RunID)
	}
	return seq
}
