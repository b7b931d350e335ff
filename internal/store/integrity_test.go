package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrity_Healthy(t *testing.T) {
	s := createTestStore(t)
	mustInsert(t, s, createTestCommitment("a", "r", 1))
	mustInsert(t, s, createTestCommitment("b", "r", 2))

	report, err := s.CheckIntegrity(context.Background())
	require.NoError(t, err)

	assert.True(t, report.OK(), "violations: %v", report.Violations)
	assert.Equal(t, int64(2), report.Commitments)
	assert.Equal(t, int64(2), report.Markers)
	assert.Equal(t, int64(2), report.History)
	assert.Equal(t, int64(2), report.Events)
	assert.Equal(t, int64(2), report.LastSeq)
}

func TestCheckIntegrity_DetectsMissingMarker(t *testing.T) {
	s := createTestStore(t)
	mustInsert(t, s, createTestCommitment("a", "r", 1))

	// Tamper around the store API
	_, err := s.db.Exec("DELETE FROM processed_runs WHERE run_id = 'a'")
	require.NoError(t, err)

	report, err := s.CheckIntegrity(context.Background())
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Contains(t, report.Violations, "commitments without processed marker: 1")
	assert.Contains(t, report.Violations, "history entries without processed marker: 1")
}

func TestCheckIntegrity_Empty(t *testing.T) {
	s := createTestStore(t)

	report, err := s.CheckIntegrity(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, int64(0), report.LastSeq)
}
