package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/runledger/internal/ledger"
)

func TestGetRoot_Unknown(t *testing.T) {
	s := createTestStore(t)

	root, ok, err := s.GetRoot(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, root)
}

func TestIsProcessed_DefaultsFalse(t *testing.T) {
	s := createTestStore(t)

	processed, err := s.IsProcessed(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestGetCommitment(t *testing.T) {
	s := createTestStore(t)
	c := createTestCommitment("run1", "0xRoot", 7)
	c.Mode = ledger.ModeVerified
	c.Seq = mustInsert(t, s, c)

	got, ok, err := s.GetCommitment(context.Background(), "run1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, c, got)

	_, ok, err = s.GetCommitment(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRange_CommitOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert in an order that differs from key order
	mustInsert(t, s, createTestCommitment("c", "root_c", 1))
	mustInsert(t, s, createTestCommitment("a", "root_a", 2))
	mustInsert(t, s, createTestCommitment("b", "root_b", 3))

	entries, err := s.ListRange(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"c", "a", "b"}, runIDs(entries))
	assert.Equal(t, "root_a", entries[1].PayrollRoot)
	assert.Equal(t, createTestCommitment("a", "", 2).CommittedAt, entries[1].Timestamp)
}

func TestListRange_OffsetAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		mustInsert(t, s, createTestCommitment(id, "root_"+id, int64(i+1)))
	}

	entries, err := s.ListRange(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].RunID)
	assert.Equal(t, "root_b", entries[0].PayrollRoot)

	entries, err = s.ListRange(ctx, 3, 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	entries, err = s.ListRange(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = s.ListRange(ctx, 0, math.MaxUint64)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = s.ListRange(ctx, math.MaxUint64, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	mustInsert(t, s, createTestCommitment("a", "r", 4))
	mustInsert(t, s, createTestCommitment("b", "r", 9))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestReadEvents_AfterSeqAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		mustInsert(t, s, createTestCommitment(id, "r", int64(i+1)))
	}

	all, err := s.ReadEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tail, err := s.ReadEvents(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "b", tail[0].RunID)

	none, err := s.ReadEvents(ctx, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func runIDs(entries []ledger.RunEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.RunID
	}
	return ids
}
