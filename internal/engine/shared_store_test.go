package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/runledger/internal/ledger"
	"github.com/roach88/runledger/internal/store"
	"github.com/roach88/runledger/internal/testutil"
	"github.com/roach88/runledger/internal/verifier"
)

// openShared starts two engines, each with its own store handle on one
// database file, the way two runledger processes share a ledger.
func openShared(t *testing.T) (a, b *running) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shared.db")
	open := func() *store.Store {
		s, err := store.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	}
	a = startEngine(t, open(), verifier.NewRegistry())
	b = startEngine(t, open(), verifier.NewRegistry())
	require.NoError(t, a.Initialize(testCtx(t), orchestrator))
	return a, b
}

func TestSharedStore_EnginesInterleaveCommits(t *testing.T) {
	a, b := openShared(t)
	ctx := testCtx(t)

	assert.Equal(t, int64(1), mustCommitTrusted(t, a, "a", "r").Seq)
	assert.Equal(t, int64(2), mustCommitTrusted(t, b, "b", "r").Seq)
	assert.Equal(t, int64(3), mustCommitTrusted(t, b, "c", "r").Seq)
	assert.Equal(t, int64(4), mustCommitTrusted(t, a, "d", "r").Seq)

	for _, id := range []string{"a", "b", "c", "d"} {
		processed, err := a.IsRunProcessed(ctx, id)
		require.NoError(t, err)
		assert.True(t, processed, "run %s", id)
	}

	runs, err := b.ListRuns(ctx)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, run := range runs {
		ids[i] = run.RunID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)

	report, err := a.store.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), "violations: %v", report.Violations)
}

func TestSharedStore_ReplayAcrossEngines(t *testing.T) {
	a, b := openShared(t)
	ctx := testCtx(t)

	mustCommitTrusted(t, a, "run1", "0xA")

	_, err := b.CommitPayroll(ctx, orchestrator, trustedRequest("run1", "0xB"))
	assert.True(t, ledger.IsDuplicateRun(err), "got %v", err)

	root, ok, err := b.GetRunRoot(ctx, "run1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0xA", root)
}

// A verification held open on one engine commits cleanly even though the
// other engine committed in the meantime.
func TestSharedStore_VerifiedCommitAfterOtherEngineCommits(t *testing.T) {
	a, b := openShared(t)
	ctx := testCtx(t)
	gate := testutil.NewGatedVerifier()
	a.registry.Register(verifierID, gate)
	require.NoError(t, a.SetVerifier(ctx, orchestrator, verifierID))

	out, err := a.CommitPayroll(ctx, orchestrator, provenRequest("verified", "0xV"))
	require.NoError(t, err)
	require.True(t, out.IsPending())
	require.NoError(t, gate.AwaitCalls(ctx, 1))

	require.NoError(t, b.RemoveVerifier(ctx, orchestrator))
	assert.Equal(t, int64(1), mustCommitTrusted(t, b, "trusted", "0xT").Seq)

	gate.Release(true, nil)
	receipt, err := out.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.ModeVerified, receipt.Mode)
	assert.Equal(t, int64(2), receipt.Seq)

	processed, err := b.IsRunProcessed(ctx, "verified")
	require.NoError(t, err)
	assert.True(t, processed)
}
