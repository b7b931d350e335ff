package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/runledger/internal/engine"
	"github.com/roach88/runledger/internal/ledger"
	"github.com/roach88/runledger/internal/store"
)

// seededLedger returns a running engine with run-1 and run-2 committed.
func seededLedger(t *testing.T) (*engine.Engine, *store.Store) {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)

	eng := engine.New(st, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = eng.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		st.Close()
	})

	require.NoError(t, eng.Initialize(ctx, orchestrator))
	for _, run := range []string{"run-1", "run-2"} {
		_, err := eng.CommitPayroll(ctx, orchestrator, ledger.CommitRequest{
			RunID: run, PayrollRoot: "root-" + run, TotalAmount: "1",
		})
		require.NoError(t, err)
	}
	return eng, st
}

func uint64Ptr(v uint64) *uint64 { return &v }
func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }

func TestEvaluateAssertions_Pass(t *testing.T) {
	eng, st := seededLedger(t)

	errs := EvaluateAssertions(context.Background(), eng, st, []Assertion{
		{Type: AssertRoot, RunID: "run-1", Root: "root-run-1"},
		{Type: AssertRoot, RunID: "run-9", Absent: true},
		{Type: AssertProcessed, RunID: "run-2", Processed: boolPtr(true)},
		{Type: AssertProcessed, RunID: "run-9", Processed: boolPtr(false)},
		{Type: AssertRuns, RunIDs: []string{"run-1", "run-2"}},
		{Type: AssertRuns, From: uint64Ptr(1), RunIDs: []string{"run-2"}},
		{Type: AssertRuns, Limit: uint64Ptr(1), RunIDs: []string{"run-1"}},
		{Type: AssertRuns, From: uint64Ptr(5), RunIDs: []string{}},
		{Type: AssertEventCount, Count: intPtr(2)},
		{Type: AssertSettings, Orchestrator: orchestrator},
		{Type: AssertIntegrity},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	eng, st := seededLedger(t)

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "wrong root",
			assertion: Assertion{Type: AssertRoot, RunID: "run-1", Root: "other"},
			want:      `Actual: root "root-run-1"`,
		},
		{
			name:      "root present",
			assertion: Assertion{Type: AssertRoot, RunID: "run-1", Absent: true},
			want:      "Expected: no root for run-1",
		},
		{
			name:      "processed",
			assertion: Assertion{Type: AssertProcessed, RunID: "run-9", Processed: boolPtr(true)},
			want:      "processed(run-9) = true",
		},
		{
			name:      "runs order",
			assertion: Assertion{Type: AssertRuns, RunIDs: []string{"run-2", "run-1"}},
			want:      "Actual: [run-1 run-2]",
		},
		{
			name:      "event count",
			assertion: Assertion{Type: AssertEventCount, Count: intPtr(3)},
			want:      "Actual: 2 events",
		},
		{
			name:      "settings",
			assertion: Assertion{Type: AssertSettings, Orchestrator: orchestrator, Verifier: "v.testnet"},
			want:      `verifier="v.testnet"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(context.Background(), eng, st, []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]")
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertRuns, Expected: "[a]", Actual: "[]"}
	assert.Equal(t, "Assertion failed: runs\n  Expected: [a]\n  Actual: []", err.Error())
}
