package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/runledger/internal/ledger"
)

const orchestrator = "orchestrator.testnet"

func strPtr(s string) *string { return &s }

func runScenario(t *testing.T, s *Scenario) *Result {
	t.Helper()
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestRun_TrustedCommit(t *testing.T) {
	result := runScenario(t, &Scenario{
		Name:         "trusted",
		Description:  "one trusted commit",
		Orchestrator: orchestrator,
		Flow: []Step{
			{Op: OpInit},
			{Op: OpCommit, RunID: "run-1", PayrollRoot: "0xaaa", TotalAmount: "5",
				Expect: &Expect{Status: StatusCommitted, Mode: "trusted"}},
		},
		Assertions: []Assertion{
			{Type: AssertRoot, RunID: "run-1", Root: "0xaaa"},
			{Type: AssertIntegrity},
		},
	})

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceEvent{Step: 1, Op: OpInit, Target: orchestrator, Status: StatusOK}, result.Trace[0])
	assert.Equal(t, TraceEvent{
		Step: 2, Op: OpCommit, Caller: orchestrator, RunID: "run-1",
		Status: StatusCommitted, Mode: "trusted", Seq: 1,
	}, result.Trace[1])

	require.Len(t, result.Events, 1)
	ev, err := ledger.ParseCommitmentEvent(result.Events[0])
	require.NoError(t, err)
	assert.Equal(t, "run-1", ev.RunID())
	assert.Equal(t, int64(1700000000000000000), ev.Data[0].Timestamp)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	result := runScenario(t, &Scenario{
		Name:         "mismatch",
		Description:  "expects the wrong outcome",
		Orchestrator: orchestrator,
		Flow: []Step{
			{Op: OpCommit, RunID: "run-1", Expect: &Expect{Status: StatusCommitted}},
		},
	})

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected status committed, got error (NOT_INITIALIZED)")
}

func TestRun_AssertionFailureFails(t *testing.T) {
	result := runScenario(t, &Scenario{
		Name:         "assert",
		Description:  "asserts a missing root",
		Orchestrator: orchestrator,
		Flow:         []Step{{Op: OpInit}},
		Assertions: []Assertion{
			{Type: AssertRoot, RunID: "run-1", Root: "0xaaa"},
		},
	})

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: root")
	assert.Contains(t, result.Errors[0], "Actual: absent")
}

func TestRun_GatedVerification(t *testing.T) {
	result := runScenario(t, &Scenario{
		Name:         "gated",
		Description:  "release answers the held call",
		Orchestrator: orchestrator,
		Verifiers:    map[string]string{"verifier.testnet": BehaviorGated},
		Flow: []Step{
			{Op: OpInit},
			{Op: OpSetVerifier, ID: "verifier.testnet"},
			{Op: OpCommit, RunID: "run-1", PayrollRoot: "0xaaa", TotalAmount: "1",
				Proof: strPtr("0xproof"), PublicSignals: []string{"1"},
				Expect: &Expect{Status: StatusPending}},
			{Op: OpRelease, Verdict: VerdictFail,
				Expect: &Expect{Status: StatusError, Code: string(ledger.CodeVerifierCallFailed)}},
		},
		Assertions: []Assertion{
			{Type: AssertRoot, RunID: "run-1", Absent: true},
			{Type: AssertRuns, RunIDs: []string{}},
		},
	})

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "ticket-1", result.Trace[2].Ticket)
	assert.Equal(t, "ticket-1", result.Trace[3].Ticket)
	assert.Equal(t, "run-1", result.Trace[3].RunID)
	assert.Empty(t, result.Events)
}

func TestRun_HeldVerificationAtEnd(t *testing.T) {
	result := runScenario(t, &Scenario{
		Name:         "held",
		Description:  "a verification never released",
		Orchestrator: orchestrator,
		Verifiers:    map[string]string{"verifier.testnet": BehaviorGated},
		Flow: []Step{
			{Op: OpInit},
			{Op: OpSetVerifier, ID: "verifier.testnet"},
			{Op: OpCommit, RunID: "run-1", Proof: strPtr("p"), PublicSignals: []string{},
				Expect: &Expect{Status: StatusPending}},
		},
		Assertions: []Assertion{
			{Type: AssertProcessed, RunID: "run-1", Processed: new(bool)},
		},
	})

	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ReleaseWithoutHeldFails(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{
		Name:         "release",
		Description:  "nothing to release",
		Orchestrator: orchestrator,
		Flow:         []Step{{Op: OpInit}, {Op: OpRelease, Verdict: VerdictAccept}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no verification is held")
}

func TestRun_StrictAmounts(t *testing.T) {
	result := runScenario(t, &Scenario{
		Name:          "strict",
		Description:   "malformed amounts are rejected",
		Orchestrator:  orchestrator,
		StrictAmounts: true,
		Flow: []Step{
			{Op: OpInit},
			{Op: OpCommit, RunID: "run-1", TotalAmount: "-5",
				Expect: &Expect{Status: StatusError, Code: string(ledger.CodeInvalidArgument)}},
			{Op: OpCommit, RunID: "run-1", TotalAmount: "5.25",
				Expect: &Expect{Status: StatusCommitted}},
		},
	})

	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestResult_SnapshotIsCanonical(t *testing.T) {
	r := NewResult()
	r.Trace = append(r.Trace, TraceEvent{Step: 1, Op: OpInit, Target: "o", Status: StatusOK})
	r.Events = append(r.Events, json.RawMessage(`{ "b": 1, "a": "x" }`))

	snapshot, err := r.Snapshot("s")
	require.NoError(t, err)
	assert.Equal(t,
		`{"events":[{"a":"x","b":1}],"scenario":"s","trace":[{"op":"init","status":"ok","step":1,"target":"o"}]}`,
		string(snapshot))
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/duplicate_at_callback.yaml")
	require.NoError(t, err)

	first := runScenario(t, scenario)
	second := runScenario(t, scenario)

	a, err := first.Snapshot(scenario.Name)
	require.NoError(t, err)
	b, err := second.Snapshot(scenario.Name)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
