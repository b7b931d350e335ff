// Package harness runs conformance scenarios against the commitment engine.
//
// A scenario executes in a fresh in-memory store on a real engine loop with
// a stepping clock and sequential tickets, so every run of the same scenario
// produces the same trace and the same event log.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: duplicate_at_callback
//	description: "A trusted commit lands while verification is in flight"
//	orchestrator: orchestrator.testnet
//	verifiers:
//	  verifier.testnet: gated
//	flow:
//	  - op: init
//	  - op: set_verifier
//	    id: verifier.testnet
//	  - op: commit
//	    run_id: run-1
//	    payroll_root: "0xroot"
//	    total_amount: "100"
//	    proof: "0xproof"
//	    public_signals: ["1"]
//	    expect: { status: pending }
//	  - op: release
//	    verdict: accept
//	    expect: { status: error, code: DUPLICATE_RUN }
//	assertions:
//	  - type: processed
//	    run_id: run-1
//	    processed: true
//
// Steps run as the scenario orchestrator unless "as" names another caller.
//
// # Verifier Behaviors
//
//   - accept, reject: answer immediately
//   - unreachable: every call fails
//   - gated: calls block until a release step answers them, oldest first
//
// A commit dispatched to a non-gated verifier is awaited in the same step,
// so its trace entry carries the final outcome and the ticket.
//
// # Assertion Types
//
//   - root: payroll root of a run (absent: true for uncommitted runs)
//   - processed: processed flag of a run
//   - runs: run ids returned by a listing page
//   - event_count: number of event-log rows
//   - settings: current orchestrator and verifier
//   - integrity: the store mirror check reports no violation
package harness
