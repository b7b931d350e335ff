// Package engine implements the runledger commitment engine.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every state transition runs in the goroutine that called Run. Public
// operations enqueue a request event and wait for its reply; verifier calls
// run on their own goroutines and report back by enqueueing a verification
// event. Because requests and verification results share one FIFO queue,
// the replay check, the callback re-check and the store insert never
// interleave.
//
// Commit Flow:
//  1. CommitPayroll is submitted to the loop.
//  2. The guard checks the caller against the orchestrator.
//  3. The processed-run set is checked; a known run fails with DuplicateRun.
//  4. With no verifier or no proof the commit is applied immediately and a
//     trusted receipt is returned.
//  5. Otherwise a verification is dispatched and a Pending handle returned.
//  6. When the verifier answers, the loop resolves the pending commit:
//     re-checks the run, applies it as verified or rejects it.
//
// Sequence numbers are assigned by the store inside the commit transaction,
// so history order survives restarts and engines sharing one database
// never hand out the same seq.
//
// The loop does not retry. A rejection leaves persisted state unchanged and
// the run remains committable.
package engine
