package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/runledger/internal/engine"
	"github.com/roach88/runledger/internal/ledger"
	"github.com/roach88/runledger/internal/store"
	"github.com/roach88/runledger/internal/testutil"
	"github.com/roach88/runledger/internal/verifier"
)

// StepTimeout bounds how long a single step may wait for the engine.
const StepTimeout = 5 * time.Second

// Harness is the test execution engine.
// It runs scenarios with a stepping clock and sequential tickets.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	scenario *Scenario

	// gate answers every verifier configured as gated; nil if none is.
	gate  *testutil.GatedVerifier
	gated map[string]bool

	// held are pending verifications awaiting a release step, oldest first.
	held []*engine.Pending
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and start the engine loop
// 2. Execute flow steps with expect validation
// 3. Evaluate assertions and collect the event log
// 4. Stop the engine
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		scenario: scenario,
		gated:    make(map[string]bool),
	}

	registry := verifier.NewRegistry()
	for id, behavior := range scenario.Verifiers {
		registry.Register(id, h.scriptedVerifier(id, behavior))
	}

	h.engine = engine.New(st, registry,
		engine.WithTicketGenerator(testutil.NewSequentialTickets("ticket")),
		engine.WithNow(testutil.NewStepClock(testutil.DefaultEpoch, time.Second).Now),
		engine.WithStrictAmounts(scenario.StrictAmounts),
	)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- h.engine.Run(runCtx)
	}()
	defer func() {
		h.engine.Stop()
		cancel()
		<-done
	}()

	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.executeStep(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
		result.Trace = append(result.Trace, ev)
		if step.Expect != nil {
			for _, msg := range checkExpect(ev, *step.Expect) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
			}
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h.engine, st, scenario.Assertions) {
		result.AddError(msg)
	}

	stored, err := st.ReadEvents(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	for _, ev := range stored {
		result.Events = append(result.Events, json.RawMessage(ev.Payload))
	}

	return result, nil
}

func (h *Harness) scriptedVerifier(id, behavior string) verifier.Verifier {
	switch behavior {
	case BehaviorReject:
		return testutil.Rejecting()
	case BehaviorUnreachable:
		return testutil.Unreachable()
	case BehaviorGated:
		if h.gate == nil {
			h.gate = testutil.NewGatedVerifier()
		}
		h.gated[ledger.NormalizeID(id)] = true
		return h.gate
	default:
		return testutil.Accepting()
	}
}

func (h *Harness) caller(step Step) string {
	if step.As != "" {
		return step.As
	}
	return h.scenario.Orchestrator
}

// executeStep runs one step and records its outcome. Rejections are
// outcomes; only harness failures (timeouts, store errors) are returned.
func (h *Harness) executeStep(ctx context.Context, index int, step Step) (TraceEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, StepTimeout)
	defer cancel()

	ev := TraceEvent{Step: index, Op: step.Op}

	var err error
	switch step.Op {
	case OpInit:
		ev.Target = step.ID
		if ev.Target == "" {
			ev.Target = h.scenario.Orchestrator
		}
		err = h.engine.Initialize(ctx, ev.Target)

	case OpSetOrchestrator:
		ev.Caller, ev.Target = h.caller(step), step.ID
		err = h.engine.SetOrchestrator(ctx, ev.Caller, step.ID)

	case OpSetVerifier:
		ev.Caller, ev.Target = h.caller(step), step.ID
		err = h.engine.SetVerifier(ctx, ev.Caller, step.ID)

	case OpRemoveVerifier:
		ev.Caller = h.caller(step)
		err = h.engine.RemoveVerifier(ctx, ev.Caller)

	case OpCommit:
		ev.Caller, ev.RunID = h.caller(step), step.RunID
		return h.commit(ctx, ev, step)

	case OpRelease:
		return h.release(ctx, ev, step.Verdict)

	default:
		return ev, fmt.Errorf("unknown op %q", step.Op)
	}

	return ev, recordError(&ev, err)
}

func (h *Harness) commit(ctx context.Context, ev TraceEvent, step Step) (TraceEvent, error) {
	outcome, err := h.engine.CommitPayroll(ctx, ev.Caller, ledger.CommitRequest{
		RunID:         step.RunID,
		PayrollRoot:   step.PayrollRoot,
		TotalAmount:   step.TotalAmount,
		Proof:         step.Proof,
		PublicSignals: step.PublicSignals,
		Attestation:   step.Attestation,
	})
	if err != nil {
		return ev, recordError(&ev, err)
	}

	if !outcome.IsPending() {
		recordReceipt(&ev, *outcome.Receipt)
		return ev, nil
	}

	p := outcome.Pending
	ev.RunID, ev.Ticket = p.RunID, p.Ticket

	gated, err := h.isGated(ctx)
	if err != nil {
		return ev, err
	}
	if gated {
		// Wait for the call to reach the gate so releases stay in commit order.
		if err := h.gate.AwaitCalls(ctx, 1); err != nil {
			return ev, fmt.Errorf("verifier call for %s never arrived: %w", p.Ticket, err)
		}
		h.held = append(h.held, p)
		ev.Status = StatusPending
		return ev, nil
	}

	return h.await(ctx, ev, p)
}

func (h *Harness) release(ctx context.Context, ev TraceEvent, verdict string) (TraceEvent, error) {
	if len(h.held) == 0 || h.gate == nil {
		return ev, errors.New("no verification is held")
	}
	p := h.held[0]
	h.held = h.held[1:]
	ev.RunID, ev.Ticket = p.RunID, p.Ticket

	var released bool
	switch verdict {
	case VerdictAccept:
		released = h.gate.Release(true, nil)
	case VerdictReject:
		released = h.gate.Release(false, nil)
	default:
		released = h.gate.Release(false, testutil.ErrVerifierUnreachable)
	}
	if !released {
		return ev, fmt.Errorf("no verifier call waiting for %s", p.Ticket)
	}

	return h.await(ctx, ev, p)
}

func (h *Harness) await(ctx context.Context, ev TraceEvent, p *engine.Pending) (TraceEvent, error) {
	receipt, err := p.Wait(ctx)
	if err != nil {
		return ev, recordError(&ev, err)
	}
	recordReceipt(&ev, receipt)
	return ev, nil
}

// isGated reports whether the configured verifier answers through the gate.
func (h *Harness) isGated(ctx context.Context) (bool, error) {
	id, ok, err := h.engine.GetVerifier(ctx)
	if err != nil {
		return false, err
	}
	return ok && h.gated[id], nil
}

func recordReceipt(ev *TraceEvent, r ledger.Receipt) {
	ev.Status = StatusCommitted
	ev.RunID = r.RunID
	ev.Mode = string(r.Mode)
	ev.Seq = r.Seq
}

// recordError stores a ledger rejection as the step outcome. Any other
// error is returned as a harness failure.
func recordError(ev *TraceEvent, err error) error {
	if err == nil {
		ev.Status = StatusOK
		return nil
	}
	code := ledger.CodeOf(err)
	if code == "" {
		return err
	}
	ev.Status = StatusError
	ev.Code = string(code)
	return nil
}

// checkExpect compares a step outcome against its expect clause.
func checkExpect(ev TraceEvent, want Expect) []string {
	var errs []string
	if ev.Status != want.Status {
		errs = append(errs, fmt.Sprintf("expected status %s, got %s%s", want.Status, ev.Status, codeSuffix(ev.Code)))
	}
	if want.Code != "" && ev.Code != want.Code {
		errs = append(errs, fmt.Sprintf("expected code %s, got %q", want.Code, ev.Code))
	}
	if want.Mode != "" && ev.Mode != want.Mode {
		errs = append(errs, fmt.Sprintf("expected mode %s, got %q", want.Mode, ev.Mode))
	}
	return errs
}

func codeSuffix(code string) string {
	if code == "" {
		return ""
	}
	return " (" + code + ")"
}
