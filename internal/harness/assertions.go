package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/runledger/internal/engine"
	"github.com/roach88/runledger/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per
// failure. Queries go through the engine; integrity reads the store.
func EvaluateAssertions(ctx context.Context, eng *engine.Engine, st *store.Store, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(ctx, eng, st, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(ctx context.Context, eng *engine.Engine, st *store.Store, a Assertion) error {
	switch a.Type {
	case AssertRoot:
		return assertRoot(ctx, eng, a)
	case AssertProcessed:
		return assertProcessed(ctx, eng, a)
	case AssertRuns:
		return assertRuns(ctx, eng, a)
	case AssertEventCount:
		return assertEventCount(ctx, st, a)
	case AssertSettings:
		return assertSettings(ctx, eng, a)
	case AssertIntegrity:
		return assertIntegrity(ctx, st)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertRoot(ctx context.Context, eng *engine.Engine, a Assertion) error {
	root, ok, err := eng.GetRunRoot(ctx, a.RunID)
	if err != nil {
		return err
	}

	if a.Absent {
		if ok {
			return &AssertionError{
				Type:     AssertRoot,
				Expected: fmt.Sprintf("no root for %s", a.RunID),
				Actual:   fmt.Sprintf("root %q", root),
			}
		}
		return nil
	}

	if !ok || root != a.Root {
		actual := "absent"
		if ok {
			actual = fmt.Sprintf("root %q", root)
		}
		return &AssertionError{
			Type:     AssertRoot,
			Expected: fmt.Sprintf("root %q for %s", a.Root, a.RunID),
			Actual:   actual,
		}
	}
	return nil
}

func assertProcessed(ctx context.Context, eng *engine.Engine, a Assertion) error {
	processed, err := eng.IsRunProcessed(ctx, a.RunID)
	if err != nil {
		return err
	}
	if processed != *a.Processed {
		return &AssertionError{
			Type:     AssertProcessed,
			Expected: fmt.Sprintf("processed(%s) = %t", a.RunID, *a.Processed),
			Actual:   fmt.Sprintf("%t", processed),
		}
	}
	return nil
}

func assertRuns(ctx context.Context, eng *engine.Engine, a Assertion) error {
	var opts []engine.ListOption
	if a.From != nil {
		opts = append(opts, engine.WithFrom(*a.From))
	}
	if a.Limit != nil {
		opts = append(opts, engine.WithLimit(*a.Limit))
	}

	entries, err := eng.ListRuns(ctx, opts...)
	if err != nil {
		return err
	}

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.RunID
	}
	if !slices.Equal(got, a.RunIDs) {
		return &AssertionError{
			Type:     AssertRuns,
			Expected: fmt.Sprintf("%v", a.RunIDs),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertEventCount(ctx context.Context, st *store.Store, a Assertion) error {
	events, err := st.ReadEvents(ctx, 0, 0)
	if err != nil {
		return err
	}
	if len(events) != *a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events", *a.Count),
			Actual:   fmt.Sprintf("%d events", len(events)),
		}
	}
	return nil
}

func assertSettings(ctx context.Context, eng *engine.Engine, a Assertion) error {
	settings, err := eng.Settings(ctx)
	if err != nil {
		return err
	}
	if settings.Orchestrator != a.Orchestrator || settings.Verifier != a.Verifier {
		return &AssertionError{
			Type:     AssertSettings,
			Expected: fmt.Sprintf("orchestrator=%q verifier=%q", a.Orchestrator, a.Verifier),
			Actual:   fmt.Sprintf("orchestrator=%q verifier=%q", settings.Orchestrator, settings.Verifier),
		}
	}
	return nil
}

func assertIntegrity(ctx context.Context, st *store.Store) error {
	report, err := st.CheckIntegrity(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		return &AssertionError{
			Type:     AssertIntegrity,
			Expected: "no violations",
			Actual:   strings.Join(report.Violations, "; "),
		}
	}
	return nil
}
