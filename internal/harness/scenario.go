package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Orchestrator is the default caller of every step and the identity
	// recorded by an init step without an id.
	Orchestrator string `yaml:"orchestrator"`

	// Verifiers maps verifier ids to a scripted behavior.
	// See VerifierBehavior constants.
	Verifiers map[string]string `yaml:"verifiers,omitempty"`

	// StrictAmounts enables amount validation on the engine.
	StrictAmounts bool `yaml:"strict_amounts,omitempty"`

	// Flow is the ordered list of operations.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation of the flow.
type Step struct {
	// Op is the operation name. See Op constants.
	Op string `yaml:"op"`

	// As overrides the caller. Defaults to the scenario orchestrator.
	As string `yaml:"as,omitempty"`

	// ID is the identity argument of init, set_orchestrator and set_verifier.
	ID string `yaml:"id,omitempty"`

	// Commit arguments. A missing proof or public_signals key means the
	// value was not supplied; an empty list counts as supplied.
	RunID         string   `yaml:"run_id,omitempty"`
	PayrollRoot   string   `yaml:"payroll_root,omitempty"`
	TotalAmount   string   `yaml:"total_amount,omitempty"`
	Proof         *string  `yaml:"proof,omitempty"`
	PublicSignals []string `yaml:"public_signals,omitempty"`
	Attestation   *string  `yaml:"attestation,omitempty"`

	// Verdict answers the oldest held verification (release only).
	Verdict string `yaml:"verdict,omitempty"`

	// Expect validates the step outcome. Nil skips validation.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step. Empty fields are not checked.
type Expect struct {
	Status string `yaml:"status"`
	Code   string `yaml:"code,omitempty"`
	Mode   string `yaml:"mode,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	Type string `yaml:"type"`

	// RunID selects the run (root, processed).
	RunID string `yaml:"run_id,omitempty"`

	// Root is the expected payroll root (root).
	Root string `yaml:"root,omitempty"`

	// Absent expects the run to have no root (root).
	Absent bool `yaml:"absent,omitempty"`

	// Processed is the expected processed flag (processed).
	Processed *bool `yaml:"processed,omitempty"`

	// From and Limit select the listing page (runs).
	From  *uint64 `yaml:"from,omitempty"`
	Limit *uint64 `yaml:"limit,omitempty"`

	// RunIDs is the expected page content, in order (runs).
	RunIDs []string `yaml:"run_ids,omitempty"`

	// Count is the expected number of event-log rows (event_count).
	Count *int `yaml:"count,omitempty"`

	// Orchestrator and Verifier are the expected settings (settings).
	// An empty Verifier expects trusted mode.
	Orchestrator string `yaml:"orchestrator,omitempty"`
	Verifier     string `yaml:"verifier,omitempty"`
}

// Operation names.
const (
	OpInit            = "init"
	OpCommit          = "commit"
	OpSetOrchestrator = "set_orchestrator"
	OpSetVerifier     = "set_verifier"
	OpRemoveVerifier  = "remove_verifier"
	OpRelease         = "release"
)

// Verifier behaviors.
const (
	BehaviorAccept      = "accept"
	BehaviorReject      = "reject"
	BehaviorUnreachable = "unreachable"
	BehaviorGated       = "gated"
)

// Release verdicts.
const (
	VerdictAccept = "accept"
	VerdictReject = "reject"
	VerdictFail   = "fail"
)

// Step statuses.
const (
	StatusOK        = "ok"
	StatusCommitted = "committed"
	StatusPending   = "pending"
	StatusError     = "error"
)

// Assertion types.
const (
	AssertRoot       = "root"
	AssertProcessed  = "processed"
	AssertRuns       = "runs"
	AssertEventCount = "event_count"
	AssertSettings   = "settings"
	AssertIntegrity  = "integrity"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Orchestrator == "" {
		return fmt.Errorf("orchestrator is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for id, behavior := range s.Verifiers {
		switch behavior {
		case BehaviorAccept, BehaviorReject, BehaviorUnreachable, BehaviorGated:
		default:
			return fmt.Errorf("verifiers[%s]: unknown behavior %q", id, behavior)
		}
	}

	for i := range s.Flow {
		if err := validateStep(i, &s.Flow[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpInit, OpRemoveVerifier:
	case OpSetOrchestrator, OpSetVerifier:
		if step.ID == "" {
			return fmt.Errorf("flow[%d]: id is required for %s", index, step.Op)
		}
	case OpCommit:
		if step.RunID == "" {
			return fmt.Errorf("flow[%d]: run_id is required for commit", index)
		}
	case OpRelease:
		switch step.Verdict {
		case VerdictAccept, VerdictReject, VerdictFail:
		default:
			return fmt.Errorf("flow[%d]: verdict must be accept, reject or fail", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	if step.Expect != nil {
		switch step.Expect.Status {
		case StatusOK, StatusCommitted, StatusPending, StatusError:
		default:
			return fmt.Errorf("flow[%d].expect: unknown status %q", index, step.Expect.Status)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertRoot:
		if a.RunID == "" {
			return fmt.Errorf("assertions[%d]: run_id is required for root", index)
		}
		if a.Root == "" && !a.Absent {
			return fmt.Errorf("assertions[%d]: root or absent is required for root", index)
		}
	case AssertProcessed:
		if a.RunID == "" {
			return fmt.Errorf("assertions[%d]: run_id is required for processed", index)
		}
		if a.Processed == nil {
			return fmt.Errorf("assertions[%d]: processed is required for processed", index)
		}
	case AssertRuns:
		if a.RunIDs == nil {
			return fmt.Errorf("assertions[%d]: run_ids is required for runs (use [] for none)", index)
		}
	case AssertEventCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	case AssertSettings:
		if a.Orchestrator == "" {
			return fmt.Errorf("assertions[%d]: orchestrator is required for settings", index)
		}
	case AssertIntegrity:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
