package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines an end-to-end conformance test scenario against the
// runtime. Scenarios validate runtime behavior by executing a flow of
// commands and asserting on the resulting event trace and final store
// state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ContestID seeds every Draft's Contest field via a
	// testutil.FixedContestIDGenerator, keeping inserted records
	// deterministic across runs. Defaults to "test-contest-default".
	ContestID string `yaml:"contest_id,omitempty"`

	// Setup contains commands to invoke before the main flow. These
	// establish initial state (e.g., a couple of inserts to edit or
	// delete later). Setup commands are assumed to succeed.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow contains the main test flow: commands with expected results.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and store state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// ActionStep represents a single command invocation.
// Used in Setup sections to establish initial state.
type ActionStep struct {
	// Action is the command name: insert, edit, delete, undo, or redo.
	Action string `yaml:"action"`

	// Args contains the command arguments as a map. See
	// draftFromArgs/patchFromArgs for the recognized keys.
	Args map[string]interface{} `yaml:"args"`
}

// FlowStep represents a step in the main test flow.
// Each step invokes a command and optionally validates the outcome.
type FlowStep struct {
	// Invoke is the command name: insert, edit, delete, undo, or redo.
	Invoke string `yaml:"invoke"`

	// Args contains the command arguments.
	Args map[string]interface{} `yaml:"args"`

	// Expect specifies the expected outcome. If nil, the command is
	// assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Case is "Success" or a runtime.ErrorCode string (e.g.
	// "NOTHING_TO_UNDO") naming the expected failure.
	Case string `yaml:"case"`

	// Result contains expected result fields. Only "id" is recognized,
	// for insert steps that pin the resulting qso.ID.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check a command appears in the trace with matching args
	// - "trace_order": Check commands appear in order
	// - "trace_count": Check a command appears exactly N times
	// - "final_state": Query the records table and verify expected field values
	Type string `yaml:"type"`

	// Action is the command name (used by trace_contains, trace_order, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected command arguments (used by trace_contains).
	// Subset match - only specified fields are validated.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Table is the state table name (used by final_state). Only
	// "records" is recognized.
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state). All fields
	// must match exactly. Only "id" is recognized.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected command order (used by trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
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
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateActionName(step.Action); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range s.Flow {
		if err := validateActionName(step.Invoke); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateActionName(name string) error {
	switch name {
	case "insert", "edit", "delete", "undo", "redo":
		return nil
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", name)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
