// Package harness provides conformance testing for the QSO runtime.
//
// The harness drives a fresh runtime.Runtime through a sequence of
// insert/edit/delete/undo/redo commands and validates the resulting
// event trace and final record state as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	contest_id: "test-contest-00000000-0000-0000-0000-000000000001"
//	setup:
//	  - action: insert
//	    args: { callsign: K1ABC, band: 20m, mode: CW, frequency_hz: 14025000 }
//	flow:
//	  - invoke: edit
//	    args: { frequency_hz: 14026000 }
//	    expect:
//	      case: Success
//	assertions:
//	  - type: trace_contains
//	    action: edit
//	    args: { frequency_hz: 14026000 }
//	  - type: final_state
//	    table: records
//	    where: { id: 1 }
//	    expect: { frequency_hz: 14026000 }
//
// Each command targets the most recently inserted record unless its
// args include an explicit "id".
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: Verifies a command appears in the trace with matching args
//   - trace_order: Verifies commands appear in specified order
//   - trace_count: Verifies a command appears exactly N times
//   - final_state: Looks up a live record by id and verifies expected field values
//
// # Deterministic Testing
//
// All scenarios execute with a deterministic clock and contest id so
// that repeat runs produce identical traces for golden comparison.
//
// The harness uses:
//   - A fixed contest id (from scenario.contest_id or a default)
//   - Deterministic logical clock (testutil.DeterministicClock)
//   - An in-memory SQLite-backed journal (isolated per scenario)
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/edit_undo_redo.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute it:
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
