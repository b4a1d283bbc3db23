package harness

import (
	"errors"
	"fmt"

	"github.com/contestlog/qsocore/internal/qso"
	"github.com/contestlog/qsocore/internal/runtime"
	"github.com/contestlog/qsocore/internal/store"
	"github.com/contestlog/qsocore/internal/testutil"
)

// Harness runs a scenario against a fresh runtime with deterministic
// clock and contest id helpers.
type Harness struct {
	rt         *runtime.Runtime
	clock      *testutil.DeterministicClock
	contestGen *testutil.FixedContestIDGenerator
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal for isolation.
// Deterministic helpers ensure reproducible traces.
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	cfg := runtime.DefaultConfig()
	cfg.Clock = clock

	rt, err := runtime.Open(":memory:", cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open runtime: %w", err)
	}
	defer rt.Shutdown()

	h := &Harness{
		rt:         rt,
		clock:      clock,
		contestGen: testutil.NewFixedContestIDGenerator(scenario.ContestID),
	}

	result := NewResult()
	lastIDs := make(map[string]qso.ID) // "last" -> most recently inserted id, the default edit/delete target

	if err := h.executeSteps(scenario.Setup, nil, result, lastIDs); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	flowSteps := make([]ActionStep, len(scenario.Flow))
	expects := make([]*ExpectClause, len(scenario.Flow))
	for i, step := range scenario.Flow {
		flowSteps[i] = ActionStep{Action: step.Invoke, Args: step.Args}
		expects[i] = step.Expect
	}
	if err := h.executeSteps(flowSteps, expects, result, lastIDs); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	assertionErrors := EvaluateAssertions(result, scenario.Assertions, &AssertionContext{Runtime: rt})
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSteps runs a sequence of commands against the runtime,
// recording an invocation/completion trace pair per step. expects may
// be nil (setup) or parallel to steps (flow); a nil entry means the
// step is assumed to succeed.
func (h *Harness) executeSteps(steps []ActionStep, expects []*ExpectClause, result *Result, lastIDs map[string]qso.ID) error {
	for i, step := range steps {
		var expect *ExpectClause
		if expects != nil {
			expect = expects[i]
		}

		seq := h.clock.Next()
		result.AddInvocationTrace(step.Action, step.Args, seq)

		outcome, err := h.invoke(step, lastIDs)

		compSeq := h.clock.Next()
		if err != nil {
			code := classifyError(err)
			result.AddCompletionTrace(code, nil, compSeq)
			if expect == nil || expect.Case != code {
				return fmt.Errorf("step %d (%s): unexpected error: %w", i, step.Action, err)
			}
			continue
		}

		result.AddCompletionTrace("Success", outcome, compSeq)
		if expect != nil && expect.Case != "Success" {
			return fmt.Errorf("step %d (%s): expected failure %q but succeeded", i, step.Action, expect.Case)
		}
		if expect != nil {
			for key, want := range expect.Result {
				if !stateValuesEqual(want, outcome[key]) {
					return fmt.Errorf("step %d (%s): result %q = %v, expected %v", i, step.Action, key, outcome[key], want)
				}
			}
		}
	}
	return nil
}

// invoke dispatches a single action against the runtime, returning a
// result map (currently only "id", for insert) suitable for tracing.
func (h *Harness) invoke(step ActionStep, lastIDs map[string]qso.ID) (map[string]interface{}, error) {
	switch step.Action {
	case "insert":
		draft, err := draftFromArgs(step.Args, h.contestGen.Generate())
		if err != nil {
			return nil, err
		}
		id, err := h.rt.Insert(draft)
		if err != nil {
			return nil, err
		}
		lastIDs["last"] = id
		return map[string]interface{}{"id": uint64(id)}, nil

	case "edit":
		patch, err := patchFromArgs(step.Args, lastIDs)
		if err != nil {
			return nil, err
		}
		return nil, h.rt.Edit(patch)

	case "delete":
		id, err := idFromArgs(step.Args, lastIDs)
		if err != nil {
			return nil, err
		}
		return nil, h.rt.Delete(id)

	case "undo":
		return nil, h.rt.Undo()

	case "redo":
		return nil, h.rt.Redo()

	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// classifyError maps an error returned by the runtime to the stable
// code string scenarios match against in an expect clause.
func classifyError(err error) string {
	var ce *runtime.CommandError
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	if store.IsUnknownID(err) {
		return "UNKNOWN_ID"
	}
	if store.IsIDCollision(err) {
		return "ID_COLLISION"
	}
	return "ERROR"
}
