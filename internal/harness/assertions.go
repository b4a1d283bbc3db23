package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/contestlog/qsocore/internal/qso"
	"github.com/contestlog/qsocore/internal/runtime"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		if event.Type == "invocation" {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.ActionURI, event.Args)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation matching
// the specified action and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == "invocation" && event.ActionURI == assertion.Action {
			if matchArgs(event.Args, assertion.Args) {
				return nil
			}
		}
	}

	return &AssertionError{
		Type:     "trace_contains",
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)

	for i, event := range trace {
		if event.Type == "invocation" {
			for _, expectedAction := range assertion.Actions {
				if event.ActionURI == expectedAction && positions[expectedAction] == 0 {
					positions[expectedAction] = i + 1
				}
			}
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev := assertion.Actions[i-1]
		curr := assertion.Actions[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0

	for _, event := range trace {
		if event.Type == "invocation" && event.ActionURI == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     "trace_count",
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// recordToMap converts a Record's assertable fields to a generic map
// for subset comparison against an assertion's Expect clause.
func recordToMap(r qso.Record) map[string]interface{} {
	return map[string]interface{}{
		"id":           uint64(r.ID),
		"contest":      string(r.Contest),
		"callsign_raw": r.CallsignRaw,
		"callsign":     r.Callsign,
		"band":         r.Band.String(),
		"mode":         r.Mode.String(),
		"frequency_hz": r.FrequencyHz,
		"timestamp_ms": r.TimestampMs,
		"radio_id":     r.RadioID,
		"operator_id":  r.OperatorID,
	}
}

// assertFinalState checks that the live record selected by Where
// matches the expected field values (subset semantics). Only the
// "records" table is recognized, filtered by "id".
func assertFinalState(rt *runtime.Runtime, assertion Assertion) error {
	if assertion.Table != "records" {
		return fmt.Errorf("final_state assertion: unknown table %q (only \"records\" is supported)", assertion.Table)
	}

	idVal, ok := assertion.Where["id"]
	if !ok {
		return fmt.Errorf("final_state assertion: where.id is required")
	}
	n, err := toUint64(idVal, "id")
	if err != nil {
		return err
	}

	rec, ok := rt.Get(qso.ID(n))
	if !ok {
		return &AssertionError{
			Type:     "final_state",
			Expected: fmt.Sprintf("a live record with id %d", n),
			Actual:   "no such live record",
		}
	}

	actual := recordToMap(rec)
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     "final_state",
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in record columns", key),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     "final_state",
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// stateValuesEqual compares expected and actual record field values,
// coercing YAML-parsed numeric types to the record field's width.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case bool:
		actualBool, ok := actual.(bool)
		return ok && exp == actualBool
	case int, int64, uint64, float64:
		expInt, err := toInt64(exp, "expect")
		if err != nil {
			return false
		}
		actInt, err := toInt64(actual, "actual")
		if err != nil {
			return false
		}
		return expInt == actInt
	}

	return reflect.DeepEqual(expected, actual)
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual interface{}, expected map[string]interface{}) bool {
	if len(expected) == 0 {
		return true
	}

	actualMap, ok := actual.(map[string]interface{})
	if !ok {
		return false
	}

	for key, expectedVal := range expected {
		actualVal, exists := actualMap[key]
		if !exists {
			return false
		}
		if !stateValuesEqual(expectedVal, actualVal) {
			return false
		}
	}

	return true
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Runtime *runtime.Runtime
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Runtime == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a runtime context", i)
			} else {
				err = assertFinalState(actx.Runtime, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
