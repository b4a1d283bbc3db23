package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: "invocation", ActionURI: "insert", Args: map[string]interface{}{"callsign": "k1abc"}, Seq: 1},
		{Type: "completion", OutputCase: "Success", Seq: 2},
		{Type: "invocation", ActionURI: "edit", Args: map[string]interface{}{"frequency_hz": 14026000}, Seq: 3},
		{Type: "completion", OutputCase: "Success", Seq: 4},
		{Type: "invocation", ActionURI: "undo", Args: map[string]interface{}{}, Seq: 5},
		{Type: "completion", OutputCase: "Success", Seq: 6},
	}
}

func TestAssertTraceContainsMatch(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Action: "edit",
		Args:   map[string]interface{}{"frequency_hz": 14026000},
	})
	require.NoError(t, err)
}

func TestAssertTraceContainsNoMatch(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Action: "delete",
	})
	require.Error(t, err)
}

func TestAssertTraceOrderHolds(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Actions: []string{"insert", "edit", "undo"}})
	require.NoError(t, err)
}

func TestAssertTraceOrderViolated(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Actions: []string{"undo", "insert"}})
	require.Error(t, err)
}

func TestAssertTraceOrderMissingAction(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Actions: []string{"insert", "redo"}})
	require.Error(t, err)
}

func TestAssertTraceCountMatches(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{Action: "insert", Count: 1})
	require.NoError(t, err)
}

func TestAssertTraceCountMismatch(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{Action: "insert", Count: 2})
	require.Error(t, err)
}

func TestMatchArgsSubsetSemantics(t *testing.T) {
	actual := map[string]interface{}{"callsign": "k1abc", "band": "20m"}
	assert.True(t, matchArgs(actual, map[string]interface{}{"callsign": "k1abc"}))
	assert.False(t, matchArgs(actual, map[string]interface{}{"callsign": "w1xyz"}))
	assert.True(t, matchArgs(actual, nil))
}

func TestStateValuesEqualNumericCoercion(t *testing.T) {
	assert.True(t, stateValuesEqual(14026000, uint64(14026000)))
	assert.True(t, stateValuesEqual(int64(5), 5))
	assert.False(t, stateValuesEqual(5, 6))
	assert.True(t, stateValuesEqual("K1ABC", "K1ABC"))
	assert.False(t, stateValuesEqual("K1ABC", "W1XYZ"))
}

func TestEvaluateAssertionsReportsUnknownType(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{{Type: "bogus"}}, nil)
	require.Len(t, errs, 1)
}

func TestEvaluateAssertionsFinalStateRequiresRuntimeContext(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFinalState, Table: "records", Where: map[string]interface{}{"id": 1}, Expect: map[string]interface{}{"callsign": "K1ABC"}},
	}, nil)
	require.Len(t, errs, 1)
}
