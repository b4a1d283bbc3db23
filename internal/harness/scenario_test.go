package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioValid(t *testing.T) {
	path := writeScenarioFile(t, `
name: insert_only
description: "insert a single record"
flow:
  - invoke: insert
    args: { callsign: k1abc, band: 20m, mode: CW, frequency_hz: 14025000 }
assertions:
  - type: trace_count
    action: insert
    count: 1
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "insert_only", s.Name)
	assert.Len(t, s.Flow, 1)
	assert.Equal(t, "insert", s.Flow[0].Invoke)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
description: "has a typo'd field"
flow:
  - invoke: insert
    args: {}
assertion:
  - type: trace_count
    action: insert
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenarioRequiresName(t *testing.T) {
	path := writeScenarioFile(t, `
description: "missing name"
flow:
  - invoke: insert
    args: {}
assertions:
  - type: trace_count
    action: insert
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenarioRequiresNonEmptyFlow(t *testing.T) {
	path := writeScenarioFile(t, `
name: empty_flow
description: "no flow steps"
flow: []
assertions:
  - type: trace_count
    action: insert
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenarioRejectsUnknownAction(t *testing.T) {
	path := writeScenarioFile(t, `
name: bad_action
description: "invoke is not a recognized command"
flow:
  - invoke: frobnicate
    args: {}
assertions:
  - type: trace_count
    action: insert
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestValidateAssertionRequiresFieldsPerType(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "trace_contains missing action",
			yaml: `
name: bad
description: d
flow: [{invoke: insert, args: {}}]
assertions: [{type: trace_contains}]
`,
		},
		{
			name: "trace_order missing actions",
			yaml: `
name: bad
description: d
flow: [{invoke: insert, args: {}}]
assertions: [{type: trace_order}]
`,
		},
		{
			name: "final_state missing table",
			yaml: `
name: bad
description: d
flow: [{invoke: insert, args: {}}]
assertions: [{type: final_state, expect: {x: 1}}]
`,
		},
		{
			name: "unknown assertion type",
			yaml: `
name: bad
description: d
flow: [{invoke: insert, args: {}}]
assertions: [{type: bogus}]
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenarioFile(t, tc.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
		})
	}
}
