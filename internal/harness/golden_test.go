package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

func TestRunWithGolden_DeleteChoiceBranch(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/delete_choice_branch.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, "https://example.com/s/class/7", result.Bindings["c"])
	assert.Equal(t, "https://example.com/s/association-end/16", result.Bindings["end"])
}

func TestTraceSnapshotOmitsEmptyFields(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "refusal",
		Trace: []TraceEvent{
			{Step: 0, Seq: 1, Kind: "pim-create-schema", Operation: "urn:op/2", Created: []string{"urn:schema/1"}},
			{Step: 1, Kind: "pim-delete-class", Failure: "MISSING_RESOURCE"},
		},
	}
	data, err := ir.MarshalCanonical(snap.toValue())
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"refusal","trace":[`+
			`{"created":["urn:schema/1"],"kind":"pim-create-schema","operation":"urn:op/2","seq":1,"step":0},`+
			`{"failure":"MISSING_RESOURCE","kind":"pim-delete-class","step":1}]}`,
		string(data))
}
