package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const renameScenario = `
name: rename
description: renaming a class keeps its owner
steps:
  - op: pim-create-schema
    args: {pimBaseIri: "https://example.com/m"}
    as: schema
  - op: pim-create-class
    args: {pimTechnicalLabel: person}
    as: person
  - op: pim-set-technical-label
    args: {pimResource: $person, pimTechnicalLabel: human}
assertions:
  - type: fields
    iri: $person
    expect: {pimTechnicalLabel: human}
  - type: owner
    iri: $person
    schema: $schema
`

const failingScenario = `
name: failing
description: counts the wrong number of resources
steps:
  - op: pim-create-schema
    args: {pimBaseIri: "https://example.com/m"}
assertions:
  - type: resource_count
    count: 7
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	ws := newTestWorkspace(t, "")
	dir := scenarioDir(t, map[string]string{"rename.yaml": renameScenario})
	golden := filepath.Join(dir, "golden", "rename.golden")

	// Without a golden file only the assertions are checked.
	out := ws.mustRun(t, "test", dir)
	assert.Contains(t, out, "✓ rename")
	assert.NoFileExists(t, golden)

	out = ws.mustRun(t, "test", dir, "--update")
	assert.Contains(t, out, "✓ rename (golden updated)")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"rename"`)
	assert.Contains(t, string(data), `"changed":["https://example.com/m/class/3"]`)

	out = ws.mustRun(t, "test", dir)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"rename","trace":[]}`), 0o644))
	out, err = ws.run(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ rename")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailuresAndFilter(t *testing.T) {
	ws := newTestWorkspace(t, "")
	dir := scenarioDir(t, map[string]string{
		"rename.yaml":  renameScenario,
		"failing.yaml": failingScenario,
	})

	out, err := ws.run(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "Expected: 7 resources")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")

	out = ws.mustRun(t, "test", dir, "--filter", "ren*")
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "failing")

	var result TestResult
	out, err = ws.run(t, "test", dir, "--filter", "fail*", "--format", "json")
	require.Error(t, err)
	resp := decodeResponse(t, out, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
}

func TestTestCommandEmptyAndMissingDir(t *testing.T) {
	ws := newTestWorkspace(t, "")
	assert.Contains(t, ws.mustRun(t, "test", t.TempDir()), "No scenarios found.")

	_, err := ws.run(t, "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandBrokenScenario(t *testing.T) {
	ws := newTestWorkspace(t, "")
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\nsteps: ["})

	out, err := ws.run(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "failed to load scenario")
}
