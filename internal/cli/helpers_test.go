package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const personScript = `
name: person
steps:
  - op: pim-create-schema
    args: {pimBaseIri: "https://example.com/m"}
    as: schema
  - op: pim-create-class
    args: {pimTechnicalLabel: person}
    as: person
  - op: pim-create-attribute
    args: {pimOwnerClass: $person, pimTechnicalLabel: name}
    as: name
`

const (
	pimSchema = "https://example.com/m/schema/1"
	pimPerson = "https://example.com/m/class/3"
	pimName   = "https://example.com/m/attribute/5"
)

// testWorkspace is a workspace file with its database in a temp dir.
type testWorkspace struct {
	dir  string
	path string
}

func newTestWorkspace(t *testing.T, extra string) *testWorkspace {
	t.Helper()
	dir := t.TempDir()
	w := &testWorkspace{dir: dir, path: filepath.Join(dir, "specstore.yaml")}
	w.write(t, "specstore.yaml", "database: specs.db\nidentifiers: counter\nlog_level: error\n"+extra)
	return w
}

func (w *testWorkspace) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (w *testWorkspace) database() string {
	return filepath.Join(w.dir, "specs.db")
}

// run executes the root command against the workspace and returns stdout.
func (w *testWorkspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--workspace", w.path))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run that fails the test on error.
func (w *testWorkspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := w.run(t, args...)
	require.NoError(t, err, "output:\n%s", out)
	return out
}

// decodeResponse decodes a JSON response and its data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output:\n%s", out)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.CLIResponse
}
