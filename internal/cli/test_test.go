package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: single_create
description: "Owner creates one personal profile"
keys:
  alice: 1
users:
  - alias: alice_user
    authority: alice
    salt: 1
steps:
  - op: create
    caller: alice
    user: alice_user
    namespace: personal
    as: alice_personal
    expect: ok
assertions:
  - type: event_count
    kind: ProfileCreated
    count: 1
`

const failingScenario = `name: wrong_expectation
description: "Expects a rejection the owner never gets"
keys:
  alice: 1
users:
  - alias: alice_user
    authority: alice
    salt: 1
steps:
  - op: create
    caller: alice
    user: alice_user
    namespace: personal
    expect: UNAUTHORIZED
`

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "test", harnessScenarios)
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "", "test", harnessScenarios, "--filter", "auth*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ authorization")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "expected UNAUTHORIZED, got ok")
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "single.yaml", passingScenario)
	golden := filepath.Join(dir, "golden", "single.golden")

	_, err := execute(t, "", "test", dir, "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"single_create"`)

	_, err = execute(t, "", "test", dir)
	require.NoError(t, err, "trace must match the golden just written")

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0644))
	out, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_Errors(t *testing.T) {
	_, err := execute(t, "", "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nbogus: true\n")
	out, err = execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}
