package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/testutil"
)

// decodeData parses a JSON CLIResponse and returns its data object.
func decodeData(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// decodeError parses a JSON CLIResponse and returns its error code.
func decodeError(t *testing.T, out string) string {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "error", resp.Status, out)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestProfileLifecycle(t *testing.T) {
	db := tempDB(t)
	owner := testutil.Keypair(1).Hex()
	intruder := testutil.Keypair(2).Hex()
	salt := testutil.Salt(1).String()

	out, err := execute(t, db, "--format", "json", "user", "create", "--key", owner, "--salt", salt)
	require.NoError(t, err)
	user := decodeData(t, out)["address"].(string)

	wantAddr, wantBump, err := address.ProfileAddress(ir.NamespaceGaming, ir.MustParseAddress(user))
	require.NoError(t, err)

	out, err = execute(t, db, "--format", "json", "profile", "create",
		"--key", owner, "--user", user, "--namespace", "gaming")
	require.NoError(t, err)
	created := decodeData(t, out)
	assert.Equal(t, wantAddr.String(), created["address"])
	assert.NotEmpty(t, created["op_id"])
	event := created["event"].(map[string]any)
	assert.Equal(t, "gaming", event["namespace"])
	assert.Equal(t, float64(wantBump), event["bump"])

	out, err = execute(t, db, "--format", "json", "profile", "show", wantAddr.String())
	require.NoError(t, err)
	shown := decodeData(t, out)["profile"].(map[string]any)
	assert.Equal(t, user, shown["user"])

	out, err = execute(t, db, "--format", "json", "profile", "create",
		"--key", owner, "--user", user, "--namespace", "gaming")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "ADDRESS_ALREADY_IN_USE", decodeError(t, out))

	out, err = execute(t, db, "--format", "json", "profile", "delete",
		"--key", intruder, "--user", user, "--profile", wantAddr.String())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, out))

	out, err = execute(t, db, "--format", "json", "profile", "delete",
		"--key", owner, "--user", user, "--profile", wantAddr.String())
	require.NoError(t, err)
	assert.Equal(t, float64(ir.ProfileLen), decodeData(t, out)["reclaimed"])

	out, err = execute(t, db, "--format", "json", "profile", "show", wantAddr.String())
	require.Error(t, err)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", decodeError(t, out))

	out, err = execute(t, db, "--format", "json", "events")
	require.NoError(t, err)
	events := decodeData(t, out)["events"].([]any)
	require.Len(t, events, 2)
	assert.Equal(t, "ProfileCreated", events[0].(map[string]any)["kind"])
	assert.Equal(t, "ProfileDeleted", events[1].(map[string]any)["kind"])

	out, err = execute(t, db, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "ProfileCreated")
	assert.Contains(t, out, "namespace=gaming")
}

func TestProfileCreate_InvalidNamespace(t *testing.T) {
	db := tempDB(t)
	user := ir.Address{0x01}.String()

	out, err := execute(t, db, "--format", "json", "profile", "create",
		"--key", testutil.Keypair(1).Hex(), "--user", user, "--namespace", "astral")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "INVALID_NAMESPACE", decodeError(t, out))
}

func TestProfileCreate_RequiresKey(t *testing.T) {
	t.Setenv("GPL_KEY", "")
	db := tempDB(t)

	_, err := execute(t, db, "profile", "create", "--user", ir.Address{0x01}.String(), "--namespace", "personal")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "signing key is required")
}

func TestProfileCreate_KeyFromEnvironment(t *testing.T) {
	db := tempDB(t)
	owner := testutil.Keypair(3)
	t.Setenv("GPL_KEY", owner.Hex())

	out, err := execute(t, db, "--format", "json", "user", "create", "--salt", testutil.Salt(9).String())
	require.NoError(t, err)
	data := decodeData(t, out)
	assert.Equal(t, owner.Address().String(), data["user"].(map[string]any)["authority"])

	_, err = execute(t, db, "profile", "create", "--user", data["address"].(string), "--namespace", "degen")
	require.NoError(t, err)
}

func TestUserCreate_DuplicateSalt(t *testing.T) {
	db := tempDB(t)
	key := testutil.Keypair(1).Hex()
	salt := testutil.Salt(4).String()

	_, err := execute(t, db, "user", "create", "--key", key, "--salt", salt)
	require.NoError(t, err)

	out, err := execute(t, db, "user", "create", "--key", key, "--salt", salt)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [ADDRESS_ALREADY_IN_USE]")
}

func TestUserShow(t *testing.T) {
	db := tempDB(t)
	key := testutil.Keypair(1)

	out, err := execute(t, db, "--format", "json", "user", "create", "--key", key.Hex())
	require.NoError(t, err)
	addr := decodeData(t, out)["address"].(string)

	out, err = execute(t, db, "user", "show", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "authority: "+key.Address().String())

	_, err = execute(t, db, "user", "show", "not-hex")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
