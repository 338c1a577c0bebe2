package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpl/internal/ir"
)

func twoUserScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name:        "two_users",
		Description: "alice and bob",
		Keys:        map[string]int{"alice": 1, "bob": 2},
		Users: []UserDef{
			{Alias: "alice_user", Authority: "alice", Salt: 1},
			{Alias: "bob_user", Authority: "bob", Salt: 2},
		},
		Steps: steps,
	}
}

func TestRun_CreateAndDelete(t *testing.T) {
	s := twoUserScenario(
		Step{Op: OpCreate, Caller: "alice", User: "alice_user", Namespace: "personal", As: "p", Expect: OutcomeOK},
		Step{Op: OpDelete, Caller: "alice", User: "alice_user", Profile: "p", Expect: OutcomeOK},
	)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 2)

	created := result.Trace[0]
	assert.Equal(t, 1, created.Step)
	assert.Equal(t, "op-001", created.OpID)
	assert.Equal(t, OutcomeOK, created.Outcome)
	require.Len(t, created.Events, 1)
	assert.Equal(t, "ProfileCreated", created.Events[0]["kind"])
	assert.Equal(t, "p", created.Events[0]["profile"])
	assert.Equal(t, "alice_user", created.Events[0]["user"])
	assert.Equal(t, int64(DefaultClockStart), created.Events[0]["timestamp"])

	deleted := result.Trace[1]
	assert.Equal(t, "op-002", deleted.OpID)
	assert.Equal(t, ir.ProfileLen, deleted.Reclaimed)
	require.Len(t, deleted.Events, 1)
	assert.Equal(t, "ProfileDeleted", deleted.Events[0]["kind"])
	assert.Equal(t, int64(DefaultClockStart+1), deleted.Events[0]["timestamp"])
}

func TestRun_RejectedStepHasNoEvents(t *testing.T) {
	s := twoUserScenario(
		Step{Op: OpCreate, Caller: "bob", User: "alice_user", Namespace: "gaming", Expect: "UNAUTHORIZED"},
	)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "UNAUTHORIZED", result.Trace[0].Outcome)
	assert.Empty(t, result.Trace[0].Events)
	assert.Empty(t, result.Trace[0].OpID)
}

func TestRun_UnmetExpectationFails(t *testing.T) {
	s := twoUserScenario(
		Step{Op: OpCreate, Caller: "bob", User: "alice_user", Namespace: "gaming", Expect: OutcomeOK},
	)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected ok, got UNAUTHORIZED")
}

func TestRun_CrossUserMismatch(t *testing.T) {
	s := twoUserScenario(
		Step{Op: OpCreate, Caller: "alice", User: "alice_user", Namespace: "degen", As: "a", Expect: OutcomeOK},
		Step{Op: OpDelete, Caller: "bob", User: "bob_user", Profile: "a", Expect: "PROFILE_USER_MISMATCH"},
	)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ClockStart(t *testing.T) {
	s := twoUserScenario(
		Step{Op: OpCreate, Caller: "alice", User: "alice_user", Namespace: "personal", Expect: OutcomeOK},
	)
	s.ClockStart = 42

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Trace[0].Events[0]["timestamp"])
}

func TestRun_UnboundAliasIsScenarioError(t *testing.T) {
	// The create fails, so "p" is never bound.
	s := twoUserScenario(
		Step{Op: OpCreate, Caller: "bob", User: "alice_user", Namespace: "personal", As: "p", Expect: "UNAUTHORIZED"},
		Step{Op: OpDelete, Caller: "alice", User: "alice_user", Profile: "p", Expect: OutcomeOK},
	)

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `alias "p" is not bound`)
}

func TestParseStepNamespace(t *testing.T) {
	ns, err := parseStepNamespace("gaming")
	require.NoError(t, err)
	assert.Equal(t, ir.NamespaceGaming, ns)

	ns, err = parseStepNamespace("200")
	require.NoError(t, err)
	assert.Equal(t, ir.Namespace(200), ns)

	_, err = parseStepNamespace("astral")
	assert.ErrorIs(t, err, ir.ErrInvalidNamespace)
}
