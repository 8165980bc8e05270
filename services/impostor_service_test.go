package services

import (
	"context"
	"encoding/json"
	"testing"

	"partyquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// impostorSession creates a session with two joined players and drives it to
// the impostor step at flow index 2.
func impostorSession(t *testing.T, env *testEnv) (code string, players []models.Participant) {
	t.Helper()
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	_, err = env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	_, err = env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Bob"})
	require.NoError(t, err)
	env.advanceTo(t, session.Code, 2)

	players, err = env.sessions.Participants(ctx, session.Code)
	require.NoError(t, err)
	return session.Code, players
}

func TestDistributeRoles(t *testing.T) {
	env := newTestEnv(t)
	impostor := NewImpostorService(env.sessions)
	ctx := context.Background()

	code, players := impostorSession(t, env)
	require.NoError(t, impostor.DistributeRoles(ctx, code, "Game Master"))

	got := env.session(t, code)
	require.NotNil(t, got.Minigame)
	assert.Equal(t, models.PhasePlaying, got.Minigame.Phase)

	// One row per player plus the virtual host, exactly one impostor, and the
	// impostor's word differs from everyone else's.
	var rows []models.MinigameRow
	require.NoError(t, env.db.Where("session_code = ?", code).Find(&rows).Error)
	require.Len(t, rows, len(players)+1)

	impostors := 0
	words := make(map[bool]map[string]bool)
	words[true], words[false] = map[string]bool{}, map[string]bool{}
	ids := make(map[string]bool)
	for _, row := range rows {
		var payload impostorPayload
		require.NoError(t, json.Unmarshal([]byte(row.Payload), &payload))
		if payload.IsImpostor {
			impostors++
		}
		words[payload.IsImpostor][payload.Word] = true
		ids[row.ParticipantID] = true
	}
	assert.Equal(t, 1, impostors)
	assert.Len(t, words[true], 1)
	assert.Len(t, words[false], 1)
	for w := range words[true] {
		assert.False(t, words[false][w], "impostor word %q matches the normal word", w)
	}
	assert.True(t, ids[models.HostID(code)], "virtual host got no assignment")

	// Distribution is a one-shot setup action.
	assert.ErrorIs(t, impostor.DistributeRoles(ctx, code, "Game Master"), ErrWrongPhase)
}

func TestImpostorRoleLookup(t *testing.T) {
	env := newTestEnv(t)
	impostor := NewImpostorService(env.sessions)
	ctx := context.Background()

	code, players := impostorSession(t, env)

	// No roles before distribution.
	_, _, err := impostor.Role(ctx, code, players[0].ID)
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, impostor.DistributeRoles(ctx, code, "Game Master"))

	word, _, err := impostor.Role(ctx, code, players[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, word)

	_, _, err = impostor.Role(ctx, code, "not-a-participant")
	assert.ErrorIs(t, err, ErrNoRole)
}

func TestImpostorPhaseProgression(t *testing.T) {
	env := newTestEnv(t)
	impostor := NewImpostorService(env.sessions)
	ctx := context.Background()

	code, _ := impostorSession(t, env)

	// Out-of-order transitions are rejected at every stage.
	assert.ErrorIs(t, impostor.StartVoting(ctx, code), ErrWrongPhase)
	assert.ErrorIs(t, impostor.RevealImpostor(ctx, code), ErrWrongPhase)
	assert.ErrorIs(t, impostor.Finish(ctx, code), ErrWrongPhase)

	require.NoError(t, impostor.DistributeRoles(ctx, code, "Game Master"))

	// The reveal is gated behind the voting phase.
	_, err := impostor.Impostor(ctx, code)
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, impostor.StartVoting(ctx, code))
	got := env.session(t, code)
	assert.Equal(t, models.PhaseVoting, got.Minigame.Phase)

	require.NoError(t, impostor.RevealImpostor(ctx, code))
	got = env.session(t, code)
	assert.Equal(t, models.PhaseResult, got.Minigame.Phase)

	name, err := impostor.Impostor(ctx, code)
	require.NoError(t, err)
	assert.Contains(t, []string{"Ana", "Bob", "Game Master"}, name)

	// Finishing advances the flow past the mini-game step.
	require.NoError(t, impostor.Finish(ctx, code))
	got = env.session(t, code)
	assert.Equal(t, 3, got.FlowIndex)
	assert.Nil(t, got.Minigame)
}

func TestImpostorWrongStep(t *testing.T) {
	env := newTestEnv(t)
	impostor := NewImpostorService(env.sessions)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	// Still in the lobby: no mini-game is active.
	assert.ErrorIs(t, impostor.DistributeRoles(ctx, session.Code, "Game Master"), ErrInvalidState)
}
