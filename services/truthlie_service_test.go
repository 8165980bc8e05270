package services

import (
	"context"
	"testing"

	"partyquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// truthLieSession drives a two-player session to the truth-or-lie step at
// flow index 5.
func truthLieSession(t *testing.T, env *testEnv) (code string, players []models.Participant) {
	t.Helper()
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	_, err = env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	_, err = env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Bob"})
	require.NoError(t, err)
	env.advanceTo(t, session.Code, 5)

	players, err = env.sessions.Participants(ctx, session.Code)
	require.NoError(t, err)
	return session.Code, players
}

func statements() []string {
	return []string{"I have met a president", "I can juggle", "I once lived in Japan"}
}

func TestTruthLieBegin(t *testing.T) {
	env := newTestEnv(t)
	truthLie := NewTruthLieService(env.sessions, false)
	ctx := context.Background()

	code, players := truthLieSession(t, env)
	require.NoError(t, truthLie.Begin(ctx, code))

	got := env.session(t, code)
	require.NotNil(t, got.Minigame)
	assert.Equal(t, models.MinigameTruthLie, got.Minigame.Kind)
	assert.Equal(t, models.PhaseWriting, got.Minigame.Phase)

	// The active participant is one of the joined players, never the host.
	ids := []string{players[0].ID, players[1].ID}
	assert.Contains(t, ids, got.Minigame.Actor)

	// Begin is one-shot.
	assert.ErrorIs(t, truthLie.Begin(ctx, code), ErrWrongPhase)
}

func TestTruthLieBeginWithoutPlayers(t *testing.T) {
	env := newTestEnv(t)
	truthLie := NewTruthLieService(env.sessions, false)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	env.advanceTo(t, session.Code, 5)

	assert.ErrorIs(t, truthLie.Begin(ctx, session.Code), ErrNoParticipants)
}

func TestTruthLieSubmitStatements(t *testing.T) {
	env := newTestEnv(t)
	truthLie := NewTruthLieService(env.sessions, false)
	ctx := context.Background()

	code, _ := truthLieSession(t, env)
	require.NoError(t, truthLie.Begin(ctx, code))
	actor := env.session(t, code).Minigame.Actor

	// Only the active participant may submit.
	err := truthLie.SubmitStatements(ctx, code, "someone-else", statements(), 1)
	assert.ErrorIs(t, err, ErrNotActivePlayer)

	// Exactly three statements and an in-range lie index.
	err = truthLie.SubmitStatements(ctx, code, actor, statements()[:2], 0)
	assert.ErrorIs(t, err, ErrBadStatements)
	err = truthLie.SubmitStatements(ctx, code, actor, statements(), 3)
	assert.ErrorIs(t, err, ErrBadStatements)

	require.NoError(t, truthLie.SubmitStatements(ctx, code, actor, statements(), 1))
	got := env.session(t, code)
	assert.Equal(t, models.PhaseVoting, got.Minigame.Phase)
	assert.Equal(t, actor, got.Minigame.Actor)

	// Voters get the statements without the lie index.
	facts, err := truthLie.Statements(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, statements(), facts)
}

func TestTruthLieRevealAndFinish(t *testing.T) {
	env := newTestEnv(t)
	truthLie := NewTruthLieService(env.sessions, false)
	ctx := context.Background()

	code, _ := truthLieSession(t, env)
	require.NoError(t, truthLie.Begin(ctx, code))
	actor := env.session(t, code).Minigame.Actor

	// Revealing before the vote opened is rejected.
	_, _, err := truthLie.Reveal(ctx, code)
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, truthLie.SubmitStatements(ctx, code, actor, statements(), 2))

	facts, lieIndex, err := truthLie.Reveal(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, statements(), facts)
	assert.Equal(t, 2, lieIndex)
	assert.Equal(t, models.PhaseReveal, env.session(t, code).Minigame.Phase)

	require.NoError(t, truthLie.Finish(ctx, code))
	got := env.session(t, code)
	assert.Equal(t, 6, got.FlowIndex)
	assert.Nil(t, got.Minigame)
}

func TestTruthLieVotesNotPersistedByDefault(t *testing.T) {
	env := newTestEnv(t)
	truthLie := NewTruthLieService(env.sessions, false)
	ctx := context.Background()

	code, players := truthLieSession(t, env)
	require.NoError(t, truthLie.Begin(ctx, code))
	actor := env.session(t, code).Minigame.Actor
	require.NoError(t, truthLie.SubmitStatements(ctx, code, actor, statements(), 0))

	require.NoError(t, truthLie.CastVote(ctx, code, players[0].ID, 1))
	counts, err := truthLie.VoteCounts(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestTruthLieVotePersistence(t *testing.T) {
	env := newTestEnv(t)
	truthLie := NewTruthLieService(env.sessions, true)
	ctx := context.Background()

	code, players := truthLieSession(t, env)
	require.NoError(t, truthLie.Begin(ctx, code))
	actor := env.session(t, code).Minigame.Actor

	var voter models.Participant
	for _, p := range players {
		if p.ID != actor {
			voter = p
			break
		}
	}

	require.NoError(t, truthLie.SubmitStatements(ctx, code, actor, statements(), 0))
	require.NoError(t, truthLie.CastVote(ctx, code, voter.ID, 1))
	require.NoError(t, truthLie.CastVote(ctx, code, models.HostID(code), 1))

	counts, err := truthLie.VoteCounts(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2}, counts)
}
