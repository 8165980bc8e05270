package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"partyquiz/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	assert.Len(t, session.Code, 4)
	for _, c := range session.Code {
		assert.Contains(t, codeAlphabet, string(c))
	}
	assert.Equal(t, models.StatusWaiting, session.Status)
	assert.Equal(t, 0, session.FlowIndex)
	assert.Equal(t, 0, session.ContentIndex)
	assert.Nil(t, session.Minigame)

	// The full order is planned up front and covers every content block.
	assert.Len(t, session.ContentOrder, env.sessions.Script().TotalItems())
	seen := make(map[string]bool)
	for _, id := range session.ContentOrder {
		assert.False(t, seen[id], "content item %s appears twice in the order", id)
		seen[id] = true
	}
}

func TestJoinSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	p, err := env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana", Avatar: "cat"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, session.Code, p.SessionCode)
	assert.Equal(t, 0, p.Score)

	// Rejoining with the same name returns the existing participant.
	again, err := env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	participants, err := env.sessions.Participants(ctx, session.Code)
	require.NoError(t, err)
	assert.Len(t, participants, 1)

	_, err = env.sessions.JoinSession(ctx, "ZZZZ", &JoinSessionRequest{Name: "Bob"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, env.sessions.StartFlow(ctx, session.Code))
	_, err = env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Late"})
	assert.ErrorIs(t, err, ErrSessionStarted)
}

func TestJoinSessionConcurrentSameName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	// Slip a rival row with the same name in between the lookup and the
	// insert, the way a concurrent join would. The raw pool connection
	// commits independently of the create's own transaction.
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	rivalID := uuid.NewString()
	raced := false
	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("rival_join", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "players" {
			return
		}
		raced = true
		now := time.Now()
		_, execErr := sqlDB.Exec(
			`INSERT INTO players (id, session_code, display_name, avatar, score, joined_at, created_at, updated_at)
			 VALUES (?, ?, ?, '', 0, ?, ?, ?)`,
			rivalID, session.Code, "Ana", now, now, now)
		require.NoError(t, execErr)
	}))

	p, err := env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, rivalID, p.ID)

	var count int64
	require.NoError(t, env.db.Model(&models.Participant{}).
		Where("session_code = ?", session.Code).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStartFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, env.sessions.StartFlow(ctx, session.Code))
	got := env.session(t, session.Code)
	assert.Equal(t, models.StatusPlaying, got.Status)
	assert.Equal(t, 0, got.FlowIndex)

	// Starting twice is rejected.
	assert.ErrorIs(t, env.sessions.StartFlow(ctx, session.Code), ErrInvalidState)
}

func TestAdvanceFlowSetsMinigameSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.sessions.StartFlow(ctx, session.Code))

	// Step 1 is a content block: no mini-game state.
	require.NoError(t, env.sessions.AdvanceFlow(ctx, session.Code))
	got := env.session(t, session.Code)
	assert.Equal(t, 1, got.FlowIndex)
	assert.Nil(t, got.Minigame)

	// Step 2 enters the impostor game in its setup phase.
	require.NoError(t, env.sessions.AdvanceFlow(ctx, session.Code))
	got = env.session(t, session.Code)
	assert.Equal(t, 2, got.FlowIndex)
	require.NotNil(t, got.Minigame)
	assert.Equal(t, models.MinigameImpostor, got.Minigame.Kind)
	assert.Equal(t, models.PhaseSetup, got.Minigame.Phase)
	assert.Equal(t, 0, got.ContentIndex)
}

func TestAdvanceFlowClearsMinigameRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	env.advanceTo(t, session.Code, 2)

	row := models.MinigameRow{
		SessionCode:     session.Code,
		ParticipantID:   "p1",
		ParticipantName: "Ana",
		Payload:         `{"word":"Restaurant","isImpostor":false}`,
	}
	require.NoError(t, env.db.Create(&row).Error)

	require.NoError(t, env.sessions.AdvanceFlow(ctx, session.Code))

	var count int64
	require.NoError(t, env.db.Model(&models.MinigameRow{}).
		Where("session_code = ?", session.Code).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdvanceFlowPastEndFinishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	env.advanceTo(t, session.Code, env.sessions.Script().Len()-1)

	require.NoError(t, env.sessions.AdvanceFlow(ctx, session.Code))
	got := env.session(t, session.Code)
	assert.Equal(t, models.StatusFinished, got.Status)

	// A finished session accepts no further flow commands.
	assert.ErrorIs(t, env.sessions.AdvanceFlow(ctx, session.Code), ErrInvalidState)
	assert.ErrorIs(t, env.sessions.AdvanceContentItem(ctx, session.Code), ErrInvalidState)
}

func TestAdvanceContentItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	env.advanceTo(t, session.Code, 1) // first content block, 5 items

	for i := 1; i <= 4; i++ {
		require.NoError(t, env.sessions.AdvanceContentItem(ctx, session.Code))
		got := env.session(t, session.Code)
		assert.Equal(t, 1, got.FlowIndex)
		assert.Equal(t, i, got.ContentIndex)
	}

	// Advancing past the last item rolls over into the next flow step exactly
	// once, with the item index reset.
	require.NoError(t, env.sessions.AdvanceContentItem(ctx, session.Code))
	got := env.session(t, session.Code)
	assert.Equal(t, 2, got.FlowIndex)
	assert.Equal(t, 0, got.ContentIndex)
	require.NotNil(t, got.Minigame)
	assert.Equal(t, models.MinigameImpostor, got.Minigame.Kind)
}

func TestAdvanceContentItemOutsideContentStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.sessions.StartFlow(ctx, session.Code)) // step 0 is an announce

	assert.ErrorIs(t, env.sessions.AdvanceContentItem(ctx, session.Code), ErrInvalidState)
}

func TestSubmitAnswerScoring(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	ana, err := env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	bob, err := env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Bob"})
	require.NoError(t, err)

	env.advanceTo(t, session.Code, 1)
	got := env.session(t, session.Code)
	itemID := got.ContentOrder[0]

	require.NoError(t, env.sessions.SubmitAnswer(ctx, session.Code, &SubmitAnswerRequest{
		ParticipantID: ana.ID, ContentItemID: itemID, ChosenIndex: 1, IsCorrect: true,
	}))
	require.NoError(t, env.sessions.SubmitAnswer(ctx, session.Code, &SubmitAnswerRequest{
		ParticipantID: bob.ID, ContentItemID: itemID, ChosenIndex: 2, IsCorrect: false,
	}))
	require.NoError(t, env.sessions.SubmitAnswer(ctx, session.Code, &SubmitAnswerRequest{
		ParticipantID: ana.ID, ContentItemID: got.ContentOrder[1], ChosenIndex: 0, IsCorrect: true,
	}))

	participants, err := env.sessions.Participants(ctx, session.Code)
	require.NoError(t, err)
	scores := make(map[string]int)
	for _, p := range participants {
		scores[p.DisplayName] = p.Score
	}
	assert.Equal(t, 2*PointsPerCorrect, scores["Ana"])
	assert.Equal(t, 0, scores["Bob"])

	var answers []models.Answer
	require.NoError(t, env.db.Where("session_code = ?", session.Code).Find(&answers).Error)
	assert.Len(t, answers, 3)
}

func TestSubmitAnswerTimeoutSentinel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	ana, err := env.sessions.JoinSession(ctx, session.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	env.advanceTo(t, session.Code, 1)

	got := env.session(t, session.Code)
	require.NoError(t, env.sessions.SubmitAnswer(ctx, session.Code, &SubmitAnswerRequest{
		ParticipantID: ana.ID,
		ContentItemID: got.ContentOrder[0],
		ChosenIndex:   models.NoAnswer,
		IsCorrect:     false,
	}))

	var answer models.Answer
	require.NoError(t, env.db.Where("participant_id = ?", ana.ID).First(&answer).Error)
	assert.Equal(t, models.NoAnswer, answer.ChosenIndex)
	assert.False(t, answer.IsCorrect)
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	_, err = env.sessions.JoinSession(ctx, stale.Code, &JoinSessionRequest{Name: "Ana"})
	require.NoError(t, err)
	fresh, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.Session{}).
		Where("code = ?", stale.Code).
		UpdateColumns(map[string]interface{}{
			"status":     models.StatusFinished,
			"updated_at": time.Now().Add(-2 * time.Hour),
		}).Error)

	require.NoError(t, env.sessions.CleanupExpired(ctx))

	_, err = env.sessions.GetSession(ctx, stale.Code)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = env.sessions.GetSession(ctx, fresh.Code)
	assert.NoError(t, err)

	var orphans int64
	require.NoError(t, env.db.Model(&models.Participant{}).
		Where("session_code = ?", stale.Code).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestGenerateCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := generateCode()
		require.Len(t, code, codeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected character %q in code %s", c, code)
		}
	}
}

func TestResolveItemsSkipsMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)

	order := append([]string{"no-such-item"}, session.ContentOrder...)
	items, err := env.sessions.ResolveItems(ctx, order)
	require.NoError(t, err)
	assert.Len(t, items, len(session.ContentOrder))
}
