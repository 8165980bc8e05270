package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"partyquiz/content"
	"partyquiz/flow"
	"partyquiz/models"
	"partyquiz/store"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Session{},
		&models.Participant{},
		&models.Answer{},
		&models.MinigameRow{},
		&models.Question{},
		&models.Debate{},
	))
	return db
}

type testEnv struct {
	db       *gorm.DB
	feed     *store.MemoryFeed
	sessions *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	feed := store.NewMemoryFeed()
	provider := content.NewProvider(db)
	return &testEnv{
		db:       db,
		feed:     feed,
		sessions: NewSessionService(db, feed, provider, flow.Default()),
	}
}

// advanceTo drives the session from the lobby to the given flow index.
func (e *testEnv) advanceTo(t *testing.T, code string, flowIndex int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.sessions.StartFlow(ctx, code))
	for i := 0; i < flowIndex; i++ {
		require.NoError(t, e.sessions.AdvanceFlow(ctx, code))
	}
}

func (e *testEnv) session(t *testing.T, code string) *models.Session {
	t.Helper()
	session, err := e.sessions.GetSession(context.Background(), code)
	require.NoError(t, err)
	return session
}
