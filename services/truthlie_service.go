package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"

	"partyquiz/models"
	"partyquiz/store"

	"gorm.io/gorm"
)

const truthLieStatements = 3

var (
	ErrNotActivePlayer = errors.New("only the active participant can submit statements")
	ErrBadStatements   = errors.New("exactly three statements with a valid lie index are required")
	ErrNoStatements    = errors.New("statements not submitted yet")
)

type truthLiePayload struct {
	Facts    []string `json:"facts"`
	LieIndex int      `json:"lieIndex"`
}

type truthLieVote struct {
	Vote int `json:"vote"`
}

// TruthLieService runs two-truths-one-lie:
// setup -> writing -> voting -> reveal.
//
// Whether votes are persisted is a deployment choice; by default voting is a
// purely social step with no server-recorded outcome.
type TruthLieService struct {
	sessions     *SessionService
	persistVotes bool
}

func NewTruthLieService(sessions *SessionService, persistVotes bool) *TruthLieService {
	return &TruthLieService{sessions: sessions, persistVotes: persistVotes}
}

// Begin is the host's setup action: pick the active participant, clear the
// previous round's rows, seed the active row, and open the writing phase.
// The active participant's id rides on the session record so every client
// knows whose turn it is without touching the ephemeral table.
func (g *TruthLieService) Begin(ctx context.Context, code string) error {
	s := g.sessions
	session, err := s.currentMinigame(ctx, code, models.MinigameTruthLie, models.PhaseSetup)
	if err != nil {
		return err
	}

	players, err := s.Participants(ctx, session.Code)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return ErrNoParticipants
	}
	active := players[rand.Intn(len(players))]

	if err := s.clearMinigameRows(ctx, session.Code); err != nil {
		return err
	}
	row := models.MinigameRow{
		SessionCode:     session.Code,
		ParticipantID:   active.ID,
		ParticipantName: active.DisplayName,
		Payload:         "{}",
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	log.Printf("Session %s: truth-or-lie turn goes to %s", session.Code, active.DisplayName)
	return s.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameTruthLie,
		Phase: models.PhaseWriting,
		Actor: active.ID,
	})
}

// SubmitStatements stores the active participant's three statements and
// advances to voting. This is the one phase transition driven by a non-host
// participant: only the author knows when writing is done.
func (g *TruthLieService) SubmitStatements(ctx context.Context, code, participantID string, facts []string, lieIndex int) error {
	s := g.sessions
	session, err := s.currentMinigame(ctx, code, models.MinigameTruthLie, models.PhaseWriting)
	if err != nil {
		return err
	}
	if session.Minigame.Actor != participantID {
		return ErrNotActivePlayer
	}
	if len(facts) != truthLieStatements || lieIndex < 0 || lieIndex >= truthLieStatements {
		return ErrBadStatements
	}

	payload, err := json.Marshal(truthLiePayload{Facts: facts, LieIndex: lieIndex})
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.MinigameRow{}).
		Where("session_code = ? AND participant_id = ?", session.Code, participantID).
		Update("payload", string(payload)).Error; err != nil {
		return err
	}

	return s.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameTruthLie,
		Phase: models.PhaseVoting,
		Actor: participantID,
	})
}

// Statements returns the three statements for voters, without the lie index.
func (g *TruthLieService) Statements(ctx context.Context, code string) ([]string, error) {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameTruthLie,
		models.PhaseVoting, models.PhaseReveal)
	if err != nil {
		return nil, err
	}
	payload, err := g.activePayload(ctx, session)
	if err != nil {
		return nil, err
	}
	return payload.Facts, nil
}

// CastVote records a guess when vote persistence is enabled; otherwise the
// vote stays a local, social act and this is a no-op.
func (g *TruthLieService) CastVote(ctx context.Context, code, participantID string, guessIndex int) error {
	s := g.sessions
	session, err := s.currentMinigame(ctx, code, models.MinigameTruthLie, models.PhaseVoting)
	if err != nil {
		return err
	}
	if !g.persistVotes {
		return nil
	}

	payload, err := json.Marshal(truthLieVote{Vote: guessIndex})
	if err != nil {
		return err
	}
	row := models.MinigameRow{
		SessionCode:   session.Code,
		ParticipantID: participantID,
		Payload:       string(payload),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	s.publish(ctx, store.Event{
		Table:       store.TableMinigame,
		Type:        store.EventInsert,
		SessionCode: session.Code,
	})
	return nil
}

// VoteCounts tallies persisted guesses per statement index. Always empty
// when persistence is off.
func (g *TruthLieService) VoteCounts(ctx context.Context, code string) (map[int]int, error) {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameTruthLie,
		models.PhaseVoting, models.PhaseReveal)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	if !g.persistVotes {
		return counts, nil
	}

	var rows []models.MinigameRow
	if err := g.sessions.db.WithContext(ctx).
		Where("session_code = ? AND participant_id <> ?", session.Code, session.Minigame.Actor).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		var vote truthLieVote
		if err := json.Unmarshal([]byte(row.Payload), &vote); err != nil {
			continue
		}
		counts[vote.Vote]++
	}
	return counts, nil
}

// Reveal is the host action closing the vote: opens the reveal phase and
// returns the statements with the lie index.
func (g *TruthLieService) Reveal(ctx context.Context, code string) (facts []string, lieIndex int, err error) {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameTruthLie, models.PhaseVoting)
	if err != nil {
		return nil, 0, err
	}
	payload, err := g.activePayload(ctx, session)
	if err != nil {
		return nil, 0, err
	}
	if err := g.sessions.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameTruthLie,
		Phase: models.PhaseReveal,
		Actor: session.Minigame.Actor,
	}); err != nil {
		return nil, 0, err
	}
	return payload.Facts, payload.LieIndex, nil
}

// Finish closes the mini-game from the reveal phase and advances the flow.
func (g *TruthLieService) Finish(ctx context.Context, code string) error {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameTruthLie, models.PhaseReveal)
	if err != nil {
		return err
	}
	return g.sessions.AdvanceFlow(ctx, session.Code)
}

func (g *TruthLieService) activePayload(ctx context.Context, session *models.Session) (*truthLiePayload, error) {
	var row models.MinigameRow
	err := g.sessions.db.WithContext(ctx).
		Where("session_code = ? AND participant_id = ?", session.Code, session.Minigame.Actor).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStatements
	}
	if err != nil {
		return nil, err
	}

	var payload truthLiePayload
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		return nil, err
	}
	if len(payload.Facts) != truthLieStatements {
		return nil, ErrNoStatements
	}
	return &payload, nil
}
