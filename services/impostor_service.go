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

// Word pairs for the impostor round: everyone gets the normal word except
// the impostor, who gets the close-but-off one.
var impostorWords = []struct {
	Normal   string
	Impostor string
}{
	{"Restaurant", "Kitchen"},
	{"Ring", "Bracelet"},
	{"Kiss", "Hug"},
	{"Wedding", "Engagement"},
	{"Beach", "Pool"},
	{"Rose", "Tulip"},
	{"Chocolate", "Candy"},
	{"Romantic movie", "Comedy"},
	{"Valentine's Day", "Anniversary"},
	{"Love letter", "Text message"},
}

var ErrNoRole = errors.New("no role assigned yet")

type impostorPayload struct {
	Word       string `json:"word"`
	IsImpostor bool   `json:"isImpostor"`
}

// ImpostorService runs the impostor-word mini-game:
// setup -> playing -> voting -> result.
type ImpostorService struct {
	sessions *SessionService
}

func NewImpostorService(sessions *SessionService) *ImpostorService {
	return &ImpostorService{sessions: sessions}
}

// DistributeRoles is the host's setup action: pick a word pair, pick one
// impostor among all participants including the virtual host, replace the
// session's ephemeral rows with one secret assignment per participant, and
// open the playing phase.
func (g *ImpostorService) DistributeRoles(ctx context.Context, code, hostName string) error {
	s := g.sessions
	session, err := s.currentMinigame(ctx, code, models.MinigameImpostor, models.PhaseSetup)
	if err != nil {
		return err
	}

	players, err := s.Participants(ctx, session.Code)
	if err != nil {
		return err
	}

	type member struct{ id, name string }
	all := make([]member, 0, len(players)+1)
	for _, p := range players {
		all = append(all, member{p.ID, p.DisplayName})
	}
	all = append(all, member{models.HostID(session.Code), hostName})

	pair := impostorWords[rand.Intn(len(impostorWords))]
	impostorIdx := rand.Intn(len(all))

	// Previous round's assignments must never leak into this one.
	if err := s.clearMinigameRows(ctx, session.Code); err != nil {
		return err
	}

	rows := make([]models.MinigameRow, len(all))
	for i, m := range all {
		word := pair.Normal
		if i == impostorIdx {
			word = pair.Impostor
		}
		payload, err := json.Marshal(impostorPayload{Word: word, IsImpostor: i == impostorIdx})
		if err != nil {
			return err
		}
		rows[i] = models.MinigameRow{
			SessionCode:     session.Code,
			ParticipantID:   m.id,
			ParticipantName: m.name,
			Payload:         string(payload),
		}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}

	log.Printf("Session %s: impostor roles distributed to %d participants", session.Code, len(all))
	s.publish(ctx, store.Event{
		Table:       store.TableMinigame,
		Type:        store.EventInsert,
		SessionCode: session.Code,
	})
	return s.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameImpostor,
		Phase: models.PhasePlaying,
	})
}

// StartVoting and RevealImpostor are host-only direct phase writes.
func (g *ImpostorService) StartVoting(ctx context.Context, code string) error {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameImpostor, models.PhasePlaying)
	if err != nil {
		return err
	}
	return g.sessions.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameImpostor,
		Phase: models.PhaseVoting,
	})
}

func (g *ImpostorService) RevealImpostor(ctx context.Context, code string) error {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameImpostor, models.PhaseVoting)
	if err != nil {
		return err
	}
	return g.sessions.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameImpostor,
		Phase: models.PhaseResult,
	})
}

// Role returns the caller's own secret word. A client only ever reads its
// own row before the result phase.
func (g *ImpostorService) Role(ctx context.Context, code, participantID string) (word string, isImpostor bool, err error) {
	if _, err = g.sessions.currentMinigame(ctx, code, models.MinigameImpostor,
		models.PhasePlaying, models.PhaseVoting, models.PhaseResult); err != nil {
		return "", false, err
	}

	var row models.MinigameRow
	err = g.sessions.db.WithContext(ctx).
		Where("session_code = ? AND participant_id = ?", code, participantID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, ErrNoRole
	}
	if err != nil {
		return "", false, err
	}

	var payload impostorPayload
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		return "", false, err
	}
	return payload.Word, payload.IsImpostor, nil
}

// Impostor reveals who it was; only allowed once the result phase is open.
func (g *ImpostorService) Impostor(ctx context.Context, code string) (name string, err error) {
	if _, err = g.sessions.currentMinigame(ctx, code, models.MinigameImpostor, models.PhaseResult); err != nil {
		return "", err
	}

	var rows []models.MinigameRow
	if err := g.sessions.db.WithContext(ctx).Where("session_code = ?", code).Find(&rows).Error; err != nil {
		return "", err
	}
	for _, row := range rows {
		var payload impostorPayload
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			continue
		}
		if payload.IsImpostor {
			return row.ParticipantName, nil
		}
	}
	return "", ErrNoRole
}

// Finish closes the mini-game from the result phase and advances the flow.
func (g *ImpostorService) Finish(ctx context.Context, code string) error {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameImpostor, models.PhaseResult)
	if err != nil {
		return err
	}
	return g.sessions.AdvanceFlow(ctx, session.Code)
}
