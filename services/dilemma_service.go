package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"partyquiz/models"
	"partyquiz/store"
)

// Dilemma prompts, played as sub-rounds in order. The current sub-round
// index lives on the session record's mini-game slot, never in the
// ephemeral table.
type DilemmaPrompt struct {
	Question string `json:"question"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
}

var dilemmaPrompts = []DilemmaPrompt{
	{
		Question: "You win 50,000 but can never eat out with your partner again.",
		OptionA:  "Take the money",
		OptionB:  "Keep my dinners out",
	},
	{
		Question: "You can read your partner's mind for 24 hours. Do you?",
		OptionA:  "Yes, I want to know",
		OptionB:  "No, off limits",
	},
	{
		Question: "Post your most embarrassing couple photo for a free trip to the Maldives.",
		OptionA:  "Posting it",
		OptionB:  "Never",
	},
}

// Vote choices.
const (
	ChoiceA = "A"
	ChoiceB = "B"
)

var ErrBadChoice = errors.New("vote must be A or B")

type dilemmaVote struct {
	Choice string `json:"choice"`
}

// DilemmaTally is the split for one sub-round. Zero votes yields a defined
// 50/50, never a division error.
type DilemmaTally struct {
	PercentA int `json:"percent_a"`
	PercentB int `json:"percent_b"`
	Total    int `json:"total"`
}

// DilemmaService runs the dilemma vote: playing -> results per sub-round
// over the prompt list.
type DilemmaService struct {
	sessions *SessionService
}

func NewDilemmaService(sessions *SessionService) *DilemmaService {
	return &DilemmaService{sessions: sessions}
}

func (g *DilemmaService) Prompts() []DilemmaPrompt { return dilemmaPrompts }

// Prompt returns the prompt of the given sub-round.
func (g *DilemmaService) Prompt(round int) (DilemmaPrompt, bool) {
	if round < 0 || round >= len(dilemmaPrompts) {
		return DilemmaPrompt{}, false
	}
	return dilemmaPrompts[round], true
}

// CastVote records one participant's choice for the current sub-round.
// The client disables the button after the first vote; the store does not
// enforce uniqueness, and duplicates count.
func (g *DilemmaService) CastVote(ctx context.Context, code, participantID, choice string) error {
	s := g.sessions
	session, err := s.currentMinigame(ctx, code, models.MinigameDilemma, models.PhasePlaying)
	if err != nil {
		return err
	}
	if choice != ChoiceA && choice != ChoiceB {
		return ErrBadChoice
	}

	payload, err := json.Marshal(dilemmaVote{Choice: choice})
	if err != nil {
		return err
	}
	row := models.MinigameRow{
		SessionCode:   session.Code,
		ParticipantID: participantID,
		Round:         session.Minigame.Round,
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

// ShowResults is the host's phase write opening the current sub-round's
// result screen.
func (g *DilemmaService) ShowResults(ctx context.Context, code string) error {
	session, err := g.sessions.currentMinigame(ctx, code, models.MinigameDilemma, models.PhasePlaying)
	if err != nil {
		return err
	}
	return g.sessions.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameDilemma,
		Phase: models.PhaseResults,
		Round: session.Minigame.Round,
	})
}

// Tally computes the A/B split for one sub-round, counting only rows with a
// recognized choice.
func (g *DilemmaService) Tally(ctx context.Context, code string, round int) (DilemmaTally, error) {
	var rows []models.MinigameRow
	if err := g.sessions.db.WithContext(ctx).
		Where("session_code = ? AND round = ?", code, round).
		Find(&rows).Error; err != nil {
		return DilemmaTally{}, err
	}

	var a, b int
	for _, row := range rows {
		var vote dilemmaVote
		if err := json.Unmarshal([]byte(row.Payload), &vote); err != nil {
			continue
		}
		switch vote.Choice {
		case ChoiceA:
			a++
		case ChoiceB:
			b++
		}
	}

	total := a + b
	if total == 0 {
		return DilemmaTally{PercentA: 50, PercentB: 50, Total: 0}, nil
	}
	pctA := a * 100 / total
	return DilemmaTally{PercentA: pctA, PercentB: 100 - pctA, Total: total}, nil
}

// NextRound is the host action after results: open the next sub-round, or
// finish the mini-game and advance the flow when the prompts run out.
func (g *DilemmaService) NextRound(ctx context.Context, code string) error {
	s := g.sessions
	session, err := s.currentMinigame(ctx, code, models.MinigameDilemma, models.PhaseResults)
	if err != nil {
		return err
	}

	next := session.Minigame.Round + 1
	if next >= len(dilemmaPrompts) {
		return s.AdvanceFlow(ctx, session.Code)
	}

	log.Printf("Session %s: dilemma sub-round %d", session.Code, next)
	return s.setMinigame(ctx, session.Code, &models.Minigame{
		Kind:  models.MinigameDilemma,
		Phase: models.PhasePlaying,
		Round: next,
	})
}
