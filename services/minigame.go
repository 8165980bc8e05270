package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"partyquiz/models"
)

var ErrWrongPhase = errors.New("mini-game is not in a phase that allows this action")

// currentMinigame loads the session and checks the active mini-game kind and
// phase. Every coordinator action goes through this gate, so an action for a
// previous step or a skipped phase is rejected instead of corrupting state.
func (s *SessionService) currentMinigame(ctx context.Context, code, kind string, phases ...string) (*models.Session, error) {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusPlaying {
		return nil, ErrInvalidState
	}
	if session.Minigame == nil || session.Minigame.Kind != kind {
		return nil, ErrInvalidState
	}
	if len(phases) == 0 {
		return session, nil
	}
	for _, phase := range phases {
		if session.Minigame.Phase == phase {
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is in phase %s", ErrWrongPhase, kind, session.Minigame.Phase)
}

// setMinigame writes the session's mini-game slot and publishes the updated
// snapshot so every client converges on the new phase.
func (s *SessionService) setMinigame(ctx context.Context, code string, next *models.Minigame) error {
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("code = ?", code).
		Update("minigame", next).Error; err != nil {
		return err
	}
	log.Printf("Session %s mini-game %s -> phase %s", code, next.Kind, next.Phase)
	return s.republishSession(ctx, code)
}
