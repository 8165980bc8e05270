package models

import (
	"time"
)

// MinigameRow is one per-participant ephemeral record of the currently
// active mini-game: a secret assignment (impostor word), a set of statements,
// or a vote. Rows are deleted for the whole session on every flow advance and
// whenever a coordinator (re)distributes, so a round never leaks into the
// next one.
//
// Round is a typed column rather than a JSON-path filter so the dilemma tally
// stays a plain WHERE clause on every dialect.
type MinigameRow struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	SessionCode     string    `json:"session_code" gorm:"not null;index"`
	ParticipantID   string    `json:"participant_id" gorm:"not null"`
	ParticipantName string    `json:"participant_name"`
	Round           int       `json:"round" gorm:"not null;default:0"`
	Payload         string    `json:"payload" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (MinigameRow) TableName() string { return "minigame_state" }
