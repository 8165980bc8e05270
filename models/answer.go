package models

import (
	"time"
)

// NoAnswer is the chosen-index sentinel recorded on timeout or no answer.
const NoAnswer = -1

// Answer rows are append-only; consumers filter by the content item that is
// currently displayed, so stale answers from a previous item never count.
type Answer struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	SessionCode   string    `json:"session_code" gorm:"not null;index"`
	ParticipantID string    `json:"participant_id" gorm:"not null;index"`
	ContentItemID string    `json:"content_item_id" gorm:"not null"`
	ChosenIndex   int       `json:"chosen_index" gorm:"not null"`
	IsCorrect     bool      `json:"is_correct" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Answer) TableName() string { return "answers" }
