package models

import (
	"time"
)

// Debate is a two-option discussion prompt in the remote content source.
type Debate struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Category  string    `json:"category" gorm:"not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	Scenario  string    `json:"scenario"`
	OptionA   string    `json:"option_a"`
	OptionB   string    `json:"option_b"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Debate) TableName() string { return "debates" }
