package models

import (
	"time"
)

// Question is a trivia item in the remote content source. The bundled
// dataset mirrors this shape for the fallback path.
type Question struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Category     string     `json:"category" gorm:"not null;index"`
	Text         string     `json:"text" gorm:"not null"`
	Options      StringList `json:"options" gorm:"type:text"`
	CorrectIndex int        `json:"correct_index" gorm:"not null"`
	Explanation  string     `json:"explanation"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Question) TableName() string { return "questions" }
