package models

import (
	"time"
)

type Participant struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SessionCode string    `json:"session_code" gorm:"not null;uniqueIndex:idx_session_name"`
	DisplayName string    `json:"display_name" gorm:"not null;uniqueIndex:idx_session_name"`
	Avatar      string    `json:"avatar"`
	Score       int       `json:"score" gorm:"not null;default:0"`
	JoinedAt    time.Time `json:"joined_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Participant) TableName() string { return "players" }
