package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Session statuses. The lifecycle is monotonic: waiting -> playing -> finished.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Mini-game kinds.
const (
	MinigameImpostor = "impostor"
	MinigameTruthLie = "truthlie"
	MinigameDilemma  = "dilemma"
)

// Mini-game phases. Each kind only ever uses its own subset; the
// coordinators validate transitions per kind.
const (
	PhaseSetup   = "setup"
	PhasePlaying = "playing"
	PhaseVoting  = "voting"
	PhaseResult  = "result"
	PhaseWriting = "writing"
	PhaseReveal  = "reveal"
	PhaseResults = "results"
)

// Minigame is the state of the currently active mini-game step, stored as a
// JSON column on the session record. It is NULL while the session sits on an
// announce or content step and is rewritten to the new step's initial value
// on every flow advance, so a phase can never leak across steps.
//
// Round carries the dilemma sub-round index and Actor the active truth-or-lie
// participant; both are shared session state, never smuggled through the
// ephemeral table.
type Minigame struct {
	Kind  string `json:"kind"`
	Phase string `json:"phase"`
	Round int    `json:"round,omitempty"`
	Actor string `json:"actor,omitempty"`
}

func (m *Minigame) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Minigame) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported minigame column type %T", value)
}

// StringList is a JSON-encoded list of strings in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported string list column type %T", value)
}

type Session struct {
	Code         string     `json:"code" gorm:"primaryKey;size:4"`
	Status       string     `json:"status" gorm:"not null;default:'waiting'"` // waiting, playing, finished
	FlowIndex    int        `json:"flow_index" gorm:"not null;default:0"`
	ContentIndex int        `json:"content_index" gorm:"not null;default:0"`
	ContentOrder StringList `json:"content_order" gorm:"type:text"`
	Minigame     *Minigame  `json:"minigame" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relationships
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:SessionCode;references:Code"`
}

func (Session) TableName() string { return "games" }

// HostID is the virtual participant identity of the session's host. The host
// is never materialized as a player row.
func HostID(code string) string { return "HOST-" + code }
