// Package content supplies the items a session plays through: trivia
// questions and debate prompts, fetched from the remote tables with a
// silent fallback to the bundled dataset.
package content

import (
	"partyquiz/models"
)

type Kind string

const (
	KindQuiz   Kind = "quiz"
	KindDebate Kind = "debate"
)

// Item is one playable content unit. Kind decides which fields are set:
// quiz items carry Text/Options/CorrectIndex, debates Title/Scenario and
// the two options.
type Item struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Category     string   `json:"category"`
	Text         string   `json:"text,omitempty"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correct_index,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
	Title        string   `json:"title,omitempty"`
	Scenario     string   `json:"scenario,omitempty"`
	OptionA      string   `json:"option_a,omitempty"`
	OptionB      string   `json:"option_b,omitempty"`
}

func fromQuestion(q models.Question) Item {
	return Item{
		ID:           q.ID,
		Kind:         KindQuiz,
		Category:     q.Category,
		Text:         q.Text,
		Options:      q.Options,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
	}
}

func fromDebate(d models.Debate) Item {
	return Item{
		ID:       d.ID,
		Kind:     KindDebate,
		Category: d.Category,
		Title:    d.Title,
		Scenario: d.Scenario,
		OptionA:  d.OptionA,
		OptionB:  d.OptionB,
	}
}
