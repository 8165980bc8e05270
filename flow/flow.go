// Package flow holds the static script every session follows: an ordered
// list of announce, content-block and mini-game steps. The script is pure
// compile-time data and is never mutated at runtime; a session's flow_index
// is an offset into it.
package flow

import (
	"partyquiz/models"
)

type StepKind string

const (
	StepAnnounce StepKind = "announce"
	StepContent  StepKind = "content"
	StepMinigame StepKind = "minigame"
)

// Content pools a content block can draw from.
type ItemKind string

const (
	ItemsQuiz   ItemKind = "quiz"
	ItemsDebate ItemKind = "debate"
)

type Step struct {
	Kind     StepKind
	Category string   // announce + content steps; empty means all categories
	Items    ItemKind // content steps only
	Count    int      // content steps only
	Minigame string   // minigame steps only
}

// InitialMinigame returns the mini-game state a session must carry when it
// enters this step: the kind's initial phase for a mini-game step, nil for
// everything else.
func (s Step) InitialMinigame() *models.Minigame {
	if s.Kind != StepMinigame {
		return nil
	}
	switch s.Minigame {
	case models.MinigameDilemma:
		return &models.Minigame{Kind: s.Minigame, Phase: models.PhasePlaying}
	default:
		return &models.Minigame{Kind: s.Minigame, Phase: models.PhaseSetup}
	}
}

type Script struct {
	Steps []Step
}

func (s Script) Len() int { return len(s.Steps) }

func (s Script) Step(i int) (Step, bool) {
	if i < 0 || i >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[i], true
}

// BlockBounds returns the offset into the flat content_order list and the
// item count of the content block at flowIndex. ok is false when that step
// is not a content block.
func (s Script) BlockBounds(flowIndex int) (offset, count int, ok bool) {
	for i, step := range s.Steps {
		if i == flowIndex {
			if step.Kind != StepContent {
				return 0, 0, false
			}
			return offset, step.Count, true
		}
		if step.Kind == StepContent {
			offset += step.Count
		}
	}
	return 0, 0, false
}

// TotalItems is the length of a fully populated content_order.
func (s Script) TotalItems() int {
	total := 0
	for _, step := range s.Steps {
		if step.Kind == StepContent {
			total += step.Count
		}
	}
	return total
}

// Default is the script all sessions currently play: three announced content
// rounds interleaved with the three mini-games.
func Default() Script {
	return Script{Steps: []Step{
		{Kind: StepAnnounce, Category: "Personal Music"},
		{Kind: StepContent, Category: "Personal Music", Items: ItemsQuiz, Count: 5},
		{Kind: StepMinigame, Minigame: models.MinigameImpostor},
		{Kind: StepAnnounce, Category: "Love & Series"},
		{Kind: StepContent, Category: "Love & Series", Items: ItemsQuiz, Count: 5},
		{Kind: StepMinigame, Minigame: models.MinigameTruthLie},
		{Kind: StepAnnounce, Category: "Hot Takes"},
		{Kind: StepContent, Category: "", Items: ItemsDebate, Count: 3},
		{Kind: StepMinigame, Minigame: models.MinigameDilemma},
	}}
}
