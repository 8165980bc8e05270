package services

import (
	"sync"

	"partyquiz/flow"
	"partyquiz/models"
)

// Screens a client can be on. The middle three cycle with the script.
type Screen string

const (
	ScreenMenu     Screen = "menu"
	ScreenLobby    Screen = "lobby"
	ScreenAnnounce Screen = "announce"
	ScreenContent  Screen = "content"
	ScreenMinigame Screen = "minigame"
	ScreenFinished Screen = "finished"
)

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// ClientState is one client's local view of a session: the screen it should
// render, its optimistic score, and the live per-item answer tally. It is
// fed full session snapshots from the change feed and reconciles
// idempotently, so replayed or coalesced events never change observable
// state twice.
//
// The session code is captured at construction and every incoming event is
// checked against it, so a subscription that outlives its session can never
// mutate state it no longer owns.
type ClientState struct {
	mu sync.Mutex

	sessionCode string
	role        Role
	script      flow.Script

	screen       Screen
	flowIndex    int
	contentIndex int
	step         flow.Step
	minigame     *models.Minigame
	contentOrder []string

	score   int
	players []models.Participant
	tally   map[int]int

	// Host optimism: local advances go pending before the store write and
	// are confirmed on success or rolled back on failure. A remote snapshot
	// is always confirmed state and overrides anything pending.
	pendingFlow    *int
	pendingContent *int
}

func NewClientState(sessionCode string, role Role, script flow.Script) *ClientState {
	return &ClientState{
		sessionCode: sessionCode,
		role:        role,
		script:      script,
		screen:      ScreenLobby,
		tally:       make(map[int]int),
	}
}

// ApplySession reconciles a full session snapshot. Snapshots for any other
// session code are ignored.
func (c *ClientState) ApplySession(session models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionCode == "" || session.Code != c.sessionCode {
		return
	}
	if c.screen == ScreenFinished {
		return
	}

	// Confirmed remote state wins over any stale pending value.
	c.pendingFlow = nil
	c.pendingContent = nil

	switch session.Status {
	case models.StatusFinished:
		c.screen = ScreenFinished
		return
	case models.StatusWaiting:
		c.screen = ScreenLobby
		c.contentOrder = session.ContentOrder
		return
	}

	itemChanged := session.FlowIndex != c.flowIndex || session.ContentIndex != c.contentIndex

	c.flowIndex = session.FlowIndex
	c.contentIndex = session.ContentIndex
	c.contentOrder = session.ContentOrder
	c.minigame = session.Minigame

	step, ok := c.script.Step(session.FlowIndex)
	if !ok {
		c.screen = ScreenFinished
		return
	}
	c.step = step
	switch step.Kind {
	case flow.StepAnnounce:
		c.screen = ScreenAnnounce
	case flow.StepContent:
		c.screen = ScreenContent
	case flow.StepMinigame:
		c.screen = ScreenMinigame
	}

	// New item or step: the stale tally is discarded even if answers for
	// the previous item are still in flight.
	if itemChanged {
		c.tally = make(map[int]int)
	}
}

// ApplyPlayerJoined records a lobby join; replays are deduplicated by id.
func (c *ClientState) ApplyPlayerJoined(p models.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionCode == "" || p.SessionCode != c.sessionCode {
		return
	}
	for _, existing := range c.players {
		if existing.ID == p.ID {
			return
		}
	}
	c.players = append(c.players, p)
}

// ApplyAnswer feeds the live tally. Answers for any item other than the one
// currently displayed are stale and ignored.
func (c *ClientState) ApplyAnswer(a models.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionCode == "" || a.SessionCode != c.sessionCode {
		return
	}
	if a.ContentItemID == "" || a.ContentItemID != c.currentItemIDLocked() {
		return
	}
	c.tally[a.ChosenIndex]++
}

// RecordLocalAnswer applies the optimistic score bump before the store
// write confirms.
func (c *ClientState) RecordLocalAnswer(isCorrect bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if isCorrect {
		c.score += PointsPerCorrect
	}
}

// MarkPending notes a host-local advance that has not been confirmed by the
// store yet. The host's screen follows the pending position immediately.
func (c *ClientState) MarkPending(flowIndex, contentIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingFlow = &flowIndex
	c.pendingContent = &contentIndex
}

// ConfirmPending promotes the pending position to confirmed after a
// successful write.
func (c *ClientState) ConfirmPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingFlow != nil {
		c.flowIndex = *c.pendingFlow
	}
	if c.pendingContent != nil {
		c.contentIndex = *c.pendingContent
	}
	c.pendingFlow = nil
	c.pendingContent = nil
}

// RollbackPending drops the pending position after a failed write; the last
// confirmed values stand.
func (c *ClientState) RollbackPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingFlow = nil
	c.pendingContent = nil
}

// Reset clears all session affiliation and returns to the menu. Any event
// still arriving for the old session is dropped by the code guard.
func (c *ClientState) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionCode = ""
	c.screen = ScreenMenu
	c.flowIndex = 0
	c.contentIndex = 0
	c.step = flow.Step{}
	c.minigame = nil
	c.contentOrder = nil
	c.score = 0
	c.players = nil
	c.tally = make(map[int]int)
	c.pendingFlow = nil
	c.pendingContent = nil
}

func (c *ClientState) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

func (c *ClientState) Role() Role { return c.role }

func (c *ClientState) SessionCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionCode
}

// FlowIndex reports the position the client renders: the pending one while
// a host write is in flight, the confirmed one otherwise.
func (c *ClientState) FlowIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingFlow != nil {
		return *c.pendingFlow
	}
	return c.flowIndex
}

func (c *ClientState) ContentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingContent != nil {
		return *c.pendingContent
	}
	return c.contentIndex
}

func (c *ClientState) Step() flow.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *ClientState) Minigame() *models.Minigame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minigame
}

func (c *ClientState) Score() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

func (c *ClientState) Players() []models.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Participant, len(c.players))
	copy(out, c.players)
	return out
}

// Tally is the live answer count for the currently displayed item, keyed by
// chosen option index.
func (c *ClientState) Tally() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int, len(c.tally))
	for k, v := range c.tally {
		out[k] = v
	}
	return out
}

// CurrentItemID resolves the displayed item id from the content order, or
// "" when the current step is not a content block.
func (c *ClientState) CurrentItemID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentItemIDLocked()
}

func (c *ClientState) currentItemIDLocked() string {
	offset, count, ok := c.script.BlockBounds(c.flowIndex)
	if !ok || c.contentIndex >= count {
		return ""
	}
	pos := offset + c.contentIndex
	if pos >= len(c.contentOrder) {
		return ""
	}
	return c.contentOrder[pos]
}
