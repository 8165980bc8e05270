package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"time"

	"partyquiz/content"
	"partyquiz/flow"
	"partyquiz/models"
	"partyquiz/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session codes exclude visually ambiguous characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 4
	codeGenAttempts = 5
	// PointsPerCorrect is the flat score for a correct content answer.
	PointsPerCorrect = 100
	// finishedRetention is how long finished sessions are kept before the
	// opportunistic sweep removes them.
	finishedRetention = time.Hour
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionStarted  = errors.New("session already started or finished")
	ErrInvalidState    = errors.New("session is not in a state that allows this action")
	ErrNoParticipants  = errors.New("no participants in session")
)

type SessionService struct {
	db       *gorm.DB
	feed     store.Feed
	provider *content.Provider
	script   flow.Script
}

func NewSessionService(db *gorm.DB, feed store.Feed, provider *content.Provider, script flow.Script) *SessionService {
	return &SessionService{
		db:       db,
		feed:     feed,
		provider: provider,
		script:   script,
	}
}

type JoinSessionRequest struct {
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}

type SubmitAnswerRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	ContentItemID string `json:"content_item_id" binding:"required"`
	ChosenIndex   int    `json:"chosen_index"`
	IsCorrect     bool   `json:"is_correct"`
}

func (s *SessionService) Script() flow.Script { return s.script }

// CreateSession is the host action: sweep expired sessions (best effort),
// generate a code, pre-compute the full content order for every content
// block of the script, and persist the waiting session.
func (s *SessionService) CreateSession(ctx context.Context) (*models.Session, error) {
	if err := s.CleanupExpired(ctx); err != nil {
		// Housekeeping only; never blocks creation.
		log.Printf("Expired-session cleanup failed: %v", err)
	}

	order, err := s.provider.PlanOrder(ctx, s.script)
	if err != nil {
		return nil, err
	}

	step0, _ := s.script.Step(0)
	var session models.Session
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		session = models.Session{
			Code:         generateCode(),
			Status:       models.StatusWaiting,
			FlowIndex:    0,
			ContentIndex: 0,
			ContentOrder: order,
			Minigame:     step0.InitialMinigame(),
		}
		err = s.db.WithContext(ctx).Create(&session).Error
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		log.Printf("Session code %s collided, regenerating", session.Code)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Session %s created with %d content items", session.Code, len(order))
	s.publishSession(ctx, store.EventInsert, &session)
	return &session, nil
}

// JoinSession rejects unknown codes and sessions past the lobby, and is
// idempotent by display name: rejoining returns the existing participant.
func (s *SessionService) JoinSession(ctx context.Context, code string, req *JoinSessionRequest) (*models.Participant, error) {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusWaiting {
		return nil, ErrSessionStarted
	}

	var existing models.Participant
	err = s.db.WithContext(ctx).
		Where("session_code = ? AND display_name = ?", session.Code, req.Name).
		First(&existing).Error
	if err == nil {
		log.Printf("Participant %s rejoined session %s as %s", existing.ID, session.Code, existing.DisplayName)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	participant := models.Participant{
		ID:          uuid.NewString(),
		SessionCode: session.Code,
		DisplayName: req.Name,
		Avatar:      req.Avatar,
		Score:       0,
		JoinedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&participant).Error; err != nil {
		// Two first-time joins with the same name can race past the lookup;
		// the loser reuses the winner's row, keeping join idempotent.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.Participant
			if lookupErr := s.db.WithContext(ctx).
				Where("session_code = ? AND display_name = ?", session.Code, req.Name).
				First(&winner).Error; lookupErr == nil {
				log.Printf("Concurrent join for %q in session %s, reusing participant %s", req.Name, session.Code, winner.ID)
				return &winner, nil
			}
		}
		return nil, err
	}

	log.Printf("Participant %s (%s) joined session %s", participant.ID, participant.DisplayName, session.Code)
	s.publish(ctx, store.Event{
		Table:       store.TablePlayers,
		Type:        store.EventInsert,
		SessionCode: session.Code,
		New:         mustJSON(participant),
	})
	return &participant, nil
}

// StartFlow transitions waiting -> playing and points every client at the
// first script step.
func (s *SessionService) StartFlow(ctx context.Context, code string) error {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return err
	}
	if session.Status != models.StatusWaiting {
		return ErrInvalidState
	}

	step0, _ := s.script.Step(0)
	updates := map[string]interface{}{
		"status":        models.StatusPlaying,
		"flow_index":    0,
		"content_index": 0,
		"minigame":      step0.InitialMinigame(),
	}
	if err := s.db.WithContext(ctx).Model(&models.Session{}).Where("code = ?", session.Code).Updates(updates).Error; err != nil {
		return err
	}

	log.Printf("Session %s started", session.Code)
	return s.republishSession(ctx, session.Code)
}

// AdvanceFlow moves the authoritative flow position one step forward,
// finishing the session past the last step. The mini-game slot is rewritten
// to the new step's initial value on every advance, also for non-minigame
// steps, and every ephemeral mini-game row of the session is cleared.
func (s *SessionService) AdvanceFlow(ctx context.Context, code string) error {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return err
	}
	if session.Status != models.StatusPlaying {
		return ErrInvalidState
	}

	next := session.FlowIndex + 1
	if next >= s.script.Len() {
		return s.finish(ctx, session.Code)
	}

	nextStep, _ := s.script.Step(next)
	updates := map[string]interface{}{
		"flow_index":    next,
		"content_index": 0,
		"minigame":      nextStep.InitialMinigame(),
	}
	if err := s.db.WithContext(ctx).Model(&models.Session{}).Where("code = ?", session.Code).Updates(updates).Error; err != nil {
		return err
	}

	if err := s.clearMinigameRows(ctx, session.Code); err != nil {
		return err
	}

	log.Printf("Session %s advanced to step %d (%s)", session.Code, next, nextStep.Kind)
	return s.republishSession(ctx, session.Code)
}

// AdvanceContentItem moves to the next item of the current content block.
// The index write happens unconditionally first, so players observe the
// increment even when it is the last item; reaching the block size then
// triggers exactly one flow advance.
func (s *SessionService) AdvanceContentItem(ctx context.Context, code string) error {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return err
	}
	if session.Status != models.StatusPlaying {
		return ErrInvalidState
	}
	_, blockSize, ok := s.script.BlockBounds(session.FlowIndex)
	if !ok {
		return ErrInvalidState
	}

	next := session.ContentIndex + 1
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("code = ?", session.Code).
		Update("content_index", next).Error; err != nil {
		return err
	}
	if err := s.republishSession(ctx, session.Code); err != nil {
		return err
	}

	if next >= blockSize {
		return s.AdvanceFlow(ctx, session.Code)
	}
	return nil
}

// SubmitAnswer records a player's answer for the currently displayed item.
// Correct answers bump the participant's score atomically in the store; the
// answer row is appended regardless, with the -1 sentinel on timeout.
func (s *SessionService) SubmitAnswer(ctx context.Context, code string, req *SubmitAnswerRequest) error {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return err
	}
	if session.Status != models.StatusPlaying {
		return ErrInvalidState
	}

	if req.IsCorrect {
		// Atomic increment; no read-then-write, so concurrent submissions
		// cannot lose updates. The virtual host participant has no row and
		// the update simply matches nothing.
		if err := s.db.WithContext(ctx).Model(&models.Participant{}).
			Where("id = ?", req.ParticipantID).
			Update("score", gorm.Expr("score + ?", PointsPerCorrect)).Error; err != nil {
			return err
		}
	}

	answer := models.Answer{
		SessionCode:   session.Code,
		ParticipantID: req.ParticipantID,
		ContentItemID: req.ContentItemID,
		ChosenIndex:   req.ChosenIndex,
		IsCorrect:     req.IsCorrect,
	}
	if err := s.db.WithContext(ctx).Create(&answer).Error; err != nil {
		return err
	}

	s.publish(ctx, store.Event{
		Table:       store.TableAnswers,
		Type:        store.EventInsert,
		SessionCode: session.Code,
		New:         mustJSON(answer),
	})
	return nil
}

// GetSession returns the session with its participants.
func (s *SessionService) GetSession(ctx context.Context, code string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Preload("Participants").Where("code = ?", code).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ResolveItems maps a persisted content order back to playable items.
// Positions whose id is missing from the pool are skipped, not null-padded.
func (s *SessionService) ResolveItems(ctx context.Context, order []string) ([]content.Item, error) {
	pool, err := s.provider.Pool(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]content.Item, 0, len(order))
	for _, id := range order {
		it, ok := pool[id]
		if !ok {
			log.Printf("Content item %s missing from pool, skipping", id)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// Participants returns the session's joined players.
func (s *SessionService) Participants(ctx context.Context, code string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.db.WithContext(ctx).
		Where("session_code = ?", code).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

// CleanupExpired removes finished sessions older than the retention window,
// with their dependent rows. Run opportunistically at creation time.
func (s *SessionService) CleanupExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-finishedRetention)

	var expired []models.Session
	if err := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.StatusFinished, cutoff).
		Find(&expired).Error; err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	codes := make([]string, len(expired))
	for i, sess := range expired {
		codes[i] = sess.Code
	}
	if err := s.db.WithContext(ctx).Where("session_code IN ?", codes).Delete(&models.Participant{}).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("session_code IN ?", codes).Delete(&models.Answer{}).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("session_code IN ?", codes).Delete(&models.MinigameRow{}).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("code IN ?", codes).Delete(&models.Session{}).Error; err != nil {
		return err
	}

	log.Printf("Swept %d expired sessions", len(expired))
	return nil
}

func (s *SessionService) finish(ctx context.Context, code string) error {
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("code = ?", code).
		Update("status", models.StatusFinished).Error; err != nil {
		return err
	}
	if err := s.clearMinigameRows(ctx, code); err != nil {
		return err
	}
	log.Printf("Session %s finished", code)
	return s.republishSession(ctx, code)
}

func (s *SessionService) clearMinigameRows(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Where("session_code = ?", code).Delete(&models.MinigameRow{}).Error
}

func (s *SessionService) getSession(ctx context.Context, code string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// republishSession reads the row back and publishes it as a full snapshot.
// Consumers reconcile from snapshots, so coalesced or replayed events are
// harmless.
func (s *SessionService) republishSession(ctx context.Context, code string) error {
	session, err := s.getSession(ctx, code)
	if err != nil {
		return err
	}
	s.publishSession(ctx, store.EventUpdate, session)
	return nil
}

func (s *SessionService) publishSession(ctx context.Context, typ store.EventType, session *models.Session) {
	s.publish(ctx, store.Event{
		Table:       store.TableSessions,
		Type:        typ,
		SessionCode: session.Code,
		New:         mustJSON(session),
	})
}

func (s *SessionService) publish(ctx context.Context, evt store.Event) {
	if err := s.feed.Publish(ctx, evt); err != nil {
		// Clients converge on the next snapshot either way.
		log.Printf("Failed to publish %s/%s event for %s: %v", evt.Table, evt.Type, evt.SessionCode, err)
	}
}

func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand failing is effectively fatal elsewhere; fall back
			// to the first character rather than panic in a hot path.
			code[i] = codeAlphabet[0]
			continue
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal feed payload: %v", err)
		return nil
	}
	return data
}
