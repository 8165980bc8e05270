package handlers

import (
	"errors"
	"net/http"
	"strings"

	"partyquiz/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// statusFor maps the service error taxonomy onto HTTP: unknown code is a
// 404, an action in the wrong state is a 409, everything else is a
// transient store failure surfaced as a blocking 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSessionStarted),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrWrongPhase),
		errors.Is(err, services.ErrNoParticipants):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// normalizeCode uppercases the 4-char session code so typed-in codes match.
func normalizeCode(c *gin.Context) string {
	return strings.ToUpper(c.Param("code"))
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.sessions.CreateSession(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), normalizeCode(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetItems resolves the session's content order into playable items, for
// clients building their local item list after joining.
func (h *SessionHandler) GetItems(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), normalizeCode(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	items, err := h.sessions.ResolveItems(c.Request.Context(), session.ContentOrder)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *SessionHandler) JoinSession(c *gin.Context) {
	var req services.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code := normalizeCode(c)
	participant, err := h.sessions.JoinSession(c.Request.Context(), code, &req)
	if err != nil {
		abortWith(c, err)
		return
	}

	// The joiner gets its playable item list in the same response, so the
	// client renders from local data and only listens for index changes.
	session, err := h.sessions.GetSession(c.Request.Context(), code)
	if err != nil {
		abortWith(c, err)
		return
	}
	items, err := h.sessions.ResolveItems(c.Request.Context(), session.ContentOrder)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": participant, "items": items})
}

func (h *SessionHandler) StartFlow(c *gin.Context) {
	if err := h.sessions.StartFlow(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session started"})
}

func (h *SessionHandler) AdvanceFlow(c *gin.Context) {
	if err := h.sessions.AdvanceFlow(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Flow advanced"})
}

func (h *SessionHandler) AdvanceContentItem(c *gin.Context) {
	if err := h.sessions.AdvanceContentItem(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item advanced"})
}

func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.SubmitAnswer(c.Request.Context(), normalizeCode(c), &req); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer submitted"})
}
