package handlers

import (
	"net/http"

	"partyquiz/services"

	"github.com/gin-gonic/gin"
)

type MinigameHandler struct {
	sessions *services.SessionService
	impostor *services.ImpostorService
	truthLie *services.TruthLieService
	dilemma  *services.DilemmaService
}

func NewMinigameHandler(sessions *services.SessionService, impostor *services.ImpostorService, truthLie *services.TruthLieService, dilemma *services.DilemmaService) *MinigameHandler {
	return &MinigameHandler{
		sessions: sessions,
		impostor: impostor,
		truthLie: truthLie,
		dilemma:  dilemma,
	}
}

// --- Impostor ---

type distributeRequest struct {
	HostName string `json:"host_name"`
}

func (h *MinigameHandler) DistributeRoles(c *gin.Context) {
	// Body is optional; the host name falls back to a default.
	var req distributeRequest
	_ = c.ShouldBindJSON(&req)
	if req.HostName == "" {
		req.HostName = "Game Master"
	}

	if err := h.impostor.DistributeRoles(c.Request.Context(), normalizeCode(c), req.HostName); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Roles distributed"})
}

func (h *MinigameHandler) ImpostorStartVoting(c *gin.Context) {
	if err := h.impostor.StartVoting(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voting open"})
}

func (h *MinigameHandler) ImpostorReveal(c *gin.Context) {
	if err := h.impostor.RevealImpostor(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	name, err := h.impostor.Impostor(c.Request.Context(), normalizeCode(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"impostor": name})
}

// ImpostorRole returns the caller's own secret word only.
func (h *MinigameHandler) ImpostorRole(c *gin.Context) {
	word, isImpostor, err := h.impostor.Role(c.Request.Context(), normalizeCode(c), c.Param("participantID"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"word": word, "is_impostor": isImpostor})
}

func (h *MinigameHandler) ImpostorFinish(c *gin.Context) {
	if err := h.impostor.Finish(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mini-game finished"})
}

// --- Truth or lie ---

func (h *MinigameHandler) TruthLieBegin(c *gin.Context) {
	if err := h.truthLie.Begin(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Writing phase open"})
}

type statementsRequest struct {
	ParticipantID string   `json:"participant_id" binding:"required"`
	Facts         []string `json:"facts" binding:"required"`
	LieIndex      int      `json:"lie_index"`
}

func (h *MinigameHandler) TruthLieSubmit(c *gin.Context) {
	var req statementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.truthLie.SubmitStatements(c.Request.Context(), normalizeCode(c), req.ParticipantID, req.Facts, req.LieIndex)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Statements submitted"})
}

func (h *MinigameHandler) TruthLieStatements(c *gin.Context) {
	facts, err := h.truthLie.Statements(c.Request.Context(), normalizeCode(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facts": facts})
}

type truthLieVoteRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	GuessIndex    int    `json:"guess_index"`
}

func (h *MinigameHandler) TruthLieVote(c *gin.Context) {
	var req truthLieVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.truthLie.CastVote(c.Request.Context(), normalizeCode(c), req.ParticipantID, req.GuessIndex); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote cast"})
}

func (h *MinigameHandler) TruthLieReveal(c *gin.Context) {
	facts, lieIndex, err := h.truthLie.Reveal(c.Request.Context(), normalizeCode(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facts": facts, "lie_index": lieIndex})
}

func (h *MinigameHandler) TruthLieFinish(c *gin.Context) {
	if err := h.truthLie.Finish(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mini-game finished"})
}

// --- Dilemma ---

func (h *MinigameHandler) DilemmaPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompts": h.dilemma.Prompts()})
}

type dilemmaVoteRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Choice        string `json:"choice" binding:"required"`
}

func (h *MinigameHandler) DilemmaVote(c *gin.Context) {
	var req dilemmaVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.dilemma.CastVote(c.Request.Context(), normalizeCode(c), req.ParticipantID, req.Choice); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote cast"})
}

func (h *MinigameHandler) DilemmaResults(c *gin.Context) {
	code := normalizeCode(c)
	if err := h.dilemma.ShowResults(c.Request.Context(), code); err != nil {
		abortWith(c, err)
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), code)
	if err != nil {
		abortWith(c, err)
		return
	}
	tally, err := h.dilemma.Tally(c.Request.Context(), code, session.Minigame.Round)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}

func (h *MinigameHandler) DilemmaNext(c *gin.Context) {
	if err := h.dilemma.NextRound(c.Request.Context(), normalizeCode(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Advanced"})
}
