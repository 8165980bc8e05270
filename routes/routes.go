package routes

import (
	"log"
	"net/http"
	"strings"

	"partyquiz/handlers"
	"partyquiz/models"
	"partyquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	sessionHandler *handlers.SessionHandler,
	minigameHandler *handlers.MinigameHandler,
	hub *services.Hub,
	sessions *services.SessionService,
) {
	api := router.Group("/api")
	{
		s := api.Group("/sessions")
		{
			s.POST("", sessionHandler.CreateSession)
			s.GET("/:code", sessionHandler.GetSession)
			s.GET("/:code/items", sessionHandler.GetItems)
			s.POST("/:code/join", sessionHandler.JoinSession)
			s.POST("/:code/start", sessionHandler.StartFlow)
			s.POST("/:code/advance", sessionHandler.AdvanceFlow)
			s.POST("/:code/next-item", sessionHandler.AdvanceContentItem)
			s.POST("/:code/answer", sessionHandler.SubmitAnswer)

			impostor := s.Group("/:code/impostor")
			{
				impostor.POST("/distribute", minigameHandler.DistributeRoles)
				impostor.POST("/voting", minigameHandler.ImpostorStartVoting)
				impostor.POST("/reveal", minigameHandler.ImpostorReveal)
				impostor.GET("/role/:participantID", minigameHandler.ImpostorRole)
				impostor.POST("/finish", minigameHandler.ImpostorFinish)
			}

			truthlie := s.Group("/:code/truthlie")
			{
				truthlie.POST("/begin", minigameHandler.TruthLieBegin)
				truthlie.POST("/statements", minigameHandler.TruthLieSubmit)
				truthlie.GET("/statements", minigameHandler.TruthLieStatements)
				truthlie.POST("/vote", minigameHandler.TruthLieVote)
				truthlie.POST("/reveal", minigameHandler.TruthLieReveal)
				truthlie.POST("/finish", minigameHandler.TruthLieFinish)
			}

			dilemma := s.Group("/:code/dilemma")
			{
				dilemma.GET("/prompts", minigameHandler.DilemmaPrompts)
				dilemma.POST("/vote", minigameHandler.DilemmaVote)
				dilemma.POST("/results", minigameHandler.DilemmaResults)
				dilemma.POST("/next", minigameHandler.DilemmaNext)
			}
		}
	}

	// WebSocket endpoint for real-time session synchronization.
	router.GET("/ws/:code/:participantID", func(c *gin.Context) {
		code := strings.ToUpper(c.Param("code"))
		participantID := c.Param("participantID")
		name := c.Query("name")

		role, err := resolveRole(c, sessions, code, participantID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Participant not found in session"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for session %s, participant %s: %v", code, participantID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
			return
		}

		log.Printf("WebSocket connected for session %s, participant %s (%s)", code, participantID, name)
		hub.RegisterClient(conn, code, participantID, name, role)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// resolveRole checks the participant belongs to the session before the
// upgrade. The host connects under its virtual identity.
func resolveRole(c *gin.Context, sessions *services.SessionService, code, participantID string) (services.Role, error) {
	session, err := sessions.GetSession(c.Request.Context(), code)
	if err != nil {
		return "", err
	}
	if participantID == models.HostID(code) {
		return services.RoleHost, nil
	}
	for _, p := range session.Participants {
		if p.ID == participantID {
			return services.RolePlayer, nil
		}
	}
	return "", services.ErrSessionNotFound
}
