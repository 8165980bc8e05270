package main

import (
	"context"
	"log"
	"time"

	"partyquiz/config"
	"partyquiz/content"
	"partyquiz/flow"
	"partyquiz/handlers"
	"partyquiz/middleware"
	"partyquiz/models"
	"partyquiz/routes"
	"partyquiz/services"
	"partyquiz/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.Session{},
		&models.Participant{},
		&models.Answer{},
		&models.MinigameRow{},
		&models.Question{},
		&models.Debate{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Change feed: Redis when reachable, in-process otherwise. A single-node
	// deployment works fine on the memory feed.
	var feed store.Feed
	redisClient := config.InitRedis(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable (%v), using in-process change feed", err)
		feed = store.NewMemoryFeed()
	} else {
		feed = store.NewRedisFeed(redisClient)
	}
	cancel()

	// Initialize services
	provider := content.NewProvider(db)
	script := flow.Default()
	sessionService := services.NewSessionService(db, feed, provider, script)
	impostorService := services.NewImpostorService(sessionService)
	truthLieService := services.NewTruthLieService(sessionService, cfg.PersistTruthLieVotes)
	dilemmaService := services.NewDilemmaService(sessionService)

	// Initialize WebSocket hub
	hub := services.NewHub(feed, sessionService)
	go hub.Run()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionService)
	minigameHandler := handlers.NewMinigameHandler(sessionService, impostorService, truthLieService, dilemmaService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, sessionHandler, minigameHandler, hub, sessionService)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
