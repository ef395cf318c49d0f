package main

import (
	"context"
	"log"

	"neurocards/config"
	"neurocards/handlers"
	"neurocards/middleware"
	"neurocards/models"
	"neurocards/routes"
	"neurocards/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := config.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer config.Log.Sync()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		config.Log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Deck{},
		&models.Card{},
		&models.QuestionOption{},
		&models.DeckMigration{},
		&models.DeckMigrationUpdate{},
		&models.UserDeck{},
		&models.UserCardInfo{},
	)
	if err != nil {
		config.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	cardStore := services.NewCardStore()
	authService := services.NewAuthService(db, cfg)
	deckService := services.NewDeckService(db, cardStore, redisClient)
	syncService := services.NewSyncService(db)
	progressService := services.NewProgressService(db)
	llmService := services.NewLLMService(cfg)

	// Initialize WebSocket hub
	hub := services.NewHub(redisClient)
	go hub.Run()
	go hub.RunSubscriber(context.Background())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	deckHandler := handlers.NewDeckHandler(deckService, syncService, progressService)
	llmHandler := handlers.NewLLMHandler(llmService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, deckHandler, llmHandler, hub, deckService, cfg.AccessTokenSecret)

	// Start server
	config.SLog.Infof("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		config.Log.Fatal("failed to start server", zap.Error(err))
	}
}
