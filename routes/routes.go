package routes

import (
	"net/http"
	"strconv"

	"neurocards/handlers"
	"neurocards/middleware"
	"neurocards/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"neurocards/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	deckHandler *handlers.DeckHandler,
	llmHandler *handlers.LLMHandler,
	hub *services.Hub,
	deckService *services.DeckService,
	accessSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Public routes
		users := api.Group("/users")
		{
			users.POST("", authHandler.Register)
		}
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(accessSecret))
		{
			protected.GET("/auth/profile", authHandler.GetProfile)

			decks := protected.Group("/decks")
			{
				decks.GET("", deckHandler.GetCreatedDecks)
				decks.POST("", deckHandler.CreateDeck)
				decks.GET("/user-decks", deckHandler.GetUserDecks)
				decks.GET("/:id", deckHandler.GetDeckByID)
				decks.PUT("/:id", deckHandler.UpdateDeck)
				decks.GET("/:id/cards", deckHandler.GetDeckCards)
				decks.GET("/:id/card-info", deckHandler.GetCardInfo)
				decks.PUT("/:id/card-info", deckHandler.UpdateCardInfo)
			}

			llm := protected.Group("/llm")
			{
				llm.POST("/generate-from-text", llmHandler.GenerateFromText)
			}
		}
	}

	// WebSocket endpoint for deck-update notifications. Browsers cannot set
	// headers on websocket upgrades, so the access token rides in the query.
	router.GET("/ws/decks/:id", func(c *gin.Context) {
		deckID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deck ID"})
			return
		}

		userID, err := middleware.ParseUserID(c.Query("token"), accessSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Watching requires the same visibility as reading the deck.
		if _, err := deckService.GetDeckByID(c.Request.Context(), uint(deckID), userID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Deck not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			config.Log.Warn("websocket upgrade failed",
				zap.Uint64("deck_id", deckID), zap.Error(err))
			return
		}

		hub.RegisterClient(conn, uint(deckID), userID)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
