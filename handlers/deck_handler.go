package handlers

import (
	"net/http"
	"strconv"
	"time"

	"neurocards/models"
	"neurocards/services"

	"github.com/gin-gonic/gin"
)

type DeckHandler struct {
	deckService     *services.DeckService
	syncService     *services.SyncService
	progressService *services.ProgressService
}

func NewDeckHandler(
	deckService *services.DeckService,
	syncService *services.SyncService,
	progressService *services.ProgressService,
) *DeckHandler {
	return &DeckHandler{
		deckService:     deckService,
		syncService:     syncService,
		progressService: progressService,
	}
}

type cardsResponse struct {
	Items []models.Card           `json:"items"`
	Meta  services.PaginationMeta `json:"meta"`
}

func (h *DeckHandler) CreateDeck(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deck, err := h.deckService.CreateDeck(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deck)
}

func (h *DeckHandler) GetCreatedDecks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	decks, err := h.deckService.GetCreatedDecks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decks)
}

func (h *DeckHandler) GetUserDecks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	decks, err := h.deckService.GetUserDecks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decks)
}

func (h *DeckHandler) GetDeckByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deckID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deck ID"})
		return
	}

	deck, err := h.deckService.GetDeckByID(c.Request.Context(), deckID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, deck)
}

func (h *DeckHandler) UpdateDeck(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deckID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deck ID"})
		return
	}

	var req services.UpdateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deckService.UpdateDeck(c.Request.Context(), deckID, userID, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetDeckCards serves both query shapes: the full card list, and the
// incremental diff when from_version is present. Pagination is optional.
func (h *DeckHandler) GetDeckCards(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	deckID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deck ID"})
		return
	}

	page, err := optionalIntQuery(c, "page")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	if page != nil && *page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}

	fromVersion, err := optionalIntQuery(c, "from_version")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from_version"})
		return
	}

	ctx := c.Request.Context()
	if fromVersion != nil {
		cards, err := h.syncService.GetCardsFromVersion(ctx, deckID, *fromVersion, page)
		if err != nil {
			respondError(c, err)
			return
		}
		meta, err := h.syncService.GetTotalCardsFromVersion(ctx, deckID, *fromVersion)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cardsResponse{Items: cards, Meta: meta})
		return
	}

	cards, err := h.syncService.GetCards(ctx, deckID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	meta, err := h.syncService.GetTotalCards(ctx, deckID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cardsResponse{Items: cards, Meta: meta})
}

func (h *DeckHandler) UpdateCardInfo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deckID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deck ID"})
		return
	}

	var cards []services.CardInfoRequest
	if err := c.ShouldBindJSON(&cards); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.progressService.UpdateCardInfo(c.Request.Context(), userID, deckID, cards); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *DeckHandler) GetCardInfo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deckID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deck ID"})
		return
	}

	after, err := time.Parse(time.RFC3339, c.Query("after_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid after_date, expected RFC3339"})
		return
	}

	infos, err := h.progressService.GetCardInfoSince(c.Request.Context(), userID, deckID, after)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, infos)
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id), err
}

func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
