package handlers

import (
	"net/http"

	"neurocards/services"

	"github.com/gin-gonic/gin"
)

type LLMHandler struct {
	llmService *services.LLMService
}

func NewLLMHandler(llmService *services.LLMService) *LLMHandler {
	return &LLMHandler{
		llmService: llmService,
	}
}

func (h *LLMHandler) GenerateFromText(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req services.GenerateFromTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cards, err := h.llmService.GenerateCards(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cards)
}
