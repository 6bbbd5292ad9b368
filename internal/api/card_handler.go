package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/models"
)

// CardHandler handles API endpoints related to cards.
type CardHandler struct {
	entitlement core.EntitlementService
	cards       core.CardService
	resolver    core.ResolverService
	logger      *zap.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(es core.EntitlementService, cs core.CardService, rs core.ResolverService, logger *zap.Logger) *CardHandler {
	return &CardHandler{entitlement: es, cards: cs, resolver: rs, logger: logger}
}

// CreateCard handles POST /cards. Creation goes through the entitlement gate.
func (h *CardHandler) CreateCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req models.CreateCardRequest
	if !bindJSON(c, &req) {
		return
	}

	card, err := h.entitlement.CreateCard(c.Request.Context(), userID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// ListMyCards handles GET /cards/me
func (h *CardHandler) ListMyCards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	cards, err := h.cards.ListMyCards(c.Request.Context(), userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetCard handles GET /cards/:cardId
func (h *CardHandler) GetCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	card, err := h.cards.GetCard(c.Request.Context(), userID, c.Param("cardId"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// ShareCard handles GET /cards/:cardId/share
func (h *CardHandler) ShareCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	payload, err := h.cards.ShareCard(c.Request.Context(), userID, c.Param("cardId"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// UpdateCard handles PUT /cards/:cardId
func (h *CardHandler) UpdateCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req models.UpdateCardRequest
	if !bindJSON(c, &req) {
		return
	}

	card, err := h.cards.UpdateCard(c.Request.Context(), userID, c.Param("cardId"), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, UpdateCardResponse{Message: "Card updated successfully", Card: card})
}

// DeleteCard handles DELETE /cards/:cardId
func (h *CardHandler) DeleteCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.cards.DeleteCard(c.Request.Context(), userID, c.Param("cardId")); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Card deleted successfully"})
}

// GetPublicCard handles GET /cards/public/*link. No identity is required;
// unknown and inactive cards are both 404.
func (h *CardHandler) GetPublicCard(c *gin.Context) {
	card, err := h.resolver.Resolve(c.Request.Context(), c.Param("link"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PublicCardResponse{Card: card})
}
