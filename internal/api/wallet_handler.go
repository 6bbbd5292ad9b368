package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/models"
)

// WalletHandler handles a viewer's saved ("scanned") cards.
type WalletHandler struct {
	wallet core.WalletService
	logger *zap.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ws core.WalletService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallet: ws, logger: logger}
}

// SaveScannedCard handles POST /scanned
func (h *WalletHandler) SaveScannedCard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req models.SaveScannedCardRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.wallet.Save(c.Request.Context(), userID, req.CardLink)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SaveScannedCardResponse{Message: "Card saved to wallet", ScannedCard: entry})
}

// GetMyScannedCards handles GET /scanned/me. With ?cardLink= it returns that
// single entry together with the card's current content.
func (h *WalletHandler) GetMyScannedCards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if link := c.Query("cardLink"); link != "" {
		view, err := h.wallet.Get(c.Request.Context(), userID, link)
		if err != nil {
			mapErrorToStatus(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, WalletEntryResponse{Card: view.Card, ScannedAt: view.ScannedAt})
		return
	}

	entries, err := h.wallet.List(c.Request.Context(), userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, WalletResponse{ScannedCards: entries})
}
