package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/models"
)

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService         core.UserService
	subscriptionService core.SubscriptionService
	cardService         core.CardService
	logger              *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, ss core.SubscriptionService, cs core.CardService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, subscriptionService: ss, cardService: cs, logger: logger}
}

// GetCurrentUserProfile handles GET /users/me. The profile must have been
// initialized; the subscription is provisioned on demand.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	sub, err := h.subscriptionService.Get(ctx, userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	cards, err := h.cardService.ListMyCards(ctx, userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: user, Subscription: sub, Cards: cards})
}

// UpdateCurrentUserProfile handles PUT /users/me
func (h *UserHandler) UpdateCurrentUserProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
