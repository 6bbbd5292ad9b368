package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/models"
)

// SubscriptionHandler handles plan selection and payment confirmation.
type SubscriptionHandler struct {
	subscriptionService core.SubscriptionService
	logger              *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(ss core.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: ss, logger: logger}
}

// GetSubscription handles GET /subscription
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Get(c.Request.Context(), userID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListPlans handles GET /subscription/plans
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.subscriptionService.Plans())
}

// SelectPlan handles POST /subscription/select. Paid plans are parked as
// pending until POST /subscription/confirm-payment.
func (h *SubscriptionHandler) SelectPlan(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req models.SelectPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, requiresPayment, err := h.subscriptionService.SelectPlan(c.Request.Context(), userID, req.Plan)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SelectPlanResponse{Subscription: sub, RequiresPayment: requiresPayment})
}

// ConfirmPayment handles POST /subscription/confirm-payment
func (h *SubscriptionHandler) ConfirmPayment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req models.SelectPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.ConfirmPayment(c.Request.Context(), userID, req.Plan)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SelectPlanResponse{Subscription: sub})
}
