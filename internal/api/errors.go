package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/middleware"
)

// mapErrorToStatus maps errors from the core services to HTTP status codes
// and ErrorResponse. Unclassified errors are logged and hidden behind a 500.
func mapErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrValidation):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Validation failed", Details: err.Error()}
	case errors.Is(err, core.ErrQuotaExceeded), errors.Is(err, core.ErrFeatureLocked):
		// The message names the plan and its limit so the client can offer an upgrade.
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrCardNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrCardNotFound.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	case errors.Is(err, core.ErrScannedNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrScannedNotFound.Error()}
	case errors.Is(err, core.ErrPlanNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrPlanNotFound.Error(), Details: err.Error()}
	case errors.Is(err, core.ErrLinkTaken):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrLinkTaken.Error(), Details: err.Error()}
	case errors.Is(err, core.ErrNoPendingPlan):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrNoPendingPlan.Error()}
	default:
		logger.Error("Internal Server Error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("userID", c.GetString(middleware.ContextUserID)),
			zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// bindJSON decodes the body into req. Unknown fields are rejected (see
// SetupRoutes) and binding tags are checked.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return false
	}
	return true
}

// requireUserID returns the verified caller, answering 401 when the auth
// middleware did not run.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	return userID, true
}
