package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/middleware"
	"tapcard-backend/internal/models"
)

// AuthHandler handles account lifecycle endpoints tied to the identity provider.
type AuthHandler struct {
	userService     core.UserService
	logger          *zap.Logger
	exposeResetLink bool
}

// NewAuthHandler creates a new AuthHandler. exposeResetLink echoes password
// reset links in responses and must be false in release mode.
func NewAuthHandler(us core.UserService, logger *zap.Logger, exposeResetLink bool) *AuthHandler {
	return &AuthHandler{userService: us, logger: logger, exposeResetLink: exposeResetLink}
}

func identityFromContext(c *gin.Context) core.Identity {
	return core.Identity{
		UID:         c.GetString(middleware.ContextUserID),
		Email:       c.GetString(middleware.ContextUserEmail),
		DisplayName: c.GetString(middleware.ContextUserDisplayName),
		PhotoURL:    c.GetString(middleware.ContextUserPhotoURL),
	}
}

// InitializeUserProfile handles POST /users/initialize. Clients call it after
// every sign-in; it answers 201 the first time and 200 afterwards.
func (h *AuthHandler) InitializeUserProfile(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	id := identityFromContext(c)
	if id.Email == "" {
		h.logger.Warn("Initializing user without email claim", zap.String("userID", id.UID))
	}

	user, created, err := h.userService.GetOrCreate(c.Request.Context(), id.UID, id.Email, id.DisplayName, id.PhotoURL)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// Register handles POST /users/register: profile plus first card.
func (h *AuthHandler) Register(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, card, err := h.userService.Register(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, RegisterResponse{User: user, Card: card})
}

// ForgotPassword handles POST /users/forgot-password. It is public.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.userService.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	resp := ForgotPasswordResponse{Message: "Password reset link generated"}
	if h.exposeResetLink {
		resp.ResetLink = link
	}
	c.JSON(http.StatusOK, resp)
}
