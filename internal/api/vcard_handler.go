package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
)

// VCardHandler serves "save contact" downloads.
type VCardHandler struct {
	users    core.UserService
	resolver core.ResolverService
	logger   *zap.Logger
}

// NewVCardHandler creates a new VCardHandler.
func NewVCardHandler(us core.UserService, rs core.ResolverService, logger *zap.Logger) *VCardHandler {
	return &VCardHandler{users: us, resolver: rs, logger: logger}
}

// GetVCard handles GET /vcard?cardLink=... or GET /vcard?userId=...
// A card link wins when both are given.
func (h *VCardHandler) GetVCard(c *gin.Context) {
	cardLink := strings.TrimSpace(c.Query("cardLink"))
	userID := strings.TrimSpace(c.Query("userId"))

	var contact core.Contact
	var slug string
	switch {
	case cardLink != "":
		card, err := h.resolver.Resolve(c.Request.Context(), cardLink)
		if err != nil {
			mapErrorToStatus(c, h.logger, err)
			return
		}
		contact, slug = core.ContactFromCard(card), card.PublicLink()
	case userID != "":
		user, err := h.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			mapErrorToStatus(c, h.logger, err)
			return
		}
		contact, slug = core.ContactFromUser(user), user.Slug
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cardLink or userId query parameter is required"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.VCardFilename(slug)))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/vcard; charset=utf-8", core.EncodeVCard(contact))
}
