package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/pkg/storage"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart envelope.
const multipartOverhead = 64 << 10

// UploadHandler stores profile and banner images with the image host.
type UploadHandler struct {
	images   core.ImageStore
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler accepting files up to maxBytes.
func NewUploadHandler(images core.ImageStore, maxBytes int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{images: images, maxBytes: maxBytes, logger: logger}
}

// UploadImage handles POST /uploads with a multipart "file" field.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	tooLarge := ErrorResponse{Error: fmt.Sprintf("file exceeds the %d byte limit", h.maxBytes)}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart field 'file' is required", Details: err.Error()})
		return
	}
	if header.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		mapErrorToStatus(c, h.logger, fmt.Errorf("opening uploaded file: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		mapErrorToStatus(c, h.logger, fmt.Errorf("reading uploaded file: %w", err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	url, err := h.images.UploadImage(c.Request.Context(), userID, data)
	if err != nil {
		if errors.Is(err, storage.ErrNotAnImage) {
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: storage.ErrNotAnImage.Error()})
			return
		}
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
