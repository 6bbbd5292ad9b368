package api

import (
	"time"

	"tapcard-backend/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PublicCardResponse wraps a card served by its public link.
type PublicCardResponse struct {
	Card *models.Card `json:"card"`
}

// UpdateCardResponse acknowledges an update and returns the stored card.
type UpdateCardResponse struct {
	Message string       `json:"message"`
	Card    *models.Card `json:"card"`
}

// MeResponse is the dashboard payload for GET /users/me.
type MeResponse struct {
	User         *models.User         `json:"user"`
	Subscription *models.Subscription `json:"subscription"`
	Cards        []*models.Card       `json:"cards"`
}

// RegisterResponse returns the profile and the first card.
type RegisterResponse struct {
	User *models.User `json:"user"`
	Card *models.Card `json:"card"`
}

// ForgotPasswordResponse carries the reset link outside release mode only.
type ForgotPasswordResponse struct {
	Message   string `json:"message"`
	ResetLink string `json:"resetLink,omitempty"`
}

// SelectPlanResponse reports whether the chosen plan is waiting for payment.
type SelectPlanResponse struct {
	Subscription    *models.Subscription `json:"subscription"`
	RequiresPayment bool                 `json:"requiresPayment"`
}

// WalletResponse lists a viewer's saved cards, newest first.
type WalletResponse struct {
	ScannedCards []*models.ScannedCard `json:"scannedCards"`
}

// WalletEntryResponse is one saved card with its current content.
type WalletEntryResponse struct {
	Card      *models.Card `json:"card"`
	ScannedAt time.Time    `json:"scannedAt"`
}

// SaveScannedCardResponse acknowledges a wallet save.
type SaveScannedCardResponse struct {
	Message     string              `json:"message"`
	ScannedCard *models.ScannedCard `json:"scannedCard"`
}

// UploadResponse carries the public URL of an uploaded image.
type UploadResponse struct {
	URL string `json:"url"`
}
