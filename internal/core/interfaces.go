package core

import (
	"context"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/models"
)

// EntitlementService gates card creation on the caller's subscription.
type EntitlementService interface {
	// CreateCard validates req, then atomically checks the plan ceiling and
	// features, creates the card and increments the usage counter.
	CreateCard(ctx context.Context, userID string, req models.CreateCardRequest) (*models.Card, error)
}

// CardService covers owner-side card management.
type CardService interface {
	ListMyCards(ctx context.Context, userID string) ([]*models.Card, error)
	GetCard(ctx context.Context, userID, cardID string) (*models.Card, error)
	UpdateCard(ctx context.Context, userID, cardID string, req models.UpdateCardRequest) (*models.Card, error)
	DeleteCard(ctx context.Context, userID, cardID string) error
	ShareCard(ctx context.Context, userID, cardID string) (*SharePayload, error)
}

// ResolverService maps public links to active cards.
type ResolverService interface {
	Resolve(ctx context.Context, link string) (*models.Card, error)
	// Invalidate drops cached lookups for the given links or card IDs.
	Invalidate(ctx context.Context, keys ...string)
}

// UserService defines the interface for user-related operations.
type UserService interface {
	// GetOrCreate returns the user, creating the profile and a FREE subscription
	// on first sign-in. The bool reports whether the profile was created.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	Register(ctx context.Context, claims Identity, req models.RegisterRequest) (*models.User, *models.Card, error)
	// ForgotPassword returns the reset link. When a mailer is configured the
	// link is also mailed to the user.
	ForgotPassword(ctx context.Context, email string) (string, error)
}

// SubscriptionService manages the caller's plan.
type SubscriptionService interface {
	Get(ctx context.Context, userID string) (*models.Subscription, error)
	Plans() []config.Plan
	// SelectPlan applies free plans immediately; paid plans become pending
	// and the returned bool reports that payment is required.
	SelectPlan(ctx context.Context, userID, plan string) (*models.Subscription, bool, error)
	ConfirmPayment(ctx context.Context, userID, plan string) (*models.Subscription, error)
	// SetPlan applies a plan without payment. Used by operators.
	SetPlan(ctx context.Context, userID, plan string) (*models.Subscription, error)
}

// WalletService manages a viewer's saved cards.
type WalletService interface {
	Save(ctx context.Context, viewerUID, cardLink string) (*models.ScannedCard, error)
	List(ctx context.Context, viewerUID string) ([]*models.ScannedCard, error)
	Get(ctx context.Context, viewerUID, cardLink string) (*models.ScannedCardView, error)
}

// Identity is the verified subject of a request.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// PasswordResetLinker is satisfied by *auth.Client.
type PasswordResetLinker interface {
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// MailSender is satisfied by *mailer.Mailer.
type MailSender interface {
	Send(recipient, subject, body string) error
}

// ImageStore is satisfied by *storage.S3Storage.
type ImageStore interface {
	UploadImage(ctx context.Context, ownerUID string, data []byte) (string, error)
}
