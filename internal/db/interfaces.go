package db

import (
	"context"
	"errors"

	"tapcard-backend/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when a create or unique-field write collides.
	ErrAlreadyExists = errors.New("document already exists")
)

// UserRepository defines the interface for user profile storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// SubscriptionRepository stores subscriptions/{uid}. Plan changes never touch
// the cardsCreated counter.
type SubscriptionRepository interface {
	GetByUID(ctx context.Context, uid string) (*models.Subscription, error)
	// Create provisions a subscription; ErrAlreadyExists if one is present.
	Create(ctx context.Context, sub *models.Subscription) error
	SetPlan(ctx context.Context, uid, plan string, maxCards int, features models.PlanFeatures) error
	SetPendingPlan(ctx context.Context, uid, plan string) error
}

// ProvisionFunc builds the subscription to create when the owner has none.
type ProvisionFunc func() *models.Subscription

// AdmitFunc decides whether one more card may be created under sub.
// A non-nil error aborts the creation without side effects.
type AdmitFunc func(sub *models.Subscription) error

// CardRepository defines the interface for card storage operations.
type CardRepository interface {
	// CreateWithQuota atomically reads (or provisions) the owner's subscription,
	// runs admit, checks link uniqueness, creates the card and increments
	// cardsCreated. It returns the subscription as committed.
	CreateWithQuota(ctx context.Context, card *models.Card, provision ProvisionFunc, admit AdmitFunc) (*models.Subscription, error)
	GetByID(ctx context.Context, cardID string) (*models.Card, error)
	// FindByLink returns the card whose cardLink equals link.
	FindByLink(ctx context.Context, link string) (*models.Card, error)
	ListByOwner(ctx context.Context, ownerUID string) ([]*models.Card, error)
	// Update overwrites the card; ErrAlreadyExists if its link belongs to another card.
	Update(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, cardID string) error
}

// ScannedCardRepository stores wallet entries under scanned/{viewerUid}/cards.
type ScannedCardRepository interface {
	Upsert(ctx context.Context, viewerUID string, entry *models.ScannedCard) error
	Get(ctx context.Context, viewerUID, cardLink string) (*models.ScannedCard, error)
	ListByViewer(ctx context.Context, viewerUID string) ([]*models.ScannedCard, error)
}
