package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tapcard-backend/internal/models"
)

const subscriptionsCollection = "subscriptions"

type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a SubscriptionRepository backed by Firestore.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SubscriptionRepository.")
	}
	return &firestoreSubscriptionRepository{client: client}
}

func (r *firestoreSubscriptionRepository) GetByUID(ctx context.Context, uid string) (*models.Subscription, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByUID operation")
	}
	snap, err := r.client.Collection(subscriptionsCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription for user '%s' not found: %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription for user '%s': %w", uid, err)
	}
	return decodeSubscription(snap)
}

func (r *firestoreSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.UID == "" {
		return errors.New("subscription UID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(subscriptionsCollection).Doc(sub.UID).Create(ctx, sub)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("subscription for user '%s' already exists: %w", sub.UID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create subscription for user '%s': %w", sub.UID, err)
	}
	return nil
}

// SetPlan switches the tier with a field-level update so a concurrent
// cardsCreated increment is never overwritten.
func (r *firestoreSubscriptionRepository) SetPlan(ctx context.Context, uid, plan string, maxCards int, features models.PlanFeatures) error {
	_, err := r.client.Collection(subscriptionsCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "plan", Value: plan},
		{Path: "maxCards", Value: maxCards},
		{Path: "features", Value: features},
		{Path: "pendingPlan", Value: firestore.Delete},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return wrapUpdateErr(err, uid)
}

func (r *firestoreSubscriptionRepository) SetPendingPlan(ctx context.Context, uid, plan string) error {
	_, err := r.client.Collection(subscriptionsCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "pendingPlan", Value: plan},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return wrapUpdateErr(err, uid)
}

func wrapUpdateErr(err error, uid string) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("subscription for user '%s' not found: %w", uid, ErrNotFound)
	}
	return fmt.Errorf("failed to update subscription for user '%s': %w", uid, err)
}

func decodeSubscription(snap *firestore.DocumentSnapshot) (*models.Subscription, error) {
	var sub models.Subscription
	if err := snap.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription '%s': %w", snap.Ref.ID, err)
	}
	sub.UID = snap.Ref.ID
	return &sub, nil
}
