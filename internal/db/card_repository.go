package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tapcard-backend/internal/models"
)

const cardsCollection = "cards"

// firestoreCardRepository implements the CardRepository interface using Firestore.
type firestoreCardRepository struct {
	client *firestore.Client
}

// NewFirestoreCardRepository creates a new instance of firestoreCardRepository.
func NewFirestoreCardRepository(client *firestore.Client) CardRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for CardRepository.")
	}
	return &firestoreCardRepository{client: client}
}

// CreateWithQuota runs the whole creation inside one Firestore transaction.
// Firestore retries the function on contention, so every attempt re-reads the
// subscription and re-runs admit against the latest counter.
func (r *firestoreCardRepository) CreateWithQuota(ctx context.Context, card *models.Card, provision ProvisionFunc, admit AdmitFunc) (*models.Subscription, error) {
	if card.OwnerUID == "" {
		return nil, errors.New("card owner cannot be empty for CreateWithQuota operation")
	}
	cardRef := r.client.Collection(cardsCollection).NewDoc()
	card.ID = cardRef.ID
	if card.CardLink == "" {
		card.CardLink = cardRef.ID
	}
	subRef := r.client.Collection(subscriptionsCollection).Doc(card.OwnerUID)

	var committed *models.Subscription
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var sub *models.Subscription
		provisioned := false

		snap, err := tx.Get(subRef)
		switch {
		case status.Code(err) == codes.NotFound:
			sub = provision()
			if sub == nil {
				return errors.New("subscription provisioning returned nothing")
			}
			sub.UID = card.OwnerUID
			provisioned = true
		case err != nil:
			return fmt.Errorf("failed to read subscription for user '%s': %w", card.OwnerUID, err)
		default:
			if sub, err = decodeSubscription(snap); err != nil {
				return err
			}
		}

		if err := admit(sub); err != nil {
			return err
		}

		taken, err := tx.Documents(r.client.Collection(cardsCollection).
			Where("cardLink", "==", card.CardLink).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("failed to check card link '%s': %w", card.CardLink, err)
		}
		if len(taken) > 0 {
			return fmt.Errorf("card link '%s' is already in use: %w", card.CardLink, ErrAlreadyExists)
		}
		if err := r.checkLinkShadowsID(tx, card); err != nil {
			return err
		}

		if err := tx.Create(cardRef, card); err != nil {
			return fmt.Errorf("failed to stage card create: %w", err)
		}

		next := *sub
		next.CardsCreated++
		next.UpdatedAt = time.Now().UTC()
		if provisioned {
			err = tx.Create(subRef, &next)
		} else {
			err = tx.Update(subRef, []firestore.Update{
				{Path: "cardsCreated", Value: firestore.Increment(1)},
				{Path: "updatedAt", Value: next.UpdatedAt},
			})
		}
		if err != nil {
			return fmt.Errorf("failed to stage subscription counter update: %w", err)
		}
		committed = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// GetByID retrieves a card document by its ID.
func (r *firestoreCardRepository) GetByID(ctx context.Context, cardID string) (*models.Card, error) {
	if cardID == "" {
		return nil, errors.New("cardID cannot be empty for GetByID operation")
	}
	snap, err := r.client.Collection(cardsCollection).Doc(cardID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("card with ID '%s' not found: %w", cardID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card with ID '%s': %w", cardID, err)
	}
	return decodeCard(snap)
}

// FindByLink queries the cardLink field.
func (r *firestoreCardRepository) FindByLink(ctx context.Context, link string) (*models.Card, error) {
	iter := r.client.Collection(cardsCollection).Where("cardLink", "==", link).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("card with link '%s' not found: %w", link, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query card by link '%s': %w", link, err)
	}
	return decodeCard(doc)
}

// ListByOwner returns the owner's cards, newest first.
func (r *firestoreCardRepository) ListByOwner(ctx context.Context, ownerUID string) ([]*models.Card, error) {
	if ownerUID == "" {
		return nil, errors.New("ownerUID cannot be empty for ListByOwner operation")
	}
	iter := r.client.Collection(cardsCollection).
		Where("ownerUid", "==", ownerUID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	cards := []*models.Card{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate cards for owner '%s': %w", ownerUID, err)
		}
		card, err := decodeCard(doc)
		if err != nil {
			log.Printf("Skipping undecodable card %s for owner '%s': %v", doc.Ref.ID, ownerUID, err)
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Update replaces the stored card, refusing a link that another card already uses.
func (r *firestoreCardRepository) Update(ctx context.Context, card *models.Card) error {
	if card.ID == "" {
		return errors.New("card ID cannot be empty for Update operation")
	}
	ref := r.client.Collection(cardsCollection).Doc(card.ID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("card with ID '%s' not found: %w", card.ID, ErrNotFound)
			}
			return fmt.Errorf("failed to read card '%s': %w", card.ID, err)
		}
		docs, err := tx.Documents(r.client.Collection(cardsCollection).
			Where("cardLink", "==", card.CardLink).Limit(2)).GetAll()
		if err != nil {
			return fmt.Errorf("failed to check card link '%s': %w", card.CardLink, err)
		}
		for _, d := range docs {
			if d.Ref.ID != card.ID {
				return fmt.Errorf("card link '%s' is already in use: %w", card.CardLink, ErrAlreadyExists)
			}
		}
		if err := r.checkLinkShadowsID(tx, card); err != nil {
			return err
		}
		return tx.Set(ref, card)
	})
}

// checkLinkShadowsID refuses a single-segment link equal to another card's
// document ID. Resolution tries links before IDs, so such a link would hide
// the other card.
func (r *firestoreCardRepository) checkLinkShadowsID(tx *firestore.Transaction, card *models.Card) error {
	if card.CardLink == "" || card.CardLink == card.ID || strings.Contains(card.CardLink, "/") {
		return nil
	}
	_, err := tx.Get(r.client.Collection(cardsCollection).Doc(card.CardLink))
	switch {
	case status.Code(err) == codes.NotFound:
		return nil
	case err != nil:
		return fmt.Errorf("failed to check card link '%s' against card IDs: %w", card.CardLink, err)
	default:
		return fmt.Errorf("card link '%s' is another card's ID: %w", card.CardLink, ErrAlreadyExists)
	}
}

// Delete removes a card document. The owner's cardsCreated counter is left as is.
func (r *firestoreCardRepository) Delete(ctx context.Context, cardID string) error {
	if cardID == "" {
		return errors.New("cardID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(cardsCollection).Doc(cardID).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("card with ID '%s' not found for deletion: %w", cardID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete card with ID '%s': %w", cardID, err)
	}
	return nil
}

func decodeCard(snap *firestore.DocumentSnapshot) (*models.Card, error) {
	var card models.Card
	if err := snap.DataTo(&card); err != nil {
		return nil, fmt.Errorf("failed to decode card data for ID '%s': %w", snap.Ref.ID, err)
	}
	card.ID = snap.Ref.ID
	return &card, nil
}
