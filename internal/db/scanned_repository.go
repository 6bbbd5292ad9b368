package db

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tapcard-backend/internal/models"
)

const (
	scannedCollection      = "scanned"
	scannedCardsCollection = "cards"
)

type firestoreScannedCardRepository struct {
	client *firestore.Client
}

// NewFirestoreScannedCardRepository creates a ScannedCardRepository backed by Firestore.
func NewFirestoreScannedCardRepository(client *firestore.Client) ScannedCardRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ScannedCardRepository.")
	}
	return &firestoreScannedCardRepository{client: client}
}

// ScannedDocID maps a card link to a document ID. Links may contain "/",
// which Firestore treats as a path separator.
func ScannedDocID(cardLink string) string {
	return url.PathEscape(cardLink)
}

func (r *firestoreScannedCardRepository) entries(viewerUID string) *firestore.CollectionRef {
	return r.client.Collection(scannedCollection).Doc(viewerUID).Collection(scannedCardsCollection)
}

func (r *firestoreScannedCardRepository) Upsert(ctx context.Context, viewerUID string, entry *models.ScannedCard) error {
	_, err := r.entries(viewerUID).Doc(ScannedDocID(entry.CardLink)).Set(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to save scanned card '%s' for viewer '%s': %w", entry.CardLink, viewerUID, err)
	}
	return nil
}

func (r *firestoreScannedCardRepository) Get(ctx context.Context, viewerUID, cardLink string) (*models.ScannedCard, error) {
	snap, err := r.entries(viewerUID).Doc(ScannedDocID(cardLink)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("scanned card '%s' for viewer '%s' not found: %w", cardLink, viewerUID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scanned card '%s': %w", cardLink, err)
	}
	var entry models.ScannedCard
	if err := snap.DataTo(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode scanned card '%s': %w", cardLink, err)
	}
	return &entry, nil
}

// ListByViewer returns the viewer's wallet, most recently saved first.
func (r *firestoreScannedCardRepository) ListByViewer(ctx context.Context, viewerUID string) ([]*models.ScannedCard, error) {
	iter := r.entries(viewerUID).OrderBy("scannedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	entries := []*models.ScannedCard{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate scanned cards for viewer '%s': %w", viewerUID, err)
		}
		var entry models.ScannedCard
		if err := doc.DataTo(&entry); err != nil {
			log.Printf("Skipping undecodable scanned card %s for viewer '%s': %v", doc.Ref.ID, viewerUID, err)
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
