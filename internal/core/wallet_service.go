package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tapcard-backend/internal/db"
	"tapcard-backend/internal/models"
)

type walletService struct {
	scanned  db.ScannedCardRepository
	resolver ResolverService
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewWalletService creates the viewer wallet service.
func NewWalletService(scanned db.ScannedCardRepository, resolver ResolverService, events EventPublisher, logger *zap.Logger) WalletService {
	return &walletService{
		scanned:  scanned,
		resolver: resolver,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Save bookmarks a resolvable public card. Saving the same link again only
// refreshes scannedAt.
func (s *walletService) Save(ctx context.Context, viewerUID, cardLink string) (*models.ScannedCard, error) {
	card, err := s.resolver.Resolve(ctx, cardLink)
	if err != nil {
		return nil, err
	}
	entry := &models.ScannedCard{
		CardLink:  NormalizeLink(cardLink),
		CardID:    card.ID,
		ScannedAt: s.now(),
	}
	if err := s.scanned.Upsert(ctx, viewerUID, entry); err != nil {
		return nil, fmt.Errorf("failed to save card '%s' to wallet: %w", entry.CardLink, err)
	}
	s.logger.Debug("Card saved to wallet", zap.String("viewerUID", viewerUID), zap.String("cardLink", entry.CardLink))
	s.events.Publish(ctx, Event{Type: EventWalletSaved, UserID: viewerUID, CardID: card.ID, CardLink: entry.CardLink, OccurredAt: entry.ScannedAt})
	return entry, nil
}

func (s *walletService) List(ctx context.Context, viewerUID string) ([]*models.ScannedCard, error) {
	entries, err := s.scanned.ListByViewer(ctx, viewerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet for viewer '%s': %w", viewerUID, err)
	}
	return entries, nil
}

// Get returns a saved entry together with the card's current content.
func (s *walletService) Get(ctx context.Context, viewerUID, cardLink string) (*models.ScannedCardView, error) {
	link := NormalizeLink(cardLink)
	entry, err := s.scanned.Get(ctx, viewerUID, link)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrScannedNotFound, link)
		}
		return nil, fmt.Errorf("failed to get wallet entry '%s': %w", link, err)
	}
	card, err := s.resolver.Resolve(ctx, entry.CardLink)
	if err != nil {
		return nil, err
	}
	return &models.ScannedCardView{Card: card, ScannedAt: entry.ScannedAt}, nil
}
