package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/db"
	"tapcard-backend/internal/models"
)

type cardService struct {
	cards    db.CardRepository
	subs     db.SubscriptionRepository
	plans    *config.PlanCatalog
	resolver ResolverService
	share    *ShareBuilder
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewCardService creates the owner-facing card service.
func NewCardService(
	cards db.CardRepository,
	subs db.SubscriptionRepository,
	plans *config.PlanCatalog,
	resolver ResolverService,
	share *ShareBuilder,
	events EventPublisher,
	logger *zap.Logger,
) CardService {
	return &cardService{
		cards:    cards,
		subs:     subs,
		plans:    plans,
		resolver: resolver,
		share:    share,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *cardService) ListMyCards(ctx context.Context, userID string) ([]*models.Card, error) {
	cards, err := s.cards.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for user '%s': %w", userID, err)
	}
	return cards, nil
}

// GetCard distinguishes a missing card (ErrCardNotFound) from one owned by
// someone else (ErrForbiddenAccess).
func (s *cardService) GetCard(ctx context.Context, userID, cardID string) (*models.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
		}
		return nil, fmt.Errorf("failed to get card '%s': %w", cardID, err)
	}
	if card.OwnerUID != userID {
		return nil, fmt.Errorf("%w: card '%s'", ErrForbiddenAccess, cardID)
	}
	return card, nil
}

// ownedCard reports foreign cards as missing, so mutations never reveal
// whether another user's card exists.
func (s *cardService) ownedCard(ctx context.Context, userID, cardID string) (*models.Card, error) {
	card, err := s.GetCard(ctx, userID, cardID)
	if errors.Is(err, ErrForbiddenAccess) {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	return card, err
}

func (s *cardService) UpdateCard(ctx context.Context, userID, cardID string, req models.UpdateCardRequest) (*models.Card, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	oldLink := card.CardLink

	if err := s.checkUpdateFeatures(ctx, userID, req); err != nil {
		return nil, err
	}
	if err := applyCardUpdate(card, req); err != nil {
		return nil, err
	}
	card.UpdatedAt = s.now()

	if err := s.cards.Update(ctx, card); err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: %s", ErrLinkTaken, card.CardLink)
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
		default:
			return nil, fmt.Errorf("failed to update card '%s': %w", cardID, err)
		}
	}

	s.resolver.Invalidate(ctx, oldLink, card.CardLink, card.ID)
	s.events.Publish(ctx, Event{Type: EventCardUpdated, UserID: userID, CardID: card.ID, CardLink: card.CardLink, OccurredAt: card.UpdatedAt})
	return card, nil
}

// checkUpdateFeatures gates only the presentation fields being changed, so a
// downgraded user can still edit cards that already use premium features.
func (s *cardService) checkUpdateFeatures(ctx context.Context, userID string, req models.UpdateCardRequest) error {
	if req.Layout == nil && req.CardSkin == nil {
		return nil
	}
	sub, err := s.subs.GetByUID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		sub = newSubscription(userID, s.plans.Free(), s.now())
	} else if err != nil {
		return fmt.Errorf("failed to load subscription for user '%s': %w", userID, err)
	}
	var layout, skin string
	if req.Layout != nil {
		layout = *req.Layout
	}
	if req.CardSkin != nil {
		skin = *req.CardSkin
	}
	return checkPlanFeatures(sub, layout, skin)
}

func applyCardUpdate(card *models.Card, req models.UpdateCardRequest) error {
	if req.CardLink != nil {
		link := NormalizeLink(*req.CardLink)
		if link == "" {
			link = card.ID
		} else if err := ValidateLink(link); err != nil {
			return err
		}
		card.CardLink = link
	}
	if req.Banner != nil {
		b, err := toBanner(*req.Banner)
		if err != nil {
			return err
		}
		card.Banner = b
	}
	setString(&card.FullName, req.FullName)
	setString(&card.Designation, req.Designation)
	setString(&card.Company, req.Company)
	setString(&card.Bio, req.Bio)
	setString(&card.Phone, req.Phone)
	setString(&card.Email, req.Email)
	setString(&card.Website, req.Website)
	setString(&card.ProfileURL, req.ProfileURL)
	setString(&card.LinkedIn, req.LinkedIn)
	setString(&card.Twitter, req.Twitter)
	setString(&card.Instagram, req.Instagram)
	setString(&card.Facebook, req.Facebook)
	setString(&card.Layout, req.Layout)
	setString(&card.FontStyle, req.FontStyle)
	setString(&card.CardSkin, req.CardSkin)
	if req.IsActive != nil {
		card.IsActive = *req.IsActive
	}
	if card.FullName == "" {
		return validationErr("fullName cannot be empty")
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// DeleteCard removes the card. The owner's cardsCreated counter is kept.
func (s *cardService) DeleteCard(ctx context.Context, userID, cardID string) error {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return err
	}
	if err := s.cards.Delete(ctx, cardID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
		}
		return fmt.Errorf("failed to delete card '%s': %w", cardID, err)
	}
	s.resolver.Invalidate(ctx, card.CardLink, card.ID)
	s.events.Publish(ctx, Event{Type: EventCardDeleted, UserID: userID, CardID: card.ID, CardLink: card.CardLink, OccurredAt: s.now()})
	return nil
}

func (s *cardService) ShareCard(ctx context.Context, userID, cardID string) (*SharePayload, error) {
	card, err := s.GetCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return s.share.Build(card.PublicLink()), nil
}
