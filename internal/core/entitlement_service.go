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

// Presentation defaults applied to new cards.
const (
	DefaultBannerColor = "#2563eb"
	DefaultLayout      = models.LayoutMinimal
	DefaultFontStyle   = "basic"
)

type entitlementService struct {
	cards  db.CardRepository
	plans  *config.PlanCatalog
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewEntitlementService creates the card creation gate.
func NewEntitlementService(cards db.CardRepository, plans *config.PlanCatalog, events EventPublisher, logger *zap.Logger) EntitlementService {
	return &entitlementService{
		cards:  cards,
		plans:  plans,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CheckCardEntitlement is the decision rule for one more card under sub.
// The ceiling check comes first; plan features are checked only when the
// ceiling admits the card.
func CheckCardEntitlement(sub *models.Subscription, card *models.Card) error {
	if !sub.Unlimited() && sub.CardsCreated >= sub.MaxCards {
		return &QuotaError{Plan: sub.Plan, Ceiling: sub.MaxCards, Used: sub.CardsCreated}
	}
	return checkPlanFeatures(sub, card.Layout, card.CardSkin)
}

func checkPlanFeatures(sub *models.Subscription, layout, skin string) error {
	if models.PremiumLayouts[layout] && !sub.Features.PremiumLayouts {
		return &FeatureError{Plan: sub.Plan, Feature: "the " + layout + " layout"}
	}
	if skin != "" && !sub.Features.CustomTheme {
		return &FeatureError{Plan: sub.Plan, Feature: "a custom card skin"}
	}
	return nil
}

// newSubscription builds a fresh record for plan with a zero counter.
func newSubscription(uid string, plan config.Plan, now time.Time) *models.Subscription {
	return &models.Subscription{
		UID:       uid,
		Plan:      plan.ID,
		MaxCards:  plan.MaxCards,
		Features:  plan.Features,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *entitlementService) CreateCard(ctx context.Context, userID string, req models.CreateCardRequest) (*models.Card, error) {
	if userID == "" {
		return nil, errors.New("entitlementService: user ID cannot be empty")
	}

	now := s.now()
	card, err := buildCard(userID, req, now)
	if err != nil {
		return nil, err
	}

	sub, err := s.cards.CreateWithQuota(ctx, card,
		func() *models.Subscription { return newSubscription(userID, s.plans.Free(), now) },
		func(sub *models.Subscription) error { return CheckCardEntitlement(sub, card) },
	)
	if err != nil {
		var quotaErr *QuotaError
		var featureErr *FeatureError
		switch {
		case errors.As(err, &quotaErr), errors.As(err, &featureErr):
			return nil, err
		case errors.Is(err, db.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: %s", ErrLinkTaken, card.CardLink)
		default:
			return nil, fmt.Errorf("failed to create card for user '%s': %w", userID, err)
		}
	}

	s.logger.Debug("Card created",
		zap.String("userID", userID),
		zap.String("cardID", card.ID),
		zap.String("plan", sub.Plan),
		zap.Int("cardsCreated", sub.CardsCreated))
	s.events.Publish(ctx, Event{Type: EventCardCreated, UserID: userID, CardID: card.ID, CardLink: card.CardLink, Plan: sub.Plan, OccurredAt: now})
	return card, nil
}

// buildCard validates req and applies presentation defaults. Nothing is
// persisted before it succeeds.
func buildCard(ownerUID string, req models.CreateCardRequest, now time.Time) (*models.Card, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	link := NormalizeLink(req.CardLink)
	if link != "" {
		if err := ValidateLink(link); err != nil {
			return nil, err
		}
	}

	banner := models.Banner{Type: models.BannerTypeColor, Value: DefaultBannerColor}
	if req.Banner != nil {
		b, err := toBanner(*req.Banner)
		if err != nil {
			return nil, err
		}
		banner = b
	}

	card := &models.Card{
		OwnerUID:    ownerUID,
		CardLink:    link,
		IsActive:    true,
		FullName:    req.FullName,
		Designation: req.Designation,
		Company:     req.Company,
		Bio:         req.Bio,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		ProfileURL:  req.ProfileURL,
		LinkedIn:    req.LinkedIn,
		Twitter:     req.Twitter,
		Instagram:   req.Instagram,
		Facebook:    req.Facebook,
		Banner:      banner,
		Layout:      orDefault(req.Layout, DefaultLayout),
		FontStyle:   orDefault(req.FontStyle, DefaultFontStyle),
		CardSkin:    req.CardSkin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		card.IsActive = *req.IsActive
	}
	return card, nil
}

func toBanner(req models.BannerRequest) (models.Banner, error) {
	if err := validateStruct(req); err != nil {
		return models.Banner{}, err
	}
	rule := "hexcolor"
	if req.Type == models.BannerTypeImage {
		rule = "url"
	}
	if err := validate.Var(req.Value, rule); err != nil {
		return models.Banner{}, validationErr("banner value %q is not a valid %s", req.Value, req.Type)
	}
	return models.Banner{Type: req.Type, Value: req.Value}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
