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

type subscriptionService struct {
	subs   db.SubscriptionRepository
	plans  *config.PlanCatalog
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewSubscriptionService creates a SubscriptionService over the plan catalog.
func NewSubscriptionService(subs db.SubscriptionRepository, plans *config.PlanCatalog, events EventPublisher, logger *zap.Logger) SubscriptionService {
	return &subscriptionService{
		subs:   subs,
		plans:  plans,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ensureSubscription returns the user's subscription, provisioning the free
// tier when none exists. A concurrent provisioner winning the race is fine.
func ensureSubscription(ctx context.Context, subs db.SubscriptionRepository, plans *config.PlanCatalog, uid string, now time.Time) (*models.Subscription, error) {
	sub, err := subs.GetByUID(ctx, uid)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to load subscription for user '%s': %w", uid, err)
	}

	fresh := newSubscription(uid, plans.Free(), now)
	if err := subs.Create(ctx, fresh); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return subs.GetByUID(ctx, uid)
		}
		return nil, fmt.Errorf("failed to provision subscription for user '%s': %w", uid, err)
	}
	return fresh, nil
}

func (s *subscriptionService) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	return ensureSubscription(ctx, s.subs, s.plans, userID, s.now())
}

func (s *subscriptionService) Plans() []config.Plan {
	return s.plans.All()
}

func (s *subscriptionService) SelectPlan(ctx context.Context, userID, planID string) (*models.Subscription, bool, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	if _, err := ensureSubscription(ctx, s.subs, s.plans, userID, s.now()); err != nil {
		return nil, false, err
	}

	if !plan.PaymentRequired() {
		sub, err := s.apply(ctx, userID, plan)
		return sub, false, err
	}

	if err := s.subs.SetPendingPlan(ctx, userID, plan.ID); err != nil {
		return nil, false, fmt.Errorf("failed to set pending plan for user '%s': %w", userID, err)
	}
	sub, err := s.subs.GetByUID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload subscription for user '%s': %w", userID, err)
	}
	return sub, true, nil
}

// ConfirmPayment applies a paid plan previously chosen with SelectPlan.
// Payment verification belongs to the payment provider integration.
func (s *subscriptionService) ConfirmPayment(ctx context.Context, userID, planID string) (*models.Subscription, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	sub, err := ensureSubscription(ctx, s.subs, s.plans, userID, s.now())
	if err != nil {
		return nil, err
	}
	if sub.PendingPlan != plan.ID {
		return nil, fmt.Errorf("%w: requested %s, pending %q", ErrNoPendingPlan, plan.ID, sub.PendingPlan)
	}
	return s.apply(ctx, userID, plan)
}

func (s *subscriptionService) SetPlan(ctx context.Context, userID, planID string) (*models.Subscription, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	if _, err := ensureSubscription(ctx, s.subs, s.plans, userID, s.now()); err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, plan)
}

// apply switches the tier. cardsCreated is never touched: a lower ceiling
// only blocks future creations.
func (s *subscriptionService) apply(ctx context.Context, userID string, plan config.Plan) (*models.Subscription, error) {
	if err := s.subs.SetPlan(ctx, userID, plan.ID, plan.MaxCards, plan.Features); err != nil {
		return nil, fmt.Errorf("failed to apply plan %s for user '%s': %w", plan.ID, userID, err)
	}
	sub, err := s.subs.GetByUID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload subscription for user '%s': %w", userID, err)
	}
	s.logger.Info("Subscription plan changed", zap.String("userID", userID), zap.String("plan", plan.ID))
	s.events.Publish(ctx, Event{Type: EventSubscriptionChanged, UserID: userID, Plan: plan.ID, OccurredAt: s.now()})
	return sub, nil
}
