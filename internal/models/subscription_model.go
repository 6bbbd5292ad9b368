package models

import "time"

// Plan tiers.
const (
	PlanFree    = "FREE"
	PlanPro     = "PRO"
	PlanPremium = "PREMIUM"
)

// UnlimitedCards is the MaxCards value of a tier without a ceiling.
const UnlimitedCards = -1

// PlanFeatures toggles presentation features per tier.
type PlanFeatures struct {
	CustomTheme    bool `json:"customTheme" firestore:"customTheme" yaml:"customTheme"`
	Analytics      bool `json:"analytics" firestore:"analytics" yaml:"analytics"`
	RemoveBranding bool `json:"removeBranding" firestore:"removeBranding" yaml:"removeBranding"`
	PremiumLayouts bool `json:"premiumLayouts" firestore:"premiumLayouts" yaml:"premiumLayouts"`
}

// Subscription is keyed by the owning user's UID (subscriptions/{uid}).
type Subscription struct {
	UID          string       `json:"uid" firestore:"uid"`
	Plan         string       `json:"plan" firestore:"plan"`
	MaxCards     int          `json:"maxCards" firestore:"maxCards"`
	CardsCreated int          `json:"cardsCreated" firestore:"cardsCreated"`
	PendingPlan  string       `json:"pendingPlan,omitempty" firestore:"pendingPlan,omitempty"`
	Features     PlanFeatures `json:"features" firestore:"features"`
	CreatedAt    time.Time    `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" firestore:"updatedAt"`
}

// Unlimited reports whether the subscription has no card ceiling.
func (s *Subscription) Unlimited() bool {
	return s.MaxCards < 0
}
