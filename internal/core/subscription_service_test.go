package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapcard-backend/internal/models"
)

func TestGetProvisionsFreeTier(t *testing.T) {
	env := newTestEnv(t)
	sub, err := env.subs.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.Equal(t, 5, sub.MaxCards)
	assert.Zero(t, sub.CardsCreated)

	again, err := env.subs.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, sub.CreatedAt, again.CreatedAt)
}

func TestPlansSortedByPrice(t *testing.T) {
	env := newTestEnv(t)
	plans := env.subs.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, models.PlanFree, plans[0].ID)
	assert.Equal(t, models.PlanPro, plans[1].ID)
	assert.Equal(t, models.PlanPremium, plans[2].ID)
}

func TestSelectPaidPlanRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub, requiresPayment, err := env.subs.SelectPlan(ctx, "alice", "pro")
	require.NoError(t, err)
	assert.True(t, requiresPayment)
	assert.Equal(t, models.PlanFree, sub.Plan, "plan does not change before payment")
	assert.Equal(t, models.PlanPro, sub.PendingPlan)

	_, err = env.subs.ConfirmPayment(ctx, "alice", models.PlanPremium)
	assert.ErrorIs(t, err, ErrNoPendingPlan)

	sub, err = env.subs.ConfirmPayment(ctx, "alice", models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Equal(t, 10, sub.MaxCards)
	assert.True(t, sub.Features.PremiumLayouts)
	assert.Empty(t, sub.PendingPlan)

	_, err = env.subs.ConfirmPayment(ctx, "alice", models.PlanPro)
	assert.ErrorIs(t, err, ErrNoPendingPlan, "a confirmation cannot be replayed")
}

func TestSelectFreePlanAppliesImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.subs.SetPlan(ctx, "alice", models.PlanPremium)
	require.NoError(t, err)

	sub, requiresPayment, err := env.subs.SelectPlan(ctx, "alice", models.PlanFree)
	require.NoError(t, err)
	assert.False(t, requiresPayment)
	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.Equal(t, 5, sub.MaxCards)
	assert.False(t, sub.Features.CustomTheme)
}

func TestUnknownPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.subs.SelectPlan(ctx, "alice", "GOLD")
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = env.subs.ConfirmPayment(ctx, "alice", "GOLD")
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = env.subs.SetPlan(ctx, "alice", "GOLD")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanChangeKeepsUsageCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCard(t, "alice", models.CreateCardRequest{FullName: "One"})
	env.createCard(t, "alice", models.CreateCardRequest{FullName: "Two"})

	sub, err := env.subs.SetPlan(ctx, "alice", models.PlanPremium)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.CardsCreated)
	assert.True(t, sub.Unlimited())
	assert.Contains(t, env.events.types(), EventSubscriptionChanged)
}
