package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/db/memory"
	"tapcard-backend/internal/models"
	"tapcard-backend/pkg/cache"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	store    *memory.Store
	plans    *config.PlanCatalog
	events   *recordingPublisher
	clock    *fakeClock
	resolver ResolverService
	gate     EntitlementService
	cards    CardService
	subs     SubscriptionService
	wallet   WalletService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	plans := config.DefaultPlanCatalog()
	events := &recordingPublisher{}
	clock := newFakeClock()
	logger := zap.NewNop()

	lc, err := cache.NewLRUCache(64)
	require.NoError(t, err)

	resolver := NewResolverService(store.Cards(), lc, time.Minute, logger)
	share := NewShareBuilder("https://cards.example.com", "https://api.qrserver.com/v1/create-qr-code/", 300)

	gate := NewEntitlementService(store.Cards(), plans, events, logger)
	gate.(*entitlementService).now = clock.Now

	cards := NewCardService(store.Cards(), store.Subscriptions(), plans, resolver, share, events, logger)
	cards.(*cardService).now = clock.Now

	subs := NewSubscriptionService(store.Subscriptions(), plans, events, logger)
	subs.(*subscriptionService).now = clock.Now

	wallet := NewWalletService(store.ScannedCards(), resolver, events, logger)
	wallet.(*walletService).now = clock.Now

	return &testEnv{
		store:    store,
		plans:    plans,
		events:   events,
		clock:    clock,
		resolver: resolver,
		gate:     gate,
		cards:    cards,
		subs:     subs,
		wallet:   wallet,
	}
}

func (e *testEnv) createCard(t *testing.T, uid string, req models.CreateCardRequest) *models.Card {
	t.Helper()
	card, err := e.gate.CreateCard(context.Background(), uid, req)
	require.NoError(t, err)
	return card
}

func (e *testEnv) subscription(t *testing.T, uid string) *models.Subscription {
	t.Helper()
	sub, err := e.store.Subscriptions().GetByUID(context.Background(), uid)
	require.NoError(t, err)
	return sub
}

func strPtr(s string) *string { return &s }
