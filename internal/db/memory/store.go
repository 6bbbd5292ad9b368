// Package memory provides mutex guarded in-process implementations of the
// db repository interfaces. The card creation path holds the store lock for
// its whole read-check-write sequence, mirroring the Firestore transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tapcard-backend/internal/db"
	"tapcard-backend/internal/models"
)

// Store holds every collection behind one lock.
type Store struct {
	mu            sync.RWMutex
	users         map[string]models.User
	subscriptions map[string]models.Subscription
	cards         map[string]models.Card
	scanned       map[string]map[string]models.ScannedCard

	cardWriteErr error
	now          func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[string]models.User),
		subscriptions: make(map[string]models.Subscription),
		cards:         make(map[string]models.Card),
		scanned:       make(map[string]map[string]models.ScannedCard),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// FailCardWrites makes every subsequent card create or update fail with err.
// Pass nil to restore normal behaviour.
func (s *Store) FailCardWrites(err error) {
	s.mu.Lock()
	s.cardWriteErr = err
	s.mu.Unlock()
}

// CardCount returns the number of stored cards.
func (s *Store) CardCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Users returns the store as a db.UserRepository.
func (s *Store) Users() db.UserRepository { return userRepo{s} }

// Subscriptions returns the store as a db.SubscriptionRepository.
func (s *Store) Subscriptions() db.SubscriptionRepository { return subscriptionRepo{s} }

// Cards returns the store as a db.CardRepository.
func (s *Store) Cards() db.CardRepository { return cardRepo{s} }

// ScannedCards returns the store as a db.ScannedCardRepository.
func (s *Store) ScannedCards() db.ScannedCardRepository { return scannedRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, db.ErrNotFound)
	}
	return &u, nil
}

func (r userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; ok {
		return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, db.ErrAlreadyExists)
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

type subscriptionRepo struct{ s *Store }

func (r subscriptionRepo) GetByUID(_ context.Context, uid string) (*models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subscriptions[uid]
	if !ok {
		return nil, fmt.Errorf("subscription for user '%s' not found: %w", uid, db.ErrNotFound)
	}
	return &sub, nil
}

func (r subscriptionRepo) Create(_ context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subscriptions[sub.UID]; ok {
		return fmt.Errorf("subscription for user '%s' already exists: %w", sub.UID, db.ErrAlreadyExists)
	}
	r.s.subscriptions[sub.UID] = *sub
	return nil
}

func (r subscriptionRepo) SetPlan(_ context.Context, uid, plan string, maxCards int, features models.PlanFeatures) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscriptions[uid]
	if !ok {
		return fmt.Errorf("subscription for user '%s' not found: %w", uid, db.ErrNotFound)
	}
	sub.Plan = plan
	sub.MaxCards = maxCards
	sub.Features = features
	sub.PendingPlan = ""
	sub.UpdatedAt = r.s.now()
	r.s.subscriptions[uid] = sub
	return nil
}

func (r subscriptionRepo) SetPendingPlan(_ context.Context, uid, plan string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscriptions[uid]
	if !ok {
		return fmt.Errorf("subscription for user '%s' not found: %w", uid, db.ErrNotFound)
	}
	sub.PendingPlan = plan
	sub.UpdatedAt = r.s.now()
	r.s.subscriptions[uid] = sub
	return nil
}

type cardRepo struct{ s *Store }

func (r cardRepo) CreateWithQuota(_ context.Context, card *models.Card, provision db.ProvisionFunc, admit db.AdmitFunc) (*models.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subscriptions[card.OwnerUID]
	if !ok {
		p := provision()
		if p == nil {
			return nil, fmt.Errorf("subscription provisioning returned nothing")
		}
		sub = *p
		sub.UID = card.OwnerUID
	}
	if err := admit(&sub); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	link := card.CardLink
	if link == "" {
		link = id
	}
	if r.linkTakenLocked(link, "") {
		return nil, fmt.Errorf("card link '%s' is already in use: %w", link, db.ErrAlreadyExists)
	}
	if r.s.cardWriteErr != nil {
		return nil, fmt.Errorf("failed to create card: %w", r.s.cardWriteErr)
	}

	card.ID = id
	card.CardLink = link
	r.s.cards[id] = *card

	sub.CardsCreated++
	sub.UpdatedAt = r.s.now()
	r.s.subscriptions[card.OwnerUID] = sub
	out := sub
	return &out, nil
}

func (r cardRepo) linkTakenLocked(link, exceptID string) bool {
	for id, c := range r.s.cards {
		if id != exceptID && (c.CardLink == link || id == link) {
			return true
		}
	}
	return false
}

func (r cardRepo) GetByID(_ context.Context, cardID string) (*models.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cards[cardID]
	if !ok {
		return nil, fmt.Errorf("card with ID '%s' not found: %w", cardID, db.ErrNotFound)
	}
	return &c, nil
}

func (r cardRepo) FindByLink(_ context.Context, link string) (*models.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.cards {
		if c.CardLink == link {
			found := c
			return &found, nil
		}
	}
	return nil, fmt.Errorf("card with link '%s' not found: %w", link, db.ErrNotFound)
}

func (r cardRepo) ListByOwner(_ context.Context, ownerUID string) ([]*models.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cards := []*models.Card{}
	for _, c := range r.s.cards {
		if c.OwnerUID == ownerUID {
			found := c
			cards = append(cards, &found)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.After(cards[j].CreatedAt) })
	return cards, nil
}

func (r cardRepo) Update(_ context.Context, card *models.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cards[card.ID]; !ok {
		return fmt.Errorf("card with ID '%s' not found: %w", card.ID, db.ErrNotFound)
	}
	if r.linkTakenLocked(card.CardLink, card.ID) {
		return fmt.Errorf("card link '%s' is already in use: %w", card.CardLink, db.ErrAlreadyExists)
	}
	if r.s.cardWriteErr != nil {
		return fmt.Errorf("failed to update card: %w", r.s.cardWriteErr)
	}
	r.s.cards[card.ID] = *card
	return nil
}

func (r cardRepo) Delete(_ context.Context, cardID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cards[cardID]; !ok {
		return fmt.Errorf("card with ID '%s' not found for deletion: %w", cardID, db.ErrNotFound)
	}
	delete(r.s.cards, cardID)
	return nil
}

type scannedRepo struct{ s *Store }

func (r scannedRepo) Upsert(_ context.Context, viewerUID string, entry *models.ScannedCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wallet, ok := r.s.scanned[viewerUID]
	if !ok {
		wallet = make(map[string]models.ScannedCard)
		r.s.scanned[viewerUID] = wallet
	}
	wallet[db.ScannedDocID(entry.CardLink)] = *entry
	return nil
}

func (r scannedRepo) Get(_ context.Context, viewerUID, cardLink string) (*models.ScannedCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entry, ok := r.s.scanned[viewerUID][db.ScannedDocID(cardLink)]
	if !ok {
		return nil, fmt.Errorf("scanned card '%s' for viewer '%s' not found: %w", cardLink, viewerUID, db.ErrNotFound)
	}
	return &entry, nil
}

func (r scannedRepo) ListByViewer(_ context.Context, viewerUID string) ([]*models.ScannedCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := []*models.ScannedCard{}
	for _, e := range r.s.scanned[viewerUID] {
		found := e
		entries = append(entries, &found)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ScannedAt.After(entries[j].ScannedAt) })
	return entries, nil
}
