package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tapcard-backend/internal/db"
	"tapcard-backend/internal/models"
	"tapcard-backend/pkg/cache"
)

const (
	resolverCachePrefix = "card:link:"
	generationStripes   = 256
)

type resolverService struct {
	cards  db.CardRepository
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger

	// generations is bumped for a link's stripe on every invalidation. A
	// lookup only keeps its cache fill if the stripe did not move while it
	// was reading the store.
	generations [generationStripes]atomic.Uint64
}

// NewResolverService creates the public link resolver. c may be nil, in which
// case every lookup goes to the store.
func NewResolverService(cards db.CardRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ResolverService {
	return &resolverService{cards: cards, cache: c, ttl: ttl, logger: logger}
}

// Resolve matches link against the cardLink field first and falls back to
// the document ID. Unknown and inactive cards both yield ErrCardNotFound;
// store failures are returned wrapped and never reported as not found.
func (s *resolverService) Resolve(ctx context.Context, link string) (*models.Card, error) {
	link = NormalizeLink(link)
	if link == "" || len(link) > maxLinkLength {
		return nil, ErrCardNotFound
	}

	if card, ok := s.fromCache(ctx, link); ok {
		return card, nil
	}

	// The shared lookup must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(link, func() (any, error) {
		return s.lookup(shared, link)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		card := *res.Val.(*models.Card)
		return &card, nil
	}
}

func (s *resolverService) lookup(ctx context.Context, link string) (*models.Card, error) {
	gen := s.generation(link)
	card, err := s.cards.FindByLink(ctx, link)
	if errors.Is(err, db.ErrNotFound) && !strings.Contains(link, "/") {
		card, err = s.cards.GetByID(ctx, link)
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("resolving card link '%s': %w", link, err)
	}
	if !card.IsActive {
		return nil, ErrCardNotFound
	}
	s.fillCache(ctx, link, card, gen)
	return card, nil
}

func (s *resolverService) stripe(link string) *atomic.Uint64 {
	h := fnv.New32a()
	h.Write([]byte(link))
	return &s.generations[h.Sum32()%generationStripes]
}

func (s *resolverService) generation(link string) uint64 {
	return s.stripe(link).Load()
}

// fillCache stores card unless link was invalidated after gen was taken.
// The generation is checked again after the write: an invalidation that
// lands between the first check and the write bumps the stripe before it
// deletes, so one of the two deletes always runs after the write.
func (s *resolverService) fillCache(ctx context.Context, link string, card *models.Card, gen uint64) {
	if s.generation(link) != gen {
		return
	}
	s.toCache(ctx, link, card)
	if s.generation(link) != gen {
		s.dropCached(ctx, resolverCachePrefix+link)
	}
}

func (s *resolverService) fromCache(ctx context.Context, link string) (*models.Card, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, resolverCachePrefix+link)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Card cache read failed", zap.String("link", link), zap.Error(err))
		}
		return nil, false
	}
	var card models.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		s.logger.Warn("Dropping undecodable cached card", zap.String("link", link), zap.Error(err))
		s.Invalidate(ctx, link)
		return nil, false
	}
	return &card, true
}

func (s *resolverService) toCache(ctx context.Context, link string, card *models.Card) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(card)
	if err != nil {
		s.logger.Warn("Failed to encode card for cache", zap.String("link", link), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, resolverCachePrefix+link, raw, s.ttl); err != nil {
		s.logger.Warn("Card cache write failed", zap.String("link", link), zap.Error(err))
	}
}

func (s *resolverService) Invalidate(ctx context.Context, keys ...string) {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = NormalizeLink(k); k != "" {
			s.stripe(k).Add(1)
			s.group.Forget(k)
			full = append(full, resolverCachePrefix+k)
		}
	}
	if len(full) == 0 {
		return
	}
	s.dropCached(ctx, full...)
}

func (s *resolverService) dropCached(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Card cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
