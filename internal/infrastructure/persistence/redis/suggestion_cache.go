package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/pkg/circuitbreaker"
)

// DefaultSuggestionTTL bounds how long a cached list may be served.
const DefaultSuggestionTTL = time.Minute

const generationKey = PrefixSuggestions + "generation"

// SuggestionCache stores suggestion lists per seeking mentorship. Every
// committed lifecycle change bumps a single generation counter; lists cached
// under an older generation are never read again and expire on their own.
type SuggestionCache struct {
	cache   *Cache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

// NewSuggestionCache creates a new SuggestionCache.
func NewSuggestionCache(cache *Cache, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = DefaultSuggestionTTL
	}
	return &SuggestionCache{cache: cache, ttl: ttl}
}

// WithBreaker guards Load and Store with cb: while it is open they fail
// immediately with circuitbreaker.ErrOpen and the caller computes instead.
// Invalidate always reaches Redis.
func (s *SuggestionCache) WithBreaker(cb *circuitbreaker.CircuitBreaker) *SuggestionCache {
	s.breaker = cb
	return s
}

func (s *SuggestionCache) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Execute(ctx, fn)
}

// SuggestionKey builds the key for one mentorship under one generation.
func SuggestionKey(generation int64, mentorshipID string) string {
	return fmt.Sprintf("%s%d:%s", PrefixSuggestions, generation, mentorshipID)
}

// Load reads the cached list into dest. It returns the generation the lookup
// ran against; callers pass it back to Store so a list computed before an
// invalidation is filed under the old generation.
func (s *SuggestionCache) Load(ctx context.Context, mentorshipID string, dest interface{}) (int64, bool, error) {
	var (
		gen int64
		hit bool
	)
	err := s.guard(ctx, func(ctx context.Context) error {
		var err error
		gen, err = s.cache.GetInt64(ctx, generationKey)
		if err != nil {
			return err
		}

		err = s.cache.Get(ctx, SuggestionKey(gen, mentorshipID), dest)
		if errors.Is(err, ErrCacheMiss) {
			return nil
		}
		if err != nil {
			return err
		}
		hit = true
		return nil
	})
	if err != nil {
		return gen, false, err
	}
	return gen, hit, nil
}

// Store caches a list under the given generation.
func (s *SuggestionCache) Store(ctx context.Context, generation int64, mentorshipID string, value interface{}) error {
	return s.guard(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, SuggestionKey(generation, mentorshipID), value, s.ttl)
	})
}

// Invalidate drops every cached list by moving to a new generation.
func (s *SuggestionCache) Invalidate(ctx context.Context) error {
	_, err := s.cache.Incr(ctx, generationKey)
	return err
}

// OnCollaborationEvent is the event bus subscriber. Any proposal or decision
// changes the exclusion set of both sides, so the whole cache is invalidated.
func (s *SuggestionCache) OnCollaborationEvent(ctx context.Context, _ shared.Event) error {
	return s.Invalidate(ctx)
}
