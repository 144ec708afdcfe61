package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

// DefaultTTL bounds how stale a cached upstream response may be.
const DefaultTTL = 5 * time.Minute

// Source decorates a recap.Source with a read-through cache. Cache faults
// are logged and the upstream is used directly.
type Source struct {
	next   recap.Source
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

var _ recap.Source = (*Source)(nil)

// NewSource wraps next. A non-positive ttl selects DefaultTTL.
func NewSource(next recap.Source, store Store, ttl time.Duration, logger *zap.Logger) *Source {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{next: next, store: store, ttl: ttl, logger: logger}
}

// Teams implements recap.Source.
func (s *Source) Teams(ctx context.Context, userID string) ([]leaderboard.Team, error) {
	return readThrough(ctx, s, "teams", userID, func() ([]leaderboard.Team, error) {
		return s.next.Teams(ctx, userID)
	})
}

// Goal implements recap.Source.
func (s *Source) Goal(ctx context.Context, teamID string) (leaderboard.Goal, error) {
	return readThrough(ctx, s, "goal", teamID, func() (leaderboard.Goal, error) {
		return s.next.Goal(ctx, teamID)
	})
}

// Leaderboard implements recap.Source.
func (s *Source) Leaderboard(ctx context.Context, teamID string) ([]leaderboard.Member, error) {
	return readThrough(ctx, s, "leaderboard", teamID, func() ([]leaderboard.Member, error) {
		return s.next.Leaderboard(ctx, teamID)
	})
}

// Feed implements recap.Source.
func (s *Source) Feed(ctx context.Context, teamID string) ([]leaderboard.Activity, error) {
	return readThrough(ctx, s, "feed", teamID, func() ([]leaderboard.Activity, error) {
		return s.next.Feed(ctx, teamID)
	})
}

// Key returns the cache key for an upstream operation.
func Key(op, id string) string {
	return "raa:" + op + ":" + id
}

func readThrough[T any](ctx context.Context, s *Source, op, id string, fetch func() (T, error)) (T, error) {
	key := Key(op, id)
	logger := s.logger.With(zap.String("key", key))

	raw, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		logger.Warn("discarding undecodable cache entry")
	case !errors.Is(err, ErrMiss):
		logger.Warn("cache read failed", zap.Error(err))
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}

	if encoded, err := json.Marshal(value); err != nil {
		logger.Warn("cache encode failed", zap.Error(err))
	} else if err := s.store.Set(ctx, key, encoded, s.ttl); err != nil {
		logger.Warn("cache write failed", zap.Error(err))
	}
	return value, nil
}
