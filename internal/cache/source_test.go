package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
)

type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return raw, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingSource struct {
	calls map[string]int
	err   error
}

func (c *countingSource) hit(op string) {
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[op]++
}

func (c *countingSource) Teams(context.Context, string) ([]leaderboard.Team, error) {
	c.hit("teams")
	return []leaderboard.Team{{ID: "t-1", Name: "Team Rocket"}}, c.err
}

func (c *countingSource) Goal(context.Context, string) (leaderboard.Goal, error) {
	c.hit("goal")
	return leaderboard.Goal{Distance: 5000, Progress: 12, StartDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}, c.err
}

func (c *countingSource) Leaderboard(context.Context, string) ([]leaderboard.Member, error) {
	c.hit("leaderboard")
	return []leaderboard.Member{{ID: "m1", Rank: 1, DistanceKm: 10}}, c.err
}

func (c *countingSource) Feed(context.Context, string) ([]leaderboard.Activity, error) {
	c.hit("feed")
	return []leaderboard.Activity{{Type: "run", Distance: 5, Duration: 30 * time.Minute, MemberID: "m1"}}, c.err
}

func TestSourceReadThrough(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{}
	store := newMemStore()
	src := NewSource(upstream, store, time.Minute, nil)

	for i := 0; i < 3; i++ {
		feed, err := src.Feed(ctx, "t-1")
		require.NoError(t, err)
		require.Len(t, feed, 1)
		require.Equal(t, 30*time.Minute, feed[0].Duration)

		goal, err := src.Goal(ctx, "t-1")
		require.NoError(t, err)
		require.True(t, goal.StartDate.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	}
	require.Equal(t, 1, upstream.calls["feed"])
	require.Equal(t, 1, upstream.calls["goal"])
	require.Contains(t, store.data, "raa:feed:t-1")
	require.Equal(t, time.Minute, store.ttls["raa:feed:t-1"])
}

func TestSourceFallsThroughOnCacheFaults(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{}
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	src := NewSource(upstream, store, 0, nil)

	for i := 0; i < 2; i++ {
		members, err := src.Leaderboard(ctx, "t-1")
		require.NoError(t, err)
		require.Equal(t, "m1", members[0].ID)
	}
	require.Equal(t, 2, upstream.calls["leaderboard"])
}

func TestSourceDiscardsCorruptEntries(t *testing.T) {
	upstream := &countingSource{}
	store := newMemStore()
	store.data[Key("teams", "u-1")] = []byte("{not json")
	src := NewSource(upstream, store, 0, nil)

	teams, err := src.Teams(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "Team Rocket", teams[0].Name)
	require.Equal(t, DefaultTTL, store.ttls[Key("teams", "u-1")])
}

func TestSourceDoesNotCacheErrors(t *testing.T) {
	upstream := &countingSource{err: errors.New("503")}
	store := newMemStore()
	src := NewSource(upstream, store, 0, nil)

	_, err := src.Feed(context.Background(), "t-1")
	require.Error(t, err)
	require.Empty(t, store.data)
}
