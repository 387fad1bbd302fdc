package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thinkhub/internal/model"
	"thinkhub/internal/service"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, s
}

func TestStatsCacheRoundTripAndTTL(t *testing.T) {
	client, s := setupRedis(t)
	c := NewStatsCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	due := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	in := &service.Stats{
		TotalProjects:     2,
		TotalTasks:        5,
		CompletedTasks:    3,
		UpcomingDeadlines: []service.Deadline{{ID: 7, Name: "Beta", Project: "Alpha", Date: due, Status: service.StatusAtRisk}},
	}
	require.NoError(t, c.Set(ctx, "u1", in))
	assert.True(t, s.Exists("dashboard:stats:u1"))

	out, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, out.TotalProjects)
	require.Len(t, out.UpcomingDeadlines, 1)
	assert.True(t, due.Equal(out.UpcomingDeadlines[0].Date))

	s.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatsCacheInvalidate(t *testing.T) {
	client, s := setupRedis(t)
	c := NewStatsCache(client, time.Minute)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, c.Set(ctx, id, &service.Stats{}))
	}
	require.NoError(t, c.Invalidate(ctx, "u1", "u2", "u1"))
	require.NoError(t, c.Invalidate(ctx))

	assert.False(t, s.Exists("dashboard:stats:u1"))
	assert.False(t, s.Exists("dashboard:stats:u2"))
	assert.True(t, s.Exists("dashboard:stats:u3"))
}

func TestStatsCacheCorruptEntryIsMiss(t *testing.T) {
	client, s := setupRedis(t)
	c := NewStatsCache(client, time.Minute)
	require.NoError(t, s.Set("dashboard:stats:u1", "{not json"))

	_, ok, err := c.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.Exists("dashboard:stats:u1"))
}

func TestStatsCacheRedisDown(t *testing.T) {
	client, s := setupRedis(t)
	c := NewStatsCache(client, time.Minute)
	s.Close()

	_, _, err := c.Get(context.Background(), "u1")
	assert.Error(t, err)
}

type countingDirectory struct {
	users map[string]model.UserSummary
	calls [][]string
	err   error
}

func (d *countingDirectory) Summaries(_ context.Context, ids []string) (map[string]model.UserSummary, error) {
	d.calls = append(d.calls, ids)
	if d.err != nil {
		return nil, d.err
	}
	out := map[string]model.UserSummary{}
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func TestUserDirectoryCacheAside(t *testing.T) {
	client, _ := setupRedis(t)
	backing := &countingDirectory{users: map[string]model.UserSummary{
		"a": {ID: "a", Name: "Ada"},
		"b": {ID: "b", Name: "Bo"},
	}}
	dir := NewUserDirectory(client, backing, time.Minute, nil)
	ctx := context.Background()

	got, err := dir.Summaries(ctx, []string{"a", "b", "ghost", "a"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Ada", got["a"].Name)
	require.Len(t, backing.calls, 1)
	assert.ElementsMatch(t, []string{"a", "b", "ghost"}, backing.calls[0])

	got, err = dir.Summaries(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "Bo", got["b"].Name)
	assert.Len(t, backing.calls, 1)

	// unknown ids are not cached and are asked again
	_, err = dir.Summaries(ctx, []string{"ghost"})
	require.NoError(t, err)
	assert.Len(t, backing.calls, 2)
}

func TestUserDirectoryRedisDownFallsThrough(t *testing.T) {
	client, s := setupRedis(t)
	backing := &countingDirectory{users: map[string]model.UserSummary{"a": {ID: "a", Name: "Ada"}}}
	dir := NewUserDirectory(client, backing, time.Minute, nil)
	s.Close()

	got, err := dir.Summaries(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["a"].Name)
}

func TestUserDirectoryBackingError(t *testing.T) {
	client, _ := setupRedis(t)
	boom := errors.New("db down")
	dir := NewUserDirectory(client, &countingDirectory{err: boom}, time.Minute, nil)

	_, err := dir.Summaries(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)

	got, err := dir.Summaries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
