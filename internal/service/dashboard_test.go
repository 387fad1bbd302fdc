package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/rbac"
)

func TestDeadlineStatus(t *testing.T) {
	assert.Equal(t, StatusAtRisk, DeadlineStatus(testNow.Add(2*day), testNow))
	assert.Equal(t, StatusAtRisk, DeadlineStatus(testNow.Add(3*day-time.Second), testNow))
	assert.Equal(t, StatusOnTrack, DeadlineStatus(testNow.Add(3*day), testNow))
	assert.Equal(t, StatusOnTrack, DeadlineStatus(testNow.Add(10*day), testNow))
}

func TestDashboardDeadlineClassification(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.project(t, owner, "Alpha")

	risky := f.milestone(t, owner, p.ID, "Soon", 2*day, model.MilestonePlanned)
	fine := f.milestone(t, owner, p.ID, "Later", 10*day, model.MilestoneInProgress)
	f.milestone(t, owner, p.ID, "Done", 1*day, model.MilestoneCompleted)
	f.milestone(t, owner, p.ID, "Far", 20*day, model.MilestonePlanned)
	f.milestone(t, owner, p.ID, "Overdue", -1*day, model.MilestonePlanned)

	stats, err := f.dashboard.Stats(ctx, owner)
	require.NoError(t, err)

	require.Len(t, stats.UpcomingDeadlines, 2)
	assert.Equal(t, Deadline{ID: risky.ID, Name: "Soon", Project: "Alpha", Date: risky.DueDate, Status: StatusAtRisk}, stats.UpcomingDeadlines[0])
	assert.Equal(t, Deadline{ID: fine.ID, Name: "Later", Project: "Alpha", Date: fine.DueDate, Status: StatusOnTrack}, stats.UpcomingDeadlines[1])

	// Planned and In Progress count as active regardless of date
	assert.Equal(t, 4, stats.ActiveMilestones)
}

func TestDashboardDeadlinesCappedAndSorted(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user(t, "owner")
	p := f.project(t, owner, "Alpha")

	for _, d := range []int{9, 1, 12, 4, 7, 2, 13} {
		f.milestone(t, owner, p.ID, "M", time.Duration(d)*day, "")
	}

	stats, err := f.dashboard.Stats(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, stats.UpcomingDeadlines, MaxDeadlines)

	for i := 1; i < len(stats.UpcomingDeadlines); i++ {
		assert.True(t, stats.UpcomingDeadlines[i-1].Date.Before(stats.UpcomingDeadlines[i].Date))
	}
	assert.Equal(t, testNow.Add(1*day), stats.UpcomingDeadlines[0].Date)
	assert.Equal(t, testNow.Add(9*day), stats.UpcomingDeadlines[4].Date)
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	p1 := f.project(t, alice, "One")
	p2 := f.project(t, alice, "Two")
	p3 := f.project(t, bob, "Three")

	shared := f.member(t, alice, p1.ID, "shared", rbac.RoleResearcher)
	_, err := f.projects.AddMember(ctx, alice, p2.ID, "shared@example.com", rbac.RoleViewer)
	require.NoError(t, err)
	_, err = f.projects.AddMember(ctx, bob, p3.ID, "alice@example.com", rbac.RoleViewer)
	require.NoError(t, err)

	m1 := f.milestone(t, alice, p1.ID, "M1", 5*day, "")
	f.milestone(t, alice, p2.ID, "M2", 5*day, model.MilestoneCompleted)
	m3 := f.milestone(t, bob, p3.ID, "M3", 5*day, model.MilestoneInProgress)

	f.task(t, alice, m1.ID, "a")
	done := f.task(t, shared, m1.ID, "b")
	f.task(t, bob, m3.ID, "c")
	status := model.TaskCompleted
	_, err = f.tasks.UpdateTask(ctx, alice, done.ID, model.TaskPatch{Status: &status})
	require.NoError(t, err)

	stats, err := f.dashboard.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProjects)
	assert.Equal(t, 2, stats.ActiveMilestones)
	// alice, bob, shared: shared is in two projects and counts once
	assert.Equal(t, 3, stats.TeamMembers)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)

	stats, err = f.dashboard.Stats(ctx, shared)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 2, stats.TeamMembers)
	assert.Equal(t, 2, stats.TotalTasks)
}

type fakeStatsCache struct {
	entries     map[string]*Stats
	getErr      error
	invalidated []string
}

func (c *fakeStatsCache) Get(ctx context.Context, userID string) (*Stats, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	s, ok := c.entries[userID]
	return s, ok, nil
}

func (c *fakeStatsCache) Set(ctx context.Context, userID string, stats *Stats) error {
	c.entries[userID] = stats
	return nil
}

func (c *fakeStatsCache) Invalidate(ctx context.Context, userIDs ...string) error {
	c.invalidated = append(c.invalidated, userIDs...)
	for _, id := range userIDs {
		delete(c.entries, id)
	}
	return nil
}

func TestDashboardUsesCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.project(t, owner, "Alpha")

	cache := &fakeStatsCache{entries: map[string]*Stats{}}
	dashboard := NewDashboardService(f.scope, f.store.Stats(), cache, zap.NewNop()).WithClock(fixedClock)

	first, err := dashboard.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalProjects)
	require.Contains(t, cache.entries, owner)

	f.project(t, owner, "Beta")
	cached, err := dashboard.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.TotalProjects)

	require.NoError(t, dashboard.InvalidateUsers(ctx, owner))
	fresh, err := dashboard.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalProjects)
	assert.Equal(t, []string{owner}, cache.invalidated)

	cache.getErr = errors.New("redis down")
	f.milestone(t, owner, p.ID, "M", 2*day, "")
	degraded, err := dashboard.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, degraded.ActiveMilestones)
}
