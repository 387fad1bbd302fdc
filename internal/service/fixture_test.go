package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/repository/memory"
)

const day = 24 * time.Hour

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	store      *memory.Store
	scope      *ScopeResolver
	activity   *ActivityLogger
	projects   *ProjectService
	milestones *MilestoneService
	tasks      *TaskService
	feed       *FeedService
	dashboard  *DashboardService
}

// newFixture wires every service over one memory store. writer replaces the
// activity store when non-nil.
func newFixture(t *testing.T, writer ActivityWriter) *fixture {
	t.Helper()

	store := memory.New().WithClock(fixedClock)
	if writer == nil {
		writer = store.Activities()
	}
	log := zap.NewNop()

	scope := NewScopeResolver(store.Projects())
	access := NewAccess(store.Projects(), store.Members())
	activity := NewActivityLogger(writer, log).WithClock(fixedClock)

	return &fixture{
		store:      store,
		scope:      scope,
		activity:   activity,
		projects:   NewProjectService(access, store.Projects(), store.Members(), store.Documents(), store.Users(), activity, log),
		milestones: NewMilestoneService(access, store.Milestones(), activity, log),
		tasks:      NewTaskService(access, store.Milestones(), store.Tasks(), activity, log),
		feed:       NewFeedService(scope, store.Activities(), store.Users(), store.Projects(), log).WithClock(fixedClock),
		dashboard:  NewDashboardService(scope, store.Stats(), nil, log).WithClock(fixedClock),
	}
}

func (f *fixture) user(t *testing.T, name string) string {
	t.Helper()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

func (f *fixture) project(t *testing.T, owner, name string) *model.Project {
	t.Helper()
	p, err := f.projects.CreateProject(context.Background(), owner, name, "")
	require.NoError(t, err)
	return p
}

func (f *fixture) member(t *testing.T, owner string, projectID int64, name, role string) string {
	t.Helper()
	id := f.user(t, name)
	_, err := f.projects.AddMember(context.Background(), owner, projectID, name+"@example.com", role)
	require.NoError(t, err)
	return id
}

func (f *fixture) milestone(t *testing.T, userID string, projectID int64, title string, due time.Duration, status string) *model.Milestone {
	t.Helper()
	m, err := f.milestones.CreateMilestone(context.Background(), userID, projectID, MilestoneInput{
		Title:   title,
		DueDate: testNow.Add(due),
		Status:  status,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) task(t *testing.T, userID string, milestoneID int64, title string) *model.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), userID, milestoneID, TaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func (f *fixture) orders(t *testing.T, milestoneID int64) map[int64]int {
	t.Helper()
	tasks, err := f.store.Tasks().ListByMilestone(context.Background(), milestoneID)
	require.NoError(t, err)
	out := make(map[int64]int, len(tasks))
	for _, task := range tasks {
		out[task.ID] = task.Order
	}
	return out
}

