package service

import (
	"context"
	"time"

	"thinkhub/internal/model"
)

// Persistence ports. Implementations return repository.ErrNotFound and
// repository.ErrConflict for missing rows and duplicate keys.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// UserDirectory resolves display data for actor ids. Missing ids are absent from the result.
type UserDirectory interface {
	Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
}

type ProjectStore interface {
	// Create inserts the project and its creator as a Manager member atomically.
	Create(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, id int64) (*model.Project, error)
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
	IDsCreatedBy(ctx context.Context, userID string) ([]int64, error)
	IDsWithMember(ctx context.Context, userID string) ([]int64, error)
}

type MemberStore interface {
	Role(ctx context.Context, projectID int64, userID string) (string, error)
	Add(ctx context.Context, m *model.ProjectMember) error
	// Remove deletes the membership and returns the removed row.
	Remove(ctx context.Context, projectID int64, userID string) (*model.ProjectMember, error)
	List(ctx context.Context, projectID int64) ([]model.ProjectMember, error)
	// UserIDs returns the distinct member user ids across projectIDs.
	UserIDs(ctx context.Context, projectIDs []int64) ([]string, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *model.Document) error
}

type MilestoneStore interface {
	Create(ctx context.Context, m *model.Milestone) error
	FindByID(ctx context.Context, id int64) (*model.Milestone, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type TaskStore interface {
	// Create appends the task to the end of its milestone.
	Create(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id int64) (*model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	ListByMilestone(ctx context.Context, milestoneID int64) ([]model.Task, error)
	// Reorder rewrites the order of every task in the milestone in one unit of work.
	// It fails with an ordering error and changes nothing unless taskIDs is a
	// permutation of the milestone's tasks.
	Reorder(ctx context.Context, milestoneID int64, taskIDs []int64) ([]model.Task, error)
	// Move reassigns the task to milestoneID at order = count of tasks already there.
	Move(ctx context.Context, taskID, milestoneID int64) (*model.Task, error)
}

type ActivityWriter interface {
	Append(ctx context.Context, a *model.Activity) error
}

type ActivityReader interface {
	// Recent returns at most limit records of projectIDs, newest first (created_at, id).
	Recent(ctx context.Context, projectIDs []int64, limit int) ([]model.Activity, error)
}

type StatsStore interface {
	CountActiveMilestones(ctx context.Context, projectIDs []int64) (int, error)
	CountDistinctMembers(ctx context.Context, projectIDs []int64) (int, error)
	CountTasks(ctx context.Context, projectIDs []int64) (total int, completed int, err error)
	// UpcomingDeadlines returns open milestones due strictly inside (from, to), soonest first.
	UpcomingDeadlines(ctx context.Context, projectIDs []int64, from, to time.Time, limit int) ([]model.MilestoneDeadline, error)
}

// StatsCache stores computed dashboard stats per user.
type StatsCache interface {
	Get(ctx context.Context, userID string) (*Stats, bool, error)
	Set(ctx context.Context, userID string, stats *Stats) error
	Invalidate(ctx context.Context, userIDs ...string) error
}
