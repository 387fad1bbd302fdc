package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/ordering"
	"thinkhub/pkg/db"
	"thinkhub/pkg/outbox"
)

// openTestPool connects to THINKHUB_TEST_DATABASE_URL, applies migrations and
// empties every table. Tests are skipped when the variable is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := strings.TrimSpace(os.Getenv("THINKHUB_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("THINKHUB_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.ApplyMigrations(ctx, pool, filepath.Join("..", "..", "migrations"), zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE outbox_events, activities, tasks, documents, milestones, project_members, projects, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

type pgFixture struct {
	users      *UserRepository
	projects   *ProjectRepository
	members    *MemberRepository
	milestones *MilestoneRepository
	tasks      *TaskRepository
	activities *ActivityRepository
	stats      *StatsRepository
}

func newPGFixture(pool *pgxpool.Pool) *pgFixture {
	log := zap.NewNop()
	return &pgFixture{
		users:      NewUserRepository(pool, log),
		projects:   NewProjectRepository(pool, log),
		members:    NewMemberRepository(pool, log),
		milestones: NewMilestoneRepository(pool, log),
		tasks:      NewTaskRepository(pool, log),
		activities: NewActivityRepository(pool, outbox.NewRepository(pool), log),
		stats:      NewStatsRepository(pool, log),
	}
}

func (f *pgFixture) seed(t *testing.T) (*model.User, *model.Project, *model.Milestone, *model.Milestone) {
	t.Helper()
	ctx := context.Background()

	u := &model.User{ID: uuid.NewString(), Name: "owner", Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.users.Create(ctx, u))

	p := &model.Project{Name: "Alpha", CreatedBy: u.ID}
	require.NoError(t, f.projects.Create(ctx, p))

	m1 := &model.Milestone{ProjectID: p.ID, Title: "M1", DueDate: time.Now().Add(48 * time.Hour), Status: model.MilestonePlanned}
	m2 := &model.Milestone{ProjectID: p.ID, Title: "M2", DueDate: time.Now().Add(240 * time.Hour), Status: model.MilestonePlanned}
	require.NoError(t, f.milestones.Create(ctx, m1))
	require.NoError(t, f.milestones.Create(ctx, m2))
	return u, p, m1, m2
}

func (f *pgFixture) addTask(t *testing.T, u *model.User, p *model.Project, m *model.Milestone, title string) *model.Task {
	t.Helper()
	task := &model.Task{ProjectID: p.ID, MilestoneID: &m.ID, Title: title, Status: model.TaskToDo, Priority: 3, CreatedBy: u.ID}
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func TestPostgresReorderAndMove(t *testing.T) {
	pool := openTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()
	u, p, m1, m2 := f.seed(t)

	a := f.addTask(t, u, p, m1, "A")
	b := f.addTask(t, u, p, m1, "B")
	c := f.addTask(t, u, p, m1, "C")
	assert.Equal(t, []int{0, 1, 2}, []int{a.Order, b.Order, c.Order})

	tasks, err := f.tasks.Reorder(ctx, m1.ID, []int64{c.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	_, err = f.tasks.Reorder(ctx, m1.ID, []int64{c.ID, a.ID})
	assert.ErrorIs(t, err, ordering.ErrLengthMismatch)

	d := f.addTask(t, u, p, m2, "D")
	moved, err := f.tasks.Move(ctx, a.ID, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Order)
	assert.True(t, moved.InMilestone(m2.ID))

	dest, err := f.tasks.ListByMilestone(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{d.ID, a.ID}, []int64{dest[0].ID, dest[1].ID})

	_, err = f.tasks.Move(ctx, 999999, m2.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresAppendAfterMoveOut(t *testing.T) {
	pool := openTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()
	u, p, m1, m2 := f.seed(t)

	x := f.addTask(t, u, p, m2, "X")
	a := f.addTask(t, u, p, m1, "A")
	b := f.addTask(t, u, p, m1, "B")
	c := f.addTask(t, u, p, m1, "C")

	// leaves M1 at {A:0, C:2}
	_, err := f.tasks.Move(ctx, b.ID, m2.ID)
	require.NoError(t, err)

	moved, err := f.tasks.Move(ctx, x.ID, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, moved.Order)

	d := f.addTask(t, u, p, m1, "D")
	assert.Equal(t, 4, d.Order)

	list, err := f.tasks.ListByMilestone(ctx, m1.ID)
	require.NoError(t, err)
	ids := make([]int64, len(list))
	orders := make(map[int]bool, len(list))
	for i, task := range list {
		ids[i] = task.ID
		assert.False(t, orders[task.Order], "order %d reused", task.Order)
		orders[task.Order] = true
	}
	assert.Equal(t, []int64{a.ID, c.ID, x.ID, d.ID}, ids)
}

func TestPostgresActivityIsAppendOnly(t *testing.T) {
	pool := openTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()
	u, p, _, _ := f.seed(t)

	a := &model.Activity{
		UserID:     u.ID,
		ProjectID:  p.ID,
		ActionType: model.ActionCreateProject,
		EntityID:   p.ID,
		EntityType: model.EntityProject,
		Details:    map[string]any{"name": "Alpha"},
	}
	require.NoError(t, f.activities.Append(ctx, a))
	assert.NotZero(t, a.ID)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_events WHERE routing_key = 'activity.recorded'`).Scan(&pending))
	assert.Equal(t, 1, pending)

	recent, err := f.activities.Recent(ctx, []int64{p.ID}, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Alpha", recent[0].Details["name"])

	_, err = pool.Exec(ctx, `UPDATE activities SET action_type = 'comment' WHERE id = $1`, a.ID)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "55000", pgErr.Code)

	_, err = pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, a.ID)
	require.Error(t, err)
}

func TestPostgresMembersAndStats(t *testing.T) {
	pool := openTestPool(t)
	f := newPGFixture(pool)
	ctx := context.Background()
	u, p, m1, _ := f.seed(t)

	err := f.members.Add(ctx, &model.ProjectMember{ProjectID: p.ID, UserID: u.ID, Role: "Viewer"})
	assert.ErrorIs(t, err, ErrConflict)

	role, err := f.members.Role(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Manager", role)

	f.addTask(t, u, p, m1, "A")
	total, completed, err := f.stats.CountTasks(ctx, []int64{p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, completed)

	now := time.Now()
	deadlines, err := f.stats.UpcomingDeadlines(ctx, []int64{p.ID}, now, now.Add(14*24*time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.Equal(t, "Alpha", deadlines[0].ProjectName)
	assert.Equal(t, m1.ID, deadlines[0].ID)

	n, err := f.stats.CountDistinctMembers(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
