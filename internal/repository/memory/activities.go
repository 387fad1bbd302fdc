package memory

import (
	"context"
	"sort"
	"time"

	"thinkhub/internal/model"
	"thinkhub/internal/repository"
)

type Activities struct {
	s *Store
}

// Append only ever adds to the log; there is no update or delete.
func (r *Activities) Append(ctx context.Context, a *model.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.projects[a.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	a.ID = r.s.nextID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.s.now().UTC()
	}
	r.s.state.activities = append(r.s.state.activities, *a)
	return nil
}

func (r *Activities) Recent(ctx context.Context, projectIDs []int64, limit int) ([]model.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	scope := idSet(projectIDs)
	var out []model.Activity
	for _, a := range r.s.state.activities {
		if _, ok := scope[a.ProjectID]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Newer(out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns every record in append order.
func (r *Activities) All() []model.Activity {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]model.Activity(nil), r.s.state.activities...)
}

type Stats struct {
	s *Store
}

func (r *Stats) CountActiveMilestones(ctx context.Context, projectIDs []int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	scope := idSet(projectIDs)
	n := 0
	for _, m := range r.s.state.milestones {
		if _, ok := scope[m.ProjectID]; ok && m.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *Stats) CountDistinctMembers(ctx context.Context, projectIDs []int64) (int, error) {
	ids, err := r.s.Members().UserIDs(ctx, projectIDs)
	return len(ids), err
}

func (r *Stats) CountTasks(ctx context.Context, projectIDs []int64) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	scope := idSet(projectIDs)
	total, completed := 0, 0
	for _, t := range r.s.state.tasks {
		if _, ok := scope[t.ProjectID]; !ok {
			continue
		}
		total++
		if t.Status == model.TaskCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (r *Stats) UpcomingDeadlines(ctx context.Context, projectIDs []int64, from, to time.Time, limit int) ([]model.MilestoneDeadline, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	scope := idSet(projectIDs)
	var out []model.MilestoneDeadline
	for _, m := range r.s.state.milestones {
		if _, ok := scope[m.ProjectID]; !ok || !m.IsActive() {
			continue
		}
		if !m.DueDate.After(from) || !m.DueDate.Before(to) {
			continue
		}
		out = append(out, model.MilestoneDeadline{
			Milestone:   m,
			ProjectName: r.s.state.projects[m.ProjectID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
