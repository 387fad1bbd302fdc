package memory

import (
	"context"

	"thinkhub/internal/model"
	"thinkhub/internal/ordering"
	"thinkhub/internal/repository"
)

type Milestones struct {
	s *Store
}

func (r *Milestones) Create(ctx context.Context, m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.projects[m.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = r.s.nextID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.now().UTC()
	}
	r.s.state.milestones[m.ID] = *m
	return nil
}

func (r *Milestones) FindByID(ctx context.Context, id int64) (*model.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.state.milestones[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *Milestones) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.state.milestones[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Status = status
	r.s.state.milestones[id] = m
	return nil
}

type Tasks struct {
	s *Store
}

func (r *Tasks) Create(ctx context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.projects[t.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if t.MilestoneID != nil {
		if _, ok := r.s.state.milestones[*t.MilestoneID]; !ok {
			return repository.ErrNotFound
		}
		t.Order = ordering.AppendOrder(r.s.maxOrderLocked(*t.MilestoneID))
	}
	t.ID = r.s.nextID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.s.now().UTC()
	}
	r.s.state.tasks[t.ID] = *t
	return nil
}

func (r *Tasks) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.state.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// Update writes every field except the milestone and order, which only Reorder and Move change.
func (r *Tasks) Update(ctx context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.state.tasks[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *t
	updated.MilestoneID = existing.MilestoneID
	updated.Order = existing.Order
	updated.ProjectID = existing.ProjectID
	updated.CreatedAt = existing.CreatedAt
	r.s.state.tasks[t.ID] = updated
	return nil
}

func (r *Tasks) ListByMilestone(ctx context.Context, milestoneID int64) ([]model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.milestoneTasksLocked(milestoneID), nil
}

func (r *Tasks) Reorder(ctx context.Context, milestoneID int64, taskIDs []int64) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current := r.s.milestoneTasksLocked(milestoneID)
	currentIDs := make([]int64, len(current))
	for i, t := range current {
		currentIDs[i] = t.ID
	}
	if err := ordering.ValidatePermutation(currentIDs, taskIDs); err != nil {
		return nil, err
	}

	for _, a := range ordering.Assign(taskIDs) {
		t := r.s.state.tasks[a.TaskID]
		t.Order = a.Order
		r.s.state.tasks[a.TaskID] = t
	}
	return r.s.milestoneTasksLocked(milestoneID), nil
}

func (r *Tasks) Move(ctx context.Context, taskID, milestoneID int64) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.state.tasks[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := r.s.state.milestones[milestoneID]; !ok {
		return nil, repository.ErrNotFound
	}
	if t.InMilestone(milestoneID) {
		return &t, nil
	}

	t.Order = ordering.AppendOrder(r.s.maxOrderLocked(milestoneID))
	t.MilestoneID = &milestoneID
	r.s.state.tasks[taskID] = t
	return &t, nil
}

func (s *Store) maxOrderLocked(milestoneID int64) int {
	tasks := s.milestoneTasksLocked(milestoneID)
	orders := make([]int, len(tasks))
	for i, t := range tasks {
		orders[i] = t.Order
	}
	return ordering.MaxOrder(orders)
}
