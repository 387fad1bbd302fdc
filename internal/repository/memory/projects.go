package memory

import (
	"context"
	"sort"

	"thinkhub/internal/model"
	"thinkhub/internal/repository"
	"thinkhub/pkg/rbac"
)

type Projects struct {
	s *Store
}

func (r *Projects) Create(ctx context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.nextID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.now().UTC()
	}
	r.s.state.projects[p.ID] = *p
	r.s.addMemberLocked(&model.ProjectMember{
		ProjectID: p.ID,
		UserID:    p.CreatedBy,
		Role:      rbac.RoleManager,
	})
	return nil
}

func (r *Projects) Update(ctx context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.state.projects[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	r.s.state.projects[p.ID] = existing
	return nil
}

func (r *Projects) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.state.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *Projects) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if p, ok := r.s.state.projects[id]; ok {
			out[id] = p.Name
		}
	}
	return out, nil
}

func (r *Projects) IDsCreatedBy(ctx context.Context, userID string) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []int64
	for _, p := range r.s.state.projects {
		if p.CreatedBy == userID {
			out = append(out, p.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *Projects) IDsWithMember(ctx context.Context, userID string) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	set := map[int64]struct{}{}
	for _, m := range r.s.state.members {
		if m.UserID == userID {
			set[m.ProjectID] = struct{}{}
		}
	}
	return sortedIDs(set), nil
}
