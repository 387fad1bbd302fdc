package memory

import (
	"context"
	"sort"

	"thinkhub/internal/model"
	"thinkhub/internal/repository"
)

type Members struct {
	s *Store
}

func (r *Members) Role(ctx context.Context, projectID int64, userID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.findMemberLocked(projectID, userID)
	if !ok {
		return "", repository.ErrNotFound
	}
	return m.Role, nil
}

func (r *Members) Add(ctx context.Context, m *model.ProjectMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.projects[m.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.findMemberLocked(m.ProjectID, m.UserID); ok {
		return repository.ErrConflict
	}
	r.s.addMemberLocked(m)
	return nil
}

func (r *Members) Remove(ctx context.Context, projectID int64, userID string) (*model.ProjectMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.findMemberLocked(projectID, userID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.s.state.members, m.ID)
	return &m, nil
}

func (r *Members) List(ctx context.Context, projectID int64) ([]model.ProjectMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.ProjectMember
	for _, m := range r.s.state.members {
		if m.ProjectID != projectID {
			continue
		}
		if u, ok := r.s.state.users[m.UserID]; ok {
			m.UserName = u.Name
			m.UserEmail = u.Email
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Members) UserIDs(ctx context.Context, projectIDs []int64) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	scope := idSet(projectIDs)
	seen := map[string]struct{}{}
	var out []string
	for _, m := range r.s.state.members {
		if _, ok := scope[m.ProjectID]; !ok {
			continue
		}
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		out = append(out, m.UserID)
	}
	sort.Strings(out)
	return out, nil
}

type Documents struct {
	s *Store
}

func (r *Documents) Create(ctx context.Context, d *model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.projects[d.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	d.ID = r.s.nextID()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.s.now().UTC()
	}
	r.s.state.documents[d.ID] = *d
	return nil
}
