package memory

import (
	"context"
	"strings"

	"thinkhub/internal/model"
	"thinkhub/internal/repository"
)

type Users struct {
	s *Store
}

func (r *Users) Create(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.state.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	if _, ok := r.s.state.users[u.ID]; ok {
		return repository.ErrConflict
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now().UTC()
	}
	r.s.state.users[u.ID] = *u
	return nil
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.state.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.s.state.users[id]; ok {
			out[id] = model.UserSummary{ID: u.ID, Name: u.Name, Image: u.Image}
		}
	}
	return out, nil
}
