package service

import (
	"context"
	"sort"

	"github.com/samber/lo"
)

// ScopeResolver computes the projects a user may see: created by them or joined as a member.
type ScopeResolver struct {
	projects ProjectStore
}

func NewScopeResolver(projects ProjectStore) *ScopeResolver {
	return &ScopeResolver{projects: projects}
}

// Resolve returns the deduplicated project ids in the user's scope, ascending.
func (r *ScopeResolver) Resolve(ctx context.Context, userID string) ([]int64, error) {
	owned, err := r.projects.IDsCreatedBy(ctx, userID)
	if err != nil {
		return nil, persistence("resolve owned projects", err)
	}

	joined, err := r.projects.IDsWithMember(ctx, userID)
	if err != nil {
		return nil, persistence("resolve member projects", err)
	}

	ids := lo.Uniq(append(owned, joined...))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
