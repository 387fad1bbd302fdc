package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/logger"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100

	unknownUser    = "Unknown User"
	unknownProject = "Unknown Project"
)

// ActivityView is one feed row, denormalized for display.
type ActivityView struct {
	ID         int64            `json:"id"`
	User       string           `json:"user"`
	UserImage  *string          `json:"userImage,omitempty"`
	Action     string           `json:"action"`
	Project    string           `json:"project"`
	ProjectID  int64            `json:"projectId"`
	Time       string           `json:"time"`
	Details    map[string]any   `json:"details"`
	EntityType model.EntityType `json:"entityType,omitempty"`
	EntityID   int64            `json:"entityId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type FeedService struct {
	scope      *ScopeResolver
	activities ActivityReader
	users      UserDirectory
	projects   ProjectStore
	logger     *zap.Logger
	now        func() time.Time

	defaultLimit int
	maxLimit     int
}

func NewFeedService(
	scope *ScopeResolver,
	activities ActivityReader,
	users UserDirectory,
	projects ProjectStore,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		scope:        scope,
		activities:   activities,
		users:        users,
		projects:     projects,
		logger:       logger,
		now:          time.Now,
		defaultLimit: DefaultFeedLimit,
		maxLimit:     MaxFeedLimit,
	}
}

func (s *FeedService) WithClock(now func() time.Time) *FeedService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithLimits overrides the default and maximum page size. Values <= 0 are ignored.
func (s *FeedService) WithLimits(defaultLimit, maxLimit int) *FeedService {
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	if defaultLimit > 0 {
		s.defaultLimit = min(defaultLimit, s.maxLimit)
	}
	return s
}

func (s *FeedService) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	return min(limit, s.maxLimit)
}

// RecentActivity returns the newest activity across every project visible to userID.
func (s *FeedService) RecentActivity(ctx context.Context, userID string, limit int) ([]ActivityView, error) {
	log := logger.WithTrace(ctx, s.logger)

	projectIDs, err := s.scope.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(projectIDs) == 0 {
		return []ActivityView{}, nil
	}

	limit = s.normalizeLimit(limit)
	records, err := s.activities.Recent(ctx, projectIDs, limit)
	if err != nil {
		log.Error("Failed to load recent activity", zap.String("user_id", userID), zap.Error(err))
		return nil, persistence("load recent activity", err)
	}
	if len(records) == 0 {
		return []ActivityView{}, nil
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Newer(records[j]) })
	if len(records) > limit {
		records = records[:limit]
	}

	actorIDs := lo.Uniq(lo.Map(records, func(a model.Activity, _ int) string { return a.UserID }))
	actors, err := s.users.Summaries(ctx, actorIDs)
	if err != nil {
		log.Error("Failed to resolve activity actors", zap.Error(err))
		return nil, persistence("resolve activity actors", err)
	}

	recordProjects := lo.Uniq(lo.Map(records, func(a model.Activity, _ int) int64 { return a.ProjectID }))
	names, err := s.projects.Names(ctx, recordProjects)
	if err != nil {
		log.Error("Failed to resolve activity projects", zap.Error(err))
		return nil, persistence("resolve activity projects", err)
	}

	now := s.now()
	views := make([]ActivityView, 0, len(records))
	for _, a := range records {
		view := ActivityView{
			ID:         a.ID,
			User:       unknownUser,
			Action:     ActionText(a.ActionType),
			Project:    unknownProject,
			ProjectID:  a.ProjectID,
			Time:       RelativeTime(a.CreatedAt, now),
			Details:    a.Details,
			EntityType: a.EntityType,
			EntityID:   a.EntityID,
			CreatedAt:  a.CreatedAt,
		}
		if actor, ok := actors[a.UserID]; ok {
			if actor.Name != "" {
				view.User = actor.Name
			}
			view.UserImage = actor.Image
		}
		if name, ok := names[a.ProjectID]; ok {
			view.Project = name
		}
		if view.Details == nil {
			view.Details = map[string]any{}
		}
		views = append(views, view)
	}

	log.Debug("Recent activity loaded",
		zap.String("user_id", userID),
		zap.Int("project_count", len(projectIDs)),
		zap.Int("activity_count", len(views)),
	)
	return views, nil
}
