package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"thinkhub/pkg/logger"
	"thinkhub/pkg/metrics"
)

const (
	DeadlineWindow  = 14 * 24 * time.Hour
	AtRiskThreshold = 3 * 24 * time.Hour
	MaxDeadlines    = 5

	StatusAtRisk  = "At Risk"
	StatusOnTrack = "On Track"
)

type Deadline struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Project string    `json:"project"`
	Date    time.Time `json:"date"`
	Status  string    `json:"status"`
}

type Stats struct {
	TotalProjects     int        `json:"totalProjects"`
	ActiveMilestones  int        `json:"activeMilestones"`
	TeamMembers       int        `json:"teamMembers"`
	CompletedTasks    int        `json:"completedTasks"`
	TotalTasks        int        `json:"totalTasks"`
	UpcomingDeadlines []Deadline `json:"upcomingDeadlines"`
}

func emptyStats() *Stats {
	return &Stats{UpcomingDeadlines: []Deadline{}}
}

// DeadlineStatus classifies a due date relative to now.
func DeadlineStatus(due, now time.Time) string {
	if due.Sub(now) < AtRiskThreshold {
		return StatusAtRisk
	}
	return StatusOnTrack
}

type DashboardService struct {
	scope  *ScopeResolver
	stats  StatsStore
	cache  StatsCache
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService builds the aggregator. cache may be nil.
func NewDashboardService(scope *ScopeResolver, stats StatsStore, cache StatsCache, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		scope:  scope,
		stats:  stats,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	if now != nil {
		s.now = now
	}
	return s
}

// Stats aggregates counts and upcoming deadlines over the user's scope.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*Stats, error) {
	log := logger.WithTrace(ctx, s.logger)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, userID)
		switch {
		case err != nil:
			metrics.IncrementDashboardCache("error")
			log.Warn("Dashboard cache read failed", zap.String("user_id", userID), zap.Error(err))
		case ok:
			metrics.IncrementDashboardCache("hit")
			return cached, nil
		default:
			metrics.IncrementDashboardCache("miss")
		}
	}

	stats, err := s.compute(ctx, userID)
	if err != nil {
		log.Error("Failed to compute dashboard stats", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, stats); err != nil {
			log.Warn("Dashboard cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context, userID string) (*Stats, error) {
	projectIDs, err := s.scope.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(projectIDs) == 0 {
		return emptyStats(), nil
	}

	stats := emptyStats()
	stats.TotalProjects = len(projectIDs)

	if stats.ActiveMilestones, err = s.stats.CountActiveMilestones(ctx, projectIDs); err != nil {
		return nil, persistence("count active milestones", err)
	}
	if stats.TeamMembers, err = s.stats.CountDistinctMembers(ctx, projectIDs); err != nil {
		return nil, persistence("count team members", err)
	}
	if stats.TotalTasks, stats.CompletedTasks, err = s.stats.CountTasks(ctx, projectIDs); err != nil {
		return nil, persistence("count tasks", err)
	}

	now := s.now()
	upcoming, err := s.stats.UpcomingDeadlines(ctx, projectIDs, now, now.Add(DeadlineWindow), MaxDeadlines)
	if err != nil {
		return nil, persistence("load upcoming deadlines", err)
	}

	for _, m := range upcoming {
		// 存储层已过滤，这里再保证一次窗口与状态
		if !m.IsActive() || !m.DueDate.After(now) || !m.DueDate.Before(now.Add(DeadlineWindow)) {
			continue
		}
		if len(stats.UpcomingDeadlines) == MaxDeadlines {
			break
		}
		stats.UpcomingDeadlines = append(stats.UpcomingDeadlines, Deadline{
			ID:      m.ID,
			Name:    m.Title,
			Project: m.ProjectName,
			Date:    m.DueDate,
			Status:  DeadlineStatus(m.DueDate, now),
		})
	}
	return stats, nil
}

// InvalidateUsers drops cached stats for the given users.
func (s *DashboardService) InvalidateUsers(ctx context.Context, userIDs ...string) error {
	if s.cache == nil || len(userIDs) == 0 {
		return nil
	}
	return s.cache.Invalidate(ctx, userIDs...)
}
