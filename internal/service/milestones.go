package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/rbac"
)

type MilestoneService struct {
	access     *Access
	milestones MilestoneStore
	activity   *ActivityLogger
	logger     *zap.Logger
}

func NewMilestoneService(access *Access, milestones MilestoneStore, activity *ActivityLogger, logger *zap.Logger) *MilestoneService {
	return &MilestoneService{
		access:     access,
		milestones: milestones,
		activity:   activity,
		logger:     logger,
	}
}

type MilestoneInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
}

func (s *MilestoneService) CreateMilestone(ctx context.Context, userID string, projectID int64, in MilestoneInput) (*model.Milestone, error) {
	log := logger.WithTrace(ctx, s.logger)

	if _, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionWriteMilestone); err != nil {
		return nil, err
	}

	m := &model.Milestone{
		ProjectID:   projectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      in.Status,
	}
	if m.Status == "" {
		m.Status = model.MilestonePlanned
	}
	if m.Title == "" {
		return nil, invalid("invalid_title", "title is required", nil)
	}
	if m.DueDate.IsZero() {
		return nil, invalid("invalid_due_date", "due date is required", nil)
	}
	if !model.ValidMilestoneStatus(m.Status) {
		return nil, invalid("invalid_status", "unknown milestone status", nil)
	}

	if err := s.milestones.Create(ctx, m); err != nil {
		log.Error("Failed to create milestone", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, persistence("create milestone", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  projectID,
		ActionType: model.ActionCreateMilestone,
		EntityID:   m.ID,
		EntityType: model.EntityMilestone,
		Details: map[string]any{
			"title":   m.Title,
			"dueDate": m.DueDate,
		},
	})
	return m, nil
}

// CompleteMilestone marks the milestone Completed. Completing it twice is a no-op.
func (s *MilestoneService) CompleteMilestone(ctx context.Context, userID string, milestoneID int64) (*model.Milestone, error) {
	log := logger.WithTrace(ctx, s.logger)

	m, err := s.milestones.FindByID(ctx, milestoneID)
	if err != nil {
		return nil, milestoneLookupError(err)
	}
	if _, err := s.access.Authorize(ctx, userID, m.ProjectID, rbac.PermissionWriteMilestone); err != nil {
		return nil, err
	}
	if m.Status == model.MilestoneCompleted {
		return m, nil
	}

	if err := s.milestones.UpdateStatus(ctx, milestoneID, model.MilestoneCompleted); err != nil {
		log.Error("Failed to complete milestone", zap.Int64("milestone_id", milestoneID), zap.Error(err))
		return nil, milestoneLookupError(err)
	}
	m.Status = model.MilestoneCompleted

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  m.ProjectID,
		ActionType: model.ActionCompleteMilestone,
		EntityID:   m.ID,
		EntityType: model.EntityMilestone,
		Details:    map[string]any{"title": m.Title},
	})
	return m, nil
}
