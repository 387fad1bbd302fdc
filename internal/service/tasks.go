package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/ordering"
	"thinkhub/internal/repository"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/metrics"
	"thinkhub/pkg/rbac"
)

const defaultPriority = 3

type TaskService struct {
	access     *Access
	milestones MilestoneStore
	tasks      TaskStore
	activity   *ActivityLogger
	logger     *zap.Logger
}

func NewTaskService(
	access *Access,
	milestones MilestoneStore,
	tasks TaskStore,
	activity *ActivityLogger,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		access:     access,
		milestones: milestones,
		tasks:      tasks,
		activity:   activity,
		logger:     logger,
	}
}

// TaskInput is the payload of CreateTask.
type TaskInput struct {
	Title              string
	Description        string
	Status             string
	Priority           int
	AssignedTo         *string
	DueDate            *time.Time
	DocumentID         *int64
	PolicyHeader       *string
	PolicyContent      *string
	RecommendedContent *string
}

func (s *TaskService) loadMilestone(ctx context.Context, id int64) (*model.Milestone, error) {
	m, err := s.milestones.FindByID(ctx, id)
	if err != nil {
		return nil, milestoneLookupError(err)
	}
	return m, nil
}

func milestoneLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("milestone_not_found", "milestone not found")
	}
	return persistence("load milestone", err)
}

func (s *TaskService) loadTask(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, persistence("load task", err)
	}
	return t, nil
}

func isOrderingError(err error) bool {
	return errors.Is(err, ordering.ErrLengthMismatch) ||
		errors.Is(err, ordering.ErrDuplicateTask) ||
		errors.Is(err, ordering.ErrForeignTask)
}

// ReorderTasks rewrites the order of every task in the milestone to its index in taskIDs.
func (s *TaskService) ReorderTasks(ctx context.Context, userID string, milestoneID int64, taskIDs []int64) ([]model.Task, error) {
	log := logger.WithTrace(ctx, s.logger)

	milestone, err := s.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, userID, milestone.ProjectID, rbac.PermissionWriteTask); err != nil {
		return nil, err
	}

	if len(taskIDs) == 0 {
		metrics.IncrementTaskReorder("reorder", "noop")
		return s.listTasks(ctx, milestoneID)
	}

	tasks, err := s.tasks.Reorder(ctx, milestoneID, taskIDs)
	if err != nil {
		if isOrderingError(err) {
			metrics.IncrementTaskReorder("reorder", "rejected")
			log.Warn("Rejected task reorder",
				zap.Int64("milestone_id", milestoneID),
				zap.Int64s("task_ids", taskIDs),
				zap.Error(err),
			)
			return nil, invalid("invalid_task_order", "task list must be a permutation of the milestone's tasks", err)
		}
		metrics.IncrementTaskReorder("reorder", "error")
		log.Error("Failed to reorder tasks", zap.Int64("milestone_id", milestoneID), zap.Error(err))
		return nil, persistence("reorder tasks", err)
	}
	metrics.IncrementTaskReorder("reorder", "ok")

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  milestone.ProjectID,
		ActionType: model.ActionUpdateTask,
		EntityID:   milestoneID,
		EntityType: model.EntityMilestone,
		Details: map[string]any{
			"milestoneId": milestoneID,
			"taskIds":     taskIDs,
		},
	})

	log.Info("Tasks reordered",
		zap.Int64("milestone_id", milestoneID),
		zap.Int("task_count", len(tasks)),
	)
	return tasks, nil
}

// MoveTask reassigns a task to another milestone of the same project, appending it at the end.
// Moving a task to the milestone it is already in changes nothing.
func (s *TaskService) MoveTask(ctx context.Context, userID string, taskID, milestoneID int64) error {
	log := logger.WithTrace(ctx, s.logger)

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	dest, err := s.loadMilestone(ctx, milestoneID)
	if err != nil {
		return err
	}
	if dest.ProjectID != task.ProjectID {
		return invalid("milestone_project_mismatch", "milestone belongs to a different project", nil)
	}
	if _, err := s.access.Authorize(ctx, userID, task.ProjectID, rbac.PermissionWriteTask); err != nil {
		return err
	}

	if task.InMilestone(milestoneID) {
		metrics.IncrementTaskReorder("move", "noop")
		log.Debug("Task already in milestone", zap.Int64("task_id", taskID), zap.Int64("milestone_id", milestoneID))
		return nil
	}

	moved, err := s.tasks.Move(ctx, taskID, milestoneID)
	if err != nil {
		metrics.IncrementTaskReorder("move", "error")
		log.Error("Failed to move task",
			zap.Int64("task_id", taskID),
			zap.Int64("milestone_id", milestoneID),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("task_not_found", "task not found")
		}
		return persistence("move task", err)
	}
	metrics.IncrementTaskReorder("move", "ok")

	details := map[string]any{"toMilestoneId": milestoneID}
	if task.MilestoneID != nil {
		details["fromMilestoneId"] = *task.MilestoneID
	}
	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  task.ProjectID,
		ActionType: model.ActionUpdateTask,
		EntityID:   taskID,
		EntityType: model.EntityTask,
		Details:    details,
	})

	log.Info("Task moved",
		zap.Int64("task_id", taskID),
		zap.Int64("milestone_id", milestoneID),
		zap.Int("order", moved.Order),
	)
	return nil
}

// ListMilestoneTasks returns the milestone's tasks in display order.
func (s *TaskService) ListMilestoneTasks(ctx context.Context, userID string, milestoneID int64) ([]model.Task, error) {
	milestone, err := s.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, userID, milestone.ProjectID, rbac.PermissionReadProject); err != nil {
		return nil, err
	}
	return s.listTasks(ctx, milestoneID)
}

func (s *TaskService) listTasks(ctx context.Context, milestoneID int64) ([]model.Task, error) {
	tasks, err := s.tasks.ListByMilestone(ctx, milestoneID)
	if err != nil {
		return nil, persistence("list tasks", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func validateTask(t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("invalid_title", "title is required", nil)
	}
	if t.Priority < model.MinPriority || t.Priority > model.MaxPriority {
		return invalid("invalid_priority", "priority must be between 1 and 5", nil)
	}
	if !model.ValidTaskStatus(t.Status) {
		return invalid("invalid_status", "unknown task status", nil)
	}
	return nil
}

// CreateTask appends a new task to the milestone.
func (s *TaskService) CreateTask(ctx context.Context, userID string, milestoneID int64, in TaskInput) (*model.Task, error) {
	log := logger.WithTrace(ctx, s.logger)

	milestone, err := s.loadMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, userID, milestone.ProjectID, rbac.PermissionWriteTask); err != nil {
		return nil, err
	}

	task := &model.Task{
		ProjectID:          milestone.ProjectID,
		MilestoneID:        &milestone.ID,
		Title:              in.Title,
		Description:        in.Description,
		Status:             in.Status,
		Priority:           in.Priority,
		CreatedBy:          userID,
		AssignedTo:         in.AssignedTo,
		DueDate:            in.DueDate,
		DocumentID:         in.DocumentID,
		PolicyHeader:       in.PolicyHeader,
		PolicyContent:      in.PolicyContent,
		RecommendedContent: in.RecommendedContent,
	}
	if task.Status == "" {
		task.Status = model.TaskToDo
	}
	if task.Priority == 0 {
		task.Priority = defaultPriority
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("Failed to create task", zap.Int64("milestone_id", milestoneID), zap.Error(err))
		return nil, persistence("create task", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  task.ProjectID,
		ActionType: model.ActionCreateTask,
		EntityID:   task.ID,
		EntityType: model.EntityTask,
		Details: map[string]any{
			"title":       task.Title,
			"milestoneId": milestoneID,
		},
	})
	return task, nil
}

// UpdateTask applies patch to the task. Completing a task is logged as complete_task.
func (s *TaskService) UpdateTask(ctx context.Context, userID string, taskID int64, patch model.TaskPatch) (*model.Task, error) {
	log := logger.WithTrace(ctx, s.logger)

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, userID, task.ProjectID, rbac.PermissionWriteTask); err != nil {
		return nil, err
	}

	wasCompleted := task.Status == model.TaskCompleted
	patch.Apply(task)
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		log.Error("Failed to update task", zap.Int64("task_id", taskID), zap.Error(err))
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("task_not_found", "task not found")
		}
		return nil, persistence("update task", err)
	}

	action := model.ActionUpdateTask
	if !wasCompleted && task.Status == model.TaskCompleted {
		action = model.ActionCompleteTask
	}
	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  task.ProjectID,
		ActionType: action,
		EntityID:   task.ID,
		EntityType: model.EntityTask,
		Details: map[string]any{
			"title":  task.Title,
			"status": task.Status,
		},
	})
	return task, nil
}
