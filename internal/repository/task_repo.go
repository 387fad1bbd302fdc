package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/ordering"
	"thinkhub/pkg/util"
)

const taskColumns = `id, project_id, milestone_id, title, description, status, priority,
        created_by, assigned_to, due_date, document_id, policy_header, policy_content,
        recommended_content, "order", created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.MilestoneID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatedBy,
		&t.AssignedTo,
		&t.DueDate,
		&t.DocumentID,
		&t.PolicyHeader,
		&t.PolicyContent,
		&t.RecommendedContent,
		&t.Order,
		&t.CreatedAt,
	)
	return t, err
}

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// lockMilestone serializes writers of one milestone's order column for the rest of tx.
func lockMilestone(ctx context.Context, tx pgx.Tx, milestoneID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM milestones WHERE id = $1 FOR UPDATE`, milestoneID).Scan(&id)
	if util.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

// maxMilestoneOrder must run under lockMilestone.
func maxMilestoneOrder(ctx context.Context, tx pgx.Tx, milestoneID int64) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COALESCE(MAX("order"), $2) FROM tasks WHERE milestone_id = $1`,
		milestoneID, ordering.NoTasks).Scan(&n)
	return n, err
}

// Create appends the task at the end of its milestone.
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.Int64("project_id", t.ProjectID),
		zap.String("title", t.Title),
		zap.String("status", t.Status),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	t.Order = 0
	if t.MilestoneID != nil {
		if err := lockMilestone(ctx, tx, *t.MilestoneID); err != nil {
			return err
		}
		last, err := maxMilestoneOrder(ctx, tx, *t.MilestoneID)
		if err != nil {
			return err
		}
		t.Order = ordering.AppendOrder(last)
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO tasks (project_id, milestone_id, title, description, status, priority,
            created_by, assigned_to, due_date, document_id, policy_header, policy_content,
            recommended_content, "order")
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id, created_at
    `,
		t.ProjectID,
		t.MilestoneID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.CreatedBy,
		t.AssignedTo,
		t.DueDate,
		t.DocumentID,
		t.PolicyHeader,
		t.PolicyContent,
		t.RecommendedContent,
		t.Order,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if util.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		r.logger.Error("Failed to insert task", zap.Int64("project_id", t.ProjectID), zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int64("task_id", t.ID),
		zap.Int("order", t.Order),
	)
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if util.IsNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to find task", zap.Int64("task_id", id), zap.Error(err))
		return nil, err
	}
	return &t, nil
}

// Update writes the editable fields. Milestone and order are changed only by Reorder and Move.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE tasks SET
            title = $2, description = $3, status = $4, priority = $5, assigned_to = $6,
            due_date = $7, document_id = $8, policy_header = $9, policy_content = $10,
            recommended_content = $11
        WHERE id = $1
    `,
		t.ID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.AssignedTo,
		t.DueDate,
		t.DocumentID,
		t.PolicyHeader,
		t.PolicyContent,
		t.RecommendedContent,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int64("task_id", t.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) ListByMilestone(ctx context.Context, milestoneID int64) ([]model.Task, error) {
	return r.listByMilestone(ctx, r.db, milestoneID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *TaskRepository) listByMilestone(ctx context.Context, q querier, milestoneID int64) ([]model.Task, error) {
	rows, err := q.Query(ctx, `
        SELECT `+taskColumns+`
        FROM tasks
        WHERE milestone_id = $1
        ORDER BY "order" ASC, id ASC
    `, milestoneID)
	if err != nil {
		r.logger.Error("Failed to list milestone tasks", zap.Int64("milestone_id", milestoneID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Reorder locks the milestone, validates taskIDs against its current tasks and
// rewrites every order value in one transaction.
func (r *TaskRepository) Reorder(ctx context.Context, milestoneID int64, taskIDs []int64) ([]model.Task, error) {
	r.logger.Debug("Reordering tasks",
		zap.Int64("milestone_id", milestoneID),
		zap.Int64s("task_ids", taskIDs),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockMilestone(ctx, tx, milestoneID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
        SELECT id FROM tasks
        WHERE milestone_id = $1
        ORDER BY "order", id
        FOR UPDATE
    `, milestoneID)
	if err != nil {
		return nil, err
	}
	current, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}

	if err := ordering.ValidatePermutation(current, taskIDs); err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, a := range ordering.Assign(taskIDs) {
		batch.Queue(`UPDATE tasks SET "order" = $1 WHERE id = $2 AND milestone_id = $3`, a.Order, a.TaskID, milestoneID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("Failed to apply task order batch", zap.Int64("milestone_id", milestoneID), zap.Error(err))
		return nil, err
	}

	tasks, err := r.listByMilestone(ctx, tx, milestoneID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Tasks reordered successfully",
		zap.Int64("milestone_id", milestoneID),
		zap.Int("task_count", len(tasks)),
	)
	return tasks, nil
}

// Move puts the task at the end of milestoneID. The source milestone keeps its
// remaining order values.
func (r *TaskRepository) Move(ctx context.Context, taskID, milestoneID int64) (*model.Task, error) {
	r.logger.Debug("Moving task",
		zap.Int64("task_id", taskID),
		zap.Int64("milestone_id", milestoneID),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockMilestone(ctx, tx, milestoneID); err != nil {
		return nil, err
	}

	t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, taskID))
	if err != nil {
		if util.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t.InMilestone(milestoneID) {
		return &t, nil
	}

	last, err := maxMilestoneOrder(ctx, tx, milestoneID)
	if err != nil {
		return nil, err
	}
	t.Order = ordering.AppendOrder(last)
	t.MilestoneID = &milestoneID

	if _, err := tx.Exec(ctx, `UPDATE tasks SET milestone_id = $2, "order" = $3 WHERE id = $1`, taskID, milestoneID, t.Order); err != nil {
		r.logger.Error("Failed to move task", zap.Int64("task_id", taskID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Task moved successfully",
		zap.Int64("task_id", taskID),
		zap.Int64("milestone_id", milestoneID),
		zap.Int("order", t.Order),
	)
	return &t, nil
}
