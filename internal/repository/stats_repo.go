package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/internal/model"
)

// StatsRepository runs the dashboard aggregates. Every method answers an empty
// project list without touching the database.
type StatsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStatsRepository(db *pgxpool.Pool, logger *zap.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

func (r *StatsRepository) count(ctx context.Context, name, query string, projectIDs []int64) (int, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	var n int
	if err := r.db.QueryRow(ctx, query, projectIDs).Scan(&n); err != nil {
		r.logger.Error("Failed to run dashboard count", zap.String("count", name), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (r *StatsRepository) CountActiveMilestones(ctx context.Context, projectIDs []int64) (int, error) {
	return r.count(ctx, "active_milestones", `
        SELECT COUNT(*) FROM milestones
        WHERE project_id = ANY($1) AND status IN ('Planned', 'In Progress')
    `, projectIDs)
}

func (r *StatsRepository) CountDistinctMembers(ctx context.Context, projectIDs []int64) (int, error) {
	return r.count(ctx, "team_members", `
        SELECT COUNT(DISTINCT user_id) FROM project_members
        WHERE project_id = ANY($1)
    `, projectIDs)
}

func (r *StatsRepository) CountTasks(ctx context.Context, projectIDs []int64) (int, int, error) {
	if len(projectIDs) == 0 {
		return 0, 0, nil
	}

	var total, completed int
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Completed')
        FROM tasks
        WHERE project_id = ANY($1)
    `, projectIDs).Scan(&total, &completed)
	if err != nil {
		r.logger.Error("Failed to count tasks", zap.Error(err))
		return 0, 0, err
	}
	return total, completed, nil
}

func (r *StatsRepository) UpcomingDeadlines(ctx context.Context, projectIDs []int64, from, to time.Time, limit int) ([]model.MilestoneDeadline, error) {
	if len(projectIDs) == 0 {
		return []model.MilestoneDeadline{}, nil
	}

	rows, err := r.db.Query(ctx, `
        SELECT m.id, m.project_id, m.title, m.description, m.due_date, m.status, m.created_at, p.name
        FROM milestones m
        JOIN projects p ON p.id = m.project_id
        WHERE m.project_id = ANY($1)
          AND m.status IN ('Planned', 'In Progress')
          AND m.due_date > $2 AND m.due_date < $3
        ORDER BY m.due_date ASC, m.id ASC
        LIMIT $4
    `, projectIDs, from, to, limit)
	if err != nil {
		r.logger.Error("Failed to query upcoming deadlines", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.MilestoneDeadline{}
	for rows.Next() {
		var d model.MilestoneDeadline
		if err := rows.Scan(
			&d.ID,
			&d.ProjectID,
			&d.Title,
			&d.Description,
			&d.DueDate,
			&d.Status,
			&d.CreatedAt,
			&d.ProjectName,
		); err != nil {
			r.logger.Error("Failed to scan deadline", zap.Error(err))
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
