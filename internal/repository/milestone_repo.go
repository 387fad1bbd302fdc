package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/util"
)

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MilestoneRepository) Create(ctx context.Context, m *model.Milestone) error {
	r.logger.Debug("Inserting milestone",
		zap.Int64("project_id", m.ProjectID),
		zap.String("title", m.Title),
		zap.Time("due_date", m.DueDate),
	)

	query := `
        INSERT INTO milestones (project_id, title, description, due_date, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		m.ProjectID,
		m.Title,
		m.Description,
		m.DueDate,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		if util.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		r.logger.Error("Failed to insert milestone", zap.Error(err))
		return err
	}

	r.logger.Info("Milestone inserted successfully",
		zap.Int64("id", m.ID),
		zap.Int64("project_id", m.ProjectID),
	)
	return nil
}

func (r *MilestoneRepository) FindByID(ctx context.Context, id int64) (*model.Milestone, error) {
	query := `
        SELECT id, project_id, title, description, due_date, status, created_at
        FROM milestones
        WHERE id = $1
    `

	var m model.Milestone
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.ProjectID,
		&m.Title,
		&m.Description,
		&m.DueDate,
		&m.Status,
		&m.CreatedAt,
	)
	if err != nil {
		if util.IsNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to find milestone", zap.Int64("milestone_id", id), zap.Error(err))
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE milestones SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error("Failed to update milestone status", zap.Int64("milestone_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Milestone status updated",
		zap.Int64("milestone_id", id),
		zap.String("status", status),
	)
	return nil
}
