package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/rbac"
	"thinkhub/pkg/util"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

// Create inserts the project and its creator as a Manager member in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.String("created_by", p.CreatedBy),
		zap.String("name", p.Name),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        INSERT INTO projects (name, description, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `, p.Name, p.Description, p.CreatedBy).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return err
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO project_members (project_id, user_id, role)
        VALUES ($1, $2, $3)
    `, p.ID, p.CreatedBy, rbac.RoleManager); err != nil {
		r.logger.Error("Failed to insert creator membership", zap.Int64("project_id", p.ID), zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Project inserted successfully",
		zap.Int64("project_id", p.ID),
		zap.String("created_by", p.CreatedBy),
	)
	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE projects SET name = $2, description = $3
        WHERE id = $1
    `, p.ID, p.Name, p.Description)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int64("project_id", p.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := r.db.QueryRow(ctx, `
        SELECT id, name, description, created_by, created_at
        FROM projects
        WHERE id = $1
    `, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if util.IsNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to find project", zap.Int64("project_id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id, name FROM projects WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error("Failed to query project names", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func (r *ProjectRepository) IDsCreatedBy(ctx context.Context, userID string) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT id FROM projects WHERE created_by = $1 ORDER BY id`, userID)
}

func (r *ProjectRepository) IDsWithMember(ctx context.Context, userID string) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT DISTINCT project_id FROM project_members WHERE user_id = $1 ORDER BY project_id`, userID)
}

func (r *ProjectRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query project ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
