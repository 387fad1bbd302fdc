package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/util"
)

type MemberRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMemberRepository(db *pgxpool.Pool, logger *zap.Logger) *MemberRepository {
	return &MemberRepository{db: db, logger: logger}
}

func (r *MemberRepository) Role(ctx context.Context, projectID int64, userID string) (string, error) {
	var role string
	err := r.db.QueryRow(ctx, `
        SELECT role FROM project_members
        WHERE project_id = $1 AND user_id = $2
    `, projectID, userID).Scan(&role)
	if err != nil {
		if util.IsNoRows(err) {
			return "", ErrNotFound
		}
		r.logger.Error("Failed to load member role",
			zap.Int64("project_id", projectID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return "", err
	}
	return role, nil
}

// Add inserts a membership. A second row for the same (project, user) is rejected by the unique key.
func (r *MemberRepository) Add(ctx context.Context, m *model.ProjectMember) error {
	r.logger.Debug("Inserting project member",
		zap.Int64("project_id", m.ProjectID),
		zap.String("user_id", m.UserID),
		zap.String("role", m.Role),
	)

	err := r.db.QueryRow(ctx, `
        INSERT INTO project_members (project_id, user_id, role)
        VALUES ($1, $2, $3)
        RETURNING id, joined_at
    `, m.ProjectID, m.UserID, m.Role).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		switch {
		case util.IsUniqueViolation(err):
			return ErrConflict
		case util.IsForeignKeyViolation(err):
			return ErrNotFound
		}
		r.logger.Error("Failed to insert project member", zap.Error(err))
		return err
	}

	r.logger.Info("Project member inserted successfully",
		zap.Int64("member_id", m.ID),
		zap.Int64("project_id", m.ProjectID),
	)
	return nil
}

func (r *MemberRepository) Remove(ctx context.Context, projectID int64, userID string) (*model.ProjectMember, error) {
	var m model.ProjectMember
	err := r.db.QueryRow(ctx, `
        DELETE FROM project_members
        WHERE project_id = $1 AND user_id = $2
        RETURNING id, project_id, user_id, role, joined_at
    `, projectID, userID).Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if util.IsNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to delete project member", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Project member removed",
		zap.Int64("project_id", projectID),
		zap.String("user_id", userID),
		zap.Int64("member_id", m.ID),
	)
	return &m, nil
}

func (r *MemberRepository) List(ctx context.Context, projectID int64) ([]model.ProjectMember, error) {
	rows, err := r.db.Query(ctx, `
        SELECT pm.id, pm.project_id, pm.user_id, pm.role, pm.joined_at, u.name, u.email
        FROM project_members pm
        JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = $1
        ORDER BY pm.id
    `, projectID)
	if err != nil {
		r.logger.Error("Failed to list project members", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	members := []model.ProjectMember{}
	for rows.Next() {
		var m model.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &m.UserName, &m.UserEmail); err != nil {
			r.logger.Error("Failed to scan project member", zap.Error(err))
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) UserIDs(ctx context.Context, projectIDs []int64) ([]string, error) {
	if len(projectIDs) == 0 {
		return []string{}, nil
	}

	rows, err := r.db.Query(ctx, `
        SELECT DISTINCT user_id FROM project_members
        WHERE project_id = ANY($1)
        ORDER BY user_id
    `, projectIDs)
	if err != nil {
		r.logger.Error("Failed to query member user ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

func (r *DocumentRepository) Create(ctx context.Context, d *model.Document) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO documents (project_id, title, file_url, uploaded_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, d.ProjectID, d.Title, d.FileURL, d.UploadedBy).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if util.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		r.logger.Error("Failed to insert document", zap.Int64("project_id", d.ProjectID), zap.Error(err))
		return err
	}

	r.logger.Info("Document inserted successfully",
		zap.Int64("document_id", d.ID),
		zap.Int64("project_id", d.ProjectID),
	)
	return nil
}
