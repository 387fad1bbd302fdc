package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/repository"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/rbac"
)

type ProjectService struct {
	access    *Access
	projects  ProjectStore
	members   MemberStore
	documents DocumentStore
	users     UserStore
	activity  *ActivityLogger
	logger    *zap.Logger
}

func NewProjectService(
	access *Access,
	projects ProjectStore,
	members MemberStore,
	documents DocumentStore,
	users UserStore,
	activity *ActivityLogger,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		access:    access,
		projects:  projects,
		members:   members,
		documents: documents,
		users:     users,
		activity:  activity,
		logger:    logger,
	}
}

// CreateProject creates a project owned by userID, who also becomes its first Manager.
func (s *ProjectService) CreateProject(ctx context.Context, userID, name, description string) (*model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("invalid_name", "project name is required", nil)
	}

	p := &model.Project{
		Name:        name,
		Description: description,
		CreatedBy:   userID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		log.Error("Failed to create project", zap.String("user_id", userID), zap.Error(err))
		return nil, persistence("create project", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  p.ID,
		ActionType: model.ActionCreateProject,
		EntityID:   p.ID,
		EntityType: model.EntityProject,
		Details:    map[string]any{"name": p.Name},
	})

	log.Info("Project created", zap.Int64("project_id", p.ID), zap.String("user_id", userID))
	return p, nil
}

// UpdateProject changes name and description. Empty name keeps the current one.
func (s *ProjectService) UpdateProject(ctx context.Context, userID string, projectID int64, name, description *string) (*model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)

	p, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionUpdateProject)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if name != nil && strings.TrimSpace(*name) != "" && *name != p.Name {
		p.Name = strings.TrimSpace(*name)
		changed["name"] = p.Name
	}
	if description != nil && *description != p.Description {
		p.Description = *description
		changed["description"] = p.Description
	}
	if len(changed) == 0 {
		return p, nil
	}

	if err := s.projects.Update(ctx, p); err != nil {
		log.Error("Failed to update project", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, persistence("update project", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  p.ID,
		ActionType: model.ActionUpdateProject,
		EntityID:   p.ID,
		EntityType: model.EntityProject,
		Details:    changed,
	})
	return p, nil
}

// AddMember adds the user registered under email to the project with role.
func (s *ProjectService) AddMember(ctx context.Context, userID string, projectID int64, email, role string) (*model.ProjectMember, error) {
	log := logger.WithTrace(ctx, s.logger)

	if !rbac.ValidRole(role) {
		return nil, invalid("invalid_role", "role must be Manager, Researcher or Viewer", nil)
	}
	if _, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionManageMembers); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, persistence("find user", err)
	}

	m := &model.ProjectMember{
		ProjectID: projectID,
		UserID:    u.ID,
		Role:      role,
	}
	if err := s.members.Add(ctx, m); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("already_member", "user is already a member of this project")
		}
		log.Error("Failed to add member",
			zap.Int64("project_id", projectID),
			zap.String("member_id", u.ID),
			zap.Error(err),
		)
		return nil, persistence("add member", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  projectID,
		ActionType: model.ActionAddMember,
		EntityID:   m.ID,
		EntityType: model.EntityMember,
		Details: map[string]any{
			"memberId": u.ID,
			"email":    u.Email,
			"role":     role,
		},
	})

	log.Info("Member added",
		zap.Int64("project_id", projectID),
		zap.String("member_id", u.ID),
		zap.String("role", role),
	)
	return m, nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, userID string, projectID int64, memberID string) error {
	log := logger.WithTrace(ctx, s.logger)

	p, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionManageMembers)
	if err != nil {
		return err
	}
	if p.CreatedBy == memberID {
		return invalid("cannot_remove_owner", "the project creator cannot be removed", nil)
	}

	removed, err := s.members.Remove(ctx, projectID, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("member_not_found", "member not found")
		}
		log.Error("Failed to remove member", zap.Int64("project_id", projectID), zap.Error(err))
		return persistence("remove member", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  projectID,
		ActionType: model.ActionRemoveMember,
		EntityID:   removed.ID,
		EntityType: model.EntityMember,
		Details:    map[string]any{"memberId": memberID},
	})
	return nil
}

func (s *ProjectService) ListMembers(ctx context.Context, userID string, projectID int64) ([]model.ProjectMember, error) {
	if _, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionReadProject); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, projectID)
	if err != nil {
		return nil, persistence("list members", err)
	}
	if members == nil {
		members = []model.ProjectMember{}
	}
	return members, nil
}

func (s *ProjectService) AddDocument(ctx context.Context, userID string, projectID int64, title, fileURL string) (*model.Document, error) {
	log := logger.WithTrace(ctx, s.logger)

	if _, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionWriteDocument); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(fileURL) == "" {
		return nil, invalid("invalid_document", "title and url are required", nil)
	}

	d := &model.Document{
		ProjectID:  projectID,
		Title:      strings.TrimSpace(title),
		FileURL:    strings.TrimSpace(fileURL),
		UploadedBy: userID,
	}
	if err := s.documents.Create(ctx, d); err != nil {
		log.Error("Failed to add document", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, persistence("add document", err)
	}

	s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  projectID,
		ActionType: model.ActionAddDocument,
		EntityID:   d.ID,
		EntityType: model.EntityDocument,
		Details:    map[string]any{"title": d.Title},
	})
	return d, nil
}

// AddComment stores a comment on an entity of the project. The activity record
// is the comment itself, so a failed append is reported to the caller.
func (s *ProjectService) AddComment(ctx context.Context, userID string, projectID int64, entityType model.EntityType, entityID int64, text string) error {
	if _, err := s.access.Authorize(ctx, userID, projectID, rbac.PermissionComment); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return invalid("invalid_comment", "comment text is required", nil)
	}
	if entityType == "" {
		entityType = model.EntityProject
	}
	if !model.ValidEntityType(entityType) {
		return invalid("invalid_entity_type", "unknown entity type", nil)
	}
	if entityID == 0 {
		entityID = projectID
	}

	ok := s.activity.Record(ctx, Entry{
		UserID:     userID,
		ProjectID:  projectID,
		ActionType: model.ActionComment,
		EntityID:   entityID,
		EntityType: entityType,
		Details:    map[string]any{"text": text},
	})
	if !ok {
		return persistence("add comment", errors.New("activity append failed"))
	}
	return nil
}
