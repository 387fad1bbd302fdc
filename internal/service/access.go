package service

import (
	"context"
	"errors"

	"thinkhub/internal/model"
	"thinkhub/internal/repository"
	"thinkhub/pkg/rbac"
)

// Access decides what a user may do inside one project.
type Access struct {
	projects ProjectStore
	members  MemberStore
}

func NewAccess(projects ProjectStore, members MemberStore) *Access {
	return &Access{projects: projects, members: members}
}

// RoleOf returns the user's role in the project. The creator is always a Manager.
func (a *Access) RoleOf(ctx context.Context, userID string, project *model.Project) (string, error) {
	if project.CreatedBy == userID {
		return rbac.RoleManager, nil
	}

	role, err := a.members.Role(ctx, project.ID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", persistence("load member role", err)
	}
	return role, nil
}

// Authorize loads the project and checks that userID holds permission on it.
func (a *Access) Authorize(ctx context.Context, userID string, projectID int64, permission string) (*model.Project, error) {
	project, err := a.projects.FindByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("project_not_found", "project not found")
	}
	if err != nil {
		return nil, persistence("load project", err)
	}

	role, err := a.RoleOf(ctx, userID, project)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, forbidden("not a member of this project", nil)
	}
	if err := rbac.CheckPermission(role, permission); err != nil {
		return nil, forbidden("insufficient permissions", err)
	}
	return project, nil
}
