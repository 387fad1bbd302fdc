package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	logger   *zap.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// CreateProject 创建项目，创建者自动成为 Manager
// POST /projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	p, err := h.projects.CreateProject(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(c, h.logger, "CreateProject", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProject 修改项目名称或描述
// PATCH /projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	p, err := h.projects.UpdateProject(c.Request.Context(), userID, projectID, req.Name, req.Description)
	if err != nil {
		writeError(c, h.logger, "UpdateProject", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListMembers 列出项目成员
// GET /projects/:id/members
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.projects.ListMembers(c.Request.Context(), userID, projectID)
	if err != nil {
		writeError(c, h.logger, "ListMembers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember 按邮箱添加成员
// POST /projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email" binding:"required"`
		Role  string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and role are required")
		return
	}

	m, err := h.projects.AddMember(c.Request.Context(), userID, projectID, req.Email, req.Role)
	if err != nil {
		writeError(c, h.logger, "AddMember", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// RemoveMember 移除成员
// DELETE /projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.projects.RemoveMember(c.Request.Context(), userID, projectID, c.Param("userId")); err != nil {
		writeError(c, h.logger, "RemoveMember", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddDocument 登记项目文档
// POST /projects/:id/documents
func (h *ProjectHandler) AddDocument(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title   string `json:"title" binding:"required"`
		FileURL string `json:"file_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title and file_url are required")
		return
	}

	d, err := h.projects.AddDocument(c.Request.Context(), userID, projectID, req.Title, req.FileURL)
	if err != nil {
		writeError(c, h.logger, "AddDocument", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// AddComment 在项目或其实体上发表评论
// POST /projects/:id/comments
func (h *ProjectHandler) AddComment(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Text       string `json:"text" binding:"required"`
		EntityType string `json:"entity_type"`
		EntityID   int64  `json:"entity_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "text is required")
		return
	}

	err := h.projects.AddComment(c.Request.Context(), userID, projectID, model.EntityType(req.EntityType), req.EntityID, req.Text)
	if err != nil {
		writeError(c, h.logger, "AddComment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}
