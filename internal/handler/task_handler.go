package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/service"
)

// TaskHandler 里程碑与任务接口
type TaskHandler struct {
	milestones *service.MilestoneService
	tasks      *service.TaskService
	logger     *zap.Logger
}

func NewTaskHandler(milestones *service.MilestoneService, tasks *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{milestones: milestones, tasks: tasks, logger: logger}
}

// CreateMilestone 创建里程碑
// POST /projects/:id/milestones
func (h *TaskHandler) CreateMilestone(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		DueDate     time.Time `json:"due_date" binding:"required"`
		Status      string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title and due_date are required")
		return
	}

	m, err := h.milestones.CreateMilestone(c.Request.Context(), userID, projectID, service.MilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, h.logger, "CreateMilestone", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// CompleteMilestone 标记里程碑完成
// POST /milestones/:id/complete
func (h *TaskHandler) CompleteMilestone(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	milestoneID, ok := pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.milestones.CompleteMilestone(c.Request.Context(), userID, milestoneID)
	if err != nil {
		writeError(c, h.logger, "CompleteMilestone", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListTasks 按显示顺序返回里程碑下的任务
// GET /milestones/:id/tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	milestoneID, ok := pathID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.tasks.ListMilestoneTasks(c.Request.Context(), userID, milestoneID)
	if err != nil {
		writeError(c, h.logger, "ListTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CreateTask 在里程碑末尾追加任务
// POST /milestones/:id/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	milestoneID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title              string     `json:"title" binding:"required"`
		Description        string     `json:"description"`
		Status             string     `json:"status"`
		Priority           int        `json:"priority"`
		AssignedTo         *string    `json:"assigned_to"`
		DueDate            *time.Time `json:"due_date"`
		DocumentID         *int64     `json:"document_id"`
		PolicyHeader       *string    `json:"policy_header"`
		PolicyContent      *string    `json:"policy_content"`
		RecommendedContent *string    `json:"recommended_content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title is required")
		return
	}

	t, err := h.tasks.CreateTask(c.Request.Context(), userID, milestoneID, service.TaskInput{
		Title:              req.Title,
		Description:        req.Description,
		Status:             req.Status,
		Priority:           req.Priority,
		AssignedTo:         req.AssignedTo,
		DueDate:            req.DueDate,
		DocumentID:         req.DocumentID,
		PolicyHeader:       req.PolicyHeader,
		PolicyContent:      req.PolicyContent,
		RecommendedContent: req.RecommendedContent,
	})
	if err != nil {
		writeError(c, h.logger, "CreateTask", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ReorderTasks 按给定的完整 id 列表重排任务
// PUT /milestones/:id/tasks/order
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	milestoneID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Tasks []int64 `json:"tasks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Tasks == nil {
		badRequest(c, "tasks must be an array of task ids")
		return
	}

	tasks, err := h.tasks.ReorderTasks(c.Request.Context(), userID, milestoneID, req.Tasks)
	if err != nil {
		writeError(c, h.logger, "ReorderTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateTask 部分更新任务字段
// PATCH /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request")
		return
	}

	t, err := h.tasks.UpdateTask(c.Request.Context(), userID, taskID, patch)
	if err != nil {
		writeError(c, h.logger, "UpdateTask", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// MoveTask 把任务移到另一个里程碑末尾
// PATCH /tasks/:id/milestone
func (h *TaskHandler) MoveTask(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		MilestoneID int64 `json:"milestoneId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "milestoneId is required")
		return
	}

	if err := h.tasks.MoveTask(c.Request.Context(), userID, taskID, req.MilestoneID); err != nil {
		writeError(c, h.logger, "MoveTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
