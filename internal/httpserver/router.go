package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"thinkhub/internal/handler"
)

// Pinger 由 *pgxpool.Pool 实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker 由 *mq.Publisher 实现
type ConnChecker interface {
	IsConnected() bool
}

type Handlers struct {
	Auth     *handler.AuthHandler
	Activity *handler.ActivityHandler
	Projects *handler.ProjectHandler
	Tasks    *handler.TaskHandler
}

// NewRouter 组装 gin 路由；未启用 outbox 时 publisher 为 nil
func NewRouter(h Handlers, jwtSecret string, logger *zap.Logger, db Pinger, publisher ConnChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/activity", h.Activity.RecentActivity)
		auth.GET("/dashboard/stats", h.Activity.DashboardStats)

		auth.POST("/projects", h.Projects.CreateProject)
		auth.PATCH("/projects/:id", h.Projects.UpdateProject)
		auth.GET("/projects/:id/members", h.Projects.ListMembers)
		auth.POST("/projects/:id/members", h.Projects.AddMember)
		auth.DELETE("/projects/:id/members/:userId", h.Projects.RemoveMember)
		auth.POST("/projects/:id/documents", h.Projects.AddDocument)
		auth.POST("/projects/:id/comments", h.Projects.AddComment)
		auth.POST("/projects/:id/milestones", h.Tasks.CreateMilestone)

		auth.POST("/milestones/:id/complete", h.Tasks.CompleteMilestone)
		auth.GET("/milestones/:id/tasks", h.Tasks.ListTasks)
		auth.POST("/milestones/:id/tasks", h.Tasks.CreateTask)
		auth.PUT("/milestones/:id/tasks/order", h.Tasks.ReorderTasks)

		auth.PATCH("/tasks/:id", h.Tasks.UpdateTask)
		auth.PATCH("/tasks/:id/milestone", h.Tasks.MoveTask)
	}

	return r
}
