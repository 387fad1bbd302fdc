package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thinkhub/internal/service"
)

// ActivityHandler 只读聚合接口：动态流与仪表盘
type ActivityHandler struct {
	feed      *service.FeedService
	dashboard *service.DashboardService
	logger    *zap.Logger
}

func NewActivityHandler(feed *service.FeedService, dashboard *service.DashboardService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{feed: feed, dashboard: dashboard, logger: logger}
}

// RecentActivity 返回当前用户可见项目的最近动态
// GET /activity?limit=20
func (h *ActivityHandler) RecentActivity(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	views, err := h.feed.RecentActivity(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, h.logger, "RecentActivity", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// DashboardStats 仪表盘统计
// GET /dashboard/stats
func (h *ActivityHandler) DashboardStats(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	stats, err := h.dashboard.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "DashboardStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
