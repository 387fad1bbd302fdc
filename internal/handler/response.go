package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thinkhub/internal/service"
	"thinkhub/pkg/logger"
)

// userIDFrom 读取 AuthMiddleware 写入的 user_id
func userIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "user not authenticated"})
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "invalid user_id"})
		return "", false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "message": "invalid " + name})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": message})
}

func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError 把 service 错误映射为 HTTP 状态码和 {error, message}
func writeError(c *gin.Context, l *zap.Logger, op string, err error) {
	log := logger.WithTrace(c.Request.Context(), l)

	var de *service.DomainError
	if !errors.As(err, &de) {
		log.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
		return
	}

	status := statusFor(de.Kind)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.String("code", de.Code), zap.Error(err))
		c.JSON(status, gin.H{"error": de.Code, "message": "internal server error"})
		return
	}

	log.Info(op+" rejected", zap.String("code", de.Code), zap.Int("status", status))
	c.JSON(status, gin.H{"error": de.Code, "message": de.Message})
}
