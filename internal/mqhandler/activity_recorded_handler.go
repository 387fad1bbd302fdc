package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	contractmq "thinkhub/contracts/mq"
	"thinkhub/internal/model"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/mq"
	"thinkhub/pkg/trace"
	"thinkhub/pkg/util"
)

const dedupHandlerName = "dashboard_invalidate"

// MemberLister 查询项目成员的 user id
type MemberLister interface {
	UserIDs(ctx context.Context, projectIDs []int64) ([]string, error)
}

// StatsInvalidator 删除 dashboard 统计缓存
type StatsInvalidator interface {
	InvalidateUsers(ctx context.Context, userIDs ...string) error
}

// ActivityRecordedHandler 消费 activity.recorded，失效项目内所有用户的 dashboard 缓存
type ActivityRecordedHandler struct {
	members   MemberLister
	dashboard StatsInvalidator
	deduper   *util.Deduper
	logger    *zap.Logger
}

func NewActivityRecordedHandler(members MemberLister, dashboard StatsInvalidator, deduper *util.Deduper, logger *zap.Logger) *ActivityRecordedHandler {
	return &ActivityRecordedHandler{
		members:   members,
		dashboard: dashboard,
		deduper:   deduper,
		logger:    logger,
	}
}

// affectsStats 评论不会改变任何统计数字
func affectsStats(action string) bool {
	return action != string(model.ActionComment)
}

// HandleActivityRecorded -- 失效受影响用户的 dashboard 缓存
func (h *ActivityRecordedHandler) HandleActivityRecorded(ctx context.Context, raw json.RawMessage) error {
	var p contractmq.ActivityRecordedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal activity recorded payload", zap.Error(err))
		return fmt.Errorf("%w: %v", mq.ErrMalformed, err)
	}
	if p.ActivityID <= 0 || p.ProjectID <= 0 {
		h.logger.Error("Activity recorded payload missing ids",
			zap.Int64("activity_id", p.ActivityID),
			zap.Int64("project_id", p.ProjectID),
		)
		return fmt.Errorf("%w: missing activity or project id", mq.ErrMalformed)
	}

	if p.TraceID != "" {
		ctx = trace.WithContext(ctx, p.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(
		zap.Int64("activity_id", p.ActivityID),
		zap.Int64("project_id", p.ProjectID),
		zap.String("action_type", p.ActionType),
	)

	if !affectsStats(p.ActionType) {
		log.Debug("Activity does not affect dashboard stats, skipping")
		return nil
	}

	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, dedupHandlerName, p.ActivityID) {
		log.Info("Duplicate activity event, skipping")
		return nil
	}

	userIDs, err := h.members.UserIDs(ctx, []int64{p.ProjectID})
	if err != nil {
		log.Error("Failed to load project members", zap.Error(err))
		h.release(ctx, p.ActivityID)
		return err
	}
	// 被移除的成员已不在成员列表里
	userIDs = lo.Uniq(append(userIDs, lo.Compact([]string{p.UserID, p.MemberID})...))

	if err := h.dashboard.InvalidateUsers(ctx, userIDs...); err != nil {
		log.Error("Failed to invalidate dashboard stats", zap.Int("users", len(userIDs)), zap.Error(err))
		h.release(ctx, p.ActivityID)
		return err
	}

	log.Info("Dashboard stats invalidated", zap.Int("users", len(userIDs)))
	return nil
}

func (h *ActivityRecordedHandler) release(ctx context.Context, activityID int64) {
	if h.deduper != nil {
		h.deduper.Release(ctx, dedupHandlerName, activityID)
	}
}
