package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/logger"
	"thinkhub/pkg/metrics"
)

// Entry describes one state change to append to the activity log.
type Entry struct {
	UserID     string
	ProjectID  int64
	ActionType model.ActionType
	EntityID   int64
	EntityType model.EntityType
	Details    map[string]any
}

// ActivityLogger appends audit records. It never fails the operation it describes:
// errors are logged, counted and swallowed.
type ActivityLogger struct {
	writer ActivityWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewActivityLogger(writer ActivityWriter, logger *zap.Logger) *ActivityLogger {
	return &ActivityLogger{
		writer: writer,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for created_at.
func (l *ActivityLogger) WithClock(now func() time.Time) *ActivityLogger {
	if now != nil {
		l.now = now
	}
	return l
}

// Record appends one activity record and reports whether it was written.
func (l *ActivityLogger) Record(ctx context.Context, e Entry) bool {
	log := logger.WithTrace(ctx, l.logger)

	details := e.Details
	if details == nil {
		details = map[string]any{}
	}

	a := &model.Activity{
		UserID:     e.UserID,
		ProjectID:  e.ProjectID,
		ActionType: e.ActionType,
		EntityID:   e.EntityID,
		EntityType: e.EntityType,
		Details:    details,
		CreatedAt:  l.now().UTC(),
	}

	if err := l.writer.Append(ctx, a); err != nil {
		log.Warn("Failed to record activity",
			zap.String("user_id", e.UserID),
			zap.Int64("project_id", e.ProjectID),
			zap.String("action_type", string(e.ActionType)),
			zap.Int64("entity_id", e.EntityID),
			zap.Error(err),
		)
		metrics.IncrementActivityLogFailure(string(e.ActionType))
		return false
	}

	metrics.IncrementActivityRecorded(string(e.ActionType))
	log.Debug("Activity recorded",
		zap.Int64("activity_id", a.ID),
		zap.String("action_type", string(e.ActionType)),
	)
	return true
}
