package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contractmq "thinkhub/contracts/mq"
	"thinkhub/internal/model"
	"thinkhub/pkg/outbox"
	"thinkhub/pkg/trace"
)

// ActivityRepository is the append-only activity log. Each append also queues an
// activity.recorded event in the outbox within the same transaction.
type ActivityRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewActivityRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

func (r *ActivityRepository) Append(ctx context.Context, a *model.Activity) error {
	r.logger.Debug("Appending activity",
		zap.String("user_id", a.UserID),
		zap.Int64("project_id", a.ProjectID),
		zap.String("action_type", string(a.ActionType)),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        INSERT INTO activities (user_id, project_id, action_type, entity_id, entity_type, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
        RETURNING id, created_at
    `,
		a.UserID,
		a.ProjectID,
		string(a.ActionType),
		a.EntityID,
		string(a.EntityType),
		a.Details,
		nullTime(a.CreatedAt),
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert activity", zap.Error(err))
		return err
	}

	if r.outbox != nil {
		payload := contractmq.ActivityRecordedPayload{
			ActivityID: a.ID,
			UserID:     a.UserID,
			ProjectID:  a.ProjectID,
			ActionType: string(a.ActionType),
			EntityType: string(a.EntityType),
			EntityID:   a.EntityID,
			TraceID:    trace.FromContext(ctx),
			CreatedAt:  a.CreatedAt,
		}
		if id, ok := a.Details["memberId"].(string); ok {
			payload.MemberID = id
		}
		msg := outbox.Message{
			AggregateType: "activity",
			AggregateID:   &a.ID,
			RoutingKey:    contractmq.RoutingKeyActivityRecorded,
			Payload:       payload,
		}
		if _, err := r.outbox.Enqueue(ctx, tx, msg); err != nil {
			r.logger.Error("Failed to insert activity.recorded to outbox", zap.Int64("activity_id", a.ID), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Activity appended",
		zap.Int64("activity_id", a.ID),
		zap.Int64("project_id", a.ProjectID),
		zap.String("action_type", string(a.ActionType)),
	)
	return nil
}

// Recent returns the newest records of projectIDs ordered by (created_at, id) descending.
func (r *ActivityRepository) Recent(ctx context.Context, projectIDs []int64, limit int) ([]model.Activity, error) {
	if len(projectIDs) == 0 || limit <= 0 {
		return []model.Activity{}, nil
	}

	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, project_id, action_type, entity_id, entity_type, details, created_at
        FROM activities
        WHERE project_id = ANY($1)
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, projectIDs, limit)
	if err != nil {
		r.logger.Error("Failed to query recent activity", zap.Int("project_count", len(projectIDs)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		var (
			a          model.Activity
			actionType string
			entityType string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProjectID, &actionType, &a.EntityID, &entityType, &a.Details, &a.CreatedAt); err != nil {
			r.logger.Error("Failed to scan activity", zap.Error(err))
			return nil, err
		}
		a.ActionType = model.ActionType(actionType)
		a.EntityType = model.EntityType(entityType)
		out = append(out, a)
	}
	return out, rows.Err()
}
