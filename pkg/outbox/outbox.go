// Package outbox stores domain events in the same transaction as the rows they
// describe and relays them to the message bus afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// claimLease hides a claimed event from other dispatchers while it is being published.
const claimLease = 30 * time.Second

// Event is one row of outbox_events. Field order matches eventColumns.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   *int64
	RoutingKey    string
	Payload       json.RawMessage
	Status        string
	RetryCount    int
	NextRetryAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const eventColumns = `id, aggregate_type, aggregate_id, routing_key, payload, status,
        retry_count, next_retry_at, created_at, updated_at`

// Message is what a writer enqueues; Payload is JSON-encoded.
type Message struct {
	AggregateType string
	AggregateID   *int64
	RoutingKey    string
	Payload       any
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Enqueue 必须在业务事务中调用，事件与业务数据一起提交或回滚
func (r *Repository) Enqueue(ctx context.Context, tx pgx.Tx, msg Message) (int64, error) {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode outbox payload: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
        INSERT INTO outbox_events (aggregate_type, aggregate_id, routing_key, payload, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, msg.AggregateType, msg.AggregateID, msg.RoutingKey, payload, StatusPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return id, nil
}

// ClaimPending returns up to limit due events, oldest first, and pushes their
// next_retry_at forward by claimLease so concurrent dispatchers skip them.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := r.db.Query(ctx, `
        UPDATE outbox_events
        SET next_retry_at = NOW() + make_interval(secs => $2::float8), updated_at = NOW()
        WHERE id IN (
            SELECT id FROM outbox_events
            WHERE status = 'pending'
              AND (next_retry_at IS NULL OR next_retry_at <= NOW())
            ORDER BY created_at, id
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING `+eventColumns, limit, claimLease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending events: %w", err)
	}

	events, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[Event])
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox events: %w", err)
	}
	// RETURNING 不保证顺序
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (r *Repository) MarkSent(ctx context.Context, eventID int64) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_events
        SET status = 'sent', next_retry_at = NULL, updated_at = NOW()
        WHERE id = $1
    `, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event %d sent: %w", eventID, err)
	}
	return nil
}

// MarkFailed counts a failed attempt. The event is parked as failed after
// maxRetries attempts; until then it backs off exponentially, capped at 5 minutes.
func (r *Repository) MarkFailed(ctx context.Context, eventID int64, maxRetries int) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_events
        SET retry_count = retry_count + 1,
            status = CASE WHEN retry_count + 1 >= $2 THEN 'failed' ELSE 'pending' END,
            next_retry_at = CASE WHEN retry_count + 1 >= $2 THEN NULL
                ELSE NOW() + LEAST(POWER(2, retry_count) * 5, 300) * INTERVAL '1 second' END,
            updated_at = NOW()
        WHERE id = $1
    `, eventID, maxRetries)
	if err != nil {
		return fmt.Errorf("failed to mark event %d failed: %w", eventID, err)
	}
	return nil
}

// Release makes a claimed event due again without counting an attempt.
func (r *Repository) Release(ctx context.Context, eventID int64) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_events SET next_retry_at = NULL, updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `, eventID)
	if err != nil {
		return fmt.Errorf("failed to release event %d: %w", eventID, err)
	}
	return nil
}
