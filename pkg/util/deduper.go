package util

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper guards at-least-once consumers with a redis SETNX marker per
// (handler, event) pair. Markers expire after ttl.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{rdb: rdb, ttl: ttl, logger: logger}
}

func dedupKey(handler string, eventID int64) string {
	return "dedup:" + handler + ":" + strconv.FormatInt(eventID, 10)
}

// AcquireOnce reports whether this is the first delivery of eventID for handler.
// When redis is unreachable it fails open.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, eventID int64) bool {
	key := dedupKey(handler, eventID)
	first, err := d.rdb.SetNX(ctx, key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		// Redis 不可用时放行，宁可重复处理
		d.logger.Warn("Dedup check failed, processing anyway", zap.String("dedup_key", key), zap.Error(err))
		return true
	}
	if !first {
		d.logger.Info("Duplicate event skipped", zap.String("dedup_key", key))
	}
	return first
}

// Release drops the marker so a failed event can be retried.
func (d *Deduper) Release(ctx context.Context, handler string, eventID int64) {
	key := dedupKey(handler, eventID)
	if err := d.rdb.Del(ctx, key).Err(); err != nil {
		d.logger.Warn("Failed to release dedup key", zap.String("dedup_key", key), zap.Error(err))
	}
}
