package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/internal/service"
)

const userPrefix = "user:summary:"

// UserDirectory is a cache-aside layer over another UserDirectory.
// Redis failures fall through to the backing directory.
type UserDirectory struct {
	client  *redis.Client
	backing service.UserDirectory
	ttl     time.Duration
	logger  *zap.Logger
}

func NewUserDirectory(client *redis.Client, backing service.UserDirectory, ttl time.Duration, logger *zap.Logger) *UserDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserDirectory{client: client, backing: backing, ttl: ttl, logger: logger}
}

func userKey(id string) string {
	return userPrefix + id
}

func (d *UserDirectory) Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	ids = lo.Uniq(ids)
	out := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := lo.Map(ids, func(id string, _ int) string { return userKey(id) })
	vals, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		d.logger.Warn("User cache read failed", zap.Error(err))
		vals = make([]any, len(ids))
	}

	var missing []string
	for i, id := range ids {
		raw, ok := vals[i].(string)
		if !ok {
			missing = append(missing, id)
			continue
		}
		var s model.UserSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = s
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := d.backing.Summaries(ctx, missing)
	if err != nil {
		return nil, err
	}

	pipe := d.client.Pipeline()
	for id, s := range loaded {
		out[id] = s
		raw, err := json.Marshal(s)
		if err != nil {
			continue
		}
		pipe.Set(ctx, userKey(id), raw, d.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Warn("User cache write failed", zap.Int("count", len(loaded)), zap.Error(err))
	}
	return out, nil
}
