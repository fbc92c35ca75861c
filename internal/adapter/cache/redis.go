package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"careerpath/internal/domain"
)

const redisKeyPrefix = "careerpath:match:"

// Redis shares cached job searches between processes. When the server is
// unreachable every call degrades to a cache miss.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

func NewRedis(addr, password string, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, bypassing cache", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return &Redis{ttl: ttl, logger: logger}
	}

	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis unavailable, bypassing cache", zap.Error(err))
	}
}

func (r *Redis) Get(ctx context.Context, query string, topK int) (domain.JobMatches, bool) {
	var matches domain.JobMatches
	if r.isUnavailable() {
		return matches, false
	}

	b, err := r.client.Get(ctx, redisKeyPrefix+cacheKey(query, topK)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warnUnavailableOnce(err)
		}
		return matches, false
	}
	if err := json.Unmarshal(b, &matches); err != nil {
		return domain.JobMatches{}, false
	}
	return matches, true
}

func (r *Redis) Put(ctx context.Context, query string, topK int, matches domain.JobMatches) {
	if r.isUnavailable() {
		return
	}
	b, err := json.Marshal(matches)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+cacheKey(query, topK), b, r.ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
	}
}

// Invalidate deletes every cached search.
func (r *Redis) Invalidate(ctx context.Context) {
	if r.isUnavailable() {
		return
	}
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if err := r.client.Del(ctx, k).Err(); err != nil {
			r.logger.Warn("redis delete failed", zap.String("key", k), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		r.warnUnavailableOnce(err)
	}
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}
