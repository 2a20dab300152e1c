package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/pkg/idx"
)

const defaultKeyPrefix = "authcore:verify:"

// RedisLimiter keeps one sorted set of attempt timestamps per account and
// trims it to the window on every call, so independent workers share the
// budget.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	cfg    Config
}

func NewRedisLimiter(client redis.Cmdable, prefix string, cfg Config) *RedisLimiter {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisLimiter{client: client, prefix: prefix, cfg: cfg.withDefaults()}
}

func (l *RedisLimiter) key(accountID string) string {
	return l.prefix + accountID
}

// Allow records an attempt and reports whether the account is still
// within its budget, counting this attempt.
func (l *RedisLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	now := l.cfg.Now()
	key := l.key(accountID)
	cutoff := now.Add(-l.cfg.Window).UnixMilli()

	var card *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: idx.NewAt(now).String()})
		card = p.ZCard(ctx, key)
		p.PExpire(ctx, key, l.cfg.Window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return card.Val() <= int64(l.cfg.Limit), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, accountID string) error {
	if err := l.client.Del(ctx, l.key(accountID)).Err(); err != nil {
		return fmt.Errorf("redis limiter: %w", err)
	}
	return nil
}

var _ service.AttemptLimiter = (*RedisLimiter)(nil)
