package repository

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"revenue_backend/internal/revenue/domain"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey is the list holding recent cycle summaries.
	DefaultRedisKey = "arce:cycles"
	// DefaultRedisLimit bounds the list length.
	DefaultRedisLimit = 1000
)

// RedisLedger keeps a capped list of sealed cycle summaries in Redis.
type RedisLedger struct {
	client *redis.Client
	key    string
	limit  int64
}

// NewRedisClient parses redisURL, relaxing TLS verification when asked to.
func NewRedisClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if tlsInsecure {
		if opt.TLSConfig != nil {
			opt.TLSConfig = opt.TLSConfig.Clone()
		} else {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// NewRedisLedger creates a Redis sink writing to key, keeping at most limit entries.
func NewRedisLedger(client *redis.Client, key string, limit int64) *RedisLedger {
	if key == "" {
		key = DefaultRedisKey
	}
	if limit < 1 {
		limit = DefaultRedisLimit
	}
	return &RedisLedger{client: client, key: key, limit: limit}
}

// Name identifies the sink in logs.
func (l *RedisLedger) Name() string { return "redis" }

// Append pushes summary and trims the list to its limit in one transaction.
func (l *RedisLedger) Append(ctx context.Context, summary domain.CycleSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode cycle summary: %w", err)
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, l.key, payload)
		pipe.LTrim(ctx, l.key, -l.limit, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append cycle %d to redis: %w", summary.CycleNumber, err)
	}
	return nil
}

// Recent returns up to n of the newest summaries, oldest first.
func (l *RedisLedger) Recent(ctx context.Context, n int64) ([]domain.CycleSummary, error) {
	if n < 1 {
		return nil, nil
	}
	raw, err := l.client.LRange(ctx, l.key, -n, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.CycleSummary, 0, len(raw))
	for _, item := range raw {
		var s domain.CycleSummary
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("decode cycle summary: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
