// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/redis/go-redis/v9"
)

// Redis resolves from a hash whose fields are MACs and whose values are
// comma-separated addresses, e.g. HSET motioncam:mac a4:13:4e:00:11:22 "192.168.1.40".
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a Redis backend. The connection is made lazily.
func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			PoolSize:     2,
		}),
		key: cfg.Key,
	}
}

func (r *Redis) Resolve(ctx context.Context, mac string) ([]string, error) {
	val, err := r.client.HGet(ctx, r.key, NormalizeMAC(mac)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	var out []string
	for _, a := range strings.Split(val, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Redis) Name() string { return "redis" }

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
