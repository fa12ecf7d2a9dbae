// Package redis implements a key-value slot on top of Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vadimbarashkov/shortlinks/internal/config"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

const defaultDialTimeout = 30 * time.Second

// NewClient builds a redis client from the app config and verifies connectivity via PING.
func NewClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	const op = "adapter.repository.redis.NewClient"

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return rdb, nil
}

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Slot stores every key as a Redis string under a common prefix. Values never expire.
type Slot struct {
	rdb    client
	prefix string
}

func NewSlot(rdb client, prefix string) *Slot {
	return &Slot{rdb: rdb, prefix: prefix}
}

func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "adapter.repository.redis.Slot.Get"

	data, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlotEmpty)
		}

		return nil, fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	return data, nil
}

func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	const op = "adapter.repository.redis.Slot.Set"

	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}
