// Package redissvc owns the shared Redis connection used by the cache and
// rate limiter backends.
package redissvc

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rogerio-castellano/everytools-api/internal/config"
)

type RedisService struct {
	rdb *redis.Client
}

// NewRedisService dials cfg.Address and verifies the connection with a PING.
func NewRedisService(ctx context.Context, cfg config.RedisConfig) (*RedisService, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := &RedisService{rdb: rdb}
	if err := s.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return s, nil
}

func (s *RedisService) Rdb() *redis.Client {
	return s.rdb
}

func (s *RedisService) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisService) Close() error {
	return s.rdb.Close()
}
