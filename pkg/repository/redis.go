package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/restaurant/pkg/cart"
	"github.com/example/restaurant/pkg/config"
	"github.com/go-redis/redis/v8"
)

var _ cart.Store = (*RedisRepository)(nil)

type RedisRepository struct {
	client  *redis.Client
	config  *config.RedisConfig
	cartTTL time.Duration
}

func NewRedisRepository(cfg *config.RedisConfig, cartTTL time.Duration) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config:  cfg,
		cartTTL: cartTTL,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Load implements cart.Store. Every successful read slides the TTL.
func (r *RedisRepository) Load(ctx context.Context, sessionID string) ([]cart.Entry, error) {
	var entries []cart.Entry
	err := r.GetJSON(ctx, cartKey(sessionID), &entries)
	if errors.Is(err, redis.Nil) {
		return []cart.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	if r.cartTTL > 0 {
		r.client.Expire(ctx, cartKey(sessionID), r.cartTTL)
	}
	return entries, nil
}

func (r *RedisRepository) Save(ctx context.Context, sessionID string, entries []cart.Entry) error {
	if len(entries) == 0 {
		return r.Delete(ctx, sessionID)
	}
	if err := r.SetJSON(ctx, cartKey(sessionID), entries, r.cartTTL); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.Del(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}
