package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyOrderStatus = "order_status:%d"
	keyDedup       = "dedup:%s:%s"
)

var (
	TTLOrderStatus = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

// OrderStatus caches the latest known status of sales orders.
type OrderStatus interface {
	Get(ctx context.Context, orderID uint) (status string, ok bool, err error)
	Set(ctx context.Context, orderID uint, status string) error
	Delete(ctx context.Context, orderID uint) error
}

func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, orderID uint) (string, bool, error) {
	v, err := r.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, orderID uint, status string) error {
	return r.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, orderID), status, TTLOrderStatus).Err()
}

func (r *Redis) Delete(ctx context.Context, orderID uint) error {
	return r.rdb.Del(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Err()
}

// MarkSeen records eventID for service and reports whether it was new.
func (r *Redis) MarkSeen(ctx context.Context, service, eventID string) (bool, error) {
	return r.rdb.SetNX(ctx, fmt.Sprintf(keyDedup, service, eventID), 1, TTLDedup).Result()
}

// Forget removes a dedup marker so a failed event can be retried.
func (r *Redis) Forget(ctx context.Context, service, eventID string) error {
	return r.rdb.Del(ctx, fmt.Sprintf(keyDedup, service, eventID)).Err()
}

// Nop never hits and never stores.
type Nop struct{}

func (Nop) Get(context.Context, uint) (string, bool, error) { return "", false, nil }
func (Nop) Set(context.Context, uint, string) error         { return nil }
func (Nop) Delete(context.Context, uint) error              { return nil }

func OrNop(c OrderStatus) OrderStatus {
	if c == nil {
		return Nop{}
	}
	return c
}
