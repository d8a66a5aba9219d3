// Package cache keeps short-lived order snapshots for the read endpoints.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace-api/models"
)

const (
	// order:{order_id} -> JSON snapshot of the order with its items
	keyOrder = "order:%s"
	// order:{order_id}:changed -> unix micros of the latest invalidating write
	keyChanged = "order:%s:changed"
)

const DefaultTTL = 5 * time.Minute

// OrderCache is never the source of truth; the store is.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.Order, bool, error)
	Set(ctx context.Context, order *models.Order) error
	// Invalidate drops the snapshot and refuses later Sets of snapshots
	// last updated before at.
	Invalidate(ctx context.Context, id string, at time.Time) error
}

func Key(orderID string) string {
	return fmt.Sprintf(keyOrder, orderID)
}

func changedKey(orderID string) string {
	return fmt.Sprintf(keyChanged, orderID)
}

// KEYS[1] snapshot, KEYS[2] marker; ARGV[1] payload, ARGV[2] updated_at micros, ARGV[3] ttl ms
var setScript = redis.NewScript(`
local changed = redis.call('GET', KEYS[2])
if changed and tonumber(changed) > tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// KEYS[1] snapshot, KEYS[2] marker; ARGV[1] change micros, ARGV[2] ttl ms
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
local changed = redis.call('GET', KEYS[2])
if not changed or tonumber(changed) < tonumber(ARGV[1]) then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
return 1
`)

type RedisOrderCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisOrderCache(rdb redis.Cmdable, ttl time.Duration) *RedisOrderCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisOrderCache{rdb: rdb, ttl: ttl}
}

// NewClient connects to addr and checks the connection
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *RedisOrderCache) Get(ctx context.Context, id string) (*models.Order, bool, error) {
	b, err := c.rdb.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	order, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return order, true, nil
}

// Set stores the snapshot unless the order was invalidated after the
// snapshot's UpdatedAt; a refused Set is not an error.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	b, err := encode(order)
	if err != nil {
		return err
	}
	keys := []string{Key(order.ID), changedKey(order.ID)}
	return setScript.Run(ctx, c.rdb, keys, b, order.UpdatedAt.UnixMicro(), c.ttl.Milliseconds()).Err()
}

func (c *RedisOrderCache) Invalidate(ctx context.Context, id string, at time.Time) error {
	keys := []string{Key(id), changedKey(id)}
	return invalidateScript.Run(ctx, c.rdb, keys, at.UnixMicro(), c.ttl.Milliseconds()).Err()
}

// history is served from the store, never from a snapshot
func encode(order *models.Order) ([]byte, error) {
	snap := *order
	snap.StatusHistory = nil
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode order snapshot: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(b, &order); err != nil {
		return nil, fmt.Errorf("decode order snapshot: %w", err)
	}
	return &order, nil
}

// Nop is used when no Redis address is configured
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.Order, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, *models.Order) error                 { return nil }
func (Nop) Invalidate(context.Context, string, time.Time) error      { return nil }

// Invalidator drops the snapshot of any order whose status changed
type Invalidator struct {
	Cache OrderCache
}

func (i Invalidator) StatusChanged(ctx context.Context, change models.StatusChange) error {
	if err := i.Cache.Invalidate(ctx, change.OrderID, change.At); err != nil {
		return fmt.Errorf("invalidate order %s: %w", change.OrderID, err)
	}
	return nil
}
