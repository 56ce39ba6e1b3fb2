package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedStore puts a read-through Redis cache in front of an orders.Store.
// The database stays the source of truth; cache errors only cost a miss.
type CachedStore struct {
	next orders.Store
	rdb  redis.Cmdable
	log  zerolog.Logger
}

func NewCachedStore(next orders.Store, rdb redis.Cmdable, log zerolog.Logger) *CachedStore {
	return &CachedStore{next: next, rdb: rdb, log: log.With().Str("component", "redisx.cache").Logger()}
}

func (c *CachedStore) Save(ctx context.Context, o orders.Order) error {
	if err := c.next.Save(ctx, o); err != nil {
		return err
	}
	c.put(ctx, o)
	return nil
}

func (c *CachedStore) Get(ctx context.Context, id string) (orders.Order, error) {
	key := fmt.Sprintf(KeyOrder, id)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var o orders.Order
		if jerr := json.Unmarshal(b, &o); jerr == nil {
			return o, nil
		}
		c.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		_ = c.rdb.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.log.Debug().Err(err).Msg("cache get")
	}

	o, err := c.next.Get(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}
	c.put(ctx, o)
	return o, nil
}

func (c *CachedStore) List(ctx context.Context, offset, limit int) ([]orders.Order, error) {
	return c.next.List(ctx, offset, limit)
}

func (c *CachedStore) Transition(ctx context.Context, id string, from, to orders.Status) (orders.Order, error) {
	o, err := c.next.Transition(ctx, id, from, to)
	if err != nil {
		// a stale entry may be what made the caller pick the wrong `from`
		if errors.Is(err, orders.ErrStaleStatus) {
			c.evict(ctx, id)
		}
		return o, err
	}
	c.put(ctx, o)
	return o, nil
}

func (c *CachedStore) MarkReleased(ctx context.Context, id string, released bool) error {
	err := c.next.MarkReleased(ctx, id, released)
	// both outcomes make the cached copy suspect
	c.evict(ctx, id)
	return err
}

func (c *CachedStore) put(ctx context.Context, o orders.Order) {
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, TTLOrderCache).Err(); err != nil {
		c.log.Debug().Err(err).Str("order_id", o.ID).Msg("cache set")
	}
}

func (c *CachedStore) evict(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, fmt.Sprintf(KeyOrder, id)).Err(); err != nil {
		c.log.Debug().Err(err).Str("order_id", id).Msg("cache evict")
	}
}
