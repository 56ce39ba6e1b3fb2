package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight means another request with the same key is still running.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

// Idempotency remembers which order an Idempotency-Key produced.
type Idempotency struct {
	rdb redis.Cmdable
}

func NewIdempotency(rdb redis.Cmdable) *Idempotency {
	return &Idempotency{rdb: rdb}
}

// Begin claims key for userID. It returns the stored order id when the key
// was already completed, ErrInFlight while another request holds it, and
// ("", nil) when the caller now owns the key and must call Complete or Abort.
func (i *Idempotency) Begin(ctx context.Context, userID int64, key string) (string, error) {
	k := fmt.Sprintf(KeyIdemOrderPlace, userID, key)
	ok, err := i.rdb.SetNX(ctx, k, "", TTLInFlight).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	orderID, err := i.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		return i.Begin(ctx, userID, key)
	}
	if err != nil {
		return "", err
	}
	if orderID == "" {
		return "", ErrInFlight
	}
	return orderID, nil
}

func (i *Idempotency) Complete(ctx context.Context, userID int64, key, orderID string) error {
	return i.rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderPlace, userID, key), orderID, TTLIdempotency).Err()
}

func (i *Idempotency) Abort(ctx context.Context, userID int64, key string) error {
	return i.rdb.Del(ctx, fmt.Sprintf(KeyIdemOrderPlace, userID, key)).Err()
}
