package workout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPending = "pending"
	defaultKeyTTL      = 24 * time.Hour
)

// IdempotencyStore remembers the outcome of requests carrying an
// Idempotency-Key so a retry replays the first response.
type IdempotencyStore interface {
	// Reserve claims key. If the key already completed, the stored
	// response is returned with reserved=false.
	Reserve(ctx context.Context, ownerID, key string) (stored []byte, reserved bool, err error)
	Complete(ctx context.Context, ownerID, key string, response []byte) error
	Release(ctx context.Context, ownerID, key string) error
}

type RedisIdempotency struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisIdempotency(client *redis.Client, ttl time.Duration) *RedisIdempotency {
	if ttl <= 0 {
		ttl = defaultKeyTTL
	}
	return &RedisIdempotency{redis: client, ttl: ttl}
}

func (r *RedisIdempotency) Reserve(ctx context.Context, ownerID, key string) ([]byte, bool, error) {
	ok, err := r.redis.SetNX(ctx, idempotencyKey(ownerID, key), idempotencyPending, r.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	val, err := r.redis.Get(ctx, idempotencyKey(ownerID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = r.redis.SetNX(ctx, idempotencyKey(ownerID, key), idempotencyPending, r.ttl).Result()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return nil, true, nil
		}
		return nil, false, ErrIdempotencyInFlight
	}
	if err != nil {
		return nil, false, err
	}
	if string(val) == idempotencyPending {
		return nil, false, ErrIdempotencyInFlight
	}
	return val, false, nil
}

func (r *RedisIdempotency) Complete(ctx context.Context, ownerID, key string, response []byte) error {
	return r.redis.Set(ctx, idempotencyKey(ownerID, key), response, r.ttl).Err()
}

func (r *RedisIdempotency) Release(ctx context.Context, ownerID, key string) error {
	return r.redis.Del(ctx, idempotencyKey(ownerID, key)).Err()
}

func idempotencyKey(ownerID, key string) string {
	return "idempotency:" + ownerID + ":" + key
}

// once runs fn at most once per (owner, key). Without a store or key it
// just runs fn. Once fn has succeeded its result is returned even if the
// response cannot be stored; the key is then released so a retry is not
// stuck behind a pending reservation.
func once[T any](ctx context.Context, store IdempotencyStore, log *slog.Logger, ownerID, key string, fn func() (T, error)) (T, bool, error) {
	var zero T
	if log == nil {
		log = slog.Default()
	}
	if store == nil || key == "" {
		out, err := fn()
		return out, false, err
	}

	stored, reserved, err := store.Reserve(ctx, ownerID, key)
	if err != nil {
		return zero, false, err
	}
	if !reserved {
		var out T
		if err := json.Unmarshal(stored, &out); err != nil {
			return zero, false, err
		}
		return out, true, nil
	}

	out, err := fn()
	bg := context.WithoutCancel(ctx)
	if err != nil {
		_ = store.Release(bg, ownerID, key)
		return zero, false, err
	}

	payload, err := json.Marshal(out)
	if err == nil {
		err = store.Complete(bg, ownerID, key, payload)
	}
	if err != nil {
		releaseErr := store.Release(bg, ownerID, key)
		log.Warn("idempotent response not stored",
			"owner_id", ownerID,
			"idempotency_key", key,
			"error", err,
			"release_error", releaseErr,
		)
	}
	return out, false, nil
}
