package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-fittrack/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when no address is configured; callers treat a
// nil client as "redis disabled".
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Ready pings every configured backend. A nil pool counts as down; a nil
// redis client is skipped.
func Ready(ctx context.Context, pg *pgxpool.Pool, rdb *redis.Client) error {
	var errs []error
	if pg == nil {
		errs = append(errs, errors.New("postgres: not connected"))
	} else if err := pingPoolFn(ctx, pg); err != nil {
		errs = append(errs, fmt.Errorf("postgres: %w", err))
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
