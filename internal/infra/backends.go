package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bdays-network/bdays/internal/config"
	"github.com/bdays-network/bdays/internal/session"
)

const connectTimeout = 5 * time.Second

// Backends holds the external connections and the session store built on them.
// Redis and DB are nil when not configured.
type Backends struct {
	Store session.Store
	Redis *redis.Client
	DB    *pgxpool.Pool
}

// Open connects the backends selected by cfg. Redis is opened whenever a URL
// is configured since idempotency and rate limiting use it even when sessions
// live elsewhere.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.RedisURL != "" {
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.Redis = client
	}

	switch cfg.SessionBackend {
	case config.BackendRedis:
		b.Store = session.NewRedisStore(b.Redis, cfg.SessionTTL)
	case config.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.DB = pool
		store := session.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.Store = store
	default:
		if !cfg.IsDev() {
			logger.Warn("in-memory session store outside development, sessions are lost on restart",
				slog.String("env", cfg.AppEnv))
		}
		b.Store = session.NewMemoryStore()
	}

	logger.Info("backends ready",
		slog.String("session_backend", cfg.SessionBackend),
		slog.Bool("redis", b.Redis != nil),
		slog.Bool("postgres", b.DB != nil))
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close() error {
	var firstErr error
	if b.Store != nil {
		firstErr = b.Store.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewPostgresPool parses url, opens a small pool and pings. Session traffic is
// one short query per request so the pool stays small.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > 8 {
		cfg.MaxConns = 8
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(pingCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
