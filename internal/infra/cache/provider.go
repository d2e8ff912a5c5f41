package cache

import (
	"context"
	"log/slog"

	"typeit/config"
	"typeit/internal/domain/constants"
	"typeit/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// CacheParams holds dependencies for CredentialCache, injected by Fx
type CacheParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewCredentialCache creates a CredentialCache based on configuration
func NewCredentialCache(params CacheParams) (service.CredentialCache, error) {
	cfg := params.Config.Cache
	ttl := params.Config.Auth.TempCredentialTTL
	logger := params.Logger

	switch cfg.Provider {
	case constants.CacheProviderMemory:
		logger.Info("Using in-memory temporary credential cache", slog.Duration("ttl", ttl))

		memory := NewMemoryCache(ttl)
		params.Lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return memory.Close()
			},
		})

		return memory, nil

	case constants.CacheProviderRedis:
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis address is required for redis cache provider")
		}
		logger.Info("Using Redis temporary credential cache",
			slog.String("addr", cfg.Redis.Addr),
			slog.Duration("ttl", ttl),
		)

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		params.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return errors.Wrap(client.Ping(ctx).Err(), "redis ping failed")
			},
			OnStop: func(context.Context) error {
				logger.Info("Closing Redis client")

				return client.Close()
			},
		})

		return NewRedisCache(client, cfg.Redis.Prefix, ttl), nil

	default:
		return nil, errors.Errorf("unknown cache provider: %s", cfg.Provider)
	}
}

// Module provides the credential cache FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewCredentialCache),
)
