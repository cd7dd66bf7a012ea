// Package revocation provides the Redis-backed revocation list for access
// tokens. A revoked jti is kept for the access token lifetime, after which
// the token has expired anyway and the key can lapse.
package revocation

import (
	"context"
	"log/slog"
	"time"

	"securelogin/config"
	"securelogin/internal/domain/lifecycle"
	"securelogin/internal/domain/service"
	"securelogin/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const revokedKeyPrefix = "securelogin:revoked:"

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

type redisRevocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates the Redis client and the revocation cache bound to it.
// Without Redis configured there is no cache and access tokens stay valid
// until expiry.
func New(params Params) (service.RevocationCache, error) {
	if params.Config.Redis == nil {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     params.Config.Redis.Addr,
		Password: params.Config.Redis.Password,
		DB:       params.Config.Redis.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping Redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return NewRedisCache(client, params.Config.Token.AccessTTL), nil
}

// NewRedisCache builds a revocation cache on an existing client. The TTL
// should match the access token lifetime.
func NewRedisCache(client *redis.Client, ttl time.Duration) service.RevocationCache {
	return &redisRevocationCache{client: client, ttl: ttl}
}

// Revoke marks an access token's jti as revoked.
func (c *redisRevocationCache) Revoke(ctx context.Context, jti uuid.UUID) error {
	if err := c.client.Set(ctx, revokedKeyPrefix+jti.String(), "1", c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store revoked jti")
	}

	return nil
}

// IsRevoked reports whether the jti was revoked.
func (c *redisRevocationCache) IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKeyPrefix+jti.String()).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check revoked jti")
	}

	return n > 0, nil
}
