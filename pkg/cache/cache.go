package cache

import (
	"context"
	"crypto/tls"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"taskboard-api/utils"
)

type Cache struct {
	Redis redis.Client
}

var (
	instance *Cache
	once     sync.Once
)

// GetCacheInstance connects to redis from the environment on first use. The
// server cannot run without redis: both the rate limiters and the change
// feed ride on it.
func GetCacheInstance() *Cache {
	once.Do(func() {
		host := utils.LoadDotEnv("REDIS_HOST")
		port := utils.LoadDotEnv("REDIS_PORT")

		clientOpts := &redis.Options{
			Addr: host + ":" + port,
		}

		if runtimeEnv := utils.LoadDotEnvOr("RUNTIME_ENV", "local"); runtimeEnv == "production" {
			clientOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		if username, usernameSet := os.LookupEnv("REDIS_USERNAME"); usernameSet {
			clientOpts.Username = username
		}
		if password, passwordSet := os.LookupEnv("REDIS_PASSWORD"); passwordSet {
			clientOpts.Password = password
		}
		redisClient := redis.NewClient(clientOpts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping Redis")
		}

		log.Info().Msg("Successfully connected to Redis")
		instance = &Cache{Redis: *redisClient}
	})
	return instance
}

func (c *Cache) SetWithExpire(ctx context.Context, key, value string, expiration time.Duration) error {
	if err := c.Redis.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to write to Redis")
		return err
	}
	return nil
}

// Get returns the cached value, or redis.Nil when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Redis.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}
	return val, nil
}

// Incr bumps a counter key; the task service uses one as a cache
// generation so count keys invalidate on every write.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Redis.Incr(ctx, key).Result()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.Redis.Del(ctx, keys...).Err()
}

func (c *Cache) Shutdown() {
	c.Redis.Close()
	log.Info().Msg("Successfully closed Redis connection")
}
