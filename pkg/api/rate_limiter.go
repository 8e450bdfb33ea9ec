package api

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/cache"

	limiter "github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

var (
	limiters sync.Map
	once     sync.Once
)

type RateLimiterKey string

const (
	ReadRateLimiterKey  RateLimiterKey = "taskboard_api:limiter:read"
	WriteRateLimiterKey RateLimiterKey = "taskboard_api:limiter:write"
	LoginRateLimiterKey RateLimiterKey = "taskboard_api:limiter:login"
)

type LimiterConfig struct {
	key    RateLimiterKey
	rate   limiter.Rate
	prefix string
}

func ReadRateLimiter() gin.HandlerFunc {
	return getRateLimiterMiddleware(ReadRateLimiterKey)
}

func WriteRateLimiter() gin.HandlerFunc {
	return getRateLimiterMiddleware(WriteRateLimiterKey)
}

func LoginRateLimiter() gin.HandlerFunc {
	return getRateLimiterMiddleware(LoginRateLimiterKey)
}

func InitializeLimiters() {
	once.Do(func() {
		cache := cache.GetCacheInstance()

		limiterConfigs := []LimiterConfig{
			{
				key:    ReadRateLimiterKey,
				rate:   limiter.Rate{Period: 1 * time.Minute, Limit: 300},
				prefix: string(ReadRateLimiterKey),
			},
			{
				key:    WriteRateLimiterKey,
				rate:   limiter.Rate{Period: 1 * time.Minute, Limit: 60},
				prefix: string(WriteRateLimiterKey),
			},
			{
				key:    LoginRateLimiterKey,
				rate:   limiter.Rate{Period: 1 * time.Hour, Limit: 30},
				prefix: string(LoginRateLimiterKey),
			},
		}

		for _, config := range limiterConfigs {
			store, err := sredis.NewStoreWithOptions(&cache.Redis, limiter.StoreOptions{
				Prefix:   config.prefix,
				MaxRetry: 3,
			})
			if err != nil {
				log.Fatal().Err(err).Str("prefix", config.prefix).Msg("Failed to create rate limiter store")
				continue
			}
			limiters.Store(config.key, limiter.New(store, config.rate))
		}
	})
}

func getRateLimiterMiddleware(key RateLimiterKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiterInstance, ok := limiters.Load(key)
		if !ok {
			log.Error().Str("key", string(key)).Msg("Rate limiters not initialized properly")
			c.Next()
			return
		}

		limiter := limiterInstance.(*limiter.Limiter)
		ip := c.ClientIP()
		limiterCtx, err := limiter.Get(c, ip)
		if err != nil {
			log.Error().Err(err).Msg("Failed to get rate limiter")
			c.AbortWithStatus(500)
			return
		}

		if limiterCtx.Reached {
			c.AbortWithStatus(429) // Too Many Requests
			return
		}

		c.Next()
	}
}
