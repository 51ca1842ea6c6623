package database

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/shuttleclub/backend/internal/logger"
	"github.com/spf13/viper"
)

// InitRedis connects to Redis. It returns nil when Redis is unreachable so the
// server can run without the event feed.
func InitRedis(ctx context.Context) *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	log := logger.GetLogger()
	addr := viper.GetString("redis.host") + ":" + viper.GetString("redis.port")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnw("Redis connection failed, continuing without Redis", "addr", addr, "error", err)
		rdb.Close()
		return nil
	}

	log.Infow("Redis connection established", "addr", addr)
	return rdb
}
