package utils

import (
	"context"
	"fmt"
	"time"

	"camionback/config"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// SessionClient is the Redis client holding auth sessions.
var SessionClient *redis.Client

// InitRedis connects the session client and checks it answers.
func InitRedis() error {
	SessionClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := SessionClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis (sessions): %w", err)
	}
	return nil
}

// QueueRedisOpt is the asynq connection for notification and sweep tasks.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}
