package queue

import (
	"context"
	"fmt"
	"time"

	"learncode/internal/platform/config"
	"learncode/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var RDB *redis.Client

func ConnectRedis() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("could not connect to Redis: %w", err)
	}
	logger.L().Info("connected to Redis", zap.String("addr", config.AppConfig.RedisAddr))
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.L().Info("Redis connection closed")
	}
}
