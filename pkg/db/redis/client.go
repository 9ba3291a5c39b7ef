package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nlnotes/pkg/logger"
)

// Сообщения.
const (
	LogConnecting   = "connecting to Redis"
	LogConnected    = "successfully connected to Redis"
	ErrConnectRedis = "failed to connect to redis"
)

// NewClient создает клиента и проверяет соединение командой PING.
func NewClient(ctx context.Context, cfg *Config) (*goredis.Client, error) {
	log := logger.Log(ctx).With(zap.String("address", cfg.Address()))
	log.Info(ctx, LogConnecting)

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Error(ctx, ErrConnectRedis, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrConnectRedis, err)
	}

	log.Info(ctx, LogConnected)
	return client, nil
}
