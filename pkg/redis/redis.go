package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/vibe-storefront/config"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		err := client.Close()
		client = nil
		return err
	}
	return nil
}

// NewTokenBlacklist returns a Redis backed blacklist when Redis is
// configured and reachable, and an in-memory one otherwise.
func NewTokenBlacklist(cfg *config.RedisConfig) TokenBlacklist {
	if !cfg.Enabled() {
		logger.Info("Redis not configured, revoked sessions are kept in memory", nil)
		return NewMemoryBlacklist()
	}
	if err := Init(cfg); err != nil {
		logger.Warn("Falling back to in-memory session blacklist", map[string]interface{}{
			"error": err.Error(),
		})
		return NewMemoryBlacklist()
	}
	return NewRedisBlacklist(client)
}
