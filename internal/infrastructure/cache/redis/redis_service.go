// internal/infrastructure/cache/redis/redis_service.go
package redis

import (
	"context"
	"fmt"
	"time"

	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// RedisService сервис для работы с Redis
type RedisService struct {
	config config.RedisConfig
	client *redis.Client
	state  ServiceState
}

// NewRedisService создает новый Redis сервис
func NewRedisService(cfg config.RedisConfig) *RedisService {
	return &RedisService{
		config: cfg,
		state:  StateStopped,
	}
}

// Start подключается к Redis и проверяет соединение
func (rs *RedisService) Start(ctx context.Context) error {
	if rs.state == StateRunning {
		return fmt.Errorf("Redis service already running")
	}

	logger.Info("🔄 Starting Redis service...")
	rs.state = StateStarting

	options := &redis.Options{
		Addr:     rs.config.Address(),
		Password: rs.config.Password,
		DB:       rs.config.DB,

		// Настройки пула соединений
		PoolSize:     rs.config.PoolSize,
		MinIdleConns: rs.config.MinIdleConns,

		// Таймауты
		DialTimeout:  rs.config.DialTimeout,
		ReadTimeout:  rs.config.ReadTimeout,
		WriteTimeout: rs.config.WriteTimeout,

		MaxRetries: rs.config.MaxRetries,
	}

	rs.client = redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logger.Info("📡 Connecting to Redis: %s (DB: %d)", options.Addr, rs.config.DB)

	if _, err := rs.client.Ping(pingCtx).Result(); err != nil {
		rs.client.Close()
		rs.client = nil
		rs.state = StateError
		logger.Error("❌ Failed to connect to Redis: %v (address: %s)", err, options.Addr)
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	rs.state = StateRunning
	logger.Info("✅ Successfully connected to Redis (pool: %d)", rs.config.PoolSize)
	return nil
}

// Stop закрывает клиент
func (rs *RedisService) Stop() error {
	if rs.state != StateRunning {
		return fmt.Errorf("Redis service is not running")
	}

	logger.Info("🛑 Stopping Redis service...")
	rs.state = StateStopping

	if err := rs.client.Close(); err != nil {
		rs.state = StateError
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	rs.client = nil
	rs.state = StateStopped
	logger.Info("✅ Redis service stopped")
	return nil
}

// GetClient возвращает клиент Redis
func (rs *RedisService) GetClient() *redis.Client {
	return rs.client
}

// State возвращает состояние сервиса
func (rs *RedisService) State() ServiceState {
	return rs.state
}

// HealthCheck проверяет доступность Redis
func (rs *RedisService) HealthCheck(ctx context.Context) error {
	if rs.state != StateRunning || rs.client == nil {
		return fmt.Errorf("Redis service is not running")
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return rs.client.Ping(ctx).Err()
}

// SessionStore создает хранилище диалогов поверх текущего клиента
func (rs *RedisService) SessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStore(rs.client, rs.config.KeyPrefix, ttl)
}
