// internal/infrastructure/persistence/postgres/connection.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect открывает пул соединений, проверяет его и при необходимости применяет миграции
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Настройки пула соединений
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("✅ Connected to PostgreSQL %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)

	if cfg.EnableAutoMigrate {
		if err := RunMigrations(ctx, db, cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// RunMigrations применяет миграции из каталога, а при пустом пути из встроенного набора
func RunMigrations(ctx context.Context, db *sqlx.DB, migrationsPath string) error {
	migrator := NewMigrator(db)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations table: %w", err)
	}

	if migrationsPath != "" {
		if err := migrator.LoadMigrations(migrationsPath); err != nil {
			logger.Warn("⚠️ Каталог миграций %s недоступен (%v), используется встроенный набор", migrationsPath, err)
			if err := migrator.LoadEmbedded(); err != nil {
				return fmt.Errorf("failed to load migrations: %w", err)
			}
		}
	} else if err := migrator.LoadEmbedded(); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err := migrator.Validate(ctx); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}

	logger.Info("✅ Database migrations completed successfully")
	return nil
}
