// Package db открывает базу данных сервиса заметок и применяет миграции схемы.
package db

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"nlnotes/internal/notes/config"
	"nlnotes/pkg/db/postgres"
	"nlnotes/pkg/logger"
)

// Сообщения логгера.
const (
	LogDBInitializing    = "initializing notes database"
	LogDBInitialized     = "notes database initialized"
	LogMigrationStarting = "applying notes schema migrations"
	LogMigrationSkipped  = "migrations directory not set, skipping migrations"
)

// Сообщения об ошибках.
const (
	ErrDBMigrations      = "failed to apply notes database migrations"
	ErrDBConnection      = "failed to connect to notes database"
	ErrGetPath           = "failed to resolve migrations path"
	ErrDBCheckConnection = "notes database is unreachable"
)

const filePrefix = "file://"

// DB - пул соединений сервиса заметок.
type DB struct {
	database *postgres.Database
}

// New применяет миграции из cfg.MigrationsDir (если задан) и открывает пул.
func New(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	log := logger.Log(ctx).With(
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database))
	log.Info(ctx, LogDBInitializing)

	if err := migrate(ctx, cfg); err != nil {
		return nil, err
	}

	database, err := postgres.New(ctx, cfg.GetDSN(), postgres.Options{
		MinConns:          cfg.MinConn,
		MaxConns:          cfg.MaxConn,
		HealthCheckPeriod: cfg.HealthCheckPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}

	log.Info(ctx, LogDBInitialized)
	return &DB{database: database}, nil
}

func migrate(ctx context.Context, cfg *config.PostgresConfig) error {
	log := logger.Log(ctx)
	if cfg.MigrationsDir == "" {
		log.Warn(ctx, LogMigrationSkipped)
		return nil
	}

	source, err := MigrationsURL(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrDBMigrations, err)
	}

	log.Info(ctx, LogMigrationStarting, zap.String("source", source))
	if err := postgres.MigrateDSN(ctx, cfg.GetConnectionURL(), source); err != nil {
		return fmt.Errorf("%s: %w", ErrDBMigrations, err)
	}
	return nil
}

// MigrationsURL переводит каталог миграций в URL источника file://.
func MigrationsURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrGetPath, err)
	}
	return filePrefix + filepath.ToSlash(abs), nil
}

// Close закрывает пул.
func (db *DB) Close(ctx context.Context) {
	db.database.Close(ctx)
}

// Pool возвращает пул соединений.
func (db *DB) Pool() *pgxpool.Pool {
	return db.database.Pool()
}

// Ping проверяет соединение с базой данных.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.database.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrDBCheckConnection, err)
	}
	return nil
}
