// Package main реализует точку входа службы заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"nlnotes/internal/notes/adapters/cache"
	grpcadapter "nlnotes/internal/notes/adapters/grpc"
	httpadapter "nlnotes/internal/notes/adapters/http"
	"nlnotes/internal/notes/adapters/memory"
	"nlnotes/internal/notes/adapters/parser"
	"nlnotes/internal/notes/adapters/postgres"
	"nlnotes/internal/notes/adapters/services"
	"nlnotes/internal/notes/app"
	"nlnotes/internal/notes/config"
	"nlnotes/internal/notes/db"
	"nlnotes/internal/notes/ports/repositories"
	ports "nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/db/redis"
	"nlnotes/pkg/logger"
	"nlnotes/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTES_LOGGER_MODE"
	EnvLoggerLevel = "NOTES_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDB               = "failed to initialize database"
	ErrStartGRPC            = "failed to start gRPC server"
	ErrServeHTTP            = "HTTP server stopped with error"
	ErrInitCache            = "parse cache unavailable, continuing without it"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "note service started"
	LogServiceShutdownDone = "note service shutdown complete"
	LogClosingDB           = "closing database connections"
	LogClosingRedis        = "closing redis client"
	LogInitRepo            = "initializing repositories"
	LogInitMemoryStore     = "using in-memory storage"
	LogInitServices        = "initializing services"
	LogInitUseCases        = "initializing use cases"
	LogInitParser          = "initializing intent parser"
	LogStartingHTTP        = "starting HTTP server"
	LogStartingGRPC        = "starting gRPC server"
)

// storage - выбранная реализация хранилища.
type storage struct {
	uow    repositories.UnitOfWork
	users  repositories.UserRepository
	health interface {
		Ping(ctx context.Context) error
	}
	close shutdown.Hook
}

func main() {
	log, err := logger.NewLogger(config.EnvironmentFromMode(os.Getenv(EnvLoggerMode)), os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogInitRepo, zap.String("driver", cfg.Storage.Driver))
		store, err := openStorage(ctx, cfg)
		if err != nil {
			log.Error(ctx, ErrInitDB, zap.Error(err))
			exitCode = 1
			return
		}
		// Серверы останавливаются раньше, чем закрываются хранилище и кэш.
		var servers []shutdown.Hook
		resources := []shutdown.Hook{store.close}

		log.Info(ctx, LogInitServices)
		tokenService := services.NewJWT(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)
		passwordService := services.NewBcrypt(cfg.JWT.BCryptCost)

		log.Info(ctx, LogInitParser, zap.String("model", cfg.Parser.Model))
		intentParser, closeCache := newParser(ctx, cfg)
		if closeCache != nil {
			resources = append(resources, closeCache)
		}

		log.Info(ctx, LogInitUseCases)
		authUseCase := app.NewAuthUseCase(store.users, passwordService, tokenService)
		resolver := app.NewResolver(store.uow)

		runCtx, stop := context.WithCancel(ctx)
		defer stop()

		grpcServer := grpcadapter.New(&cfg.GRPC, store.health)
		log.Info(ctx, LogStartingGRPC)
		if err := grpcServer.Start(ctx); err != nil {
			log.Error(ctx, ErrStartGRPC, zap.Error(err))
			exitCode = 1
			return
		}
		if cfg.GRPC.HealthInterval > 0 {
			go grpcServer.Watch(runCtx, cfg.GRPC.HealthInterval)
		}
		servers = append(servers, grpcServer.Stop)

		httpServer := httpadapter.NewServer(&cfg.HTTP, httpadapter.Dependencies{
			Auth:     authUseCase,
			Resolver: resolver,
			Parser:   intentParser,
			Health:   store.health,
		})
		log.Info(ctx, LogStartingHTTP)
		serveErr := make(chan error, 1)
		go func() {
			if err := httpServer.Start(ctx); err != nil {
				log.Error(ctx, ErrServeHTTP, zap.Error(err))
				serveErr <- err
				stop()
			}
		}()
		servers = append(servers, httpServer.Stop)

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		shutdown.Wait(runCtx, cfg.Shutdown.Timeout, shutdown.Sequential(servers, resources))

		select {
		case <-serveErr:
			exitCode = 1
		default:
		}

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Storage.IsMemory() {
		logger.Log(ctx).Info(ctx, LogInitMemoryStore)
		store := memory.NewStore()
		return &storage{
			uow:   store,
			users: store.Users(),
			close: func(context.Context) error { return nil },
		}, nil
	}

	database, err := db.New(ctx, &cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInitDB, err)
	}

	factory := postgres.NewRepositoryFactory(database.Pool())
	return &storage{
		uow:    factory.UnitOfWork(),
		users:  factory.UserRepository(),
		health: database,
		close: func(ctx context.Context) error {
			logger.Log(ctx).Info(ctx, LogClosingDB)
			database.Close(ctx)
			return nil
		},
	}, nil
}

// newParser возвращает парсер модели, при включенном кэше обернутый Redis.
// Недоступный Redis не мешает запуску.
func newParser(ctx context.Context, cfg *config.Config) (ports.IntentParser, shutdown.Hook) {
	ollama := parser.NewOllamaParser(parser.Config{
		BaseURL:          cfg.Parser.BaseURL,
		Model:            cfg.Parser.Model,
		Temperature:      cfg.Parser.Temperature,
		Timeout:          cfg.Parser.Timeout,
		BreakerInterval:  cfg.Parser.BreakerInterval,
		BreakerTimeout:   cfg.Parser.BreakerTimeout,
		BreakerThreshold: cfg.Parser.BreakerThreshold,
	})

	if !cfg.Parser.CacheEnabled {
		return ollama, nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis.ClientConfig())
	if err != nil {
		logger.Log(ctx).Warn(ctx, ErrInitCache, zap.Error(err))
		return ollama, nil
	}

	closeClient := func(ctx context.Context) error {
		logger.Log(ctx).Info(ctx, LogClosingRedis)
		if err := client.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
		return nil
	}

	return parser.NewCachedParser(ollama, cache.NewIntentCache(client), cfg.Parser.CacheTTL), closeClient
}
