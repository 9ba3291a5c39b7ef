package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nlnotes/internal/notes/adapters/http/dto"
	"nlnotes/internal/notes/config"
	"nlnotes/pkg/logger"
)

// Константы для логирования.
const (
	appName = "nlnotes"

	LogServerStarting = "starting HTTP server"
	LogServerStopping = "stopping HTTP server"
	ErrServerListen   = "failed to serve HTTP"
	ErrServerShutdown = "failed to shutdown HTTP server"
)

// NewApp создает fiber приложение с маршрутами API.
func NewApp(cfg *config.HTTPConfig, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:         appName,
		BodyLimit:       cfg.BodyLimit,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		StructValidator: dto.NewValidator(),
		ErrorHandler:    errorHandler,
	})
	SetupRouter(app, deps)
	return app
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}

// Server запускает и останавливает HTTP API.
type Server struct {
	app     *fiber.App
	address string
}

// NewServer создает HTTP сервер.
func NewServer(cfg *config.HTTPConfig, deps Dependencies) *Server {
	return &Server{
		app:     NewApp(cfg, deps),
		address: cfg.GetAddress(),
	}
}

// App возвращает fiber приложение.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start слушает адрес до вызова Stop.
func (s *Server) Start(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogServerStarting, zap.String("address", s.address))

	if err := s.app.Listen(s.address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		return fmt.Errorf("%s: %w", ErrServerListen, err)
	}
	return nil
}

// Stop ожидает завершения активных запросов в пределах ctx.
func (s *Server) Stop(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogServerStopping)

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrServerShutdown, err)
	}
	return nil
}
