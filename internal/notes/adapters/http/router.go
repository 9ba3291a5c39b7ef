// Package http содержит компоненты для HTTP сервера.
package http

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nlnotes/internal/notes/adapters/http/auth"
	"nlnotes/internal/notes/adapters/http/middleware"
	"nlnotes/internal/notes/adapters/http/notes"
	"nlnotes/internal/notes/ports/api"
	"nlnotes/internal/notes/ports/services"
)

// HealthChecker проверяет доступность хранилища.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies - сервисы, которые обслуживает HTTP API.
type Dependencies struct {
	Auth     api.AuthUseCase
	Resolver api.ActionResolver
	Parser   services.IntentParser
	// Health может быть nil, тогда /healthz всегда отвечает ok.
	Health HealthChecker
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, deps Dependencies) {
	authHandler := auth.NewHandler(deps.Auth)
	notesHandler := notes.NewHandler(deps.Resolver, deps.Parser)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)

	// Middleware для всех запросов.
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewMetricsMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	app.Get("/healthz", healthHandler(deps.Health))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API версии 1.
	apiV1 := app.Group("/api/v1")

	// Auth routes (публичные).
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/forgot_password", authHandler.ForgotPassword)

	apiV1.Post("/nl_query", notesHandler.Query, authMiddleware)

	// Маршруты заметок (требуют авторизации).
	notesRoutes := apiV1.Group("/notes", authMiddleware)
	notesRoutes.Get("/", notesHandler.ListNotes)
	notesRoutes.Post("/", notesHandler.CreateNote)
	notesRoutes.Get("/search", notesHandler.SearchNotes)
	notesRoutes.Get("/:note_id", notesHandler.GetNote)
	notesRoutes.Patch("/:note_id", notesHandler.UpdateNote)
	notesRoutes.Put("/:note_id", notesHandler.UpdateNote)
	notesRoutes.Delete("/:note_id", notesHandler.DeleteNote)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}

func healthHandler(checker HealthChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		if checker != nil {
			if err := checker.Ping(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
