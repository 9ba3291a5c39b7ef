package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"nlnotes/pkg/metrics"
)

// NewMetricsMiddleware считает запросы и их длительность по шаблону маршрута.
func NewMetricsMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		route := ctx.Path()
		if r := ctx.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		status := ctx.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		metrics.ObserveHTTP(ctx.Method(), route, status, time.Since(start))
		return err
	}
}
