package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nlnotes/pkg/logger"
)

// NewLoggerMiddleware пишет одну запись на запрос. Уровень зависит от статуса ответа:
// 5xx - error, 4xx - warn, остальное - info.
func NewLoggerMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		requestCtx := ctx.Context()
		status := ctx.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.String("ip", ctx.IP()),
			zap.Int("status", status),
			zap.Int("bytes", len(ctx.Response().Body())),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		log := logger.Log(requestCtx)
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			log.Error(requestCtx, "request failed", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn(requestCtx, "request rejected", fields...)
		default:
			log.Info(requestCtx, "request completed", fields...)
		}

		return err
	}
}
